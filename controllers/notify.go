package controllers

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sanjana123-dot/hometownhub/models"
	"github.com/sanjana123-dot/hometownhub/utils"
)

// notifyCommunityMembers inserts one notification per active member of the
// community, excluding the actor. A failed insert is logged and swallowed so
// notification trouble never fails the triggering request.
func notifyCommunityMembers(tx *gorm.DB, communityID, actorID uint, notifType, message string, relatedID uint) {
	memberIDs, err := activeMemberIDs(tx, communityID)
	if err != nil {
		utils.Logger.Error("notification fan-out member lookup failed",
			zap.Uint("community_id", communityID), zap.Error(err))
		return
	}

	rows := make([]models.Notification, 0, len(memberIDs))
	for _, id := range memberIDs {
		if id == actorID {
			continue
		}
		rows = append(rows, models.Notification{
			UserID:             id,
			Type:               notifType,
			Message:            message,
			RelatedID:          relatedID,
			RelatedCommunityID: communityID,
		})
	}
	if len(rows) == 0 {
		return
	}

	if err := tx.CreateInBatches(rows, 200).Error; err != nil {
		utils.Logger.Error("notification fan-out insert failed",
			zap.Uint("community_id", communityID),
			zap.String("type", notifType),
			zap.Int("recipients", len(rows)),
			zap.Error(err))
	}
}

// notifyUser inserts a single notification for one recipient, best effort.
func notifyUser(tx *gorm.DB, userID uint, notifType, message string, relatedID, relatedCommunityID uint) {
	if userID == 0 {
		return
	}
	n := models.Notification{
		UserID:             userID,
		Type:               notifType,
		Message:            message,
		RelatedID:          relatedID,
		RelatedCommunityID: relatedCommunityID,
	}
	if err := tx.Create(&n).Error; err != nil {
		utils.Logger.Error("notification insert failed",
			zap.Uint("user_id", userID), zap.String("type", notifType), zap.Error(err))
	}
}
