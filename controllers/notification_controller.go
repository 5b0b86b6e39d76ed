package controllers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sanjana123-dot/hometownhub/models"
	"github.com/sanjana123-dot/hometownhub/utils"
)

// ListNotifications returns the caller's newest notifications (cap 50) plus
// the unread count. Older announcement rows written before community context
// was recorded get their related_community_id backfilled at read time.
func ListNotifications(c *gin.Context) {
	user := currentUser(c)

	var notifications []models.Notification
	err := db().Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Limit(50).
		Find(&notifications).Error
	if err != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}

	backfillAnnouncementCommunities(notifications)

	var unread int64
	if err := db().Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", user.ID, false).
		Count(&unread).Error; err != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}

	utils.Success(c, gin.H{"notifications": notifications, "unreadCount": unread})
}

func backfillAnnouncementCommunities(notifications []models.Notification) {
	var missing []uint
	for _, n := range notifications {
		if n.Type == models.NotifyAnnouncement && n.RelatedCommunityID == 0 && n.RelatedID != 0 {
			missing = append(missing, n.RelatedID)
		}
	}
	if len(missing) == 0 {
		return
	}

	type annRow struct {
		ID          uint
		CommunityID uint
	}
	var rows []annRow
	if err := db().Model(&models.Announcement{}).
		Select("id, community_id").
		Where("id IN ?", missing).
		Scan(&rows).Error; err != nil {
		utils.Logger.Warn("announcement backfill lookup failed", zap.Error(err))
		return
	}
	communityByAnn := make(map[uint]uint, len(rows))
	for _, r := range rows {
		communityByAnn[r.ID] = r.CommunityID
	}

	for i := range notifications {
		n := &notifications[i]
		if n.Type != models.NotifyAnnouncement || n.RelatedCommunityID != 0 {
			continue
		}
		cid, ok := communityByAnn[n.RelatedID]
		if !ok {
			continue
		}
		n.RelatedCommunityID = cid
		if err := db().Model(&models.Notification{}).Where("id = ?", n.ID).
			Update("related_community_id", cid).Error; err != nil {
			utils.Logger.Warn("announcement backfill update failed", zap.Uint("id", n.ID), zap.Error(err))
		}
	}
}

// MarkNotificationRead marks one notification read.
func MarkNotificationRead(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		utils.Error(c, 400, 40010, "invalid notification id")
		return
	}
	user := currentUser(c)

	res := db().Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, user.ID).
		Update("is_read", true)
	if res.Error != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}
	if res.RowsAffected == 0 {
		utils.Error(c, 404, 40409, "notification not found")
		return
	}
	utils.Success(c, gin.H{"message": "marked read"})
}

// MarkAllNotificationsRead marks every unread notification read.
func MarkAllNotificationsRead(c *gin.Context) {
	user := currentUser(c)

	err := db().Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", user.ID, false).
		Update("is_read", true).Error
	if err != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}
	utils.Success(c, gin.H{"message": "all marked read"})
}

// DeleteNotification removes one of the caller's notifications.
func DeleteNotification(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		utils.Error(c, 400, 40010, "invalid notification id")
		return
	}
	user := currentUser(c)

	res := db().Where("id = ? AND user_id = ?", id, user.ID).Delete(&models.Notification{})
	if res.Error != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}
	if res.RowsAffected == 0 {
		utils.Error(c, 404, 40409, "notification not found")
		return
	}
	utils.Success(c, gin.H{"message": "notification deleted"})
}
