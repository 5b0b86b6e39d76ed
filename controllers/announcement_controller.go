package controllers

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sanjana123-dot/hometownhub/models"
	"github.com/sanjana123-dot/hometownhub/utils"
)

type createAnnouncementRequest struct {
	Title       string `json:"title" binding:"required"`
	Content     string `json:"content" binding:"required"`
	CommunityID uint   `json:"communityId" binding:"required"`
}

// CreateAnnouncement posts an announcement into a community the caller
// belongs to and fans out an `announcement` notification.
func CreateAnnouncement(c *gin.Context) {
	user := currentUser(c)

	var req createAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, 40001, "title, content and communityId are required")
		return
	}

	var community models.Community
	if err := db().First(&community, req.CommunityID).Error; err != nil {
		utils.Error(c, 404, 40402, "community not found")
		return
	}
	if banned, err := isBannedFromCommunity(db(), community.ID, user.ID); err != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	} else if banned {
		utils.Error(c, 403, 40312, "you are banned from this community")
		return
	}
	if member, err := isActiveMember(db(), community.ID, user.ID); err != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	} else if !member {
		utils.Error(c, 403, 40313, "you must be a member to post announcements")
		return
	}

	announcement := models.Announcement{
		Title:       utils.StripTags(req.Title),
		Content:     utils.Sanitize(req.Content),
		AuthorID:    user.ID,
		CommunityID: community.ID,
	}
	if err := db().Create(&announcement).Error; err != nil {
		utils.Error(c, 500, 50001, "failed to create announcement")
		return
	}

	notifyCommunityMembers(db(), community.ID, user.ID, models.NotifyAnnouncement,
		fmt.Sprintf("%s: %s", community.Name, announcement.Title), announcement.ID)

	db().Preload("Author").First(&announcement, announcement.ID)
	utils.Created(c, announcement)
}

type updateAnnouncementRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

// UpdateAnnouncement edits an announcement; author only.
func UpdateAnnouncement(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		utils.Error(c, 400, 40010, "invalid announcement id")
		return
	}
	user := currentUser(c)

	var announcement models.Announcement
	if err := db().First(&announcement, id).Error; err != nil {
		utils.Error(c, 404, 40407, "announcement not found")
		return
	}
	if announcement.AuthorID != user.ID {
		utils.Error(c, 403, 40311, "only the author can edit this announcement")
		return
	}

	var req updateAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, 40001, "invalid request body")
		return
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = utils.StripTags(*req.Title)
	}
	if req.Content != nil {
		updates["content"] = utils.Sanitize(*req.Content)
	}
	if len(updates) == 0 {
		utils.Success(c, announcement)
		return
	}

	if err := db().Model(&announcement).Updates(updates).Error; err != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}
	utils.Success(c, announcement)
}

// PinAnnouncement pins an announcement, unpinning any other in the same
// community so at most one stays pinned.
func PinAnnouncement(c *gin.Context) {
	toggleAnnouncementPin(c, true)
}

// UnpinAnnouncement clears the pin.
func UnpinAnnouncement(c *gin.Context) {
	toggleAnnouncementPin(c, false)
}

func toggleAnnouncementPin(c *gin.Context, pin bool) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		utils.Error(c, 400, 40010, "invalid announcement id")
		return
	}
	user := currentUser(c)

	var announcement models.Announcement
	if err := db().Preload("Community").First(&announcement, id).Error; err != nil {
		utils.Error(c, 404, 40407, "announcement not found")
		return
	}

	admin, err := isCommunityAdmin(db(), &announcement.Community, user)
	if err != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}
	if !admin {
		utils.Error(c, 403, 40311, "community admin access required")
		return
	}

	updates := map[string]interface{}{"is_pinned": pin}
	if pin {
		if err := db().Model(&models.Announcement{}).
			Where("community_id = ? AND is_pinned = ?", announcement.CommunityID, true).
			Updates(map[string]interface{}{"is_pinned": false, "pinned_at": nil}).Error; err != nil {
			utils.Error(c, 500, 50001, "database error")
			return
		}
		now := time.Now()
		updates["pinned_at"] = &now
	} else {
		updates["pinned_at"] = nil
	}

	if err := db().Model(&announcement).Updates(updates).Error; err != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}
	utils.Success(c, gin.H{"id": announcement.ID, "isPinned": pin})
}

// DeleteAnnouncement removes an announcement. Allowed for the author or a
// community admin.
func DeleteAnnouncement(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		utils.Error(c, 400, 40010, "invalid announcement id")
		return
	}
	user := currentUser(c)

	var announcement models.Announcement
	if err := db().Preload("Community").First(&announcement, id).Error; err != nil {
		utils.Error(c, 404, 40407, "announcement not found")
		return
	}

	if announcement.AuthorID != user.ID {
		admin, err := isCommunityAdmin(db(), &announcement.Community, user)
		if err != nil {
			utils.Error(c, 500, 50001, "database error")
			return
		}
		if !admin {
			utils.Error(c, 403, 40311, "not allowed to delete this announcement")
			return
		}
	}

	if err := db().Delete(&models.Announcement{}, announcement.ID).Error; err != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}
	utils.Success(c, gin.H{"message": "announcement deleted"})
}
