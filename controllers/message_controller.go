package controllers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sanjana123-dot/hometownhub/models"
	"github.com/sanjana123-dot/hometownhub/utils"
)

// SendMessage delivers a direct message between two members of the same
// community, optionally sharing a post from that community and attaching
// files.
func SendMessage(c *gin.Context) {
	user := currentUser(c)

	var receiverID, communityID uint
	var content string
	var sharedPostID *uint
	var attachments []models.MessageFile

	if isMultipart(c) {
		rid, err1 := strconv.ParseUint(c.PostForm("receiverId"), 10, 32)
		cid, err2 := strconv.ParseUint(c.PostForm("communityId"), 10, 32)
		if err1 != nil || err2 != nil {
			utils.Error(c, 400, 40001, "receiverId and communityId are required")
			return
		}
		receiverID, communityID = uint(rid), uint(cid)
		content = c.PostForm("content")
		if raw := c.PostForm("sharedPostId"); raw != "" {
			if pid, err := strconv.ParseUint(raw, 10, 32); err == nil {
				id := uint(pid)
				sharedPostID = &id
			}
		}

		files, err := storeUploads(c, "files")
		if err != nil {
			utils.Error(c, 400, 40030, err.Error())
			return
		}
		for _, f := range files {
			attachments = append(attachments, models.MessageFile{
				Filename:     f.Filename,
				OriginalName: f.OriginalName,
				FileType:     f.FileType,
				URL:          f.URL,
			})
		}
	} else {
		var req struct {
			ReceiverID   uint   `json:"receiverId" binding:"required"`
			CommunityID  uint   `json:"communityId" binding:"required"`
			Content      string `json:"content"`
			SharedPostID *uint  `json:"sharedPostId"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.Error(c, 400, 40001, "receiverId and communityId are required")
			return
		}
		receiverID, communityID = req.ReceiverID, req.CommunityID
		content = req.Content
		sharedPostID = req.SharedPostID
	}

	if content == "" && sharedPostID == nil && len(attachments) == 0 {
		utils.Error(c, 400, 40001, "message content is required")
		return
	}
	if receiverID == user.ID {
		utils.Error(c, 400, 40040, "you cannot message yourself")
		return
	}

	for _, uid := range []uint{user.ID, receiverID} {
		member, err := isActiveMember(db(), communityID, uid)
		if err != nil {
			utils.Error(c, 500, 50001, "database error")
			return
		}
		if !member {
			utils.Error(c, 403, 40314, "both users must be members of the community")
			return
		}
	}

	if sharedPostID != nil {
		var post models.Post
		if err := db().First(&post, *sharedPostID).Error; err != nil {
			utils.Error(c, 404, 40404, "shared post not found")
			return
		}
		if post.CommunityID != communityID {
			utils.Error(c, 400, 40041, "shared post must belong to the same community")
			return
		}
	}

	message := models.Message{
		SenderID:     user.ID,
		ReceiverID:   receiverID,
		CommunityID:  communityID,
		Content:      utils.Sanitize(content),
		SharedPostID: sharedPostID,
		Files:        attachments,
	}
	if err := db().Create(&message).Error; err != nil {
		utils.Error(c, 500, 50001, "failed to send message")
		return
	}
	urls := make([]string, 0, len(attachments))
	for _, f := range attachments {
		urls = append(urls, f.URL)
	}
	claimUploads(db(), urls)

	db().Preload("Sender").Preload("Receiver").Preload("Files").Preload("SharedPost").
		First(&message, message.ID)
	utils.Created(c, message)
}

// GetConversation returns all messages between the caller and another user in
// one community, oldest first, and marks the received ones read.
func GetConversation(c *gin.Context) {
	user := currentUser(c)
	partnerID, ok := parseIDParam(c, "userId")
	if !ok {
		utils.Error(c, 400, 40010, "invalid user id")
		return
	}
	communityID, err := strconv.ParseUint(c.Query("communityId"), 10, 32)
	if err != nil || communityID == 0 {
		utils.Error(c, 400, 40010, "communityId query parameter is required")
		return
	}

	var messages []models.Message
	dberr := db().Preload("Sender").Preload("Receiver").Preload("Files").
		Preload("SharedPost").Preload("SharedPost.Author").
		Where("community_id = ? AND ((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?))",
			communityID, user.ID, partnerID, partnerID, user.ID).
		Order("created_at ASC").
		Find(&messages).Error
	if dberr != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}

	now := time.Now()
	if err := db().Model(&models.Message{}).
		Where("community_id = ? AND sender_id = ? AND receiver_id = ? AND is_read = ?",
			communityID, partnerID, user.ID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": now}).Error; err != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}

	utils.Success(c, messages)
}

type conversationSummary struct {
	Partner     models.User    `json:"partner"`
	CommunityID uint           `json:"community_id"`
	LastMessage models.Message `json:"last_message"`
	UnreadCount int64          `json:"unread_count"`
}

// ListConversations groups the caller's messages by partner and community,
// newest activity first, with per-conversation unread counts.
func ListConversations(c *gin.Context) {
	user := currentUser(c)

	var messages []models.Message
	err := db().Preload("Sender").Preload("Receiver").
		Where("sender_id = ? OR receiver_id = ?", user.ID, user.ID).
		Order("created_at DESC").
		Find(&messages).Error
	if err != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}

	type convKey struct {
		partnerID   uint
		communityID uint
	}
	seen := make(map[convKey]int)
	var conversations []conversationSummary

	for _, m := range messages {
		partner := m.Sender
		partnerID := m.SenderID
		if m.SenderID == user.ID {
			partner = m.Receiver
			partnerID = m.ReceiverID
		}
		key := convKey{partnerID, m.CommunityID}

		if idx, ok := seen[key]; ok {
			if m.ReceiverID == user.ID && !m.IsRead {
				conversations[idx].UnreadCount++
			}
			continue
		}

		summary := conversationSummary{
			Partner:     partner,
			CommunityID: m.CommunityID,
			LastMessage: m,
		}
		if m.ReceiverID == user.ID && !m.IsRead {
			summary.UnreadCount = 1
		}
		seen[key] = len(conversations)
		conversations = append(conversations, summary)
	}

	utils.Success(c, conversations)
}

// UnreadMessageCount returns the caller's total unread message count.
func UnreadMessageCount(c *gin.Context) {
	user := currentUser(c)

	var count int64
	err := db().Model(&models.Message{}).
		Where("receiver_id = ? AND is_read = ?", user.ID, false).
		Count(&count).Error
	if err != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}
	utils.Success(c, gin.H{"unreadCount": count})
}

// MarkMessageRead marks one received message read.
func MarkMessageRead(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		utils.Error(c, 400, 40010, "invalid message id")
		return
	}
	user := currentUser(c)

	now := time.Now()
	res := db().Model(&models.Message{}).
		Where("id = ? AND receiver_id = ?", id, user.ID).
		Updates(map[string]interface{}{"is_read": true, "read_at": now})
	if res.Error != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}
	if res.RowsAffected == 0 {
		utils.Error(c, 404, 40408, "message not found")
		return
	}
	utils.Success(c, gin.H{"message": "marked read"})
}

// DeleteMessage removes a message the caller sent.
func DeleteMessage(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		utils.Error(c, 400, 40010, "invalid message id")
		return
	}
	user := currentUser(c)

	var message models.Message
	if err := db().Where("id = ? AND sender_id = ?", id, user.ID).First(&message).Error; err != nil {
		utils.Error(c, 404, 40408, "message not found")
		return
	}

	cascadeStep("message files", db().Where("message_id = ?", message.ID).Delete(&models.MessageFile{}).Error)
	cascadeStep("message", db().Delete(&models.Message{}, message.ID).Error)
	utils.Success(c, gin.H{"message": "message deleted"})
}
