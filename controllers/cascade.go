package controllers

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sanjana123-dot/hometownhub/models"
	"github.com/sanjana123-dot/hometownhub/utils"
)

// The cascade sequences below run best effort without a wrapping transaction:
// each step is attempted even if an earlier one fails, so a partial failure
// leaves less orphaned data rather than none removed. Failures are logged.

func cascadeStep(name string, err error) {
	if err != nil {
		utils.Logger.Error("cascade step failed", zap.String("step", name), zap.Error(err))
	}
}

// deleteCommunityCascade removes a community and everything scoped to it.
func deleteCommunityCascade(tx *gorm.DB, communityID uint) {
	var postIDs []uint
	cascadeStep("collect posts", tx.Model(&models.Post{}).
		Where("community_id = ?", communityID).Pluck("id", &postIDs).Error)

	if len(postIDs) > 0 {
		cascadeStep("post comments", tx.Where("post_id IN ?", postIDs).Delete(&models.Comment{}).Error)
		cascadeStep("post likes", tx.Where("post_id IN ?", postIDs).Delete(&models.PostLike{}).Error)
		cascadeStep("post files", tx.Where("post_id IN ?", postIDs).Delete(&models.PostFile{}).Error)
	}
	cascadeStep("posts", tx.Where("community_id = ?", communityID).Delete(&models.Post{}).Error)

	var eventIDs []uint
	cascadeStep("collect events", tx.Model(&models.Event{}).
		Where("community_id = ?", communityID).Pluck("id", &eventIDs).Error)
	if len(eventIDs) > 0 {
		cascadeStep("event attendees", tx.Where("event_id IN ?", eventIDs).Delete(&models.EventAttendee{}).Error)
	}
	cascadeStep("events", tx.Where("community_id = ?", communityID).Delete(&models.Event{}).Error)

	var messageIDs []uint
	cascadeStep("collect messages", tx.Model(&models.Message{}).
		Where("community_id = ?", communityID).Pluck("id", &messageIDs).Error)
	if len(messageIDs) > 0 {
		cascadeStep("message files", tx.Where("message_id IN ?", messageIDs).Delete(&models.MessageFile{}).Error)
	}
	cascadeStep("messages", tx.Where("community_id = ?", communityID).Delete(&models.Message{}).Error)

	cascadeStep("notifications", tx.Where("related_community_id = ?", communityID).Delete(&models.Notification{}).Error)
	cascadeStep("announcements", tx.Where("community_id = ?", communityID).Delete(&models.Announcement{}).Error)
	cascadeStep("memberships", tx.Where("community_id = ?", communityID).Delete(&models.Membership{}).Error)
	cascadeStep("community", tx.Delete(&models.Community{}, communityID).Error)
}

// deleteUserCascade removes an account and all traces of it, including full
// community cascades for communities the user created.
func deleteUserCascade(tx *gorm.DB, userID uint) {
	var ownPostIDs []uint
	cascadeStep("collect own posts", tx.Model(&models.Post{}).
		Where("author_id = ?", userID).Pluck("id", &ownPostIDs).Error)

	if len(ownPostIDs) > 0 {
		cascadeStep("comments on own posts", tx.Where("post_id IN ?", ownPostIDs).Delete(&models.Comment{}).Error)
		cascadeStep("likes on own posts", tx.Where("post_id IN ?", ownPostIDs).Delete(&models.PostLike{}).Error)
		cascadeStep("files on own posts", tx.Where("post_id IN ?", ownPostIDs).Delete(&models.PostFile{}).Error)
	}
	cascadeStep("authored comments", tx.Where("author_id = ?", userID).Delete(&models.Comment{}).Error)
	cascadeStep("given likes", tx.Where("user_id = ?", userID).Delete(&models.PostLike{}).Error)
	cascadeStep("own posts", tx.Where("author_id = ?", userID).Delete(&models.Post{}).Error)

	var ownEventIDs []uint
	cascadeStep("collect own events", tx.Model(&models.Event{}).
		Where("creator_id = ?", userID).Pluck("id", &ownEventIDs).Error)
	if len(ownEventIDs) > 0 {
		cascadeStep("attendees of own events", tx.Where("event_id IN ?", ownEventIDs).Delete(&models.EventAttendee{}).Error)
	}
	cascadeStep("own events", tx.Where("creator_id = ?", userID).Delete(&models.Event{}).Error)
	cascadeStep("own attendance", tx.Where("user_id = ?", userID).Delete(&models.EventAttendee{}).Error)

	var messageIDs []uint
	cascadeStep("collect messages", tx.Model(&models.Message{}).
		Where("sender_id = ? OR receiver_id = ?", userID, userID).Pluck("id", &messageIDs).Error)
	if len(messageIDs) > 0 {
		cascadeStep("message files", tx.Where("message_id IN ?", messageIDs).Delete(&models.MessageFile{}).Error)
	}
	cascadeStep("messages", tx.Where("sender_id = ? OR receiver_id = ?", userID, userID).Delete(&models.Message{}).Error)

	// Memberships first, then communities the user created get the full
	// community cascade.
	var joinedCommunityIDs []uint
	cascadeStep("collect memberships", tx.Model(&models.Membership{}).
		Where("user_id = ?", userID).Pluck("community_id", &joinedCommunityIDs).Error)
	cascadeStep("memberships", tx.Where("user_id = ?", userID).Delete(&models.Membership{}).Error)
	for _, cid := range joinedCommunityIDs {
		cascadeStep("member count", recomputeMemberCount(tx, cid))
	}

	var createdCommunityIDs []uint
	cascadeStep("collect created communities", tx.Model(&models.Community{}).
		Where("creator_id = ?", userID).Pluck("id", &createdCommunityIDs).Error)
	for _, cid := range createdCommunityIDs {
		deleteCommunityCascade(tx, cid)
	}

	cascadeStep("notifications", tx.Where("user_id = ?", userID).Delete(&models.Notification{}).Error)
	cascadeStep("user", tx.Delete(&models.User{}, userID).Error)
}

// deletePostCascade removes a post with its comments, likes and file rows.
func deletePostCascade(tx *gorm.DB, postID uint) {
	cascadeStep("comments", tx.Where("post_id = ?", postID).Delete(&models.Comment{}).Error)
	cascadeStep("likes", tx.Where("post_id = ?", postID).Delete(&models.PostLike{}).Error)
	cascadeStep("files", tx.Where("post_id = ?", postID).Delete(&models.PostFile{}).Error)
	cascadeStep("post", tx.Delete(&models.Post{}, postID).Error)
}
