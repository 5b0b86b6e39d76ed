package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sanjana123-dot/hometownhub/config"
	"github.com/sanjana123-dot/hometownhub/middleware"
	"github.com/sanjana123-dot/hometownhub/models"
)

func db() *gorm.DB {
	return config.DB()
}

func currentUser(c *gin.Context) *models.User {
	return middleware.CurrentUser(c)
}

// parsePagination reads ?page and ?limit with bounds applied.
func parsePagination(c *gin.Context, defaultLimit, maxLimit int) (page, limit, offset int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit, (page - 1) * limit
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// membershipOf returns the caller's membership row in a community, if any.
func membershipOf(tx *gorm.DB, communityID, userID uint) (*models.Membership, error) {
	var m models.Membership
	err := tx.Where("community_id = ? AND user_id = ?", communityID, userID).First(&m).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// isActiveMember reports whether the user is a full (non-banned, non-pending)
// member of the community.
func isActiveMember(tx *gorm.DB, communityID, userID uint) (bool, error) {
	var count int64
	err := tx.Model(&models.Membership{}).
		Where("community_id = ? AND user_id = ? AND state = ?", communityID, userID, models.MemberActive).
		Count(&count).Error
	return count > 0, err
}

// isBannedFromCommunity reports a community-level ban, which blocks content
// creation even if the platform account is in good standing.
func isBannedFromCommunity(tx *gorm.DB, communityID, userID uint) (bool, error) {
	var count int64
	err := tx.Model(&models.Membership{}).
		Where("community_id = ? AND user_id = ? AND state = ?", communityID, userID, models.MemberBanned).
		Count(&count).Error
	return count > 0, err
}

// isCommunityAdmin derives the community-admin role per request: the creator,
// a community moderator, or a platform admin.
func isCommunityAdmin(tx *gorm.DB, community *models.Community, user *models.User) (bool, error) {
	if user.Role == models.RoleAdmin {
		return true, nil
	}
	if community.CreatorID == user.ID {
		return true, nil
	}
	var count int64
	err := tx.Model(&models.Membership{}).
		Where("community_id = ? AND user_id = ? AND is_moderator = ? AND state = ?",
			community.ID, user.ID, true, models.MemberActive).
		Count(&count).Error
	return count > 0, err
}

// recomputeMemberCount refreshes the derived counter after any membership
// change.
func recomputeMemberCount(tx *gorm.DB, communityID uint) error {
	var count int64
	if err := tx.Model(&models.Membership{}).
		Where("community_id = ? AND state = ?", communityID, models.MemberActive).
		Count(&count).Error; err != nil {
		return err
	}
	return tx.Model(&models.Community{}).Where("id = ?", communityID).
		Update("member_count", count).Error
}

// activeMemberIDs lists full members of a community, used by fan-out.
func activeMemberIDs(tx *gorm.DB, communityID uint) ([]uint, error) {
	var ids []uint
	err := tx.Model(&models.Membership{}).
		Where("community_id = ? AND state = ?", communityID, models.MemberActive).
		Pluck("user_id", &ids).Error
	return ids, err
}

// decoratePosts fills the derived like fields for a page of posts.
func decoratePosts(tx *gorm.DB, posts []models.Post, callerID uint) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]uint, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
	}

	type likeRow struct {
		PostID uint
		Total  int64
	}
	var counts []likeRow
	if err := tx.Model(&models.PostLike{}).
		Select("post_id, COUNT(*) AS total").
		Where("post_id IN ?", ids).
		Group("post_id").
		Scan(&counts).Error; err != nil {
		return err
	}
	countByPost := make(map[uint]int64, len(counts))
	for _, r := range counts {
		countByPost[r.PostID] = r.Total
	}

	var liked []uint
	if callerID != 0 {
		if err := tx.Model(&models.PostLike{}).
			Where("post_id IN ? AND user_id = ?", ids, callerID).
			Pluck("post_id", &liked).Error; err != nil {
			return err
		}
	}
	likedByPost := make(map[uint]bool, len(liked))
	for _, id := range liked {
		likedByPost[id] = true
	}

	for i := range posts {
		posts[i].LikeCount = countByPost[posts[i].ID]
		posts[i].LikedByCaller = likedByPost[posts[i].ID]
	}
	return nil
}
