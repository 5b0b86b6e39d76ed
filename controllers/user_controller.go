package controllers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sanjana123-dot/hometownhub/middleware"
	"github.com/sanjana123-dot/hometownhub/models"
	"github.com/sanjana123-dot/hometownhub/utils"
)

type updateProfileRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Hometown string `json:"hometown"`
	City     string `json:"city"`
	State    string `json:"state"`
}

// UpdateProfile changes the caller's profile fields. Username and email stay
// unique and lowercase.
func UpdateProfile(c *gin.Context) {
	user := currentUser(c)

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, 40001, "invalid request body")
		return
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = utils.StripTags(req.Name)
	}
	if req.Hometown != "" {
		updates["hometown"] = utils.StripTags(req.Hometown)
	}
	if req.City != "" {
		updates["city"] = utils.StripTags(req.City)
	}
	if req.State != "" {
		updates["state"] = utils.StripTags(req.State)
	}

	if req.Username != "" {
		username := strings.ToLower(strings.TrimSpace(req.Username))
		if username != user.Username {
			var count int64
			if err := db().Model(&models.User{}).
				Where("username = ? AND id <> ?", username, user.ID).
				Count(&count).Error; err != nil {
				utils.Error(c, 500, 50001, "database error")
				return
			}
			if count > 0 {
				utils.Error(c, 400, 40005, "username is already taken")
				return
			}
			updates["username"] = username
		}
	}
	if req.Email != "" {
		email := strings.ToLower(strings.TrimSpace(req.Email))
		if email != user.Email {
			if !utils.ValidEmailFormat(email) {
				utils.Error(c, 400, 40003, "please provide a valid email address")
				return
			}
			var count int64
			if err := db().Model(&models.User{}).
				Where("email = ? AND id <> ?", email, user.ID).
				Count(&count).Error; err != nil {
				utils.Error(c, 500, 50001, "database error")
				return
			}
			if count > 0 {
				utils.Error(c, 400, 40005, "email is already in use")
				return
			}
			updates["email"] = email
		}
	}

	if len(updates) == 0 {
		utils.Success(c, user)
		return
	}

	if err := db().Model(user).Updates(updates).Error; err != nil {
		utils.Error(c, 500, 50001, "failed to update profile")
		return
	}
	utils.Success(c, user)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

// ChangePassword verifies the current password before setting the new one.
func ChangePassword(c *gin.Context) {
	user := currentUser(c)

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, 40001, "current and new password are required")
		return
	}
	if len(req.NewPassword) < utils.MinPasswordLength {
		utils.Error(c, 400, 40002, "password must be at least 8 characters")
		return
	}
	if !utils.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		utils.Error(c, 401, 40111, "current password is incorrect")
		return
	}

	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		utils.Error(c, 500, 50002, "failed to process password")
		return
	}
	if err := db().Model(user).Update("password_hash", hash).Error; err != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}
	utils.Success(c, gin.H{"message": "password updated"})
}

// GetUser returns a public profile.
func GetUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		utils.Error(c, 400, 40010, "invalid user id")
		return
	}

	var user models.User
	if err := db().First(&user, id).Error; err != nil {
		utils.Error(c, 404, 40401, "user not found")
		return
	}
	utils.Success(c, user)
}

// GetUserPosts lists a user's posts, newest first.
func GetUserPosts(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		utils.Error(c, 400, 40010, "invalid user id")
		return
	}
	_, limit, offset := parsePagination(c, 20, 50)

	var posts []models.Post
	err := db().Preload("Author").Preload("Community").Preload("Files").
		Where("author_id = ?", id).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&posts).Error
	if err != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}
	if err := decoratePosts(db(), posts, currentUser(c).ID); err != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}
	utils.Success(c, posts)
}

// GetUserCommunities lists the communities a user belongs to.
func GetUserCommunities(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		utils.Error(c, 400, 40010, "invalid user id")
		return
	}

	var communities []models.Community
	err := db().
		Joins("JOIN memberships ON memberships.community_id = communities.id").
		Where("memberships.user_id = ? AND memberships.state = ? AND communities.status = ?",
			id, models.MemberActive, models.CommunityApproved).
		Order("communities.name ASC").
		Find(&communities).Error
	if err != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}
	utils.Success(c, communities)
}

// DeleteAccount removes the caller's account and every trace of it.
func DeleteAccount(c *gin.Context) {
	user := currentUser(c)

	deleteUserCascade(db(), user.ID)
	utils.InvalidateByPrefix(c.Request.Context(), utils.CacheKeyCommunityList)
	utils.InvalidateByPrefix(c.Request.Context(), utils.CacheKeyFeed)

	tokenStr := c.GetString(middleware.CtxTokenKey)
	if tokenStr != "" {
		if claims, err := utils.ParseToken(tokenStr); err == nil && claims.ExpiresAt != nil {
			utils.BlacklistToken(c.Request.Context(), tokenStr, claims.ExpiresAt.Time)
		}
	}

	utils.Logger.Info("account deleted", zap.Uint("user_id", user.ID))
	utils.Success(c, gin.H{"message": "account deleted"})
}
