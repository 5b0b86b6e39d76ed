package controllers

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm/clause"

	"github.com/sanjana123-dot/hometownhub/models"
	"github.com/sanjana123-dot/hometownhub/utils"
)

type platformStats struct {
	TotalUsers        int64 `json:"total_users"`
	ApprovedComms     int64 `json:"approved_communities"`
	PendingComms      int64 `json:"pending_communities"`
	TotalPosts        int64 `json:"total_posts"`
	SuspendedUsers    int64 `json:"suspended_users"`
	BannedUsers       int64 `json:"banned_users"`
	Moderators        int64 `json:"moderators"`
	NewUsersLast7Days int64 `json:"new_users_last_7_days"`
}

// AdminStats returns platform totals, cached briefly.
func AdminStats(c *gin.Context) {
	if raw, ok := utils.CacheGetBytes(c.Request.Context(), utils.CacheKeyAdminStats); ok {
		var cached platformStats
		if json.Unmarshal(raw, &cached) == nil {
			utils.Success(c, cached)
			return
		}
	}

	var stats platformStats
	counts := []func() error{
		func() error {
			return db().Model(&models.User{}).Count(&stats.TotalUsers).Error
		},
		func() error {
			return db().Model(&models.Community{}).Where("status = ?", models.CommunityApproved).Count(&stats.ApprovedComms).Error
		},
		func() error {
			return db().Model(&models.Community{}).Where("status = ?", models.CommunityPending).Count(&stats.PendingComms).Error
		},
		func() error {
			return db().Model(&models.Post{}).Count(&stats.TotalPosts).Error
		},
		func() error {
			return db().Model(&models.User{}).Where("is_suspended = ?", true).Count(&stats.SuspendedUsers).Error
		},
		func() error {
			return db().Model(&models.User{}).Where("is_banned = ?", true).Count(&stats.BannedUsers).Error
		},
		func() error {
			return db().Model(&models.Membership{}).Where("is_moderator = ?", true).Count(&stats.Moderators).Error
		},
		func() error {
			return db().Model(&models.User{}).Where("created_at > ?", time.Now().AddDate(0, 0, -7)).Count(&stats.NewUsersLast7Days).Error
		},
	}
	for _, count := range counts {
		if err := count(); err != nil {
			utils.Error(c, 500, 50001, "database error")
			return
		}
	}

	utils.CacheSetJSON(c.Request.Context(), utils.CacheKeyAdminStats, stats, 30*time.Second)
	utils.Success(c, stats)
}

// AdminListCommunities lists communities of any status with optional
// status/search filters.
func AdminListCommunities(c *gin.Context) {
	status := c.Query("status")
	search := c.Query("search")
	_, limit, offset := parsePagination(c, 20, 100)

	query := db().Preload("Creator")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if search != "" {
		query = query.Where("name LIKE ? OR description LIKE ?", "%"+search+"%", "%"+search+"%")
	}

	var communities []models.Community
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&communities).Error; err != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}
	utils.Success(c, communities)
}

// ApproveCommunity opens a pending community and notifies its creator.
func ApproveCommunity(c *gin.Context) {
	setCommunityStatus(c, models.CommunityApproved, "your community %s has been approved")
}

// RejectCommunity declines a pending community and notifies its creator.
func RejectCommunity(c *gin.Context) {
	setCommunityStatus(c, models.CommunityRejected, "your community %s was not approved")
}

func setCommunityStatus(c *gin.Context, status, messageFmt string) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		utils.Error(c, 400, 40010, "invalid community id")
		return
	}

	var community models.Community
	if err := db().First(&community, id).Error; err != nil {
		utils.Error(c, 404, 40402, "community not found")
		return
	}

	if err := db().Model(&community).Update("status", status).Error; err != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}

	utils.InvalidateByPrefix(c.Request.Context(), utils.CacheKeyCommunityList)
	notifyUser(db(), community.CreatorID, models.NotifyCommunity,
		fmt.Sprintf(messageFmt, community.Name), community.ID, community.ID)
	utils.Logger.Info("community status changed",
		zap.Uint("community_id", community.ID), zap.String("status", status))
	utils.Success(c, community)
}

// AdminDeleteCommunity removes a community and everything in it.
func AdminDeleteCommunity(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		utils.Error(c, 400, 40010, "invalid community id")
		return
	}

	var community models.Community
	if err := db().First(&community, id).Error; err != nil {
		utils.Error(c, 404, 40402, "community not found")
		return
	}

	deleteCommunityCascade(db(), community.ID)
	utils.InvalidateByPrefix(c.Request.Context(), utils.CacheKeyCommunityList)
	utils.InvalidateByPrefix(c.Request.Context(), utils.CacheKeyFeed)
	utils.Logger.Info("community deleted", zap.Uint("community_id", community.ID))
	utils.Success(c, gin.H{"message": "community deleted"})
}

// AdminListUsers lists accounts with search, role and flag filters.
func AdminListUsers(c *gin.Context) {
	search := c.Query("search")
	role := c.Query("role")
	flag := c.Query("flag") // suspended | banned
	page, limit, offset := parsePagination(c, 20, 100)

	query := db().Model(&models.User{})
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("name LIKE ? OR username LIKE ? OR email LIKE ?", like, like, like)
	}
	if role != "" {
		query = query.Where("role = ?", role)
	}
	switch flag {
	case "suspended":
		query = query.Where("is_suspended = ?", true)
	case "banned":
		query = query.Where("is_banned = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}

	var users []models.User
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}

	utils.Success(c, gin.H{"users": users, "total": total, "page": page, "limit": limit})
}

type moderationRequest struct {
	Reason string `json:"reason"`
}

// SuspendUser flags an account as suspended. Admin accounts are exempt.
func SuspendUser(c *gin.Context) {
	moderateUser(c, func(user *models.User, reason string) map[string]interface{} {
		return map[string]interface{}{"is_suspended": true, "suspension_reason": reason}
	}, "account suspended")
}

// UnsuspendUser lifts a suspension.
func UnsuspendUser(c *gin.Context) {
	moderateUser(c, func(user *models.User, reason string) map[string]interface{} {
		return map[string]interface{}{"is_suspended": false, "suspension_reason": ""}
	}, "suspension lifted")
}

// BanUser flags an account as banned. Admin accounts are exempt.
func BanUser(c *gin.Context) {
	moderateUser(c, func(user *models.User, reason string) map[string]interface{} {
		return map[string]interface{}{"is_banned": true, "ban_reason": reason}
	}, "account banned")
}

// UnbanUser lifts a ban.
func UnbanUser(c *gin.Context) {
	moderateUser(c, func(user *models.User, reason string) map[string]interface{} {
		return map[string]interface{}{"is_banned": false, "ban_reason": ""}
	}, "ban lifted")
}

func moderateUser(c *gin.Context, updatesFor func(*models.User, string) map[string]interface{}, doneMsg string) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		utils.Error(c, 400, 40010, "invalid user id")
		return
	}

	var target models.User
	if err := db().First(&target, id).Error; err != nil {
		utils.Error(c, 404, 40401, "user not found")
		return
	}
	if target.Role == models.RoleAdmin {
		utils.Error(c, 400, 40050, "admin accounts cannot be moderated")
		return
	}

	var req moderationRequest
	_ = c.ShouldBindJSON(&req)

	if err := db().Model(&target).Updates(updatesFor(&target, utils.StripTags(req.Reason))).Error; err != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}

	utils.Logger.Info("user moderated",
		zap.Uint("user_id", target.ID), zap.String("action", doneMsg), zap.Uint("by", currentUser(c).ID))
	utils.Success(c, gin.H{"message": doneMsg})
}

// AdminListAdmins lists platform admin accounts.
func AdminListAdmins(c *gin.Context) {
	var admins []models.User
	if err := db().Where("role = ?", models.RoleAdmin).Order("created_at ASC").Find(&admins).Error; err != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}
	utils.Success(c, admins)
}

type createAdminRequest struct {
	Email    string `json:"email" binding:"required"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// CreateAdmin promotes an existing account to admin, or creates a fresh admin
// account when no account matches the email.
func CreateAdmin(c *gin.Context) {
	var req createAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, 40001, "email is required")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var existing models.User
	err := db().Where("email = ?", email).First(&existing).Error
	if err == nil {
		if existing.Role == models.RoleAdmin {
			utils.Error(c, 400, 40051, "that account is already an admin")
			return
		}
		if err := db().Model(&existing).Update("role", models.RoleAdmin).Error; err != nil {
			utils.Error(c, 500, 50001, "database error")
			return
		}
		notifyUser(db(), existing.ID, models.NotifySystem, "you have been granted platform admin access", 0, 0)
		utils.Success(c, existing)
		return
	}

	if req.Name == "" || req.Username == "" || req.Password == "" {
		utils.Error(c, 400, 40001, "name, username and password are required for a new admin account")
		return
	}
	if len(req.Password) < utils.MinPasswordLength {
		utils.Error(c, 400, 40002, "password must be at least 8 characters")
		return
	}

	hash, hashErr := utils.HashPassword(req.Password)
	if hashErr != nil {
		utils.Error(c, 500, 50002, "failed to process password")
		return
	}

	admin := models.User{
		Name:         utils.StripTags(req.Name),
		Username:     strings.ToLower(strings.TrimSpace(req.Username)),
		Email:        email,
		PasswordHash: hash,
		Hometown:     "-",
		City:         "-",
		State:        "-",
		Role:         models.RoleAdmin,
	}
	if err := db().Create(&admin).Error; err != nil {
		utils.Error(c, 400, 40005, "an account with this email or username already exists")
		return
	}
	utils.Created(c, admin)
}

type moderatorRequest struct {
	CommunityID uint `json:"communityId" binding:"required"`
	UserID      uint `json:"userId" binding:"required"`
}

// AssignModerator grants the community moderator flag to an active member.
func AssignModerator(c *gin.Context) {
	var req moderatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, 40001, "communityId and userId are required")
		return
	}

	membership := models.Membership{
		CommunityID: req.CommunityID,
		UserID:      req.UserID,
		State:       models.MemberActive,
		IsModerator: true,
	}
	err := db().Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "community_id"}, {Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"is_moderator": true, "state": models.MemberActive}),
	}).Create(&membership).Error
	if err != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}

	if err := recomputeMemberCount(db(), req.CommunityID); err != nil {
		utils.Logger.Warn("member count refresh failed", zap.Uint("community_id", req.CommunityID), zap.Error(err))
	}
	notifyUser(db(), req.UserID, models.NotifyCommunity,
		"you are now a moderator", req.CommunityID, req.CommunityID)
	utils.Success(c, gin.H{"message": "moderator assigned"})
}

// RevokeModerator clears the community moderator flag.
func RevokeModerator(c *gin.Context) {
	var req moderatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, 40001, "communityId and userId are required")
		return
	}

	res := db().Model(&models.Membership{}).
		Where("community_id = ? AND user_id = ?", req.CommunityID, req.UserID).
		Update("is_moderator", false)
	if res.Error != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}
	if res.RowsAffected == 0 {
		utils.Error(c, 404, 40403, "membership not found")
		return
	}
	utils.Success(c, gin.H{"message": "moderator revoked"})
}
