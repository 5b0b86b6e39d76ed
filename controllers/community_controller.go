package controllers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm/clause"

	"github.com/sanjana123-dot/hometownhub/models"
	"github.com/sanjana123-dot/hometownhub/utils"
)

type createCommunityRequest struct {
	Name             string `json:"name" binding:"required"`
	Description      string `json:"description" binding:"required"`
	City             string `json:"city" binding:"required"`
	State            string `json:"state" binding:"required"`
	Rules            string `json:"rules"`
	RequiresApproval bool   `json:"requiresApproval"`
}

// CreateCommunity registers a new community. Platform admins get instant
// approval, everyone else waits for moderation. The creator always becomes a
// member.
func CreateCommunity(c *gin.Context) {
	user := currentUser(c)

	var req createCommunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, 40001, "name, description, city and state are required")
		return
	}

	status := models.CommunityPending
	if user.Role == models.RoleAdmin {
		status = models.CommunityApproved
	}

	community := models.Community{
		Name:             utils.StripTags(req.Name),
		Description:      utils.Sanitize(req.Description),
		City:             utils.StripTags(req.City),
		State:            utils.StripTags(req.State),
		CreatorID:        user.ID,
		Status:           status,
		Rules:            utils.Sanitize(req.Rules),
		RequiresApproval: req.RequiresApproval,
	}
	if err := db().Create(&community).Error; err != nil {
		utils.Error(c, 500, 50001, "failed to create community")
		return
	}

	membership := models.Membership{
		CommunityID: community.ID,
		UserID:      user.ID,
		State:       models.MemberActive,
	}
	if err := db().Clauses(clause.OnConflict{DoNothing: true}).Create(&membership).Error; err != nil {
		utils.Error(c, 500, 50001, "failed to add creator membership")
		return
	}
	if err := recomputeMemberCount(db(), community.ID); err != nil {
		utils.Logger.Warn("member count refresh failed", zap.Uint("community_id", community.ID), zap.Error(err))
	}

	utils.InvalidateByPrefix(c.Request.Context(), utils.CacheKeyCommunityList)
	utils.Logger.Info("community created",
		zap.Uint("community_id", community.ID), zap.String("status", status))
	utils.Created(c, community)
}

// ListCommunities returns approved communities with optional city/state/search
// filters. Unfiltered pages are served from cache.
func ListCommunities(c *gin.Context) {
	city := c.Query("city")
	state := c.Query("state")
	search := c.Query("search")
	page, limit, offset := parsePagination(c, 20, 50)

	cacheable := city == "" && state == "" && search == ""
	cacheKey := fmt.Sprintf("%sp%d:l%d", utils.CacheKeyCommunityList, page, limit)
	if cacheable {
		if raw, ok := utils.CacheGetBytes(c.Request.Context(), cacheKey); ok {
			var cached []models.Community
			if json.Unmarshal(raw, &cached) == nil {
				utils.Success(c, cached)
				return
			}
		}
	}

	query := db().Preload("Creator").Where("status = ?", models.CommunityApproved)
	if city != "" {
		query = query.Where("city LIKE ?", "%"+city+"%")
	}
	if state != "" {
		query = query.Where("state LIKE ?", "%"+state+"%")
	}
	if search != "" {
		query = query.Where("name LIKE ? OR description LIKE ?", "%"+search+"%", "%"+search+"%")
	}

	var communities []models.Community
	if err := query.Order("member_count DESC, created_at DESC").
		Limit(limit).Offset(offset).Find(&communities).Error; err != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}

	if cacheable {
		utils.CacheSetJSON(c.Request.Context(), cacheKey, communities, 2*time.Minute)
	}
	utils.Success(c, communities)
}

// GetCommunity returns one community with the caller's relationship flags.
// The pending-request list is only included for community admins.
func GetCommunity(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		utils.Error(c, 400, 40010, "invalid community id")
		return
	}
	user := currentUser(c)

	var community models.Community
	if err := db().Preload("Creator").First(&community, id).Error; err != nil {
		utils.Error(c, 404, 40402, "community not found")
		return
	}

	membership, err := membershipOf(db(), community.ID, user.ID)
	if err != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}
	admin, err := isCommunityAdmin(db(), &community, user)
	if err != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}

	var members []models.Membership
	if err := db().Preload("User").
		Where("community_id = ? AND state = ?", community.ID, models.MemberActive).
		Find(&members).Error; err != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}

	resp := gin.H{
		"community":        community,
		"members":          members,
		"isMember":         membership != nil && membership.State == models.MemberActive,
		"isPending":        membership != nil && membership.State == models.MemberPending,
		"isCommunityAdmin": admin,
	}

	if admin {
		var pending []models.Membership
		if err := db().Preload("User").
			Where("community_id = ? AND state = ?", community.ID, models.MemberPending).
			Find(&pending).Error; err != nil {
			utils.Error(c, 500, 50001, "database error")
			return
		}
		resp["pendingRequests"] = pending
	}

	utils.Success(c, resp)
}

// JoinCommunity starts or completes the membership workflow.
func JoinCommunity(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		utils.Error(c, 400, 40010, "invalid community id")
		return
	}
	user := currentUser(c)

	var community models.Community
	if err := db().First(&community, id).Error; err != nil {
		utils.Error(c, 404, 40402, "community not found")
		return
	}
	if community.Status != models.CommunityApproved {
		utils.Error(c, 400, 40020, "this community is not accepting members yet")
		return
	}

	existing, err := membershipOf(db(), community.ID, user.ID)
	if err != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}
	if existing != nil {
		switch existing.State {
		case models.MemberActive:
			utils.Error(c, 400, 40021, "you are already a member of this community")
		case models.MemberPending:
			utils.Error(c, 400, 40022, "your join request is already pending")
		default:
			utils.Error(c, 403, 40310, "you cannot join this community")
		}
		return
	}

	state := models.MemberActive
	if community.RequiresApproval {
		state = models.MemberPending
	}

	membership := models.Membership{CommunityID: community.ID, UserID: user.ID, State: state}
	if err := db().Clauses(clause.OnConflict{DoNothing: true}).Create(&membership).Error; err != nil {
		utils.Error(c, 500, 50001, "failed to join community")
		return
	}

	if state == models.MemberActive {
		if err := recomputeMemberCount(db(), community.ID); err != nil {
			utils.Logger.Warn("member count refresh failed", zap.Uint("community_id", community.ID), zap.Error(err))
		}
		utils.InvalidateByPrefix(c.Request.Context(), utils.CacheKeyCommunityList)
		utils.Success(c, gin.H{"status": "member", "message": "welcome to " + community.Name})
		return
	}

	notifyUser(db(), community.CreatorID, models.NotifyCommunity,
		fmt.Sprintf("%s requested to join %s", user.Name, community.Name),
		community.ID, community.ID)
	utils.Success(c, gin.H{"status": "pending", "message": "join request sent"})
}

// LeaveCommunity removes the caller's membership. The creator cannot leave.
func LeaveCommunity(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		utils.Error(c, 400, 40010, "invalid community id")
		return
	}
	user := currentUser(c)

	var community models.Community
	if err := db().First(&community, id).Error; err != nil {
		utils.Error(c, 404, 40402, "community not found")
		return
	}
	if community.CreatorID == user.ID {
		utils.Error(c, 400, 40023, "the creator cannot leave the community")
		return
	}

	res := db().Where("community_id = ? AND user_id = ? AND state <> ?",
		community.ID, user.ID, models.MemberBanned).Delete(&models.Membership{})
	if res.Error != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}
	if res.RowsAffected == 0 {
		utils.Error(c, 400, 40024, "you are not a member of this community")
		return
	}

	if err := recomputeMemberCount(db(), community.ID); err != nil {
		utils.Logger.Warn("member count refresh failed", zap.Uint("community_id", community.ID), zap.Error(err))
	}
	utils.InvalidateByPrefix(c.Request.Context(), utils.CacheKeyCommunityList)
	utils.Success(c, gin.H{"message": "left " + community.Name})
}

// MyCommunities lists communities where the caller is an active member.
func MyCommunities(c *gin.Context) {
	user := currentUser(c)

	var communities []models.Community
	err := db().
		Joins("JOIN memberships ON memberships.community_id = communities.id").
		Where("memberships.user_id = ? AND memberships.state = ?", user.ID, models.MemberActive).
		Order("communities.name ASC").
		Find(&communities).Error
	if err != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}
	utils.Success(c, communities)
}

// MyAdminCommunities lists communities the caller administers: created, or
// moderates, or all approved communities for platform admins.
func MyAdminCommunities(c *gin.Context) {
	user := currentUser(c)

	var communities []models.Community
	var err error
	if user.Role == models.RoleAdmin {
		err = db().Where("status = ?", models.CommunityApproved).
			Order("name ASC").Find(&communities).Error
	} else {
		err = db().
			Joins("LEFT JOIN memberships ON memberships.community_id = communities.id AND memberships.user_id = ?", user.ID).
			Where("communities.creator_id = ? OR (memberships.is_moderator = ? AND memberships.state = ?)",
				user.ID, true, models.MemberActive).
			Group("communities.id").
			Order("communities.name ASC").
			Find(&communities).Error
	}
	if err != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}
	utils.Success(c, communities)
}

type memberActionRequest struct {
	UserID uint `json:"userId" binding:"required"`
}

// ApproveMember promotes a pending request to full membership.
func ApproveMember(c *gin.Context) {
	community, target, ok := loadMemberAction(c)
	if !ok {
		return
	}

	res := db().Model(&models.Membership{}).
		Where("community_id = ? AND user_id = ? AND state = ?", community.ID, target, models.MemberPending).
		Update("state", models.MemberActive)
	if res.Error != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}
	if res.RowsAffected == 0 {
		utils.Error(c, 404, 40403, "no pending request for that user")
		return
	}

	if err := recomputeMemberCount(db(), community.ID); err != nil {
		utils.Logger.Warn("member count refresh failed", zap.Uint("community_id", community.ID), zap.Error(err))
	}
	utils.InvalidateByPrefix(c.Request.Context(), utils.CacheKeyCommunityList)
	notifyUser(db(), target, models.NotifyCommunity,
		fmt.Sprintf("your request to join %s was approved", community.Name),
		community.ID, community.ID)
	utils.Success(c, gin.H{"message": "member approved"})
}

// RejectMember declines a pending join request.
func RejectMember(c *gin.Context) {
	community, target, ok := loadMemberAction(c)
	if !ok {
		return
	}

	res := db().Where("community_id = ? AND user_id = ? AND state = ?",
		community.ID, target, models.MemberPending).Delete(&models.Membership{})
	if res.Error != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}
	if res.RowsAffected == 0 {
		utils.Error(c, 404, 40403, "no pending request for that user")
		return
	}

	notifyUser(db(), target, models.NotifyCommunity,
		fmt.Sprintf("your request to join %s was declined", community.Name),
		community.ID, community.ID)
	utils.Success(c, gin.H{"message": "request rejected"})
}

// RemoveMember expels an active member. The creator cannot be removed.
func RemoveMember(c *gin.Context) {
	community, target, ok := loadMemberAction(c)
	if !ok {
		return
	}
	if target == community.CreatorID {
		utils.Error(c, 400, 40023, "the community creator cannot be removed")
		return
	}

	res := db().Where("community_id = ? AND user_id = ? AND state = ?",
		community.ID, target, models.MemberActive).Delete(&models.Membership{})
	if res.Error != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}
	if res.RowsAffected == 0 {
		utils.Error(c, 404, 40403, "that user is not a member")
		return
	}

	if err := recomputeMemberCount(db(), community.ID); err != nil {
		utils.Logger.Warn("member count refresh failed", zap.Uint("community_id", community.ID), zap.Error(err))
	}
	utils.InvalidateByPrefix(c.Request.Context(), utils.CacheKeyCommunityList)
	utils.Success(c, gin.H{"message": "member removed"})
}

// BanMember marks a member banned in this community; they keep platform access
// but cannot rejoin or create content here.
func BanMember(c *gin.Context) {
	community, target, ok := loadMemberAction(c)
	if !ok {
		return
	}
	if target == community.CreatorID {
		utils.Error(c, 400, 40023, "the community creator cannot be banned")
		return
	}

	membership := models.Membership{CommunityID: community.ID, UserID: target, State: models.MemberBanned}
	err := db().Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "community_id"}, {Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"state": models.MemberBanned, "is_moderator": false}),
	}).Create(&membership).Error
	if err != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}

	if err := recomputeMemberCount(db(), community.ID); err != nil {
		utils.Logger.Warn("member count refresh failed", zap.Uint("community_id", community.ID), zap.Error(err))
	}
	utils.InvalidateByPrefix(c.Request.Context(), utils.CacheKeyCommunityList)
	utils.Success(c, gin.H{"message": "member banned from community"})
}

// loadMemberAction resolves the community, checks community-admin rights and
// parses the target user from the body.
func loadMemberAction(c *gin.Context) (*models.Community, uint, bool) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		utils.Error(c, 400, 40010, "invalid community id")
		return nil, 0, false
	}
	user := currentUser(c)

	var community models.Community
	if err := db().First(&community, id).Error; err != nil {
		utils.Error(c, 404, 40402, "community not found")
		return nil, 0, false
	}

	admin, err := isCommunityAdmin(db(), &community, user)
	if err != nil {
		utils.Error(c, 500, 50001, "database error")
		return nil, 0, false
	}
	if !admin {
		utils.Error(c, 403, 40311, "community admin access required")
		return nil, 0, false
	}

	var req memberActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, 40001, "userId is required")
		return nil, 0, false
	}
	return &community, req.UserID, true
}

type communitySettingsRequest struct {
	Rules            *string `json:"rules"`
	RequiresApproval *bool   `json:"requiresApproval"`
	Description      *string `json:"description"`
}

// UpdateCommunitySettings changes rules, description and the approval gate.
func UpdateCommunitySettings(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		utils.Error(c, 400, 40010, "invalid community id")
		return
	}
	user := currentUser(c)

	var community models.Community
	if err := db().First(&community, id).Error; err != nil {
		utils.Error(c, 404, 40402, "community not found")
		return
	}
	admin, err := isCommunityAdmin(db(), &community, user)
	if err != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}
	if !admin {
		utils.Error(c, 403, 40311, "community admin access required")
		return
	}

	var req communitySettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, 40001, "invalid request body")
		return
	}

	updates := map[string]interface{}{}
	if req.Rules != nil {
		updates["rules"] = utils.Sanitize(*req.Rules)
	}
	if req.Description != nil {
		updates["description"] = utils.Sanitize(*req.Description)
	}
	if req.RequiresApproval != nil {
		updates["requires_approval"] = *req.RequiresApproval
	}
	if len(updates) == 0 {
		utils.Success(c, community)
		return
	}

	if err := db().Model(&community).Updates(updates).Error; err != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}
	utils.InvalidateByPrefix(c.Request.Context(), utils.CacheKeyCommunityList)
	utils.Success(c, community)
}

// GetCommunityPosts lists a community's posts, pinned first.
func GetCommunityPosts(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		utils.Error(c, 400, 40010, "invalid community id")
		return
	}
	_, limit, offset := parsePagination(c, 20, 50)

	var posts []models.Post
	err := db().Preload("Author").Preload("Files").Preload("Comments").Preload("Comments.Author").
		Where("community_id = ?", id).
		Order("is_pinned DESC, created_at DESC").
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

// GetCommunityEvents lists a community's events, soonest first.
func GetCommunityEvents(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		utils.Error(c, 400, 40010, "invalid community id")
		return
	}

	var events []models.Event
	err := db().Preload("Creator").Preload("Attendees").Preload("Attendees.User").
		Where("community_id = ?", id).
		Order("date ASC").
		Find(&events).Error
	if err != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}
	utils.Success(c, events)
}

// GetCommunityAnnouncements lists announcements, pinned first.
func GetCommunityAnnouncements(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		utils.Error(c, 400, 40010, "invalid community id")
		return
	}

	var announcements []models.Announcement
	err := db().Preload("Author").
		Where("community_id = ?", id).
		Order("is_pinned DESC, created_at DESC").
		Find(&announcements).Error
	if err != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}
	utils.Success(c, announcements)
}
