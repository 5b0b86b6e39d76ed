package controllers

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm/clause"

	"github.com/sanjana123-dot/hometownhub/models"
	"github.com/sanjana123-dot/hometownhub/utils"
)

type createEventRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`
	Date        string `json:"date" binding:"required"`
	Time        string `json:"time" binding:"required"`
	Location    string `json:"location" binding:"required"`
	CommunityID uint   `json:"communityId" binding:"required"`
}

// CreateEvent schedules an event in a community the caller belongs to and
// fans out an `event` notification.
func CreateEvent(c *gin.Context) {
	user := currentUser(c)

	var req createEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, 40001, "title, description, date, time, location and communityId are required")
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		if date, err = time.Parse(time.RFC3339, req.Date); err != nil {
			utils.Error(c, 400, 40012, "date must be YYYY-MM-DD")
			return
		}
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
		utils.Error(c, 403, 40313, "you must be a member to create events")
		return
	}

	event := models.Event{
		Title:       utils.StripTags(req.Title),
		Description: utils.Sanitize(req.Description),
		Date:        date,
		Time:        utils.StripTags(req.Time),
		Location:    utils.StripTags(req.Location),
		CommunityID: community.ID,
		CreatorID:   user.ID,
		Status:      models.EventUpcoming,
	}
	if err := db().Create(&event).Error; err != nil {
		utils.Error(c, 500, 50001, "failed to create event")
		return
	}

	notifyCommunityMembers(db(), community.ID, user.ID, models.NotifyEvent,
		fmt.Sprintf("%s scheduled %s in %s", user.Name, event.Title, community.Name), event.ID)

	db().Preload("Creator").First(&event, event.ID)
	utils.Created(c, event)
}

// GetEvent returns one event with its attendees.
func GetEvent(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		utils.Error(c, 400, 40010, "invalid event id")
		return
	}

	var event models.Event
	err := db().Preload("Creator").Preload("Community").
		Preload("Attendees").Preload("Attendees.User").
		First(&event, id).Error
	if err != nil {
		utils.Error(c, 404, 40406, "event not found")
		return
	}
	utils.Success(c, event)
}

// MyEvents lists events in the caller's communities, soonest first. With
// ?upcoming=true only future events are returned.
func MyEvents(c *gin.Context) {
	user := currentUser(c)

	var communityIDs []uint
	err := db().Model(&models.Membership{}).
		Where("user_id = ? AND state = ?", user.ID, models.MemberActive).
		Pluck("community_id", &communityIDs).Error
	if err != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}
	if len(communityIDs) == 0 {
		utils.Success(c, []models.Event{})
		return
	}

	query := db().Preload("Creator").Preload("Community").
		Where("community_id IN ?", communityIDs)
	if c.Query("upcoming") == "true" {
		query = query.Where("date >= ? AND status = ?", time.Now().Truncate(24*time.Hour), models.EventUpcoming)
	}

	var events []models.Event
	if err := query.Order("date ASC").Find(&events).Error; err != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}
	utils.Success(c, events)
}

// ToggleAttendance marks or unmarks the caller as attending.
func ToggleAttendance(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		utils.Error(c, 400, 40010, "invalid event id")
		return
	}
	user := currentUser(c)

	var event models.Event
	if err := db().First(&event, id).Error; err != nil {
		utils.Error(c, 404, 40406, "event not found")
		return
	}

	if member, err := isActiveMember(db(), event.CommunityID, user.ID); err != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	} else if !member {
		utils.Error(c, 403, 40313, "you must be a member of the community to attend")
		return
	}

	res := db().Where("event_id = ? AND user_id = ?", event.ID, user.ID).Delete(&models.EventAttendee{})
	if res.Error != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}

	attending := false
	if res.RowsAffected == 0 {
		row := models.EventAttendee{EventID: event.ID, UserID: user.ID}
		if err := db().Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
			utils.Error(c, 500, 50001, "database error")
			return
		}
		attending = true
	}

	var count int64
	if err := db().Model(&models.EventAttendee{}).Where("event_id = ?", event.ID).Count(&count).Error; err != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}
	utils.Success(c, gin.H{"attending": attending, "attendeeCount": count})
}

type updateEventRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Date        *string `json:"date"`
	Time        *string `json:"time"`
	Location    *string `json:"location"`
	Status      *string `json:"status"`
}

// UpdateEvent edits an event. Allowed for the creator or a community admin.
func UpdateEvent(c *gin.Context) {
	event, ok := loadEventForManage(c)
	if !ok {
		return
	}

	var req updateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, 40001, "invalid request body")
		return
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = utils.StripTags(*req.Title)
	}
	if req.Description != nil {
		updates["description"] = utils.Sanitize(*req.Description)
	}
	if req.Date != nil {
		date, err := time.Parse("2006-01-02", *req.Date)
		if err != nil {
			utils.Error(c, 400, 40012, "date must be YYYY-MM-DD")
			return
		}
		updates["date"] = date
	}
	if req.Time != nil {
		updates["time"] = utils.StripTags(*req.Time)
	}
	if req.Location != nil {
		updates["location"] = utils.StripTags(*req.Location)
	}
	if req.Status != nil {
		switch *req.Status {
		case models.EventUpcoming, models.EventOngoing, models.EventCompleted, models.EventCancelled:
			updates["status"] = *req.Status
		default:
			utils.Error(c, 400, 40013, "invalid event status")
			return
		}
	}
	if len(updates) == 0 {
		utils.Success(c, event)
		return
	}

	if err := db().Model(event).Updates(updates).Error; err != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}
	utils.Success(c, event)
}

// DeleteEvent removes an event and its attendance rows.
func DeleteEvent(c *gin.Context) {
	event, ok := loadEventForManage(c)
	if !ok {
		return
	}

	cascadeStep("event attendees", db().Where("event_id = ?", event.ID).Delete(&models.EventAttendee{}).Error)
	cascadeStep("event", db().Delete(&models.Event{}, event.ID).Error)
	utils.Success(c, gin.H{"message": "event deleted"})
}

func loadEventForManage(c *gin.Context) (*models.Event, bool) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		utils.Error(c, 400, 40010, "invalid event id")
		return nil, false
	}
	user := currentUser(c)

	var event models.Event
	if err := db().Preload("Community").First(&event, id).Error; err != nil {
		utils.Error(c, 404, 40406, "event not found")
		return nil, false
	}

	if event.CreatorID != user.ID {
		admin, err := isCommunityAdmin(db(), &event.Community, user)
		if err != nil {
			utils.Error(c, 500, 50001, "database error")
			return nil, false
		}
		if !admin {
			utils.Error(c, 403, 40311, "not allowed to manage this event")
			return nil, false
		}
	}
	return &event, true
}
