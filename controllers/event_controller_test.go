package controllers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/sanjana123-dot/hometownhub/models"
)

func TestCreateEventAndFanOut(t *testing.T) {
	router, db := setupTest(t)
	creator, creatorToken := createUser(t, db, "creator", models.RoleUser)
	member, _ := createUser(t, db, "member", models.RoleUser)
	community := createTestCommunity(t, db, creator, false)
	addMember(t, db, community.ID, member, models.MemberActive)

	w := doRequest(router, http.MethodPost, "/api/events", creatorToken, map[string]interface{}{
		"title":       "block party",
		"description": "music and food",
		"date":        "2026-10-01",
		"time":        "17:00",
		"location":    "main square",
		"communityId": community.ID,
	})
	wantStatus(t, w, 201)

	var event models.Event
	if err := json.Unmarshal(decodeEnvelope(t, w).Data, &event); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if event.Status != models.EventUpcoming {
		t.Fatalf("status = %q, want upcoming", event.Status)
	}

	var count int64
	db.Model(&models.Notification{}).Where("type = ? AND user_id = ?", models.NotifyEvent, member.ID).Count(&count)
	if count != 1 {
		t.Fatalf("event notifications for member = %d, want 1", count)
	}
}

func TestAttendanceToggle(t *testing.T) {
	router, db := setupTest(t)
	creator, creatorToken := createUser(t, db, "creator", models.RoleUser)
	_, outsiderToken := createUser(t, db, "outsider", models.RoleUser)
	community := createTestCommunity(t, db, creator, false)

	event := models.Event{
		Title: "t", Description: "d", Time: "10:00", Location: "l",
		CommunityID: community.ID, CreatorID: creator.ID, Status: models.EventUpcoming,
	}
	db.Create(&event)

	// Outsiders cannot attend.
	w := doRequest(router, http.MethodPost, fmt.Sprintf("/api/events/%d/attend", event.ID), outsiderToken, nil)
	wantStatus(t, w, 403)

	path := fmt.Sprintf("/api/events/%d/attend", event.ID)
	w = doRequest(router, http.MethodPost, path, creatorToken, nil)
	wantStatus(t, w, 200)
	var result struct {
		Attending     bool  `json:"attending"`
		AttendeeCount int64 `json:"attendeeCount"`
	}
	json.Unmarshal(decodeEnvelope(t, w).Data, &result)
	if !result.Attending || result.AttendeeCount != 1 {
		t.Fatalf("first toggle: %+v", result)
	}

	w = doRequest(router, http.MethodPost, path, creatorToken, nil)
	wantStatus(t, w, 200)
	json.Unmarshal(decodeEnvelope(t, w).Data, &result)
	if result.Attending || result.AttendeeCount != 0 {
		t.Fatalf("second toggle: %+v", result)
	}
}

func TestDeleteEventPermissions(t *testing.T) {
	router, db := setupTest(t)
	creator, _ := createUser(t, db, "creator", models.RoleUser)
	organizer, organizerToken := createUser(t, db, "organizer", models.RoleUser)
	other, otherToken := createUser(t, db, "other", models.RoleUser)
	community := createTestCommunity(t, db, creator, false)
	addMember(t, db, community.ID, organizer, models.MemberActive)
	addMember(t, db, community.ID, other, models.MemberActive)

	event := models.Event{
		Title: "t", Description: "d", Time: "10:00", Location: "l",
		CommunityID: community.ID, CreatorID: organizer.ID, Status: models.EventUpcoming,
	}
	db.Create(&event)
	db.Create(&models.EventAttendee{EventID: event.ID, UserID: other.ID})

	w := doRequest(router, http.MethodDelete, fmt.Sprintf("/api/events/%d", event.ID), otherToken, nil)
	wantStatus(t, w, 403)

	w = doRequest(router, http.MethodDelete, fmt.Sprintf("/api/events/%d", event.ID), organizerToken, nil)
	wantStatus(t, w, 200)

	var count int64
	db.Model(&models.EventAttendee{}).Where("event_id = ?", event.ID).Count(&count)
	if count != 0 {
		t.Fatal("attendance rows must be removed with the event")
	}
}
