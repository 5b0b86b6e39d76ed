package controllers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/sanjana123-dot/hometownhub/models"
)

func TestNotificationListAndMarkRead(t *testing.T) {
	router, db := setupTest(t)
	user, token := createUser(t, db, "alice", models.RoleUser)

	for i := 0; i < 3; i++ {
		db.Create(&models.Notification{
			UserID: user.ID, Type: models.NotifySystem, Message: fmt.Sprintf("n%d", i),
		})
	}

	w := doRequest(router, http.MethodGet, "/api/notifications", token, nil)
	wantStatus(t, w, 200)
	var resp struct {
		Notifications []models.Notification `json:"notifications"`
		UnreadCount   int64                 `json:"unreadCount"`
	}
	if err := json.Unmarshal(decodeEnvelope(t, w).Data, &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Notifications) != 3 || resp.UnreadCount != 3 {
		t.Fatalf("got %d notifications, %d unread", len(resp.Notifications), resp.UnreadCount)
	}

	w = doRequest(router, http.MethodPut,
		fmt.Sprintf("/api/notifications/%d/read", resp.Notifications[0].ID), token, nil)
	wantStatus(t, w, 200)

	w = doRequest(router, http.MethodPut, "/api/notifications/read-all", token, nil)
	wantStatus(t, w, 200)

	var unread int64
	db.Model(&models.Notification{}).Where("user_id = ? AND is_read = ?", user.ID, false).Count(&unread)
	if unread != 0 {
		t.Fatalf("unread = %d, want 0", unread)
	}
}

func TestAnnouncementNotificationBackfill(t *testing.T) {
	router, db := setupTest(t)
	creator, _ := createUser(t, db, "creator", models.RoleUser)
	user, token := createUser(t, db, "alice", models.RoleUser)
	community := createTestCommunity(t, db, creator, false)

	announcement := models.Announcement{
		Title: "t", Content: "c", AuthorID: creator.ID, CommunityID: community.ID,
	}
	db.Create(&announcement)

	// A legacy row without community context.
	db.Create(&models.Notification{
		UserID: user.ID, Type: models.NotifyAnnouncement,
		Message: "t", RelatedID: announcement.ID,
	})

	w := doRequest(router, http.MethodGet, "/api/notifications", token, nil)
	wantStatus(t, w, 200)
	var resp struct {
		Notifications []models.Notification `json:"notifications"`
	}
	if err := json.Unmarshal(decodeEnvelope(t, w).Data, &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Notifications[0].RelatedCommunityID != community.ID {
		t.Fatalf("backfill missing in response: %+v", resp.Notifications[0])
	}

	// And the row itself was repaired.
	var fresh models.Notification
	db.Where("user_id = ?", user.ID).First(&fresh)
	if fresh.RelatedCommunityID != community.ID {
		t.Fatalf("backfill not persisted: %+v", fresh)
	}
}

func TestNotificationOwnership(t *testing.T) {
	router, db := setupTest(t)
	owner, _ := createUser(t, db, "owner", models.RoleUser)
	_, otherToken := createUser(t, db, "other", models.RoleUser)

	n := models.Notification{UserID: owner.ID, Type: models.NotifySystem, Message: "m"}
	db.Create(&n)

	w := doRequest(router, http.MethodPut, fmt.Sprintf("/api/notifications/%d/read", n.ID), otherToken, nil)
	wantStatus(t, w, 404)
	w = doRequest(router, http.MethodDelete, fmt.Sprintf("/api/notifications/%d", n.ID), otherToken, nil)
	wantStatus(t, w, 404)
}
