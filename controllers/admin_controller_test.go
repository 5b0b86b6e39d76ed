package controllers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/sanjana123-dot/hometownhub/controllers"
	"github.com/sanjana123-dot/hometownhub/models"
)

func TestAdminGate(t *testing.T) {
	router, db := setupTest(t)
	_, userToken := createUser(t, db, "plain", models.RoleUser)

	w := doRequest(router, http.MethodGet, "/api/admin/stats", userToken, nil)
	wantStatus(t, w, 403)
}

func TestAdminStats(t *testing.T) {
	router, db := setupTest(t)
	creator, _ := createUser(t, db, "creator", models.RoleUser)
	_, adminToken := createUser(t, db, "root", models.RoleAdmin)
	community := createTestCommunity(t, db, creator, false)
	db.Create(&models.Post{Content: "p", AuthorID: creator.ID, CommunityID: community.ID})

	w := doRequest(router, http.MethodGet, "/api/admin/stats", adminToken, nil)
	wantStatus(t, w, 200)

	var stats controllers.PlatformStats
	if err := json.Unmarshal(decodeEnvelope(t, w).Data, &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.TotalUsers != 2 || stats.ApprovedComms != 1 || stats.TotalPosts != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.NewUsersLast7Days != 2 {
		t.Fatalf("new users = %d, want 2", stats.NewUsersLast7Days)
	}
}

func TestCommunityApprovalWorkflow(t *testing.T) {
	router, db := setupTest(t)
	creator, creatorToken := createUser(t, db, "creator", models.RoleUser)
	_, adminToken := createUser(t, db, "root", models.RoleAdmin)

	w := doRequest(router, http.MethodPost, "/api/communities", creatorToken, map[string]interface{}{
		"name": "Pending Place", "description": "d", "city": "c", "state": "s",
	})
	wantStatus(t, w, 201)
	var community models.Community
	json.Unmarshal(decodeEnvelope(t, w).Data, &community)

	// Not listed while pending.
	w = doRequest(router, http.MethodGet, "/api/communities", creatorToken, nil)
	wantStatus(t, w, 200)
	var listed []models.Community
	json.Unmarshal(decodeEnvelope(t, w).Data, &listed)
	if len(listed) != 0 {
		t.Fatalf("pending community must not be listed, got %d", len(listed))
	}

	w = doRequest(router, http.MethodPost, fmt.Sprintf("/api/admin/communities/%d/approve", community.ID), adminToken, nil)
	wantStatus(t, w, 200)

	var fresh models.Community
	db.First(&fresh, community.ID)
	if fresh.Status != models.CommunityApproved {
		t.Fatalf("status = %q, want approved", fresh.Status)
	}

	// Creator was told.
	var n models.Notification
	if err := db.Where("user_id = ? AND type = ?", creator.ID, models.NotifyCommunity).First(&n).Error; err != nil {
		t.Fatalf("creator notification missing: %v", err)
	}

	w = doRequest(router, http.MethodGet, "/api/communities", creatorToken, nil)
	wantStatus(t, w, 200)
	json.Unmarshal(decodeEnvelope(t, w).Data, &listed)
	if len(listed) != 1 {
		t.Fatalf("approved community must be listed, got %d", len(listed))
	}
}

func TestAdminDeleteCommunityCascades(t *testing.T) {
	router, db := setupTest(t)
	creator, _ := createUser(t, db, "creator", models.RoleUser)
	member, _ := createUser(t, db, "member", models.RoleUser)
	_, adminToken := createUser(t, db, "root", models.RoleAdmin)
	community := createTestCommunity(t, db, creator, false)
	addMember(t, db, community.ID, member, models.MemberActive)

	post := models.Post{Content: "p", AuthorID: creator.ID, CommunityID: community.ID}
	db.Create(&post)
	db.Create(&models.Comment{PostID: post.ID, AuthorID: member.ID, Content: "c"})
	db.Create(&models.PostLike{PostID: post.ID, UserID: member.ID})
	event := models.Event{Title: "e", Description: "d", Time: "10:00", Location: "l",
		CommunityID: community.ID, CreatorID: creator.ID}
	db.Create(&event)
	db.Create(&models.EventAttendee{EventID: event.ID, UserID: member.ID})
	db.Create(&models.Announcement{Title: "a", Content: "c", AuthorID: creator.ID, CommunityID: community.ID})
	db.Create(&models.Message{SenderID: creator.ID, ReceiverID: member.ID, CommunityID: community.ID, Content: "m"})
	db.Create(&models.Notification{UserID: member.ID, Type: models.NotifyPost, Message: "m",
		RelatedID: post.ID, RelatedCommunityID: community.ID})

	w := doRequest(router, http.MethodDelete, fmt.Sprintf("/api/admin/communities/%d", community.ID), adminToken, nil)
	wantStatus(t, w, 200)

	checks := []struct {
		name  string
		query func(*int64)
	}{
		{"posts", func(n *int64) { db.Model(&models.Post{}).Where("community_id = ?", community.ID).Count(n) }},
		{"comments", func(n *int64) { db.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(n) }},
		{"likes", func(n *int64) { db.Model(&models.PostLike{}).Where("post_id = ?", post.ID).Count(n) }},
		{"events", func(n *int64) { db.Model(&models.Event{}).Where("community_id = ?", community.ID).Count(n) }},
		{"attendees", func(n *int64) { db.Model(&models.EventAttendee{}).Where("event_id = ?", event.ID).Count(n) }},
		{"announcements", func(n *int64) { db.Model(&models.Announcement{}).Where("community_id = ?", community.ID).Count(n) }},
		{"messages", func(n *int64) { db.Model(&models.Message{}).Where("community_id = ?", community.ID).Count(n) }},
		{"memberships", func(n *int64) { db.Model(&models.Membership{}).Where("community_id = ?", community.ID).Count(n) }},
		{"notifications", func(n *int64) {
			db.Model(&models.Notification{}).Where("related_community_id = ?", community.ID).Count(n)
		}},
		{"community", func(n *int64) { db.Model(&models.Community{}).Where("id = ?", community.ID).Count(n) }},
	}
	for _, check := range checks {
		var count int64
		check.query(&count)
		if count != 0 {
			t.Errorf("%s left behind: %d rows", check.name, count)
		}
	}
}

func TestSuspendAndModerationExemption(t *testing.T) {
	router, db := setupTest(t)
	target, targetToken := createUser(t, db, "target", models.RoleUser)
	admin, adminToken := createUser(t, db, "root", models.RoleAdmin)

	w := doRequest(router, http.MethodPost, fmt.Sprintf("/api/admin/users/%d/suspend", target.ID),
		adminToken, map[string]string{"reason": "cool off"})
	wantStatus(t, w, 200)

	// Suspended account is locked out with the reason.
	w = doRequest(router, http.MethodGet, "/api/auth/me", targetToken, nil)
	wantStatus(t, w, 403)
	if env := decodeEnvelope(t, w); env.Message != "cool off" {
		t.Fatalf("message = %q, want the suspension reason", env.Message)
	}

	w = doRequest(router, http.MethodPost, fmt.Sprintf("/api/admin/users/%d/unsuspend", target.ID), adminToken, nil)
	wantStatus(t, w, 200)
	w = doRequest(router, http.MethodGet, "/api/auth/me", targetToken, nil)
	wantStatus(t, w, 200)

	// Admins cannot be moderated.
	w = doRequest(router, http.MethodPost, fmt.Sprintf("/api/admin/users/%d/ban", admin.ID),
		adminToken, map[string]string{"reason": "oops"})
	wantStatus(t, w, 400)
}

func TestCreateAdminPromotesExisting(t *testing.T) {
	router, db := setupTest(t)
	existing, _ := createUser(t, db, "regular", models.RoleUser)
	_, adminToken := createUser(t, db, "root", models.RoleAdmin)

	w := doRequest(router, http.MethodPost, "/api/admin/admins", adminToken, map[string]string{
		"email": existing.Email,
	})
	wantStatus(t, w, 200)

	var fresh models.User
	db.First(&fresh, existing.ID)
	if fresh.Role != models.RoleAdmin {
		t.Fatalf("role = %q, want admin", fresh.Role)
	}
}

func TestModeratorAssignment(t *testing.T) {
	router, db := setupTest(t)
	creator, _ := createUser(t, db, "creator", models.RoleUser)
	member, memberToken := createUser(t, db, "member", models.RoleUser)
	_, adminToken := createUser(t, db, "root", models.RoleAdmin)
	community := createTestCommunity(t, db, creator, false)
	addMember(t, db, community.ID, member, models.MemberActive)

	w := doRequest(router, http.MethodPost, "/api/admin/moderators", adminToken, map[string]uint{
		"communityId": community.ID, "userId": member.ID,
	})
	wantStatus(t, w, 200)

	// Moderator now passes the community-admin gate.
	w = doRequest(router, http.MethodPatch, fmt.Sprintf("/api/communities/%d/settings", community.ID),
		memberToken, map[string]interface{}{"rules": "new rules"})
	wantStatus(t, w, 200)

	w = doRequest(router, http.MethodDelete, "/api/admin/moderators", adminToken, map[string]uint{
		"communityId": community.ID, "userId": member.ID,
	})
	wantStatus(t, w, 200)

	w = doRequest(router, http.MethodPatch, fmt.Sprintf("/api/communities/%d/settings", community.ID),
		memberToken, map[string]interface{}{"rules": "again"})
	wantStatus(t, w, 403)
}

func TestDeleteAccountCascades(t *testing.T) {
	router, db := setupTest(t)
	creator, _ := createUser(t, db, "creator", models.RoleUser)
	user, token := createUser(t, db, "leaver", models.RoleUser)
	community := createTestCommunity(t, db, creator, false)
	addMember(t, db, community.ID, user, models.MemberActive)

	post := models.Post{Content: "mine", AuthorID: user.ID, CommunityID: community.ID}
	db.Create(&post)
	db.Create(&models.Message{SenderID: user.ID, ReceiverID: creator.ID, CommunityID: community.ID, Content: "hi"})
	db.Create(&models.Message{SenderID: creator.ID, ReceiverID: user.ID, CommunityID: community.ID, Content: "yo"})

	// A community the leaver created cascades away entirely.
	owned := models.Community{Name: "Owned", Description: "d", City: "c", State: "s",
		CreatorID: user.ID, Status: models.CommunityApproved}
	db.Create(&owned)

	w := doRequest(router, http.MethodDelete, "/api/users/me", token, nil)
	wantStatus(t, w, 200)

	var count int64
	db.Model(&models.User{}).Where("id = ?", user.ID).Count(&count)
	if count != 0 {
		t.Fatal("user row must be gone")
	}
	db.Model(&models.Post{}).Where("author_id = ?", user.ID).Count(&count)
	if count != 0 {
		t.Fatal("posts must be gone")
	}
	db.Model(&models.Message{}).Where("sender_id = ? OR receiver_id = ?", user.ID, user.ID).Count(&count)
	if count != 0 {
		t.Fatal("messages must be gone")
	}
	db.Model(&models.Membership{}).Where("user_id = ?", user.ID).Count(&count)
	if count != 0 {
		t.Fatal("memberships must be gone")
	}
	db.Model(&models.Community{}).Where("id = ?", owned.ID).Count(&count)
	if count != 0 {
		t.Fatal("owned community must be gone")
	}

	// Member count of the surviving community reflects the departure.
	var fresh models.Community
	db.First(&fresh, community.ID)
	if fresh.MemberCount != 1 {
		t.Fatalf("member_count = %d, want 1", fresh.MemberCount)
	}

	// The token no longer works.
	w = doRequest(router, http.MethodGet, "/api/auth/me", token, nil)
	wantStatus(t, w, 401)
}
