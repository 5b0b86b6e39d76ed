package controllers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/sanjana123-dot/hometownhub/models"
)

func TestSinglePinnedAnnouncementPerCommunity(t *testing.T) {
	router, db := setupTest(t)
	creator, creatorToken := createUser(t, db, "creator", models.RoleUser)
	community := createTestCommunity(t, db, creator, false)

	first := models.Announcement{Title: "a", Content: "x", AuthorID: creator.ID, CommunityID: community.ID}
	second := models.Announcement{Title: "b", Content: "y", AuthorID: creator.ID, CommunityID: community.ID}
	db.Create(&first)
	db.Create(&second)

	w := doRequest(router, http.MethodPost, fmt.Sprintf("/api/announcements/%d/pin", first.ID), creatorToken, nil)
	wantStatus(t, w, 200)
	w = doRequest(router, http.MethodPost, fmt.Sprintf("/api/announcements/%d/pin", second.ID), creatorToken, nil)
	wantStatus(t, w, 200)

	var pinned []models.Announcement
	db.Where("community_id = ? AND is_pinned = ?", community.ID, true).Find(&pinned)
	if len(pinned) != 1 || pinned[0].ID != second.ID {
		t.Fatalf("pinned = %+v, want only the second announcement", pinned)
	}
	if pinned[0].PinnedAt == nil {
		t.Fatal("pinned_at must be set")
	}

	var old models.Announcement
	db.First(&old, first.ID)
	if old.PinnedAt != nil {
		t.Fatal("unpinned announcement must clear pinned_at")
	}
}

func TestAnnouncementFanOut(t *testing.T) {
	router, db := setupTest(t)
	creator, creatorToken := createUser(t, db, "creator", models.RoleUser)
	member, _ := createUser(t, db, "member", models.RoleUser)
	community := createTestCommunity(t, db, creator, false)
	addMember(t, db, community.ID, member, models.MemberActive)

	w := doRequest(router, http.MethodPost, "/api/announcements", creatorToken, map[string]interface{}{
		"title":       "street fair",
		"content":     "this saturday",
		"communityId": community.ID,
	})
	wantStatus(t, w, 201)

	var n models.Notification
	if err := db.Where("user_id = ? AND type = ?", member.ID, models.NotifyAnnouncement).First(&n).Error; err != nil {
		t.Fatalf("member notification missing: %v", err)
	}
	if n.RelatedCommunityID != community.ID {
		t.Fatalf("related community = %d, want %d", n.RelatedCommunityID, community.ID)
	}
}

func TestAnnouncementUpdateAuthorOnly(t *testing.T) {
	router, db := setupTest(t)
	creator, creatorToken := createUser(t, db, "creator", models.RoleUser)
	author, authorToken := createUser(t, db, "author", models.RoleUser)
	community := createTestCommunity(t, db, creator, false)
	addMember(t, db, community.ID, author, models.MemberActive)

	announcement := models.Announcement{Title: "a", Content: "x", AuthorID: author.ID, CommunityID: community.ID}
	db.Create(&announcement)

	// Even the community creator cannot edit someone else's announcement.
	w := doRequest(router, http.MethodPut, fmt.Sprintf("/api/announcements/%d", announcement.ID),
		creatorToken, map[string]string{"title": "hijacked"})
	wantStatus(t, w, 403)

	w = doRequest(router, http.MethodPut, fmt.Sprintf("/api/announcements/%d", announcement.ID),
		authorToken, map[string]string{"title": "updated"})
	wantStatus(t, w, 200)

	// But the creator can delete it.
	w = doRequest(router, http.MethodDelete, fmt.Sprintf("/api/announcements/%d", announcement.ID), creatorToken, nil)
	wantStatus(t, w, 200)
}
