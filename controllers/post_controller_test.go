package controllers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/sanjana123-dot/hometownhub/models"
)

func TestCreatePostRequiresMembership(t *testing.T) {
	router, db := setupTest(t)
	creator, _ := createUser(t, db, "creator", models.RoleUser)
	_, outsiderToken := createUser(t, db, "outsider", models.RoleUser)
	community := createTestCommunity(t, db, creator, false)

	w := doRequest(router, http.MethodPost, "/api/posts", outsiderToken, map[string]interface{}{
		"content":     "hello",
		"communityId": community.ID,
	})
	wantStatus(t, w, 403)
}

func TestBannedMemberCannotCreateContent(t *testing.T) {
	router, db := setupTest(t)
	creator, _ := createUser(t, db, "creator", models.RoleUser)
	banned, bannedToken := createUser(t, db, "troll", models.RoleUser)
	community := createTestCommunity(t, db, creator, false)
	addMember(t, db, community.ID, banned, models.MemberBanned)

	w := doRequest(router, http.MethodPost, "/api/posts", bannedToken, map[string]interface{}{
		"content":     "hello",
		"communityId": community.ID,
	})
	wantStatus(t, w, 403)

	w = doRequest(router, http.MethodPost, "/api/events", bannedToken, map[string]interface{}{
		"title":       "BBQ",
		"description": "grill",
		"date":        "2026-10-01",
		"time":        "18:00",
		"location":    "park",
		"communityId": community.ID,
	})
	wantStatus(t, w, 403)

	w = doRequest(router, http.MethodPost, "/api/announcements", bannedToken, map[string]interface{}{
		"title":       "notice",
		"content":     "text",
		"communityId": community.ID,
	})
	wantStatus(t, w, 403)
}

func TestCreatePostFansOutNotifications(t *testing.T) {
	router, db := setupTest(t)
	creator, _ := createUser(t, db, "creator", models.RoleUser)
	author, authorToken := createUser(t, db, "author", models.RoleUser)
	reader, _ := createUser(t, db, "reader", models.RoleUser)
	community := createTestCommunity(t, db, creator, false)
	addMember(t, db, community.ID, author, models.MemberActive)
	addMember(t, db, community.ID, reader, models.MemberActive)

	w := doRequest(router, http.MethodPost, "/api/posts", authorToken, map[string]interface{}{
		"content":     "hello neighbors",
		"communityId": community.ID,
	})
	wantStatus(t, w, 201)

	// Everyone but the author hears about it.
	var count int64
	db.Model(&models.Notification{}).Where("type = ?", models.NotifyPost).Count(&count)
	if count != 2 {
		t.Fatalf("notifications = %d, want 2", count)
	}
	var own int64
	db.Model(&models.Notification{}).Where("type = ? AND user_id = ?", models.NotifyPost, author.ID).Count(&own)
	if own != 0 {
		t.Fatal("the actor must not be notified")
	}
}

func TestLikeToggle(t *testing.T) {
	router, db := setupTest(t)
	creator, creatorToken := createUser(t, db, "creator", models.RoleUser)
	community := createTestCommunity(t, db, creator, false)

	post := models.Post{Content: "hi", AuthorID: creator.ID, CommunityID: community.ID}
	db.Create(&post)

	path := fmt.Sprintf("/api/posts/%d/like", post.ID)
	w := doRequest(router, http.MethodPost, path, creatorToken, nil)
	wantStatus(t, w, 200)
	var result struct {
		Liked     bool  `json:"liked"`
		LikeCount int64 `json:"likeCount"`
	}
	json.Unmarshal(decodeEnvelope(t, w).Data, &result)
	if !result.Liked || result.LikeCount != 1 {
		t.Fatalf("first toggle: %+v", result)
	}

	w = doRequest(router, http.MethodPost, path, creatorToken, nil)
	wantStatus(t, w, 200)
	json.Unmarshal(decodeEnvelope(t, w).Data, &result)
	if result.Liked || result.LikeCount != 0 {
		t.Fatalf("second toggle: %+v", result)
	}
}

func TestCommentNotifiesAuthor(t *testing.T) {
	router, db := setupTest(t)
	creator, _ := createUser(t, db, "creator", models.RoleUser)
	commenter, commenterToken := createUser(t, db, "commenter", models.RoleUser)
	community := createTestCommunity(t, db, creator, false)
	addMember(t, db, community.ID, commenter, models.MemberActive)

	post := models.Post{Content: "hi", AuthorID: creator.ID, CommunityID: community.ID}
	db.Create(&post)

	w := doRequest(router, http.MethodPost, fmt.Sprintf("/api/posts/%d/comments", post.ID),
		commenterToken, map[string]string{"content": "nice"})
	wantStatus(t, w, 201)

	var n models.Notification
	if err := db.Where("user_id = ? AND type = ?", creator.ID, models.NotifyComment).First(&n).Error; err != nil {
		t.Fatalf("author notification missing: %v", err)
	}
	if n.RelatedID != post.ID || n.RelatedCommunityID != community.ID {
		t.Fatalf("notification context wrong: %+v", n)
	}
}

func TestSinglePinnedPostPerCommunity(t *testing.T) {
	router, db := setupTest(t)
	creator, creatorToken := createUser(t, db, "creator", models.RoleUser)
	community := createTestCommunity(t, db, creator, false)

	first := models.Post{Content: "a", AuthorID: creator.ID, CommunityID: community.ID}
	second := models.Post{Content: "b", AuthorID: creator.ID, CommunityID: community.ID}
	db.Create(&first)
	db.Create(&second)

	w := doRequest(router, http.MethodPost, fmt.Sprintf("/api/posts/%d/pin", first.ID), creatorToken, nil)
	wantStatus(t, w, 200)
	w = doRequest(router, http.MethodPost, fmt.Sprintf("/api/posts/%d/pin", second.ID), creatorToken, nil)
	wantStatus(t, w, 200)

	var pinned int64
	db.Model(&models.Post{}).Where("community_id = ? AND is_pinned = ?", community.ID, true).Count(&pinned)
	if pinned != 1 {
		t.Fatalf("pinned posts = %d, want 1", pinned)
	}
	var fresh models.Post
	db.First(&fresh, second.ID)
	if !fresh.IsPinned {
		t.Fatal("latest pin must win")
	}
}

func TestDeletePostCascades(t *testing.T) {
	router, db := setupTest(t)
	creator, creatorToken := createUser(t, db, "creator", models.RoleUser)
	community := createTestCommunity(t, db, creator, false)

	post := models.Post{Content: "hi", AuthorID: creator.ID, CommunityID: community.ID}
	db.Create(&post)
	db.Create(&models.Comment{PostID: post.ID, AuthorID: creator.ID, Content: "c"})
	db.Create(&models.PostLike{PostID: post.ID, UserID: creator.ID})
	db.Create(&models.PostFile{PostID: post.ID, Filename: "f.png", URL: "/uploads/f.png"})

	w := doRequest(router, http.MethodDelete, fmt.Sprintf("/api/posts/%d", post.ID), creatorToken, nil)
	wantStatus(t, w, 200)

	for name, model := range map[string]interface{}{
		"comments": &models.Comment{},
		"likes":    &models.PostLike{},
		"files":    &models.PostFile{},
	} {
		var count int64
		db.Model(model).Where("post_id = ?", post.ID).Count(&count)
		if count != 0 {
			t.Fatalf("%s not cascaded", name)
		}
	}
}

func TestDeletePostPermissions(t *testing.T) {
	router, db := setupTest(t)
	creator, _ := createUser(t, db, "creator", models.RoleUser)
	author, _ := createUser(t, db, "author", models.RoleUser)
	other, otherToken := createUser(t, db, "other", models.RoleUser)
	community := createTestCommunity(t, db, creator, false)
	addMember(t, db, community.ID, author, models.MemberActive)
	addMember(t, db, community.ID, other, models.MemberActive)

	post := models.Post{Content: "hi", AuthorID: author.ID, CommunityID: community.ID}
	db.Create(&post)

	// A random member cannot delete someone else's post.
	w := doRequest(router, http.MethodDelete, fmt.Sprintf("/api/posts/%d", post.ID), otherToken, nil)
	wantStatus(t, w, 403)

	// A moderator can.
	db.Model(&models.Membership{}).
		Where("community_id = ? AND user_id = ?", community.ID, other.ID).
		Update("is_moderator", true)
	w = doRequest(router, http.MethodDelete, fmt.Sprintf("/api/posts/%d", post.ID), otherToken, nil)
	wantStatus(t, w, 200)
}

func TestFeedScopedToMemberCommunities(t *testing.T) {
	router, db := setupTest(t)
	creator, _ := createUser(t, db, "creator", models.RoleUser)
	member, memberToken := createUser(t, db, "member", models.RoleUser)
	community := createTestCommunity(t, db, creator, false)
	otherCommunity := models.Community{
		Name: "Elsewhere", Description: "d", City: "c", State: "s",
		CreatorID: creator.ID, Status: models.CommunityApproved,
	}
	db.Create(&otherCommunity)
	addMember(t, db, community.ID, member, models.MemberActive)

	db.Create(&models.Post{Content: "visible", AuthorID: creator.ID, CommunityID: community.ID})
	db.Create(&models.Post{Content: "hidden", AuthorID: creator.ID, CommunityID: otherCommunity.ID})

	w := doRequest(router, http.MethodGet, "/api/posts/feed", memberToken, nil)
	wantStatus(t, w, 200)
	var posts []models.Post
	if err := json.Unmarshal(decodeEnvelope(t, w).Data, &posts); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(posts) != 1 || posts[0].Content != "visible" {
		t.Fatalf("feed = %+v, want only the member community's post", posts)
	}
}
