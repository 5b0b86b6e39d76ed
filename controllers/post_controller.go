package controllers

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm/clause"

	"github.com/sanjana123-dot/hometownhub/models"
	"github.com/sanjana123-dot/hometownhub/utils"
)

// CreatePost publishes content into a community the caller belongs to.
// Accepts JSON or multipart with file attachments; fans out a `post`
// notification to the other members.
func CreatePost(c *gin.Context) {
	user := currentUser(c)

	var content string
	var communityID uint
	var attachments []models.PostFile

	if isMultipart(c) {
		content = c.PostForm("content")
		id, err := strconv.ParseUint(c.PostForm("communityId"), 10, 32)
		if err != nil {
			utils.Error(c, 400, 40010, "invalid community id")
			return
		}
		communityID = uint(id)

		files, err := storeUploads(c, "files")
		if err != nil {
			utils.Error(c, 400, 40030, err.Error())
			return
		}
		for _, f := range files {
			attachments = append(attachments, models.PostFile{
				Filename:     f.Filename,
				OriginalName: f.OriginalName,
				FileType:     f.FileType,
				URL:          f.URL,
				Caption:      utils.StripTags(c.PostForm("caption_" + f.Field)),
			})
		}
	} else {
		var req struct {
			Content     string `json:"content" binding:"required"`
			CommunityID uint   `json:"communityId" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.Error(c, 400, 40001, "content and communityId are required")
			return
		}
		content = req.Content
		communityID = req.CommunityID
	}

	if content == "" && len(attachments) == 0 {
		utils.Error(c, 400, 40001, "post content or attachments are required")
		return
	}

	var community models.Community
	if err := db().First(&community, communityID).Error; err != nil {
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
		utils.Error(c, 403, 40313, "you must be a member to post in this community")
		return
	}

	post := models.Post{
		Content:     utils.Sanitize(content),
		AuthorID:    user.ID,
		CommunityID: community.ID,
		Files:       attachments,
	}
	if err := db().Create(&post).Error; err != nil {
		utils.Error(c, 500, 50001, "failed to create post")
		return
	}
	claimUploads(db(), attachmentURLs(attachments))

	notifyCommunityMembers(db(), community.ID, user.ID, models.NotifyPost,
		fmt.Sprintf("%s posted in %s", user.Name, community.Name), post.ID)
	utils.InvalidateByPrefix(c.Request.Context(), utils.CacheKeyFeed)

	db().Preload("Author").Preload("Files").First(&post, post.ID)
	utils.Created(c, post)
}

func attachmentURLs(files []models.PostFile) []string {
	urls := make([]string, 0, len(files))
	for _, f := range files {
		urls = append(urls, f.URL)
	}
	return urls
}

// Feed returns posts from approved communities the caller belongs to, pinned
// first, newest next.
func Feed(c *gin.Context) {
	user := currentUser(c)
	_, limit, offset := parsePagination(c, 20, 50)

	var communityIDs []uint
	err := db().Model(&models.Membership{}).
		Joins("JOIN communities ON communities.id = memberships.community_id").
		Where("memberships.user_id = ? AND memberships.state = ? AND communities.status = ?",
			user.ID, models.MemberActive, models.CommunityApproved).
		Pluck("memberships.community_id", &communityIDs).Error
	if err != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}
	if len(communityIDs) == 0 {
		utils.Success(c, []models.Post{})
		return
	}

	var posts []models.Post
	err = db().Preload("Author").Preload("Community").Preload("Files").
		Preload("Comments").Preload("Comments.Author").
		Where("community_id IN ?", communityIDs).
		Order("is_pinned DESC, created_at DESC").
		Limit(limit).Offset(offset).
		Find(&posts).Error
	if err != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}
	if err := decoratePosts(db(), posts, user.ID); err != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}
	utils.Success(c, posts)
}

// GetPost returns one post with comments and like state.
func GetPost(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		utils.Error(c, 400, 40010, "invalid post id")
		return
	}

	var post models.Post
	err := db().Preload("Author").Preload("Community").Preload("Files").
		Preload("Comments").Preload("Comments.Author").
		First(&post, id).Error
	if err != nil {
		utils.Error(c, 404, 40404, "post not found")
		return
	}

	posts := []models.Post{post}
	if err := decoratePosts(db(), posts, currentUser(c).ID); err != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}
	utils.Success(c, posts[0])
}

// ToggleLike likes or unlikes a post. The unique (post_id,user_id) row makes
// concurrent toggles converge.
func ToggleLike(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		utils.Error(c, 400, 40010, "invalid post id")
		return
	}
	user := currentUser(c)

	var post models.Post
	if err := db().First(&post, id).Error; err != nil {
		utils.Error(c, 404, 40404, "post not found")
		return
	}

	res := db().Where("post_id = ? AND user_id = ?", post.ID, user.ID).Delete(&models.PostLike{})
	if res.Error != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}

	liked := false
	if res.RowsAffected == 0 {
		like := models.PostLike{PostID: post.ID, UserID: user.ID}
		if err := db().Clauses(clause.OnConflict{DoNothing: true}).Create(&like).Error; err != nil {
			utils.Error(c, 500, 50001, "database error")
			return
		}
		liked = true
	}

	var count int64
	if err := db().Model(&models.PostLike{}).Where("post_id = ?", post.ID).Count(&count).Error; err != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}
	utils.Success(c, gin.H{"liked": liked, "likeCount": count})
}

type commentRequest struct {
	Content string `json:"content" binding:"required"`
}

// AddComment replies to a post. Requires membership in the post's community
// and notifies the post author.
func AddComment(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		utils.Error(c, 400, 40010, "invalid post id")
		return
	}
	user := currentUser(c)

	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, 40001, "content is required")
		return
	}

	var post models.Post
	if err := db().Preload("Community").First(&post, id).Error; err != nil {
		utils.Error(c, 404, 40404, "post not found")
		return
	}

	if banned, err := isBannedFromCommunity(db(), post.CommunityID, user.ID); err != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	} else if banned {
		utils.Error(c, 403, 40312, "you are banned from this community")
		return
	}
	if member, err := isActiveMember(db(), post.CommunityID, user.ID); err != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	} else if !member {
		utils.Error(c, 403, 40313, "you must be a member to comment")
		return
	}

	comment := models.Comment{
		PostID:   post.ID,
		AuthorID: user.ID,
		Content:  utils.Sanitize(req.Content),
	}
	if err := db().Create(&comment).Error; err != nil {
		utils.Error(c, 500, 50001, "failed to create comment")
		return
	}

	if post.AuthorID != user.ID {
		notifyUser(db(), post.AuthorID, models.NotifyComment,
			fmt.Sprintf("%s commented on your post in %s", user.Name, post.Community.Name),
			post.ID, post.CommunityID)
	}

	db().Preload("Author").First(&comment, comment.ID)
	utils.Created(c, comment)
}

// DeleteComment removes a comment. Allowed for its author or a community
// admin of the post's community.
func DeleteComment(c *gin.Context) {
	commentID, ok := parseIDParam(c, "commentId")
	if !ok {
		utils.Error(c, 400, 40010, "invalid comment id")
		return
	}
	user := currentUser(c)

	var comment models.Comment
	if err := db().First(&comment, commentID).Error; err != nil {
		utils.Error(c, 404, 40405, "comment not found")
		return
	}

	if comment.AuthorID != user.ID {
		var post models.Post
		if err := db().Preload("Community").First(&post, comment.PostID).Error; err != nil {
			utils.Error(c, 404, 40404, "post not found")
			return
		}
		admin, err := isCommunityAdmin(db(), &post.Community, user)
		if err != nil {
			utils.Error(c, 500, 50001, "database error")
			return
		}
		if !admin {
			utils.Error(c, 403, 40311, "not allowed to delete this comment")
			return
		}
	}

	if err := db().Delete(&models.Comment{}, comment.ID).Error; err != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}
	utils.Success(c, gin.H{"message": "comment deleted"})
}

// DeletePost removes a post with its comments, likes and files. Allowed for
// the author or a community admin.
func DeletePost(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		utils.Error(c, 400, 40010, "invalid post id")
		return
	}
	user := currentUser(c)

	var post models.Post
	if err := db().Preload("Community").First(&post, id).Error; err != nil {
		utils.Error(c, 404, 40404, "post not found")
		return
	}

	if post.AuthorID != user.ID {
		admin, err := isCommunityAdmin(db(), &post.Community, user)
		if err != nil {
			utils.Error(c, 500, 50001, "database error")
			return
		}
		if !admin {
			utils.Error(c, 403, 40311, "not allowed to delete this post")
			return
		}
	}

	deletePostCascade(db(), post.ID)
	utils.InvalidateByPrefix(c.Request.Context(), utils.CacheKeyFeed)
	utils.Logger.Info("post deleted", zap.Uint("post_id", post.ID), zap.Uint("by", user.ID))
	utils.Success(c, gin.H{"message": "post deleted"})
}

// PinPost pins a post in its community; any previously pinned post is
// unpinned first so at most one stays pinned.
func PinPost(c *gin.Context) {
	togglePin(c, true)
}

// UnpinPost clears the pin.
func UnpinPost(c *gin.Context) {
	togglePin(c, false)
}

func togglePin(c *gin.Context, pin bool) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		utils.Error(c, 400, 40010, "invalid post id")
		return
	}
	user := currentUser(c)

	var post models.Post
	if err := db().Preload("Community").First(&post, id).Error; err != nil {
		utils.Error(c, 404, 40404, "post not found")
		return
	}

	admin, err := isCommunityAdmin(db(), &post.Community, user)
	if err != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}
	if !admin {
		utils.Error(c, 403, 40311, "community admin access required")
		return
	}

	if pin {
		if err := db().Model(&models.Post{}).
			Where("community_id = ? AND is_pinned = ?", post.CommunityID, true).
			Update("is_pinned", false).Error; err != nil {
			utils.Error(c, 500, 50001, "database error")
			return
		}
	}
	if err := db().Model(&post).Update("is_pinned", pin).Error; err != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}

	utils.InvalidateByPrefix(c.Request.Context(), utils.CacheKeyFeed)
	utils.Success(c, gin.H{"id": post.ID, "isPinned": pin})
}
