package controller

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/blogcms/blog-api/internal/web/blog/dto"
	"github.com/blogcms/blog-api/internal/web/blog/model"
	"github.com/blogcms/blog-api/internal/web/envelope"
)

func (ctl *Controller) listPosts(c *gin.Context) {
	ctl.queryPosts(c, false)
}

func (ctl *Controller) listAdminPosts(c *gin.Context) {
	ctl.queryPosts(c, true)
}

func (ctl *Controller) queryPosts(c *gin.Context, admin bool) {
	params, err := dto.ParsePostListQuery(c.Request.URL.Query(), admin)
	if err != nil {
		envelope.Error(c, err)
		return
	}

	list, err := ctl.svc.ListPosts(c, params)
	if err != nil {
		envelope.Error(c, err)
		return
	}
	ok(c, list)
}

func (ctl *Controller) trendingPosts(c *gin.Context) {
	var limit int64
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 1 {
			envelope.Error(c, model.Invalid("limit", "must be a positive integer"))
			return
		}
		limit = n
	}

	posts, err := ctl.svc.Trending(c, limit)
	if err != nil {
		envelope.Error(c, err)
		return
	}
	ok(c, posts)
}

func (ctl *Controller) postTags(c *gin.Context) {
	tags, err := ctl.svc.Tags(c)
	if err != nil {
		envelope.Error(c, err)
		return
	}
	ok(c, tags)
}

func (ctl *Controller) getPost(c *gin.Context) {
	detail, err := ctl.svc.GetPostBySlug(c, c.Param("slug"), identityOf(c))
	if err != nil {
		envelope.Error(c, err)
		return
	}
	ok(c, detail)
}

func (ctl *Controller) getAdminPost(c *gin.Context) {
	id, valid := objectIDParam(c, "id")
	if !valid {
		return
	}

	post, err := ctl.svc.GetPost(c, id)
	if err != nil {
		envelope.Error(c, err)
		return
	}
	ok(c, post)
}

func (ctl *Controller) createPost(c *gin.Context) {
	req := new(dto.CreatePostRequest)
	if !bindJSON(c, req) {
		return
	}

	post, err := ctl.svc.CreatePost(c, identityOf(c), req)
	if err != nil {
		envelope.Error(c, err)
		return
	}
	envelope.OK(c, http.StatusCreated, "Post created successfully", post)
}

func (ctl *Controller) updatePost(c *gin.Context) {
	id, valid := objectIDParam(c, "id")
	if !valid {
		return
	}
	patch := new(dto.PostPatch)
	if !bindJSON(c, patch) {
		return
	}

	post, err := ctl.svc.UpdatePost(c, id, patch)
	if err != nil {
		envelope.Error(c, err)
		return
	}
	envelope.OK(c, http.StatusOK, "Post updated successfully", post)
}

func (ctl *Controller) deletePost(c *gin.Context) {
	id, valid := objectIDParam(c, "id")
	if !valid {
		return
	}

	if err := ctl.svc.DeletePost(c, id); err != nil {
		envelope.Error(c, err)
		return
	}
	envelope.OK(c, http.StatusOK, "Post deleted successfully", nil)
}

func (ctl *Controller) likePost(c *gin.Context) {
	id, valid := objectIDParam(c, "id")
	if !valid {
		return
	}

	likes, err := ctl.svc.LikePost(c, id)
	if err != nil {
		envelope.Error(c, err)
		return
	}
	ok(c, dto.LikeResult{Likes: likes})
}
