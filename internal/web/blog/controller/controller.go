// Package controller exposes the blog service over HTTP.
package controller

import (
	"net"
	"net/http"
	"strings"

	"github.com/Laisky/errors/v2"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/blogcms/blog-api/internal/web/blog/dto"
	"github.com/blogcms/blog-api/internal/web/blog/model"
	"github.com/blogcms/blog-api/internal/web/blog/service"
	"github.com/blogcms/blog-api/internal/web/envelope"
	"github.com/blogcms/blog-api/library/auth"
)

// Controller blog HTTP handlers
type Controller struct {
	svc      *service.Blog
	verifier *auth.Verifier
}

// New create controller
func New(svc *service.Blog, verifier *auth.Verifier) (*Controller, error) {
	if svc == nil {
		return nil, errors.New("service is nil")
	}
	if verifier == nil {
		return nil, errors.New("token verifier is nil")
	}

	return &Controller{svc: svc, verifier: verifier}, nil
}

// Mount registers every blog route under api
func (ctl *Controller) Mount(api *gin.RouterGroup) {
	api.Use(ctl.identify)
	admin := ctl.requireAdmin

	posts := api.Group("/posts")
	posts.GET("", ctl.listPosts)
	posts.GET("/trending", ctl.trendingPosts)
	posts.GET("/tags", ctl.postTags)
	posts.GET("/admin", admin, ctl.listAdminPosts)
	posts.GET("/admin/:id", admin, ctl.getAdminPost)
	posts.GET("/:slug", ctl.getPost)
	posts.POST("", admin, ctl.createPost)
	posts.PUT("/:id", admin, ctl.updatePost)
	posts.DELETE("/:id", admin, ctl.deletePost)
	posts.POST("/:id/like", ctl.likePost)

	cats := api.Group("/categories")
	cats.GET("", ctl.listCategories)
	cats.GET("/with-counts", ctl.categoriesWithCounts)
	cats.GET("/admin", admin, ctl.adminCategories)
	cats.GET("/tree", ctl.categoryTree)
	cats.GET("/:slug", ctl.getCategory)
	cats.GET("/:slug/posts", ctl.categoryPosts)
	cats.POST("", admin, ctl.createCategory)
	cats.PUT("/:id", admin, ctl.updateCategory)
	cats.DELETE("/:id", admin, ctl.deleteCategory)

	comments := api.Group("/comments")
	comments.GET("/admin/pending", admin, ctl.pendingComments)
	comments.GET("/:postId", ctl.listComments)
	comments.POST("/:postId", ctl.createComment)
	comments.PUT("/:id/approve", admin, ctl.approveComment)
	comments.DELETE("/:id", admin, ctl.deleteComment)

	uploads := api.Group("/upload")
	uploads.POST("/post-image", admin, ctl.uploadPostImage)
	uploads.POST("/post-images", admin, ctl.uploadPostImages)
	uploads.POST("/avatar", ctl.requireAuth, ctl.uploadAvatar)
	uploads.DELETE("/:type/:filename", admin, ctl.deleteUpload)
	uploads.GET("/files/:type", admin, ctl.listUploads)

	api.POST("/contact", ctl.createContact)
}

// bindJSON decodes the request body strictly into v
func bindJSON(c *gin.Context, v any) bool {
	if err := dto.DecodeJSON(c.Request.Body, v); err != nil {
		envelope.Error(c, err)
		return false
	}
	return true
}

// objectIDParam reads a path parameter holding an ObjectID
func objectIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		envelope.Error(c, model.Invalid(name, "must be a valid id"))
		return primitive.NilObjectID, false
	}
	return id, true
}

// pageQuery reads page and limit from the query string
func pageQuery(c *gin.Context) (dto.Page, bool) {
	verr := new(model.ValidationError)
	page := dto.ParsePage(c.Request.URL.Query(), dto.DefaultPageLimit, dto.MaxPageLimit, verr)
	if err := verr.Err(); err != nil {
		envelope.Error(c, err)
		return page, false
	}
	return page, true
}

// clientIP extracts a validated client IP, empty when unavailable
func clientIP(c *gin.Context) string {
	parsed := net.ParseIP(strings.TrimSpace(c.ClientIP()))
	if parsed == nil {
		return ""
	}
	return parsed.String()
}

func ok(c *gin.Context, data any) {
	envelope.OK(c, http.StatusOK, "", data)
}
