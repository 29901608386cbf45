package dto

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/blogcms/blog-api/internal/web/blog/model"
)

// CreateCommentRequest body of POST /comments/:postId
type CreateCommentRequest struct {
	Author   string `json:"author" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Content  string `json:"content" validate:"required,max=1000"`
	ParentID string `json:"parentId" validate:"omitempty,mongodb"`
}

// CommentList response of the comment list routes
type CommentList struct {
	Comments   []*model.Comment  `json:"comments"`
	Pagination CommentPagination `json:"pagination"`
}

// CommentDeleted response of DELETE /comments/:id
type CommentDeleted struct {
	Deleted int64 `json:"deleted"`
}

// CommentFilter store-independent comment filter, zero fields match everything.
type CommentFilter struct {
	PostID   *primitive.ObjectID
	Approved *bool
	// RootOnly matches comments without a parent
	RootOnly bool
	// ParentIDs matches replies to any of these comments
	ParentIDs []primitive.ObjectID
}

// CommentQuery filter plus window, Limit 0 means no limit
type CommentQuery struct {
	Filter CommentFilter
	Skip   int64
	Limit  int64
	// Oldest sorts by creation ascending, newest first otherwise
	Oldest bool
}
