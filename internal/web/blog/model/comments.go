package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Comment represents a comment in the blog
type Comment struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	// PostID is the post this comment belongs to
	PostID primitive.ObjectID `bson:"postId" json:"postId"`
	// Author display name of the commenter
	Author string `bson:"author" json:"author"`
	// Email only visible to admins
	Email   string `bson:"email" json:"email,omitempty"`
	Content string `bson:"content" json:"content"`
	// ParentID references the parent comment, nil for top-level comments
	ParentID *primitive.ObjectID `bson:"parentId,omitempty" json:"parentId,omitempty"`
	// IsApproved comments are hidden from the public until approved
	IsApproved bool      `bson:"isApproved" json:"isApproved"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time `bson:"updatedAt" json:"updatedAt"`
	// Replies not stored, populated when building the thread
	Replies []*Comment `bson:"-" json:"replies,omitempty"`
}
