// Package model contains all the models used in the application.
package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PostStatus publication state of a post
type PostStatus string

const (
	// PostStatusDraft only visible to admins
	PostStatusDraft PostStatus = "draft"
	// PostStatusPublished visible to everyone
	PostStatusPublished PostStatus = "published"
	// PostStatusArchived hidden but kept
	PostStatusArchived PostStatus = "archived"
)

// Valid reports whether s is a known status
func (s PostStatus) Valid() bool {
	switch s {
	case PostStatusDraft, PostStatusPublished, PostStatusArchived:
		return true
	}
	return false
}

// ContentType format of Post.Content
type ContentType string

const (
	ContentTypeMarkdown ContentType = "markdown"
	ContentTypeHTML     ContentType = "html"
	ContentTypeRichText ContentType = "richtext"
)

// Valid reports whether t is a known content type
func (t ContentType) Valid() bool {
	switch t {
	case ContentTypeMarkdown, ContentTypeHTML, ContentTypeRichText:
		return true
	}
	return false
}

// Post blog posts
type Post struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	// Title headline, the slug is derived from it
	Title string `bson:"title" json:"title"`
	// Slug unique URL token
	Slug    string `bson:"slug" json:"slug"`
	Content string `bson:"content" json:"content"`
	// Excerpt short summary, derived from content when left empty
	Excerpt       string             `bson:"excerpt" json:"excerpt"`
	FeaturedImage FeaturedImage      `bson:"featuredImage" json:"featuredImage"`
	Category      primitive.ObjectID `bson:"category" json:"category"`
	// Tags lowercase, unique
	Tags   []string           `bson:"tags" json:"tags"`
	Author primitive.ObjectID `bson:"author" json:"author"`
	Status PostStatus         `bson:"status" json:"status"`
	// PublishedAt set the first time the post is published, never reset
	PublishedAt  *time.Time `bson:"publishedAt,omitempty" json:"publishedAt,omitempty"`
	ScheduledFor *time.Time `bson:"scheduledFor,omitempty" json:"scheduledFor,omitempty"`
	Views        int64      `bson:"views" json:"views"`
	Likes        int64      `bson:"likes" json:"likes"`
	// ReadingTime minutes, recomputed when content changes
	ReadingTime     int                  `bson:"readingTime" json:"readingTime"`
	SEO             PostSEO              `bson:"seo" json:"seo"`
	ContentType     ContentType          `bson:"contentType" json:"contentType"`
	RelatedPosts    []primitive.ObjectID `bson:"relatedPosts" json:"relatedPosts"`
	CommentsEnabled bool                 `bson:"commentsEnabled" json:"commentsEnabled"`
	CommentCount    int64                `bson:"commentCount" json:"commentCount"`
	ExternalLinks   []Link               `bson:"externalLinks" json:"externalLinks"`
	AffiliateLinks  []Link               `bson:"affiliateLinks" json:"affiliateLinks"`
	AdSenseEnabled  bool                 `bson:"adSenseEnabled" json:"adSenseEnabled"`
	Analytics       Analytics            `bson:"analytics" json:"analytics"`
	CreatedAt       time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// IsPublished reports whether the post is publicly visible
func (p *Post) IsPublished() bool {
	return p.Status == PostStatusPublished
}

// FeaturedImage cover image of a post
type FeaturedImage struct {
	URL     string `bson:"url" json:"url"`
	Alt     string `bson:"alt" json:"alt"`
	Caption string `bson:"caption" json:"caption"`
}

// PostSEO search engine metadata of a post
type PostSEO struct {
	MetaTitle       string   `bson:"metaTitle" json:"metaTitle"`
	MetaDescription string   `bson:"metaDescription" json:"metaDescription"`
	MetaKeywords    []string `bson:"metaKeywords" json:"metaKeywords"`
	OGImage         string   `bson:"ogImage" json:"ogImage"`
	CanonicalURL    string   `bson:"canonicalUrl" json:"canonicalUrl"`
}

// Link external or affiliate link
type Link struct {
	Title       string `bson:"title" json:"title" validate:"required,max=200"`
	URL         string `bson:"url" json:"url" validate:"required,url"`
	Description string `bson:"description" json:"description" validate:"max=500"`
}

// Analytics engagement counters reported by the frontend
type Analytics struct {
	Impressions   int64   `bson:"impressions" json:"impressions"`
	Clicks        int64   `bson:"clicks" json:"clicks"`
	Shares        int64   `bson:"shares" json:"shares"`
	AvgTimeOnPage float64 `bson:"avgTimeOnPage" json:"avgTimeOnPage"`
}

// TagCount one bucket of the tag histogram
type TagCount struct {
	Tag   string `bson:"_id" json:"tag"`
	Count int64  `bson:"count" json:"count"`
}
