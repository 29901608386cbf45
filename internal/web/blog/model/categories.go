package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultCategoryColor used when a category is created without a color
const DefaultCategoryColor = "#3B82F6"

// Category blog post categories, parents form a tree
type Category struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name        string             `bson:"name" json:"name"`
	Slug        string             `bson:"slug" json:"slug"`
	Description string             `bson:"description" json:"description"`
	// Color hex like #RGB or #RRGGBB
	Color string `bson:"color" json:"color"`
	Icon  string `bson:"icon" json:"icon"`
	Image string `bson:"image" json:"image"`
	// ParentCategory optional, never the category itself
	ParentCategory *primitive.ObjectID `bson:"parentCategory,omitempty" json:"parentCategory,omitempty"`
	IsActive       bool                `bson:"isActive" json:"isActive"`
	SortOrder      int                 `bson:"sortOrder" json:"sortOrder"`
	SEO            CategorySEO         `bson:"seo" json:"seo"`
	CreatedAt      time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// CategorySEO search engine metadata of a category
type CategorySEO struct {
	MetaTitle       string   `bson:"metaTitle" json:"metaTitle"`
	MetaDescription string   `bson:"metaDescription" json:"metaDescription"`
	MetaKeywords    []string `bson:"metaKeywords" json:"metaKeywords"`
}

// CategoryStat aggregate numbers of one category
type CategoryStat struct {
	ID         primitive.ObjectID `bson:"_id"`
	PostCount  int64              `bson:"postCount"`
	TotalViews int64              `bson:"totalViews"`
}
