package dto

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/blogcms/blog-api/internal/web/blog/model"
)

// CreateCategoryRequest body of POST /categories.
// Fields that need parsing are named apart from model.Category so copier
// never fills them.
type CreateCategoryRequest struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Color       string            `json:"color"`
	Icon        string            `json:"icon"`
	Image       string            `json:"image"`
	ParentID    string            `json:"parentCategory" validate:"omitempty,mongodb"`
	Active      *bool             `json:"isActive"`
	SortOrder   int               `json:"sortOrder"`
	SEO         model.CategorySEO `json:"seo"`
}

// CategoryPatch body of PUT /categories/:id, nil fields are left untouched.
// An empty parentCategory detaches the category from its parent.
type CategoryPatch struct {
	Name           *string            `json:"name"`
	Description    *string            `json:"description"`
	Color          *string            `json:"color"`
	Icon           *string            `json:"icon"`
	Image          *string            `json:"image"`
	ParentCategory *string            `json:"parentCategory" validate:"omitempty,mongodb|len=0"`
	IsActive       *bool              `json:"isActive"`
	SortOrder      *int               `json:"sortOrder"`
	SEO            *model.CategorySEO `json:"seo"`
}

// Apply copies every set field onto c.
func (cp *CategoryPatch) Apply(c *model.Category) error {
	if cp.Name != nil {
		c.Name = *cp.Name
	}
	if cp.Description != nil {
		c.Description = *cp.Description
	}
	if cp.Color != nil {
		c.Color = *cp.Color
	}
	if cp.Icon != nil {
		c.Icon = *cp.Icon
	}
	if cp.Image != nil {
		c.Image = *cp.Image
	}
	if cp.ParentCategory != nil {
		if *cp.ParentCategory == "" {
			c.ParentCategory = nil
		} else {
			id, err := primitive.ObjectIDFromHex(*cp.ParentCategory)
			if err != nil {
				return model.Invalid("parentCategory", "must be a valid id")
			}
			c.ParentCategory = &id
		}
	}
	if cp.IsActive != nil {
		c.IsActive = *cp.IsActive
	}
	if cp.SortOrder != nil {
		c.SortOrder = *cp.SortOrder
	}
	if cp.SEO != nil {
		c.SEO = *cp.SEO
	}

	return nil
}

// CategoryView category with its parent populated
type CategoryView struct {
	*model.Category
	ParentCategory *CategorySummary `json:"parentCategory,omitempty"`
}

// CategoryWithCounts category with aggregates over its posts
type CategoryWithCounts struct {
	*model.Category
	PostCount  int64 `json:"postCount"`
	TotalViews int64 `json:"totalViews"`
}

// CategoryDetail response of GET /categories/:slug
type CategoryDetail struct {
	Category      *model.Category   `json:"category"`
	Subcategories []*model.Category `json:"subcategories"`
}

// CategoryPosts response of GET /categories/:slug/posts
type CategoryPosts struct {
	Category   *model.Category `json:"category"`
	Posts      []*PostView     `json:"posts"`
	Pagination PostPagination  `json:"pagination"`
}

// CategoryTreeNode one node of GET /categories/tree
type CategoryTreeNode struct {
	*model.Category
	Children []*CategoryTreeNode `json:"children"`
}
