package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blogcms/blog-api/internal/web/blog/dto"
	"github.com/blogcms/blog-api/internal/web/envelope"
)

func (ctl *Controller) listCategories(c *gin.Context) {
	cats, err := ctl.svc.ListCategories(c)
	if err != nil {
		envelope.Error(c, err)
		return
	}
	ok(c, cats)
}

func (ctl *Controller) categoriesWithCounts(c *gin.Context) {
	cats, err := ctl.svc.CategoriesWithCounts(c, false)
	if err != nil {
		envelope.Error(c, err)
		return
	}
	ok(c, cats)
}

func (ctl *Controller) adminCategories(c *gin.Context) {
	cats, err := ctl.svc.CategoriesWithCounts(c, true)
	if err != nil {
		envelope.Error(c, err)
		return
	}
	ok(c, cats)
}

func (ctl *Controller) categoryTree(c *gin.Context) {
	tree, err := ctl.svc.CategoryTree(c)
	if err != nil {
		envelope.Error(c, err)
		return
	}
	ok(c, tree)
}

func (ctl *Controller) getCategory(c *gin.Context) {
	detail, err := ctl.svc.GetCategory(c, c.Param("slug"))
	if err != nil {
		envelope.Error(c, err)
		return
	}
	ok(c, detail)
}

func (ctl *Controller) categoryPosts(c *gin.Context) {
	page, valid := pageQuery(c)
	if !valid {
		return
	}

	posts, err := ctl.svc.CategoryPosts(c, c.Param("slug"), page)
	if err != nil {
		envelope.Error(c, err)
		return
	}
	ok(c, posts)
}

func (ctl *Controller) createCategory(c *gin.Context) {
	req := new(dto.CreateCategoryRequest)
	if !bindJSON(c, req) {
		return
	}

	cat, err := ctl.svc.CreateCategory(c, req)
	if err != nil {
		envelope.Error(c, err)
		return
	}
	envelope.OK(c, http.StatusCreated, "Category created successfully", cat)
}

func (ctl *Controller) updateCategory(c *gin.Context) {
	id, valid := objectIDParam(c, "id")
	if !valid {
		return
	}
	patch := new(dto.CategoryPatch)
	if !bindJSON(c, patch) {
		return
	}

	cat, err := ctl.svc.UpdateCategory(c, id, patch)
	if err != nil {
		envelope.Error(c, err)
		return
	}
	envelope.OK(c, http.StatusOK, "Category updated successfully", cat)
}

func (ctl *Controller) deleteCategory(c *gin.Context) {
	id, valid := objectIDParam(c, "id")
	if !valid {
		return
	}

	if err := ctl.svc.DeleteCategory(c, id); err != nil {
		envelope.Error(c, err)
		return
	}
	envelope.OK(c, http.StatusOK, "Category deleted successfully", nil)
}
