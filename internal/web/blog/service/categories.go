package service

import (
	"context"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"github.com/jinzhu/copier"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/blogcms/blog-api/internal/web/blog/dto"
	"github.com/blogcms/blog-api/internal/web/blog/model"
	"github.com/blogcms/blog-api/library/db/redis"
)

// ListCategories returns active categories with their parent summarized.
func (s *Blog) ListCategories(ctx context.Context) ([]*dto.CategoryView, error) {
	cats, err := s.store.ListCategories(ctx, true)
	if err != nil {
		return nil, errors.Wrap(err, "list categories")
	}

	byID := make(map[primitive.ObjectID]*model.Category, len(cats))
	for _, c := range cats {
		byID[c.ID] = c
	}

	// parents may be inactive
	var missing []primitive.ObjectID
	for _, c := range cats {
		if c.ParentCategory != nil && byID[*c.ParentCategory] == nil {
			missing = append(missing, *c.ParentCategory)
		}
	}
	if len(missing) != 0 {
		parents, err := s.store.GetCategoriesByIDs(ctx, missing)
		if err != nil {
			return nil, errors.Wrap(err, "load parent categories")
		}
		for _, p := range parents {
			byID[p.ID] = p
		}
	}

	views := make([]*dto.CategoryView, 0, len(cats))
	for _, c := range cats {
		v := &dto.CategoryView{Category: c}
		if c.ParentCategory != nil {
			v.ParentCategory = dto.NewCategorySummary(byID[*c.ParentCategory])
		}
		views = append(views, v)
	}
	return views, nil
}

// CategoriesWithCounts returns categories with their post counts and views.
//
// Public callers see active categories counting published posts,
// admins see every category counting every post.
func (s *Blog) CategoriesWithCounts(ctx context.Context, admin bool) ([]*dto.CategoryWithCounts, error) {
	logger := s.loggerFrom(ctx)
	key := redis.KeyCategoryCountsActive
	if admin {
		key = redis.KeyCategoryCountsAll
	}

	var cached []*dto.CategoryWithCounts
	if ok, err := s.cache.GetJSON(ctx, key, &cached); err != nil {
		logger.Warn("read category counts from cache", zap.Error(err))
	} else if ok {
		return cached, nil
	}

	cats, err := s.store.ListCategories(ctx, !admin)
	if err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	stats, err := s.store.CategoryStats(ctx, !admin)
	if err != nil {
		return nil, errors.Wrap(err, "load category stats")
	}

	byID := make(map[primitive.ObjectID]model.CategoryStat, len(stats))
	for _, st := range stats {
		byID[st.ID] = st
	}

	out := make([]*dto.CategoryWithCounts, 0, len(cats))
	for _, c := range cats {
		st := byID[c.ID]
		out = append(out, &dto.CategoryWithCounts{
			Category:   c,
			PostCount:  st.PostCount,
			TotalViews: st.TotalViews,
		})
	}

	if err = s.cache.SetJSON(ctx, key, out); err != nil {
		logger.Warn("write category counts to cache", zap.Error(err))
	}
	return out, nil
}

// CategoryTree returns active categories nested under their parents.
func (s *Blog) CategoryTree(ctx context.Context) ([]*dto.CategoryTreeNode, error) {
	cats, err := s.store.ListCategories(ctx, true)
	if err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	return buildCategoryTree(cats), nil
}

// buildCategoryTree nests cats under their parents, keeping input order.
//
// A category whose parent is absent becomes a root. Categories caught in a
// parent cycle are attached as roots where the cycle is first met.
func buildCategoryTree(cats []*model.Category) []*dto.CategoryTreeNode {
	nodes := make(map[primitive.ObjectID]*dto.CategoryTreeNode, len(cats))
	for _, c := range cats {
		nodes[c.ID] = &dto.CategoryTreeNode{Category: c, Children: []*dto.CategoryTreeNode{}}
	}

	children := make(map[primitive.ObjectID][]*dto.CategoryTreeNode, len(cats))
	var roots []*dto.CategoryTreeNode
	for _, c := range cats {
		if c.ParentCategory != nil && nodes[*c.ParentCategory] != nil {
			children[*c.ParentCategory] = append(children[*c.ParentCategory], nodes[c.ID])
			continue
		}
		roots = append(roots, nodes[c.ID])
	}

	visited := make(map[primitive.ObjectID]bool, len(cats))
	var attach func(n *dto.CategoryTreeNode)
	attach = func(n *dto.CategoryTreeNode) {
		visited[n.ID] = true
		for _, child := range children[n.ID] {
			if visited[child.ID] {
				continue
			}
			n.Children = append(n.Children, child)
			attach(child)
		}
	}

	for _, r := range roots {
		attach(r)
	}
	for _, c := range cats {
		if !visited[c.ID] {
			roots = append(roots, nodes[c.ID])
			attach(nodes[c.ID])
		}
	}

	if roots == nil {
		roots = []*dto.CategoryTreeNode{}
	}
	return roots
}

// GetCategory returns an active category and its active subcategories.
func (s *Blog) GetCategory(ctx context.Context, slug string) (*dto.CategoryDetail, error) {
	cat, err := s.store.GetCategoryBySlug(ctx, slug, true)
	if err != nil {
		return nil, errors.Wrapf(err, "get category %q", slug)
	}

	subs, err := s.store.ListSubcategories(ctx, cat.ID, true)
	if err != nil {
		return nil, errors.Wrap(err, "list subcategories")
	}
	if subs == nil {
		subs = []*model.Category{}
	}

	return &dto.CategoryDetail{Category: cat, Subcategories: subs}, nil
}

// CategoryPosts returns published posts of an active category.
func (s *Blog) CategoryPosts(ctx context.Context, slug string, page dto.Page) (*dto.CategoryPosts, error) {
	cat, err := s.store.GetCategoryBySlug(ctx, slug, true)
	if err != nil {
		return nil, errors.Wrapf(err, "get category %q", slug)
	}

	list, err := s.ListPosts(ctx, &dto.PostListParams{
		Page:     page,
		Category: cat.ID.Hex(),
		Sort:     dto.PostSortLatest,
	})
	if err != nil {
		return nil, err
	}

	return &dto.CategoryPosts{
		Category:   cat,
		Posts:      list.Posts,
		Pagination: list.Pagination,
	}, nil
}

// CreateCategory stores a new category.
func (s *Blog) CreateCategory(ctx context.Context, req *dto.CreateCategoryRequest) (*model.Category, error) {
	cat := &model.Category{IsActive: true}
	if err := copier.Copy(cat, req); err != nil {
		return nil, errors.Wrap(err, "copy category request")
	}
	if req.Active != nil {
		cat.IsActive = *req.Active
	}
	if req.ParentID != "" {
		id, err := primitive.ObjectIDFromHex(req.ParentID)
		if err != nil {
			return nil, model.Invalid("parentCategory", "must be a valid id")
		}
		cat.ParentCategory = &id
	}

	if err := s.requireParent(ctx, nil, cat); err != nil {
		return nil, err
	}
	if err := PrepareCategory(nil, cat, s.now()); err != nil {
		return nil, err
	}
	if err := s.store.InsertCategory(ctx, cat); err != nil {
		return nil, errors.Wrap(err, "insert category")
	}

	s.invalidateCategoryCaches(ctx)
	return cat, nil
}

// UpdateCategory applies patch to the stored category.
func (s *Blog) UpdateCategory(ctx context.Context, id primitive.ObjectID,
	patch *dto.CategoryPatch) (*model.Category, error) {
	prev, err := s.store.GetCategoryByID(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get category %s", id.Hex())
	}

	next := *prev
	if err = patch.Apply(&next); err != nil {
		return nil, err
	}
	if err = s.requireParent(ctx, prev, &next); err != nil {
		return nil, err
	}
	if err = PrepareCategory(prev, &next, s.now()); err != nil {
		return nil, err
	}
	if err = s.store.ReplaceCategory(ctx, &next); err != nil {
		return nil, errors.Wrapf(err, "replace category %s", id.Hex())
	}

	s.invalidateCategoryCaches(ctx)
	return &next, nil
}

// DeleteCategory removes a category that has neither posts nor subcategories.
func (s *Blog) DeleteCategory(ctx context.Context, id primitive.ObjectID) error {
	if _, err := s.store.GetCategoryByID(ctx, id); err != nil {
		return errors.Wrapf(err, "get category %s", id.Hex())
	}

	posts, err := s.store.CountPostsByCategory(ctx, id)
	if err != nil {
		return errors.Wrap(err, "count posts of category")
	}
	if posts > 0 {
		return model.Conflict("category still has %d posts", posts)
	}

	subs, err := s.store.CountSubcategories(ctx, id)
	if err != nil {
		return errors.Wrap(err, "count subcategories")
	}
	if subs > 0 {
		return model.Conflict("category still has %d subcategories", subs)
	}

	if err = s.store.DeleteCategory(ctx, id); err != nil {
		return errors.Wrapf(err, "delete category %s", id.Hex())
	}

	s.invalidateCategoryCaches(ctx)
	return nil
}

// requireParent checks that a changed parent exists.
// Self references are left to PrepareCategory.
func (s *Blog) requireParent(ctx context.Context, prev, next *model.Category) error {
	parent := next.ParentCategory
	if parent == nil || (prev != nil && *parent == prev.ID) {
		return nil
	}
	if prev != nil && prev.ParentCategory != nil && *prev.ParentCategory == *parent {
		return nil
	}

	if _, err := s.store.GetCategoryByID(ctx, *parent); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Invalid("parentCategory", "does not exist")
		}
		return errors.Wrapf(err, "get parent category %s", parent.Hex())
	}
	return nil
}

func (s *Blog) invalidateCategoryCaches(ctx context.Context) {
	if err := s.cache.Delete(ctx,
		redis.KeyCategoryCountsActive,
		redis.KeyCategoryCountsAll,
	); err != nil {
		s.loggerFrom(ctx).Warn("invalidate category caches", zap.Error(err))
	}
}
