package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"zugzwang/internal/models"
	"zugzwang/internal/store"
	"zugzwang/internal/utils"
)

const categoryCacheTTL = 10 * time.Minute

// Categories manages the flat tag list and resolves client tokens (ids or names) to ids.
// Resolutions are cached; any write purges the cache.
type Categories struct {
	store store.Categories
	cache *utils.TTLCache[uint]
}

func NewCategories(s store.Categories, cacheSize int) (*Categories, error) {
	cache, err := utils.NewTTLCache[uint](cacheSize, categoryCacheTTL)
	if err != nil {
		return nil, err
	}
	return &Categories{store: s, cache: cache}, nil
}

func (s *Categories) List(ctx context.Context) ([]models.Category, error) {
	return s.store.ListCategories(ctx)
}

func (s *Categories) Get(ctx context.Context, id uint) (*models.Category, error) {
	c, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "category")
	}
	return c, nil
}

func validCategoryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", Invalid("name is required")
	}
	if len(name) > 64 {
		return "", Invalid("name is too long")
	}
	if _, err := strconv.ParseUint(name, 10, 64); err == nil {
		return "", Invalid("name cannot be a number")
	}
	return name, nil
}

func (s *Categories) Create(ctx context.Context, v models.Viewer, name, description string) (*models.Category, error) {
	if !v.IsAdmin() {
		return nil, Forbidden(msgAdminOnly)
	}
	name, err := validCategoryName(name)
	if err != nil {
		return nil, err
	}
	c := &models.Category{Name: name, Description: strings.TrimSpace(description)}
	if err := s.store.CreateCategory(ctx, c); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, Conflict("category name already exists")
		}
		return nil, err
	}
	s.cache.Purge()
	return c, nil
}

func (s *Categories) Update(ctx context.Context, v models.Viewer, id uint, name, description *string) (*models.Category, error) {
	if !v.IsAdmin() {
		return nil, Forbidden(msgAdminOnly)
	}
	if name == nil && description == nil {
		return nil, Invalid(msgNothingToUpdate)
	}
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if name != nil {
		if c.Name, err = validCategoryName(*name); err != nil {
			return nil, err
		}
	}
	if description != nil {
		c.Description = strings.TrimSpace(*description)
	}
	if err := s.store.UpdateCategory(ctx, c); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, Conflict("category name already exists")
		}
		return nil, notFoundOr(err, "category")
	}
	s.cache.Purge()
	return c, nil
}

func (s *Categories) Delete(ctx context.Context, v models.Viewer, id uint) error {
	if !v.IsAdmin() {
		return Forbidden(msgAdminOnly)
	}
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return notFoundOr(err, "category")
	}
	s.cache.Purge()
	return nil
}

// lookup resolves one token; ok is false for unknown categories.
func (s *Categories) lookup(ctx context.Context, token string) (uint, bool, error) {
	key := strings.ToLower(strings.TrimSpace(token))
	if id, ok := s.cache.Get(key); ok {
		return id, true, nil
	}

	var (
		c   *models.Category
		err error
	)
	if id, numeric := utils.ParseID(key); numeric {
		c, err = s.store.GetCategory(ctx, id)
	} else {
		c, err = s.store.FindCategoryByName(ctx, key)
	}
	if errors.Is(err, store.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	s.cache.Set(key, c.ID)
	return c.ID, true, nil
}

// Resolve maps tokens to ids, silently dropping unknown ones.
func (s *Categories) Resolve(ctx context.Context, tokens []string) ([]uint, error) {
	ids, _, err := s.resolve(ctx, tokens)
	return ids, err
}

// ResolveStrict fails with Validation when any token is unknown.
func (s *Categories) ResolveStrict(ctx context.Context, tokens []string) ([]uint, error) {
	ids, unknown, err := s.resolve(ctx, tokens)
	if err != nil {
		return nil, err
	}
	if len(unknown) > 0 {
		return nil, Invalid("unknown categories: %s", strings.Join(unknown, ", "))
	}
	return ids, nil
}

func (s *Categories) resolve(ctx context.Context, tokens []string) ([]uint, []string, error) {
	ids := make([]uint, 0, len(tokens))
	seen := make(map[uint]bool, len(tokens))
	var unknown []string
	for _, token := range tokens {
		id, ok, err := s.lookup(ctx, token)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			unknown = append(unknown, token)
			continue
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, unknown, nil
}
