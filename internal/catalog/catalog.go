// Package catalog exposes the static stage -> category -> subcategory ->
// content-type hierarchy that drives content browsing.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"

	"pecommunity/internal/config"
	"pecommunity/internal/models"
)

//go:embed catalog.yaml
var defaultCatalog []byte

var (
	ErrStageNotFound       = errors.New("stage not found")
	ErrCategoryNotFound    = errors.New("category not found")
	ErrSubcategoryNotFound = errors.New("subcategory not found")
)

// Catalog is an immutable, validated view of the browsing hierarchy.
type Catalog struct {
	cfg    *config.CatalogConfig
	types  map[string]config.ContentTypeConfig // browsing id -> content type
	stored map[string]string                   // stored type -> browsing id
}

// Default returns the built-in catalog.
func Default() (*Catalog, error) {
	cfg, err := config.ParseCatalogConfig(defaultCatalog)
	if err != nil {
		return nil, fmt.Errorf("failed to parse built-in catalog: %w", err)
	}
	return New(cfg)
}

// Load returns the catalog at path, falling back to the built-in catalog when
// path is empty or the file does not exist.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	cfg, err := config.LoadCatalogConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog %s: %w", path, err)
	}
	if cfg == nil {
		return Default()
	}
	return New(cfg)
}

// New validates cfg and builds the lookup indexes.
func New(cfg *config.CatalogConfig) (*Catalog, error) {
	if cfg == nil || len(cfg.Stages) == 0 {
		return nil, errors.New("catalog has no stages")
	}

	c := &Catalog{
		cfg:    cfg,
		types:  make(map[string]config.ContentTypeConfig),
		stored: make(map[string]string),
	}
	for _, ct := range cfg.ContentTypes {
		if !models.IsValidContentType(ct.Type) {
			return nil, fmt.Errorf("content type %q maps to unknown type %q", ct.ID, ct.Type)
		}
		c.types[ct.ID] = ct
		c.stored[ct.Type] = ct.ID
	}

	seen := make(map[string]bool)
	for _, s := range cfg.Stages {
		if s.ID == "" || seen[s.ID] {
			return nil, fmt.Errorf("stage id %q is empty or duplicated", s.ID)
		}
		seen[s.ID] = true
		for _, cat := range s.Categories {
			for _, sub := range cat.Subcategories {
				for _, id := range sub.ContentTypes {
					if _, ok := c.types[id]; !ok {
						return nil, fmt.Errorf("subcategory %s/%s/%s references unknown content type %q", s.ID, cat.ID, sub.ID, id)
					}
				}
			}
		}
	}

	return c, nil
}

// Stages returns all stages in catalog order.
func (c *Catalog) Stages() []config.StageConfig {
	return c.cfg.Stages
}

// Stage returns a stage by id.
func (c *Catalog) Stage(stageID string) (*config.StageConfig, error) {
	s := c.cfg.GetStageByID(stageID)
	if s == nil {
		return nil, ErrStageNotFound
	}
	return s, nil
}

// Category returns a category within a stage.
func (c *Catalog) Category(stageID, categoryID string) (*config.CategoryConfig, error) {
	s, err := c.Stage(stageID)
	if err != nil {
		return nil, err
	}
	cat := s.GetCategoryByID(categoryID)
	if cat == nil {
		return nil, ErrCategoryNotFound
	}
	return cat, nil
}

// Subcategory returns a subcategory and the content types browsable under it.
func (c *Catalog) Subcategory(stageID, categoryID, subcategoryID string) (*config.SubcategoryConfig, []config.ContentTypeConfig, error) {
	cat, err := c.Category(stageID, categoryID)
	if err != nil {
		return nil, nil, err
	}
	sub := cat.GetSubcategoryByID(subcategoryID)
	if sub == nil {
		return nil, nil, ErrSubcategoryNotFound
	}

	if len(sub.ContentTypes) == 0 {
		return sub, c.cfg.ContentTypes, nil
	}
	types := make([]config.ContentTypeConfig, 0, len(sub.ContentTypes))
	for _, id := range sub.ContentTypes {
		types = append(types, c.types[id])
	}
	return sub, types, nil
}

// HasStage reports whether stageID exists.
func (c *Catalog) HasStage(stageID string) bool {
	return c.cfg.GetStageByID(stageID) != nil
}

// ContentTypes returns the browsable content types.
func (c *Catalog) ContentTypes() []config.ContentTypeConfig {
	return c.cfg.ContentTypes
}

// ResolveType maps either a browsing id ("videos") or a stored type ("video")
// to the stored content type. It returns "" and false for unknown values.
func (c *Catalog) ResolveType(t string) (string, bool) {
	if models.IsValidContentType(t) {
		return t, true
	}
	if ct, ok := c.types[t]; ok {
		return ct.Type, true
	}
	return "", false
}
