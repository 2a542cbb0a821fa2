package api

import (
	"context"

	"github.com/gofiber/fiber/v3"

	"pecommunity/internal/cache"
	"pecommunity/internal/catalog"
	"pecommunity/internal/models"
)

// ContentStore reads published content and the categories table.
type ContentStore interface {
	ListContent(ctx context.Context, filter models.ContentFilter) ([]models.Content, error)
	ListCategories(ctx context.Context, stageID string) ([]models.Category, error)
}

// ContentHandler serves published content listings.
type ContentHandler struct {
	db      ContentStore
	cache   *cache.ContentCache
	catalog *catalog.Catalog
}

// NewContentHandler creates a new content handler. listings may be nil.
func NewContentHandler(store ContentStore, listings *cache.ContentCache, cat *catalog.Catalog) *ContentHandler {
	return &ContentHandler{db: store, cache: listings, catalog: cat}
}

// List returns content filtered by stage_id, category_id and type, newest first.
// type accepts either a stored type ("video") or a catalog id ("videos").
func (h *ContentHandler) List(c fiber.Ctx) error {
	filter := models.ContentFilter{
		StageID:    c.Query("stage_id", ""),
		CategoryID: c.Query("category_id", ""),
	}
	if t := c.Query("type", ""); t != "" {
		resolved, ok := h.catalog.ResolveType(t)
		if !ok {
			return jsonError(c, fiber.StatusBadRequest, "unknown content type")
		}
		filter.Type = resolved
	}

	if items, ok := h.cache.Get(filter); ok {
		return jsonSuccess(c, items)
	}

	items, err := h.db.ListContent(c.Context(), filter)
	if err != nil {
		return handleError(c, err, "failed to fetch content")
	}
	h.cache.Set(filter, items)

	return jsonSuccess(c, items)
}

// Categories returns rows of the categories table, optionally for one stage.
func (h *ContentHandler) Categories(c fiber.Ctx) error {
	categories, err := h.db.ListCategories(c.Context(), c.Query("stage_id", ""))
	if err != nil {
		return handleError(c, err, "failed to fetch categories")
	}
	return jsonSuccess(c, categories)
}
