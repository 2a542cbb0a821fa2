package api

import (
	"github.com/gofiber/fiber/v3"

	"pecommunity/internal/catalog"
)

// CatalogHandler serves the static stage hierarchy.
type CatalogHandler struct {
	catalog *catalog.Catalog
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(cat *catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: cat}
}

// Stages returns every stage with its categories.
func (h *CatalogHandler) Stages(c fiber.Ctx) error {
	return jsonSuccess(c, fiber.Map{
		"stages":        h.catalog.Stages(),
		"content_types": h.catalog.ContentTypes(),
	})
}

// Stage returns a single stage.
func (h *CatalogHandler) Stage(c fiber.Ctx) error {
	stage, err := h.catalog.Stage(c.Params("stageId"))
	if err != nil {
		return handleError(c, err, "failed to load stage")
	}
	return jsonSuccess(c, stage)
}

// Category returns a category within a stage.
func (h *CatalogHandler) Category(c fiber.Ctx) error {
	category, err := h.catalog.Category(c.Params("stageId"), c.Params("categoryId"))
	if err != nil {
		return handleError(c, err, "failed to load category")
	}
	return jsonSuccess(c, category)
}

// Subcategory returns a subcategory and the content types browsable under it.
func (h *CatalogHandler) Subcategory(c fiber.Ctx) error {
	sub, types, err := h.catalog.Subcategory(c.Params("stageId"), c.Params("categoryId"), c.Params("subcategoryId"))
	if err != nil {
		return handleError(c, err, "failed to load subcategory")
	}
	return jsonSuccess(c, fiber.Map{
		"subcategory":   sub,
		"content_types": types,
	})
}
