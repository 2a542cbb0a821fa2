package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"pecommunity/internal/catalog"
	"pecommunity/internal/db"
	"pecommunity/internal/models"
	"pecommunity/internal/validation"
	"pecommunity/internal/workflow"
)

// jsonSuccess returns a 200 response with data wrapped in the standard envelope.
func jsonSuccess(c fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"data":   data,
	})
}

// jsonCreated is jsonSuccess with a 201 status.
func jsonCreated(c fiber.Ctx, data any) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status": "ok",
		"data":   data,
	})
}

// jsonError returns an error response with the given HTTP status code.
func jsonError(c fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"status": "error",
		"error":  message,
	})
}

// handleError maps domain errors onto HTTP statuses. Unknown errors are logged
// and reported as fallback with a 500.
func handleError(c fiber.Ctx, err error, fallback string) error {
	var verr *validation.ValidationError
	switch {
	case errors.As(err, &verr):
		return jsonError(c, fiber.StatusBadRequest, verr.Error())
	case errors.Is(err, workflow.ErrForbidden):
		return jsonError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, db.ErrRequestNotPending):
		return jsonError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, db.ErrRequestNotFound),
		errors.Is(err, db.ErrContentNotFound),
		errors.Is(err, db.ErrProfileNotFound),
		errors.Is(err, db.ErrMessageNotFound),
		errors.Is(err, db.ErrNotificationNotFound),
		errors.Is(err, catalog.ErrStageNotFound),
		errors.Is(err, catalog.ErrCategoryNotFound),
		errors.Is(err, catalog.ErrSubcategoryNotFound):
		return jsonError(c, fiber.StatusNotFound, err.Error())
	}

	slog.Error(fallback, "method", c.Method(), "path", c.Path(), "error", err)
	return jsonError(c, fiber.StatusInternalServerError, fallback)
}

// currentUser returns the authenticated profile or nil.
func currentUser(c fiber.Ctx) *models.Profile {
	user, _ := c.Locals("user").(*models.Profile)
	return user
}

// paramID parses the :id route parameter.
func paramID(c fiber.Ctx) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params("id"))
	return id, err == nil
}
