package api

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/gofiber/fiber/v3"

	"pecommunity/internal/models"
	"pecommunity/internal/workflow"
)

// RequestHandler handles content submission and the admin review queue.
type RequestHandler struct {
	workflow  *workflow.Service
	maxUpload int64
}

// NewRequestHandler creates a new request handler. maxUpload caps file size in bytes.
func NewRequestHandler(wf *workflow.Service, maxUpload int64) *RequestHandler {
	return &RequestHandler{workflow: wf, maxUpload: maxUpload}
}

// submission is the body shared by teacher requests and direct admin publishes.
type submission struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Type        string `json:"type"`
	StageID     string `json:"stage_id"`
	CategoryID  string `json:"category_id"`

	file   *workflow.File
	closer io.Closer
}

func (s *submission) close() {
	if s.closer != nil {
		s.closer.Close()
	}
}

// parseSubmission reads a JSON body or a multipart form with an optional
// "file" part. The returned submission must be closed.
func (h *RequestHandler) parseSubmission(c fiber.Ctx) (*submission, error) {
	var sub submission

	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		if err := json.Unmarshal(c.Body(), &sub); err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		return &sub, nil
	}

	sub.Title = c.FormValue("title")
	sub.Description = c.FormValue("description")
	sub.URL = c.FormValue("url")
	sub.Type = c.FormValue("type")
	sub.StageID = c.FormValue("stage_id")
	sub.CategoryID = c.FormValue("category_id")

	fh, err := c.FormFile("file")
	if err != nil {
		// No file part; the URL must carry the content.
		return &sub, nil
	}
	if h.maxUpload > 0 && fh.Size > h.maxUpload {
		return nil, fiber.NewError(fiber.StatusRequestEntityTooLarge, "file is too large")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "failed to read uploaded file")
	}
	sub.file = &workflow.File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Body:        f,
	}
	sub.closer = f
	return &sub, nil
}

func (h *RequestHandler) badSubmission(c fiber.Ctx, err error) error {
	if e, ok := err.(*fiber.Error); ok {
		return jsonError(c, e.Code, e.Message)
	}
	return jsonError(c, fiber.StatusBadRequest, "invalid request body")
}

// Submit creates a pending content request for the current user.
func (h *RequestHandler) Submit(c fiber.Ctx) error {
	user := currentUser(c)
	if user == nil {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	sub, err := h.parseSubmission(c)
	if err != nil {
		return h.badSubmission(c, err)
	}
	defer sub.close()

	req, err := h.workflow.SubmitRequest(c.Context(), workflow.SubmitInput{
		Title:       sub.Title,
		Description: sub.Description,
		URL:         sub.URL,
		File:        sub.file,
		Type:        sub.Type,
		StageID:     sub.StageID,
		CategoryID:  sub.CategoryID,
		UserID:      user.ID,
		Submitter:   user,
	})
	if err != nil {
		return handleError(c, err, "failed to submit request")
	}

	return jsonCreated(c, req)
}

// Mine lists the current user's requests, newest first.
func (h *RequestHandler) Mine(c fiber.Ctx) error {
	user := currentUser(c)
	if user == nil {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	requests, err := h.workflow.ListRequests(c.Context(), models.RequestFilter{
		Status: c.Query("status", ""),
		UserID: &user.ID,
	})
	if err != nil {
		return handleError(c, err, "failed to fetch requests")
	}
	return jsonSuccess(c, requests)
}

// List returns every request, optionally filtered by status (admin only).
func (h *RequestHandler) List(c fiber.Ctx) error {
	requests, err := h.workflow.ListRequests(c.Context(), models.RequestFilter{
		Status: c.Query("status", ""),
	})
	if err != nil {
		return handleError(c, err, "failed to fetch requests")
	}
	return jsonSuccess(c, requests)
}

// Approve publishes a pending request.
func (h *RequestHandler) Approve(c fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid request id")
	}

	content, err := h.workflow.Approve(c.Context(), id, currentUser(c))
	if err != nil {
		return handleError(c, err, "failed to approve request")
	}

	return jsonSuccess(c, fiber.Map{
		"message": "request approved",
		"content": content,
	})
}

// Reject rejects a pending request with an optional reason.
func (h *RequestHandler) Reject(c fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid request id")
	}

	var body struct {
		Reason string `json:"reason"`
	}
	json.Unmarshal(c.Body(), &body) // Body and reason are both optional

	req, err := h.workflow.Reject(c.Context(), id, currentUser(c), body.Reason)
	if err != nil {
		return handleError(c, err, "failed to reject request")
	}

	return jsonSuccess(c, fiber.Map{
		"message": "request rejected",
		"request": req,
	})
}

// Publish creates content directly, bypassing the review queue (admin only).
func (h *RequestHandler) Publish(c fiber.Ctx) error {
	sub, err := h.parseSubmission(c)
	if err != nil {
		return h.badSubmission(c, err)
	}
	defer sub.close()

	content, err := h.workflow.PublishContent(c.Context(), workflow.PublishInput{
		Title:       sub.Title,
		Description: sub.Description,
		URL:         sub.URL,
		File:        sub.file,
		Type:        sub.Type,
		StageID:     sub.StageID,
		CategoryID:  sub.CategoryID,
		Admin:       currentUser(c),
	})
	if err != nil {
		return handleError(c, err, "failed to publish content")
	}

	return jsonCreated(c, content)
}

// DeleteContent removes published content (admin only).
func (h *RequestHandler) DeleteContent(c fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid content id")
	}

	if err := h.workflow.DeleteContent(c.Context(), id, currentUser(c)); err != nil {
		return handleError(c, err, "failed to delete content")
	}

	return jsonSuccess(c, fiber.Map{"message": "content deleted"})
}
