package api

import (
	"context"
	"encoding/json"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"pecommunity/internal/models"
	"pecommunity/internal/validation"
)

// MessageStore is the contact-form persistence.
type MessageStore interface {
	CreateMessage(ctx context.Context, m *models.Message) error
	ListMessages(ctx context.Context) ([]models.Message, error)
	MarkMessageRead(ctx context.Context, id uuid.UUID) error
}

// MessageNotifier forwards new messages to the admins.
type MessageNotifier interface {
	NotifyContactMessage(ctx context.Context, msg *models.Message, senderEmail string)
}

// MessageHandler handles the contact form and the admin inbox.
type MessageHandler struct {
	db       MessageStore
	notifier MessageNotifier
}

// NewMessageHandler creates a new message handler. notifier may be nil.
func NewMessageHandler(store MessageStore, notifier MessageNotifier) *MessageHandler {
	return &MessageHandler{db: store, notifier: notifier}
}

type messageBody struct {
	Subject string `json:"subject" validate:"required,max=200"`
	Message string `json:"message" validate:"required,max=5000"`
}

// Create stores a contact message. Anonymous senders are allowed.
func (h *MessageHandler) Create(c fiber.Ctx) error {
	var body messageBody
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := validation.Struct(&body); err != nil {
		return handleError(c, err, "invalid message")
	}

	msg := &models.Message{Subject: body.Subject, Message: body.Message}
	senderEmail := ""
	if user := currentUser(c); user != nil {
		msg.FromUserID = &user.ID
		senderEmail = user.Email
	}

	if err := h.db.CreateMessage(c.Context(), msg); err != nil {
		return handleError(c, err, "failed to send message")
	}

	if h.notifier != nil {
		h.notifier.NotifyContactMessage(c.Context(), msg, senderEmail)
	}

	return jsonCreated(c, msg)
}

// List returns all messages, newest first (admin only).
func (h *MessageHandler) List(c fiber.Ctx) error {
	messages, err := h.db.ListMessages(c.Context())
	if err != nil {
		return handleError(c, err, "failed to fetch messages")
	}
	return jsonSuccess(c, messages)
}

// MarkRead flags a message as read (admin only).
func (h *MessageHandler) MarkRead(c fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid message id")
	}
	if err := h.db.MarkMessageRead(c.Context(), id); err != nil {
		return handleError(c, err, "failed to update message")
	}
	return jsonSuccess(c, fiber.Map{"message": "message marked as read"})
}
