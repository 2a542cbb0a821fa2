// Package workflow implements the content request lifecycle: teachers submit
// requests, admins approve them into published content or reject them.
//
// A request moves from pending to approved or rejected exactly once. Approval
// publishes exactly one Content row copied from the request. Notifications,
// email, realtime events and cache invalidation run after the database change
// commits and never fail the operation.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"pecommunity/internal/catalog"
	"pecommunity/internal/db"
	"pecommunity/internal/metrics"
	"pecommunity/internal/models"
	"pecommunity/internal/realtime"
	"pecommunity/internal/storage"
	"pecommunity/internal/validation"
)

// maxTitleLength is counted in characters, not bytes.
const maxTitleLength = 300

// ErrForbidden is returned when a non-admin attempts an admin-only operation.
var ErrForbidden = errors.New("admin role required")

// Store is the persistence the workflow needs.
type Store interface {
	CreateContentRequest(ctx context.Context, req *models.ContentRequest) error
	ListContentRequests(ctx context.Context, filter models.RequestFilter) ([]models.ContentRequest, error)
	ApproveContentRequest(ctx context.Context, id, reviewerID uuid.UUID) (*models.ContentRequest, *models.Content, error)
	RejectContentRequest(ctx context.Context, id, reviewerID uuid.UUID, reason string) (*models.ContentRequest, error)
	CreateContent(ctx context.Context, c *models.Content) error
	DeleteContent(ctx context.Context, id uuid.UUID) (*models.Content, error)
	GetAdmins(ctx context.Context) ([]models.Profile, error)
	CreateNotification(ctx context.Context, n *models.Notification) error
}

// Uploader stores files in the content bucket.
type Uploader interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// Publisher emits realtime change events.
type Publisher interface {
	Publish(ctx context.Context, e realtime.Event) error
}

// Invalidator drops cached listings that contain a content row.
type Invalidator interface {
	Invalidate(c *models.Content) error
}

// Notifier sends email about request transitions.
type Notifier interface {
	NotifyRequestSubmitted(ctx context.Context, req *models.ContentRequest, submitter *models.Profile)
	NotifyRequestApproved(ctx context.Context, req *models.ContentRequest)
	NotifyRequestRejected(ctx context.Context, req *models.ContentRequest, reason string)
}

// Service runs the workflow. Uploader, Publisher, Invalidator and Notifier
// are optional.
type Service struct {
	store    Store
	catalog  *catalog.Catalog
	uploader Uploader
	events   Publisher
	cache    Invalidator
	notifier Notifier
}

// Option configures optional collaborators.
type Option func(*Service)

// WithUploader enables file uploads.
func WithUploader(u Uploader) Option { return func(s *Service) { s.uploader = u } }

// WithPublisher enables realtime events.
func WithPublisher(p Publisher) Option { return func(s *Service) { s.events = p } }

// WithInvalidator enables content cache invalidation.
func WithInvalidator(i Invalidator) Option { return func(s *Service) { s.cache = i } }

// WithNotifier enables email notifications.
func WithNotifier(n Notifier) Option { return func(s *Service) { s.notifier = n } }

// New creates a workflow service.
func New(store Store, cat *catalog.Catalog, opts ...Option) *Service {
	s := &Service{store: store, catalog: cat}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// File is an uploaded file attached to a submission.
type File struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// SubmitInput is a content request as entered by a teacher.
type SubmitInput struct {
	Title       string
	Description string
	URL         string
	File        *File
	Type        string
	StageID     string
	CategoryID  string
	UserID      uuid.UUID

	// Submitter is used for the admin email; optional.
	Submitter *models.Profile
}

// PublishInput is content an admin publishes directly.
type PublishInput struct {
	Title       string
	Description string
	URL         string
	File        *File
	Type        string
	StageID     string
	CategoryID  string
	Admin       *models.Profile
}

// entry holds the fields shared by submissions and direct publishes.
type entry struct {
	title, description, url, typ, stageID, categoryID string
	file                                              *File
}

// validate checks the fields and normalizes them in place. The URL/file
// requirement is checked before anything else is touched.
func (s *Service) validate(e *entry) error {
	e.title = strings.TrimSpace(e.title)
	e.url = strings.TrimSpace(e.url)
	e.description = strings.TrimSpace(e.description)

	if e.url == "" && e.file == nil {
		return validation.NewError("url", "a URL or a file is required")
	}
	if e.title == "" {
		return validation.NewError("title", "title is required")
	}
	if utf8.RuneCountInString(e.title) > maxTitleLength {
		return validation.NewError("title", fmt.Sprintf("title must be %d characters or fewer", maxTitleLength))
	}

	typ, ok := s.catalog.ResolveType(e.typ)
	if !ok {
		return validation.NewError("type", "type must be one of image, video, file, talent")
	}
	e.typ = typ

	if e.stageID == "" {
		return validation.NewError("stage_id", "stage is required")
	}
	if !s.catalog.HasStage(e.stageID) {
		return validation.NewError("stage_id", "unknown stage")
	}
	if e.categoryID == "" {
		return validation.NewError("category_id", "category is required")
	}
	if !validation.ValidateID(e.categoryID) {
		return validation.NewError("category_id", "category must be lowercase letters, digits, '-' or '_'")
	}

	if e.file == nil {
		if valid, msg := validation.ValidateURL(e.url); !valid {
			return validation.NewError("url", msg)
		}
	}
	return nil
}

// upload stores the entry's file, if any, and replaces the URL with the
// file's public URL. It returns the object key for cleanup.
func (s *Service) upload(ctx context.Context, e *entry) (string, error) {
	if e.file == nil {
		return "", nil
	}
	if s.uploader == nil {
		return "", validation.NewError("file", "file uploads are not enabled")
	}

	key := storage.ObjectKey(e.stageID, e.categoryID, e.file.Name)
	url, err := s.uploader.Upload(ctx, key, e.file.Body, e.file.ContentType)
	if err != nil {
		metrics.RecordUpload(metrics.OutcomeFailure)
		return "", err
	}
	metrics.RecordUpload(metrics.OutcomeSuccess)
	e.url = url
	return key, nil
}

// discard removes an uploaded object whose database row was never written.
func (s *Service) discard(key string) {
	if key == "" {
		return
	}
	if err := s.uploader.Delete(context.Background(), key); err != nil {
		slog.Warn("failed to remove orphaned upload", "key", key, "error", err)
	}
}

// SubmitRequest validates and stores a pending content request.
func (s *Service) SubmitRequest(ctx context.Context, in SubmitInput) (*models.ContentRequest, error) {
	if in.UserID == uuid.Nil {
		return nil, validation.NewError("user_id", "sign in to submit content")
	}

	e := entry{
		title: in.Title, description: in.Description, url: in.URL, typ: in.Type,
		stageID: in.StageID, categoryID: in.CategoryID, file: in.File,
	}
	if err := s.validate(&e); err != nil {
		return nil, err
	}

	key, err := s.upload(ctx, &e)
	if err != nil {
		return nil, err
	}

	req := &models.ContentRequest{
		Title:       e.title,
		Description: e.description,
		URL:         e.url,
		Type:        e.typ,
		StageID:     e.stageID,
		CategoryID:  e.categoryID,
		UserID:      in.UserID,
	}
	if err := s.store.CreateContentRequest(ctx, req); err != nil {
		s.discard(key)
		return nil, err
	}
	metrics.RecordRequestEvent(metrics.EventSubmitted)

	s.publish(ctx, realtime.TableContentRequests, req.ID, req, nil)
	s.notifyAdmins(ctx, req)
	if s.notifier != nil {
		submitter := in.Submitter
		if submitter == nil {
			submitter = &models.Profile{ID: in.UserID}
		}
		s.notifier.NotifyRequestSubmitted(ctx, req, submitter)
	}

	return req, nil
}

// ListRequests returns requests matching filter, newest first.
func (s *Service) ListRequests(ctx context.Context, filter models.RequestFilter) ([]models.ContentRequest, error) {
	if filter.Status != "" && !models.IsValidStatus(filter.Status) {
		return nil, validation.NewError("status", "status must be pending, approved or rejected")
	}
	return s.store.ListContentRequests(ctx, filter)
}

// Approve publishes a pending request as content. The content insert and the
// status change commit together; a request that is not pending yields
// db.ErrRequestNotPending and publishes nothing.
func (s *Service) Approve(ctx context.Context, requestID uuid.UUID, reviewer *models.Profile) (*models.Content, error) {
	if !reviewer.IsAdmin() {
		return nil, ErrForbidden
	}

	req, content, err := s.store.ApproveContentRequest(ctx, requestID, reviewer.ID)
	if errors.Is(err, db.ErrAlreadyPublished) {
		return nil, db.ErrRequestNotPending
	}
	if err != nil {
		return nil, err
	}
	metrics.RecordRequestEvent(metrics.EventApproved)
	metrics.RecordPublished(metrics.SourceRequest)

	s.invalidate(content)
	s.publish(ctx, realtime.TableContent, content.ID, content, nil)
	s.notifyUser(ctx, req.UserID, "Content approved",
		"Your request \""+req.Title+"\" was approved and is now published.",
		models.NotificationRequestApproved)
	if s.notifier != nil {
		s.notifier.NotifyRequestApproved(ctx, req)
	}

	return content, nil
}

// Reject marks a pending request rejected. No content is created.
func (s *Service) Reject(ctx context.Context, requestID uuid.UUID, reviewer *models.Profile, reason string) (*models.ContentRequest, error) {
	if !reviewer.IsAdmin() {
		return nil, ErrForbidden
	}
	reason = strings.TrimSpace(reason)

	req, err := s.store.RejectContentRequest(ctx, requestID, reviewer.ID, reason)
	if err != nil {
		return nil, err
	}
	metrics.RecordRequestEvent(metrics.EventRejected)

	msg := "Your request \"" + req.Title + "\" was not approved."
	if reason != "" {
		msg += " Reason: " + reason
	}
	s.notifyUser(ctx, req.UserID, "Content not approved", msg, models.NotificationRequestRejected)
	if s.notifier != nil {
		s.notifier.NotifyRequestRejected(ctx, req, reason)
	}

	return req, nil
}

// PublishContent lets an admin publish content without a request.
func (s *Service) PublishContent(ctx context.Context, in PublishInput) (*models.Content, error) {
	if !in.Admin.IsAdmin() {
		return nil, ErrForbidden
	}

	e := entry{
		title: in.Title, description: in.Description, url: in.URL, typ: in.Type,
		stageID: in.StageID, categoryID: in.CategoryID, file: in.File,
	}
	if err := s.validate(&e); err != nil {
		return nil, err
	}

	key, err := s.upload(ctx, &e)
	if err != nil {
		return nil, err
	}

	content := &models.Content{
		Title:       e.title,
		Description: e.description,
		URL:         e.url,
		Type:        e.typ,
		StageID:     e.stageID,
		CategoryID:  e.categoryID,
		CreatedBy:   in.Admin.ID,
	}
	if err := s.store.CreateContent(ctx, content); err != nil {
		s.discard(key)
		return nil, err
	}
	metrics.RecordPublished(metrics.SourceDirect)

	s.invalidate(content)
	s.publish(ctx, realtime.TableContent, content.ID, content, nil)

	return content, nil
}

// DeleteContent removes published content.
func (s *Service) DeleteContent(ctx context.Context, id uuid.UUID, admin *models.Profile) error {
	if !admin.IsAdmin() {
		return ErrForbidden
	}

	content, err := s.store.DeleteContent(ctx, id)
	if err != nil {
		return err
	}

	s.invalidate(content)
	if s.events != nil {
		e, err := realtime.NewEvent(realtime.TableContent, realtime.TypeDelete, content.ID, content)
		if err == nil {
			if err := s.events.Publish(ctx, e); err != nil {
				slog.Warn("failed to publish realtime event", "table", e.Table, "id", e.ID, "error", err)
			}
		}
	}
	return nil
}

func (s *Service) invalidate(c *models.Content) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(c); err != nil {
		slog.Warn("failed to invalidate content cache", "content_id", c.ID, "error", err)
	}
}

// publish emits an INSERT event; failures are logged.
func (s *Service) publish(ctx context.Context, table string, id uuid.UUID, row any, recipient *uuid.UUID) {
	if s.events == nil {
		return
	}
	e, err := realtime.NewEvent(table, realtime.TypeInsert, id, row)
	if err != nil {
		slog.Warn("failed to build realtime event", "table", table, "error", err)
		return
	}
	e.Recipient = recipient
	if err := s.events.Publish(ctx, e); err != nil {
		slog.Warn("failed to publish realtime event", "table", table, "id", e.ID, "error", err)
	}
}

// notifyUser stores an in-app notification and pushes it to the recipient.
func (s *Service) notifyUser(ctx context.Context, userID uuid.UUID, title, message, typ string) {
	n := &models.Notification{UserID: userID, Title: title, Message: message, Type: typ}
	if err := s.store.CreateNotification(ctx, n); err != nil {
		slog.Warn("failed to create notification", "user_id", userID, "type", typ, "error", err)
		return
	}
	recipient := userID
	s.publish(ctx, realtime.TableNotifications, n.ID, n, &recipient)
}

// notifyAdmins tells every admin a new request is waiting.
func (s *Service) notifyAdmins(ctx context.Context, req *models.ContentRequest) {
	admins, err := s.store.GetAdmins(ctx)
	if err != nil {
		slog.Warn("failed to load admins for notification", "request_id", req.ID, "error", err)
		return
	}
	for _, a := range admins {
		s.notifyUser(ctx, a.ID, "New content request", "\""+req.Title+"\" is waiting for review.", models.NotificationRequestSubmitted)
	}
}
