package api

import (
	"context"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"pecommunity/internal/cache"
	"pecommunity/internal/catalog"
	"pecommunity/internal/db"
	"pecommunity/internal/middleware"
	"pecommunity/internal/models"
	"pecommunity/internal/realtime"
	"pecommunity/internal/testutil"
	"pecommunity/internal/workflow"
)

// fakeStore is an in-memory stand-in for *db.DB.
type fakeStore struct {
	mu            sync.Mutex
	profiles      map[uuid.UUID]*models.Profile
	requests      map[uuid.UUID]*models.ContentRequest
	content       map[uuid.UUID]*models.Content
	messages      []models.Message
	notifications []models.Notification
	clock         time.Time

	listContentCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		profiles: make(map[uuid.UUID]*models.Profile),
		requests: make(map[uuid.UUID]*models.ContentRequest),
		content:  make(map[uuid.UUID]*models.Content),
		clock:    time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
	}
}

func (s *fakeStore) tick() time.Time {
	s.clock = s.clock.Add(time.Minute)
	return s.clock
}

func (s *fakeStore) addProfile(email, role string) *models.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &models.Profile{ID: uuid.New(), Sub: email, Email: email, Role: role, CreatedAt: s.tick()}
	s.profiles[p.ID] = p
	return p
}

// workflow.Store

func (s *fakeStore) CreateContentRequest(ctx context.Context, req *models.ContentRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	req.ID = uuid.New()
	req.Status = models.StatusPending
	req.CreatedAt = s.tick()
	cp := *req
	s.requests[req.ID] = &cp
	return nil
}

func (s *fakeStore) ListContentRequests(ctx context.Context, filter models.RequestFilter) ([]models.ContentRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.ContentRequest{}
	for _, r := range s.requests {
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.UserID != nil && r.UserID != *filter.UserID {
			continue
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *fakeStore) ApproveContentRequest(ctx context.Context, id, reviewerID uuid.UUID) (*models.ContentRequest, *models.Content, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return nil, nil, db.ErrRequestNotFound
	}
	if !r.IsPending() {
		return nil, nil, db.ErrRequestNotPending
	}
	c := r.ToContent()
	c.ID = uuid.New()
	c.CreatedAt = s.tick()
	s.content[c.ID] = c
	r.Status = models.StatusApproved
	r.ReviewedBy = &reviewerID
	cp := *r
	return &cp, c, nil
}

func (s *fakeStore) RejectContentRequest(ctx context.Context, id, reviewerID uuid.UUID, reason string) (*models.ContentRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return nil, db.ErrRequestNotFound
	}
	if !r.IsPending() {
		return nil, db.ErrRequestNotPending
	}
	r.Status = models.StatusRejected
	r.ReviewedBy = &reviewerID
	r.RejectionReason = reason
	cp := *r
	return &cp, nil
}

func (s *fakeStore) CreateContent(ctx context.Context, c *models.Content) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = uuid.New()
	c.CreatedAt = s.tick()
	cp := *c
	s.content[c.ID] = &cp
	return nil
}

func (s *fakeStore) DeleteContent(ctx context.Context, id uuid.UUID) (*models.Content, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.content[id]
	if !ok {
		return nil, db.ErrContentNotFound
	}
	delete(s.content, id)
	return c, nil
}

func (s *fakeStore) GetAdmins(ctx context.Context) ([]models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var admins []models.Profile
	for _, p := range s.profiles {
		if p.IsAdmin() {
			admins = append(admins, *p)
		}
	}
	return admins, nil
}

func (s *fakeStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n.ID = uuid.New()
	n.CreatedAt = s.tick()
	s.notifications = append(s.notifications, *n)
	return nil
}

// ContentStore

func (s *fakeStore) ListContent(ctx context.Context, filter models.ContentFilter) ([]models.Content, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listContentCalls++
	out := []models.Content{}
	for _, c := range s.content {
		if filter.StageID != "" && c.StageID != filter.StageID {
			continue
		}
		if filter.CategoryID != "" && c.CategoryID != filter.CategoryID {
			continue
		}
		if filter.Type != "" && c.Type != filter.Type {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *fakeStore) ListCategories(ctx context.Context, stageID string) ([]models.Category, error) {
	return []models.Category{{ID: "early-childhood", StageID: "primary", Name: "Early childhood"}}, nil
}

// ProfileStore

func (s *fakeStore) UpdateProfile(ctx context.Context, id uuid.UUID, upd *models.ProfileUpdate) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, db.ErrProfileNotFound
	}
	p.FullName = upd.FullName
	p.School = upd.School
	cp := *p
	return &cp, nil
}

func (s *fakeStore) UpdateProfileRole(ctx context.Context, id uuid.UUID, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return db.ErrProfileNotFound
	}
	p.Role = role
	return nil
}

func (s *fakeStore) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Profile{}
	for _, p := range s.profiles {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *fakeStore) GetUserStats(ctx context.Context, id uuid.UUID) (*models.UserStats, error) {
	return &models.UserStats{ID: id}, nil
}

// MessageStore

func (s *fakeStore) CreateMessage(ctx context.Context, m *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = uuid.New()
	m.CreatedAt = s.tick()
	s.messages = append(s.messages, *m)
	return nil
}

func (s *fakeStore) ListMessages(ctx context.Context) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Message{}, s.messages...), nil
}

func (s *fakeStore) MarkMessageRead(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		if s.messages[i].ID == id {
			s.messages[i].IsRead = true
			return nil
		}
	}
	return db.ErrMessageNotFound
}

// NotificationStore

func (s *fakeStore) ListNotifications(ctx context.Context, userID uuid.UUID) ([]models.Notification, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Notification{}
	unread := 0
	for _, n := range s.notifications {
		if n.UserID != userID {
			continue
		}
		out = append(out, n)
		if !n.IsRead {
			unread++
		}
	}
	return out, unread, nil
}

func (s *fakeStore) MarkNotificationRead(ctx context.Context, id, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		if s.notifications[i].ID == id && s.notifications[i].UserID == userID {
			s.notifications[i].IsRead = true
			return nil
		}
	}
	return db.ErrNotificationNotFound
}

func (s *fakeStore) MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for i := range s.notifications {
		if s.notifications[i].UserID == userID && !s.notifications[i].IsRead {
			s.notifications[i].IsRead = true
			n++
		}
	}
	return n, nil
}

// StatsStore

func (s *fakeStore) GetDashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := &models.DashboardStats{
		TotalUsers:    int64(len(s.profiles)),
		TotalContent:  int64(len(s.content)),
		TotalRequests: int64(len(s.requests)),
	}
	for _, r := range s.requests {
		if r.IsPending() {
			stats.PendingRequests++
		}
	}
	for _, m := range s.messages {
		if !m.IsRead {
			stats.UnreadMessages++
		}
	}
	return stats, nil
}

// testEnv is a Fiber app with the API routes mounted over a fakeStore.
// The X-Test-User header selects the caller by email.
type testEnv struct {
	app     *fiber.App
	store   *fakeStore
	hub     *realtime.Hub
	kv      *testutil.MemoryStore
	admin   *models.Profile
	teacher *models.Profile
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cat, err := catalog.Default()
	require.NoError(t, err)

	store := newFakeStore()
	env := &testEnv{
		store:   store,
		hub:     realtime.NewHub(nil, 16),
		kv:      testutil.NewMemoryStore(),
		admin:   store.addProfile("admin@example.com", models.RoleAdmin),
		teacher: store.addProfile("teacher@example.com", models.RoleUser),
	}

	listings := cache.New(env.kv, time.Minute)
	wf := workflow.New(store, cat,
		workflow.WithPublisher(env.hub),
		workflow.WithInvalidator(listings),
	)

	requests := NewRequestHandler(wf, 1<<20)
	content := NewContentHandler(store, listings, cat)
	catalogs := NewCatalogHandler(cat)
	profiles := NewProfileHandler(store)
	messages := NewMessageHandler(store, nil)
	notifications := NewNotificationHandler(store)
	stats := NewStatsHandler(store)
	auth := middleware.NewAuthMiddleware(nil, nil, nil)

	app := fiber.New()
	app.Use(func(c fiber.Ctx) error {
		email := c.Get("X-Test-User")
		store.mu.Lock()
		for _, p := range store.profiles {
			if p.Email == email {
				cp := *p
				c.Locals("user", &cp)
			}
		}
		store.mu.Unlock()
		return c.Next()
	})

	requireUser := func(c fiber.Ctx) error {
		if currentUser(c) == nil {
			return jsonError(c, fiber.StatusUnauthorized, "authentication required")
		}
		return c.Next()
	}

	api := app.Group("/api")
	api.Get("/stages", catalogs.Stages)
	api.Get("/stages/:stageId", catalogs.Stage)
	api.Get("/stages/:stageId/categories/:categoryId", catalogs.Category)
	api.Get("/stages/:stageId/categories/:categoryId/subcategories/:subcategoryId", catalogs.Subcategory)
	api.Get("/content", content.List)
	api.Get("/categories", content.Categories)
	api.Post("/messages", messages.Create)
	api.Get("/me", requireUser, profiles.Me)
	api.Put("/me", requireUser, profiles.UpdateMe)
	api.Post("/requests", requireUser, requests.Submit)
	api.Get("/requests/mine", requireUser, requests.Mine)
	api.Get("/notifications", requireUser, notifications.List)
	api.Post("/notifications/read-all", requireUser, notifications.MarkAllRead)
	api.Post("/notifications/:id/read", requireUser, notifications.MarkRead)

	admin := api.Group("/admin", requireUser, auth.RequireAdmin)
	admin.Get("/requests", requests.List)
	admin.Post("/requests/:id/approve", requests.Approve)
	admin.Post("/requests/:id/reject", requests.Reject)
	admin.Post("/content", requests.Publish)
	admin.Delete("/content/:id", requests.DeleteContent)
	admin.Get("/users", profiles.ListUsers)
	admin.Post("/users/:id/role", profiles.UpdateRole)
	admin.Get("/messages", messages.List)
	admin.Post("/messages/:id/read", messages.MarkRead)
	admin.Get("/stats", stats.Dashboard)

	// Approval without the admin gate, to exercise the workflow's own check.
	api.Post("/ungated/requests/:id/approve", requireUser, requests.Approve)

	env.app = app
	return env
}

func (e *testEnv) do(t *testing.T, method, target string, as *models.Profile, body string) (int, string) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, target, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if as != nil {
		req.Header.Set("X-Test-User", as.Email)
	}

	resp, err := e.app.Test(req)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data)
}
