// Package testutil provides test utilities and helpers.
package testutil

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"pecommunity/internal/db"
	"pecommunity/internal/models"
)

// TestDB creates a test database connection and returns a cleanup function.
// The test is skipped unless TEST_DATABASE_URL is set.
func TestDB(t *testing.T) (*db.DB, func()) {
	t.Helper()

	connString := os.Getenv("TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("Skipping integration test: TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	database, err := db.New(ctx, connString)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	if err := database.RunMigrations(connString); err != nil {
		database.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	cleanupTestData(ctx, database)
	cleanup := func() {
		cleanupTestData(ctx, database)
		database.Close()
	}

	return database, cleanup
}

// cleanupTestData removes all test data from the database.
func cleanupTestData(ctx context.Context, database *db.DB) {
	// Delete in order to respect foreign keys
	database.Pool.Exec(ctx, "DELETE FROM notifications")
	database.Pool.Exec(ctx, "DELETE FROM messages")
	database.Pool.Exec(ctx, "DELETE FROM content")
	database.Pool.Exec(ctx, "DELETE FROM content_requests")
	database.Pool.Exec(ctx, "DELETE FROM user_stats")
	database.Pool.Exec(ctx, "DELETE FROM profiles")
}

// CreateTestProfile creates a test profile with the given role.
func CreateTestProfile(t *testing.T, database *db.DB, sub, email, role string) *models.Profile {
	t.Helper()

	p := &models.Profile{Sub: sub, Email: email, FullName: "Test " + sub, Role: role}
	if err := database.UpsertProfile(context.Background(), p); err != nil {
		t.Fatalf("failed to create test profile: %v", err)
	}
	return p
}

// MemoryStore is an in-memory key/value store with the fiber.Storage method set.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]memoryEntry
}

type memoryEntry struct {
	val       []byte
	expiresAt time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Get(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.data[key]
	if !ok {
		return nil, nil
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		delete(s.data, key)
		return nil, nil
	}
	return e.val, nil
}

func (s *MemoryStore) Set(key string, val []byte, exp time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := memoryEntry{val: append([]byte(nil), val...)}
	if exp > 0 {
		e.expiresAt = time.Now().Add(exp)
	}
	s.data[key] = e
	return nil
}

func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// Has reports whether key holds a live value.
func (s *MemoryStore) Has(key string) bool {
	v, _ := s.Get(key)
	return v != nil
}

func (s *MemoryStore) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]memoryEntry)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) GetWithContext(_ context.Context, key string) ([]byte, error) {
	return s.Get(key)
}

func (s *MemoryStore) SetWithContext(_ context.Context, key string, val []byte, exp time.Duration) error {
	return s.Set(key, val, exp)
}

func (s *MemoryStore) DeleteWithContext(_ context.Context, key string) error {
	return s.Delete(key)
}

func (s *MemoryStore) ResetWithContext(_ context.Context) error {
	return s.Reset()
}
