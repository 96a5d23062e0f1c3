package messaging

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farmhand-id/platform_be/internal/db"
	"github.com/farmhand-id/platform_be/internal/models"
)

// testClock hands out strictly increasing timestamps one second apart.
type testClock struct {
	mu  sync.Mutex
	cur time.Time
}

func newTestClock() *testClock {
	return &testClock{cur: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = c.cur.Add(time.Second)
	return c.cur
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := db.Connect("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// one connection keeps the in-memory database alive and serialises writers
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

func newTestStore(t *testing.T) (*GormStore, *gorm.DB) {
	t.Helper()
	gdb := openTestDB(t)
	store := NewGormStore(gdb)
	store.Now = newTestClock().Now
	return store, gdb
}

func insertUser(t *testing.T, gdb *gorm.DB, name string, role models.Role) models.User {
	t.Helper()
	u := models.User{
		FullName: name,
		Email:    fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()[:8]),
		Password: "x",
		Role:     role,
		IsActive: true,
	}
	if err := gdb.Create(&u).Error; err != nil {
		t.Fatalf("insert user %s: %v", name, err)
	}
	return u
}

func newTestGate(t *testing.T) (*Gate, *GormStore, *gorm.DB) {
	t.Helper()
	store, gdb := newTestStore(t)
	return NewGate(store, nil, 50), store, gdb
}

func as(u models.User) AuthenticatedUser {
	return AuthenticatedUser{ID: u.ID, SessionID: "test"}
}

func mustConversation(t *testing.T, g *Gate, caller models.User, farmer, laborer uuid.UUID) *models.Conversation {
	t.Helper()
	conv, _, err := g.CreateConversation(context.Background(), as(caller), farmer, laborer)
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}
	return conv
}
