package client

import (
	"context"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/farmhand-id/platform_be/internal/messaging"
)

// MemorySession holds the session for the lifetime of the process.
type MemorySession struct {
	mu      sync.RWMutex
	current *Session
}

func (m *MemorySession) CurrentSession(context.Context) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return nil, nil
	}
	s := *m.current
	return &s, nil
}

func (m *MemorySession) Set(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = s
}

func (m *MemorySession) Clear() { m.Set(nil) }

type loginResp struct {
	User *struct {
		ID uuid.UUID `json:"id"`
	} `json:"user"`
	Token string `json:"token"`
}

// Login exchanges credentials for a session. It does not store it; callers
// decide where sessions live.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var out loginResp
	err := c.do(ctx, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.User == nil || out.User.ID == uuid.Nil || out.Token == "" {
		return nil, messaging.InvalidResponse("malformed login response", nil)
	}
	return &Session{UserID: out.User.ID, AccessToken: out.Token}, nil
}

// Logout revokes the current session on the server.
func (c *Client) Logout(ctx context.Context) error {
	s, err := c.session(ctx)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/api/auth/logout", s.AccessToken, nil, nil)
}
