// Package client is the messaging API as seen from a user's device. It
// talks to the server's dispatch endpoint only; every call carries the
// current session's bearer token.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/farmhand-id/platform_be/internal/messaging"
	"github.com/farmhand-id/platform_be/internal/models"
)

// Session is what the auth collaborator hands out after login.
type Session struct {
	UserID      uuid.UUID
	AccessToken string
}

// SessionSource returns the current session, or nil when signed out.
type SessionSource interface {
	CurrentSession(ctx context.Context) (*Session, error)
}

// Profile is the display profile used for slot resolution and the UI.
type Profile struct {
	ID       uuid.UUID   `json:"id"`
	FullName string      `json:"full_name"`
	Role     models.Role `json:"role"`
	Location string      `json:"location"`
}

// ProfileSource looks up profiles by user id.
type ProfileSource interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error)
}

// ConversationSummary is one row of the conversation list.
type ConversationSummary = messaging.ConversationView

type Client struct {
	HTTP     *http.Client
	BaseURL  string
	Sessions SessionSource
	// Profiles defaults to the server's profile endpoint.
	Profiles ProfileSource
}

func New(baseURL string, sessions SessionSource) *Client {
	return &Client{
		HTTP:     &http.Client{Timeout: 15 * time.Second},
		BaseURL:  strings.TrimRight(baseURL, "/"),
		Sessions: sessions,
	}
}

func (c *Client) session(ctx context.Context) (*Session, error) {
	if c.Sessions == nil {
		return nil, messaging.Unauthenticated("no session")
	}
	s, err := c.Sessions.CurrentSession(ctx)
	if err != nil {
		return nil, &messaging.Error{Kind: messaging.KindUnauthenticated, Msg: "no session", Err: err}
	}
	if s == nil || s.AccessToken == "" || s.UserID == uuid.Nil {
		return nil, messaging.Unauthenticated("no session")
	}
	return s, nil
}

type errorBody struct {
	Error string `json:"error"`
}

// do sends one request and decodes a 2xx body into out. Non-2xx replies are
// turned back into typed errors.
func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return messaging.Internal("encode request", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return messaging.Internal("build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return messaging.Internal("request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return messaging.Internal("read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var eb errorBody
		_ = json.Unmarshal(raw, &eb)
		msg := strings.TrimSpace(eb.Error)
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &messaging.Error{
			Kind: messaging.KindFromStatus(resp.StatusCode),
			Msg:  msg,
			Err:  fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return messaging.InvalidResponse("malformed response", err)
	}
	return nil
}

type dispatchReq struct {
	Action string `json:"action"`
	Data   any    `json:"data,omitempty"`
}

func (c *Client) dispatch(ctx context.Context, token, action string, data, out any) error {
	return c.do(ctx, http.MethodPost, "/api/messaging", token, dispatchReq{Action: action, Data: data}, out)
}
