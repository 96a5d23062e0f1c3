package chatstate

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/farmhand-id/platform_be/internal/client"
	"github.com/farmhand-id/platform_be/internal/messaging"
	"github.com/farmhand-id/platform_be/internal/models"
)

// ErrSendInFlight is returned when Send is called while another send has
// not finished.
var ErrSendInFlight = errors.New("chatstate: a message is already being sent")

// API is the subset of *client.Client the controller drives.
type API interface {
	LoadConversations(ctx context.Context) ([]client.ConversationSummary, error)
	StartConversation(ctx context.Context, targetUserID uuid.UUID) (uuid.UUID, error)
	SendMessage(ctx context.Context, conversationID uuid.UUID, content string) (*models.Message, error)
	MarkAsRead(ctx context.Context, messageID uuid.UUID)
	Logout(ctx context.Context) error
}

// Controller applies client calls to the cache. Every mutation that the
// server owns is followed by a full reload.
type Controller struct {
	API   API
	Cache *Cache
	Me    uuid.UUID
}

func NewController(api API, me uuid.UUID) *Controller {
	return &Controller{API: api, Cache: NewCache(), Me: me}
}

// Reload fetches the list and applies it unless a newer load or a
// selection change superseded it. A superseded load is not an error.
func (ctl *Controller) Reload(ctx context.Context) error {
	t := ctl.Cache.BeginLoad()
	list, err := ctl.API.LoadConversations(ctx)
	if err != nil {
		ctl.Cache.EndLoad(t)
		return err
	}
	ctl.Cache.ApplyLoad(t, list)
	return nil
}

// Start opens the conversation with target, selects it and reloads.
func (ctl *Controller) Start(ctx context.Context, target uuid.UUID) (uuid.UUID, error) {
	id, err := ctl.API.StartConversation(ctx, target)
	if err != nil {
		return uuid.Nil, err
	}
	ctl.Cache.Select(id)
	return id, ctl.Reload(ctx)
}

// Select switches the active conversation.
func (ctl *Controller) Select(id uuid.UUID) {
	ctl.Cache.Select(id)
}

// Send posts content to the active conversation, applies it optimistically
// and then reloads to pick up the server's ordering.
func (ctl *Controller) Send(ctx context.Context, content string) (*models.Message, error) {
	if !ctl.Cache.BeginSend() {
		return nil, ErrSendInFlight
	}
	defer ctl.Cache.EndSend()

	active := ctl.Cache.ActiveID()
	if active == uuid.Nil {
		return nil, messaging.BadRequest("no conversation selected")
	}
	msg, err := ctl.API.SendMessage(ctx, active, content)
	if err != nil {
		return nil, err
	}
	ctl.Cache.AddMessageToConversation(active, *msg)
	return msg, ctl.Reload(ctx)
}

// MarkVisibleRead marks the other party's unread messages in the active
// conversation. Server failures are only logged by the client.
func (ctl *Controller) MarkVisibleRead(ctx context.Context) int {
	n := 0
	for _, m := range ctl.Cache.Messages() {
		if m.SenderID == ctl.Me || m.ReadAt != nil {
			continue
		}
		ctl.API.MarkAsRead(ctx, m.ID)
		if ctl.Cache.UpdateMessageReadStatus(m.ID, ctl.Cache.now()) {
			n++
		}
	}
	return n
}

// Logout revokes the session and clears local state even if revocation
// fails.
func (ctl *Controller) Logout(ctx context.Context) error {
	err := ctl.API.Logout(ctx)
	ctl.Cache.Clear()
	return err
}
