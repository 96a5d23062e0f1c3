package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/farmhand-id/platform_be/internal/messaging"
	"github.com/farmhand-id/platform_be/internal/models"
)

func (c *Client) profiles() ProfileSource {
	if c.Profiles != nil {
		return c.Profiles
	}
	return c
}

// StartConversation opens (or reopens) the conversation with target and
// returns its id. Slots are resolved locally first so an unset role stops
// here; the server re-derives them regardless.
func (c *Client) StartConversation(ctx context.Context, targetUserID uuid.UUID) (uuid.UUID, error) {
	s, err := c.session(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	me, err := c.profiles().GetProfile(ctx, s.UserID)
	if err != nil {
		return uuid.Nil, err
	}

	slots, err := messaging.ResolveSlots(s.UserID, me.Role, targetUserID)
	if err != nil {
		return uuid.Nil, &messaging.Error{Kind: messaging.KindBadRequest, Msg: "cannot start conversation", Err: err}
	}

	var out struct {
		Conversation *struct {
			ID uuid.UUID `json:"id"`
		} `json:"conversation"`
	}
	if err := c.dispatch(ctx, s.AccessToken, "createConversation", slots, &out); err != nil {
		return uuid.Nil, err
	}
	if out.Conversation == nil || out.Conversation.ID == uuid.Nil {
		return uuid.Nil, messaging.InvalidResponse("missing conversation id", nil)
	}
	return out.Conversation.ID, nil
}

// SendMessage posts content to a conversation. Blank content is rejected
// without a round trip.
func (c *Client) SendMessage(ctx context.Context, conversationID uuid.UUID, content string) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, messaging.BadRequest("content is required")
	}
	s, err := c.session(ctx)
	if err != nil {
		return nil, err
	}

	var out struct {
		Message *models.Message `json:"message"`
	}
	err = c.dispatch(ctx, s.AccessToken, "sendMessage", map[string]string{
		"conversation_id": conversationID.String(),
		"content":         content,
		"message_type":    models.MessageTypeText,
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.Message == nil || out.Message.ID == uuid.Nil || out.Message.ConversationID != conversationID {
		return nil, messaging.InvalidResponse("malformed message", nil)
	}
	return out.Message, nil
}

// LoadConversations fetches the caller's conversation list in server order
// (most recently active first).
func (c *Client) LoadConversations(ctx context.Context) ([]ConversationSummary, error) {
	s, err := c.session(ctx)
	if err != nil {
		return nil, err
	}

	var out map[string]json.RawMessage
	if err := c.dispatch(ctx, s.AccessToken, "getConversations", nil, &out); err != nil {
		return nil, err
	}
	return parseConversations(out["conversations"])
}

// parseConversations is the defensive boundary for the list payload. Any
// structural inconsistency fails the whole load rather than being patched.
func parseConversations(raw json.RawMessage) ([]ConversationSummary, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, messaging.InvalidResponse("missing conversations", nil)
	}
	var list []ConversationSummary
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, messaging.InvalidResponse("malformed conversations", err)
	}

	for i := range list {
		if err := checkSummary(&list[i]); err != nil {
			return nil, messaging.InvalidResponse(fmt.Sprintf("conversation %d", i), err)
		}
	}
	return list, nil
}

func checkSummary(v *ConversationSummary) error {
	if v.ID == uuid.Nil || v.FarmerID == uuid.Nil || v.LaborerID == uuid.Nil {
		return errors.New("missing ids")
	}
	if v.FarmerID == v.LaborerID {
		return errors.New("self conversation")
	}
	slots := v.Slots()
	if v.Messages == nil {
		v.Messages = []models.Message{}
	}
	for j, m := range v.Messages {
		if m.ID == uuid.Nil || m.ConversationID != v.ID {
			return fmt.Errorf("message %d does not belong to conversation", j)
		}
		if !slots.Has(m.SenderID) {
			return fmt.Errorf("message %d sender is not a participant", j)
		}
		if j > 0 && m.CreatedAt.Before(v.Messages[j-1].CreatedAt) {
			return fmt.Errorf("message %d out of order", j)
		}
	}
	v.LastMessage = messaging.LastMessage(v.Messages)
	return nil
}

// MarkAsRead is fire-and-forget: read receipts are not worth interrupting
// the user for, so failures are logged and dropped.
func (c *Client) MarkAsRead(ctx context.Context, messageID uuid.UUID) {
	s, err := c.session(ctx)
	if err != nil {
		log.Printf("client: mark %s read: %v", messageID, err)
		return
	}
	err = c.dispatch(ctx, s.AccessToken, "markAsRead", map[string]string{
		"message_id": messageID.String(),
	}, nil)
	if err != nil {
		log.Printf("client: mark %s read: %v", messageID, err)
	}
}

// GetProfile implements ProfileSource over GET /api/profiles/:id.
func (c *Client) GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	s, err := c.session(ctx)
	if err != nil {
		return nil, err
	}
	var out struct {
		Profile *Profile `json:"profile"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/profiles/"+userID.String(), s.AccessToken, nil, &out); err != nil {
		return nil, err
	}
	if out.Profile == nil || out.Profile.ID != userID {
		return nil, messaging.InvalidResponse("malformed profile", nil)
	}
	return out.Profile, nil
}
