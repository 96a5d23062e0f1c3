package messaging

import (
	"context"
	"errors"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/farmhand-id/platform_be/internal/models"
)

const DefaultMaxContentLength = 2000

var allowedMessageTypes = map[string]bool{
	models.MessageTypeText:  true,
	models.MessageTypeImage: true,
}

// AuthenticatedUser is the identity derived from a verified session. It is
// the only source of "who is calling" inside the gate.
type AuthenticatedUser struct {
	ID        uuid.UUID
	SessionID string
	// ClaimedRole is the role recorded in the token when it was issued. It
	// may be stale and is only used for coarse routing, never inside the gate.
	ClaimedRole string
}

// TokenVerifier validates a raw session token.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (AuthenticatedUser, error)
}

// Gate is the trusted choke point in front of Store. Every method re-derives
// the caller's authority from the AuthenticatedUser and the stored profile;
// nothing in the request body is trusted to say who the caller is.
type Gate struct {
	Store            Store
	Tokens           TokenVerifier
	MaxContentLength int
}

func NewGate(store Store, tokens TokenVerifier, maxContentLength int) *Gate {
	if maxContentLength <= 0 {
		maxContentLength = DefaultMaxContentLength
	}
	return &Gate{Store: store, Tokens: tokens, MaxContentLength: maxContentLength}
}

// Authenticate turns a raw bearer token into an AuthenticatedUser.
func (g *Gate) Authenticate(ctx context.Context, rawToken string) (AuthenticatedUser, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" || g.Tokens == nil {
		return AuthenticatedUser{}, ErrUnauthenticated
	}
	user, err := g.Tokens.Verify(ctx, rawToken)
	if err != nil || user.ID == uuid.Nil {
		return AuthenticatedUser{}, &Error{Kind: KindUnauthenticated, Err: err}
	}
	return user, nil
}

// storeFailure logs the underlying error and hides it behind Internal.
func storeFailure(op string, err error) error {
	log.Printf("messaging: %s: %v", op, err)
	return Internal(op+" failed", err)
}

// GetConversations lists the caller's conversations, most recently active
// first.
func (g *Gate) GetConversations(ctx context.Context, user AuthenticatedUser) ([]ConversationView, error) {
	if user.ID == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	convs, err := g.Store.ListConversations(ctx, user.ID)
	if err != nil {
		return nil, storeFailure("list conversations", err)
	}
	unread, err := g.Store.UnreadCounts(ctx, user.ID)
	if err != nil {
		return nil, storeFailure("count unread", err)
	}

	out := make([]ConversationView, 0, len(convs))
	for _, c := range convs {
		out = append(out, NewConversationView(c, unread[c.ID]))
	}
	return out, nil
}

// CreateConversation returns the conversation for (farmerID, laborerID),
// creating it if needed. created reports whether a new row was inserted.
func (g *Gate) CreateConversation(ctx context.Context, user AuthenticatedUser, farmerID, laborerID uuid.UUID) (*models.Conversation, bool, error) {
	if user.ID == uuid.Nil {
		return nil, false, ErrUnauthenticated
	}
	if farmerID == uuid.Nil || laborerID == uuid.Nil {
		return nil, false, BadRequest("farmer_id and laborer_id are required")
	}
	if farmerID == laborerID {
		return nil, false, BadRequest("cannot start a conversation with yourself")
	}

	slots := Slots{FarmerID: farmerID, LaborerID: laborerID}
	if !slots.Has(user.ID) {
		return nil, false, Forbidden("not a participant", nil)
	}

	caller, err := g.lookupUser(ctx, user.ID, "profile not found")
	if err != nil {
		return nil, false, err
	}
	if slots.SlotOf(user.ID) != caller.Role {
		return nil, false, Forbidden("role mismatch", ErrRoleMismatch)
	}

	other, err := g.lookupUser(ctx, slots.Other(user.ID), "user not found")
	if err != nil {
		return nil, false, err
	}
	if slots.SlotOf(other.ID) != other.Role {
		// the other party cannot hold a slot their role does not match
		return nil, false, NotFound("user not found")
	}

	conv, created, err := g.Store.CreateConversation(ctx, farmerID, laborerID)
	if err != nil {
		return nil, false, storeFailure("create conversation", err)
	}
	return conv, created, nil
}

func (g *Gate) lookupUser(ctx context.Context, id uuid.UUID, missing string) (*models.User, error) {
	u, err := g.Store.FindUser(ctx, id)
	if errors.Is(err, ErrRecordNotFound) {
		return nil, NotFound(missing)
	}
	if err != nil {
		return nil, storeFailure("find user", err)
	}
	return u, nil
}

// ValidateContent trims content and checks it against the length bound.
// NUL is rejected since postgres text columns cannot store it.
func (g *Gate) ValidateContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", BadRequest("content is required")
	}
	if strings.ContainsRune(content, 0) {
		return "", BadRequest("content contains invalid characters")
	}
	max := g.MaxContentLength
	if max <= 0 {
		max = DefaultMaxContentLength
	}
	if utf8.RuneCountInString(content) > max {
		return "", BadRequest("content is too long")
	}
	return content, nil
}

// SendMessage appends a message from the caller. Input is validated before
// the store is touched.
func (g *Gate) SendMessage(ctx context.Context, user AuthenticatedUser, conversationID uuid.UUID, content, messageType string) (*models.Message, error) {
	if user.ID == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	if conversationID == uuid.Nil {
		return nil, BadRequest("conversation_id is required")
	}
	content, err := g.ValidateContent(content)
	if err != nil {
		return nil, err
	}
	messageType = strings.ToLower(strings.TrimSpace(messageType))
	if messageType == "" {
		messageType = models.MessageTypeText
	}
	if !allowedMessageTypes[messageType] {
		return nil, BadRequest("unsupported message_type")
	}

	conv, err := g.Store.FindConversation(ctx, conversationID)
	if errors.Is(err, ErrRecordNotFound) {
		return nil, NotFound("conversation not found")
	}
	if err != nil {
		return nil, storeFailure("find conversation", err)
	}
	if !conv.HasParticipant(user.ID) {
		return nil, Forbidden("not a participant", nil)
	}

	msg, err := g.Store.InsertMessage(ctx, conv.ID, user.ID, content, messageType)
	if errors.Is(err, ErrRecordNotFound) {
		return nil, NotFound("conversation not found")
	}
	if err != nil {
		return nil, storeFailure("insert message", err)
	}
	return msg, nil
}

// MarkAsRead records that the caller has read messageID. It is idempotent:
// read_at is set once and never moves. Marking one's own message is a no-op.
func (g *Gate) MarkAsRead(ctx context.Context, user AuthenticatedUser, messageID uuid.UUID) (*models.Message, error) {
	if user.ID == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	if messageID == uuid.Nil {
		return nil, BadRequest("message_id is required")
	}

	msg, conv, err := g.Store.FindMessage(ctx, messageID)
	if errors.Is(err, ErrRecordNotFound) {
		return nil, NotFound("message not found")
	}
	if err != nil {
		return nil, storeFailure("find message", err)
	}
	if !conv.HasParticipant(user.ID) {
		return nil, Forbidden("not a participant", nil)
	}
	if msg.SenderID == user.ID || msg.ReadAt != nil {
		return msg, nil
	}

	msg, err = g.Store.MarkRead(ctx, messageID)
	if err != nil {
		return nil, storeFailure("mark read", err)
	}
	return msg, nil
}
