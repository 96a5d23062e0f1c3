package messaging

import (
	"time"

	"github.com/google/uuid"

	"github.com/farmhand-id/platform_be/internal/models"
)

// Participant is the display profile attached to a conversation.
type Participant struct {
	ID       uuid.UUID   `json:"id"`
	FullName string      `json:"full_name"`
	Role     models.Role `json:"role"`
}

// ConversationView is what getConversations returns per conversation: the
// conversation, both participants, its messages in chronological order and
// the derived last message.
type ConversationView struct {
	ID          uuid.UUID        `json:"id"`
	FarmerID    uuid.UUID        `json:"farmer_id"`
	LaborerID   uuid.UUID        `json:"laborer_id"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	Farmer      *Participant     `json:"farmer,omitempty"`
	Laborer     *Participant     `json:"laborer,omitempty"`
	Messages    []models.Message `json:"messages"`
	LastMessage *models.Message  `json:"last_message"`
	UnreadCount int64            `json:"unread_count"`
}

func (v ConversationView) Slots() Slots {
	return Slots{FarmerID: v.FarmerID, LaborerID: v.LaborerID}
}

// OtherParticipant returns the participant that is not me. The farmer slot
// is compared first; anyone who is not the farmer is shown the farmer.
func (v ConversationView) OtherParticipant(me uuid.UUID) *Participant {
	if v.FarmerID == me {
		return v.Laborer
	}
	return v.Farmer
}

func participantOf(u *models.User) *Participant {
	if u == nil {
		return nil
	}
	return &Participant{ID: u.ID, FullName: u.FullName, Role: u.Role}
}

// NewConversationView projects a stored conversation. Messages must already
// be in chronological order.
func NewConversationView(c models.Conversation, unread int64) ConversationView {
	msgs := c.Messages
	if msgs == nil {
		msgs = []models.Message{}
	}
	v := ConversationView{
		ID:          c.ID,
		FarmerID:    c.FarmerID,
		LaborerID:   c.LaborerID,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
		Farmer:      participantOf(c.Farmer),
		Laborer:     participantOf(c.Laborer),
		Messages:    msgs,
		UnreadCount: unread,
	}
	v.LastMessage = LastMessage(msgs)
	return v
}

// LastMessage returns the chronologically last message, or nil.
func LastMessage(msgs []models.Message) *models.Message {
	if len(msgs) == 0 {
		return nil
	}
	last := msgs[len(msgs)-1]
	return &last
}
