// internal/models/chat.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MessageTypeText  = "text"
	MessageTypeImage = "image"
)

// Conversation is a two-party thread. Slot assignment follows the
// participants' roles, so the (farmer_id, laborer_id) pair is unique per
// unordered pair of users.
type Conversation struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	FarmerID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_conversation_pair,priority:1" json:"farmer_id"`
	LaborerID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_conversation_pair,priority:2;index" json:"laborer_id"`

	CreatedAt time.Time `gorm:"autoCreateTime:false" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false;index" json:"updated_at"`

	Farmer   *User     `gorm:"foreignKey:FarmerID" json:"farmer,omitempty"`
	Laborer  *User     `gorm:"foreignKey:LaborerID" json:"laborer,omitempty"`
	Messages []Message `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE" json:"messages"`
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return
}

// HasParticipant reports whether id holds one of the two slots.
func (c *Conversation) HasParticipant(id uuid.UUID) bool {
	return id != uuid.Nil && (c.FarmerID == id || c.LaborerID == id)
}

// Message is immutable after insert except for ReadAt, which moves from nil
// to a timestamp exactly once.
type Message struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID uuid.UUID  `gorm:"type:uuid;not null;index" json:"conversation_id"`
	SenderID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"sender_id"`
	Content        string     `gorm:"type:text;not null" json:"content"`
	MessageType    string     `gorm:"type:varchar(20);not null;default:'text'" json:"message_type"`
	ReadAt         *time.Time `json:"read_at"`
	CreatedAt      time.Time  `gorm:"autoCreateTime:false;index" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime:false" json:"updated_at"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.MessageType == "" {
		m.MessageType = MessageTypeText
	}
	return
}
