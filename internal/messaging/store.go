package messaging

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/farmhand-id/platform_be/internal/models"
)

// ErrRecordNotFound is returned by Store lookups that match nothing.
var ErrRecordNotFound = errors.New("record not found")

// Store is the durable conversation collection. Only the Gate calls it.
type Store interface {
	FindUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListConversations(ctx context.Context, userID uuid.UUID) ([]models.Conversation, error)
	FindConversation(ctx context.Context, id uuid.UUID) (*models.Conversation, error)
	FindConversationByPair(ctx context.Context, farmerID, laborerID uuid.UUID) (*models.Conversation, error)
	CreateConversation(ctx context.Context, farmerID, laborerID uuid.UUID) (*models.Conversation, bool, error)
	InsertMessage(ctx context.Context, conversationID, senderID uuid.UUID, content, messageType string) (*models.Message, error)
	FindMessage(ctx context.Context, id uuid.UUID) (*models.Message, *models.Conversation, error)
	MarkRead(ctx context.Context, messageID uuid.UUID) (*models.Message, error)
	CountMessages(ctx context.Context, conversationID uuid.UUID) (int64, error)
	UnreadCounts(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int64, error)
}

// GormStore implements Store on gorm. Timestamps come from Now, truncated
// to microseconds so they survive a postgres round trip unchanged.
type GormStore struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db, Now: time.Now}
}

func (s *GormStore) now() time.Time {
	return s.Now().UTC().Truncate(time.Microsecond)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRecordNotFound
	}
	return err
}

func (s *GormStore) FindUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := s.DB.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func chronological(db *gorm.DB) *gorm.DB {
	return db.Order("messages.created_at ASC, messages.id ASC")
}

func (s *GormStore) ListConversations(ctx context.Context, userID uuid.UUID) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := s.DB.WithContext(ctx).
		Preload("Farmer").
		Preload("Laborer").
		Preload("Messages", chronological).
		Where("farmer_id = ? OR laborer_id = ?", userID, userID).
		Order("updated_at DESC, id ASC").
		Find(&convs).Error
	if err != nil {
		return nil, err
	}
	return convs, nil
}

func (s *GormStore) FindConversation(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	var conv models.Conversation
	if err := s.DB.WithContext(ctx).First(&conv, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &conv, nil
}

func (s *GormStore) FindConversationByPair(ctx context.Context, farmerID, laborerID uuid.UUID) (*models.Conversation, error) {
	var conv models.Conversation
	err := s.DB.WithContext(ctx).
		Where("farmer_id = ? AND laborer_id = ?", farmerID, laborerID).
		First(&conv).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &conv, nil
}

// CreateConversation inserts the pair or, if the unique index already holds
// it, returns the canonical existing row with created=false.
func (s *GormStore) CreateConversation(ctx context.Context, farmerID, laborerID uuid.UUID) (*models.Conversation, bool, error) {
	now := s.now()
	conv := models.Conversation{
		FarmerID:  farmerID,
		LaborerID: laborerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	res := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "farmer_id"}, {Name: "laborer_id"}},
			DoNothing: true,
		}).
		Omit(clause.Associations).
		Create(&conv)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 1 {
		conv.Messages = []models.Message{}
		return &conv, true, nil
	}

	existing, err := s.FindConversationByPair(ctx, farmerID, laborerID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// InsertMessage appends a message and moves the parent's updated_at to the
// message's created_at. The parent row is locked for the duration so
// concurrent sends to one conversation serialise.
func (s *GormStore) InsertMessage(ctx context.Context, conversationID, senderID uuid.UUID, content, messageType string) (*models.Message, error) {
	var msg models.Message
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var conv models.Conversation
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&conv, "id = ?", conversationID).Error; err != nil {
			return notFound(err)
		}

		now := s.now()
		if !now.After(conv.UpdatedAt) {
			// keep updated_at strictly increasing even if the clock stalls
			now = conv.UpdatedAt.Add(time.Microsecond)
		}
		msg = models.Message{
			ConversationID: conversationID,
			SenderID:       senderID,
			Content:        content,
			MessageType:    messageType,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := tx.Create(&msg).Error; err != nil {
			return err
		}
		return tx.Model(&models.Conversation{}).
			Where("id = ?", conversationID).
			UpdateColumn("updated_at", now).Error
	})
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (s *GormStore) FindMessage(ctx context.Context, id uuid.UUID) (*models.Message, *models.Conversation, error) {
	var msg models.Message
	if err := s.DB.WithContext(ctx).First(&msg, "id = ?", id).Error; err != nil {
		return nil, nil, notFound(err)
	}
	conv, err := s.FindConversation(ctx, msg.ConversationID)
	if err != nil {
		return nil, nil, err
	}
	return &msg, conv, nil
}

// MarkRead sets read_at only while it is still null and returns the row as
// stored afterwards.
func (s *GormStore) MarkRead(ctx context.Context, messageID uuid.UUID) (*models.Message, error) {
	now := s.now()
	err := s.DB.WithContext(ctx).
		Model(&models.Message{}).
		Where("id = ? AND read_at IS NULL", messageID).
		UpdateColumns(map[string]interface{}{"read_at": now, "updated_at": now}).Error
	if err != nil {
		return nil, err
	}
	var msg models.Message
	if err := s.DB.WithContext(ctx).First(&msg, "id = ?", messageID).Error; err != nil {
		return nil, notFound(err)
	}
	return &msg, nil
}

func (s *GormStore) CountMessages(ctx context.Context, conversationID uuid.UUID) (int64, error) {
	var n int64
	err := s.DB.WithContext(ctx).
		Model(&models.Message{}).
		Where("conversation_id = ?", conversationID).
		Count(&n).Error
	return n, err
}

// UnreadCounts returns, per conversation userID belongs to, how many
// messages from the other participant are still unread.
func (s *GormStore) UnreadCounts(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int64, error) {
	var rows []struct {
		ConversationID uuid.UUID
		Unread         int64
	}
	err := s.DB.WithContext(ctx).
		Model(&models.Message{}).
		Select("messages.conversation_id AS conversation_id, COUNT(*) AS unread").
		Joins("JOIN conversations ON messages.conversation_id = conversations.id").
		Where("(conversations.farmer_id = ? OR conversations.laborer_id = ?) AND messages.sender_id <> ? AND messages.read_at IS NULL",
			userID, userID, userID).
		Group("messages.conversation_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]int64, len(rows))
	for _, r := range rows {
		out[r.ConversationID] = r.Unread
	}
	return out, nil
}
