// Package chatstate holds the client-side view of the signed-in user's
// conversations for the lifetime of one session.
package chatstate

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/farmhand-id/platform_be/internal/client"
	"github.com/farmhand-id/platform_be/internal/messaging"
	"github.com/farmhand-id/platform_be/internal/models"
)

// Entry is one conversation as the cache knows it. Tentative entries carry
// local edits that the next confirmed load replaces wholesale.
type Entry struct {
	client.ConversationSummary
	Tentative bool
}

// Ticket identifies one in-flight load. A result is applied only if nothing
// newer was started and the active conversation has not changed.
type Ticket struct {
	ActiveID uuid.UUID
	gen      uint64
}

type Cache struct {
	mu sync.Mutex

	conversations []Entry
	messages      []models.Message
	activeID      uuid.UUID
	loading       bool
	sending       bool
	gen           uint64

	Now func() time.Time
}

func NewCache() *Cache {
	return &Cache{Now: time.Now}
}

func (c *Cache) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// recompute rebuilds the flattened message view. Callers hold mu.
func (c *Cache) recompute() {
	c.messages = []models.Message{}
	for _, e := range c.conversations {
		if e.ID == c.activeID && c.activeID != uuid.Nil {
			c.messages = append(c.messages, e.Messages...)
			return
		}
	}
}

func (c *Cache) index(id uuid.UUID) int {
	for i := range c.conversations {
		if c.conversations[i].ID == id {
			return i
		}
	}
	return -1
}

// ReplaceConversations installs a confirmed list in delivered order.
func (c *Cache) ReplaceConversations(list []client.ConversationSummary) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replace(list)
}

func (c *Cache) replace(list []client.ConversationSummary) {
	entries := make([]Entry, 0, len(list))
	for _, s := range list {
		s.Messages = append([]models.Message{}, s.Messages...)
		s.LastMessage = messaging.LastMessage(s.Messages)
		entries = append(entries, Entry{ConversationSummary: s})
	}
	c.conversations = entries
	c.recompute()
}

// BeginLoad marks a full reload as started and returns its ticket.
func (c *Cache) BeginLoad() Ticket {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.loading = true
	return Ticket{ActiveID: c.activeID, gen: c.gen}
}

// ApplyLoad installs list if t is still current and reports whether it did.
func (c *Cache) ApplyLoad(t Ticket, list []client.ConversationSummary) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t.gen != c.gen {
		return false
	}
	c.loading = false
	if t.ActiveID != c.activeID {
		return false
	}
	c.replace(list)
	return true
}

// EndLoad clears the loading flag after a failed load.
func (c *Cache) EndLoad(t Ticket) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t.gen == c.gen {
		c.loading = false
	}
}

// Select makes id the active conversation. uuid.Nil clears the selection.
func (c *Cache) Select(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.activeID = id
	c.recompute()
}

// AddMessageToConversation appends msg locally and bumps the conversation's
// updated_at ahead of the next reload. The list is not reordered.
func (c *Cache) AddMessageToConversation(conversationID uuid.UUID, msg models.Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.index(conversationID)
	if i < 0 {
		return false
	}
	e := &c.conversations[i]
	e.Messages = append(e.Messages, msg)
	e.LastMessage = messaging.LastMessage(e.Messages)
	e.UpdatedAt = c.now()
	e.Tentative = true
	c.recompute()
	return true
}

// UpdateMessageReadStatus sets read_at on every copy of the message that
// is still unread. Only received messages should be passed in; the
// conversation's unread count is decremented on transition.
func (c *Cache) UpdateMessageReadStatus(messageID uuid.UUID, at time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	changed := false
	for i := range c.conversations {
		e := &c.conversations[i]
		for j := range e.Messages {
			m := &e.Messages[j]
			if m.ID != messageID || m.ReadAt != nil {
				continue
			}
			t := at
			m.ReadAt = &t
			changed = true
			if e.UnreadCount > 0 {
				e.UnreadCount--
			}
			e.LastMessage = messaging.LastMessage(e.Messages)
		}
	}
	for j := range c.messages {
		if c.messages[j].ID == messageID && c.messages[j].ReadAt == nil {
			t := at
			c.messages[j].ReadAt = &t
		}
	}
	return changed
}

// BeginSend claims the sending flag; it returns false while a send is in
// flight.
func (c *Cache) BeginSend() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sending {
		return false
	}
	c.sending = true
	return true
}

func (c *Cache) EndSend() {
	c.mu.Lock()
	c.sending = false
	c.mu.Unlock()
}

// Clear drops everything, including in-flight loads.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conversations = nil
	c.messages = []models.Message{}
	c.activeID = uuid.Nil
	c.loading = false
	c.sending = false
	c.gen++
}

// Conversations returns a copy of the list in delivered order.
func (c *Cache) Conversations() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, len(c.conversations))
	for i, e := range c.conversations {
		e.Messages = append([]models.Message(nil), e.Messages...)
		out[i] = e
	}
	return out
}

// Messages returns a copy of the active conversation's messages.
func (c *Cache) Messages() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Message{}, c.messages...)
}

func (c *Cache) ActiveID() uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeID
}

// Active returns the selected conversation, if it is in the list.
func (c *Cache) Active() (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.index(c.activeID); i >= 0 && c.activeID != uuid.Nil {
		e := c.conversations[i]
		e.Messages = append([]models.Message(nil), e.Messages...)
		return e, true
	}
	return Entry{}, false
}

func (c *Cache) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

func (c *Cache) Sending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sending
}
