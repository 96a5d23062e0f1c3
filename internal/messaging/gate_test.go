package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/farmhand-id/platform_be/internal/models"
)

func TestGateStartConversationFromEitherSide(t *testing.T) {
	g, _, gdb := newTestGate(t)
	ctx := context.Background()
	f1 := insertUser(t, gdb, "F1", models.RoleFarmer)
	l1 := insertUser(t, gdb, "L1", models.RoleLaborer)

	s1, _ := ResolveSlots(f1.ID, f1.Role, l1.ID)
	c1, created, err := g.CreateConversation(ctx, as(f1), s1.FarmerID, s1.LaborerID)
	if err != nil || !created {
		t.Fatalf("F1 start: created=%v err=%v", created, err)
	}

	s2, _ := ResolveSlots(l1.ID, l1.Role, f1.ID)
	c2, created, err := g.CreateConversation(ctx, as(l1), s2.FarmerID, s2.LaborerID)
	if err != nil {
		t.Fatalf("L1 start: %v", err)
	}
	if created || c2.ID != c1.ID {
		t.Fatalf("L1 got %s (created=%v), want existing %s", c2.ID, created, c1.ID)
	}
}

func TestGateCreateConversationChecks(t *testing.T) {
	g, _, gdb := newTestGate(t)
	ctx := context.Background()
	f1 := insertUser(t, gdb, "F1", models.RoleFarmer)
	f2 := insertUser(t, gdb, "F2", models.RoleFarmer)
	l1 := insertUser(t, gdb, "L1", models.RoleLaborer)
	ghost := models.User{ID: uuid.New(), Role: models.RoleLaborer}

	cases := []struct {
		name    string
		caller  models.User
		farmer  uuid.UUID
		laborer uuid.UUID
		want    Kind
	}{
		{"missing farmer", f1, uuid.Nil, l1.ID, KindBadRequest},
		{"missing laborer", f1, f1.ID, uuid.Nil, KindBadRequest},
		{"same user twice", f1, f1.ID, f1.ID, KindBadRequest},
		{"caller not a participant", f2, f1.ID, l1.ID, KindForbidden},
		{"caller has no profile", ghost, f1.ID, ghost.ID, KindNotFound},
		{"farmer claims laborer slot", f1, l1.ID, f1.ID, KindForbidden},
		{"other party unknown", f1, f1.ID, uuid.New(), KindNotFound},
		{"other party has wrong role", f1, f1.ID, f2.ID, KindNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := g.CreateConversation(ctx, as(tc.caller), tc.farmer, tc.laborer)
			if KindOf(err) != tc.want {
				t.Fatalf("got %v, want kind %s", err, tc.want)
			}
		})
	}

	var count int64
	gdb.Model(&models.Conversation{}).Count(&count)
	if count != 0 {
		t.Fatalf("rejected calls created %d conversations", count)
	}
}

func TestGateRoleMismatchIsGeneric(t *testing.T) {
	g, _, gdb := newTestGate(t)
	f1 := insertUser(t, gdb, "F1", models.RoleFarmer)
	l1 := insertUser(t, gdb, "L1", models.RoleLaborer)

	_, _, err := g.CreateConversation(context.Background(), as(f1), l1.ID, f1.ID)
	if !errors.Is(err, ErrRoleMismatch) {
		t.Fatalf("expected role mismatch cause, got %v", err)
	}
	if pub := AsError(err).Public(); strings.Contains(pub, "role") || strings.Contains(pub, "slot") {
		t.Fatalf("public message leaks detail: %q", pub)
	}
}

func TestGateSendMessage(t *testing.T) {
	g, store, gdb := newTestGate(t)
	ctx := context.Background()
	f1 := insertUser(t, gdb, "F1", models.RoleFarmer)
	l1 := insertUser(t, gdb, "L1", models.RoleLaborer)
	c1 := mustConversation(t, g, f1, f1.ID, l1.ID)

	msg, err := g.SendMessage(ctx, as(f1), c1.ID, "  Can you start Monday?  ", "")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if msg.Content != "Can you start Monday?" || msg.SenderID != f1.ID || msg.MessageType != models.MessageTypeText {
		t.Fatalf("unexpected message %+v", msg)
	}

	conv, _ := store.FindConversation(ctx, c1.ID)
	if !conv.UpdatedAt.Equal(msg.CreatedAt) {
		t.Fatalf("updated_at %v != created_at %v", conv.UpdatedAt, msg.CreatedAt)
	}

	views, err := g.GetConversations(ctx, as(l1))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(views) != 1 || views[0].LastMessage == nil || views[0].LastMessage.Content != "Can you start Monday?" {
		t.Fatalf("L1 does not see the message: %+v", views)
	}
	if views[0].UnreadCount != 1 {
		t.Fatalf("unread = %d, want 1", views[0].UnreadCount)
	}
	if other := views[0].OtherParticipant(l1.ID); other == nil || other.ID != f1.ID {
		t.Fatalf("other participant for L1 should be F1, got %+v", other)
	}
}

func TestGateSendMessageRejections(t *testing.T) {
	g, store, gdb := newTestGate(t)
	ctx := context.Background()
	f1 := insertUser(t, gdb, "F1", models.RoleFarmer)
	f2 := insertUser(t, gdb, "F2", models.RoleFarmer)
	l1 := insertUser(t, gdb, "L1", models.RoleLaborer)
	c1 := mustConversation(t, g, f1, f1.ID, l1.ID)

	cases := []struct {
		name    string
		caller  models.User
		conv    uuid.UUID
		content string
		msgType string
		want    Kind
	}{
		{"stranger", f2, c1.ID, "hi", "", KindForbidden},
		{"whitespace only", l1, c1.ID, "   ", "", KindBadRequest},
		{"empty", l1, c1.ID, "", "", KindBadRequest},
		{"too long", l1, c1.ID, strings.Repeat("a", 51), "", KindBadRequest},
		{"nul byte", l1, c1.ID, "hi\x00there", "", KindBadRequest},
		{"lone nul", l1, c1.ID, "\u0000", "", KindBadRequest},
		{"unknown type", l1, c1.ID, "hi", "video", KindBadRequest},
		{"missing conversation id", l1, uuid.Nil, "hi", "", KindBadRequest},
		{"unknown conversation", l1, uuid.New(), "hi", "", KindNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := g.SendMessage(ctx, as(tc.caller), tc.conv, tc.content, tc.msgType)
			if KindOf(err) != tc.want {
				t.Fatalf("got %v, want kind %s", err, tc.want)
			}
		})
	}

	n, _ := store.CountMessages(ctx, c1.ID)
	if n != 0 {
		t.Fatalf("rejected sends persisted %d messages", n)
	}
}

// failingStore fails every call so validation ordering can be checked.
type failingStore struct {
	Store
	calls int
}

func (s *failingStore) FindConversation(context.Context, uuid.UUID) (*models.Conversation, error) {
	s.calls++
	return nil, errors.New("boom")
}

func TestGateBlankContentNeverReachesStore(t *testing.T) {
	fs := &failingStore{}
	g := NewGate(fs, nil, 0)

	_, err := g.SendMessage(context.Background(), AuthenticatedUser{ID: uuid.New()}, uuid.New(), "\t\n ", "")
	if KindOf(err) != KindBadRequest {
		t.Fatalf("expected bad request, got %v", err)
	}
	if fs.calls != 0 {
		t.Fatalf("store was called %d times", fs.calls)
	}

	_, err = g.SendMessage(context.Background(), AuthenticatedUser{ID: uuid.New()}, uuid.New(), "hi", "")
	if KindOf(err) != KindInternal {
		t.Fatalf("store failure should surface as internal, got %v", err)
	}
	if strings.Contains(AsError(err).Public(), "boom") {
		t.Fatalf("internal detail leaked")
	}
}

func TestGateMarkAsRead(t *testing.T) {
	g, _, gdb := newTestGate(t)
	ctx := context.Background()
	f1 := insertUser(t, gdb, "F1", models.RoleFarmer)
	f2 := insertUser(t, gdb, "F2", models.RoleFarmer)
	l1 := insertUser(t, gdb, "L1", models.RoleLaborer)
	c1 := mustConversation(t, g, f1, f1.ID, l1.ID)
	msg, _ := g.SendMessage(ctx, as(f1), c1.ID, "hello", "")

	if _, err := g.MarkAsRead(ctx, as(f2), msg.ID); KindOf(err) != KindForbidden {
		t.Fatalf("stranger: got %v", err)
	}
	if _, err := g.MarkAsRead(ctx, as(l1), uuid.New()); KindOf(err) != KindNotFound {
		t.Fatalf("unknown message: got %v", err)
	}

	own, err := g.MarkAsRead(ctx, as(f1), msg.ID)
	if err != nil || own.ReadAt != nil {
		t.Fatalf("sender marking own message should be a no-op: %+v %v", own, err)
	}

	first, err := g.MarkAsRead(ctx, as(l1), msg.ID)
	if err != nil || first.ReadAt == nil {
		t.Fatalf("first mark: %+v %v", first, err)
	}
	second, err := g.MarkAsRead(ctx, as(l1), msg.ID)
	if err != nil {
		t.Fatalf("second mark: %v", err)
	}
	if !second.ReadAt.Equal(*first.ReadAt) {
		t.Fatalf("read_at changed from %v to %v", *first.ReadAt, *second.ReadAt)
	}
}

func TestGateGetConversationsOrdering(t *testing.T) {
	g, _, gdb := newTestGate(t)
	ctx := context.Background()
	f1 := insertUser(t, gdb, "F1", models.RoleFarmer)
	l1 := insertUser(t, gdb, "L1", models.RoleLaborer)
	l2 := insertUser(t, gdb, "L2", models.RoleLaborer)

	ca := mustConversation(t, g, f1, f1.ID, l1.ID)
	cb := mustConversation(t, g, l2, f1.ID, l2.ID)

	views, _ := g.GetConversations(ctx, as(f1))
	if len(views) != 2 || views[0].ID != cb.ID {
		t.Fatalf("newest conversation should come first")
	}

	if _, err := g.SendMessage(ctx, as(l1), ca.ID, "ping", ""); err != nil {
		t.Fatalf("send: %v", err)
	}
	views, _ = g.GetConversations(ctx, as(f1))
	if views[0].ID != ca.ID || views[1].ID != cb.ID {
		t.Fatalf("conversation with latest message should come first")
	}
	for i := 1; i < len(views); i++ {
		if views[i].UpdatedAt.After(views[i-1].UpdatedAt) {
			t.Fatalf("views not ordered by updated_at desc")
		}
	}
}

func TestGateRejectsAnonymous(t *testing.T) {
	g, _, _ := newTestGate(t)
	if _, err := g.GetConversations(context.Background(), AuthenticatedUser{}); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
	if _, err := g.Authenticate(context.Background(), ""); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated for empty token, got %v", err)
	}
}

func TestGateConcurrentSendsKeepActivityOrdered(t *testing.T) {
	stalled := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	clocks := []struct {
		name string
		now  func() time.Time
	}{
		{"ticking clock", newTestClock().Now},
		{"stalled clock", func() time.Time { return stalled }},
	}
	for _, clk := range clocks {
		t.Run(clk.name, func(t *testing.T) {
			g, store, gdb := newTestGate(t)
			store.Now = clk.now
			ctx := context.Background()
			f1 := insertUser(t, gdb, "F1", models.RoleFarmer)
			l1 := insertUser(t, gdb, "L1", models.RoleLaborer)
			conv := mustConversation(t, g, f1, f1.ID, l1.ID)

			const n = 20
			var wg sync.WaitGroup
			for i := 0; i < n; i++ {
				sender := f1
				if i%2 == 1 {
					sender = l1
				}
				wg.Add(1)
				go func(i int, sender models.User) {
					defer wg.Done()
					if _, err := g.SendMessage(ctx, as(sender), conv.ID, fmt.Sprintf("msg %d", i), "text"); err != nil {
						t.Errorf("send %d: %v", i, err)
					}
				}(i, sender)
			}
			wg.Wait()

			var msgs []models.Message
			if err := gdb.Where("conversation_id = ?", conv.ID).Find(&msgs).Error; err != nil {
				t.Fatalf("load messages: %v", err)
			}
			if len(msgs) != n {
				t.Fatalf("got %d messages, want %d", len(msgs), n)
			}
			seen := map[int64]bool{}
			latest := msgs[0].CreatedAt
			for _, m := range msgs {
				key := m.CreatedAt.UnixNano()
				if seen[key] {
					t.Fatalf("two messages share created_at %v", m.CreatedAt)
				}
				seen[key] = true
				if m.CreatedAt.After(latest) {
					latest = m.CreatedAt
				}
			}

			var reloaded models.Conversation
			if err := gdb.First(&reloaded, "id = ?", conv.ID).Error; err != nil {
				t.Fatalf("reload conversation: %v", err)
			}
			if !reloaded.UpdatedAt.Equal(latest) {
				t.Fatalf("updated_at %v, newest message at %v", reloaded.UpdatedAt, latest)
			}
		})
	}
}

func TestGateConcurrentStartFromBothSides(t *testing.T) {
	g, _, gdb := newTestGate(t)
	f1 := insertUser(t, gdb, "F1", models.RoleFarmer)
	l1 := insertUser(t, gdb, "L1", models.RoleLaborer)

	const n = 10
	ids := make([]uuid.UUID, n)
	created := make([]bool, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		caller, other := f1, l1
		if i%2 == 1 {
			caller, other = l1, f1
		}
		wg.Add(1)
		go func(i int, caller, other models.User) {
			defer wg.Done()
			slots, err := ResolveSlots(caller.ID, caller.Role, other.ID)
			if err != nil {
				t.Errorf("resolve %d: %v", i, err)
				return
			}
			conv, ok, err := g.CreateConversation(context.Background(), as(caller), slots.FarmerID, slots.LaborerID)
			if err != nil {
				t.Errorf("start %d: %v", i, err)
				return
			}
			ids[i], created[i] = conv.ID, ok
		}(i, caller, other)
	}
	wg.Wait()

	fresh := 0
	for i := 0; i < n; i++ {
		if ids[i] != ids[0] {
			t.Fatalf("call %d returned %s, want %s", i, ids[i], ids[0])
		}
		if created[i] {
			fresh++
		}
	}
	if fresh != 1 {
		t.Fatalf("%d calls reported a new conversation, want 1", fresh)
	}
	var count int64
	gdb.Model(&models.Conversation{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 conversation row, got %d", count)
	}
}
