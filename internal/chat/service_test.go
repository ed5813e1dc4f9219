package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/activity"
	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/apperrors"
	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/locks"
	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/models"
	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/notification"
	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/realtime"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	owner    = uint(1)
	coAgent  = uint(2)
	stranger = uint(9)
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification.Notification
}

func (r *recordingNotifier) Dispatch(_ context.Context, n notification.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

func newTestService(t *testing.T) (*Service, *realtime.Hub, *recordingNotifier, uint) {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.Deal{}, &models.ActivityEntry{}, &models.ChatMessage{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	co := coAgent
	prop := uint(10)
	deal := &models.Deal{
		AgentID:    owner,
		CoAgentID:  &co,
		PropertyID: &prop,
		DealType:   models.DealTypeCollaboration,
		Status:     models.StatusInProgress,
	}
	if err := db.Create(deal).Error; err != nil {
		t.Fatalf("seed deal: %v", err)
	}

	hub := realtime.NewHub()
	notifier := &recordingNotifier{}
	svc := NewService(db, activity.NewService(db, hub), hub, notifier, locks.NewKeyed())
	return svc, hub, notifier, deal.ID
}

func TestSendFansOutAndAudits(t *testing.T) {
	svc, hub, notifier, dealID := newTestService(t)

	sub := hub.Subscribe(context.Background(), dealID)
	defer sub.Close()

	m, err := svc.Send(context.Background(), dealID, owner, "  are we still on for the viewing?  ")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if m.Body != "are we still on for the viewing?" {
		t.Errorf("body not trimmed: %q", m.Body)
	}

	// Two publishes land on the subscription: the audit entry from the
	// activity service and the message itself.
	var gotMessage bool
	for i := 0; i < 2; i++ {
		select {
		case ev := <-sub.Events():
			if ev.Type == realtime.EventNewMessage {
				gotMessage = true
				if ev.Message == nil || ev.Message.ID != m.ID {
					t.Errorf("event carries wrong message: %+v", ev)
				}
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for publish")
		}
	}
	if !gotMessage {
		t.Error("no new_message event delivered")
	}

	var n int64
	svc.DB.Model(&models.ActivityEntry{}).
		Where("deal_id = ? AND kind = ?", dealID, models.ActivityMessage).
		Count(&n)
	if n != 1 {
		t.Errorf("message audit entries = %d, want 1", n)
	}

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.sent) != 1 || notifier.sent[0].RecipientID != coAgent {
		t.Errorf("notifications = %+v, want one to co-agent", notifier.sent)
	}
}

func TestSendRejectsEmptyBody(t *testing.T) {
	svc, _, _, dealID := newTestService(t)

	for _, body := range []string{"", "   ", "\n\t"} {
		if _, err := svc.Send(context.Background(), dealID, owner, body); !errors.Is(err, apperrors.EmptyMessageError) {
			t.Errorf("Send(%q) = %v, want EmptyMessageError", body, err)
		}
	}
	var n int64
	svc.DB.Model(&models.ChatMessage{}).Where("deal_id = ?", dealID).Count(&n)
	if n != 0 {
		t.Errorf("messages stored = %d, want 0", n)
	}
}

func TestSendRejectsOversizedBody(t *testing.T) {
	svc, _, _, dealID := newTestService(t)
	var ve *apperrors.ValidationError
	if _, err := svc.Send(context.Background(), dealID, owner, strings.Repeat("a", maxBodyLen+1)); !errors.As(err, &ve) {
		t.Fatalf("got %v, want ValidationError", err)
	}
}

func TestSendByStrangerHasNoSideEffects(t *testing.T) {
	svc, hub, notifier, dealID := newTestService(t)

	sub := hub.Subscribe(context.Background(), dealID)
	defer sub.Close()

	_, err := svc.Send(context.Background(), dealID, stranger, "let me in")
	var pe *apperrors.PermissionError
	if !errors.As(err, &pe) {
		t.Fatalf("got %v, want PermissionError", err)
	}

	var n int64
	svc.DB.Model(&models.ChatMessage{}).Where("deal_id = ?", dealID).Count(&n)
	if n != 0 {
		t.Errorf("messages stored = %d, want 0", n)
	}
	select {
	case ev := <-sub.Events():
		t.Fatalf("unexpected publish: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.sent) != 0 {
		t.Errorf("notifications sent = %d, want 0", len(notifier.sent))
	}
}

func TestSendToMissingDeal(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	if _, err := svc.Send(context.Background(), 999, owner, "hello?"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestListOrderingAndPermission(t *testing.T) {
	svc, _, _, dealID := newTestService(t)

	bodies := []string{"first", "second", "third"}
	for _, b := range bodies {
		if _, err := svc.Send(context.Background(), dealID, owner, b); err != nil {
			t.Fatalf("Send(%q): %v", b, err)
		}
	}

	msgs, err := svc.List(dealID, coAgent)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(msgs) != len(bodies) {
		t.Fatalf("len = %d, want %d", len(msgs), len(bodies))
	}
	for i, b := range bodies {
		if msgs[i].Body != b {
			t.Errorf("msgs[%d] = %q, want %q (oldest first)", i, msgs[i].Body, b)
		}
	}

	var pe *apperrors.PermissionError
	if _, err := svc.List(dealID, stranger); !errors.As(err, &pe) {
		t.Errorf("stranger List: got %v, want PermissionError", err)
	}
}

func TestMarkReadIsScopedAndIdempotent(t *testing.T) {
	svc, _, _, dealID := newTestService(t)

	svc.Send(context.Background(), dealID, owner, "from owner")
	svc.Send(context.Background(), dealID, coAgent, "from co-agent")

	unread := func(reader uint) int64 {
		var n int64
		svc.DB.Model(&models.ChatMessage{}).
			Where("deal_id = ? AND sender_id <> ? AND is_read = ?", dealID, reader, false).
			Count(&n)
		return n
	}

	if err := svc.MarkRead(dealID, coAgent); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if n := unread(coAgent); n != 0 {
		t.Errorf("co-agent unread = %d, want 0", n)
	}
	// The co-agent's own message stays unread for the owner.
	if n := unread(owner); n != 1 {
		t.Errorf("owner unread = %d, want 1", n)
	}

	// Second call is a no-op, not an error.
	if err := svc.MarkRead(dealID, coAgent); err != nil {
		t.Fatalf("repeat MarkRead: %v", err)
	}

	var pe *apperrors.PermissionError
	if err := svc.MarkRead(dealID, stranger); !errors.As(err, &pe) {
		t.Errorf("stranger MarkRead: got %v, want PermissionError", err)
	}
}
