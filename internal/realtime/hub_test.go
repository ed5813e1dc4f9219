package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/models"
)

func TestPublishOrderPerDeal(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe(context.Background(), 7)
	defer sub.Close()

	for i := 1; i <= 10; i++ {
		hub.Publish(7, NewActivity(&models.ActivityEntry{DealID: 7, Description: string(rune('a' + i))}))
	}
	for i := 1; i <= 10; i++ {
		select {
		case ev := <-sub.Events():
			if ev.Type != EventNewActivity {
				t.Fatalf("event %d: got type %q", i, ev.Type)
			}
			if ev.Activity.Description != string(rune('a'+i)) {
				t.Fatalf("event %d delivered out of order", i)
			}
		case <-time.After(time.Second):
			t.Fatal("missing event")
		}
	}
}

func TestPublishDoesNotCrossDeals(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe(context.Background(), 1)
	defer sub.Close()

	hub.Publish(2, DocumentDeleted(2, 99))
	select {
	case ev := <-sub.Events():
		t.Fatalf("received event for another deal: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestContextCancelReleasesRegistration(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	hub.Subscribe(ctx, 3)
	if got := hub.Viewers(3); got != 1 {
		t.Fatalf("viewers = %d, want 1", got)
	}
	cancel()

	deadline := time.Now().Add(time.Second)
	for hub.Viewers(3) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscription not released after cancel")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSlowConsumerDropped(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe(context.Background(), 4)
	defer sub.Close()

	// Fill the buffer and keep publishing; Publish must never block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriptionBuffer*2; i++ {
			hub.Publish(4, DocumentDeleted(4, uint(i)))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a slow consumer")
	}

	// At most the buffered events are delivered; the rest were dropped.
	n := 0
	for {
		select {
		case <-sub.Events():
			n++
		default:
			if n > subscriptionBuffer {
				t.Fatalf("received %d events, buffer is %d", n, subscriptionBuffer)
			}
			return
		}
	}
}

func TestCloseDealClosesSubscriptions(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe(context.Background(), 5)

	hub.CloseDeal(5)
	select {
	case _, ok := <-sub.Events():
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed")
	}
	if got := hub.Viewers(5); got != 0 {
		t.Fatalf("viewers = %d after CloseDeal", got)
	}
	// Closing again must not panic.
	sub.Close()
}

func TestCloseIsIdempotent(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe(context.Background(), 6)
	sub.Close()
	sub.Close()
	if got := hub.Viewers(6); got != 0 {
		t.Fatalf("viewers = %d after Close", got)
	}
}
