// Package notification emits "a notification should be sent" signals as
// a side channel. Actual push/email/SMS delivery belongs to an external
// dispatcher; failures here are logged and swallowed, never surfaced to
// the operation that triggered them.
package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"
)

// Notification kinds.
const (
	KindStatusChange = "status_change"
	KindNewMessage   = "new_message"
	KindNewDocument  = "new_document"
)

type Notification struct {
	Kind        string `json:"kind"`
	DealID      uint   `json:"dealId"`
	ActorID     uint   `json:"actorId"`
	RecipientID uint   `json:"recipientId,omitempty"`
	Title       string `json:"title"`
	Body        string `json:"body"`
}

type Dispatcher interface {
	Dispatch(ctx context.Context, n Notification)
}

// Noop drops every signal. Used when no side channel is configured.
type Noop struct{}

func (Noop) Dispatch(context.Context, Notification) {}

// Webhook POSTs each signal to a configured URL, fire and forget.
type Webhook struct {
	URL    string
	Client *http.Client
}

func NewWebhook(url string) *Webhook {
	return &Webhook{URL: url, Client: &http.Client{Timeout: 5 * time.Second}}
}

func (w *Webhook) Dispatch(ctx context.Context, n Notification) {
	body, _ := json.Marshal(n)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewBuffer(body))
	if err != nil {
		log.Printf("notification webhook: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := w.Client.Do(req)
	if err != nil {
		log.Printf("notification webhook: %v", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		log.Printf("notification webhook: unexpected status %d", resp.StatusCode)
	}
}
