package realtime

import "github.com/Saleslift/AgentVerifyAgent-sub002/internal/models"

// Event types delivered over a deal subscription.
const (
	EventNewMessage      = "new_message"
	EventNewDocument     = "new_document"
	EventNewActivity     = "new_activity"
	EventDocumentDeleted = "document_deleted"
)

// Event is the tagged union published on a deal topic. Exactly one
// payload field is set, matching Type.
type Event struct {
	Type   string `json:"type"`
	DealID uint   `json:"dealId"`

	Message    *models.ChatMessage   `json:"message,omitempty"`
	Document   *models.Document      `json:"document,omitempty"`
	Activity   *models.ActivityEntry `json:"activity,omitempty"`
	DocumentID uint                  `json:"documentId,omitempty"`
}

func NewMessage(m *models.ChatMessage) Event {
	return Event{Type: EventNewMessage, DealID: m.DealID, Message: m}
}

func NewDocument(d *models.Document) Event {
	return Event{Type: EventNewDocument, DealID: d.DealID, Document: d}
}

func NewActivity(a *models.ActivityEntry) Event {
	return Event{Type: EventNewActivity, DealID: a.DealID, Activity: a}
}

func DocumentDeleted(dealID, documentID uint) Event {
	return Event{Type: EventDocumentDeleted, DealID: dealID, DocumentID: documentID}
}
