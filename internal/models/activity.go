package models

import "gorm.io/gorm"

// Activity kinds. status_change, message and document_upload are written
// by the engine itself; the rest are manual touchpoints logged by agents.
const (
	ActivityNote           = "note"
	ActivityStatusChange   = "status_change"
	ActivityMessage        = "message"
	ActivityDocumentUpload = "document_upload"
	ActivityCall           = "call"
	ActivityWhatsApp       = "whatsapp"
	ActivityEmail          = "email"
)

// ActivityEntry is one line of a deal's audit timeline. Entries are
// append-only: they are never updated or deleted, even when the artifact
// they describe (e.g. an uploaded file) is later removed.
type ActivityEntry struct {
	gorm.Model
	DealID      uint   `gorm:"index" json:"dealId"`
	ActorID     uint   `json:"actorId"` // agent id, 0 for system entries
	Kind        string `json:"kind"`
	Description string `json:"description"`
}
