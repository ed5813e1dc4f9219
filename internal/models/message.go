package models

import "gorm.io/gorm"

// ChatMessage is one message in a deal's two-party chat. Messages are
// immutable once sent; only IsRead ever changes. Ordering within a deal
// is (CreatedAt, ID).
type ChatMessage struct {
	gorm.Model
	DealID   uint   `gorm:"index" json:"dealId"`
	SenderID uint   `json:"senderId"`
	Body     string `json:"body"`
	IsRead   bool   `gorm:"default:false" json:"isRead"`

	// Set when the message announces a chat-surface file upload.
	DocumentID *uint `json:"documentId,omitempty"`
	System     bool  `gorm:"default:false" json:"system"`
}
