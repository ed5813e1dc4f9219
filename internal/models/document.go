package models

import "gorm.io/gorm"

// Document categories accepted by the registry. Category is stored as
// free text so new categories don't require a migration.
const (
	CategoryID             = "ID"
	CategoryContract       = "Contract"
	CategoryMOU            = "MOU"
	CategoryPaymentReceipt = "PaymentReceipt"
	CategoryOther          = "Other"
)

// Document is a file attached to a deal. The blob itself lives in the
// configured blob store under StoragePath.
type Document struct {
	gorm.Model
	DealID      uint   `gorm:"index" json:"dealId"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	ContentType string `json:"contentType"`
	StoragePath string `json:"storagePath"`
	Size        int64  `json:"size"`
	UploadedBy  uint   `json:"uploadedBy"` // agent id; only the uploader may delete
}
