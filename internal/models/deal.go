package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Deal status lifecycle. Transitions are validated in internal/deal;
// nothing outside that package may write Status.
const (
	StatusDraft      = "Draft"
	StatusInProgress = "InProgress"
	StatusDocsSent   = "DocsSent"
	StatusSigned     = "Signed"
	StatusClosed     = "Closed"
	StatusLost       = "Lost"
)

// Deal types. CoAgentID is set if and only if the type is Collaboration.
const (
	DealTypeOwnProperty   = "OwnProperty"
	DealTypeCollaboration = "Collaboration"
	DealTypeOffPlan       = "OffPlanProject"
)

type Deal struct {
	ID        uint           `gorm:"primaryKey" json:"dealId"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deletedAt,omitempty"`

	AgentID   uint  `gorm:"index" json:"agentId"`
	CoAgentID *uint `gorm:"index" json:"coAgentId,omitempty"`
	LeadID    *uint `json:"leadId,omitempty"`

	// Exactly one of PropertyID / ProjectID is set.
	PropertyID *uint `json:"propertyId,omitempty"`
	ProjectID  *uint `json:"projectId,omitempty"`

	DealType string `json:"dealType"`
	Status   string `json:"status"`

	DealValue       *float64 `json:"dealValue,omitempty"`
	CommissionSplit string   `json:"commissionSplit"`
	Notes           string   `json:"notes"`

	// Marketplace/source metadata of the referenced listing, recorded at
	// creation time. Provenance only; never used to branch on deal type.
	Provenance datatypes.JSONMap `gorm:"type:jsonb" json:"provenance,omitempty"`

	Documents  []Document      `gorm:"foreignKey:DealID;constraint:OnDelete:CASCADE" json:"documents,omitempty"`
	Activities []ActivityEntry `gorm:"foreignKey:DealID;constraint:OnDelete:CASCADE" json:"activities,omitempty"`
	Messages   []ChatMessage   `gorm:"foreignKey:DealID;constraint:OnDelete:CASCADE" json:"messages,omitempty"`
}

// IsParticipant reports whether the agent is the owner or the co-agent.
func (d *Deal) IsParticipant(agentID uint) bool {
	if d.AgentID == agentID {
		return true
	}
	return d.CoAgentID != nil && *d.CoAgentID == agentID
}

// OtherParticipant returns the participant that is not the actor, or 0
// when the deal has no partner.
func (d *Deal) OtherParticipant(agentID uint) uint {
	if d.AgentID != agentID {
		return d.AgentID
	}
	if d.CoAgentID != nil {
		return *d.CoAgentID
	}
	return 0
}

// IsTerminal reports whether a status admits no further transitions.
func IsTerminal(status string) bool {
	return status == StatusClosed || status == StatusLost
}
