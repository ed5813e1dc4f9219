package deal

import (
	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/models"
)

type createDealRequest struct {
	LeadID          *uint    `json:"leadId"`
	PropertyID      *uint    `json:"propertyId"`
	ProjectID       *uint    `json:"projectId"`
	CoAgentID       *uint    `json:"coAgentId"`
	DealValue       *float64 `json:"dealValue" validate:"omitempty,gte=0"`
	CommissionSplit string   `json:"commissionSplit" validate:"max=500"`
	Notes           string   `json:"notes" validate:"max=5000"`
}

type updateDealRequest struct {
	LeadID          *uint    `json:"leadId"`
	DealValue       *float64 `json:"dealValue" validate:"omitempty,gte=0"`
	CommissionSplit *string  `json:"commissionSplit" validate:"omitempty,max=500"`
	Notes           *string  `json:"notes" validate:"omitempty,max=5000"`

	// Present only to produce a pointed error: status changes go through
	// PATCH /deals/{id}/status.
	Status *string `json:"status"`
}

type transitionRequest struct {
	Status string `json:"status" validate:"required"`
}

// dealResponse decorates the entity with its derived stage label.
type dealResponse struct {
	models.Deal
	StageLabel string `json:"stageLabel"`
}

func toResponse(d *models.Deal) dealResponse {
	return dealResponse{Deal: *d, StageLabel: StageLabel(d.Status)}
}

func toResponses(list []models.Deal) []dealResponse {
	out := make([]dealResponse, 0, len(list))
	for i := range list {
		out = append(out, toResponse(&list[i]))
	}
	return out
}
