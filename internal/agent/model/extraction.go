package model

import (
	"github.com/shipchat-core/server/internal/ship360"
)

// ExtractionResult is the structured outcome of the slot-extraction model
// call: the shipment descriptor fields plus the model's own completeness
// verdict. infoComplete=false is a terminal clarification turn for the
// caller, not an error.
type ExtractionResult struct {
	ship360.ShipmentDescriptor

	InfoComplete             bool   `json:"infoComplete"`
	MissingFieldsExplanation string `json:"missingFieldsExplanation,omitempty"`

	// ParseFailed marks model output that was not valid JSON; the turn is
	// downgraded to a retry request instead of failing the graph run.
	ParseFailed bool `json:"-"`
}

// NeedsClarification reports whether this turn must go back to the user
// before any tool can run.
func (r *ExtractionResult) NeedsClarification() bool {
	return r.ParseFailed || !r.InfoComplete
}
