package handler

import (
	"time"

	"docval/internal/validation"
)

// ValidationResponse is the body returned for a validation run.
type ValidationResponse struct {
	ID              string                  `json:"id"`
	ValidatedAt     string                  `json:"validated_at"`
	Status          string                  `json:"status"`
	Inconsistencies []InconsistencyResponse `json:"inconsistencies"`
}

// InconsistencyResponse is one finding in a ValidationResponse.
type InconsistencyResponse struct {
	Field    string            `json:"field"`
	Message  string            `json:"message"`
	Severity string            `json:"severity"`
	Values   map[string]string `json:"values,omitempty"`
}

// FromRecord maps a stored run to its response shape. Inconsistencies are
// never null.
func FromRecord(record *validation.Record) *ValidationResponse {
	items := make([]InconsistencyResponse, 0, len(record.Inconsistencies))
	for _, inc := range record.Inconsistencies {
		items = append(items, InconsistencyResponse{
			Field:    inc.Field,
			Message:  inc.Message,
			Severity: string(inc.Severity),
			Values:   inc.Values,
		})
	}
	return &ValidationResponse{
		ID:              record.ID.String(),
		ValidatedAt:     record.ValidatedAt.UTC().Format(time.RFC3339),
		Status:          string(record.Status),
		Inconsistencies: items,
	}
}
