package audit

import (
	"context"
	"time"
)

type EntityType string

const (
	EntityCorrectionRequest EntityType = "correction_request"
	EntityTimeException     EntityType = "time_exception"
	EntityShiftAssignment   EntityType = "shift_assignment"
)

// ActorSystem is recorded as the actor of automatic transitions.
const ActorSystem = "system"

// Entry is one immutable audit record. Entries are only ever appended.
type Entry struct {
	ID         string
	EntityType EntityType
	EntityID   string
	Action     string
	By         string
	At         time.Time
	Notes      *string
	FromStatus string
	ToStatus   string
}

type Repository interface {
	Append(ctx context.Context, entry Entry) error

	// ListByEntity returns the entity's entries oldest first
	ListByEntity(ctx context.Context, entityType EntityType, entityID string) ([]Entry, error)
}

type EntryResponse struct {
	ID         string  `json:"id"`
	EntityType string  `json:"entity_type"`
	EntityID   string  `json:"entity_id"`
	Action     string  `json:"action"`
	By         string  `json:"by"`
	At         string  `json:"at"`
	Notes      *string `json:"notes,omitempty"`
	FromStatus string  `json:"from_status,omitempty"`
	ToStatus   string  `json:"to_status,omitempty"`
}

func NewEntryResponses(entries []Entry) []EntryResponse {
	out := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, EntryResponse{
			ID:         e.ID,
			EntityType: string(e.EntityType),
			EntityID:   e.EntityID,
			Action:     e.Action,
			By:         e.By,
			At:         e.At.Format(time.RFC3339),
			Notes:      e.Notes,
			FromStatus: e.FromStatus,
			ToStatus:   e.ToStatus,
		})
	}
	return out
}
