package inspection

import (
	"time"

	"github.com/google/uuid"
)

// Checklist is the persisted inspection record for one product. At
// most one checklist exists per product; a re-inspection after a fail
// overwrites the responses and re-derives the outcome.
type Checklist struct {
	ID         uuid.UUID  `json:"id"`
	ProductID  uuid.UUID  `json:"product_id"`
	Category   string     `json:"category"`
	Responses  Responses  `json:"responses"`
	Outcome    Outcome    `json:"outcome"`
	Notes      string     `json:"notes,omitempty"`
	Status     string     `json:"status"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
	VerifiedBy string     `json:"verified_by,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// ChecklistRequest is the payload for recording inspection results.
type ChecklistRequest struct {
	Responses Responses `json:"responses"`
	Notes     string    `json:"notes,omitempty"`
}
