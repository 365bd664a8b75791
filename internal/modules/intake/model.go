package intake

import (
	"time"

	"github.com/google/uuid"
)

// Plan statuses. Accepted plans have produced inbound product rows.
const (
	StatusSubmitted = "submitted"
	StatusReceived  = "received"
	StatusCancelled = "cancelled"
)

// DeliveryPlan is a seller-submitted intake batch: the declared
// pre-images of products before staff create the canonical rows.
type DeliveryPlan struct {
	ID        uuid.UUID      `json:"id"`
	SellerID  uuid.UUID      `json:"seller_id"`
	Status    string         `json:"status"`
	Notes     string         `json:"notes,omitempty"`
	Products  []*PlanProduct `json:"products"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// PlanProduct is one declared item on a plan. ProductID is set when
// staff accept the plan and the canonical product row is created.
type PlanProduct struct {
	ID                uuid.UUID  `json:"id"`
	PlanID            uuid.UUID  `json:"plan_id"`
	DeclaredName      string     `json:"declared_name"`
	DeclaredCategory  string     `json:"declared_category"`
	DeclaredCondition string     `json:"declared_condition,omitempty"`
	EstimatedValue    float64    `json:"estimated_value"`
	ProductID         *uuid.UUID `json:"product_id,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// SubmitRequest is the payload for submitting a delivery plan.
type SubmitRequest struct {
	SellerID string              `json:"seller_id"`
	Notes    string              `json:"notes,omitempty"`
	Products []SubmitRequestItem `json:"products"`
}

// SubmitRequestItem declares one item in a plan submission.
type SubmitRequestItem struct {
	Name           string  `json:"name"`
	Category       string  `json:"category"`
	Condition      string  `json:"condition,omitempty"`
	EstimatedValue float64 `json:"estimated_value"`
}
