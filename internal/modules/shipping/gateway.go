package shipping

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// Carrier identifies a shipping provider.
type Carrier string

const (
	CarrierYamato Carrier = "yamato"
	CarrierSagawa Carrier = "sagawa"
	CarrierFedex  Carrier = "fedex"
	CarrierDHL    Carrier = "dhl"
)

// LabelRequest is what a carrier adapter needs to produce a label.
type LabelRequest struct {
	ShipmentID   string
	OrderID      string
	CustomerName string
	Address      string
}

// LabelResponse is the carrier's answer: the tracking number and the
// rendered label artifact. The ready_for_pickup transition only commits
// after this has been obtained.
type LabelResponse struct {
	TrackingNumber string
	LabelURL       string
}

// Gateway is the provider-agnostic interface every carrier adapter must
// implement. To add a new carrier, implement this interface and add it
// to the registry in main.
type Gateway interface {
	CreateLabel(ctx context.Context, req *LabelRequest) (*LabelResponse, error)
}

// GatewayRegistry maps carrier names to their Gateway implementations.
type GatewayRegistry map[Carrier]Gateway

// ── Stub carrier adapter ──────────────────────────────────────────────────────
// In production, replace with the carrier's label API client. The stub
// issues deterministic-format tracking numbers for development and demos.

type stubGateway struct {
	carrier Carrier
}

func NewStubGateway(carrier Carrier) Gateway {
	return &stubGateway{carrier: carrier}
}

func (g *stubGateway) CreateLabel(ctx context.Context, req *LabelRequest) (*LabelResponse, error) {
	if req.Address == "" {
		return nil, fmt.Errorf("address is required for label generation")
	}

	tracking := fmt.Sprintf("%s-%s-%04d",
		strings.ToUpper(string(g.carrier)),
		time.Now().Format("20060102150405"),
		rand.Intn(10000))
	return &LabelResponse{
		TrackingNumber: tracking,
		LabelURL:       fmt.Sprintf("/labels/%s.pdf", tracking),
	}, nil
}
