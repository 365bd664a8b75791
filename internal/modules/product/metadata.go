package product

import (
	"bytes"
	"encoding/json"

	"github.com/soko-dev/fulfillment-backend/internal/apperr"
)

// Metadata is the typed shape of the product metadata column: the
// photography, inspection and packaging facts not yet promoted to
// dedicated columns. Unknown shapes are rejected at decode time rather
// than passed through as raw text.
type Metadata struct {
	InspectionCompleted  bool       `json:"inspectionCompleted,omitempty"`
	InspectionDate       string     `json:"inspectionDate,omitempty"`
	PhotographyCompleted bool       `json:"photographyCompleted,omitempty"`
	PhotographyDate      string     `json:"photographyDate,omitempty"`
	SkipPhotography      bool       `json:"skipPhotography,omitempty"`
	Packaging            *Packaging `json:"packaging,omitempty"`
	PlanProductID        string     `json:"planProductId,omitempty"`
}

// Packaging captures measured packaging facts recorded at the packing bench.
type Packaging struct {
	Weight float64 `json:"weight,omitempty"`
	Size   string  `json:"size,omitempty"`
}

// EncodeMetadata serializes m for the metadata column. A nil metadata
// encodes to the empty string so the column stays NULL-ish.
func EncodeMetadata(m *Metadata) (string, error) {
	if m == nil {
		return "", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeMetadata parses the metadata column, rejecting unknown keys.
func DecodeMetadata(raw string) (*Metadata, error) {
	if raw == "" {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.DisallowUnknownFields()
	m := &Metadata{}
	if err := dec.Decode(m); err != nil {
		return nil, apperr.Validation("malformed product metadata: %v", err)
	}
	return m, nil
}
