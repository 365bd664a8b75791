package inspection

import (
	"encoding/json"
	"strings"

	"github.com/soko-dev/fulfillment-backend/internal/apperr"
)

// Outcome is the derived verdict of an inspection.
type Outcome string

const (
	OutcomePass        Outcome = "pass"
	OutcomeNeedsReview Outcome = "needs_review"
	OutcomeFail        Outcome = "fail"
)

// Item is one checkbox on an inspection checklist. Critical items fail
// the whole inspection when flagged; RequiresText items need a
// free-text explanation alongside the flag.
type Item struct {
	Key          string `json:"key"`
	Label        string `json:"label"`
	Critical     bool   `json:"critical,omitempty"`
	RequiresText bool   `json:"requires_text,omitempty"`
}

// SectionKind separates defect sections, which drive the outcome, from
// presence sections (included accessories), which are informational.
type SectionKind string

const (
	KindDefect   SectionKind = "defect"
	KindPresence SectionKind = "presence"
)

// Section groups related items under one key.
type Section struct {
	Key   string      `json:"key"`
	Name  string      `json:"name"`
	Kind  SectionKind `json:"kind"`
	Items []Item      `json:"items"`
}

// Definition is the full checklist structure for one product category.
type Definition struct {
	Category string    `json:"category"`
	Sections []Section `json:"sections"`
}

var cameraDefinition = Definition{
	Category: "camera",
	Sections: []Section{
		{Key: "body_exterior", Name: "Body exterior", Kind: KindDefect, Items: []Item{
			{Key: "scratches", Label: "Scratches"},
			{Key: "scuffs", Label: "Scuffs"},
			{Key: "dents", Label: "Dents"},
			{Key: "cracks", Label: "Cracks", Critical: true},
			{Key: "breaks", Label: "Breaks", Critical: true},
			{Key: "paint_peeling", Label: "Paint peeling"},
			{Key: "stains", Label: "Stains"},
			{Key: "stickiness", Label: "Stickiness"},
			{Key: "other_exterior", Label: "Other", RequiresText: true},
		}},
		{Key: "viewfinder", Name: "Viewfinder", Kind: KindDefect, Items: []Item{
			{Key: "mold", Label: "Mold", Critical: true},
			{Key: "dust", Label: "Dust"},
			{Key: "scratches", Label: "Scratches"},
			{Key: "stains", Label: "Stains"},
			{Key: "cloudiness", Label: "Cloudiness"},
			{Key: "corrosion", Label: "Corrosion", Critical: true},
			{Key: "balsam_separation", Label: "Balsam separation"},
		}},
		{Key: "film_chamber", Name: "Film chamber", Kind: KindDefect, Items: []Item{
			{Key: "chamber_deterioration", Label: "Chamber deterioration"},
			{Key: "light_seal_deterioration", Label: "Light seal deterioration"},
			{Key: "shutter_curtain_failure", Label: "Shutter curtain failure", Critical: true},
		}},
		{Key: "optics", Name: "Optics", Kind: KindDefect, Items: []Item{
			{Key: "dust_particles", Label: "Dust particles"},
			{Key: "cloudiness", Label: "Cloudiness"},
			{Key: "mold", Label: "Mold", Critical: true},
			{Key: "balsam_separation", Label: "Balsam separation"},
			{Key: "cracked_optics", Label: "Cracked optics", Critical: true},
			{Key: "stains", Label: "Stains"},
			{Key: "other_optics", Label: "Other", RequiresText: true},
		}},
		{Key: "exposure_function", Name: "Exposure function", Kind: KindDefect, Items: []Item{
			{Key: "not_working", Label: "Not working", Critical: true},
			{Key: "weak", Label: "Weak or unstable"},
		}},
		{Key: "accessories", Name: "Included accessories", Kind: KindPresence, Items: []Item{
			{Key: "battery", Label: "Battery"},
			{Key: "manual", Label: "Manual"},
			{Key: "case", Label: "Case"},
			{Key: "box", Label: "Box"},
			{Key: "strap", Label: "Strap"},
			{Key: "lens_cap", Label: "Lens cap"},
		}},
		{Key: "others", Name: "Other remarks", Kind: KindDefect, Items: []Item{
			{Key: "other_issues", Label: "Other issues", RequiresText: true},
		}},
	},
}

var watchDefinition = Definition{
	Category: "watch",
	Sections: []Section{
		{Key: "exterior", Name: "Case and band exterior", Kind: KindDefect, Items: []Item{
			{Key: "scratches", Label: "Scratches"},
			{Key: "scuffs", Label: "Scuffs"},
			{Key: "dents", Label: "Dents"},
			{Key: "cracks", Label: "Cracks", Critical: true},
			{Key: "breaks", Label: "Breaks", Critical: true},
			{Key: "stains", Label: "Stains"},
			{Key: "stickiness", Label: "Stickiness"},
			{Key: "other_exterior", Label: "Other", RequiresText: true},
		}},
		{Key: "dial_hands", Name: "Dial and hands", Kind: KindDefect, Items: []Item{
			{Key: "hand_discoloration", Label: "Hand discoloration"},
			{Key: "dial_stains", Label: "Dial stains"},
			{Key: "index_damage", Label: "Index damage"},
			{Key: "luminous_deterioration", Label: "Luminous deterioration"},
			{Key: "dial_cracks", Label: "Dial cracks", Critical: true},
		}},
		{Key: "movement", Name: "Movement", Kind: KindDefect, Items: []Item{
			{Key: "not_running", Label: "Not running", Critical: true},
			{Key: "poor_accuracy", Label: "Poor timekeeping"},
			{Key: "winding_failure", Label: "Winding failure", Critical: true},
			{Key: "crown_failure", Label: "Crown failure"},
			{Key: "date_failure", Label: "Date function failure"},
		}},
		{Key: "case_bracelet", Name: "Case and bracelet", Kind: KindDefect, Items: []Item{
			{Key: "corrosion", Label: "Corrosion", Critical: true},
			{Key: "bracelet_stretch", Label: "Bracelet stretch"},
			{Key: "buckle_malfunction", Label: "Buckle malfunction"},
			{Key: "link_missing", Label: "Missing links"},
			{Key: "belt_deterioration", Label: "Belt deterioration"},
		}},
		{Key: "accessories", Name: "Included accessories", Kind: KindPresence, Items: []Item{
			{Key: "box", Label: "Box"},
			{Key: "warranty", Label: "Warranty card"},
			{Key: "manual", Label: "Manual"},
			{Key: "extra_links", Label: "Extra links"},
			{Key: "tools", Label: "Tools"},
			{Key: "original_belt", Label: "Original belt"},
		}},
		{Key: "others", Name: "Other remarks", Kind: KindDefect, Items: []Item{
			{Key: "other_issues", Label: "Other issues", RequiresText: true},
		}},
	},
}

var generalDefinition = Definition{
	Category: "other",
	Sections: []Section{
		{Key: "exterior", Name: "Exterior", Kind: KindDefect, Items: []Item{
			{Key: "scratches", Label: "Scratches"},
			{Key: "scuffs", Label: "Scuffs"},
			{Key: "dents", Label: "Dents"},
			{Key: "cracks", Label: "Cracks", Critical: true},
			{Key: "breaks", Label: "Breaks", Critical: true},
			{Key: "stains", Label: "Stains"},
			{Key: "other_exterior", Label: "Other", RequiresText: true},
		}},
		{Key: "function", Name: "Function", Kind: KindDefect, Items: []Item{
			{Key: "no_power", Label: "Does not power on", Critical: true},
			{Key: "faulty_operation", Label: "Faulty operation"},
			{Key: "faulty_buttons", Label: "Faulty buttons"},
			{Key: "faulty_display", Label: "Faulty display"},
			{Key: "faulty_connectivity", Label: "Faulty connectivity"},
		}},
		{Key: "accessories", Name: "Included accessories", Kind: KindPresence, Items: []Item{
			{Key: "manual", Label: "Manual"},
			{Key: "box", Label: "Box"},
			{Key: "cables", Label: "Cables"},
			{Key: "adapters", Label: "Adapters"},
		}},
		{Key: "others", Name: "Other remarks", Kind: KindDefect, Items: []Item{
			{Key: "other_issues", Label: "Other issues", RequiresText: true},
		}},
	},
}

// DefinitionFor resolves the checklist structure for a product
// category. Unknown categories fall back to the general definition.
func DefinitionFor(category string) Definition {
	switch strings.ToLower(category) {
	case "camera", "camera_body", "lens":
		return cameraDefinition
	case "watch", "timepiece":
		return watchDefinition
	default:
		return generalDefinition
	}
}

// Value is one checklist answer: a flag, optionally with free text.
// It unmarshals from a bare boolean, a bare string, or the object form.
type Value struct {
	Checked bool   `json:"checked"`
	Text    string `json:"text,omitempty"`
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		v.Checked = b
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		v.Checked = s != ""
		v.Text = s
		return nil
	}
	type alias Value
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*v = Value(a)
	return nil
}

// Responses maps section key → item key → answer.
type Responses map[string]map[string]Value

// Validate checks res against the definition: at least one section,
// no unknown section or item keys, and an explanation on every flagged
// requires-text item.
func (d Definition) Validate(res Responses) error {
	if len(res) == 0 {
		return apperr.Validation("checklist must contain at least one section")
	}

	sections := map[string]map[string]Item{}
	for _, s := range d.Sections {
		items := map[string]Item{}
		for _, it := range s.Items {
			items[it.Key] = it
		}
		sections[s.Key] = items
	}

	for sectionKey, answers := range res {
		items, ok := sections[sectionKey]
		if !ok {
			return apperr.Validation("unknown checklist section %q for category %s", sectionKey, d.Category)
		}
		for itemKey, v := range answers {
			item, ok := items[itemKey]
			if !ok {
				return apperr.Validation("unknown checklist item %q in section %q", itemKey, sectionKey)
			}
			if item.RequiresText && v.Checked && strings.TrimSpace(v.Text) == "" {
				return apperr.Validation("item %q in section %q requires an explanation", itemKey, sectionKey)
			}
		}
	}
	return nil
}

// DeriveOutcome computes the verdict: any flagged critical defect fails
// the inspection, any other flagged defect needs review, and a clean
// sheet passes. Presence sections never affect the outcome.
func (d Definition) DeriveOutcome(res Responses) Outcome {
	outcome := OutcomePass
	for _, s := range d.Sections {
		if s.Kind != KindDefect {
			continue
		}
		answers, ok := res[s.Key]
		if !ok {
			continue
		}
		for _, it := range s.Items {
			v, ok := answers[it.Key]
			if !ok || !v.Checked {
				continue
			}
			if it.Critical {
				return OutcomeFail
			}
			outcome = OutcomeNeedsReview
		}
	}
	return outcome
}
