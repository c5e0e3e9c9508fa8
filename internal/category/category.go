// Package category defines the form-data variant for each roadmap category.
//
// A roadmap's formData is one envelope with four shapes. Each Schema decodes
// and validates the raw payload into its typed Form, so a tag/shape mismatch
// is rejected at the boundary before any model call is made.
package category

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hyperengineering/protrack/internal/types"
)

// Form is a validated, category-specific plan request.
type Form interface {
	// Category returns the tag this form was decoded under.
	Category() types.Category

	// PlanDays resolves the plan length from the form's own fields.
	PlanDays(start types.Date) (int, error)

	// Subject is a short label for what the plan is about.
	Subject() string

	// Brief renders the form as prompt context, one "Label: value" per line.
	Brief() string

	// Regenerate returns a copy carrying the current roadmap title as the
	// goal and the user's customization request.
	Regenerate(goal, customization string) Form
}

// Schema decodes raw form data for one category.
type Schema interface {
	Category() types.Category
	Decode(raw json.RawMessage) (Form, error)
}

// Extras holds the fields shared by every variant. They are empty at
// creation and set when a roadmap is regenerated.
type Extras struct {
	Goal          string `json:"goal,omitempty"`
	Customization string `json:"customization,omitempty"`
}

func (e Extras) brief(b *brief) {
	b.line("Goal", e.Goal)
	b.line("Customization", e.Customization)
}

// decodeForm unmarshals raw into dst. Unknown fields are tolerated since the
// stored payload is whatever the client submitted.
func decodeForm(c types.Category, raw json.RawMessage, dst any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return ValidationErrors{Category: string(c), Errors: []FieldError{{Field: "formData", Message: "is required"}}}
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return ValidationErrors{Category: string(c), Errors: []FieldError{{Field: "formData", Message: err.Error()}}}
	}
	return nil
}

// durationDays is the shared rule for the three duration-based variants.
func durationDays(c types.Category, d FlexInt) (int, error) {
	if d <= 0 {
		return 0, ValidationErrors{Category: string(c), Errors: []FieldError{{Field: "duration", Message: "must be a positive number of days"}}}
	}
	return int(d), nil
}

type brief struct {
	sb strings.Builder
}

func (b *brief) line(label, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	fmt.Fprintf(&b.sb, "%s: %s\n", label, value)
}

func (b *brief) list(label string, values []string) {
	if len(values) == 0 {
		return
	}
	b.line(label, strings.Join(values, ", "))
}

func (b *brief) String() string {
	return strings.TrimRight(b.sb.String(), "\n")
}
