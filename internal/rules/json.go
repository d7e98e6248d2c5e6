package rules

import (
	"encoding/json"
	"fmt"
	"time"
)

// ruleHeader holds the fields shared by every rule variant.
type ruleHeader struct {
	ID          string    `json:"id"`
	Type        Type      `json:"type"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// MarshalJSON encodes the rule as one flat object: the shared fields, the
// "type" discriminator and the variant fields side by side.
func (r BusinessRule) MarshalJSON() ([]byte, error) {
	if r.Spec == nil {
		return nil, fmt.Errorf("rule %s: missing spec", r.ID)
	}
	header, err := json.Marshal(ruleHeader{
		ID:          r.ID,
		Type:        r.Spec.Type(),
		Name:        r.Name,
		Description: r.Description,
		IsActive:    r.IsActive,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	})
	if err != nil {
		return nil, err
	}
	spec, err := json.Marshal(r.Spec)
	if err != nil {
		return nil, err
	}

	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(spec, &fields); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(header, &fields); err != nil {
		return nil, err
	}
	return json.Marshal(fields)
}

// UnmarshalJSON decodes a flat rule object, dispatching on "type".
func (r *BusinessRule) UnmarshalJSON(data []byte) error {
	var h ruleHeader
	if err := json.Unmarshal(data, &h); err != nil {
		return err
	}
	spec, err := DecodeSpec(h.Type, data)
	if err != nil {
		return fmt.Errorf("rule %s: %w", h.ID, err)
	}
	*r = BusinessRule{
		ID:          h.ID,
		Name:        h.Name,
		Description: h.Description,
		IsActive:    h.IsActive,
		CreatedAt:   h.CreatedAt,
		UpdatedAt:   h.UpdatedAt,
		Spec:        spec,
	}
	return nil
}

// DecodeSpec decodes the variant fields for rule type t from a JSON object.
// Fields belonging to other variants are ignored.
func DecodeSpec(t Type, data []byte) (Spec, error) {
	var (
		spec Spec
		err  error
	)
	switch t {
	case TypeCoRun:
		var v CoRun
		err = json.Unmarshal(data, &v)
		spec = v
	case TypeSlotRestriction:
		var v SlotRestriction
		err = json.Unmarshal(data, &v)
		spec = v
	case TypeLoadLimit:
		var v LoadLimit
		err = json.Unmarshal(data, &v)
		spec = v
	case TypePhaseWindow:
		var v PhaseWindow
		err = json.Unmarshal(data, &v)
		spec = v
	case TypePatternMatch:
		var v PatternMatch
		err = json.Unmarshal(data, &v)
		spec = v
	case TypePrecedenceOverride:
		var v PrecedenceOverride
		err = json.Unmarshal(data, &v)
		spec = v
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownType, t)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s config: %w", t, err)
	}
	return spec, nil
}

// ParseType converts a string into a known Type.
func ParseType(s string) (Type, error) {
	t := Type(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w %q", ErrUnknownType, s)
	}
	return t, nil
}
