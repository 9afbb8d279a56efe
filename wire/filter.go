package wire

import (
	"encoding/json"
	"fmt"
	"math"
)

// Field is a single entry in a filter schema. It is a closed tagged union
// over TextField, SelectField, RangeField, ChoiceField and FieldGroup,
// discriminated on the wire by a "type" key.
type Field interface {
	// Verify checks a guest-supplied value against the field's own
	// constraints, returning a diagnostic string on failure.
	Verify(value json.RawMessage) error
	fieldType() string
}

// FieldMap is a filter schema: an ordered-by-key set of named fields a
// client can populate before calling filter_search.
type FieldMap map[string]Field

// MarshalJSON renders a FieldMap as a plain JSON object, each field already
// carrying its own discriminant.
func (m FieldMap) MarshalJSON() ([]byte, error) {
	raw := make(map[string]json.RawMessage, len(m))
	for name, f := range m {
		data, err := marshalField(f)
		if err != nil {
			return nil, fmt.Errorf("wire: marshal field %q: %w", name, err)
		}
		raw[name] = data
	}
	return json.Marshal(raw)
}

// UnmarshalJSON decodes a FieldMap, dispatching each entry to the concrete
// Field type its "type" discriminant names.
func (m *FieldMap) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make(FieldMap, len(raw))
	for name, entry := range raw {
		field, err := unmarshalField(entry)
		if err != nil {
			return fmt.Errorf("wire: unmarshal field %q: %w", name, err)
		}
		out[name] = field
	}
	*m = out
	return nil
}

func marshalField(f Field) ([]byte, error) {
	type envelope struct {
		Type string `json:"type"`
	}
	body, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(body, &merged); err != nil {
		return nil, err
	}
	tag, err := json.Marshal(f.fieldType())
	if err != nil {
		return nil, err
	}
	merged["type"] = tag
	return json.Marshal(merged)
}

func unmarshalField(data []byte) (Field, error) {
	var tagged struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &tagged); err != nil {
		return nil, err
	}

	switch tagged.Type {
	case "text":
		var f TextField
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, err
		}
		return &f, nil
	case "select":
		var f SelectField
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, err
		}
		return &f, nil
	case "range":
		var f RangeField
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, err
		}
		return &f, nil
	case "choice":
		var f ChoiceField
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, err
		}
		return &f, nil
	case "group":
		var f FieldGroup
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, err
		}
		return &f, nil
	default:
		return nil, fmt.Errorf("wire: unknown filter field type %q", tagged.Type)
	}
}

// TextField is a free-form single-line text input. It imposes no
// constraint of its own beyond being present.
type TextField struct {
	Title string `json:"title"`
}

func (f *TextField) fieldType() string { return "text" }

// Verify accepts any JSON string value.
func (f *TextField) Verify(value json.RawMessage) error {
	var s string
	if err := json.Unmarshal(value, &s); err != nil {
		return fmt.Errorf("expected a string value: %w", err)
	}
	return nil
}

// Check is one selectable item in a SelectField, optionally tri-state
// (include / exclude / unset) rather than a plain boolean toggle.
type Check struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Tri   bool   `json:"tri"`
}

// SelectResult is a guest's chosen state for one Check in a SelectField.
type SelectResult struct {
	Value  string `json:"value"`
	Remove bool   `json:"remove,omitempty"`
}

// SelectField offers a set of checkable items, each of which the caller
// may include or (if Tri) explicitly exclude.
type SelectField struct {
	Title string  `json:"title"`
	Items []Check `json:"items"`
}

func (f *SelectField) fieldType() string { return "select" }

// Verify confirms every selected value names one of the field's items.
func (f *SelectField) Verify(value json.RawMessage) error {
	var results []SelectResult
	if err := json.Unmarshal(value, &results); err != nil {
		return fmt.Errorf("expected a list of select results: %w", err)
	}

	for _, result := range results {
		found := false
		for _, item := range f.Items {
			if item.Value == result.Value {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("option not found %s", result.Value)
		}
	}
	return nil
}

// RangeResult is a guest-supplied [Min, Max] bound for a RangeField.
type RangeResult struct {
	Min float32 `json:"min"`
	Max float32 `json:"max"`
}

// RangeField restricts input to a numeric [Min, Max] interval, with values
// required to land on a Div-aligned step.
type RangeField struct {
	Title string  `json:"title"`
	Min   float32 `json:"min"`
	Max   float32 `json:"max"`
	Div   float32 `json:"div"`
}

func (f *RangeField) fieldType() string { return "range" }

// Verify checks bounds, ordering, and step alignment of a RangeResult.
func (f *RangeField) Verify(value json.RawMessage) error {
	var result RangeResult
	if err := json.Unmarshal(value, &result); err != nil {
		return fmt.Errorf("expected a range result: %w", err)
	}

	switch {
	case result.Min < f.Min:
		return fmt.Errorf("min value must not be less than %v", f.Min)
	case result.Max > f.Max:
		return fmt.Errorf("max value must not be greater than %v", f.Max)
	case result.Min > result.Max:
		return fmt.Errorf("min value must not be greater than max")
	case f.Div != 0 && math.Mod(float64(result.Min), float64(f.Div)) != 0:
		return fmt.Errorf("min value must be divisible with %v", f.Div)
	case f.Div != 0 && math.Mod(float64(result.Max), float64(f.Div)) != 0:
		return fmt.Errorf("max value must be divisible with %v", f.Div)
	default:
		return nil
	}
}

// Choice is one option in a ChoiceField's closed set.
type Choice struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// ChoiceField restricts input to exactly one of a closed set of Choice
// values, unlike SelectField which allows multiple.
type ChoiceField struct {
	Title string   `json:"title"`
	Items []Choice `json:"items"`
}

func (f *ChoiceField) fieldType() string { return "choice" }

// Verify confirms the chosen value names one of the field's items.
func (f *ChoiceField) Verify(value json.RawMessage) error {
	var chosen string
	if err := json.Unmarshal(value, &chosen); err != nil {
		return fmt.Errorf("expected a string value: %w", err)
	}

	for _, item := range f.Items {
		if item.Value == chosen {
			return nil
		}
	}
	return fmt.Errorf("option not found %s", chosen)
}

// FieldGroup nests a named sub-schema under a single title, letting related
// fields (e.g. a min/max pair) render as one logical unit.
type FieldGroup struct {
	Title  string   `json:"title"`
	Fields FieldMap `json:"fields"`
}

func (f *FieldGroup) fieldType() string { return "group" }

// Verify delegates to each nested field, keyed the same way Fields is.
func (f *FieldGroup) Verify(value json.RawMessage) error {
	var values map[string]json.RawMessage
	if err := json.Unmarshal(value, &values); err != nil {
		return fmt.Errorf("expected a field group result: %w", err)
	}

	for name, field := range f.Fields {
		v, ok := values[name]
		if !ok {
			continue
		}
		if err := field.Verify(v); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}
