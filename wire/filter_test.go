package wire_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quellehq/quelle/wire"
)

func TestFieldMap_RoundTrip(t *testing.T) {
	fields := wire.FieldMap{
		"query": &wire.TextField{Title: "Query"},
		"genres": &wire.SelectField{
			Title: "Genres",
			Items: []wire.Check{{Label: "Fantasy", Value: "fantasy", Tri: true}},
		},
		"chapters": &wire.RangeField{Title: "Chapters", Min: 0, Max: 1000, Div: 1},
		"status": &wire.ChoiceField{
			Title: "Status",
			Items: []wire.Choice{{Label: "Ongoing", Value: "ongoing"}},
		},
		"advanced": &wire.FieldGroup{
			Title: "Advanced",
			Fields: wire.FieldMap{
				"query": &wire.TextField{Title: "Nested"},
			},
		},
	}

	data, err := json.Marshal(fields)
	require.NoError(t, err)

	var decoded wire.FieldMap
	require.NoError(t, json.Unmarshal(data, &decoded))

	require.Len(t, decoded, len(fields))
	assert.IsType(t, &wire.TextField{}, decoded["query"])
	assert.IsType(t, &wire.SelectField{}, decoded["genres"])
	assert.IsType(t, &wire.RangeField{}, decoded["chapters"])
	assert.IsType(t, &wire.ChoiceField{}, decoded["status"])
	assert.IsType(t, &wire.FieldGroup{}, decoded["advanced"])
}

func TestRangeField_Verify(t *testing.T) {
	field := wire.RangeField{Min: 0, Max: 100, Div: 5}

	valid, _ := json.Marshal(wire.RangeResult{Min: 10, Max: 50})
	assert.NoError(t, field.Verify(valid))

	tooLow, _ := json.Marshal(wire.RangeResult{Min: -5, Max: 50})
	assert.Error(t, field.Verify(tooLow))

	tooHigh, _ := json.Marshal(wire.RangeResult{Min: 10, Max: 150})
	assert.Error(t, field.Verify(tooHigh))

	inverted, _ := json.Marshal(wire.RangeResult{Min: 60, Max: 10})
	assert.Error(t, field.Verify(inverted))

	unaligned, _ := json.Marshal(wire.RangeResult{Min: 3, Max: 50})
	assert.Error(t, field.Verify(unaligned))
}

func TestSelectField_Verify(t *testing.T) {
	field := wire.SelectField{Items: []wire.Check{{Value: "fantasy"}, {Value: "romance"}}}

	ok, _ := json.Marshal([]wire.SelectResult{{Value: "fantasy"}})
	assert.NoError(t, field.Verify(ok))

	bad, _ := json.Marshal([]wire.SelectResult{{Value: "horror"}})
	assert.Error(t, field.Verify(bad))
}

func TestChoiceField_Verify(t *testing.T) {
	field := wire.ChoiceField{Items: []wire.Choice{{Value: "ongoing"}, {Value: "completed"}}}

	ok, _ := json.Marshal("ongoing")
	assert.NoError(t, field.Verify(ok))

	bad, _ := json.Marshal("cancelled")
	assert.Error(t, field.Verify(bad))
}

func TestFieldGroup_Verify_DelegatesToNestedFields(t *testing.T) {
	group := wire.FieldGroup{
		Fields: wire.FieldMap{
			"chapters": &wire.RangeField{Min: 0, Max: 10, Div: 1},
		},
	}

	ok, _ := json.Marshal(map[string]json.RawMessage{
		"chapters": mustMarshal(t, wire.RangeResult{Min: 1, Max: 5}),
	})
	assert.NoError(t, group.Verify(ok))

	bad, _ := json.Marshal(map[string]json.RawMessage{
		"chapters": mustMarshal(t, wire.RangeResult{Min: -1, Max: 5}),
	})
	assert.Error(t, group.Verify(bad))
}

func mustMarshal(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}
