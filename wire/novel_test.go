package wire_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quellehq/quelle/wire"
)

func TestNewMetadata_AssignsDublinCoreNamespace(t *testing.T) {
	title := wire.NewMetadata("title", "Example Novel", nil)
	assert.Equal(t, wire.NamespaceDC, title.NS)

	custom := wire.NewMetadata("series-index", "3", nil)
	assert.Equal(t, wire.NamespaceOPF, custom.NS)
}

func TestParseNovelStatus(t *testing.T) {
	assert.Equal(t, wire.NovelStatusOngoing, wire.ParseNovelStatus("Ongoing"))
	assert.Equal(t, wire.NovelStatusCompleted, wire.ParseNovelStatus("COMPLETED"))
	assert.Equal(t, wire.NovelStatusDropped, wire.ParseNovelStatus("dropped"))
	assert.Equal(t, wire.NovelStatusUnknown, wire.ParseNovelStatus("paused"))
}

func TestNovelStatus_WireValuesArePascalCase(t *testing.T) {
	data, err := json.Marshal(wire.NovelStatusDropped)
	require.NoError(t, err)
	assert.JSONEq(t, `"Dropped"`, string(data))
}

func TestTaggedDateTime_RoundTrip(t *testing.T) {
	when := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

	utc := wire.TaggedDateTime{Kind: wire.TaggedDateTimeUTC, Value: when}
	data, err := json.Marshal(utc)
	require.NoError(t, err)

	var generic map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &generic))
	assert.Contains(t, generic, "Utc")
	assert.NotContains(t, generic, "Local")

	var decoded wire.TaggedDateTime
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, wire.TaggedDateTimeUTC, decoded.Kind)
	assert.True(t, when.Equal(decoded.Value))

	local := wire.TaggedDateTime{Kind: wire.TaggedDateTimeLocal, Value: when}
	data, err = json.Marshal(local)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &generic))
	assert.Contains(t, generic, "Local")
}

func TestTaggedDateTime_RejectsUnknownVariant(t *testing.T) {
	var decoded wire.TaggedDateTime
	err := json.Unmarshal([]byte(`{"kind":"utc","value":"2024-03-01T12:30:00Z"}`), &decoded)
	assert.Error(t, err)
}

func TestNamespace_WireValuesAreUppercase(t *testing.T) {
	data, err := json.Marshal(wire.NamespaceDC)
	require.NoError(t, err)
	assert.JSONEq(t, `"DC"`, string(data))

	data, err = json.Marshal(wire.NamespaceOPF)
	require.NoError(t, err)
	assert.JSONEq(t, `"OPF"`, string(data))
}

func TestDefaultVolume(t *testing.T) {
	v := wire.DefaultVolume()
	assert.Equal(t, int32(-1), v.Index)
	assert.Equal(t, "_default", v.Name)
	assert.Empty(t, v.Chapters)
}
