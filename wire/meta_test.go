package wire_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quellehq/quelle/wire"
)

func TestReadingDirectionAndAttribute_WireValuesArePascalCase(t *testing.T) {
	data, err := json.Marshal(wire.ReadingDirectionLTR)
	require.NoError(t, err)
	assert.JSONEq(t, `"Ltr"`, string(data))

	data, err = json.Marshal(wire.ReadingDirectionRTL)
	require.NoError(t, err)
	assert.JSONEq(t, `"Rtl"`, string(data))

	data, err = json.Marshal(wire.AttributeFanfiction)
	require.NoError(t, err)
	assert.JSONEq(t, `"Fanfiction"`, string(data))
}

func testMeta() *wire.Meta {
	return &wire.Meta{BaseURLs: []string{"https://base.example.com"}}
}

func TestMeta_AbsoluteURL_WithScheme(t *testing.T) {
	m := testMeta()

	got, err := m.AbsoluteURL("https://example.com", "")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", got)

	got, err = m.AbsoluteURL("http://example.com", "")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com", got)
}

func TestMeta_AbsoluteURL_SchemeRelative(t *testing.T) {
	m := testMeta()

	got, err := m.ResolveURL("//example.com")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", got)

	got, err = m.AbsoluteURL("//example.com", "http://current.example.com")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com", got)
}

func TestMeta_AbsoluteURL_RootRelative(t *testing.T) {
	m := testMeta()

	got, err := m.ResolveURL("/page/1")
	require.NoError(t, err)
	assert.Equal(t, "https://base.example.com/page/1", got)

	got, err = m.AbsoluteURL("/page/1", "http://current.example.com")
	require.NoError(t, err)
	assert.Equal(t, "http://current.example.com/page/1", got)
}

func TestMeta_AbsoluteURL_Relative(t *testing.T) {
	m := testMeta()

	got, err := m.ResolveURL("page/1")
	require.NoError(t, err)
	assert.Equal(t, "page/1", got)

	got, err = m.AbsoluteURL("page/1", "http://current.example.com/extend")
	require.NoError(t, err)
	assert.Equal(t, "http://current.example.com/extend/page/1", got)

	got, err = m.AbsoluteURL("page/1", "http://current.example.com/extend/")
	require.NoError(t, err)
	assert.Equal(t, "http://current.example.com/extend/page/1", got)
}

func TestMeta_HomeURL_NoBaseURLs(t *testing.T) {
	m := &wire.Meta{}
	_, err := m.HomeURL()
	require.Error(t, err)
}

func TestMeta_Validate(t *testing.T) {
	valid := &wire.Meta{
		ID:       "example.novel",
		Name:     "Example",
		Langs:    []string{"en"},
		Version:  "1.2.3",
		BaseURLs: []string{"https://example.com"},
	}
	assert.NoError(t, valid.Validate())

	missingFields := &wire.Meta{Version: "1.0.0"}
	require.Error(t, missingFields.Validate())

	badVersion := &wire.Meta{
		ID:       "example.novel",
		Name:     "Example",
		Langs:    []string{"en"},
		Version:  "not-semver",
		BaseURLs: []string{"https://example.com"},
	}
	err := badVersion.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "version")
}
