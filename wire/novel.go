package wire

import (
	"encoding/json"
	"fmt"
	"time"
)

// Novel is the full scraped representation of a serialized work, including
// every volume and chapter an extension discovered.
type Novel struct {
	Title       string      `json:"title"`
	Authors     []string    `json:"authors"`
	URL         string      `json:"url"`
	Cover       *string     `json:"cover,omitempty"`
	Description []string    `json:"description"`
	Volumes     []Volume    `json:"volumes"`
	Metadata    []Metadata  `json:"metadata"`
	Status      NovelStatus `json:"status"`
	Langs       []string    `json:"langs"`
}

// BasicNovel is the condensed novel shape returned by listing operations
// such as popular() and text_search(), which don't walk a novel's full
// chapter tree.
type BasicNovel struct {
	Title string  `json:"title"`
	Cover *string `json:"cover,omitempty"`
	URL   string  `json:"url"`
}

// NovelStatus is the publication state of a serialized work. Values are
// the guest's Rust enum variant names verbatim (PascalCase), since serde's
// default unit-variant representation is the bare variant name.
type NovelStatus string

const (
	NovelStatusOngoing   NovelStatus = "Ongoing"
	NovelStatusHiatus    NovelStatus = "Hiatus"
	NovelStatusCompleted NovelStatus = "Completed"
	NovelStatusStub      NovelStatus = "Stub"
	NovelStatusDropped   NovelStatus = "Dropped"
	NovelStatusUnknown   NovelStatus = "Unknown"
)

// ParseNovelStatus maps a case-insensitive site-provided status string onto
// the closed NovelStatus set, defaulting to Unknown for anything unrecognized.
func ParseNovelStatus(s string) NovelStatus {
	switch lower(s) {
	case "ongoing":
		return NovelStatusOngoing
	case "hiatus":
		return NovelStatusHiatus
	case "completed":
		return NovelStatusCompleted
	case "stub":
		return NovelStatusStub
	case "dropped":
		return NovelStatusDropped
	default:
		return NovelStatusUnknown
	}
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// Volume groups a run of chapters. Extensions that scrape sites with no
// volume concept of their own should use DefaultVolume to report a single
// implicit volume containing every chapter.
type Volume struct {
	Index    int32     `json:"index"`
	Name     string    `json:"name"`
	Chapters []Chapter `json:"chapters"`
}

// DefaultVolume is the sentinel volume extensions emit for chapters that
// don't belong to any named volume on the source site.
func DefaultVolume() Volume {
	return Volume{Index: -1, Name: "_default"}
}

// Chapter is one entry in a volume's table of contents.
type Chapter struct {
	Index     int32           `json:"index"`
	Title     string          `json:"title"`
	URL       string          `json:"url"`
	UpdatedAt *TaggedDateTime `json:"updated_at,omitempty"`
}

// Content is the rendered body of a single chapter, fetched on demand.
type Content struct {
	Data string `json:"data"`
}

// TaggedDateTimeKind discriminates whether a TaggedDateTime's instant was
// recorded in UTC or the source site's local time, since many scraped sites
// only ever publish a local, timezone-less timestamp. Values are the
// guest's Rust enum variant names verbatim.
type TaggedDateTimeKind string

const (
	TaggedDateTimeUTC   TaggedDateTimeKind = "Utc"
	TaggedDateTimeLocal TaggedDateTimeKind = "Local"
)

// TaggedDateTime pairs a naive (timezone-less) timestamp with a tag saying
// whether it should be interpreted as UTC or local time. On the wire it is
// an externally tagged union, {"Utc": <datetime>} or {"Local": <datetime>},
// matching serde's default representation for the guest's single-field
// enum variants. The datetime itself is written without a zone offset
// (naiveDateTimeLayout, e.g. "2024-03-01T12:30:00").
type TaggedDateTime struct {
	Kind  TaggedDateTimeKind
	Value time.Time
}

const naiveDateTimeLayout = "2006-01-02T15:04:05.999999999"

// MarshalJSON renders the {"Utc": ...} / {"Local": ...} shape.
func (t TaggedDateTime) MarshalJSON() ([]byte, error) {
	switch t.Kind {
	case TaggedDateTimeUTC, TaggedDateTimeLocal:
		return json.Marshal(map[string]string{string(t.Kind): t.Value.Format(naiveDateTimeLayout)})
	default:
		return nil, fmt.Errorf("wire: unknown TaggedDateTime kind %q", t.Kind)
	}
}

// UnmarshalJSON decodes the {"Utc": ...} / {"Local": ...} shape.
func (t *TaggedDateTime) UnmarshalJSON(data []byte) error {
	var tagged map[string]string
	if err := json.Unmarshal(data, &tagged); err != nil {
		return fmt.Errorf("wire: decoding TaggedDateTime: %w", err)
	}
	if len(tagged) != 1 {
		return fmt.Errorf("wire: TaggedDateTime must have exactly one variant tag, got %d", len(tagged))
	}
	for tag, raw := range tagged {
		switch TaggedDateTimeKind(tag) {
		case TaggedDateTimeUTC, TaggedDateTimeLocal:
			value, err := time.Parse(naiveDateTimeLayout, raw)
			if err != nil {
				return fmt.Errorf("wire: decoding TaggedDateTime %s value: %w", tag, err)
			}
			t.Kind, t.Value = TaggedDateTimeKind(tag), value
		default:
			return fmt.Errorf("wire: unknown TaggedDateTime variant %q", tag)
		}
	}
	return nil
}

// Namespace distinguishes Dublin Core metadata terms from OPF extension
// terms within a Novel's Metadata list. Values are the guest's Rust enum
// variant names verbatim.
type Namespace string

const (
	NamespaceDC  Namespace = "DC"
	NamespaceOPF Namespace = "OPF"
)

// dublinCore lists the fifteen unique Dublin Core Metadata Element Set terms
// (see https://www.dublincore.org/specifications/dublin-core/dces/). A
// Metadata entry whose name matches one of these is tagged NamespaceDC;
// anything else falls back to NamespaceOPF.
var dublinCore = map[string]bool{
	"contributor": true,
	"coverage":    true,
	"creator":     true,
	"date":        true,
	"description": true,
	"format":      true,
	"rights":      true,
	"subject":     true,
	"title":       true,
	"source":      true,
	"relation":    true,
	"publisher":   true,
	"language":    true,
	"identifier":  true,
	"type":        true,
}

// Metadata is a single namespaced key/value pair attached to a Novel,
// typically surfaced for e-book container metadata (title, author,
// identifier, and so on).
type Metadata struct {
	Name   string            `json:"name"`
	Value  string            `json:"value"`
	NS     Namespace         `json:"ns"`
	Others map[string]string `json:"others,omitempty"`
}

// NewMetadata builds a Metadata entry, auto-assigning its namespace based on
// whether name is one of the fifteen Dublin Core terms.
func NewMetadata(name, value string, others map[string]string) Metadata {
	ns := NamespaceOPF
	if dublinCore[name] {
		ns = NamespaceDC
	}
	return Metadata{Name: name, Value: value, NS: ns, Others: others}
}
