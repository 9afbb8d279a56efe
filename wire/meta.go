package wire

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/go-playground/validator/v10"
)

var metaValidator = validator.New()

// ReadingDirection describes how a novel's chapters are conventionally
// read. Values are the guest's Rust enum variant names verbatim.
type ReadingDirection string

const (
	ReadingDirectionLTR ReadingDirection = "Ltr"
	ReadingDirectionRTL ReadingDirection = "Rtl"
)

// Attribute flags extra characteristics of an extension's source material.
// Values are the guest's Rust enum variant names verbatim.
type Attribute string

const (
	AttributeFanfiction Attribute = "Fanfiction"
)

// Meta describes an extension: its identity, supported languages and base
// URLs, and the reading conventions of the site it scrapes.
type Meta struct {
	ID       string             `json:"id" validate:"required"`
	Name     string             `json:"name" validate:"required"`
	Langs    []string           `json:"langs" validate:"required,min=1"`
	Version  string             `json:"version" validate:"required"`
	BaseURLs []string           `json:"base_urls" validate:"required,min=1,dive,url"`
	RDS      []ReadingDirection `json:"rds"`
	Attrs    []Attribute        `json:"attrs"`
}

// Validate checks Meta's required fields and, separately, that Version
// parses as semver — a guest reporting a malformed id, empty base_urls, or
// a non-semver version is an ABI contract violation the host should catch
// at load time rather than let surface as a confusing failure later.
func (m *Meta) Validate() error {
	if err := metaValidator.Struct(m); err != nil {
		return fmt.Errorf("wire: invalid meta: %w", err)
	}
	if _, err := semver.NewVersion(m.Version); err != nil {
		return fmt.Errorf("wire: meta %q has invalid version %q: %w", m.ID, m.Version, err)
	}
	return nil
}

// HomeURL returns the extension's primary base URL.
func (m *Meta) HomeURL() (string, error) {
	if len(m.BaseURLs) == 0 {
		return "", fmt.Errorf("wire: meta %q has no base_urls", m.ID)
	}
	return m.BaseURLs[0], nil
}

// AbsoluteURL resolves raw against the given current page URL, falling back
// to the extension's first base URL when current is empty. It mirrors the
// resolution rules novels/chapters rely on when a scraper only has a
// relative href to work with: absolute URLs pass through untouched,
// scheme-relative URLs inherit current's scheme, root-relative URLs inherit
// current's scheme+host, and plain relative URLs are appended to current
// after a single "/" (current's trailing slash, if any, is dropped first).
// With current empty, a plain relative URL is returned unchanged.
func (m *Meta) AbsoluteURL(raw string, current string) (string, error) {
	return m.resolve(raw, current, current != "")
}

// ResolveURL resolves raw using only the extension's home base URL, with no
// current-page context. Only scheme-relative and root-relative URLs are
// resolved against it; a plain relative URL is returned unchanged.
func (m *Meta) ResolveURL(raw string) (string, error) {
	return m.resolve(raw, "", false)
}

func (m *Meta) resolve(raw, current string, haveCurrent bool) (string, error) {
	if strings.HasPrefix(raw, "https://") || strings.HasPrefix(raw, "http://") {
		return raw, nil
	}

	base := current
	if !haveCurrent {
		home, err := m.HomeURL()
		if err != nil {
			return "", err
		}
		base = home
	}

	resolved, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("wire: failed to parse base url %q: %w", base, err)
	}

	switch {
	case strings.HasPrefix(raw, "//"):
		return resolved.Scheme + ":" + raw, nil
	case strings.HasPrefix(raw, "/"):
		return fmt.Sprintf("%s://%s%s", resolved.Scheme, resolved.Host, raw), nil
	case haveCurrent:
		trimmed := strings.TrimSuffix(current, "/")
		return trimmed + "/" + raw, nil
	default:
		return raw, nil
	}
}
