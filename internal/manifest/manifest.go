// Package manifest loads and validates the domain-partition configuration
// that maps path patterns to chapters and reviewer identities.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/joescharf/chorus/internal/models"
)

// Error is a fatal manifest validation failure. A malformed manifest aborts
// the run before any job is queued.
type Error struct {
	Reason string
}

func (e *Error) Error() string {
	return "invalid manifest: " + e.Reason
}

func errorf(format string, a ...any) error {
	return &Error{Reason: fmt.Sprintf(format, a...)}
}

// IsManifestError reports whether err is a manifest validation failure.
func IsManifestError(err error) bool {
	var e *Error
	return errors.As(err, &e)
}

// Manifest is the top-level document structure.
type Manifest struct {
	Chapters []models.ChapterDefinition `yaml:"chapters"`
}

// Load reads and validates a manifest file. The registered func reports
// whether a reviewer id has a configured adapter; every referenced reviewer
// must be registered.
func Load(path string, registered func(string) bool) ([]models.ChapterDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return Parse(data, registered)
}

// Parse validates raw manifest YAML and returns the ordered chapter
// definitions.
func Parse(data []byte, registered func(string) bool) ([]models.ChapterDefinition, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		return nil, errorf("parse yaml: %v", err)
	}
	if len(m.Chapters) == 0 {
		return nil, errorf("no chapters defined")
	}

	seen := make(map[string]bool, len(m.Chapters))
	for i, ch := range m.Chapters {
		if ch.Domain == "" {
			return nil, errorf("chapter %d has no domain", i)
		}
		if ch.Domain == models.UnclassifiedDomain {
			return nil, errorf("domain %q is reserved", models.UnclassifiedDomain)
		}
		if seen[ch.Domain] {
			return nil, errorf("duplicate domain %q", ch.Domain)
		}
		seen[ch.Domain] = true

		if len(ch.PathPatterns) == 0 {
			return nil, errorf("chapter %q has no path patterns", ch.Domain)
		}
		for _, pat := range ch.PathPatterns {
			if !doublestar.ValidatePattern(normalizePattern(pat)) {
				return nil, errorf("chapter %q has invalid pattern %q", ch.Domain, pat)
			}
		}

		if len(ch.Reviewers) == 0 {
			return nil, errorf("chapter %q has no reviewers", ch.Domain)
		}
		for _, id := range ch.Reviewers {
			if id == "" {
				return nil, errorf("chapter %q has an empty reviewer id", ch.Domain)
			}
			if registered != nil && !registered(id) {
				return nil, errorf("chapter %q references unregistered reviewer %q", ch.Domain, id)
			}
		}
	}

	return m.Chapters, nil
}

// normalizePattern strips a leading slash so manifest patterns match
// repository-relative paths regardless of how they were written.
func normalizePattern(pat string) string {
	if len(pat) > 0 && pat[0] == '/' {
		return pat[1:]
	}
	return pat
}
