// Package adapter defines the pluggable reviewer backend contract and the
// registry that maps reviewer identities to configured backends.
package adapter

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Request carries everything a backend needs to review one chapter. Each
// invocation is self-contained; backends must not share mutable state with
// the orchestrator or with each other.
type Request struct {
	ChapterID    string
	Domain       string
	Excerpt      string
	PriorContext string
}

// StructuredComment is one pre-parsed finding in a structured response.
type StructuredComment struct {
	File     string `json:"file"`
	Line     int    `json:"line,omitempty"`
	Category string `json:"category"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// StructuredReview is a response the backend has already shaped; it skips
// text scanning but is validated with the same acceptance rules.
type StructuredReview struct {
	Comments []StructuredComment `json:"comments"`
	Summary  string              `json:"summary"`
}

// Response is the raw outcome of one review invocation: either free text to
// be parsed, or a structured object when Structured is non-nil.
type Response struct {
	Text       string
	Structured *StructuredReview
}

// Reviewer is the single-method backend contract.
type Reviewer interface {
	Review(ctx context.Context, req Request) (Response, error)
	Name() string
}

// Config is the typed configuration record for one reviewer identity,
// usually populated from the `reviewers:` section of the config file.
type Config struct {
	Backend     string        `mapstructure:"backend"`
	Model       string        `mapstructure:"model"`
	APIKey      string        `mapstructure:"api_key"`
	Endpoint    string        `mapstructure:"endpoint"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxAttempts int           `mapstructure:"max_attempts"`
}

// New constructs a backend for the given reviewer id from its config.
func New(id string, cfg Config) (Reviewer, error) {
	var rv Reviewer
	switch cfg.Backend {
	case "anthropic":
		rv = NewAnthropic(id, cfg)
	case "rules", "":
		rv = NewRules(id)
	case "static":
		rv = &Static{Reviewer: id}
	default:
		return nil, fmt.Errorf("unknown reviewer backend: %s", cfg.Backend)
	}
	if cfg.Timeout > 0 {
		rv = WithTimeout(rv, cfg.Timeout)
	}
	if cfg.MaxAttempts > 1 {
		rv = WithRetry(rv, cfg.MaxAttempts, time.Second)
	}
	return rv, nil
}

// Registry maps reviewer identities to constructed backends. It is safe for
// concurrent use; the MCP server registers and looks up reviewers from
// concurrent tool dispatches.
type Registry struct {
	mu        sync.RWMutex
	reviewers map[string]Reviewer
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{reviewers: make(map[string]Reviewer)}
}

// FromConfigs builds a registry from named reviewer configs.
func FromConfigs(cfgs map[string]Config) (*Registry, error) {
	reg := NewRegistry()
	for id, cfg := range cfgs {
		rv, err := New(id, cfg)
		if err != nil {
			return nil, fmt.Errorf("reviewer %s: %w", id, err)
		}
		reg.Register(id, rv)
	}
	return reg, nil
}

// Register adds or replaces the backend for a reviewer id.
func (r *Registry) Register(id string, rv Reviewer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reviewers[id] = rv
}

// Lookup returns the backend for a reviewer id.
func (r *Registry) Lookup(id string) (Reviewer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rv, ok := r.reviewers[id]
	return rv, ok
}

// Known reports whether a reviewer id has a registered backend.
func (r *Registry) Known(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.reviewers[id]
	return ok
}

// IDs returns all registered reviewer ids, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.reviewers))
	for id := range r.reviewers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
