package adapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/joescharf/chorus/internal/models"
	"github.com/joescharf/chorus/internal/partition"
)

// ruleCheck is one built-in pattern the local backend scans for.
type ruleCheck struct {
	substr   string
	category models.Category
	severity models.Severity
	message  string
}

var defaultChecks = []ruleCheck{
	{"BEGIN RSA PRIVATE KEY", models.CategorySecurity, models.SeverityCritical, "private key material committed to the repository"},
	{"BEGIN OPENSSH PRIVATE KEY", models.CategorySecurity, models.SeverityCritical, "private key material committed to the repository"},
	{"password =", models.CategorySecurity, models.SeverityWarning, "possible hardcoded credential"},
	{"api_key =", models.CategorySecurity, models.SeverityWarning, "possible hardcoded API key"},
	{"http://", models.CategorySecurity, models.SeveritySuggestion, "plaintext HTTP URL; prefer https"},
	{"SELECT *", models.CategoryPerformance, models.SeveritySuggestion, "unbounded SELECT *; fetch only needed columns"},
	{"TODO", models.CategoryDocumentation, models.SeveritySuggestion, "unresolved TODO marker"},
	{"FIXME", models.CategoryDocumentation, models.SeveritySuggestion, "unresolved FIXME marker"},
}

// Rules is a deterministic local reviewer backend. It scans the chapter
// excerpt against a fixed set of checks and needs no network or credentials,
// which makes it usable offline and as a reference implementation of the
// adapter contract.
type Rules struct {
	id     string
	checks []ruleCheck
}

// NewRules creates a rules-based reviewer for the given identity.
func NewRules(id string) *Rules {
	return &Rules{id: id, checks: defaultChecks}
}

// Name returns the reviewer identity this backend serves.
func (r *Rules) Name() string { return r.id }

// Review scans the excerpt line by line and returns a structured response.
func (r *Rules) Review(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}

	var comments []StructuredComment
	partition.SplitExcerpt(req.Excerpt, func(file string, line int, text string) {
		for _, c := range r.checks {
			if strings.Contains(text, c.substr) {
				comments = append(comments, StructuredComment{
					File:     file,
					Line:     line,
					Category: string(c.category),
					Severity: string(c.severity),
					Message:  c.message,
				})
			}
		}
	})

	summary := "no rule violations found"
	if len(comments) > 0 {
		summary = fmt.Sprintf("%d rule violation(s) found", len(comments))
	}

	return Response{
		Structured: &StructuredReview{
			Comments: comments,
			Summary:  summary,
		},
	}, nil
}
