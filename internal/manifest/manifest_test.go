package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allRegistered(string) bool { return true }

const validManifest = `
chapters:
  - domain: security
    path_patterns: ["/auth/**", "**/*.key"]
    reviewers: [sec-reviewer]
    critical: true
  - domain: docs
    path_patterns: ["**/*.md"]
    reviewers: [doc-reviewer, style-reviewer]
`

func TestParseValid(t *testing.T) {
	defs, err := Parse([]byte(validManifest), allRegistered)
	require.NoError(t, err)
	require.Len(t, defs, 2)

	assert.Equal(t, "security", defs[0].Domain)
	assert.True(t, defs[0].Critical)
	assert.Equal(t, []string{"sec-reviewer"}, defs[0].Reviewers)
	assert.Equal(t, "docs", defs[1].Domain)
	assert.False(t, defs[1].Critical)
	assert.Len(t, defs[1].Reviewers, 2)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validManifest), 0644))

	defs, err := Load(path, allRegistered)
	require.NoError(t, err)
	assert.Len(t, defs, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"), allRegistered)
	assert.Error(t, err)
}

func TestParseRejectsEmptyPatterns(t *testing.T) {
	doc := `
chapters:
  - domain: security
    path_patterns: []
    reviewers: [sec-reviewer]
`
	_, err := Parse([]byte(doc), allRegistered)
	require.Error(t, err)
	assert.True(t, IsManifestError(err))
	assert.Contains(t, err.Error(), "no path patterns")
}

func TestParseRejectsDuplicateDomain(t *testing.T) {
	doc := `
chapters:
  - domain: security
    path_patterns: ["auth/**"]
    reviewers: [sec-reviewer]
  - domain: security
    path_patterns: ["crypto/**"]
    reviewers: [sec-reviewer]
`
	_, err := Parse([]byte(doc), allRegistered)
	require.Error(t, err)
	assert.True(t, IsManifestError(err))
	assert.Contains(t, err.Error(), "duplicate domain")
}

func TestParseRejectsUnregisteredReviewer(t *testing.T) {
	registered := func(id string) bool { return id == "known" }
	doc := `
chapters:
  - domain: security
    path_patterns: ["auth/**"]
    reviewers: [known, mystery]
`
	_, err := Parse([]byte(doc), registered)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unregistered reviewer "mystery"`)
}

func TestParseRejectsEmptyReviewers(t *testing.T) {
	doc := `
chapters:
  - domain: security
    path_patterns: ["auth/**"]
    reviewers: []
`
	_, err := Parse([]byte(doc), allRegistered)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no reviewers")
}

func TestParseRejectsReservedDomain(t *testing.T) {
	doc := `
chapters:
  - domain: unclassified
    path_patterns: ["**"]
    reviewers: [sec-reviewer]
`
	_, err := Parse([]byte(doc), allRegistered)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reserved")
}

func TestParseRejectsInvalidPattern(t *testing.T) {
	doc := `
chapters:
  - domain: security
    path_patterns: ["auth/[**"]
    reviewers: [sec-reviewer]
`
	_, err := Parse([]byte(doc), allRegistered)
	require.Error(t, err)
	assert.True(t, IsManifestError(err))
	assert.Contains(t, err.Error(), "invalid pattern")
}

func TestParseRejectsUnknownFields(t *testing.T) {
	doc := `
chapters:
  - domain: security
    path_patterns: ["auth/**"]
    reviewers: [sec-reviewer]
    retries: 3
`
	_, err := Parse([]byte(doc), allRegistered)
	require.Error(t, err)
	assert.True(t, IsManifestError(err))
}

func TestParseRejectsEmptyDocument(t *testing.T) {
	_, err := Parse([]byte("chapters: []"), allRegistered)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no chapters")
}
