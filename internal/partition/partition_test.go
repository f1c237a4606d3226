package partition

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/chorus/internal/models"
)

func testDefs() []models.ChapterDefinition {
	return []models.ChapterDefinition{
		{
			Domain:       "security",
			PathPatterns: []string{"/auth/**"},
			Reviewers:    []string{"sec-reviewer"},
			Critical:     true,
		},
		{
			Domain:       "docs",
			PathPatterns: []string{"**/*.md"},
			Reviewers:    []string{"doc-reviewer"},
		},
	}
}

func TestPartitionRoutesFilesToChapters(t *testing.T) {
	files := []string{"auth/login.go", "README.md"}
	chapters := Partition(testDefs(), files)

	require.Len(t, chapters, 2)
	assert.Equal(t, "security", chapters[0].Domain)
	assert.Equal(t, []string{"auth/login.go"}, chapters[0].Files)
	assert.True(t, chapters[0].Critical)
	assert.Equal(t, "docs", chapters[1].Domain)
	assert.Equal(t, []string{"README.md"}, chapters[1].Files)
}

func TestPartitionOverlapIsIndependent(t *testing.T) {
	defs := []models.ChapterDefinition{
		{Domain: "security", PathPatterns: []string{"auth/**"}, Reviewers: []string{"sec"}},
		{Domain: "testing", PathPatterns: []string{"**/*_test.go"}, Reviewers: []string{"qa"}},
	}
	chapters := Partition(defs, []string{"auth/login_test.go"})

	require.Len(t, chapters, 2)
	assert.Equal(t, []string{"auth/login_test.go"}, chapters[0].Files)
	assert.Equal(t, []string{"auth/login_test.go"}, chapters[1].Files)
}

func TestPartitionUnclassified(t *testing.T) {
	chapters := Partition(testDefs(), []string{"auth/login.go", "cmd/main.go"})

	require.Len(t, chapters, 2)
	last := chapters[len(chapters)-1]
	assert.Equal(t, models.UnclassifiedDomain, last.Domain)
	assert.Equal(t, []string{"cmd/main.go"}, last.Files)
	assert.Empty(t, last.Reviewers)
}

func TestPartitionSkipsEmptyChapters(t *testing.T) {
	chapters := Partition(testDefs(), []string{"README.md"})

	require.Len(t, chapters, 1)
	assert.Equal(t, "docs", chapters[0].Domain)
}

func TestPartitionIsPure(t *testing.T) {
	files := []string{"auth/b.go", "auth/a.go", "README.md", "misc/x.txt"}
	shuffled := []string{"misc/x.txt", "README.md", "auth/a.go", "auth/b.go"}

	first := Partition(testDefs(), files)
	second := Partition(testDefs(), shuffled)
	third := Partition(testDefs(), files)

	assert.Equal(t, first, second)
	assert.Equal(t, first, third)
}

func TestPartitionNormalizesPaths(t *testing.T) {
	chapters := Partition(testDefs(), []string{"/auth/./login.go", "auth/login.go", "  "})

	require.Len(t, chapters, 1)
	assert.Equal(t, []string{"auth/login.go"}, chapters[0].Files)
}

func TestPartitionChapterIDsDeterministic(t *testing.T) {
	chapters := Partition(testDefs(), []string{"auth/login.go"})
	require.Len(t, chapters, 1)
	assert.Equal(t, "security", chapters[0].ID)
}

func TestBuildExcerptBounded(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "auth"), 0755))
	big := strings.Repeat("x", 4096)
	require.NoError(t, os.WriteFile(filepath.Join(root, "auth", "login.go"), []byte(big), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "auth", "token.go"), []byte("package auth\n"), 0644))

	excerpt := BuildExcerpt(root, []string{"auth/login.go", "auth/token.go", "auth/missing.go"}, 1024, 8192)

	assert.Contains(t, excerpt, "=== FILE: auth/login.go ===")
	assert.Contains(t, excerpt, "[truncated]")
	assert.Contains(t, excerpt, "package auth")
	assert.Contains(t, excerpt, "=== FILE: auth/missing.go ===")
	assert.Contains(t, excerpt, "[unreadable]")
	assert.Less(t, len(excerpt), 8192+1024)
}

func TestSplitExcerptAttributesLines(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.go"), []byte("one\ntwo\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.go"), []byte("three\n"), 0644))

	excerpt := BuildExcerpt(root, []string{"a.go", "b.go"}, 0, 0)

	type seen struct {
		file string
		line int
		text string
	}
	var got []seen
	SplitExcerpt(excerpt, func(file string, line int, text string) {
		if text != "" {
			got = append(got, seen{file, line, text})
		}
	})

	require.Len(t, got, 3)
	assert.Equal(t, seen{"a.go", 1, "one"}, got[0])
	assert.Equal(t, seen{"a.go", 2, "two"}, got[1])
	assert.Equal(t, seen{"b.go", 1, "three"}, got[2])
}
