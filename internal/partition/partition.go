// Package partition maps a set of changed files onto review chapters using
// the manifest's path patterns.
package partition

import (
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/joescharf/chorus/internal/models"
)

// Partition derives the chapter set for one run. It is a pure function:
// identical (definitions, files) input always yields an identical chapter
// set, regardless of input ordering.
//
// A file may match zero, one, or multiple chapters; overlap is intentional,
// since different domains may both claim the same file. Files matching no
// chapter are collected into the implicit unclassified chapter with no
// reviewers.
func Partition(defs []models.ChapterDefinition, files []string) []models.Chapter {
	normalized := make([]string, 0, len(files))
	seen := make(map[string]bool, len(files))
	for _, f := range files {
		n := normalizePath(f)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		normalized = append(normalized, n)
	}
	sort.Strings(normalized)

	claimed := make(map[string]bool, len(normalized))
	chapters := make([]models.Chapter, 0, len(defs))
	for _, def := range defs {
		var matched []string
		for _, f := range normalized {
			if matchesAny(def.PathPatterns, f) {
				matched = append(matched, f)
				claimed[f] = true
			}
		}
		if len(matched) == 0 {
			continue
		}
		chapters = append(chapters, models.Chapter{
			ID:        def.Domain,
			Domain:    def.Domain,
			Files:     matched,
			Reviewers: append([]string(nil), def.Reviewers...),
			Critical:  def.Critical,
		})
	}

	var unclassified []string
	for _, f := range normalized {
		if !claimed[f] {
			unclassified = append(unclassified, f)
		}
	}
	if len(unclassified) > 0 {
		chapters = append(chapters, models.Chapter{
			ID:     models.UnclassifiedDomain,
			Domain: models.UnclassifiedDomain,
			Files:  unclassified,
		})
	}

	return chapters
}

func matchesAny(patterns []string, file string) bool {
	for _, pat := range patterns {
		ok, err := doublestar.Match(normalizePath(pat), file)
		if err == nil && ok {
			return true
		}
	}
	return false
}

// normalizePath cleans a path to slash-separated, repo-relative form.
func normalizePath(p string) string {
	p = strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return ""
	}
	cleaned := path.Clean(p)
	if cleaned == "." {
		return ""
	}
	return cleaned
}
