package partition

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Default excerpt bounds. A chapter excerpt must stay small enough that no
// single reviewer bears the whole change set.
const (
	DefaultMaxFileBytes  = 16 * 1024
	DefaultMaxTotalBytes = 128 * 1024
)

// fileHeader delimits per-file sections in a chapter excerpt. Backends that
// scan excerpts locally rely on this marker to attribute findings to files.
const fileHeader = "=== FILE: "

// BuildExcerpt assembles the bounded content excerpt for a chapter from its
// matched files under root. Unreadable files are listed by name only;
// oversized content is truncated, never skipped silently.
func BuildExcerpt(root string, files []string, maxFileBytes, maxTotalBytes int) string {
	if maxFileBytes <= 0 {
		maxFileBytes = DefaultMaxFileBytes
	}
	if maxTotalBytes <= 0 {
		maxTotalBytes = DefaultMaxTotalBytes
	}

	var b strings.Builder
	for _, f := range files {
		if b.Len() >= maxTotalBytes {
			fmt.Fprintf(&b, "%s%s ===\n[omitted: excerpt budget exhausted]\n", fileHeader, f)
			continue
		}

		fmt.Fprintf(&b, "%s%s ===\n", fileHeader, f)
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(f)))
		if err != nil {
			b.WriteString("[unreadable]\n")
			continue
		}

		content := data
		truncated := false
		if len(content) > maxFileBytes {
			content = content[:maxFileBytes]
			truncated = true
		}
		if remaining := maxTotalBytes - b.Len(); len(content) > remaining {
			content = content[:remaining]
			truncated = true
		}
		b.Write(content)
		if len(content) > 0 && content[len(content)-1] != '\n' {
			b.WriteByte('\n')
		}
		if truncated {
			b.WriteString("[truncated]\n")
		}
	}
	return b.String()
}

// SplitExcerpt walks an excerpt and calls fn for every content line with its
// file path and 1-based line number. Header and marker lines are skipped.
func SplitExcerpt(excerpt string, fn func(file string, line int, text string)) {
	var current string
	lineNo := 0
	for _, line := range strings.Split(excerpt, "\n") {
		if strings.HasPrefix(line, fileHeader) {
			current = strings.TrimSuffix(strings.TrimPrefix(line, fileHeader), " ===")
			lineNo = 0
			continue
		}
		if current == "" {
			continue
		}
		if line == "[unreadable]" || line == "[truncated]" || strings.HasPrefix(line, "[omitted:") {
			continue
		}
		lineNo++
		fn(current, lineNo, line)
	}
}
