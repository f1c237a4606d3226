package models

// UnclassifiedDomain is the implicit chapter that collects changed files no
// manifest entry claims. It carries no reviewers and is surfaced as a warning,
// never an error.
const UnclassifiedDomain = "unclassified"

// ChapterDefinition is one entry of the review manifest: a domain, the path
// patterns that route files into it, and the reviewers assigned to it.
// Definitions are loaded once at startup and read-only afterwards.
type ChapterDefinition struct {
	Domain       string   `yaml:"domain"`
	PathPatterns []string `yaml:"path_patterns"`
	Reviewers    []string `yaml:"reviewers"`
	Critical     bool     `yaml:"critical"`
}

// Chapter is a bounded slice of the change set derived for a single run: one
// domain plus the files that matched its patterns. Chapters are discarded
// after the run.
type Chapter struct {
	ID        string   `json:"chapter_id"`
	Domain    string   `json:"domain"`
	Files     []string `json:"files"`
	Reviewers []string `json:"reviewers"`
	Critical  bool     `json:"critical"`

	// Excerpt is the bounded content slice handed to reviewers. It is
	// attached after partitioning so the partition itself stays a pure
	// function of (manifest, file list).
	Excerpt string `json:"-"`
}

// HasFile reports whether path is part of this chapter's matched file set.
func (c *Chapter) HasFile(path string) bool {
	for _, f := range c.Files {
		if f == path {
			return true
		}
	}
	return false
}
