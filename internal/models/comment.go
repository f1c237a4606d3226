package models

// Severity classifies how serious a review comment is.
type Severity string

const (
	SeverityCritical   Severity = "critical"
	SeverityWarning    Severity = "warning"
	SeveritySuggestion Severity = "suggestion"
)

// SeverityRank returns a numeric rank for sorting (higher = more severe).
func SeverityRank(s Severity) int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityWarning:
		return 2
	case SeveritySuggestion:
		return 1
	default:
		return 0
	}
}

// ValidSeverity reports whether s is a recognized severity value.
func ValidSeverity(s Severity) bool {
	return SeverityRank(s) > 0
}

// Category is the review dimension a comment belongs to.
type Category string

const (
	CategorySecurity      Category = "security"
	CategoryPerformance   Category = "performance"
	CategoryArchitecture  Category = "architecture"
	CategoryTesting       Category = "testing"
	CategoryDocumentation Category = "documentation"
	CategoryOther         Category = "other"
)

// NormalizeCategory maps an arbitrary category string onto the known set,
// falling back to CategoryOther for anything unrecognized.
func NormalizeCategory(raw string) Category {
	switch Category(raw) {
	case CategorySecurity, CategoryPerformance, CategoryArchitecture,
		CategoryTesting, CategoryDocumentation, CategoryOther:
		return Category(raw)
	default:
		return CategoryOther
	}
}

// ReviewComment is one structured finding produced by a reviewer for a file
// in its chapter.
type ReviewComment struct {
	FilePath string   `json:"file_path"`
	Line     int      `json:"line,omitempty"`
	Category Category `json:"category"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Reviewer string   `json:"reviewer_id"`
}
