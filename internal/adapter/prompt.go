package adapter

import (
	"fmt"
	"strings"
)

// buildPrompt constructs the system and user prompts for a chapter review.
// The system prompt pins the exact block format the response parser accepts.
func buildPrompt(req Request) (system string, user string) {
	system = fmt.Sprintf(`You are the %s reviewer for one chapter of a larger change set. Other specialized reviewers cover the other chapters; review ONLY the files shown to you and only from the %s perspective.

Report each finding as a block in exactly this format:

FILE: <path as shown in the excerpt>
LINE: <line number>
CATEGORY: security|performance|architecture|testing|documentation|other
SEVERITY: critical|warning|suggestion
<one or more lines describing the finding>
END

Rules:
- FILE and SEVERITY are required in every block; LINE is optional.
- Use severity "critical" only for findings that must block approval.
- Reference only files present in the excerpt.
- After the last block, write a single line: SUMMARY: <one-sentence overall assessment>.
- If you have no findings, respond with only the SUMMARY line.
- Do not use markdown fencing or any other formatting.`, req.Domain, req.Domain)

	var sb strings.Builder
	if req.PriorContext != "" {
		sb.WriteString("Context from earlier review rounds:\n")
		sb.WriteString(req.PriorContext)
		sb.WriteString("\n\n")
	}
	fmt.Fprintf(&sb, "Review chapter %q:\n\n", req.ChapterID)
	sb.WriteString(req.Excerpt)
	user = sb.String()
	return
}
