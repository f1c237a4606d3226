// Package parser converts raw reviewer responses into structured review
// comments. Free-text responses are scanned as delimited comment blocks;
// structured responses skip the scan but share the same acceptance rules.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/joescharf/chorus/internal/adapter"
	"github.com/joescharf/chorus/internal/models"
)

// BlockError describes a single malformed comment block. One bad block never
// discards its well-formed siblings; the caller logs these and moves on.
type BlockError struct {
	Block  int
	Reason string
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("block %d: %s", e.Block, e.Reason)
}

// Result is the outcome of parsing one adapter response.
type Result struct {
	Comments []models.ReviewComment
	Summary  string
	Errors   []error
}

// Parse converts a raw response into review comments attributed to the given
// reviewer identity.
func Parse(resp adapter.Response, reviewer string) Result {
	if resp.Structured != nil {
		return parseStructured(resp.Structured, reviewer)
	}
	return parseText(resp.Text, reviewer)
}

// block accumulates fields while scanning one comment block.
type block struct {
	file     string
	line     int
	lineSet  bool
	lineBad  bool
	category string
	severity string
	message  []string
	started  bool
}

func (b *block) reset() { *b = block{} }

// parseText is a line-oriented state machine over the block format:
//
//	FILE: path
//	LINE: 42
//	CATEGORY: security
//	SEVERITY: critical
//	free-form message lines
//	END
//
// A new FILE: key or end of input also terminates an open block, so a
// reviewer that forgets END still gets its findings captured.
func parseText(text string, reviewer string) Result {
	var res Result
	var cur block
	blockNo := 0

	finish := func() {
		if !cur.started {
			return
		}
		blockNo++
		if c, err := cur.comment(reviewer, blockNo); err != nil {
			res.Errors = append(res.Errors, err)
		} else {
			res.Comments = append(res.Comments, c)
		}
		cur.reset()
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		key, val := splitKey(line)
		switch key {
		case "FILE":
			finish()
			cur.started = true
			cur.file = val
		case "END":
			finish()
		case "SUMMARY":
			finish()
			if res.Summary == "" {
				res.Summary = val
			}
		case "LINE":
			if !cur.started {
				continue
			}
			n, err := strconv.Atoi(val)
			if err != nil || n < 0 {
				cur.lineBad = true
			} else {
				cur.line = n
				cur.lineSet = true
			}
		case "CATEGORY":
			if cur.started {
				cur.category = val
			}
		case "SEVERITY":
			if cur.started {
				cur.severity = val
			}
		default:
			if cur.started && line != "" {
				cur.message = append(cur.message, line)
			}
		}
	}
	finish()

	return res
}

// comment validates the accumulated block and produces a ReviewComment.
// File and severity are required; category falls back to "other".
func (b *block) comment(reviewer string, blockNo int) (models.ReviewComment, error) {
	switch {
	case b.file == "":
		return models.ReviewComment{}, &BlockError{Block: blockNo, Reason: "missing file"}
	case b.severity == "":
		return models.ReviewComment{}, &BlockError{Block: blockNo, Reason: "missing severity"}
	case !models.ValidSeverity(models.Severity(b.severity)):
		return models.ReviewComment{}, &BlockError{Block: blockNo, Reason: fmt.Sprintf("unknown severity %q", b.severity)}
	case b.lineBad:
		return models.ReviewComment{}, &BlockError{Block: blockNo, Reason: "invalid line number"}
	case len(b.message) == 0:
		return models.ReviewComment{}, &BlockError{Block: blockNo, Reason: "missing message"}
	}

	return models.ReviewComment{
		FilePath: b.file,
		Line:     b.line,
		Category: models.NormalizeCategory(b.category),
		Severity: models.Severity(b.severity),
		Message:  strings.Join(b.message, "\n"),
		Reviewer: reviewer,
	}, nil
}

// parseStructured validates a pre-structured response with the same
// acceptance rules as the text path.
func parseStructured(sr *adapter.StructuredReview, reviewer string) Result {
	res := Result{Summary: sr.Summary}
	for i, c := range sr.Comments {
		switch {
		case c.File == "":
			res.Errors = append(res.Errors, &BlockError{Block: i + 1, Reason: "missing file"})
			continue
		case !models.ValidSeverity(models.Severity(c.Severity)):
			res.Errors = append(res.Errors, &BlockError{Block: i + 1, Reason: fmt.Sprintf("unknown severity %q", c.Severity)})
			continue
		case c.Message == "":
			res.Errors = append(res.Errors, &BlockError{Block: i + 1, Reason: "missing message"})
			continue
		}
		res.Comments = append(res.Comments, models.ReviewComment{
			FilePath: c.File,
			Line:     c.Line,
			Category: models.NormalizeCategory(c.Category),
			Severity: models.Severity(c.Severity),
			Message:  c.Message,
			Reviewer: reviewer,
		})
	}
	return res
}

// splitKey recognizes "KEY: value" lines and the bare END marker.
func splitKey(line string) (key, val string) {
	if line == "END" {
		return "END", ""
	}
	idx := strings.Index(line, ":")
	if idx <= 0 {
		return "", ""
	}
	k := strings.ToUpper(strings.TrimSpace(line[:idx]))
	switch k {
	case "FILE", "LINE", "CATEGORY", "SEVERITY", "SUMMARY":
		return k, strings.TrimSpace(line[idx+1:])
	default:
		return "", ""
	}
}
