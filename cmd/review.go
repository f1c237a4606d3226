package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/chorus/internal/manifest"
	"github.com/joescharf/chorus/internal/models"
	"github.com/joescharf/chorus/internal/orchestrator"
	"github.com/joescharf/chorus/internal/partition"
	"github.com/joescharf/chorus/internal/report"
	"github.com/joescharf/chorus/internal/synthesis"
)

var (
	reviewManifestPath string
	reviewFiles        []string
	reviewFilesFrom    string
	reviewRoot         string
	reviewOut          string
	reviewNoSave       bool
	reviewOnly         string
	reviewFull         bool
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Run a multi-reviewer review over a change set",
	Long: `Run one review: load the manifest, partition the changed files into
domain chapters, fan each chapter out to its reviewers, and print the
synthesized governance summary.

The changed files come from --files or --files-from (use - to read
stdin). Exit code is 0 for approve/comment, 1 for request_changes,
2 on failure.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return reviewRun(cmd)
	},
}

func init() {
	reviewCmd.Flags().StringVarP(&reviewManifestPath, "manifest", "m", "review.yaml", "Review manifest file")
	reviewCmd.Flags().StringSliceVarP(&reviewFiles, "files", "f", nil, "Changed files (comma-separated or repeated)")
	reviewCmd.Flags().StringVar(&reviewFilesFrom, "files-from", "", "Read changed files from a file, one per line (- for stdin)")
	reviewCmd.Flags().StringVar(&reviewRoot, "root", ".", "Repository root used to read file contents")
	reviewCmd.Flags().StringVarP(&reviewOut, "out", "o", "", "Write the report artifact as JSON to this path")
	reviewCmd.Flags().BoolVar(&reviewNoSave, "no-save", false, "Do not persist the run to the ledger")
	reviewCmd.Flags().StringVarP(&reviewOnly, "reviewer", "r", "", "Run only this reviewer identity")
	reviewCmd.Flags().BoolVar(&reviewFull, "full", false, "Run every reviewer in the manifest (the default; incompatible with --reviewer)")
	rootCmd.AddCommand(reviewCmd)
}

func reviewRun(cmd *cobra.Command) error {
	reg, registered, err := buildRegistry()
	if err != nil {
		return err
	}

	defs, err := manifest.Load(reviewManifestPath, registered)
	if err != nil {
		return err
	}

	files, err := collectFiles(cmd.InOrStdin())
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no changed files given (use --files or --files-from)")
	}

	chapters := partition.Partition(defs, files)

	if reviewOnly != "" {
		if reviewFull {
			return fmt.Errorf("--reviewer and --full are mutually exclusive")
		}
		if filterReviewer(chapters, reviewOnly) == 0 {
			return fmt.Errorf("reviewer %q is not assigned to any chapter", reviewOnly)
		}
	}

	maxFileBytes := viper.GetInt("review.max_file_bytes")
	maxExcerptBytes := viper.GetInt("review.max_excerpt_bytes")
	for i := range chapters {
		if len(chapters[i].Reviewers) == 0 {
			continue
		}
		chapters[i].Excerpt = partition.BuildExcerpt(reviewRoot, chapters[i].Files, maxFileBytes, maxExcerptBytes)
	}

	if dryRun {
		for _, ch := range chapters {
			ui.DryRunMsg("chapter %s: %d file(s), reviewers %v", ch.ID, len(ch.Files), ch.Reviewers)
		}
		return nil
	}

	orch := orchestrator.New(reg, orchestrator.Config{
		JobTimeout: viper.GetDuration("review.job_timeout"),
		RunTimeout: viper.GetDuration("review.run_timeout"),
	}, ui)

	res, err := orch.Run(cmd.Context(), chapters)
	if err != nil {
		return err
	}

	summary, err := synthesis.Synthesize(chapters, res.Reviews, res.Jobs)
	if err != nil {
		return err
	}

	rep := report.Build(models.NewRunID(), summary, res.Reviews, res.Jobs)
	if err := report.Render(ui, rep); err != nil {
		return err
	}

	if reviewOut != "" {
		if err := rep.WriteJSON(reviewOut); err != nil {
			return err
		}
		ui.Success("Report written: %s", reviewOut)
	}

	if !reviewNoSave {
		if err := saveRun(cmd, rep, len(files)); err != nil {
			// A ledger failure must not change the review outcome.
			ui.Warning("could not persist run: %v", err)
		}
	}

	if summary.Recommendation == models.RecommendationRequestChanges {
		return errRequestChanges
	}
	return nil
}

// filterReviewer restricts every chapter to the single reviewer identity,
// dropping chapters that do not name it. It returns the number of
// (chapter, reviewer) pairs that survive; zero means the identity matched
// nothing and the run must not proceed to a vacuous approval.
func filterReviewer(chapters []models.Chapter, reviewer string) int {
	pairs := 0
	for i := range chapters {
		var kept []string
		for _, id := range chapters[i].Reviewers {
			if id == reviewer {
				kept = append(kept, id)
			}
		}
		chapters[i].Reviewers = kept
		pairs += len(kept)
	}
	return pairs
}

// collectFiles merges --files with the --files-from source.
func collectFiles(stdin io.Reader) ([]string, error) {
	files := append([]string(nil), reviewFiles...)

	if reviewFilesFrom != "" {
		var r io.Reader
		if reviewFilesFrom == "-" {
			r = stdin
		} else {
			f, err := os.Open(reviewFilesFrom)
			if err != nil {
				return nil, fmt.Errorf("open files list: %w", err)
			}
			defer f.Close()
			r = f
		}

		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" {
				files = append(files, line)
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read files list: %w", err)
		}
	}

	return files, nil
}

// saveRun persists the run and its chapter reviews to the ledger.
func saveRun(cmd *cobra.Command, rep *report.Report, fileCount int) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	reportJSON, err := rep.Marshal()
	if err != nil {
		return err
	}

	run := &models.Run{
		ID:             rep.RunID,
		ManifestPath:   reviewManifestPath,
		FileCount:      fileCount,
		Recommendation: rep.Summary.Recommendation,
		TotalComments:  rep.Summary.TotalComments,
		CriticalCount:  rep.Summary.CriticalCount,
		Degraded:       rep.Summary.DegradedChapters,
		ReportJSON:     string(reportJSON),
	}
	if err := s.CreateRun(cmd.Context(), run); err != nil {
		return err
	}

	for _, r := range rep.Reviews {
		review := r
		if err := s.CreateChapterReview(cmd.Context(), run.ID, &review); err != nil {
			return err
		}
	}

	ui.VerboseLog("run %s persisted", run.ID)
	return nil
}
