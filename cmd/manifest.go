package cmd

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joescharf/chorus/internal/manifest"
)

var manifestPath string

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Validate or inspect a review manifest",
}

var manifestValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the manifest against the configured reviewers",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, registered, err := buildRegistry()
		if err != nil {
			return err
		}

		if _, err := manifest.Load(manifestPath, registered); err != nil {
			return err
		}
		ui.Success("Manifest is valid: %s", manifestPath)
		return nil
	},
}

var manifestShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the manifest's chapters, patterns, and reviewers",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, registered, err := buildRegistry()
		if err != nil {
			return err
		}

		defs, err := manifest.Load(manifestPath, registered)
		if err != nil {
			return err
		}

		table := ui.Table([]string{"Domain", "Patterns", "Reviewers", "Critical"})
		for _, def := range defs {
			table.Append([]string{
				def.Domain,
				strings.Join(def.PathPatterns, ", "),
				strings.Join(def.Reviewers, ", "),
				strconv.FormatBool(def.Critical),
			})
		}
		return table.Render()
	},
}

func init() {
	manifestCmd.PersistentFlags().StringVarP(&manifestPath, "manifest", "m", "review.yaml", "Review manifest file")
	manifestCmd.AddCommand(manifestValidateCmd)
	manifestCmd.AddCommand(manifestShowCmd)
	rootCmd.AddCommand(manifestCmd)
}
