package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"jitview/internal/jitview/styles"
	"jitview/internal/logging"
	"jitview/internal/view"
)

var statsCmd = &cobra.Command{
	Use:   "stats <dump>",
	Short: "Summarize a JIT code dump",
	Long: `Print block, instruction and branch counts for a dump as markdown.
The report is styled when written to a terminal.`,
	Example: `
# Summarize a dump
jitview stats jit_dump.bin
  `,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		logger := logging.NewLogger(logging.Options{Debug: cfg.Debug, File: cfg.LogFile})
		defer logger.Close()

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open dump: %w", err)
		}
		defer f.Close()

		var buf bytes.Buffer
		if err := view.Run(f, view.NewStatsRenderer(&buf), logger.Logger); err != nil {
			return err
		}

		report := buf.String()
		if out, ok := cmd.OutOrStdout().(*os.File); ok && term.IsTerminal(out.Fd()) {
			width, _, err := term.GetSize(out.Fd())
			if err != nil || width <= 0 {
				width = 80
			}
			report = styles.Render(report, width)
		}

		_, err = fmt.Fprint(cmd.OutOrStdout(), report)
		return err
	},
}
