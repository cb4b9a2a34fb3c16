package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/pprof"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"jitview/internal/config"
	jvlog "jitview/internal/jitview/log"
	"jitview/internal/logging"
	"jitview/internal/ui/colorize"
	"jitview/internal/ui/pager"
	"jitview/internal/view"
)

func init() {
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Debug")
	rootCmd.PersistentFlags().String("config", "", "Config file (default $XDG_CONFIG_HOME/jitview/config.yaml)")

	rootCmd.Flags().String("color", "", "Colorize the listing: auto, always or never")
	rootCmd.Flags().BoolP("json", "j", false, "Output the listing as JSON")
	rootCmd.Flags().BoolP("tui", "t", false, "Browse the listing in an interactive pager")
	rootCmd.Flags().String("cpuprofile", "", "Write CPU profile to file")
	rootCmd.Flags().String("memprofile", "", "Write memory profile to file")

	rootCmd.AddCommand(statsCmd)
}

var rootCmd = &cobra.Command{
	Use:   "jitview <dump>",
	Short: "Disassemble a JIT code dump",
	Long: `Jitview renders a JIT code dump as readable disassembly.
Each recorded block is listed with its program counter; on aarch64,
relative branches inside a block get labels at their targets.`,
	Example: `
# List every block in a dump
jitview jit_dump.bin

# Machine-readable listing
jitview --json jit_dump.bin > listing.json
  `,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		cpuprofile, _ := cmd.Flags().GetString("cpuprofile")
		if cpuprofile != "" {
			f, err := os.Create(cpuprofile)
			if err != nil {
				return fmt.Errorf("could not create CPU profile: %v", err)
			}
			defer f.Close()
			if err := pprof.StartCPUProfile(f); err != nil {
				return fmt.Errorf("could not start CPU profile: %v", err)
			}
			defer pprof.StopCPUProfile()
		}

		memprofile, _ := cmd.Flags().GetString("memprofile")
		if memprofile != "" {
			defer func() {
				f, err := os.Create(memprofile)
				if err != nil {
					slog.Error("could not create memory profile", "error", err)
					return
				}
				defer f.Close()
				if err := pprof.WriteHeapProfile(f); err != nil {
					slog.Error("could not write memory profile", "error", err)
				}
			}()
		}

		jsonOutput, _ := cmd.Flags().GetBool("json")
		tui, _ := cmd.Flags().GetBool("tui")

		logger := logging.NewLogger(logging.Options{Debug: cfg.Debug, File: cfg.LogFile})
		defer logger.Close()

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open dump: %w", err)
		}
		defer f.Close()

		out := cmd.OutOrStdout()
		switch {
		case jsonOutput:
			return view.Run(f, view.NewJSONRenderer(out), logger.Logger)

		case tui:
			var buf bytes.Buffer
			opts := colorOptions(config.ColorAlways)
			if err := view.Run(f, view.NewTextRenderer(&buf, opts...), logger.Logger); err != nil {
				return err
			}
			return pager.Run(cmd.Context(), args[0], buf.String())

		default:
			opts := colorOptions(colorMode(cfg, out))
			return view.Run(f, view.NewTextRenderer(out, opts...), logger.Logger)
		}
	},
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}

	if cmd.Flags().Changed("debug") {
		cfg.Debug, _ = cmd.Flags().GetBool("debug")
	}
	if f := cmd.Flags().Lookup("color"); f != nil && f.Changed {
		cfg.Color = f.Value.String()
		if err := cfg.Validate(); err != nil {
			return cfg, err
		}
	}

	jvlog.Setup(cfg.Debug)
	slog.Debug("configuration loaded", "debug", cfg.Debug, "color", cfg.Color, "log_file", cfg.LogFile)
	return cfg, nil
}

// colorMode resolves "auto" against the output stream.
func colorMode(cfg config.Config, out io.Writer) string {
	if cfg.Color != config.ColorAuto {
		return cfg.Color
	}
	if f, ok := out.(*os.File); ok && term.IsTerminal(f.Fd()) && !colorize.Disabled() {
		return config.ColorAlways
	}
	return config.ColorNever
}

func colorOptions(mode string) []view.TextOption {
	if mode != config.ColorAlways {
		return nil
	}
	return []view.TextOption{view.WithColorizer(func(arch string) func(string) string {
		return colorize.New(arch).Line
	})}
}

func Execute() {
	// fang renders help and errors for terminals; pipes get plain cobra
	if !term.IsTerminal(os.Stdout.Fd()) {
		if err := rootCmd.Execute(); err != nil {
			os.Exit(1)
		}
		return
	}

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}
