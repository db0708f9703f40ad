// copilot runs the dual narrative rule engine from the command line.
//
// Usage:
//
//	copilot compose --actor=Male --reflex-wheel=collapsed --voice-file=voice_input.txt --background-file=background.txt
//	copilot manifest
//	copilot classifications
//	copilot refine --narrative-file=story.txt "move the story to the kitchen"
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/neutantr-dot/dual-narrative/internal/config"
	"github.com/neutantr-dot/dual-narrative/internal/engine"
	"github.com/neutantr-dot/dual-narrative/internal/logging"
)

var (
	configPath string
	tablesDir  string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "copilot",
	Short: "Dual narrative co-pilot: reflex, classification and geometry from rule tables",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if tablesDir != "" {
			cfg.Tables.Dir = tablesDir
		}
		if verbose {
			cfg.Logging.Level = "debug"
		}
		logger, err = logging.New(cfg.Logging)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "copilot_config.yaml", "config file (missing file uses defaults)")
	pf.StringVar(&tablesDir, "tables", "", "rule table directory (overrides tables.dir)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(composeCmd)
	rootCmd.AddCommand(manifestCmd)
	rootCmd.AddCommand(classificationsCmd)
	rootCmd.AddCommand(refineCmd)
}

// openEngine builds an engine from the loaded config.
func openEngine(opts ...engine.Option) (*engine.Engine, error) {
	e, err := engine.New(cfg, logger, opts...)
	if err != nil {
		return nil, fmt.Errorf("start engine: %w", err)
	}
	return e, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
