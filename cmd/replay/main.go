// Command replay rebuilds bundles for a JSON fixture of recorded sessions and
// reports where they diverge from the fixture's expected results.
//
//	replay --fixture internal/replay/testdata/sessions.json
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/neutantr-dot/dual-narrative/internal/replay"
)

// #region main

// errDiverged signals a completed run with at least one mismatch.
var errDiverged = errors.New("replay diverged")

var flags struct {
	fixturePath string
	tablesDir   string
	verbose     bool
}

var rootCmd = &cobra.Command{
	Use:          "replay",
	Short:        "Replay fixture sessions through the bundle builder and report mismatches",
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&flags.fixturePath, "fixture", "", "path to fixture JSON")
	f.StringVar(&flags.tablesDir, "tables", "", "rule table directory (overrides the fixture's tables_dir)")
	f.BoolVarP(&flags.verbose, "verbose", "v", false, "log table fallbacks")
	_ = rootCmd.MarkFlagRequired("fixture")
}

func main() {
	err := rootCmd.Execute()
	switch {
	case err == nil:
	case errors.Is(err, errDiverged):
		os.Exit(1)
	default:
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	logger := zap.NewNop()
	if flags.verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		logger = l
		defer logger.Sync() //nolint:errcheck
	}

	f, err := replay.LoadFixture(flags.fixturePath)
	if err != nil {
		return fmt.Errorf("load fixture: %w", err)
	}
	if flags.tablesDir != "" {
		f.TablesDir = flags.tablesDir
	}
	results, summary := replay.Run(f, logger)
	if printComparison(cmd.OutOrStdout(), results, summary) > 0 {
		return errDiverged
	}
	return nil
}

// #endregion main

// #region output

// printComparison writes a comparison table and returns the number of
// diverging sessions.
func printComparison(w io.Writer, results []replay.ReplayResult, s replay.ReplaySummary) int {
	fmt.Fprintf(w, "%-14s| %-15s| %-6s| %-15s| %s\n", "Session", "Reflex", "Class", "Branch", "Match")
	fmt.Fprintf(w, "%-14s+%-16s+%-7s+%-16s+%s\n",
		"--------------", "----------------", "-------", "----------------", "------")

	for _, r := range results {
		match := "OK"
		if len(r.Mismatches) > 0 {
			match = "DIFF"
		}
		fmt.Fprintf(w, "%-14s| %-15s| %-6s| %-15s| %s\n", shortID(r.SessionID),
			r.Bundle.Reflex.ReflexType, r.Bundle.Classification.ClassCode, r.Bundle.Reflex.NarrativeBranch, match)
		for _, m := range r.Mismatches {
			fmt.Fprintf(w, "    %s\n", m)
		}
	}

	fmt.Fprintf(w, "\nSummary: %d total, %d match, %d diverge, %d escalated, %d fallback\n",
		s.TotalSessions, s.Matches, s.Mismatches, s.Escalations, s.Fallbacks)
	return s.Mismatches
}

func shortID(id string) string {
	if len(id) > 14 {
		return id[:14]
	}
	return id
}

// #endregion output
