package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/neutantr-dot/dual-narrative/internal/generate"
)

var refineFlags struct {
	narrativeFile string
}

var refineCmd = &cobra.Command{
	Use:   "refine [request]",
	Short: "Ask the narrator to expand a composed story",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRefine,
}

func init() {
	refineCmd.Flags().StringVar(&refineFlags.narrativeFile, "narrative-file", "", "file holding the composed narrative (required)")
	_ = refineCmd.MarkFlagRequired("narrative-file")
}

func runRefine(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(refineFlags.narrativeFile)
	if err != nil {
		return fmt.Errorf("read narrative: %w", err)
	}

	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	reply, err := e.Refine(cmd.Context(), string(data), strings.Join(args, " "))
	if errors.Is(err, generate.ErrOffTopic) {
		fmt.Fprintln(cmd.OutOrStdout(), reply)
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), reply)
	return nil
}
