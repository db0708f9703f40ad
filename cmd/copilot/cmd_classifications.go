package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var classificationsCmd = &cobra.Command{
	Use:   "classifications",
	Short: "Preview the actor classification table",
	RunE:  runClassifications,
}

func runClassifications(cmd *cobra.Command, _ []string) error {
	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	out := cmd.OutOrStdout()
	lines := e.Classifications()
	if len(lines) == 0 {
		fmt.Fprintln(out, "No classification rules found.")
		return nil
	}
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}
	return nil
}
