package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "List reflex types per wheel state from the transmission map",
	RunE:  runManifest,
}

func runManifest(cmd *cobra.Command, _ []string) error {
	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	m := e.Manifest()
	out := cmd.OutOrStdout()
	if len(m.States) == 0 {
		fmt.Fprintln(out, "No reflexes found in transmission map.")
		return nil
	}
	title := cases.Title(language.English)
	for _, state := range m.States {
		fmt.Fprintf(out, "%s: %s\n", title.String(state), strings.Join(m.Reflexes[state], ", "))
	}
	return nil
}
