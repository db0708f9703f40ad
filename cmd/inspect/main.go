package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/neutantr-dot/dual-narrative/internal/config"
	"github.com/neutantr-dot/dual-narrative/internal/sessionlog"
)

// #region main

var flags struct {
	configPath string
	dbPath     string
	last       int
	session    string
	jsonOut    bool
}

var rootCmd = &cobra.Command{
	Use:          "inspect",
	Short:        "List audit rows from the SQLite session log",
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&flags.configPath, "config", "c", "copilot_config.yaml", "config file (for session_log.sqlite_path)")
	f.StringVar(&flags.dbPath, "db", "", "path to the session database (overrides config)")
	f.IntVar(&flags.last, "last", 20, "show N most recent sessions")
	f.StringVar(&flags.session, "session", "", "show every row for one session id")
	f.BoolVar(&flags.jsonOut, "json", false, "output as JSON instead of table")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	dbPath := flags.dbPath
	if dbPath == "" {
		cfg, err := config.Load(flags.configPath)
		if err != nil {
			return err
		}
		dbPath = cfg.SessionLog.SQLitePath
	}
	if dbPath == "" {
		return fmt.Errorf("no session database: pass --db or set session_log.sqlite_path")
	}

	store, err := sessionlog.OpenSQLiteLog(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	var records []sessionlog.Record
	if flags.session != "" {
		records, err = store.Find(flags.session)
	} else {
		records, err = store.List(flags.last)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "no sessions found")
		return nil
	}
	rows := make([]listRow, len(records))
	for i, rec := range records {
		rows[i] = toRow(rec)
	}
	if flags.jsonOut {
		return printJSON(out, rows)
	}
	printTable(out, rows)
	return nil
}

// #endregion main

// #region output

type listRow struct {
	SessionID           string `json:"session_id"`
	CreatedAt           string `json:"created_at"`
	Label               string `json:"session_label,omitempty"`
	UserID              string `json:"user_id,omitempty"`
	Actor               string `json:"actor"`
	ActorWheelState     string `json:"actor_wheel_state,omitempty"`
	ReflexWheelState    string `json:"reflex_wheel_state,omitempty"`
	ReflexType          string `json:"reflex_type"`
	ClassCode           string `json:"class_code"`
	ArchetypeVariant    string `json:"archetype_variant,omitempty"`
	ContainmentRequired bool   `json:"containment_required"`
	Progressive         bool   `json:"progressive"`
}

func toRow(rec sessionlog.Record) listRow {
	return listRow{
		SessionID:           rec.SessionID,
		CreatedAt:           rec.Timestamp.Format(time.RFC3339),
		Label:               rec.SessionLabel,
		UserID:              rec.UserID,
		Actor:               rec.Actor,
		ActorWheelState:     rec.ActorWheelState,
		ReflexWheelState:    rec.ReflexWheelState,
		ReflexType:          rec.ReflexType,
		ClassCode:           rec.ClassCode,
		ArchetypeVariant:    rec.ArchetypeVariant,
		ContainmentRequired: rec.ContainmentRequired,
		Progressive:         rec.Progressive,
	}
}

func printTable(w io.Writer, rows []listRow) {
	fmt.Fprintf(w, "%-8s  %-20s  %-8s  %-12s  %-14s  %-6s  %-16s  %s\n",
		"SESSION", "CREATED", "ACTOR", "WHEEL", "REFLEX", "CLASS", "VARIANT", "FLAGS")
	for _, r := range rows {
		fmt.Fprintf(w, "%-8s  %-20s  %-8s  %-12s  %-14s  %-6s  %-16s  %s\n",
			shortID(r.SessionID), r.CreatedAt, r.Actor, r.ReflexWheelState,
			r.ReflexType, r.ClassCode, r.ArchetypeVariant, flagsCell(r))
	}
}

func flagsCell(r listRow) string {
	switch {
	case r.ContainmentRequired && r.Progressive:
		return "contain,progressive"
	case r.ContainmentRequired:
		return "contain"
	case r.Progressive:
		return "progressive"
	}
	return "-"
}

func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion output
