package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/neutantr-dot/dual-narrative/internal/sessionlog"
)

func seedDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sessions.db")
	db, err := sessionlog.OpenSQLiteLog(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	base := time.Date(2026, 3, 3, 14, 5, 0, 0, time.UTC)
	for i, id := range []string{"0f7c2a9e-aaaa", "1b2c3d4e-bbbb"} {
		err := db.Append(sessionlog.Record{
			Timestamp: base.Add(time.Duration(i) * time.Minute), SessionID: id, Actor: "Male",
			ReflexWheelState: "collapsed", ReflexType: "withdrawal", ClassCode: "M3",
			ArchetypeVariant: "Silent Wall", ContainmentRequired: true,
		})
		if err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	return path
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("execute %v: %v\n%s", args, err, out.String())
	}
	return out.String()
}

func TestInspect_Table(t *testing.T) {
	out := execute(t, "--db", seedDB(t), "--last", "1", "--json=false", "--session", "")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got:\n%s", out)
	}
	if !strings.HasPrefix(lines[1], "1b2c3d4e") || !strings.Contains(lines[1], "contain") {
		t.Errorf("unexpected row %q", lines[1])
	}
}

func TestInspect_SessionJSON(t *testing.T) {
	out := execute(t, "--db", seedDB(t), "--session", "0f7c2a9e-aaaa", "--json")
	var rows []listRow
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(rows) != 1 || rows[0].ClassCode != "M3" || rows[0].CreatedAt != "2026-03-03T14:05:00Z" {
		t.Errorf("rows = %+v", rows)
	}
}
