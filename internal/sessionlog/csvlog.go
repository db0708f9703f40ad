package sessionlog

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// #region csv-log

// CSVLog appends records to a flat CSV file, writing the header when the file
// is created. Each row goes out in a single O_APPEND write.
type CSVLog struct {
	mu   sync.Mutex
	path string
}

// NewCSVLog returns a CSV sink for path. The file is created lazily.
func NewCSVLog(path string) *CSVLog {
	return &CSVLog{path: path}
}

// Path returns the file the sink writes to.
func (l *CSVLog) Path() string {
	return l.path
}

// Append encodes rec as one CSV row and appends it.
func (l *CSVLog) Append(rec Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create log dir: %w", err)
		}
	}

	if err := l.ensureHeader(); err != nil {
		return err
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open session log: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(toRow(rec)); err != nil {
		return fmt.Errorf("encode row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("encode row: %w", err)
	}

	if _, err := f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("append session log: %w", err)
	}
	return nil
}

// ensureHeader creates the log holding only the header row. The header is
// written to a temporary file and linked into place, so across processes
// exactly one creator wins and no row can precede the header.
func (l *CSVLog) ensureHeader() error {
	if _, err := os.Stat(l.path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat session log: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(l.path), ".session-log-*")
	if err != nil {
		return fmt.Errorf("create session log: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(Header); err != nil {
		tmp.Close()
		return fmt.Errorf("encode header: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("encode header: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("create session log: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("create session log: %w", err)
	}
	if err := os.Link(tmp.Name(), l.path); err != nil && !errors.Is(err, os.ErrExist) {
		return fmt.Errorf("create session log: %w", err)
	}
	return nil
}

// #endregion csv-log

// #region helpers
func toRow(rec Record) []string {
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return []string{
		formatTimestamp(ts),
		rec.SessionLabel,
		rec.SessionID,
		rec.UserID,
		rec.Actor,
		rec.ActorWheelState,
		rec.ReflexWheelState,
		rec.ReflexType,
		rec.ClassCode,
		rec.ArchetypeVariant,
		boolCell(rec.ContainmentRequired),
		boolCell(rec.Progressive),
	}
}

func boolCell(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

// #endregion helpers
