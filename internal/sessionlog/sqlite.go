package sessionlog

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS session_log (
	id                   INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id           TEXT NOT NULL,
	session_label        TEXT,
	user_id              TEXT,
	actor                TEXT NOT NULL,
	actor_wheel_state    TEXT,
	reflex_wheel_state   TEXT,
	reflex_type          TEXT NOT NULL,
	class_code           TEXT NOT NULL,
	archetype_variant    TEXT,
	containment_required INTEGER NOT NULL,
	progressive          INTEGER NOT NULL,
	created_at           TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_session_log_created ON session_log(created_at);
`

// #endregion schema

// #region store-struct

// SQLiteLog keeps the audit trail in a SQLite table. Rows are only ever inserted.
type SQLiteLog struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor

// OpenSQLiteLog opens (or creates) the database at dbPath and runs migrations.
func OpenSQLiteLog(dbPath string) (*SQLiteLog, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLiteLog{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteLog) Close() error {
	return s.db.Close()
}

// #endregion constructor

// #region append

// Append inserts one audit row.
func (s *SQLiteLog) Append(rec Record) error {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	_, err := s.db.Exec(
		`INSERT INTO session_log (session_id, session_label, user_id, actor, actor_wheel_state,
		 reflex_wheel_state, reflex_type, class_code, archetype_variant, containment_required,
		 progressive, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.SessionID,
		nullIfEmpty(rec.SessionLabel),
		nullIfEmpty(rec.UserID),
		rec.Actor,
		nullIfEmpty(rec.ActorWheelState),
		nullIfEmpty(rec.ReflexWheelState),
		rec.ReflexType,
		rec.ClassCode,
		nullIfEmpty(rec.ArchetypeVariant),
		rec.ContainmentRequired,
		rec.Progressive,
		formatTimestamp(rec.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("log session: %w", err)
	}
	return nil
}

// #endregion append

// #region list

// List returns the most recent records, newest first. A non-positive limit
// returns every record.
func (s *SQLiteLog) List(limit int) ([]Record, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(selectRecords+` ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return scanRecords(rows)
}

// Find returns every record written for sessionID, oldest first.
func (s *SQLiteLog) Find(sessionID string) ([]Record, error) {
	rows, err := s.db.Query(selectRecords+` WHERE session_id = ? ORDER BY created_at ASC, id ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("find session %s: %w", sessionID, err)
	}
	return scanRecords(rows)
}

const selectRecords = `SELECT session_id, session_label, user_id, actor, actor_wheel_state, reflex_wheel_state,
	reflex_type, class_code, archetype_variant, containment_required, progressive, created_at
	FROM session_log`

func scanRecords(rows *sql.Rows) ([]Record, error) {
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var label, userID, actorWheel, reflexWheel, variant sql.NullString
		var createdStr string
		if err := rows.Scan(&rec.SessionID, &label, &userID, &rec.Actor, &actorWheel, &reflexWheel,
			&rec.ReflexType, &rec.ClassCode, &variant, &rec.ContainmentRequired, &rec.Progressive, &createdStr); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		rec.SessionLabel = label.String
		rec.UserID = userID.String
		rec.ActorWheelState = actorWheel.String
		rec.ReflexWheelState = reflexWheel.String
		rec.ArchetypeVariant = variant.String
		rec.Timestamp = parseTimestamp(createdStr)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Count returns the number of audit rows.
func (s *SQLiteLog) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM session_log`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}

// #endregion list

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
