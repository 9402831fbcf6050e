// Package audit keeps a SQLite trail of every command the agent proposed,
// what the policy said about it and how it ended.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// Entry is one audited command.
type Entry struct {
	ID         int64
	SessionID  string
	Turn       int
	Source     string // "directive" or "tool"
	Command    string
	WorkingDir string
	Program    string
	Mode       string
	Action     string
	Reason     string
	Confirmed  bool
	Edited     bool
	State      string
	ExitCode   int
	Duration   time.Duration
	CreatedAt  time.Time
}

// Store implements audit storage using SQLite.
type Store struct {
	db  *sql.DB
	log logrus.FieldLogger
}

// Open creates or opens the audit database at path.
func Open(path string, log logrus.FieldLogger) (*Store, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create audit directory %s: %w", dir, err)
	}

	dsn, err := sqliteDSN(path)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve audit path %s: %w", path, err)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open audit database: %w", err)
	}

	// Single connection for SQLite
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db, log: log}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("audit migration failed: %w", err)
	}
	return s, nil
}

// sqliteDSN builds a file: URI for path. Characters such as '?', '#' and '%'
// are escaped so they stay part of the filename.
func sqliteDSN(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	p := filepath.ToSlash(abs)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	u := url.URL{
		Scheme:   "file",
		Path:     p,
		RawQuery: "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)",
	}
	return u.String(), nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS executions (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id   TEXT NOT NULL,
		turn         INTEGER NOT NULL,
		source       TEXT NOT NULL,
		command      TEXT NOT NULL,
		working_dir  TEXT,
		program      TEXT,
		mode         TEXT,
		action       TEXT NOT NULL,
		reason       TEXT,
		confirmed    INTEGER NOT NULL DEFAULT 0,
		edited       INTEGER NOT NULL DEFAULT 0,
		state        TEXT,
		exit_code    INTEGER NOT NULL,
		duration_ms  INTEGER NOT NULL DEFAULT 0,
		created_at   INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_executions_time ON executions(created_at);
	CREATE INDEX IF NOT EXISTS idx_executions_session ON executions(session_id, id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record appends an entry. CreatedAt defaults to now.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO executions
		 (session_id, turn, source, command, working_dir, program, mode, action, reason,
		  confirmed, edited, state, exit_code, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.SessionID, e.Turn, e.Source, e.Command, e.WorkingDir, e.Program, e.Mode, e.Action, e.Reason,
		boolInt(e.Confirmed), boolInt(e.Edited), e.State, e.ExitCode, e.Duration.Milliseconds(), e.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("record audit entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first. sessionID filters when non-empty.
func (s *Store) Recent(ctx context.Context, limit int, sessionID string) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT id, session_id, turn, source, command, working_dir, program, mode, action, reason,
		confirmed, edited, state, exit_code, duration_ms, created_at FROM executions`
	args := []any{}
	if sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e                     Entry
			workDir, program      sql.NullString
			mode, reason, state   sql.NullString
			confirmed, edited     int
			durationMs, createdMs int64
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Turn, &e.Source, &e.Command, &workDir, &program, &mode,
			&e.Action, &reason, &confirmed, &edited, &state, &e.ExitCode, &durationMs, &createdMs); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.WorkingDir = workDir.String
		e.Program = program.String
		e.Mode = mode.String
		e.Reason = reason.String
		e.State = state.String
		e.Confirmed = confirmed != 0
		e.Edited = edited != 0
		e.Duration = time.Duration(durationMs) * time.Millisecond
		e.CreatedAt = time.UnixMilli(createdMs)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
