package state

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // SQLite driver (pure Go)

	"github.com/anexotools/anexocon/internal/resolve"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLiteStore implements Store on a SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// Open opens the store at path, creating and migrating the schema as
// needed. Use ":memory:" for an in-memory database.
func Open(path string) (*SQLiteStore, error) {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	if err := goose.Up(s.db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordProcess inserts one run record and returns its generated ID.
func (s *SQLiteStore) RecordProcess(ctx context.Context, p Process) (string, error) {
	id := p.ID
	if id == "" {
		id = uuid.New().String()
	}
	started := p.Started
	if started.IsZero() {
		started = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO processes (id, kind, user, subject, records, success, error, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, p.Kind, p.User, p.Subject, p.Records, boolToInt(p.Success), p.Error,
		started, p.Duration.Milliseconds())
	if err != nil {
		return "", fmt.Errorf("failed to record process: %w", err)
	}
	return id, nil
}

// RecordAlerts inserts a run's alert trail.
func (s *SQLiteStore) RecordAlerts(ctx context.Context, processID string, alerts []resolve.Alert) error {
	if len(alerts) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO alerts (id, process_id, severity, contract, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, a := range alerts {
		if _, err := stmt.ExecContext(ctx,
			uuid.New().String(), processID, a.Severity.String(), a.Contract, a.Message, a.Time.UTC()); err != nil {
			return fmt.Errorf("failed to record alert: %w", err)
		}
	}
	return tx.Commit()
}

// Totals aggregates the whole process log.
func (s *SQLiteStore) Totals(ctx context.Context) (Totals, error) {
	var t Totals
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(success), 0),
		       COALESCE(SUM(records), 0)
		FROM processes`).Scan(&t.Processes, &t.Succeeded, &t.Records)
	if err != nil {
		return Totals{}, fmt.Errorf("failed to aggregate processes: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM alerts`).Scan(&t.Alerts); err != nil {
		return Totals{}, fmt.Errorf("failed to count alerts: %w", err)
	}

	t.Failed = t.Processes - t.Succeeded
	if t.Processes > 0 {
		rate := float64(t.Succeeded) / float64(t.Processes) * 100
		t.SuccessRate = float64(int(rate*10+0.5)) / 10
	}
	return t, nil
}

// Recent returns the n most recent processes, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, n int) ([]Process, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, user, subject, records, success, error, started_at, duration_ms
		FROM processes
		ORDER BY started_at DESC
		LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query processes: %w", err)
	}
	defer rows.Close()

	var out []Process
	for rows.Next() {
		var p Process
		var success int
		var durMS int64
		if err := rows.Scan(&p.ID, &p.Kind, &p.User, &p.Subject, &p.Records,
			&success, &p.Error, &p.Started, &durMS); err != nil {
			return nil, fmt.Errorf("failed to scan process: %w", err)
		}
		p.Success = success != 0
		p.Duration = time.Duration(durMS) * time.Millisecond
		out = append(out, p)
	}
	return out, rows.Err()
}

// AlertsForProcess returns one run's alert trail in insertion order.
func (s *SQLiteStore) AlertsForProcess(ctx context.Context, processID string) ([]resolve.Alert, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT severity, contract, message, created_at
		FROM alerts
		WHERE process_id = ?
		ORDER BY rowid`, processID)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var out []resolve.Alert
	for rows.Next() {
		var a resolve.Alert
		var severity string
		if err := rows.Scan(&severity, &a.Contract, &a.Message, &a.Time); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		a.Severity = parseSeverity(severity)
		out = append(out, a)
	}
	return out, rows.Err()
}

// LastProcessID returns the most recent process ID, or "" when the log
// is empty.
func (s *SQLiteStore) LastProcessID(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM processes ORDER BY started_at DESC, rowid DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query last process: %w", err)
	}
	return id, nil
}

func parseSeverity(s string) resolve.Severity {
	switch s {
	case "error":
		return resolve.SeverityError
	case "warning":
		return resolve.SeverityWarning
	default:
		return resolve.SeverityInfo
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ Store = (*SQLiteStore)(nil)
