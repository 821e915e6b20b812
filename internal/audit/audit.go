// Package audit keeps an append-only SQLite log of scan and resolution
// events. The log is advisory: it answers "who resolved this and when"
// during review, and a failure to record is a warning, never a scan failure.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/slopwatch/slopwatch/internal/state"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id          TEXT PRIMARY KEY,
	type        TEXT NOT NULL,
	lang        TEXT NOT NULL,
	scan_id     INTEGER,
	finding_id  TEXT,
	old_status  TEXT,
	new_status  TEXT,
	note        TEXT,
	detail      TEXT,
	created_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_finding ON events(finding_id);
CREATE INDEX IF NOT EXISTS idx_events_lang ON events(lang, created_at);
`

// EventType classifies audit events.
type EventType string

const (
	EventScan     EventType = "scan"
	EventResolve  EventType = "resolve"
	EventReopen   EventType = "reopen"
	EventIgnore   EventType = "ignore"
	EventTraining EventType = "assessment"
)

// Event is one audit record. ID is assigned at write time.
type Event struct {
	ID        string
	Type      EventType
	Lang      string
	ScanID    int
	FindingID string
	OldStatus string
	NewStatus string
	Note      string
	Detail    string
	CreatedAt time.Time
}

// Log is the append-only event log.
type Log struct {
	db  *sql.DB
	log hclog.Logger
}

// Open opens (creating if needed) the audit database at path.
func Open(path string, logger hclog.Logger) (*Log, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping audit database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize audit schema: %w", err)
	}
	return &Log{db: db, log: logger}, nil
}

// Close closes the underlying database.
func (l *Log) Close() error {
	return l.db.Close()
}

// Record appends one event. The ID and timestamp are assigned here.
func (l *Log) Record(ctx context.Context, ev *Event) error {
	ev.ID = uuid.New().String()
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO events (id, type, lang, scan_id, finding_id, old_status, new_status, note, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, string(ev.Type), ev.Lang, ev.ScanID, ev.FindingID,
		ev.OldStatus, ev.NewStatus, ev.Note, ev.Detail, ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record audit event: %w", err)
	}
	return nil
}

// RecordScan logs one merge outcome. Failures are logged and swallowed.
func (l *Log) RecordScan(ctx context.Context, lang string, sum *state.MergeSummary) {
	detail := fmt.Sprintf("new=%d reopened=%d auto_resolved=%d suspect_held=%d released=%d total=%d",
		sum.New, sum.Reopened, sum.AutoResolved, sum.SuspectHeld, sum.Released, sum.TotalCurrent)
	err := l.Record(ctx, &Event{
		Type:   EventScan,
		Lang:   lang,
		ScanID: sum.ScanID,
		Detail: detail,
	})
	if err != nil {
		l.log.Warn("audit log write failed", "error", err)
	}
}

// RecordResolution logs one finding status change. Failures are logged and
// swallowed.
func (l *Log) RecordResolution(ctx context.Context, lang, findingID, oldStatus, newStatus, note string) {
	err := l.Record(ctx, &Event{
		Type:      EventResolve,
		Lang:      lang,
		FindingID: findingID,
		OldStatus: oldStatus,
		NewStatus: newStatus,
		Note:      note,
	})
	if err != nil {
		l.log.Warn("audit log write failed", "error", err)
	}
}

// ByFinding returns events for one finding, newest first.
func (l *Log) ByFinding(ctx context.Context, findingID string, limit int) ([]*Event, error) {
	return l.query(ctx, `
		SELECT id, type, lang, scan_id, finding_id, old_status, new_status, note, detail, created_at
		FROM events WHERE finding_id = ? ORDER BY created_at DESC LIMIT ?`, findingID, limit)
}

// Recent returns the newest events for one language.
func (l *Log) Recent(ctx context.Context, lang string, limit int) ([]*Event, error) {
	return l.query(ctx, `
		SELECT id, type, lang, scan_id, finding_id, old_status, new_status, note, detail, created_at
		FROM events WHERE lang = ? ORDER BY created_at DESC LIMIT ?`, lang, limit)
}

func (l *Log) query(ctx context.Context, q string, args ...any) ([]*Event, error) {
	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		var ev Event
		var typ string
		if err := rows.Scan(&ev.ID, &typ, &ev.Lang, &ev.ScanID, &ev.FindingID,
			&ev.OldStatus, &ev.NewStatus, &ev.Note, &ev.Detail, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		ev.Type = EventType(typ)
		events = append(events, &ev)
	}
	return events, rows.Err()
}
