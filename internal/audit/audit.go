// Package audit keeps an optional Postgres-backed activity log of file
// operations. The log is append-only and never affects the outcome of the
// operation it records.
package audit

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Action is the kind of file operation recorded.
type Action string

const (
	ActionUpload   Action = "upload"
	ActionDelete   Action = "delete"
	ActionDownload Action = "download_url"
)

// Event is one recorded operation on one object key.
type Event struct {
	ID        uuid.UUID `json:"id"`
	Time      time.Time `json:"time"`
	Action    Action    `json:"action"`
	Key       string    `json:"key"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	ClientIP  string    `json:"client_ip,omitempty"`
}

// MaxRecent caps the number of events Recent returns.
const MaxRecent = 500

// Log writes and reads events in the activity table.
type Log struct {
	db  *sql.DB
	now func() time.Time
}

// New returns a Log on db. The schema must already be migrated.
func New(db *sql.DB) *Log {
	return &Log{db: db, now: time.Now}
}

// Record inserts ev, filling ID and Time when unset.
func (l *Log) Record(ctx context.Context, ev Event) error {
	if ev.Action == "" || ev.Key == "" {
		return errors.New("audit: action and key are required")
	}
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if ev.Time.IsZero() {
		ev.Time = l.now().UTC()
	}

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO activity (id, occurred_at, action, object_key, success, error, request_id, client_ip)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		ev.ID,
		ev.Time,
		string(ev.Action),
		ev.Key,
		ev.Success,
		nullString(ev.Error),
		nullString(ev.RequestID),
		nullString(ev.ClientIP),
	)
	return err
}

// Recent returns up to limit events, newest first.
func (l *Log) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 || limit > MaxRecent {
		limit = MaxRecent
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT id, occurred_at, action, object_key, success, error, request_id, client_ip
		FROM activity
		ORDER BY occurred_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	events := make([]Event, 0)
	for rows.Next() {
		var (
			ev                      Event
			action                  string
			errMsg, reqID, clientIP sql.NullString
		)
		if err := rows.Scan(&ev.ID, &ev.Time, &action, &ev.Key, &ev.Success, &errMsg, &reqID, &clientIP); err != nil {
			return nil, err
		}
		ev.Action = Action(action)
		ev.Error = errMsg.String
		ev.RequestID = reqID.String
		ev.ClientIP = clientIP.String
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Ping checks the database connection.
func (l *Log) Ping(ctx context.Context) error {
	return l.db.PingContext(ctx)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
