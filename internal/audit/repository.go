package audit

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

//go:embed schema.sql
var schemaSQL string

// DB is the subset of pgxpool.Pool used by the repository.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PGRepository implements Recorder using PostgreSQL.
type PGRepository struct {
	db  DB
	now func() time.Time
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(db DB) *PGRepository {
	return &PGRepository{db: db, now: time.Now}
}

// EnsureSchema creates the events table when missing.
func (r *PGRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("audit: ensure schema: %w", err)
	}
	return nil
}

const insertEventSQL = `INSERT INTO auth_events
	(kind, variant, user_id, username, role, identifier, browser_id, ip, ua, message, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

// Record inserts an event.
func (r *PGRepository) Record(ctx context.Context, ev Event) error {
	at := ev.At
	if at.IsZero() {
		at = r.now()
	}
	_, err := r.db.Exec(ctx, insertEventSQL,
		ev.Kind,
		ev.Variant,
		optionalText(ev.UserID),
		optionalText(ev.Username),
		optionalText(ev.Role),
		optionalText(ev.Identifier),
		ev.BrowserID,
		optionalText(ev.RemoteAddr),
		optionalText(ev.UserAgent),
		optionalText(ev.Message),
		pgtype.Timestamptz{Time: at.UTC(), Valid: true},
	)
	if err != nil {
		return fmt.Errorf("audit: record %s: %w", ev.Kind, err)
	}
	return nil
}

const recentEventsSQL = `SELECT kind, variant, user_id, username, role, identifier, browser_id, ip, ua, message, created_at
	FROM auth_events
	ORDER BY created_at DESC
	LIMIT $1`

// Recent lists the newest events first.
func (r *PGRepository) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := r.db.Query(ctx, recentEventsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("audit: recent: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			ev                                                  Event
			userID, username, role, identifier, ip, ua, message pgtype.Text
			createdAt                                           time.Time
		)
		if err := rows.Scan(&ev.Kind, &ev.Variant, &userID, &username, &role, &identifier, &ev.BrowserID, &ip, &ua, &message, &createdAt); err != nil {
			return nil, fmt.Errorf("audit: scan: %w", err)
		}
		ev.UserID = userID.String
		ev.Username = username.String
		ev.Role = role.String
		ev.Identifier = identifier.String
		ev.RemoteAddr = ip.String
		ev.UserAgent = ua.String
		ev.Message = message.String
		ev.At = createdAt
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit: rows: %w", err)
	}
	return events, nil
}

func optionalText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

var _ Recorder = (*PGRepository)(nil)
var _ Recorder = Nop{}
