// ABOUTME: Event and activity log operations for SQLite storage.
// ABOUTME: Events are timestamped attribute occurrences; logs record page views and actions.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/harperreed/exist/internal/models"
)

// CreateEvent inserts an event. Events are unique per user, attribute and time.
func (d *DB) CreateEvent(e *models.Event) error {
	meta, err := json.Marshal(e.Meta)
	if err != nil {
		return fmt.Errorf("encode event meta: %w", err)
	}
	_, err = d.db.Exec(`
		INSERT INTO events (id, user_id, attribute_id, time, value, value_type, meta, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID.String(), e.UserID.String(), e.AttributeID.String(), formatTime(e.Time),
		e.Value, int(e.ValueType), string(meta), formatTime(e.CreatedAt),
	)
	return writeErr("insert event", err)
}

// ListEvents returns a user's events newest first. A limit of 0 returns all.
func (d *DB) ListEvents(userID uuid.UUID, limit int) ([]*models.Event, error) {
	query := `
		SELECT id, user_id, attribute_id, time, value, value_type, meta, created_at
		FROM events WHERE user_id = ? ORDER BY time DESC`
	args := []any{userID.String()}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []*models.Event
	for rows.Next() {
		var e models.Event
		var id, uid, aid, at, createdAt string
		var value sql.NullFloat64
		var valueType int
		var meta sql.NullString

		if err := rows.Scan(&id, &uid, &aid, &at, &value, &valueType, &meta, &createdAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		var err error
		if e.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse event id: %w", err)
		}
		if e.UserID, err = uuid.Parse(uid); err != nil {
			return nil, fmt.Errorf("parse user id: %w", err)
		}
		if e.AttributeID, err = uuid.Parse(aid); err != nil {
			return nil, fmt.Errorf("parse attribute id: %w", err)
		}
		e.Time = parseTime(at)
		if value.Valid {
			e.Value = &value.Float64
		}
		e.ValueType = models.ValueType(valueType)
		if meta.Valid && meta.String != "" {
			if err := json.Unmarshal([]byte(meta.String), &e.Meta); err != nil {
				return nil, fmt.Errorf("decode event meta: %w", err)
			}
		}
		e.CreatedAt = parseTime(createdAt)
		events = append(events, &e)
	}
	return events, rows.Err()
}

// CreateUserLog records a page view or action.
func (d *DB) CreateUserLog(l *models.UserLog) error {
	_, err := d.db.Exec(`
		INSERT INTO user_logs (id, user_id, page, action, args, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		l.ID.String(), l.UserID.String(), l.Page, l.Action, l.Args, formatTime(l.CreatedAt),
	)
	return writeErr("insert user log", err)
}

// ListUserLogs returns a user's logs newest first. A limit of 0 returns all.
func (d *DB) ListUserLogs(userID uuid.UUID, limit int) ([]*models.UserLog, error) {
	query := `
		SELECT id, user_id, page, action, args, created_at
		FROM user_logs WHERE user_id = ? ORDER BY created_at DESC`
	args := []any{userID.String()}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query user logs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var logs []*models.UserLog
	for rows.Next() {
		var l models.UserLog
		var id, uid, createdAt string
		var logArgs sql.NullString
		if err := rows.Scan(&id, &uid, &l.Page, &l.Action, &logArgs, &createdAt); err != nil {
			return nil, fmt.Errorf("scan user log: %w", err)
		}
		var err error
		if l.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse user log id: %w", err)
		}
		if l.UserID, err = uuid.Parse(uid); err != nil {
			return nil, fmt.Errorf("parse user id: %w", err)
		}
		l.Args = stringPtr(logArgs)
		l.CreatedAt = parseTime(createdAt)
		logs = append(logs, &l)
	}
	return logs, rows.Err()
}
