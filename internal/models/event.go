// ABOUTME: Event and UserLog models.
// ABOUTME: Events are timestamped attribute readings; logs record page actions.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Event is a single timestamped reading for an attribute.
type Event struct {
	ID          uuid.UUID      `json:"id"`
	UserID      uuid.UUID      `json:"user_id"`
	AttributeID uuid.UUID      `json:"attribute_id"`
	Time        time.Time      `json:"time"`
	Value       *float64       `json:"value,omitempty"`
	ValueType   ValueType      `json:"value_type"`
	Meta        map[string]any `json:"meta,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// NewEvent creates an event for the attribute at t.
func NewEvent(userID uuid.UUID, a *Attribute, t time.Time) *Event {
	return &Event{
		ID:          uuid.New(),
		UserID:      userID,
		AttributeID: a.ID,
		Time:        t,
		ValueType:   a.ValueType,
		Meta:        map[string]any{},
		CreatedAt:   time.Now(),
	}
}

// WithValue sets the event's reading.
func (e *Event) WithValue(v float64) *Event {
	e.Value = &v
	return e
}

// UserLog records a user visiting a page or taking an action.
type UserLog struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Page      string    `json:"page"`
	Action    string    `json:"action"`
	Args      *string   `json:"args,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUserLog creates a log entry stamped now.
func NewUserLog(userID uuid.UUID, page, action string) *UserLog {
	return &UserLog{
		ID:        uuid.New(),
		UserID:    userID,
		Page:      page,
		Action:    action,
		CreatedAt: time.Now(),
	}
}

// WithArgs sets the log's arguments.
func (l *UserLog) WithArgs(args string) *UserLog {
	l.Args = &args
	return l
}
