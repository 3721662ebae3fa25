// ABOUTME: User CRUD operations for SQLite storage.
// ABOUTME: Users are looked up by their unique username.
package storage

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/harperreed/exist/internal/models"
)

const userColumns = `id, username, email, timezone, bio, url, country, private,
	imperial_units, weekly_email, is_active, last_seen_activity, created_at`

// CreateUser inserts a new user.
func (d *DB) CreateUser(u *models.User) error {
	if err := models.ValidateUsername(u.Username); err != nil {
		return err
	}
	_, err := d.db.Exec(`
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID.String(), u.Username, u.Email, u.Timezone, u.Bio, u.URL, u.Country,
		u.Private, u.ImperialUnits, u.WeeklyEmail, u.IsActive,
		nullTime(u.LastSeenActivity), formatTime(u.CreatedAt),
	)
	return writeErr("insert user", err)
}

// UpdateUser rewrites a user's mutable fields.
func (d *DB) UpdateUser(u *models.User) error {
	result, err := d.db.Exec(`
		UPDATE users SET email = ?, timezone = ?, bio = ?, url = ?, country = ?,
			private = ?, imperial_units = ?, weekly_email = ?, is_active = ?,
			last_seen_activity = ?
		WHERE id = ?`,
		u.Email, u.Timezone, u.Bio, u.URL, u.Country,
		u.Private, u.ImperialUnits, u.WeeklyEmail, u.IsActive,
		nullTime(u.LastSeenActivity), u.ID.String(),
	)
	if err != nil {
		return writeErr("update user", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("update user %s: %w", u.Username, ErrNotFound)
	}
	return nil
}

// GetUser retrieves a user by username.
func (d *DB) GetUser(username string) (*models.User, error) {
	row := d.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	u, err := scanUser(row)
	if err != nil {
		return nil, readErr("get user", username, err)
	}
	return u, nil
}

// ListUsers returns all users ordered by username.
func (d *DB) ListUsers() ([]*models.User, error) {
	rows, err := d.db.Query(`SELECT ` + userColumns + ` FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func scanUser(s rowScanner) (*models.User, error) {
	var u models.User
	var id, createdAt string
	var email, timezone, bio, url, country, lastSeen sql.NullString

	err := s.Scan(&id, &u.Username, &email, &timezone, &bio, &url, &country,
		&u.Private, &u.ImperialUnits, &u.WeeklyEmail, &u.IsActive, &lastSeen, &createdAt)
	if err != nil {
		return nil, err
	}

	u.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse user id: %w", err)
	}
	u.Email = stringPtr(email)
	u.Timezone = stringPtr(timezone)
	u.Bio = stringPtr(bio)
	u.URL = stringPtr(url)
	u.Country = stringPtr(country)
	if lastSeen.Valid {
		t := parseTime(lastSeen.String)
		u.LastSeenActivity = &t
	}
	u.CreatedAt = parseTime(createdAt)
	return &u, nil
}
