// ABOUTME: User model for the people whose attributes are tracked.
// ABOUTME: Includes username validation matching the public URL scheme.
package models

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

var usernamePattern = regexp.MustCompile(`^\w+$`)

// User is an account that tracks attributes.
type User struct {
	ID               uuid.UUID  `json:"id"`
	Username         string     `json:"username"`
	Email            *string    `json:"email,omitempty"`
	Timezone         *string    `json:"timezone,omitempty"`
	Bio              *string    `json:"bio,omitempty"`
	URL              *string    `json:"url,omitempty"`
	Country          *string    `json:"country,omitempty"`
	Private          bool       `json:"private"`
	ImperialUnits    bool       `json:"imperial_units"`
	WeeklyEmail      bool       `json:"weekly_email"`
	IsActive         bool       `json:"is_active"`
	LastSeenActivity *time.Time `json:"last_seen_activity,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// NewUser creates an active, private user.
func NewUser(username string) *User {
	return &User{
		ID:          uuid.New(),
		Username:    username,
		Private:     true,
		WeeklyEmail: true,
		IsActive:    true,
		CreatedAt:   time.Now(),
	}
}

// WithEmail sets the user's email.
func (u *User) WithEmail(email string) *User {
	u.Email = &email
	return u
}

// WithTimezone sets the user's timezone name.
func (u *User) WithTimezone(tz string) *User {
	u.Timezone = &tz
	return u
}

// ValidateUsername checks that a username contains only word characters.
func ValidateUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return fmt.Errorf("invalid username %q: use letters, digits and underscores", username)
	}
	return nil
}
