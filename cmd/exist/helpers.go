// ABOUTME: Shared helpers for CLI commands.
// ABOUTME: Time and day parsing, text padding and user/attribute lookups.
package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/exist/internal/models"
	"github.com/harperreed/exist/internal/storage"
)

func parseTime(s string) (time.Time, error) {
	formats := []string{
		"2006-01-02 15:04",
		"2006-01-02T15:04",
		"2006-01-02",
		time.RFC3339,
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time format")
}

// parseDay parses YYYY-MM-DD, defaulting to today when s is empty.
func parseDay(s string) (time.Time, error) {
	if s == "" {
		return models.Day(time.Now()), nil
	}
	t, err := time.Parse(models.DayLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day %q (use YYYY-MM-DD)", s)
	}
	return t, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func padRight(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}

func lookupUser(username string) (*models.User, error) {
	u, err := repo.GetUser(username)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("unknown user: %s", username)
	}
	return u, err
}

func lookupAttribute(name string) (*models.Attribute, error) {
	a, err := repo.GetAttribute(name)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("unknown attribute: %s", name)
	}
	return a, err
}

// lookupTracked returns the user's subscription to an attribute.
func lookupTracked(username, attribute string) (*models.User, *models.UserAttribute, error) {
	u, err := lookupUser(username)
	if err != nil {
		return nil, nil, err
	}
	ua, err := repo.GetUserAttribute(u.ID, attribute)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil, fmt.Errorf("%s is not tracking %s", username, attribute)
	}
	if err != nil {
		return nil, nil, err
	}
	return u, ua, nil
}
