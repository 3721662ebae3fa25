// ABOUTME: Events, activity logs and log reports for Charm KV storage.
// ABOUTME: Reports reuse the in-memory rankings shared with other key-value backends.
package charm

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/harperreed/exist/internal/models"
	"github.com/harperreed/exist/internal/storage"
)

// CreateEvent stores an event. Events are unique per user, attribute and time.
func (c *Client) CreateEvent(e *models.Event) error {
	events, err := c.ListEvents(e.UserID, 0)
	if err != nil {
		return err
	}
	for _, other := range events {
		if other.AttributeID == e.AttributeID && other.Time.Equal(e.Time) {
			return fmt.Errorf("insert event: %w", storage.ErrConflict)
		}
	}
	return c.insert(EventPrefix+e.ID.String(), e)
}

// ListEvents returns a user's events newest first. A limit of 0 returns all.
func (c *Client) ListEvents(userID uuid.UUID, limit int) ([]*models.Event, error) {
	all, err := listAll[models.Event](c, EventPrefix)
	if err != nil {
		return nil, err
	}
	var events []*models.Event
	for _, e := range all {
		if e.UserID == userID {
			events = append(events, e)
		}
	}
	slices.SortFunc(events, func(a, b *models.Event) int {
		return b.Time.Compare(a.Time)
	})
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

// CreateUserLog records a page view or action.
func (c *Client) CreateUserLog(l *models.UserLog) error {
	return c.insert(LogPrefix+l.ID.String(), l)
}

// ListUserLogs returns a user's logs newest first. A limit of 0 returns all.
func (c *Client) ListUserLogs(userID uuid.UUID, limit int) ([]*models.UserLog, error) {
	all, err := c.allLogs()
	if err != nil {
		return nil, err
	}
	var logs []*models.UserLog
	for _, l := range all {
		if l.UserID == userID {
			logs = append(logs, l)
		}
	}
	slices.SortFunc(logs, func(a, b *models.UserLog) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if limit > 0 && len(logs) > limit {
		logs = logs[:limit]
	}
	return logs, nil
}

func (c *Client) allLogs() ([]*models.UserLog, error) {
	return listAll[models.UserLog](c, LogPrefix)
}

func (c *Client) usersAndLogs() ([]*models.User, []*models.UserLog, error) {
	users, err := c.ListUsers()
	if err != nil {
		return nil, nil, err
	}
	logs, err := c.allLogs()
	if err != nil {
		return nil, nil, err
	}
	return users, logs, nil
}

// MostActiveInPeriod ranks users by number of log entries in the window.
func (c *Client) MostActiveInPeriod(p storage.Period, limit int) ([]*storage.UserActivity, error) {
	users, logs, err := c.usersAndLogs()
	if err != nil {
		return nil, err
	}
	return storage.RankActiveUsers(users, logs, p, limit), nil
}

// MostActiveDays ranks users by number of distinct days with log entries.
func (c *Client) MostActiveDays(p storage.Period, limit int) ([]*storage.UserActivity, error) {
	users, logs, err := c.usersAndLogs()
	if err != nil {
		return nil, err
	}
	return storage.RankActiveDays(users, logs, p, limit), nil
}

// MostPopularInPeriod ranks page, action and args combinations by count.
func (c *Client) MostPopularInPeriod(p storage.Period, limit int) ([]*storage.PageActivity, error) {
	logs, err := c.allLogs()
	if err != nil {
		return nil, err
	}
	return storage.RankPopularPages(logs, p, limit), nil
}

// ViewedDeleteInPeriod lists active users who opened the deletion page.
func (c *Client) ViewedDeleteInPeriod(p storage.Period) ([]*storage.DeleteView, error) {
	users, logs, err := c.usersAndLogs()
	if err != nil {
		return nil, err
	}
	return storage.FindDeleteViews(users, logs, p), nil
}

// GetAllData retrieves all data for export.
func (c *Client) GetAllData() (*storage.ExportData, error) {
	return storage.ExportAll(c)
}

// ImportData imports data from an export file.
func (c *Client) ImportData(data *storage.ExportData) error {
	_, err := storage.ImportAll(c, data)
	return err
}
