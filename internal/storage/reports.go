// ABOUTME: Activity log reports: most active users, most active days, popular pages.
// ABOUTME: SQL implementations for SQLite plus in-memory versions for key-value backends.
package storage

import (
	"cmp"
	"database/sql"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/exist/internal/models"
)

// Page and action recorded when a user opens the account deletion page.
const (
	DeletePage   = "account_delete"
	DeleteAction = "view"
)

// Period is a half-open time window [Start, End).
type Period struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// DaysAgo returns the window from start days before today through the end
// of the day end days before today. DaysAgo(now, 7, 0) covers the last
// week including today. Days are UTC calendar days, matching stored times.
func DaysAgo(now time.Time, start, end int) Period {
	today := models.Day(now.UTC())
	return Period{
		Start: today.AddDate(0, 0, -start),
		End:   today.AddDate(0, 0, 1-end),
	}
}

// PopularDaysAgo is DaysAgo with the window ending at the start of the day
// end days before today, so today itself is excluded when end is 0.
func PopularDaysAgo(now time.Time, start, end int) Period {
	today := models.Day(now.UTC())
	return Period{
		Start: today.AddDate(0, 0, -start),
		End:   today.AddDate(0, 0, -end),
	}
}

// UserActivity is a user ranked by a count of log entries or days.
type UserActivity struct {
	User  *models.User `json:"user"`
	Count int          `json:"count"`
}

// PageActivity is a page, action and args combination ranked by occurrences.
type PageActivity struct {
	Page   string  `json:"page"`
	Action string  `json:"action"`
	Args   *string `json:"args,omitempty"`
	Count  int     `json:"count"`
}

// DeleteView is the latest time an active user opened the deletion page.
type DeleteView struct {
	User     *models.User `json:"user"`
	ViewedAt time.Time    `json:"viewed_at"`
}

// MostActiveInPeriod ranks users by number of log entries in the window.
func (d *DB) MostActiveInPeriod(p Period, limit int) ([]*UserActivity, error) {
	return d.rankUsers(`COUNT(l.id)`, p, limit)
}

// MostActiveDays ranks users by number of distinct days with log entries.
func (d *DB) MostActiveDays(p Period, limit int) ([]*UserActivity, error) {
	return d.rankUsers(`COUNT(DISTINCT substr(l.created_at, 1, 10))`, p, limit)
}

func (d *DB) rankUsers(countExpr string, p Period, limit int) ([]*UserActivity, error) {
	query := `
		SELECT u.id, u.username, u.email, u.timezone, u.bio, u.url, u.country, u.private,
			u.imperial_units, u.weekly_email, u.is_active, u.last_seen_activity, u.created_at,
			` + countExpr + ` AS activity
		FROM user_logs l
		JOIN users u ON l.user_id = u.id
		WHERE l.created_at >= ? AND l.created_at < ?
		GROUP BY u.id
		ORDER BY activity DESC, u.username`
	args := []any{formatTime(p.Start), formatTime(p.End)}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query user activity: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ranked []*UserActivity
	for rows.Next() {
		var count int
		u, err := scanUser(scannerWithTail{rows, []any{&count}})
		if err != nil {
			return nil, fmt.Errorf("scan user activity: %w", err)
		}
		ranked = append(ranked, &UserActivity{User: u, Count: count})
	}
	return ranked, rows.Err()
}

// MostPopularInPeriod ranks page, action and args combinations by count.
func (d *DB) MostPopularInPeriod(p Period, limit int) ([]*PageActivity, error) {
	query := `
		SELECT page, action, args, COUNT(*) AS hits
		FROM user_logs
		WHERE created_at >= ? AND created_at < ?
		GROUP BY page, action, args
		ORDER BY hits DESC, page, action, args`
	args := []any{formatTime(p.Start), formatTime(p.End)}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query popular pages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ranked []*PageActivity
	for rows.Next() {
		var pa PageActivity
		var pageArgs sql.NullString
		if err := rows.Scan(&pa.Page, &pa.Action, &pageArgs, &pa.Count); err != nil {
			return nil, fmt.Errorf("scan popular page: %w", err)
		}
		pa.Args = stringPtr(pageArgs)
		ranked = append(ranked, &pa)
	}
	return ranked, rows.Err()
}

// ViewedDeleteInPeriod lists active users who opened the deletion page in
// the window, most recent view first.
func (d *DB) ViewedDeleteInPeriod(p Period) ([]*DeleteView, error) {
	rows, err := d.db.Query(`
		SELECT u.id, u.username, u.email, u.timezone, u.bio, u.url, u.country, u.private,
			u.imperial_units, u.weekly_email, u.is_active, u.last_seen_activity, u.created_at,
			MAX(l.created_at) AS viewed
		FROM user_logs l
		JOIN users u ON l.user_id = u.id
		WHERE l.page = ? AND l.action = ? AND u.is_active = 1
			AND l.created_at >= ? AND l.created_at < ?
		GROUP BY u.id
		ORDER BY viewed DESC`,
		DeletePage, DeleteAction, formatTime(p.Start), formatTime(p.End))
	if err != nil {
		return nil, fmt.Errorf("query delete views: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var views []*DeleteView
	for rows.Next() {
		var viewed string
		u, err := scanUser(scannerWithTail{rows, []any{&viewed}})
		if err != nil {
			return nil, fmt.Errorf("scan delete view: %w", err)
		}
		views = append(views, &DeleteView{User: u, ViewedAt: parseTime(viewed)})
	}
	return views, rows.Err()
}

// scannerWithTail appends extra destinations after the user columns.
type scannerWithTail struct {
	rowScanner
	tail []any
}

func (s scannerWithTail) Scan(dest ...any) error {
	return s.rowScanner.Scan(append(dest, s.tail...)...)
}

// RankActiveUsers is the in-memory form of MostActiveInPeriod.
func RankActiveUsers(users []*models.User, logs []*models.UserLog, p Period, limit int) []*UserActivity {
	counts := make(map[uuid.UUID]int)
	for _, l := range logs {
		if p.Contains(l.CreatedAt) {
			counts[l.UserID]++
		}
	}
	return rankCounts(users, counts, limit)
}

// RankActiveDays is the in-memory form of MostActiveDays.
func RankActiveDays(users []*models.User, logs []*models.UserLog, p Period, limit int) []*UserActivity {
	days := make(map[uuid.UUID]map[time.Time]bool)
	for _, l := range logs {
		if !p.Contains(l.CreatedAt) {
			continue
		}
		if days[l.UserID] == nil {
			days[l.UserID] = make(map[time.Time]bool)
		}
		days[l.UserID][models.Day(l.CreatedAt.UTC())] = true
	}
	counts := make(map[uuid.UUID]int, len(days))
	for id, set := range days {
		counts[id] = len(set)
	}
	return rankCounts(users, counts, limit)
}

func rankCounts(users []*models.User, counts map[uuid.UUID]int, limit int) []*UserActivity {
	var ranked []*UserActivity
	for _, u := range users {
		if n := counts[u.ID]; n > 0 {
			ranked = append(ranked, &UserActivity{User: u, Count: n})
		}
	}
	slices.SortFunc(ranked, func(a, b *UserActivity) int {
		return cmp.Or(cmp.Compare(b.Count, a.Count), cmp.Compare(a.User.Username, b.User.Username))
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// RankPopularPages is the in-memory form of MostPopularInPeriod.
func RankPopularPages(logs []*models.UserLog, p Period, limit int) []*PageActivity {
	type key struct {
		page, action, args string
		hasArgs            bool
	}
	counts := make(map[key]*PageActivity)
	var ranked []*PageActivity
	for _, l := range logs {
		if !p.Contains(l.CreatedAt) {
			continue
		}
		k := key{page: l.Page, action: l.Action}
		if l.Args != nil {
			k.args, k.hasArgs = *l.Args, true
		}
		pa, ok := counts[k]
		if !ok {
			pa = &PageActivity{Page: l.Page, Action: l.Action, Args: l.Args}
			counts[k] = pa
			ranked = append(ranked, pa)
		}
		pa.Count++
	}
	slices.SortFunc(ranked, func(a, b *PageActivity) int {
		return cmp.Or(
			cmp.Compare(b.Count, a.Count),
			cmp.Compare(a.Page, b.Page),
			cmp.Compare(a.Action, b.Action),
			compareArgs(a.Args, b.Args),
		)
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// compareArgs orders absent args first, matching SQL NULL ordering.
func compareArgs(a, b *string) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return cmp.Compare(*a, *b)
	}
}

// FindDeleteViews is the in-memory form of ViewedDeleteInPeriod.
func FindDeleteViews(users []*models.User, logs []*models.UserLog, p Period) []*DeleteView {
	latest := make(map[uuid.UUID]time.Time)
	for _, l := range logs {
		if l.Page != DeletePage || l.Action != DeleteAction || !p.Contains(l.CreatedAt) {
			continue
		}
		if t, ok := latest[l.UserID]; !ok || l.CreatedAt.After(t) {
			latest[l.UserID] = l.CreatedAt
		}
	}

	var views []*DeleteView
	for _, u := range users {
		if t, ok := latest[u.ID]; ok && u.IsActive {
			views = append(views, &DeleteView{User: u, ViewedAt: t})
		}
	}
	slices.SortFunc(views, func(a, b *DeleteView) int {
		return b.ViewedAt.Compare(a.ViewedAt)
	})
	return views
}
