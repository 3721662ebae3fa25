// ABOUTME: Loads a user's aggregation snapshot and renders it as a Markdown dashboard.
// ABOUTME: Shared by the CLI, REST API and MCP server.
package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/exist/internal/aggregate"
	"github.com/harperreed/exist/internal/models"
)

// LoadDashboard fetches a user and builds an aggregator over their snapshot.
func LoadDashboard(r Repository, username string) (*models.User, *aggregate.Aggregator, error) {
	user, err := r.GetUser(username)
	if err != nil {
		return nil, nil, err
	}
	records, err := r.ListUserAttributes(user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("load attributes for %s: %w", username, err)
	}
	return user, aggregate.New(records), nil
}

// ExportMarkdown renders a user's grouped attributes, current values and score.
func ExportMarkdown(r Repository, username string, includeInactive bool) (string, error) {
	user, agg, err := LoadDashboard(r, username)
	if err != nil {
		return "", err
	}
	return RenderMarkdown(user, agg, includeInactive, time.Now()), nil
}

// RenderMarkdown writes the dashboard for an already-loaded aggregator.
func RenderMarkdown(user *models.User, agg *aggregate.Aggregator, includeInactive bool, now time.Time) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s - %s\n\n", user.Username, now.Format(models.DayLayout)))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", now.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("**Score:** %s\n\n", FormatScore(agg.Score())))

	grouping := agg.ByGroup(includeInactive)
	if grouping.Len() == 0 {
		sb.WriteString("_No tracked attributes._\n")
		return sb.String()
	}

	for _, g := range grouping.Groups() {
		title := g.Label
		if title == "" {
			title = g.Name
		}
		sb.WriteString(fmt.Sprintf("## %s\n\n", title))
		sb.WriteString("| Attribute | Value | Day | Status |\n")
		sb.WriteString("|-----------|-------|-----|--------|\n")
		for _, ua := range g.Attributes {
			value, day := "-", "-"
			if v, ok := aggregate.CurrentValue(ua); ok {
				value = v.Format()
				day = aggregate.Latest(ua).Day.Format(models.DayLayout)
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n", ua.Label(), value, day, status(ua)))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func status(ua *models.UserAttribute) string {
	var parts []string
	if !ua.Active {
		parts = append(parts, "inactive")
	}
	if ua.Private {
		parts = append(parts, "private")
	}
	if len(parts) == 0 {
		return "tracked"
	}
	return strings.Join(parts, ", ")
}

// FormatScore renders a score with at most two decimals.
func FormatScore(score float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", score), "0"), ".")
}
