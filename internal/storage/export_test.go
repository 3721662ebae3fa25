// ABOUTME: Tests for export and import functionality.
// ABOUTME: Verifies JSON and YAML export plus the Markdown dashboard.
package storage

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/harperreed/exist/internal/models"
	"gopkg.in/yaml.v3"
)

// seedDashboard gives harper two days of steps, one day of sleep, a mood
// event and a page log.
func seedDashboard(t *testing.T, r Repository) *models.User {
	t.Helper()
	u, attrs := seedUser(t, r)

	records, err := r.ListUserAttributes(u.ID)
	if err != nil {
		t.Fatalf("ListUserAttributes failed: %v", err)
	}
	byName := make(map[string]*models.UserAttribute)
	for _, ua := range records {
		byName[ua.Name()] = ua
	}

	points := []struct {
		name string
		day  int
		raw  any
	}{
		{"steps", 1, 8000},
		{"steps", 2, 9500},
		{"sleep", 2, 450},
	}
	for _, p := range points {
		point := models.NewUserAttributeData(byName[p.name], time.Date(2025, 3, p.day, 0, 0, 0, 0, time.UTC))
		if err := point.SetValue(p.raw); err != nil {
			t.Fatalf("SetValue failed: %v", err)
		}
		if err := r.PutUserAttributeData(point); err != nil {
			t.Fatalf("PutUserAttributeData failed: %v", err)
		}
	}

	e := models.NewEvent(u.ID, attrs["mood"], time.Date(2025, 3, 2, 8, 0, 0, 0, time.UTC)).WithValue(4)
	if err := r.CreateEvent(e); err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}
	if err := r.CreateUserLog(models.NewUserLog(u.ID, "dashboard", "view")); err != nil {
		t.Fatalf("CreateUserLog failed: %v", err)
	}
	return u
}

func TestExportJSON(t *testing.T) {
	db := setupTestDB(t)
	seedDashboard(t, db)

	data, err := ExportJSON(db)
	if err != nil {
		t.Fatalf("ExportJSON failed: %v", err)
	}

	var export ExportData
	if err := json.Unmarshal(data, &export); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}

	if export.Tool != "exist" || export.Version != "1.0" {
		t.Errorf("unexpected header: tool=%s version=%s", export.Tool, export.Version)
	}
	counts := map[string][2]int{
		"users":           {len(export.Users), 1},
		"groups":          {len(export.AttributeGroups), 2},
		"attributes":      {len(export.Attributes), 3},
		"user_attributes": {len(export.UserAttributes), 3},
		"data":            {len(export.Data), 3},
		"events":          {len(export.Events), 1},
		"logs":            {len(export.Logs), 1},
	}
	for name, c := range counts {
		if c[0] != c[1] {
			t.Errorf("%s: got %d, want %d", name, c[0], c[1])
		}
	}

	if !strings.Contains(string(data), `"int_value": 9500`) {
		t.Error("expected data to carry the int slot")
	}
}

func TestExportJSONEmpty(t *testing.T) {
	db := setupTestDB(t)

	data, err := ExportJSON(db)
	if err != nil {
		t.Fatalf("ExportJSON failed: %v", err)
	}
	export, err := ParseJSON(data)
	if err != nil {
		t.Fatalf("ParseJSON failed: %v", err)
	}
	if len(export.Users) != 0 || len(export.Data) != 0 {
		t.Errorf("expected empty export, got %d users", len(export.Users))
	}
}

func TestParseJSONInvalid(t *testing.T) {
	if _, err := ParseJSON([]byte("{not json")); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestImportJSONRoundTrip(t *testing.T) {
	src := setupTestDB(t)
	seedDashboard(t, src)

	raw, err := ExportJSON(src)
	if err != nil {
		t.Fatalf("ExportJSON failed: %v", err)
	}
	export, err := ParseJSON(raw)
	if err != nil {
		t.Fatalf("ParseJSON failed: %v", err)
	}

	dst := setupTestDB(t)
	if err := dst.ImportData(export); err != nil {
		t.Fatalf("ImportData failed: %v", err)
	}

	u, err := dst.GetUser("harper")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	records, err := dst.ListUserAttributes(u.ID)
	if err != nil {
		t.Fatalf("ListUserAttributes failed: %v", err)
	}
	for _, ua := range records {
		if ua.Name() != "steps" {
			continue
		}
		if len(ua.Data) != 2 || ua.Data[0].Value().Int() != 9500 {
			t.Errorf("steps series not restored: %d points", len(ua.Data))
		}
		if ua.Group() == nil || ua.Group().Name != "activity" {
			t.Errorf("steps group not restored: %v", ua.Group())
		}
	}

	// Importing twice collides on unique keys.
	if err := dst.ImportData(export); !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict on re-import, got %v", err)
	}
}

func TestExportYAML(t *testing.T) {
	db := setupTestDB(t)
	seedDashboard(t, db)

	data, err := ExportYAML(db)
	if err != nil {
		t.Fatalf("ExportYAML failed: %v", err)
	}

	var parsed struct {
		Tool  string `yaml:"tool"`
		Users []struct {
			Username   string `yaml:"username"`
			Attributes []struct {
				Attribute string `yaml:"attribute"`
				Type      string `yaml:"type"`
				Group     string `yaml:"group"`
				Values    []struct {
					Day   string `yaml:"day"`
					Value string `yaml:"value"`
				} `yaml:"values"`
			} `yaml:"attributes"`
			Events []struct {
				Attribute string `yaml:"attribute"`
			} `yaml:"events"`
		} `yaml:"users"`
	}
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("Failed to parse YAML: %v", err)
	}

	if parsed.Tool != "exist" || len(parsed.Users) != 1 {
		t.Fatalf("unexpected YAML: %s", data)
	}
	user := parsed.Users[0]
	if len(user.Attributes) != 3 {
		t.Fatalf("expected 3 attributes, got %d", len(user.Attributes))
	}
	found := false
	for _, a := range user.Attributes {
		if a.Attribute == "sleep" {
			found = true
			if a.Type != "period" || a.Group != "health" {
				t.Errorf("sleep metadata: type=%s group=%s", a.Type, a.Group)
			}
			if len(a.Values) != 1 || a.Values[0].Value != "7h 30m" || a.Values[0].Day != "2025-03-02" {
				t.Errorf("sleep values: %+v", a.Values)
			}
		}
	}
	if !found {
		t.Error("sleep missing from YAML export")
	}
	if len(user.Events) != 1 || user.Events[0].Attribute != "mood" {
		t.Errorf("events: %+v", user.Events)
	}
}

func TestExportMarkdown(t *testing.T) {
	db := setupTestDB(t)
	seedDashboard(t, db)

	md, err := ExportMarkdown(db, "harper", false)
	if err != nil {
		t.Fatalf("ExportMarkdown failed: %v", err)
	}

	for _, want := range []string{
		"# harper - ",
		"**Score:** 9950",
		"## Activity",
		"| Steps | 9500 | 2025-03-02 | tracked |",
		"## Health",
		"| Time asleep | 7h 30m | 2025-03-02 | tracked |",
		"## ungrouped",
		"| Mood | - | - | tracked |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q\n%s", want, md)
		}
	}
	if strings.Index(md, "## Activity") > strings.Index(md, "## Health") {
		t.Error("expected Activity (priority 1) before Health (priority 2)")
	}
}

func TestExportMarkdownInactive(t *testing.T) {
	db := setupTestDB(t)
	u := seedDashboard(t, db)

	ua, _ := db.GetUserAttribute(u.ID, "sleep")
	ua.Active = false
	ua.Private = true
	if err := db.UpdateUserAttribute(ua); err != nil {
		t.Fatalf("UpdateUserAttribute failed: %v", err)
	}

	md, _ := ExportMarkdown(db, "harper", false)
	if strings.Contains(md, "Time asleep") {
		t.Error("inactive attribute should be hidden by default")
	}

	all, _ := ExportMarkdown(db, "harper", true)
	if !strings.Contains(all, "| Time asleep | 7h 30m | 2025-03-02 | inactive, private |") {
		t.Errorf("expected inactive row with --all\n%s", all)
	}
}

func TestExportMarkdownUnknownUser(t *testing.T) {
	db := setupTestDB(t)

	if _, err := ExportMarkdown(db, "ghost", false); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRenderMarkdownEmpty(t *testing.T) {
	db := setupTestDB(t)
	if err := db.CreateUser(models.NewUser("empty")); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	user, agg, err := LoadDashboard(db, "empty")
	if err != nil {
		t.Fatalf("LoadDashboard failed: %v", err)
	}
	md := RenderMarkdown(user, agg, false, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	if !strings.Contains(md, "# empty - 2025-03-10") || !strings.Contains(md, "_No tracked attributes._") {
		t.Errorf("unexpected empty dashboard:\n%s", md)
	}
	if !strings.Contains(md, "**Score:** 0") {
		t.Errorf("expected zero score:\n%s", md)
	}
}
