// ABOUTME: Tests for attribute grouping and scoring.
// ABOUTME: Covers filtering, ordering quirks, absent values, and memoization.
package aggregate

import (
	"encoding/json"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/exist/internal/models"
)

var testUser = uuid.New()

func group(name string, priority int) *models.AttributeGroup {
	return models.NewAttributeGroup(name, strings.ToUpper(name)).WithPriority(priority)
}

func attr(name string, priority int, vt models.ValueType, g *models.AttributeGroup) *models.Attribute {
	return models.NewAttribute(name, name, vt).WithPriority(priority).WithGroup(g)
}

// track subscribes testUser to a and records values on consecutive days,
// oldest first.
func track(t *testing.T, a *models.Attribute, values ...any) *models.UserAttribute {
	t.Helper()
	ua := models.NewUserAttribute(testUser, a)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, raw := range values {
		d := models.NewUserAttributeData(ua, start.AddDate(0, 0, i))
		if raw != nil {
			if err := d.SetValue(raw); err != nil {
				t.Fatalf("SetValue(%v) for %s: %v", raw, a.Name, err)
			}
		}
		// newest day first, as the store returns it
		ua.Data = append([]*models.UserAttributeData{d}, ua.Data...)
	}
	return ua
}

func names(list []*models.UserAttribute) []string {
	out := make([]string, len(list))
	for i, ua := range list {
		out[i] = ua.Name()
	}
	return out
}

func TestByGroupBasicOrdering(t *testing.T) {
	g1 := group("g1", 1)
	a := track(t, attr("a", 1, models.TypeInteger, g1))
	b := track(t, attr("b", 2, models.TypeInteger, g1))
	c := track(t, attr("c", 1, models.TypeInteger, nil))

	grouping := New([]*models.UserAttribute{a, b, c}).ByGroup(false)

	if got := grouping.Names(); !slices.Equal(got, []string{"g1", UngroupedKey}) {
		t.Fatalf("Names() = %v, want [g1 ungrouped]", got)
	}
	g, _ := grouping.Get("g1")
	if got := names(g.Attributes); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("g1 attributes = %v, want [a b]", got)
	}
	if g.Label != "G1" || g.Priority != 1 {
		t.Errorf("g1 metadata = %q/%d", g.Label, g.Priority)
	}
	u, _ := grouping.Get(UngroupedKey)
	if got := names(u.Attributes); !slices.Equal(got, []string{"c"}) {
		t.Errorf("ungrouped attributes = %v, want [c]", got)
	}
}

func TestByGroupInactiveToggle(t *testing.T) {
	g1 := group("g1", 1)
	a := track(t, attr("a", 1, models.TypeInteger, g1))
	b := track(t, attr("b", 2, models.TypeInteger, g1))
	b.Active = false

	agg := New([]*models.UserAttribute{a, b})

	active, _ := agg.ByGroup(false).Get("g1")
	if got := names(active.Attributes); !slices.Equal(got, []string{"a"}) {
		t.Errorf("active-only g1 = %v, want [a]", got)
	}

	all, _ := agg.ByGroupAll().Get("g1")
	if got := names(all.Attributes); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("all g1 = %v, want [a b]", got)
	}
}

func TestByGroupOmitsUnusedGroups(t *testing.T) {
	used := group("used", 1)
	idle := group("idle", 0)
	a := track(t, attr("a", 1, models.TypeInteger, used))
	b := track(t, attr("b", 1, models.TypeInteger, idle))
	b.Active = false

	grouping := New([]*models.UserAttribute{a, b}).ByGroup(false)
	if got := grouping.Names(); !slices.Equal(got, []string{"used"}) {
		t.Errorf("Names() = %v, want [used]", got)
	}
	if _, ok := grouping.Get(UngroupedKey); ok {
		t.Error("empty ungrouped bucket should be omitted")
	}
}

func TestByGroupOrdersGroupsByPriorityThenName(t *testing.T) {
	gb := group("b", 1)
	ga := group("a", 1)
	gc := group("c", 0)
	records := []*models.UserAttribute{
		track(t, attr("x", 1, models.TypeInteger, gb)),
		track(t, attr("y", 1, models.TypeInteger, ga)),
		track(t, attr("z", 1, models.TypeInteger, gc)),
	}

	got := New(records).ByGroup(false).Names()
	if !slices.Equal(got, []string{"c", "a", "b"}) {
		t.Errorf("Names() = %v, want [c a b]", got)
	}
}

func TestByGroupInsertsAtPriorityIndex(t *testing.T) {
	g := group("g", 1)

	t.Run("equal priorities displace forward", func(t *testing.T) {
		p := track(t, attr("p", 1, models.TypeInteger, g))
		q := track(t, attr("q", 1, models.TypeInteger, g))
		r := track(t, attr("r", 1, models.TypeInteger, g))

		bucket, _ := New([]*models.UserAttribute{p, q, r}).ByGroup(false).Get("g")
		if got := names(bucket.Attributes); !slices.Equal(got, []string{"p", "r", "q"}) {
			t.Errorf("attributes = %v, want [p r q]", got)
		}
	})

	t.Run("zero priority prepends", func(t *testing.T) {
		x := track(t, attr("x", 0, models.TypeInteger, g))
		y := track(t, attr("y", 0, models.TypeInteger, g))

		bucket, _ := New([]*models.UserAttribute{x, y}).ByGroup(false).Get("g")
		if got := names(bucket.Attributes); !slices.Equal(got, []string{"y", "x"}) {
			t.Errorf("attributes = %v, want [y x]", got)
		}
	})

	t.Run("large priority appends", func(t *testing.T) {
		x := track(t, attr("x", 5, models.TypeInteger, g))
		y := track(t, attr("y", 20, models.TypeInteger, g))

		bucket, _ := New([]*models.UserAttribute{y, x}).ByGroup(false).Get("g")
		if got := names(bucket.Attributes); !slices.Equal(got, []string{"x", "y"}) {
			t.Errorf("attributes = %v, want [x y]", got)
		}
	})

	t.Run("negative priority counts from end", func(t *testing.T) {
		x := track(t, attr("x", -1, models.TypeInteger, g))
		y := track(t, attr("y", 3, models.TypeInteger, g))
		z := track(t, attr("z", 4, models.TypeInteger, g))

		// x goes first into an empty list, then y and z append.
		bucket, _ := New([]*models.UserAttribute{z, y, x}).ByGroup(false).Get("g")
		if got := names(bucket.Attributes); !slices.Equal(got, []string{"x", "y", "z"}) {
			t.Errorf("attributes = %v, want [x y z]", got)
		}

		v := track(t, attr("v", -2, models.TypeInteger, g))
		w := track(t, attr("w", -1, models.TypeInteger, g))
		bucket, _ = New([]*models.UserAttribute{w, v}).ByGroup(false).Get("g")
		// sorted: v(-2), w(-1); w inserts one back from the end of [v]
		if got := names(bucket.Attributes); !slices.Equal(got, []string{"w", "v"}) {
			t.Errorf("attributes = %v, want [w v]", got)
		}
	})
}

func TestByGroupEmpty(t *testing.T) {
	grouping := New(nil).ByGroup(false)
	if grouping.Len() != 0 {
		t.Errorf("Len() = %d, want 0", grouping.Len())
	}
	data, err := json.Marshal(grouping)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != "{}" {
		t.Errorf("JSON = %s, want {}", data)
	}
}

func TestByGroupRealGroupNamedUngrouped(t *testing.T) {
	odd := group(UngroupedKey, 0)
	other := group("other", 5)
	a := track(t, attr("a", 1, models.TypeInteger, odd))
	b := track(t, attr("b", 1, models.TypeInteger, other))
	c := track(t, attr("c", 1, models.TypeInteger, nil))

	grouping := New([]*models.UserAttribute{a, b, c}).ByGroup(false)
	if got := grouping.Names(); !slices.Equal(got, []string{UngroupedKey, "other"}) {
		t.Fatalf("Names() = %v, want bucket to replace in place", got)
	}
	u, _ := grouping.Get(UngroupedKey)
	if got := names(u.Attributes); !slices.Equal(got, []string{"c"}) {
		t.Errorf("ungrouped = %v, want [c]", got)
	}
}

func TestGroupingJSONIsOrdered(t *testing.T) {
	late := group("late", 9)
	early := group("early", 1)
	records := []*models.UserAttribute{
		track(t, attr("steps", 1, models.TypeInteger, late), 9000),
		track(t, attr("sleep", 1, models.TypePeriod, early), 450),
	}

	data, err := json.Marshal(New(records).ByGroup(false))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	s := string(data)
	if strings.Index(s, `"early"`) > strings.Index(s, `"late"`) {
		t.Errorf("expected early before late in %s", s)
	}
	if !strings.Contains(s, `"formatted":"7h 30m"`) {
		t.Errorf("expected formatted sleep value in %s", s)
	}
}

func TestScoreFiltersAndSums(t *testing.T) {
	g := group("g", 1)
	records := []*models.UserAttribute{
		track(t, attr("steps", 1, models.TypeInteger, g), 100, 200),
		track(t, attr("weight", 2, models.TypeFloat, g), 80.25),
		track(t, attr("mood_note", 1, models.TypeString, g), "ok"),
		track(t, attr("edge", 9, models.TypeInteger, g), 7),
		track(t, attr("obscure", 10, models.TypeInteger, g), 1000),
		track(t, attr("productivity", 3, models.TypePercentage, nil), 50.5),
		track(t, attr("bedtime", 4, models.TypeTimeOfDayMidday, nil), 660),
	}
	inactive := track(t, attr("coffee", 1, models.TypeInteger, g), 3)
	inactive.Active = false
	records = append(records, inactive)

	// 200 + 80.25 + 7 + 50.5 + 660
	if got := New(records).Score(); got != 997.75 {
		t.Errorf("Score() = %v, want 997.75", got)
	}
}

func TestScoreIgnoresEmptySeries(t *testing.T) {
	empty := track(t, attr("hrv", 1, models.TypeInteger, nil))
	nullDay := track(t, attr("steps", 1, models.TypeInteger, nil), 500, nil)

	if _, ok := CurrentValue(empty); ok {
		t.Error("empty series should report absent")
	}
	if _, ok := CurrentValue(nullDay); ok {
		t.Error("null latest value should report absent")
	}
	if got := New([]*models.UserAttribute{empty, nullDay}).Score(); got != 0 {
		t.Errorf("Score() = %v, want 0", got)
	}
	view := View(empty)
	if view.Value != nil || view.Formatted != "-" {
		t.Errorf("absent view = %#v", view)
	}
}

func TestCurrentValueUsesLatestDay(t *testing.T) {
	ua := track(t, attr("weight", 1, models.TypeFloat, nil), 80.0, 81.0, 82.0)
	// reverse to oldest-first; the latest day must still win
	for i, j := 0, len(ua.Data)-1; i < j; i, j = i+1, j-1 {
		ua.Data[i], ua.Data[j] = ua.Data[j], ua.Data[i]
	}
	v, ok := CurrentValue(ua)
	if !ok || v.Float() != 82.0 {
		t.Errorf("CurrentValue = %v, %v; want 82", v.Interface(), ok)
	}
}

func TestScoreIsMemoized(t *testing.T) {
	ua := track(t, attr("steps", 1, models.TypeInteger, nil), 10)
	agg := New([]*models.UserAttribute{ua})

	first := agg.Score()
	if err := ua.Data[0].SetValue(99); err != nil {
		t.Fatalf("SetValue failed: %v", err)
	}
	if second := agg.Score(); second != first {
		t.Errorf("Score changed within one aggregator: %v then %v", first, second)
	}
	if fresh := New([]*models.UserAttribute{ua}).Score(); fresh != 99 {
		t.Errorf("new aggregator Score() = %v, want 99", fresh)
	}
}

func TestHighPriorityOrdering(t *testing.T) {
	g1 := group("g1", 1)
	g2 := group("g2", 2)
	records := []*models.UserAttribute{
		track(t, attr("late", 1, models.TypeInteger, g2)),
		track(t, attr("b", 3, models.TypeInteger, g1)),
		track(t, attr("a", 2, models.TypeInteger, g1)),
		track(t, attr("loose", 5, models.TypeInteger, nil)),
	}

	got := names(New(records).HighPriority())
	if !slices.Equal(got, []string{"loose", "a", "b", "late"}) {
		t.Errorf("HighPriority() = %v, want [loose a b late]", got)
	}
}

func TestPublicViews(t *testing.T) {
	steps := track(t, attr("steps", 1, models.TypeInteger, nil), 10)
	weight := track(t, attr("weight", 2, models.TypeFloat, nil), 80.0)
	weight.Private = true
	mood := track(t, attr("mood", 3, models.TypeInteger, nil), 4)
	mood.Active = false

	agg := New([]*models.UserAttribute{steps, weight, mood})

	if got := names(agg.PublicHighPriority()); !slices.Equal(got, []string{"steps"}) {
		t.Errorf("PublicHighPriority() = %v", got)
	}
	byName := agg.ByName()
	if len(byName) != 2 || byName["weight"] != weight {
		t.Errorf("ByName() = %v", byName)
	}
	public := agg.PublicByName()
	if len(public) != 1 || public["steps"] != steps {
		t.Errorf("PublicByName() = %v", public)
	}
	if got := names(agg.Active()); !slices.Equal(got, []string{"steps", "weight"}) {
		t.Errorf("Active() = %v", got)
	}
}

func TestAvailableServices(t *testing.T) {
	sleep := attr("sleep", 1, models.TypePeriod, nil)
	steps := attr("steps", 1, models.TypeInteger, nil)
	ua := track(t, sleep)

	fitbit := models.NewService("fitbit", "Fitbit").WithAttributes(sleep, steps)
	oura := models.NewService("oura", "Oura").WithAttributes(sleep)
	withings := models.NewService("withings", "Withings").WithAttributes(sleep)
	jawbone := models.NewService("jawbone", "Jawbone").WithAttributes(steps)

	profiles := []*models.Profile{
		models.NewProfile(testUser, oura.ID),
		models.NewProfile(testUser, fitbit.ID),
		models.NewProfile(testUser, jawbone.ID),
		models.NewProfile(uuid.New(), withings.ID),
	}

	got := AvailableServices(ua, profiles, []*models.Service{oura, withings, jawbone, fitbit})
	if len(got) != 2 || got[0].Name != "Fitbit" || got[1].Name != "Oura" {
		t.Errorf("AvailableServices() = %v", got)
	}
}
