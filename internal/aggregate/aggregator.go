// ABOUTME: Aggregates a user's attributes into priority-ordered groups and a score.
// ABOUTME: Works on an already-fetched snapshot; derived sets are memoized per instance.
package aggregate

import (
	"cmp"
	"slices"

	"github.com/google/uuid"
	"github.com/harperreed/exist/internal/models"
)

// Aggregator computes views over one user's attribute snapshot.
// Build one per request; it never queries the store.
type Aggregator struct {
	records []*models.UserAttribute

	highPriority []*models.UserAttribute
	active       []*models.UserAttribute
	score        *float64
}

// New creates an Aggregator over records. Each record must have its
// Attribute loaded; Data may be empty.
func New(records []*models.UserAttribute) *Aggregator {
	return &Aggregator{records: slices.Clone(records)}
}

// Records returns the snapshot the aggregator was built with.
func (a *Aggregator) Records() []*models.UserAttribute {
	return a.records
}

// HighPriority returns active, non-string records with priority at most 9,
// ordered by group priority then attribute priority. Ungrouped records
// sort ahead of grouped ones.
func (a *Aggregator) HighPriority() []*models.UserAttribute {
	if a.highPriority != nil {
		return a.highPriority
	}

	result := make([]*models.UserAttribute, 0, len(a.records))
	for _, ua := range a.records {
		if !ua.Active || ua.Attribute == nil {
			continue
		}
		if ua.Attribute.Priority > models.HighPriorityCutoff || ua.Attribute.ValueType == models.TypeString {
			continue
		}
		result = append(result, ua)
	}

	slices.SortStableFunc(result, func(x, y *models.UserAttribute) int {
		gx, gy := x.Group(), y.Group()
		switch {
		case gx == nil && gy != nil:
			return -1
		case gx != nil && gy == nil:
			return 1
		case gx != nil && gy != nil:
			if c := cmp.Compare(gx.Priority, gy.Priority); c != 0 {
				return c
			}
		}
		return cmp.Compare(x.Priority(), y.Priority())
	})

	a.highPriority = result
	return result
}

// PublicHighPriority returns HighPriority without private records.
func (a *Aggregator) PublicHighPriority() []*models.UserAttribute {
	var result []*models.UserAttribute
	for _, ua := range a.HighPriority() {
		if !ua.Private {
			result = append(result, ua)
		}
	}
	return result
}

// Active returns active records in snapshot order.
func (a *Aggregator) Active() []*models.UserAttribute {
	if a.active != nil {
		return a.active
	}
	result := make([]*models.UserAttribute, 0, len(a.records))
	for _, ua := range a.records {
		if ua.Active {
			result = append(result, ua)
		}
	}
	a.active = result
	return result
}

// ByName returns active records keyed by attribute name.
func (a *Aggregator) ByName() map[string]*models.UserAttribute {
	result := make(map[string]*models.UserAttribute)
	for _, ua := range a.Active() {
		result[ua.Name()] = ua
	}
	return result
}

// PublicByName returns active, non-private records keyed by attribute name.
func (a *Aggregator) PublicByName() map[string]*models.UserAttribute {
	result := make(map[string]*models.UserAttribute)
	for _, ua := range a.Active() {
		if !ua.Private {
			result[ua.Name()] = ua
		}
	}
	return result
}

// Score sums the current values of the high-priority records.
// Records with no data, a null value, or a string value contribute nothing.
func (a *Aggregator) Score() float64 {
	if a.score != nil {
		return *a.score
	}

	var total float64
	for _, ua := range a.HighPriority() {
		v, ok := CurrentValue(ua)
		if !ok {
			continue
		}
		if n, ok := v.Numeric(); ok {
			total += n
		}
	}

	a.score = &total
	return total
}

// ByGroup buckets records by attribute group. Inactive records are dropped
// unless includeInactive is set.
//
// Groups are ordered by (priority, name) and only groups in use appear.
// Within a group each record is inserted at index = attribute priority, so
// a later record can land ahead of earlier ones. Ungrouped records go to a
// trailing "ungrouped" bucket that exists only when non-empty.
func (a *Aggregator) ByGroup(includeInactive bool) *Grouping {
	var result []*models.UserAttribute
	for _, ua := range a.records {
		if ua.Attribute == nil {
			continue
		}
		if includeInactive || ua.Active {
			result = append(result, ua)
		}
	}
	slices.SortStableFunc(result, func(x, y *models.UserAttribute) int {
		return cmp.Compare(x.Priority(), y.Priority())
	})

	var used []*models.AttributeGroup
	seen := make(map[uuid.UUID]bool)
	for _, ua := range result {
		if g := ua.Group(); g != nil && !seen[g.ID] {
			seen[g.ID] = true
			used = append(used, g)
		}
	}
	slices.SortStableFunc(used, func(x, y *models.AttributeGroup) int {
		return cmp.Or(cmp.Compare(x.Priority, y.Priority), cmp.Compare(x.Name, y.Name))
	})

	grouping := newGrouping()
	for _, g := range used {
		if existing, ok := grouping.Get(g.Name); ok {
			existing.Priority = g.Priority
			existing.Label = g.Label
			continue
		}
		grouping.put(&Group{Name: g.Name, Priority: g.Priority, Label: g.Label})
	}

	var ungrouped []*models.UserAttribute
	for _, ua := range result {
		g := ua.Group()
		if g == nil {
			ungrouped = append(ungrouped, ua)
			continue
		}
		bucket, _ := grouping.Get(g.Name)
		bucket.Attributes = insertAt(bucket.Attributes, ua.Priority(), ua)
	}

	if len(ungrouped) > 0 {
		grouping.put(&Group{Name: UngroupedKey, Attributes: ungrouped})
	}
	return grouping
}

// ByGroupAll is ByGroup including inactive records.
func (a *Aggregator) ByGroupAll() *Grouping {
	return a.ByGroup(true)
}

// insertAt inserts ua before index i with list-insert semantics: an index
// past the end appends and a negative index counts back from the end.
func insertAt(list []*models.UserAttribute, i int, ua *models.UserAttribute) []*models.UserAttribute {
	n := len(list)
	if i < 0 {
		i += n
		if i < 0 {
			i = 0
		}
	}
	if i > n {
		i = n
	}
	return slices.Insert(list, i, ua)
}

// Latest returns the data point for the most recent day in ua's series,
// or nil when the series is empty. Same-day ties go to the later write.
func Latest(ua *models.UserAttribute) *models.UserAttributeData {
	var latest *models.UserAttributeData
	for _, d := range ua.Data {
		if latest == nil || d.Day.After(latest.Day) ||
			(d.Day.Equal(latest.Day) && d.CreatedAt.After(latest.CreatedAt)) {
			latest = d
		}
	}
	return latest
}

// CurrentValue returns the value from the most recent day in ua's series.
// It reports false when the series is empty or the latest value is null.
func CurrentValue(ua *models.UserAttribute) (models.Value, bool) {
	latest := Latest(ua)
	if latest == nil {
		return models.Value{}, false
	}
	v := latest.Value()
	if v.IsNull() {
		return v, false
	}
	return v, true
}

// AvailableServices returns the services the user has connected that can
// supply ua's attribute, ordered by name.
func AvailableServices(ua *models.UserAttribute, profiles []*models.Profile, services []*models.Service) []*models.Service {
	connected := make(map[uuid.UUID]bool)
	for _, p := range profiles {
		if p.UserID == ua.UserID {
			connected[p.ServiceID] = true
		}
	}

	var result []*models.Service
	for _, s := range services {
		if connected[s.ID] && s.Supplies(ua.AttributeID) {
			result = append(result, s)
		}
	}
	slices.SortStableFunc(result, func(x, y *models.Service) int {
		return cmp.Compare(x.Name, y.Name)
	})
	return result
}
