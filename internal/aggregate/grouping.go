// ABOUTME: Ordered group mapping produced by the aggregator.
// ABOUTME: Preserves insertion order and renders as an ordered JSON object.
package aggregate

import (
	"bytes"
	"encoding/json"

	"github.com/harperreed/exist/internal/models"
)

// UngroupedKey names the trailing bucket of attributes without a group.
const UngroupedKey = "ungrouped"

// Group is one bucket of a Grouping.
type Group struct {
	Name       string
	Priority   int
	Label      string
	Attributes []*models.UserAttribute
}

// MarshalJSON renders the group's attributes as views.
func (g *Group) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Priority   int             `json:"priority"`
		Label      string          `json:"label"`
		Attributes []AttributeView `json:"attributes"`
	}{g.Priority, g.Label, Views(g.Attributes)})
}

// Grouping is an ordered mapping from group name to Group.
type Grouping struct {
	groups []*Group
	index  map[string]*Group
}

func newGrouping() *Grouping {
	return &Grouping{index: make(map[string]*Group)}
}

// put adds g under its name, replacing an existing entry in place.
func (g *Grouping) put(group *Group) {
	if existing, ok := g.index[group.Name]; ok {
		for i, e := range g.groups {
			if e == existing {
				g.groups[i] = group
			}
		}
	} else {
		g.groups = append(g.groups, group)
	}
	g.index[group.Name] = group
}

// Len returns the number of groups.
func (g *Grouping) Len() int {
	return len(g.groups)
}

// Names returns the group names in order.
func (g *Grouping) Names() []string {
	names := make([]string, len(g.groups))
	for i, group := range g.groups {
		names[i] = group.Name
	}
	return names
}

// Groups returns the groups in order.
func (g *Grouping) Groups() []*Group {
	return g.groups
}

// Get returns the group with the given name.
func (g *Grouping) Get(name string) (*Group, bool) {
	group, ok := g.index[name]
	return group, ok
}

// MarshalJSON renders the groups as a JSON object in order.
func (g *Grouping) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, group := range g.groups {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(group.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(group)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
