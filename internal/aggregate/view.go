// ABOUTME: Presentation view of a user attribute with its current value.
// ABOUTME: Shared by the REST API, MCP server, and markdown report.
package aggregate

import "github.com/harperreed/exist/internal/models"

// AttributeView is a flattened, render-ready user attribute.
type AttributeView struct {
	Name      string `json:"name"`
	Label     string `json:"label"`
	Priority  int    `json:"priority"`
	ValueType string `json:"value_type"`
	Active    bool   `json:"active"`
	Private   bool   `json:"private"`
	// Value is nil when the attribute has no current value.
	Value     any    `json:"value"`
	Formatted string `json:"formatted"`
}

// View builds the AttributeView for ua.
func View(ua *models.UserAttribute) AttributeView {
	view := AttributeView{
		Name:      ua.Name(),
		Label:     ua.Label(),
		Priority:  ua.Priority(),
		ValueType: ua.ValueType().Name(),
		Active:    ua.Active,
		Private:   ua.Private,
		Formatted: "-",
	}
	if v, ok := CurrentValue(ua); ok {
		view.Value = v.Interface()
		view.Formatted = v.Format()
	}
	return view
}

// Views builds views for a list of user attributes.
func Views(list []*models.UserAttribute) []AttributeView {
	views := make([]AttributeView, len(list))
	for i, ua := range list {
		views[i] = View(ua)
	}
	return views
}
