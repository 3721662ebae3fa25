// ABOUTME: Attribute and AttributeGroup models for trackable metrics.
// ABOUTME: Attributes carry a value type, display priority, and optional group.
package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultPriority is the priority given to new attributes and groups.
const DefaultPriority = 2

// HighPriorityCutoff is the largest attribute priority counted in a score.
const HighPriorityCutoff = 9

// AttributeGroup clusters related attributes for display.
type AttributeGroup struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Label     string    `json:"label"`
	Priority  int       `json:"priority"`
	CreatedAt time.Time `json:"created_at"`
}

// NewAttributeGroup creates a group with the default priority.
func NewAttributeGroup(name, label string) *AttributeGroup {
	return &AttributeGroup{
		ID:        uuid.New(),
		Name:      name,
		Label:     label,
		Priority:  DefaultPriority,
		CreatedAt: time.Now(),
	}
}

// WithPriority sets the display priority (lower is shown first).
func (g *AttributeGroup) WithPriority(p int) *AttributeGroup {
	g.Priority = p
	return g
}

// Attribute is a trackable metric definition such as "sleep" or "mood".
type Attribute struct {
	ID                  uuid.UUID  `json:"id"`
	Name                string     `json:"name"`
	Label               string     `json:"label"`
	Priority            int        `json:"priority"`
	ValueType           ValueType  `json:"value_type"`
	GroupID             *uuid.UUID `json:"group_id,omitempty"`
	PrivateDefault      bool       `json:"private_default"`
	CorrelationOffset   int        `json:"correlation_offset"`
	CorrelationPositive *string    `json:"correlation_positive,omitempty"`
	CorrelationNegative *string    `json:"correlation_negative,omitempty"`
	// Higher means other attributes follow this one (the weather, say).
	CorrelationPriority int       `json:"correlation_priority"`
	CreatedAt           time.Time `json:"created_at"`

	// Group is resolved from GroupID by the store.
	Group *AttributeGroup `json:"-"`
}

// NewAttribute creates an attribute with the default priority.
func NewAttribute(name, label string, valueType ValueType) *Attribute {
	return &Attribute{
		ID:        uuid.New(),
		Name:      name,
		Label:     label,
		Priority:  DefaultPriority,
		ValueType: valueType,
		CreatedAt: time.Now(),
	}
}

// WithPriority sets the display priority.
func (a *Attribute) WithPriority(p int) *Attribute {
	a.Priority = p
	return a
}

// WithGroup assigns the attribute to g.
func (a *Attribute) WithGroup(g *AttributeGroup) *Attribute {
	a.Group = g
	if g == nil {
		a.GroupID = nil
		return a
	}
	id := g.ID
	a.GroupID = &id
	return a
}

// WithPrivateDefault sets whether new user attributes start private.
func (a *Attribute) WithPrivateDefault(private bool) *Attribute {
	a.PrivateDefault = private
	return a
}

// WithCorrelation sets the correlation metadata.
func (a *Attribute) WithCorrelation(offset, priority int, positive, negative string) *Attribute {
	a.CorrelationOffset = offset
	a.CorrelationPriority = priority
	if positive != "" {
		a.CorrelationPositive = &positive
	}
	if negative != "" {
		a.CorrelationNegative = &negative
	}
	return a
}
