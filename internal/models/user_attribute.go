// ABOUTME: UserAttribute and UserAttributeData models.
// ABOUTME: A user's subscription to an attribute and its one-value-per-day series.
package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DayLayout is the storage format for calendar days.
const DayLayout = "2006-01-02"

// Day truncates t to its calendar date at midnight UTC.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// UserAttribute is a user's subscription to an attribute, optionally tied to a service.
type UserAttribute struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	AttributeID uuid.UUID  `json:"attribute_id"`
	ServiceID   *uuid.UUID `json:"service_id,omitempty"`
	Active      bool       `json:"active"`
	Private     bool       `json:"private"`
	CreatedAt   time.Time  `json:"created_at"`

	// Attribute and Data are populated when loading a user's snapshot.
	// Data is ordered newest day first.
	Attribute *Attribute           `json:"-"`
	Data      []*UserAttributeData `json:"-"`
}

// NewUserAttribute subscribes a user to a, inheriting its privacy default.
func NewUserAttribute(userID uuid.UUID, a *Attribute) *UserAttribute {
	return &UserAttribute{
		ID:          uuid.New(),
		UserID:      userID,
		AttributeID: a.ID,
		Active:      true,
		Private:     a.PrivateDefault,
		CreatedAt:   time.Now(),
		Attribute:   a,
	}
}

// WithService ties the subscription to a service.
func (ua *UserAttribute) WithService(s *Service) *UserAttribute {
	if s == nil {
		ua.ServiceID = nil
		return ua
	}
	id := s.ID
	ua.ServiceID = &id
	return ua
}

// Name returns the attribute name, or "" if the attribute is not loaded.
func (ua *UserAttribute) Name() string {
	if ua.Attribute == nil {
		return ""
	}
	return ua.Attribute.Name
}

// Label returns the attribute label.
func (ua *UserAttribute) Label() string {
	if ua.Attribute == nil {
		return ""
	}
	return ua.Attribute.Label
}

// Priority returns the attribute priority.
func (ua *UserAttribute) Priority() int {
	if ua.Attribute == nil {
		return 0
	}
	return ua.Attribute.Priority
}

// ValueType returns the attribute's current value type.
func (ua *UserAttribute) ValueType() ValueType {
	if ua.Attribute == nil {
		return TypeInteger
	}
	return ua.Attribute.ValueType
}

// Group returns the attribute's group, or nil.
func (ua *UserAttribute) Group() *AttributeGroup {
	if ua.Attribute == nil {
		return nil
	}
	return ua.Attribute.Group
}

func (ua *UserAttribute) String() string {
	return ua.Label()
}

// UserAttributeData is one day's value for a UserAttribute.
// The value type is copied from the attribute at write time and travels
// with the value, so historical rows keep their own interpretation.
type UserAttributeData struct {
	ID              uuid.UUID
	UserAttributeID uuid.UUID
	Day             time.Time
	CreatedAt       time.Time
	value           Value
}

// NewUserAttributeData creates an empty data point for ua on day.
func NewUserAttributeData(ua *UserAttribute, day time.Time) *UserAttributeData {
	return &UserAttributeData{
		ID:              uuid.New(),
		UserAttributeID: ua.ID,
		Day:             Day(day),
		CreatedAt:       time.Now(),
		value:           NullValue(ua.ValueType()),
	}
}

// RestoreUserAttributeData rebuilds a stored data point from its columns.
// Only the column selected by valueType is read.
func RestoreUserAttributeData(id, userAttributeID uuid.UUID, day, created time.Time, valueType ValueType, intValue *int64, floatValue *float64, stringValue *string) (*UserAttributeData, error) {
	slot, err := valueType.Slot()
	if err != nil {
		return nil, err
	}

	v := NullValue(valueType)
	switch {
	case slot == SlotInt && intValue != nil:
		v, err = NewValue(valueType, *intValue)
	case slot == SlotFloat && floatValue != nil:
		v, err = NewValue(valueType, *floatValue)
	case slot == SlotString && stringValue != nil:
		v, err = NewValue(valueType, *stringValue)
	}
	if err != nil {
		return nil, err
	}

	return &UserAttributeData{
		ID:              id,
		UserAttributeID: userAttributeID,
		Day:             Day(day),
		CreatedAt:       created,
		value:           v,
	}, nil
}

// ValueType returns the data point's own discriminant.
func (d *UserAttributeData) ValueType() ValueType {
	return d.value.Type()
}

// Value returns the stored value, dispatching on the data point's type.
func (d *UserAttributeData) Value() Value {
	return d.value
}

// SetValue stores raw in the slot selected by the data point's type.
func (d *UserAttributeData) SetValue(raw any) error {
	v, err := NewValue(d.value.Type(), raw)
	if err != nil {
		return err
	}
	d.value = v
	return nil
}

// Columns returns the int, float and string columns for persistence.
// Only the column matching the value type is non-nil.
func (d *UserAttributeData) Columns() (intValue *int64, floatValue *float64, stringValue *string) {
	if d.value.IsNull() {
		return nil, nil, nil
	}
	slot, _ := d.value.Type().Slot()
	switch slot {
	case SlotInt:
		n := d.value.Int()
		return &n, nil, nil
	case SlotFloat:
		f := d.value.Float()
		return nil, &f, nil
	default:
		s := d.value.Text()
		return nil, nil, &s
	}
}

type dataJSON struct {
	ID              uuid.UUID `json:"id"`
	UserAttributeID uuid.UUID `json:"user_attribute_id"`
	Day             string    `json:"day"`
	ValueType       ValueType `json:"value_type"`
	IntValue        *int64    `json:"int_value,omitempty"`
	FloatValue      *float64  `json:"float_value,omitempty"`
	StringValue     *string   `json:"string_value,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// MarshalJSON writes the discriminant and the selected slot only.
func (d *UserAttributeData) MarshalJSON() ([]byte, error) {
	i, f, s := d.Columns()
	return json.Marshal(dataJSON{
		ID:              d.ID,
		UserAttributeID: d.UserAttributeID,
		Day:             d.Day.Format(DayLayout),
		ValueType:       d.ValueType(),
		IntValue:        i,
		FloatValue:      f,
		StringValue:     s,
		CreatedAt:       d.CreatedAt,
	})
}

// UnmarshalJSON reads the slot selected by value_type.
func (d *UserAttributeData) UnmarshalJSON(b []byte) error {
	var raw dataJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	day, err := time.Parse(DayLayout, raw.Day)
	if err != nil {
		return fmt.Errorf("parse day %q: %w", raw.Day, err)
	}
	restored, err := RestoreUserAttributeData(raw.ID, raw.UserAttributeID, day, raw.CreatedAt,
		raw.ValueType, raw.IntValue, raw.FloatValue, raw.StringValue)
	if err != nil {
		return err
	}
	*d = *restored
	return nil
}
