// ABOUTME: ValueType enum and the tagged Value union for attribute data.
// ABOUTME: A Value's discriminant selects exactly one of the int, float, or string slots.
package models

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ValueType identifies how an attribute's values are stored and displayed.
type ValueType int

const (
	TypeInteger           ValueType = 0
	TypeFloat             ValueType = 1
	TypeString            ValueType = 2
	TypePeriod            ValueType = 3 // minutes
	TypeTimeOfDayMidnight ValueType = 4 // minutes from midnight
	TypePercentage        ValueType = 5
	TypeTimeOfDayMidday   ValueType = 6 // minutes from midday
)

// Slot is the storage column a ValueType writes to.
type Slot int

const (
	SlotInt Slot = iota
	SlotFloat
	SlotString
)

var (
	// ErrInvalidValueType is returned for codes outside the known set.
	ErrInvalidValueType = errors.New("invalid value type")
	// ErrSlotMismatch is returned when a raw value cannot be stored in the type's slot.
	ErrSlotMismatch = errors.New("value does not fit slot")
)

var valueTypeInfo = map[ValueType]struct {
	name        string
	description string
	slot        Slot
}{
	TypeInteger:           {"integer", "Integer", SlotInt},
	TypeFloat:             {"float", "Float", SlotFloat},
	TypeString:            {"string", "String", SlotString},
	TypePeriod:            {"period", "Period (min)", SlotInt},
	TypeTimeOfDayMidnight: {"time_midnight", "Time of day (min from midnight)", SlotInt},
	TypePercentage:        {"percentage", "Percentage", SlotFloat},
	TypeTimeOfDayMidday:   {"time_midday", "Time of day (min from midday)", SlotInt},
}

// AllValueTypes lists every valid value type in code order.
var AllValueTypes = []ValueType{
	TypeInteger, TypeFloat, TypeString, TypePeriod,
	TypeTimeOfDayMidnight, TypePercentage, TypeTimeOfDayMidday,
}

// Valid reports whether t is a known value type.
func (t ValueType) Valid() bool {
	_, ok := valueTypeInfo[t]
	return ok
}

// Slot returns the storage slot for t.
func (t ValueType) Slot() (Slot, error) {
	info, ok := valueTypeInfo[t]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrInvalidValueType, int(t))
	}
	return info.slot, nil
}

// Name returns the short identifier used on the command line.
func (t ValueType) Name() string {
	if info, ok := valueTypeInfo[t]; ok {
		return info.name
	}
	return strconv.Itoa(int(t))
}

// String returns the human-readable description.
func (t ValueType) String() string {
	if info, ok := valueTypeInfo[t]; ok {
		return info.description
	}
	return fmt.Sprintf("ValueType(%d)", int(t))
}

// ParseValueType accepts either a short name ("period") or a numeric code ("3").
func ParseValueType(s string) (ValueType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		t := ValueType(n)
		if !t.Valid() {
			return 0, fmt.Errorf("%w: %d", ErrInvalidValueType, n)
		}
		return t, nil
	}
	for _, t := range AllValueTypes {
		if t.Name() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidValueType, s)
}

// Value is a tagged union over the int, float, and string slots.
// The zero Value is a null integer.
type Value struct {
	typ ValueType
	set bool
	i   int64
	f   float64
	s   string
}

// NullValue returns an unset value of type t.
func NullValue(t ValueType) Value {
	return Value{typ: t}
}

// NewValue converts raw into the slot selected by t.
// The int slot takes Go integers or integral floats, the float slot takes
// any Go number, and the string slot takes strings.
func NewValue(t ValueType, raw any) (Value, error) {
	slot, err := t.Slot()
	if err != nil {
		return Value{}, err
	}

	switch slot {
	case SlotInt:
		n, ok := toInt(raw)
		if !ok {
			return Value{}, fmt.Errorf("%w: %s needs an integer, got %T", ErrSlotMismatch, t, raw)
		}
		return Value{typ: t, set: true, i: n}, nil
	case SlotFloat:
		f, ok := toFloat(raw)
		if !ok {
			return Value{}, fmt.Errorf("%w: %s needs a number, got %T", ErrSlotMismatch, t, raw)
		}
		return Value{typ: t, set: true, f: f}, nil
	default:
		s, ok := raw.(string)
		if !ok {
			return Value{}, fmt.Errorf("%w: %s needs a string, got %T", ErrSlotMismatch, t, raw)
		}
		return Value{typ: t, set: true, s: s}, nil
	}
}

// Type returns the value's discriminant.
func (v Value) Type() ValueType { return v.typ }

// IsNull reports whether no value has been stored.
func (v Value) IsNull() bool { return !v.set }

// Int returns the int slot.
func (v Value) Int() int64 { return v.i }

// Float returns the float slot.
func (v Value) Float() float64 { return v.f }

// Text returns the string slot.
func (v Value) Text() string { return v.s }

// Numeric returns the stored number for int and float slots.
// Null values and strings report false.
func (v Value) Numeric() (float64, bool) {
	if !v.set {
		return 0, false
	}
	slot, err := v.typ.Slot()
	if err != nil {
		return 0, false
	}
	switch slot {
	case SlotInt:
		return float64(v.i), true
	case SlotFloat:
		return v.f, true
	default:
		return 0, false
	}
}

// Interface returns the stored value as int64, float64, string, or nil.
func (v Value) Interface() any {
	if !v.set {
		return nil
	}
	slot, _ := v.typ.Slot()
	switch slot {
	case SlotInt:
		return v.i
	case SlotFloat:
		return v.f
	default:
		return v.s
	}
}

// Format renders the value for display according to its type.
func (v Value) Format() string {
	if !v.set {
		return "-"
	}
	switch v.typ {
	case TypePeriod:
		h, m := v.i/60, v.i%60
		if h == 0 {
			return fmt.Sprintf("%dm", m)
		}
		return fmt.Sprintf("%dh %dm", h, m)
	case TypeTimeOfDayMidnight:
		return clock(v.i)
	case TypeTimeOfDayMidday:
		return clock(v.i + 12*60)
	case TypePercentage:
		return strconv.FormatFloat(v.f, 'f', -1, 64) + "%"
	case TypeFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case TypeString:
		return v.s
	default:
		return strconv.FormatInt(v.i, 10)
	}
}

// ParseValue parses user input for type t.
// Periods accept minutes or a duration ("1h30m"), times of day accept
// minutes or "HH:MM", and percentages accept an optional trailing "%".
func ParseValue(t ValueType, text string) (Value, error) {
	text = strings.TrimSpace(text)
	switch t {
	case TypeInteger:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("invalid integer %q", text)
		}
		return NewValue(t, n)
	case TypeFloat:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Value{}, fmt.Errorf("invalid number %q", text)
		}
		return NewValue(t, f)
	case TypeString:
		return NewValue(t, text)
	case TypePeriod:
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return NewValue(t, n)
		}
		d, err := time.ParseDuration(text)
		if err != nil {
			return Value{}, fmt.Errorf("invalid period %q (use minutes or e.g. 7h30m)", text)
		}
		return NewValue(t, int64(d/time.Minute))
	case TypeTimeOfDayMidnight, TypeTimeOfDayMidday:
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return NewValue(t, n)
		}
		clockTime, err := time.Parse("15:04", text)
		if err != nil {
			return Value{}, fmt.Errorf("invalid time of day %q (use minutes or HH:MM)", text)
		}
		minutes := int64(clockTime.Hour()*60 + clockTime.Minute())
		if t == TypeTimeOfDayMidday {
			minutes -= 12 * 60
			if minutes < 0 {
				minutes += 24 * 60
			}
		}
		return NewValue(t, minutes)
	case TypePercentage:
		f, err := strconv.ParseFloat(strings.TrimSuffix(text, "%"), 64)
		if err != nil {
			return Value{}, fmt.Errorf("invalid percentage %q", text)
		}
		return NewValue(t, f)
	default:
		return Value{}, fmt.Errorf("%w: %d", ErrInvalidValueType, int(t))
	}
}

func clock(minutes int64) string {
	minutes %= 24 * 60
	if minutes < 0 {
		minutes += 24 * 60
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func toInt(raw any) (int64, bool) {
	switch n := raw.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), uint64(n) <= math.MaxInt64
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), n <= math.MaxInt64
	case float32:
		return floatToInt(float64(n))
	case float64:
		return floatToInt(n)
	default:
		return 0, false
	}
}

func floatToInt(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Trunc(f) != f {
		return 0, false
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func toFloat(raw any) (float64, bool) {
	switch n := raw.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		i, ok := toInt(raw)
		return float64(i), ok
	}
}
