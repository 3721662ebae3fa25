// ABOUTME: Tests for ValueType and the tagged Value union.
// ABOUTME: Covers slot selection, parsing, formatting, and numeric coercion.
package models

import (
	"errors"
	"testing"
)

func TestValueTypeSlots(t *testing.T) {
	tests := []struct {
		typ  ValueType
		slot Slot
	}{
		{TypeInteger, SlotInt},
		{TypeFloat, SlotFloat},
		{TypeString, SlotString},
		{TypePeriod, SlotInt},
		{TypeTimeOfDayMidnight, SlotInt},
		{TypePercentage, SlotFloat},
		{TypeTimeOfDayMidday, SlotInt},
	}

	for _, tt := range tests {
		t.Run(tt.typ.Name(), func(t *testing.T) {
			got, err := tt.typ.Slot()
			if err != nil {
				t.Fatalf("Slot() error: %v", err)
			}
			if got != tt.slot {
				t.Errorf("Slot() = %v, want %v", got, tt.slot)
			}
		})
	}

	if _, err := ValueType(7).Slot(); !errors.Is(err, ErrInvalidValueType) {
		t.Errorf("expected ErrInvalidValueType for code 7, got %v", err)
	}
}

func TestParseValueType(t *testing.T) {
	tests := []struct {
		input   string
		want    ValueType
		wantErr bool
	}{
		{"integer", TypeInteger, false},
		{"Period", TypePeriod, false},
		{"5", TypePercentage, false},
		{" time_midday ", TypeTimeOfDayMidday, false},
		{"9", 0, true},
		{"decimal", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseValueType(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseValueType(%q) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseValueType(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseValueType(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewValueSlotMismatch(t *testing.T) {
	if _, err := NewValue(TypeInteger, 1.5); !errors.Is(err, ErrSlotMismatch) {
		t.Errorf("expected ErrSlotMismatch for fractional int, got %v", err)
	}
	if _, err := NewValue(TypeFloat, "1.5"); !errors.Is(err, ErrSlotMismatch) {
		t.Errorf("expected ErrSlotMismatch for string float, got %v", err)
	}
	if _, err := NewValue(TypeString, 3); !errors.Is(err, ErrSlotMismatch) {
		t.Errorf("expected ErrSlotMismatch for int string, got %v", err)
	}

	v, err := NewValue(TypePeriod, 420.0)
	if err != nil {
		t.Fatalf("integral float should fit int slot: %v", err)
	}
	if v.Int() != 420 {
		t.Errorf("Int() = %d, want 420", v.Int())
	}
}

func TestValueNumeric(t *testing.T) {
	if _, ok := NullValue(TypeInteger).Numeric(); ok {
		t.Error("null value should not be numeric")
	}

	s, _ := NewValue(TypeString, "happy")
	if _, ok := s.Numeric(); ok {
		t.Error("string value should not be numeric")
	}

	pct, _ := NewValue(TypePercentage, 85.5)
	if n, ok := pct.Numeric(); !ok || n != 85.5 {
		t.Errorf("percentage Numeric() = %v, %v; want 85.5, true", n, ok)
	}

	tod, _ := NewValue(TypeTimeOfDayMidnight, 1380)
	if n, ok := tod.Numeric(); !ok || n != 1380 {
		t.Errorf("time of day Numeric() = %v, %v; want raw 1380", n, ok)
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		name    string
		typ     ValueType
		input   string
		want    any
		wantErr bool
	}{
		{"integer", TypeInteger, "42", int64(42), false},
		{"float", TypeFloat, "82.5", 82.5, false},
		{"string", TypeString, " tired ", "tired", false},
		{"period minutes", TypePeriod, "450", int64(450), false},
		{"period duration", TypePeriod, "7h30m", int64(450), false},
		{"midnight clock", TypeTimeOfDayMidnight, "07:15", int64(435), false},
		{"midday clock evening", TypeTimeOfDayMidday, "23:00", int64(660), false},
		{"midday clock after midnight", TypeTimeOfDayMidday, "01:00", int64(780), false},
		{"percentage sign", TypePercentage, "85%", 85.0, false},
		{"percentage bare", TypePercentage, "12.5", 12.5, false},
		{"bad integer", TypeInteger, "4.2", nil, true},
		{"bad period", TypePeriod, "soon", nil, true},
		{"bad clock", TypeTimeOfDayMidnight, "25:99", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ParseValue(tt.typ, tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseValue(%v, %q) expected error", tt.typ, tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseValue(%v, %q) error: %v", tt.typ, tt.input, err)
			}
			if got := v.Interface(); got != tt.want {
				t.Errorf("ParseValue(%v, %q) = %#v, want %#v", tt.typ, tt.input, got, tt.want)
			}
		})
	}
}

func TestValueFormat(t *testing.T) {
	mustValue := func(typ ValueType, raw any) Value {
		v, err := NewValue(typ, raw)
		if err != nil {
			t.Fatalf("NewValue(%v, %v): %v", typ, raw, err)
		}
		return v
	}

	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"null", NullValue(TypeFloat), "-"},
		{"integer", mustValue(TypeInteger, 8000), "8000"},
		{"float", mustValue(TypeFloat, 82.25), "82.25"},
		{"period", mustValue(TypePeriod, 450), "7h 30m"},
		{"short period", mustValue(TypePeriod, 45), "45m"},
		{"midnight", mustValue(TypeTimeOfDayMidnight, 435), "07:15"},
		{"midday", mustValue(TypeTimeOfDayMidday, 660), "23:00"},
		{"midday wraps", mustValue(TypeTimeOfDayMidday, 780), "01:00"},
		{"percentage", mustValue(TypePercentage, 85), "85%"},
		{"string", mustValue(TypeString, "great"), "great"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.Format(); got != tt.want {
				t.Errorf("Format() = %q, want %q", got, tt.want)
			}
		})
	}
}
