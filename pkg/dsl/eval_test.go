package dsl

import "testing"

func TestEventFilter_Match(t *testing.T) {
	tests := []struct {
		name   string
		expr   string
		user   string
		item   string
		value  float64
		fields map[string]string
		want   bool
	}{
		{name: "value threshold pass", expr: "value >= 4.0", value: 5, want: true},
		{name: "value threshold reject", expr: "value >= 4.0", value: 3, want: false},
		{name: "raw id prefix", expr: `item.startsWith("movie:")`, item: "movie:42", want: true},
		{name: "field lookup", expr: `fields.source == "web" && user != "guest"`, user: "u1",
			fields: map[string]string{"source": "web"}, want: true},
		{name: "nil fields with has()", expr: `!has(fields.source)`, fields: nil, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewEventFilter(tt.expr)
			if err != nil {
				t.Fatalf("NewEventFilter(%q) error = %v", tt.expr, err)
			}
			got, err := f.Match(tt.user, tt.item, tt.value, tt.fields)
			if err != nil {
				t.Fatalf("Match() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewEventFilter_Invalid(t *testing.T) {
	for _, expr := range []string{"value +", "value * 2.0", "unknown_var == 1"} {
		if _, err := NewEventFilter(expr); err == nil {
			t.Errorf("NewEventFilter(%q) succeeded, want error", expr)
		}
	}
}
