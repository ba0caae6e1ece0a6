package conv

import "testing"

func TestConfigGetInt(t *testing.T) {
	tests := []struct {
		name string
		m    map[string]any
		want int
	}{
		{name: "int literal", m: map[string]any{"n": 7}, want: 7},
		{name: "float literal from json", m: map[string]any{"n": 7.0}, want: 7},
		{name: "wrong type falls back", m: map[string]any{"n": "7"}, want: 3},
		{name: "missing key falls back", m: map[string]any{}, want: 3},
		{name: "nil map falls back", m: nil, want: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ConfigGetInt(tt.m, "n", 3); got != tt.want {
				t.Errorf("ConfigGetInt() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestConfigGetFloat64(t *testing.T) {
	m := map[string]any{"w": 1, "b": true, "f": 0.25}
	if got := ConfigGetFloat64(m, "w", 0); got != 1 {
		t.Errorf("w = %v, want 1", got)
	}
	if got := ConfigGetFloat64(m, "b", 0.5); got != 0.5 {
		t.Errorf("bool should fall back, got %v", got)
	}
	if got := ConfigGetFloat64(m, "f", 0); got != 0.25 {
		t.Errorf("f = %v, want 0.25", got)
	}
}

func TestSliceAnyToString(t *testing.T) {
	got := SliceAnyToString([]any{"abc", 12.0, true})
	want := []string{"abc", "12"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if got := SliceAnyToString([]string{"x"}); len(got) != 1 || got[0] != "x" {
		t.Errorf("[]string passthrough = %v", got)
	}
	if SliceAnyToString("nope") != nil {
		t.Error("non-slice should yield nil")
	}
}
