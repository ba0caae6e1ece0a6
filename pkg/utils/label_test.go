package utils

import "testing"

func TestMergeLabel(t *testing.T) {
	tests := []struct {
		name     string
		existing Label
		incoming Label
		want     Label
	}{
		{
			name:     "empty existing takes incoming",
			existing: Label{},
			incoming: Label{Value: "content", Source: "blend"},
			want:     Label{Value: "content", Source: "blend"},
		},
		{
			name:     "empty incoming keeps existing",
			existing: Label{Value: "content", Source: "blend"},
			incoming: Label{},
			want:     Label{Value: "content", Source: "blend"},
		},
		{
			name:     "both set accumulate",
			existing: Label{Value: "content", Source: "blend"},
			incoming: Label{Value: "popularity", Source: "backfill"},
			want:     Label{Value: "content|popularity", Source: "blend,backfill"},
		},
		{
			name:     "missing source takes the other",
			existing: Label{Value: "a"},
			incoming: Label{Value: "b", Source: "refresh"},
			want:     Label{Value: "a|b", Source: "refresh"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MergeLabel(tt.existing, tt.incoming); got != tt.want {
				t.Errorf("MergeLabel() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
