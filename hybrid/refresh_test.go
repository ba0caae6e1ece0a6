package hybrid

import (
	"context"
	"reflect"
	"testing"

	"github.com/rushteam/musicrec/core"
)

func TestRefresher_Refresh(t *testing.T) {
	sig := Signals{
		Catalog:    catalogOf("A", "B", "C", "D"),
		Content:    &stubContent{ids: []string{"A", "B", "C", "D"}},
		Popularity: stubPopularity{"A": 0.4, "B": 0.3, "C": 0.2, "D": 0.1},
	}

	tests := []struct {
		name      string
		discovery *stubDiscovery
		seen      []string
		k         int
		want      []string
	}{
		{
			name: "filters seen ids",
			seen: []string{"A", "B"},
			k:    2,
			want: []string{"C", "D"},
		},
		{
			name:      "tops up from discovery",
			discovery: &stubDiscovery{items: []*core.CatalogItem{{ID: "A"}, {ID: "X"}, {ID: "Y"}}},
			seen:      []string{"A", "B", "C"},
			k:         3,
			want:      []string{"D", "X", "Y"},
		},
		{
			name: "everything seen falls back to unfiltered",
			seen: []string{"A", "B", "C", "D"},
			k:    2,
			want: []string{"A", "B"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d core.DiscoveryService
			if tt.discovery != nil {
				d = tt.discovery
			}
			r := NewRefresher(NewBlender(), d)
			res, err := r.Refresh(context.Background(), sig, &core.RecommendContext{UserID: "u1"}, tt.seen, tt.k)
			if err != nil {
				t.Fatalf("Refresh() error = %v", err)
			}
			if got := res.IDs(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Refresh() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRefresher_DiscoveryFailureIsPartial(t *testing.T) {
	sig := Signals{
		Catalog:    catalogOf("A", "B"),
		Content:    &stubContent{ids: []string{"A", "B"}},
		Popularity: stubPopularity{"A": 0.4, "B": 0.3},
	}
	d := &stubDiscovery{err: core.ErrDiscoveryUnavailable}
	res, err := NewRefresher(NewBlender(), d).Refresh(context.Background(), sig, nil, []string{"A"}, 2)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if got, want := res.IDs(), []string{"B"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Refresh() = %v, want %v", got, want)
	}
	if !res.Partial() {
		t.Errorf("Partial() = false, want true")
	}
}
