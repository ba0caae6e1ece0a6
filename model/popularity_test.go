package model

import (
	"testing"

	"github.com/rushteam/musicrec/core"
)

func popularityCatalog(ids []string, views []float64) *core.Catalog {
	items := make([]*core.CatalogItem, len(ids))
	for i, id := range ids {
		items[i] = &core.CatalogItem{ID: id, ViewNorm: views[i]}
	}
	return core.NewCatalog(items)
}

func TestPopularityScore(t *testing.T) {
	tests := []struct {
		name string
		item *core.CatalogItem
		want float64
	}{
		{name: "weighted", item: &core.CatalogItem{ViewNorm: 1, LikeNorm: 0.5, CommentNorm: 0.5}, want: 0.7 + 0.1 + 0.05},
		{name: "zero", item: &core.CatalogItem{}, want: 0},
		{name: "nil", item: nil, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PopularityScore(tt.item); got < tt.want-1e-12 || got > tt.want+1e-12 {
				t.Errorf("PopularityScore() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPopularityRanker_TopK(t *testing.T) {
	r := NewPopularityRanker(popularityCatalog(
		[]string{"A", "B", "C", "D", "E"},
		[]float64{0.9, 0.1, 0.5, 0.5, 0.7},
	))

	tests := []struct {
		name string
		k    int
		want []string
	}{
		{name: "top3", k: 3, want: []string{"A", "E", "C"}},
		{name: "ties keep row order", k: 4, want: []string{"A", "E", "C", "D"}},
		{name: "k larger than catalog", k: 10, want: []string{"A", "E", "C", "D", "B"}},
		{name: "k zero returns all", k: 0, want: []string{"A", "E", "C", "D", "B"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.TopK(tt.k)
			if len(got) != len(tt.want) {
				t.Fatalf("TopK(%d) = %v, want %v", tt.k, got, tt.want)
			}
			for i := range got {
				if got[i].ID != tt.want[i] {
					t.Errorf("TopK(%d)[%d] = %s, want %s", tt.k, i, got[i].ID, tt.want[i])
				}
				if i > 0 && got[i].Score > got[i-1].Score {
					t.Errorf("TopK(%d) not sorted at %d", tt.k, i)
				}
			}
		})
	}
}

func TestPopularityRanker_HasSignal(t *testing.T) {
	if NewPopularityRanker(popularityCatalog([]string{"a", "b"}, []float64{0, 0})).HasSignal() {
		t.Errorf("HasSignal() = true, want false for all-zero scores")
	}
	if !NewPopularityRanker(popularityCatalog([]string{"a", "b"}, []float64{0, 0.3})).HasSignal() {
		t.Errorf("HasSignal() = false, want true")
	}
	var nilRanker *PopularityRanker
	if nilRanker.HasSignal() || nilRanker.TopK(3) != nil {
		t.Errorf("nil ranker should have no signal and no items")
	}
}

func TestPopularityRanker_Table(t *testing.T) {
	r := NewPopularityRanker(popularityCatalog([]string{"a", "b"}, []float64{0.2, 1}))
	restored := NewPopularityRankerFromTable(r.Table())
	if got, want := restored.Score("b"), r.Score("b"); got != want {
		t.Errorf("restored Score(b) = %v, want %v", got, want)
	}
	if got := restored.Score("missing"); got != 0 {
		t.Errorf("Score(missing) = %v, want 0", got)
	}
}
