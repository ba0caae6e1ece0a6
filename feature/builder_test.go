package feature

import (
	"strings"
	"testing"

	"github.com/rushteam/musicrec/core"
)

func TestBuildText(t *testing.T) {
	tests := []struct {
		name string
		rec  *core.CatalogItem
		want string
	}{
		{
			name: "all fields",
			rec:  &core.CatalogItem{Title: "Perfect", Description: "Official video", Tags: []string{"pop", "love"}, Channel: "Ed Sheeran"},
			want: "Perfect Official video pop,love Ed Sheeran",
		},
		{
			name: "skips empty parts",
			rec:  &core.CatalogItem{Title: "Perfect", Channel: "Ed Sheeran"},
			want: "Perfect Ed Sheeran",
		},
		{
			name: "nil record",
			rec:  nil,
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildText(tt.rec); got != tt.want {
				t.Errorf("BuildText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildText_Truncates(t *testing.T) {
	rec := &core.CatalogItem{Title: strings.Repeat("é", MaxTextLength+50)}
	got := BuildText(rec)
	if n := len([]rune(got)); n != MaxTextLength {
		t.Errorf("len(BuildText()) = %d runes, want %d", n, MaxTextLength)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		views []int64
		want  []float64
	}{
		{name: "range", views: []int64{10, 20, 30}, want: []float64{0, 0.5, 1}},
		{name: "degenerate", views: []int64{7, 7}, want: []float64{0, 0}},
		{name: "single", views: []int64{100}, want: []float64{0}},
		{name: "empty", views: nil, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := make([]*core.CatalogItem, len(tt.views))
			for i, v := range tt.views {
				items[i] = &core.CatalogItem{ID: string(rune('A' + i)), ViewCount: v}
			}
			Normalize(items)
			for i, it := range items {
				if it.ViewNorm != tt.want[i] {
					t.Errorf("items[%d].ViewNorm = %v, want %v", i, it.ViewNorm, tt.want[i])
				}
				if it.LikeNorm != 0 || it.CommentNorm != 0 {
					t.Errorf("items[%d] like/comment norm = %v/%v, want 0", i, it.LikeNorm, it.CommentNorm)
				}
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	items := []*core.CatalogItem{
		{ID: "A", ViewCount: 5, LikeCount: 1, CommentCount: 9},
		{ID: "B", ViewCount: 50, LikeCount: 3, CommentCount: 0},
		{ID: "C", ViewCount: 20, LikeCount: 2, CommentCount: 4},
	}
	Normalize(items)
	first := make([][3]float64, len(items))
	for i, it := range items {
		first[i] = [3]float64{it.ViewNorm, it.LikeNorm, it.CommentNorm}
	}
	Normalize(items)
	for i, it := range items {
		got := [3]float64{it.ViewNorm, it.LikeNorm, it.CommentNorm}
		if got != first[i] {
			t.Errorf("items[%d] second pass = %v, want %v", i, got, first[i])
		}
	}
}

func TestBuild(t *testing.T) {
	records := []*core.CatalogItem{
		{ID: "A", Title: "first", ViewCount: 10},
		{ID: "B", Title: "second", ViewCount: 30, Text: "preset text"},
		{ID: "A", Title: "duplicate", ViewCount: 99},
		{ID: "", Title: "no id"},
	}
	c := Build(records)

	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}
	a, _ := c.Get("A")
	if a.Title != "first" || a.Text != "first" || a.ViewNorm != 0 {
		t.Errorf("A = %+v", a)
	}
	b, _ := c.Get("B")
	if b.Text != "preset text" || b.ViewNorm != 1 {
		t.Errorf("B = %+v", b)
	}
	if records[0].Text != "" {
		t.Errorf("Build() mutated input record")
	}
}

func TestPrepareAppended(t *testing.T) {
	got := PrepareAppended(&core.CatalogItem{ID: "X", Title: "new", ViewCount: 100, ViewNorm: 0.7})
	if got.ViewNorm != 0 || got.Text != "new" || got.ViewCount != 100 {
		t.Errorf("PrepareAppended() = %+v", got)
	}
}
