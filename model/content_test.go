package model

import (
	"math"
	"testing"

	"github.com/rushteam/musicrec/core"
)

func textCatalog(texts map[string]string, order ...string) *core.Catalog {
	items := make([]*core.CatalogItem, 0, len(order))
	for _, id := range order {
		items = append(items, &core.CatalogItem{ID: id, Text: texts[id]})
	}
	return core.NewCatalog(items)
}

func TestTokenize(t *testing.T) {
	got := Tokenize("The Beatles - Let It Be (Remastered 2009) a", englishStopWords)
	want := []string{"beatles", "let", "remastered", "2009"}
	if len(got) != len(want) {
		t.Fatalf("Tokenize() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Tokenize()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestBuildContentIndex_Empty(t *testing.T) {
	if _, err := BuildContentIndex(core.NewCatalog(nil), ContentOptions{}); !core.IsEmptyCatalog(err) {
		t.Errorf("BuildContentIndex(empty) error = %v, want EMPTY_CATALOG", err)
	}

	ci, err := BuildContentIndex(textCatalog(map[string]string{"a": "the", "b": ""}, "a", "b"), ContentOptions{})
	if err != nil {
		t.Fatalf("BuildContentIndex() error = %v", err)
	}
	if !ci.Empty() {
		t.Errorf("Empty() = false, want true for stop-word-only corpus")
	}
	if _, err := ci.SimilarityRow([]string{"a"}); !core.IsMissingSignal(err) {
		t.Errorf("SimilarityRow() error = %v, want missing signal", err)
	}
}

func TestBuildContentIndex_RowsAreUnitLength(t *testing.T) {
	cat := textCatalog(map[string]string{
		"a": "rock guitar anthem",
		"b": "rock ballad piano",
		"c": "jazz piano trio",
	}, "a", "b", "c")
	ci, err := BuildContentIndex(cat, ContentOptions{})
	if err != nil {
		t.Fatalf("BuildContentIndex() error = %v", err)
	}
	if got, want := ci.VocabularySize(), 7; got != want {
		t.Errorf("VocabularySize() = %d, want %d", got, want)
	}
	for _, id := range []string{"a", "b", "c"} {
		v, ok := ci.Vector(id)
		if !ok {
			t.Fatalf("Vector(%q) missing", id)
		}
		var sum float64
		for _, x := range v.Values {
			sum += x * x
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("|Vector(%q)|^2 = %v, want 1", id, sum)
		}
	}
}

func TestBuildContentIndex_MaxFeatures(t *testing.T) {
	cat := textCatalog(map[string]string{
		"a": "rock rock rock pop",
		"b": "rock pop jazz",
	}, "a", "b")
	ci, err := BuildContentIndex(cat, ContentOptions{MaxFeatures: 2})
	if err != nil {
		t.Fatalf("BuildContentIndex() error = %v", err)
	}
	d := ci.Data()
	want := []string{"pop", "rock"}
	if len(d.Vocabulary) != len(want) || d.Vocabulary[0] != want[0] || d.Vocabulary[1] != want[1] {
		t.Errorf("Vocabulary = %v, want %v", d.Vocabulary, want)
	}
}

func TestSimilarityRow(t *testing.T) {
	cat := textCatalog(map[string]string{
		"a": "rock guitar anthem",
		"b": "rock guitar solo",
		"c": "jazz piano trio",
		"d": "rock piano",
	}, "a", "b", "c", "d")
	ci, err := BuildContentIndex(cat, ContentOptions{})
	if err != nil {
		t.Fatalf("BuildContentIndex() error = %v", err)
	}

	tests := []struct {
		name    string
		query   []string
		wantNeg []int
		wantErr bool
	}{
		{name: "single", query: []string{"a"}, wantNeg: []int{0}},
		{name: "multiple with unknown", query: []string{"a", "zzz", "c"}, wantNeg: []int{0, 2}},
		{name: "duplicate ids", query: []string{"b", "b"}, wantNeg: []int{1}},
		{name: "unresolvable", query: []string{"zzz"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, err := ci.SimilarityRow(tt.query)
			if tt.wantErr {
				if !core.IsMissingSignal(err) {
					t.Errorf("SimilarityRow() error = %v, want missing signal", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("SimilarityRow() error = %v", err)
			}
			neg := map[int]bool{}
			for _, i := range tt.wantNeg {
				neg[i] = true
			}
			for i, s := range row {
				if neg[i] && s != -1 {
					t.Errorf("row[%d] = %v, want -1", i, s)
				}
				if !neg[i] && (s < 0 || s > 1+1e-9) {
					t.Errorf("row[%d] = %v, want within [0,1]", i, s)
				}
			}
		})
	}
}

func TestTopKBySimilarity(t *testing.T) {
	cat := textCatalog(map[string]string{
		"a": "rock guitar anthem",
		"b": "rock guitar solo",
		"c": "jazz piano trio",
		"d": "rock piano",
	}, "a", "b", "c", "d")
	ci, err := BuildContentIndex(cat, ContentOptions{})
	if err != nil {
		t.Fatalf("BuildContentIndex() error = %v", err)
	}
	got, err := ci.TopKBySimilarity([]string{"a"}, 10)
	if err != nil {
		t.Fatalf("TopKBySimilarity() error = %v", err)
	}
	want := []string{"b", "d", "c"}
	if len(got) != len(want) {
		t.Fatalf("TopKBySimilarity() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i].ID != want[i] {
			t.Errorf("TopKBySimilarity()[%d] = %s, want %s", i, got[i].ID, want[i])
		}
	}
}

func TestNewContentIndexFromData(t *testing.T) {
	cat := textCatalog(map[string]string{"a": "rock anthem", "b": "rock ballad"}, "a", "b")
	ci, err := BuildContentIndex(cat, ContentOptions{})
	if err != nil {
		t.Fatalf("BuildContentIndex() error = %v", err)
	}
	restored, err := NewContentIndexFromData(ci.Data())
	if err != nil {
		t.Fatalf("NewContentIndexFromData() error = %v", err)
	}
	r1, _ := ci.SimilarityRow([]string{"a"})
	r2, _ := restored.SimilarityRow([]string{"a"})
	for i := range r1 {
		if r1[i] != r2[i] {
			t.Errorf("restored row[%d] = %v, want %v", i, r2[i], r1[i])
		}
	}

	bad := ci.Data()
	bad.IDs = bad.IDs[:1]
	if _, err := NewContentIndexFromData(bad); !core.IsMalformedArtifact(err) {
		t.Errorf("NewContentIndexFromData(bad) error = %v, want MALFORMED_ARTIFACT", err)
	}
}
