package rerank

import (
	"context"
	"reflect"
	"testing"

	"github.com/rushteam/musicrec/core"
)

func itemsWithChannel(pairs ...string) []*core.Item {
	out := make([]*core.Item, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		it := core.NewItem(pairs[i])
		if pairs[i+1] != "" {
			it.Meta["channel"] = pairs[i+1]
		}
		out = append(out, it)
	}
	return out
}

func TestTopNNode(t *testing.T) {
	tests := []struct {
		name string
		n    int
		rctx *core.RecommendContext
		want []string
	}{
		{"no limit", 0, nil, []string{"a", "b", "c"}},
		{"truncate", 2, nil, []string{"a", "b"}},
		{"larger than input", 10, nil, []string{"a", "b", "c"}},
		{"param override", 3, &core.RecommendContext{Params: map[string]any{"top_k": 1}}, []string{"a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := &TopNNode{N: tt.n}
			got, err := node.Process(context.Background(), tt.rctx, itemsWithChannel("a", "", "b", "", "c", ""))
			if err != nil {
				t.Fatalf("Process() error = %v", err)
			}
			if ids := core.ItemIDs(got); !reflect.DeepEqual(ids, tt.want) {
				t.Errorf("Process() = %v, want %v", ids, tt.want)
			}
		})
	}
}

func TestDiversity(t *testing.T) {
	in := func() []*core.Item {
		return itemsWithChannel("a", "X", "b", "x", "c", "Y", "d", "", "e", "X")
	}
	tests := []struct {
		name   string
		maxPer int
		want   []string
	}{
		{"one per channel", 1, []string{"a", "c", "d", "b", "e"}},
		{"two per channel", 2, []string{"a", "b", "c", "d", "e"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := &Diversity{MaxPerKey: tt.maxPer}
			got, err := node.Process(context.Background(), nil, in())
			if err != nil {
				t.Fatalf("Process() error = %v", err)
			}
			if ids := core.ItemIDs(got); !reflect.DeepEqual(ids, tt.want) {
				t.Errorf("Process() = %v, want %v", ids, tt.want)
			}
		})
	}
}
