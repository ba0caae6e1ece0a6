package rerank

import (
	"context"
	"strings"

	"github.com/rushteam/musicrec/core"
	"github.com/rushteam/musicrec/pipeline"
)

// Diversity 限制同一频道（或其它维度）在结果中出现的次数，
// 超出部分不丢弃，而是依次挪到列表末尾，保证结果数量不变。
// 维度来源优先级：
// - label[LabelKey].Value
// - meta[LabelKey] (string)
type Diversity struct {
	LabelKey string // 默认 "channel"

	// MaxPerKey 每个维度值在前段最多出现的次数，默认 1
	MaxPerKey int
}

func (n *Diversity) Name() string {
	return "rerank.diversity"
}

func (n *Diversity) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *Diversity) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	key := n.LabelKey
	if key == "" {
		key = "channel"
	}
	maxPer := n.MaxPerKey
	if maxPer <= 0 {
		maxPer = 1
	}

	seen := make(map[string]int, 32)
	out := make([]*core.Item, 0, len(items))
	var overflow []*core.Item

	for _, it := range items {
		if it == nil {
			continue
		}

		cate := ""
		if lbl, ok := it.Labels[key]; ok {
			cate = lbl.Value
		}
		if cate == "" {
			cate = it.MetaString(key)
		}
		cate = strings.ToLower(cate)

		if cate == "" {
			out = append(out, it)
			continue
		}
		if seen[cate] >= maxPer {
			overflow = append(overflow, it)
			continue
		}
		seen[cate]++
		out = append(out, it)
	}

	return append(out, overflow...), nil
}
