package rerank

import (
	"context"

	"github.com/rushteam/musicrec/core"
	"github.com/rushteam/musicrec/pipeline"
)

// TopNNode 截取前 N 个物品，通常放在过滤与多样性之后，保证最终返回 k 条。
// N <= 0 时不截断；也可以通过 rctx.Params["top_k"] 按请求覆盖。
type TopNNode struct {
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	limit := n.N
	if rctx != nil {
		if v, ok := rctx.Params["top_k"].(int); ok && v > 0 {
			limit = v
		}
	}
	if limit <= 0 || len(items) <= limit {
		return items, nil
	}
	return items[:limit], nil
}
