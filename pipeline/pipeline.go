package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rushteam/musicrec/core"
	"github.com/rushteam/musicrec/pkg/metrics"
)

// Pipeline 把混合排序之后的处理拆成可组合的 Node 链。
// 空 Pipeline 原样返回输入。
type Pipeline struct {
	Nodes   []Node
	Metrics *metrics.Metrics
}

func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if p == nil {
		return items, nil
	}
	cur := items
	for _, node := range p.Nodes {
		start := time.Now()
		next, err := node.Process(ctx, rctx, cur)
		p.Metrics.ObserveDuration("node."+node.Name(), start)
		if err != nil {
			return nil, fmt.Errorf("pipeline: %s: %w", node.Name(), err)
		}
		cur = next
	}
	return cur, nil
}
