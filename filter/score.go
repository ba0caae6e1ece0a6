package filter

import (
	"context"

	"github.com/rushteam/musicrec/core"
)

// ScoreFilter 过滤掉分数低于 Min 的物品
type ScoreFilter struct {
	Min float64
}

func (f *ScoreFilter) Name() string { return "filter.min_score" }

func (f *ScoreFilter) ShouldFilter(_ context.Context, _ *core.RecommendContext, item *core.Item) (bool, error) {
	if item == nil {
		return true, nil
	}
	return item.Score < f.Min, nil
}
