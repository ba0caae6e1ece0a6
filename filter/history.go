package filter

import (
	"context"

	"github.com/rushteam/musicrec/core"
)

// HistoryFilter 过滤掉用户已收藏的内容。
// 内容相似度分支本身已排除历史，热度/随机分支需要这一步。
type HistoryFilter struct{}

func (f *HistoryFilter) Name() string { return "filter.history" }

func (f *HistoryFilter) ShouldFilter(_ context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error) {
	if item == nil || rctx == nil {
		return false, nil
	}
	for _, id := range rctx.History {
		if id == item.ID {
			return true, nil
		}
	}
	return false, nil
}
