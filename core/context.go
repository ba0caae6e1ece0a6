package core

import "github.com/rushteam/musicrec/pkg/utils"

// RecommendContext 承载用户/场景/请求参数，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	UserID    string
	RequestID string
	Scene     string

	// History 是用户已收藏的物品 ID（有序、去重），由上层从 HistoryStore 读取后注入
	History []string

	// Exclude 是上层希望排除的物品 ID（例如“换一批”时上一次已展示的结果）
	Exclude map[string]struct{}

	// Labels 是用户级标签，可驱动整个 Pipeline 行为
	// 例如：cold_start、stale_history
	Labels map[string]utils.Label

	// Params 请求级上下文参数，例如 top_k、refresh
	Params map[string]any
}

// PutLabel 写入用户级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取用户级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}

// IsExcluded 判断物品是否在排除集合中。
func (rctx *RecommendContext) IsExcluded(id string) bool {
	if rctx == nil || rctx.Exclude == nil {
		return false
	}
	_, ok := rctx.Exclude[id]
	return ok
}
