package filter

import (
	"context"

	"github.com/rushteam/musicrec/core"
)

// ExposedFilter 是已展示过滤器，过滤掉上一批已经展示给用户的物品（“换一批”）。
// 数据来源：
//  1. rctx.Exclude（请求内显式传入）
//  2. Store 中记录的上一批结果，key 为 {KeyPrefix}:{UserID}
type ExposedFilter struct {
	Store ExposedStore

	// KeyPrefix 默认 "user:exposed"
	KeyPrefix string
}

// ExposedStore 是展示历史存储接口。
type ExposedStore interface {
	GetExposedItems(ctx context.Context, userID string, keyPrefix string) ([]string, error)
}

// NewExposedFilter 创建一个已展示过滤器。
func NewExposedFilter(storeAdapter *StoreAdapter, keyPrefix string) *ExposedFilter {
	var store ExposedStore
	if storeAdapter != nil {
		store = storeAdapter
	}
	return &ExposedFilter{Store: store, KeyPrefix: keyPrefix}
}

func (f *ExposedFilter) Name() string {
	return "filter.exposed"
}

func (f *ExposedFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil || rctx == nil {
		return false, nil
	}
	if rctx.IsExcluded(item.ID) {
		return true, nil
	}
	if f.Store == nil || rctx.UserID == "" {
		return false, nil
	}

	keyPrefix := f.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = "user:exposed"
	}
	exposed, err := f.Store.GetExposedItems(ctx, rctx.UserID, keyPrefix)
	if err != nil {
		return false, err
	}
	for _, id := range exposed {
		if item.ID == id {
			return true, nil
		}
	}
	return false, nil
}
