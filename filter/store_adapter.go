package filter

import (
	"context"

	"github.com/goccy/go-json"

	"github.com/rushteam/musicrec/core"
)

// StoreAdapter 将 core.Store 适配为过滤器所需的存储接口。
// 所有列表都以 JSON 字符串数组存储。
type StoreAdapter struct {
	store core.Store
}

// NewStoreAdapter 创建一个 core.Store 适配器。
func NewStoreAdapter(s core.Store) *StoreAdapter {
	return &StoreAdapter{store: s}
}

// GetBlacklist 从 Store 读取黑名单；key 不存在时返回空列表。
func (a *StoreAdapter) GetBlacklist(ctx context.Context, key string) ([]string, error) {
	data, err := a.store.Get(ctx, key)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// SetBlacklist 覆盖写入一个列表
func (a *StoreAdapter) SetBlacklist(ctx context.Context, key string, ids []string) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return a.store.Set(ctx, key, data)
}

// GetUserBlocks 从 Store 读取用户屏蔽的频道列表。
func (a *StoreAdapter) GetUserBlocks(ctx context.Context, userID string, keyPrefix string) ([]string, error) {
	return a.GetBlacklist(ctx, keyPrefix+":"+userID)
}

// GetExposedItems 从 Store 读取用户上一批已展示的物品。
func (a *StoreAdapter) GetExposedItems(ctx context.Context, userID string, keyPrefix string) ([]string, error) {
	return a.GetBlacklist(ctx, keyPrefix+":"+userID)
}

// SetExposedItems 记录本次展示给用户的物品，供下一次“换一批”排除
func (a *StoreAdapter) SetExposedItems(ctx context.Context, userID string, keyPrefix string, ids []string) error {
	return a.SetBlacklist(ctx, keyPrefix+":"+userID, ids)
}
