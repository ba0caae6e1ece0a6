package filter

import (
	"context"
	"strings"

	"github.com/rushteam/musicrec/core"
)

// ChannelPrefix 标记按频道封禁的黑名单条目，例如 "channel:Some Uploader"
const ChannelPrefix = "channel:"

// BlacklistFilter 过滤下架视频或被封禁频道的内容。
// 条目是视频 ID，或以 ChannelPrefix 开头的频道名（不区分大小写）。
// 内存条目与 Store 中 Key 对应的列表合并生效。
type BlacklistFilter struct {
	ItemIDs []string

	// Store/Key 可选，用于运营侧动态维护的黑名单
	Store BlacklistStore
	Key   string

	ids      map[string]struct{}
	channels map[string]struct{}
}

// BlacklistStore 是黑名单存储接口。
type BlacklistStore interface {
	GetBlacklist(ctx context.Context, key string) ([]string, error)
}

// NewBlacklistFilter 创建黑名单过滤器；storeAdapter 为 nil 时只使用内存条目。
func NewBlacklistFilter(entries []string, storeAdapter *StoreAdapter, key string) *BlacklistFilter {
	f := &BlacklistFilter{ItemIDs: entries, Key: key}
	if storeAdapter != nil {
		f.Store = storeAdapter
	}
	f.ids, f.channels = splitEntries(entries)
	return f
}

func splitEntries(entries []string) (ids, channels map[string]struct{}) {
	ids = make(map[string]struct{}, len(entries))
	channels = make(map[string]struct{})
	for _, e := range entries {
		if ch, ok := strings.CutPrefix(e, ChannelPrefix); ok {
			channels[strings.ToLower(strings.TrimSpace(ch))] = struct{}{}
			continue
		}
		ids[e] = struct{}{}
	}
	return ids, channels
}

func (f *BlacklistFilter) Name() string {
	return "filter.blacklist"
}

func (f *BlacklistFilter) ShouldFilter(
	ctx context.Context,
	_ *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	if blocked(f.ids, f.channels, item) {
		return true, nil
	}
	if f.Store == nil || f.Key == "" {
		return false, nil
	}

	entries, err := f.Store.GetBlacklist(ctx, f.Key)
	if err != nil {
		return false, err
	}
	ids, channels := splitEntries(entries)
	return blocked(ids, channels, item), nil
}

func blocked(ids, channels map[string]struct{}, item *core.Item) bool {
	if _, ok := ids[item.ID]; ok {
		return true
	}
	if len(channels) == 0 {
		return false
	}
	_, ok := channels[strings.ToLower(item.MetaString("channel"))]
	return ok
}
