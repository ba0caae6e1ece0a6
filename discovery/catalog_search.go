package discovery

import (
	"context"
	"sort"
	"strings"

	"github.com/rushteam/musicrec/core"
)

// CatalogSearch 是离线发现：在本地目录里按艺人名匹配频道/标题/描述/标签，
// 结果按播放量归一化值降序。目录通过函数注入，总是读到最新快照。
type CatalogSearch struct {
	catalog func() *core.Catalog
}

func NewCatalogSearch(catalog func() *core.Catalog) *CatalogSearch {
	return &CatalogSearch{catalog: catalog}
}

func (s *CatalogSearch) Name() string { return "catalog" }

func (s *CatalogSearch) current() *core.Catalog {
	if s == nil || s.catalog == nil {
		return nil
	}
	return s.catalog()
}

// SearchArtist 返回匹配 artist 的至多 k 条目录条目
func (s *CatalogSearch) SearchArtist(ctx context.Context, artist string, k int) ([]*core.CatalogItem, error) {
	name := strings.ToLower(strings.TrimSpace(artist))
	if name == "" {
		return nil, nil
	}
	var out []*core.CatalogItem
	for _, it := range s.current().Items() {
		if matches(it, name) {
			out = append(out, it)
		}
	}
	return topByViews(out, k), nil
}

// BroadDiscovery 返回播放量最高的 k 条目录条目
func (s *CatalogSearch) BroadDiscovery(ctx context.Context, k int) ([]*core.CatalogItem, error) {
	return topByViews(s.current().Items(), k), nil
}

// Lookup 在目录中按 ID 查找
func (s *CatalogSearch) Lookup(ctx context.Context, id string) (*core.CatalogItem, error) {
	if it, ok := s.current().Get(id); ok {
		return it, nil
	}
	return nil, core.ErrDiscoveryNotFound
}

func matches(it *core.CatalogItem, name string) bool {
	fields := []string{it.Channel, it.Title, it.Description, strings.Join(it.Tags, ",")}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), name) {
			return true
		}
	}
	return false
}

func topByViews(items []*core.CatalogItem, k int) []*core.CatalogItem {
	sort.SliceStable(items, func(a, b int) bool { return items[a].ViewNorm > items[b].ViewNorm })
	if k > 0 && len(items) > k {
		items = items[:k]
	}
	return items
}
