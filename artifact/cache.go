package artifact

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rushteam/musicrec/core"
	"github.com/rushteam/musicrec/feature"
)

// Cache 持有当前快照。
//
// 读方通过 Load 无锁读取，拿到的快照在其生命周期内不会变化；
// 写方（Rebuild / Extend）串行执行，构建出完整的新快照后原子替换，读方看到的要么是旧的要么是新的。
type Cache struct {
	current atomic.Pointer[Snapshot]
	version atomic.Uint64
	mu      sync.Mutex

	builder *Builder
}

// NewCache 创建缓存，初始为空快照
func NewCache(builder *Builder) *Cache {
	c := &Cache{builder: builder}
	c.current.Store(Empty())
	return c
}

// Load 返回当前快照，永不为 nil
func (c *Cache) Load() *Snapshot {
	return c.current.Load()
}

// Catalog 返回当前目录
func (c *Cache) Catalog() *core.Catalog {
	return c.Load().Catalog
}

// Swap 替换当前快照并分配新版本号
func (c *Cache) Swap(s *Snapshot) *Snapshot {
	if s == nil {
		s = Empty()
	}
	s.Version = c.version.Add(1)
	c.current.Store(s)
	return s
}

// Rebuild 用新目录和交互数据完整重建全部产物
func (c *Cache) Rebuild(ctx context.Context, catalog *core.Catalog, interactions []core.Interaction) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap, err := c.builder.Build(ctx, catalog, interactions)
	if err != nil {
		return nil, err
	}
	return c.Swap(snap), nil
}

// Extend 把一条新内容追加到目录（归一化字段为 0），重建依赖目录的产物后替换。
// 已在目录中时不做任何事，返回 false。
func (c *Cache) Extend(ctx context.Context, item *core.CatalogItem) (bool, error) {
	if item == nil || item.ID == "" {
		return false, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeInvalidInput, "catalog: empty item id")
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.Load()
	if prev.Catalog.Contains(item.ID) {
		return false, nil
	}
	catalog := prev.Catalog.Extend(feature.PrepareAppended(item))
	snap, err := c.builder.RebuildCatalogSignals(prev, catalog)
	if err != nil {
		return false, err
	}
	c.Swap(snap)
	return true, nil
}
