package artifact

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/rushteam/musicrec/core"
	"github.com/rushteam/musicrec/model"
	"github.com/rushteam/musicrec/pkg/logging"
)

// 产物名称，同时是存储 key 的后缀
const (
	BlobCatalog    = "catalog"
	BlobPopularity = "popularity"
	BlobContent    = "content"
	BlobCollab     = "als"
)

// Persister 把快照中的各产物作为独立 blob 存入 core.Store。
//
// key 格式：{KeyPrefix}:{name}。每个 blob 独立加载，损坏的 blob 只让对应信号缺失。
type Persister struct {
	store core.Store

	// KeyPrefix 是存储 key 的前缀
	KeyPrefix string

	logger zerolog.Logger
}

func NewPersister(s core.Store, keyPrefix string) *Persister {
	if keyPrefix == "" {
		keyPrefix = "artifact"
	}
	return &Persister{store: s, KeyPrefix: keyPrefix, logger: logging.With("artifact")}
}

func (p *Persister) key(name string) string {
	return p.KeyPrefix + ":" + name
}

// Save 保存快照中存在的全部产物
func (p *Persister) Save(ctx context.Context, snap *Snapshot) error {
	if snap == nil {
		return nil
	}
	kvs := make(map[string][]byte, 4)
	add := func(name string, v any) error {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("artifact: encode %s: %w", name, err)
		}
		kvs[p.key(name)] = data
		return nil
	}
	if err := add(BlobCatalog, snap.Catalog.Items()); err != nil {
		return err
	}
	if snap.Popularity != nil {
		if err := add(BlobPopularity, snap.Popularity.Table()); err != nil {
			return err
		}
	}
	if snap.Content != nil {
		if err := add(BlobContent, snap.Content.Data()); err != nil {
			return err
		}
	}
	if snap.Collab != nil {
		if err := add(BlobCollab, snap.Collab.Data()); err != nil {
			return err
		}
	}
	if err := p.store.BatchSet(ctx, kvs); err != nil {
		return fmt.Errorf("artifact: save: %w", err)
	}
	return p.publishLeaderboard(ctx, snap.Popularity)
}

// LeaderboardKey 热度榜有序集合的 key
func (p *Persister) LeaderboardKey() string {
	return p.key(BlobPopularity) + ":rank"
}

// publishLeaderboard 后端支持有序集合时，把热度分写入榜单，供其他进程直接读取热门
func (p *Persister) publishLeaderboard(ctx context.Context, r *model.PopularityRanker) error {
	kv, ok := p.store.(core.KeyValueStore)
	if !ok || r == nil {
		return nil
	}
	key := p.LeaderboardKey()
	if err := kv.Delete(ctx, key); err != nil && !core.IsStoreNotFound(err) {
		return fmt.Errorf("artifact: reset leaderboard: %w", err)
	}
	for _, s := range r.TopK(r.Len()) {
		if err := kv.ZAdd(ctx, key, s.Score, s.ID); err != nil {
			if core.IsStoreNotSupported(err) {
				return nil
			}
			return fmt.Errorf("artifact: leaderboard: %w", err)
		}
	}
	return nil
}

// Leaderboard 读取热度榜前 k 名；后端不支持有序集合时返回 ErrStoreNotSupported
func (p *Persister) Leaderboard(ctx context.Context, k int) ([]string, error) {
	kv, ok := p.store.(core.KeyValueStore)
	if !ok {
		return nil, core.ErrStoreNotSupported
	}
	if k <= 0 {
		k = 10
	}
	return kv.ZRange(ctx, p.LeaderboardKey(), 0, int64(k-1))
}

// Load 加载快照。返回的 map 记录每个缺失/损坏的产物及原因；
// 目录缺失时快照目录为空。
func (p *Persister) Load(ctx context.Context) (*Snapshot, map[string]error) {
	snap := Empty()
	missing := make(map[string]error)

	var items []*core.CatalogItem
	if err := p.get(ctx, BlobCatalog, &items); err != nil {
		missing[BlobCatalog] = err
	} else {
		snap.Catalog = core.NewCatalog(items)
	}

	var table model.PopularityTable
	if err := p.get(ctx, BlobPopularity, &table); err != nil {
		missing[BlobPopularity] = err
	} else {
		snap.Popularity = model.NewPopularityRankerFromTable(table)
	}

	var cd model.ContentIndexData
	if err := p.get(ctx, BlobContent, &cd); err != nil {
		missing[BlobContent] = err
	} else if ci, err := model.NewContentIndexFromData(cd); err != nil {
		missing[BlobContent] = err
	} else {
		snap.Content = ci
	}

	var ad model.ALSData
	if err := p.get(ctx, BlobCollab, &ad); err != nil {
		missing[BlobCollab] = err
	} else if m, err := model.NewALSFromData(ad); err != nil {
		missing[BlobCollab] = err
	} else {
		snap.Collab = m
	}

	for name, err := range missing {
		ev := p.logger.Debug()
		switch {
		case core.IsMalformedArtifact(err):
			ev = p.logger.Warn()
		case !core.IsNotFound(err):
			ev = p.logger.Error()
		}
		ev.Str("artifact", name).Err(err).Msg("artifact unavailable, signal treated as missing")
	}
	return snap, missing
}

// LoadFailure 从 Load 返回的 map 中挑出既不是 NOT_FOUND 也不是 MALFORMED_ARTIFACT 的错误
// （通常是存储不可用），按产物名排序后合并返回；没有这类错误时返回 nil。
func LoadFailure(missing map[string]error) error {
	names := make([]string, 0, len(missing))
	for name, err := range missing {
		if err == nil || core.IsNotFound(err) || core.IsMalformedArtifact(err) {
			continue
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return nil
	}
	sort.Strings(names)
	errs := make([]error, len(names))
	for i, name := range names {
		errs[i] = missing[name]
	}
	return errors.Join(errs...)
}

func (p *Persister) get(ctx context.Context, name string, v any) error {
	data, err := p.store.Get(ctx, p.key(name))
	if err != nil {
		if core.IsStoreNotFound(err) {
			return core.NewDomainError(core.ModuleArtifact, core.ErrorCodeNotFound, "artifact: "+name+" not saved")
		}
		return fmt.Errorf("artifact: load %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return core.NewDomainError(core.ModuleArtifact, core.ErrorCodeMalformedArtifact,
			fmt.Sprintf("artifact: malformed %s blob: %v", name, err))
	}
	return nil
}
