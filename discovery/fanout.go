package discovery

import (
	"context"
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/musicrec/core"
)

type lookuper interface {
	Lookup(ctx context.Context, id string) (*core.CatalogItem, error)
}

type broadSource interface {
	BroadDiscovery(ctx context.Context, k int) ([]*core.CatalogItem, error)
}

// Fanout 是按艺人并发发现的 core.DiscoveryService：
// 每个艺人先查 Primary（如 YouTube），不足部分由 Fallback（如离线目录）补齐；
// 各艺人的结果按艺人顺序合并、按 ID 去重、截断到 k。
// 全部艺人都拿不到结果时，退回 Fallback 的全局热门。
type Fanout struct {
	Primary  ArtistSearcher
	Fallback ArtistSearcher
	Artists  []string

	MaxArtists    int           // 每次最多查询的艺人数（0 表示 8）
	PerArtist     int           // 每个艺人的候选数（0 表示 10）
	Timeout       time.Duration // 每个艺人的超时时间
	MaxConcurrent int           // 最大并发数（0 表示无限制）
	Seed          int64         // 艺人抽样种子
}

func (f *Fanout) Name() string { return "fanout" }

func (f *Fanout) pickArtists() []string {
	artists := f.Artists
	if len(artists) == 0 {
		artists = DefaultArtists
	}
	n := f.MaxArtists
	if n <= 0 {
		n = 8
	}
	if len(artists) <= n {
		return artists
	}
	out := make([]string, 0, n)
	for _, i := range rand.New(rand.NewSource(f.Seed)).Perm(len(artists))[:n] {
		out = append(out, artists[i])
	}
	return out
}

// BroadDiscovery 返回至多 k 条候选
func (f *Fanout) BroadDiscovery(ctx context.Context, k int) ([]*core.CatalogItem, error) {
	if k <= 0 {
		return nil, nil
	}
	per := f.PerArtist
	if per <= 0 {
		per = 10
	}
	artists := f.pickArtists()
	slots := make([][]*core.CatalogItem, len(artists))
	errs := make([]error, len(artists))

	eg, egCtx := errgroup.WithContext(ctx)
	if f.MaxConcurrent > 0 {
		eg.SetLimit(f.MaxConcurrent)
	}
	for i, artist := range artists {
		i, artist := i, artist
		eg.Go(func() error {
			actx := egCtx
			if f.Timeout > 0 {
				var cancel context.CancelFunc
				actx, cancel = context.WithTimeout(egCtx, f.Timeout)
				defer cancel()
			}
			// 单个艺人失败不影响其他艺人
			slots[i], errs[i] = f.searchArtist(actx, artist, per)
			return nil
		})
	}
	_ = eg.Wait()

	seen := make(map[string]struct{}, k)
	var out []*core.CatalogItem
	for _, items := range slots {
		out = mergeUnique(out, seen, items, k)
	}
	if len(out) > 0 {
		return out, nil
	}

	if b, ok := f.Fallback.(broadSource); ok {
		items, err := b.BroadDiscovery(ctx, k)
		if err == nil && len(items) > 0 {
			return items, nil
		}
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func (f *Fanout) searchArtist(ctx context.Context, artist string, k int) ([]*core.CatalogItem, error) {
	var (
		out     []*core.CatalogItem
		seen    = make(map[string]struct{}, k)
		lastErr error
	)
	if f.Primary != nil {
		items, err := f.Primary.SearchArtist(ctx, artist, k)
		if err != nil {
			lastErr = err
		}
		out = mergeUnique(out, seen, items, k)
	}
	if len(out) < k && f.Fallback != nil {
		items, err := f.Fallback.SearchArtist(ctx, artist, k)
		if err != nil && lastErr == nil {
			lastErr = err
		}
		out = mergeUnique(out, seen, items, k)
	}
	if len(out) > 0 {
		return out, nil
	}
	return nil, lastErr
}

// Lookup 依次在 Primary、Fallback 中查找
func (f *Fanout) Lookup(ctx context.Context, id string) (*core.CatalogItem, error) {
	var lastErr error = core.ErrDiscoveryNotFound
	for _, s := range []ArtistSearcher{f.Primary, f.Fallback} {
		l, ok := s.(lookuper)
		if !ok || s == nil {
			continue
		}
		it, err := l.Lookup(ctx, id)
		if err == nil && it != nil {
			return it, nil
		}
		if err != nil && !core.IsNotFound(err) {
			lastErr = err
		}
	}
	return nil, lastErr
}
