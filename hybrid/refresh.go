package hybrid

import (
	"context"
	"errors"

	"github.com/rushteam/musicrec/core"
	"github.com/rushteam/musicrec/pkg/utils"
)

// Refresher 实现“换一批”：把 Blender 的输出当纯函数使用，过滤掉上一批已展示的 ID，
// 不足 k 条时用外部发现补齐；过滤后一条都不剩时退回未过滤的结果。
type Refresher struct {
	blender   *Blender
	discovery core.DiscoveryService
}

// NewRefresher 创建 Refresher；discovery 为 nil 时不做外部补齐
func NewRefresher(blender *Blender, discovery core.DiscoveryService) *Refresher {
	return &Refresher{blender: blender, discovery: discovery}
}

// Refresh 返回与 seen 不重叠的至多 k 条结果
func (r *Refresher) Refresh(ctx context.Context, sig Signals, rctx *core.RecommendContext, seen []string, k int) (*Result, error) {
	if k <= 0 {
		k = defaults.DefaultTopK()
	}
	if rctx == nil {
		rctx = &core.RecommendContext{}
	}
	exclude := make(map[string]struct{}, len(seen)+len(rctx.Exclude))
	for id := range rctx.Exclude {
		exclude[id] = struct{}{}
	}
	for _, id := range seen {
		exclude[id] = struct{}{}
	}

	// Blender 无状态，多要 len(exclude) 条以便过滤后仍有 k 条
	res, err := r.blender.Blend(ctx, sig, rctx, k+len(exclude))
	if err != nil && !errors.Is(err, ErrNothingToRank) {
		return res, err
	}
	if res == nil {
		res = &Result{RequestID: rctx.RequestID}
	}
	unfiltered := res.Items

	kept := make([]*core.Item, 0, k)
	picked := make(map[string]struct{}, k)
	take := func(it *core.Item) {
		if it == nil || len(kept) >= k {
			return
		}
		if _, ok := exclude[it.ID]; ok {
			return
		}
		if _, ok := picked[it.ID]; ok {
			return
		}
		picked[it.ID] = struct{}{}
		kept = append(kept, it)
	}
	for _, it := range unfiltered {
		take(it)
	}

	if len(kept) < k && r.discovery != nil {
		records, derr := r.discovery.BroadDiscovery(ctx, r.blender.discoveryLimit)
		if derr != nil {
			r.blender.recordFailure(res, r.discovery.Name(), derr)
		}
		for _, rec := range records {
			if rec == nil || rec.ID == "" {
				continue
			}
			it := core.NewItemFromCatalog(rec, 0)
			it.PutLabel(utils.LabelRecallSource, utils.Label{Value: SourceDiscovery, Source: "refresh"})
			it.PutLabel(utils.LabelBackfill, utils.Label{Value: SourceDiscovery, Source: "refresh"})
			take(it)
		}
	}

	if len(kept) == 0 {
		if len(unfiltered) > k {
			unfiltered = unfiltered[:k]
		}
		kept = unfiltered
	}
	res.Items = kept
	if len(res.Items) == 0 {
		return res, ErrNothingToRank
	}
	return res, nil
}
