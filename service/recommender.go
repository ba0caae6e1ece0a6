// Package service 把快照缓存、混合排序、换一批、收藏历史和外部发现组装成面向调用方的推荐服务。
package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/musicrec/artifact"
	"github.com/rushteam/musicrec/core"
	"github.com/rushteam/musicrec/filter"
	"github.com/rushteam/musicrec/history"
	"github.com/rushteam/musicrec/hybrid"
	"github.com/rushteam/musicrec/model"
	"github.com/rushteam/musicrec/pipeline"
	"github.com/rushteam/musicrec/pkg/logging"
	"github.com/rushteam/musicrec/pkg/metrics"
)

// DefaultExposedPrefix 是上一批展示结果的 key 前缀，与 filter.ExposedFilter 的默认值一致
const DefaultExposedPrefix = "user:exposed"

// ErrEmptyItemID 收藏时缺少物品 ID
var ErrEmptyItemID = core.NewDomainError(core.ModuleHistory, core.ErrorCodeInvalidInput, "history: empty item id")

// Request 一次推荐请求
type Request struct {
	UserID    string
	RequestID string
	Scene     string
	K         int

	// Seen 是“换一批”时上一批已展示的 ID；为空时从展示记录中读取
	Seen []string

	Params map[string]any
}

// Response 一次推荐的结果，Failures 非空表示部分失败
type Response struct {
	RequestID string
	Version   uint64
	Branch    hybrid.Branch
	Items     []*core.Item
	Failures  []hybrid.Failure
}

// IDs 返回结果 ID 列表
func (r *Response) IDs() []string {
	if r == nil {
		return nil
	}
	return core.ItemIDs(r.Items)
}

// Partial 是否有协作方失败
func (r *Response) Partial() bool { return r != nil && len(r.Failures) > 0 }

// SaveResult 收藏结果
type SaveResult struct {
	// Added 为 false 表示已经收藏过
	Added bool
	// CatalogExtended 表示该物品原本不在目录中，已查询并追加
	CatalogExtended bool
	Failures        []hybrid.Failure
}

// Recommender 是推荐服务入口。所有方法都可并发调用。
type Recommender struct {
	cache     *artifact.Cache
	blender   *hybrid.Blender
	refresher *hybrid.Refresher
	history   *history.Store
	discovery core.DiscoveryService
	pipeline  *pipeline.Pipeline

	exposed       *filter.StoreAdapter
	exposedPrefix string

	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// Option 配置 Recommender
type Option func(*Recommender)

// WithDiscovery 设置外部发现；用于收藏时补全目录以及换一批时补齐
func WithDiscovery(d core.DiscoveryService) Option {
	return func(r *Recommender) { r.discovery = d }
}

// WithPipeline 设置混合排序之后的过滤/重排链
func WithPipeline(p *pipeline.Pipeline) Option {
	return func(r *Recommender) { r.pipeline = p }
}

// WithExposure 记录每次返回的结果，作为下一次“换一批”的排除集合
func WithExposure(s core.Store, keyPrefix string) Option {
	return func(r *Recommender) {
		if s == nil {
			return
		}
		if keyPrefix == "" {
			keyPrefix = DefaultExposedPrefix
		}
		r.exposed = filter.NewStoreAdapter(s)
		r.exposedPrefix = keyPrefix
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(r *Recommender) { r.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Recommender) { r.metrics = m }
}

// NewRecommender 创建推荐服务；blender 为 nil 时使用默认参数
func NewRecommender(cache *artifact.Cache, blender *hybrid.Blender, hist *history.Store, opts ...Option) *Recommender {
	r := &Recommender{
		cache:   cache,
		blender: blender,
		history: hist,
		logger:  logging.With("service"),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.blender == nil {
		r.blender = hybrid.NewBlender(hybrid.WithDiscovery(r.discovery), hybrid.WithMetrics(r.metrics))
	}
	r.refresher = hybrid.NewRefresher(r.blender, r.discovery)
	return r
}

// Recommend 读取用户收藏历史，在当前快照上混合排序，再经过 Pipeline。
// 读历史失败按“无历史”处理并记为部分失败。
func (r *Recommender) Recommend(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	defer r.metrics.ObserveDuration("recommend", start)

	snap := r.cache.Load()
	rctx, failures := r.buildContext(ctx, req)
	res, err := r.blender.Blend(ctx, snap.Signals(), rctx, req.K)
	return r.finish(ctx, snap, rctx, req, res, failures, err)
}

// Refresh 返回与上一批不重叠的结果（“换一批”）
func (r *Recommender) Refresh(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	defer r.metrics.ObserveDuration("refresh", start)

	snap := r.cache.Load()
	rctx, failures := r.buildContext(ctx, req)
	seen := req.Seen
	if len(seen) == 0 && r.exposed != nil && req.UserID != "" {
		prev, err := r.exposed.GetExposedItems(ctx, req.UserID, r.exposedPrefix)
		if err != nil {
			failures = append(failures, r.fail("exposure", err))
		}
		seen = prev
	}
	res, err := r.refresher.Refresh(ctx, snap.Signals(), rctx, seen, req.K)
	return r.finish(ctx, snap, rctx, req, res, failures, err)
}

func (r *Recommender) buildContext(ctx context.Context, req Request) (*core.RecommendContext, []hybrid.Failure) {
	rctx := &core.RecommendContext{
		UserID:    req.UserID,
		RequestID: req.RequestID,
		Scene:     req.Scene,
		Params:    req.Params,
	}
	var failures []hybrid.Failure
	if req.UserID != "" && r.history != nil {
		hist, err := r.history.Get(ctx, req.UserID)
		if err != nil {
			failures = append(failures, r.fail(core.ModuleHistory, err))
		}
		rctx.History = hist
	}
	return rctx, failures
}

func (r *Recommender) finish(
	ctx context.Context,
	snap *artifact.Snapshot,
	rctx *core.RecommendContext,
	req Request,
	res *hybrid.Result,
	failures []hybrid.Failure,
	blendErr error,
) (*Response, error) {
	resp := &Response{RequestID: rctx.RequestID, Version: snap.Version, Failures: failures}
	if res != nil {
		resp.RequestID = res.RequestID
		resp.Branch = res.Branch
		resp.Items = res.Items
		resp.Failures = append(resp.Failures, res.Failures...)
	}
	if blendErr != nil {
		return resp, blendErr
	}

	if rctx.RequestID == "" {
		rctx.RequestID = resp.RequestID
	}
	items, err := r.pipeline.Run(ctx, rctx, resp.Items)
	if err != nil {
		return resp, err
	}
	k := req.K
	if k > 0 && len(items) > k {
		items = items[:k]
	}
	resp.Items = items

	if r.exposed != nil && req.UserID != "" {
		if err := r.exposed.SetExposedItems(ctx, req.UserID, r.exposedPrefix, resp.IDs()); err != nil {
			resp.Failures = append(resp.Failures, r.fail("exposure", err))
		}
	}
	return resp, nil
}

// SaveToLibrary 收藏一条内容：先确保它在目录中（不在则查询外部发现并追加），再写入收藏历史。
// 目录补全失败只记为部分失败；写历史失败才返回错误。
func (r *Recommender) SaveToLibrary(ctx context.Context, userID, itemID string) (*SaveResult, error) {
	if itemID == "" {
		return nil, ErrEmptyItemID
	}
	out := &SaveResult{}

	if !r.cache.Catalog().Contains(itemID) {
		extended, err := r.ensureInCatalog(ctx, itemID)
		if err != nil {
			out.Failures = append(out.Failures, r.fail(core.ModuleCatalog, err))
		}
		out.CatalogExtended = extended
	}

	added, err := r.history.Append(ctx, userID, itemID)
	if err != nil {
		return out, err
	}
	out.Added = added
	r.logger.Info().
		Str("user_id", userID).
		Str("item_id", itemID).
		Bool("added", added).
		Bool("catalog_extended", out.CatalogExtended).
		Msg("saved to library")
	return out, nil
}

func (r *Recommender) ensureInCatalog(ctx context.Context, itemID string) (bool, error) {
	if r.discovery == nil {
		return false, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeNotFound, "catalog: item not found and no discovery configured")
	}
	rec, err := r.discovery.Lookup(ctx, itemID)
	if err != nil {
		return false, err
	}
	if rec.ID == "" {
		rec.ID = itemID
	}
	return r.cache.Extend(ctx, rec)
}

// Similar 返回与 itemID 最相近的 k 条内容：优先用协同模型的物品隐向量，
// 协同模型未见过该物品时退回内容相似度。
func (r *Recommender) Similar(ctx context.Context, itemID string, k int) ([]*core.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k <= 0 {
		k = 10
	}
	snap := r.cache.Load()

	scored, err := snap.Collab.SimilarItems(itemID, k)
	source := "collab"
	if err != nil {
		if !core.IsMissingSignal(err) {
			return nil, err
		}
		source = hybrid.SourceContent
		scored, err = snap.Content.TopKBySimilarity([]string{itemID}, k)
		if err != nil {
			return nil, err
		}
	}
	return toItems(snap.Catalog, scored, source), nil
}

func toItems(catalog *core.Catalog, scored []model.ScoredItem, source string) []*core.Item {
	out := make([]*core.Item, 0, len(scored))
	for _, s := range scored {
		var it *core.Item
		if ci, ok := catalog.Get(s.ID); ok {
			it = core.NewItemFromCatalog(ci, s.Score)
		} else {
			it = core.NewItem(s.ID)
			it.Score = s.Score
		}
		it.Meta["similar_source"] = source
		out = append(out, it)
	}
	return out
}

func (r *Recommender) fail(collaborator string, err error) hybrid.Failure {
	code := ""
	if de := core.GetDomainError(err); de != nil {
		code = de.Code
	}
	r.metrics.ObserveCollaboratorError(collaborator, code)
	r.logger.Warn().Str("collaborator", collaborator).Err(err).Msg("collaborator failed, degrading")
	return hybrid.Failure{Collaborator: collaborator, Err: err}
}
