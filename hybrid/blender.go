package hybrid

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rushteam/musicrec/core"
	"github.com/rushteam/musicrec/model"
	"github.com/rushteam/musicrec/pkg/logging"
	"github.com/rushteam/musicrec/pkg/metrics"
	"github.com/rushteam/musicrec/pkg/utils"
)

// Branch 标识混合排序走到的分支
type Branch string

const (
	BranchDiscovery    Branch = "discovery"     // 目录为空，走外部发现
	BranchPopularity   Branch = "popularity"    // 内容索引不可用，按热度
	BranchColdStart    Branch = "cold_start"    // 无收藏历史
	BranchStaleHistory Branch = "stale_history" // 历史全部不在目录中
	BranchContent      Branch = "content"       // 按内容相似度（可叠加协同）
)

// recall_source 取值
const (
	SourcePopularity = "popularity"
	SourceRandom     = "random"
	SourceContent    = "content"
	SourceDiscovery  = "discovery"
)

// ErrNothingToRank 目录为空且外部发现也不可用，没有任何信号
var ErrNothingToRank = core.NewDomainError(core.ModuleBlend, core.ErrorCodeEmptyCatalog,
	"blend: empty catalog and no discovery result")

var (
	popularityOf = model.PopularityScore
	defaults     core.RecommendConfig = &core.DefaultRecommendConfig{}
)

// Failure 是一次请求中某个协作方的失败，不影响其余信号的结果
type Failure struct {
	Collaborator string
	Err          error
}

func (f Failure) Error() string { return f.Collaborator + ": " + f.Err.Error() }

// Result 是一次排序的结果
type Result struct {
	RequestID string
	Branch    Branch
	Items     []*core.Item
	Failures  []Failure
}

// IDs 返回结果的 ID 列表
func (r *Result) IDs() []string {
	if r == nil {
		return nil
	}
	return core.ItemIDs(r.Items)
}

// Partial 表示结果是在部分协作方失败的情况下给出的
func (r *Result) Partial() bool { return r != nil && len(r.Failures) > 0 }

func (r *Result) fail(collaborator string, err error) {
	r.Failures = append(r.Failures, Failure{Collaborator: collaborator, Err: err})
}

// Blender 是混合排序的决策树：
//
//  1. 目录为空 -> 外部发现（最多 DiscoveryLimit 条）
//  2. 内容索引不可用 -> 热度排序
//  3. 无历史 -> 全部条目按热度稳定排序（无热度信号时用固定种子随机抽样）
//  4. 历史全部无法解析 -> 同 3
//  5. 有可解析历史 -> 历史条目排除，其余条目全部按内容相似度稳定排序（含相似度为 0 的）；索引未覆盖的条目按热度补齐
//
// Blender 本身不保存请求间状态，同样的输入给出同样的输出。
type Blender struct {
	discovery      core.DiscoveryService
	sampler        Sampler
	collabWeight   float64
	discoveryLimit int
	logger         zerolog.Logger
	metrics        *metrics.Metrics
}

// BlenderOption 配置 Blender
type BlenderOption func(*Blender)

// WithDiscovery 设置目录为空时使用的外部发现服务
func WithDiscovery(d core.DiscoveryService) BlenderOption {
	return func(b *Blender) { b.discovery = d }
}

// WithSampler 替换随机兜底使用的采样器
func WithSampler(s Sampler) BlenderOption {
	return func(b *Blender) {
		if s != nil {
			b.sampler = s
		}
	}
}

// WithCollabWeight 设置协同分数在内容分支中的权重，取值 [0,1]，0 表示不使用协同信号
func WithCollabWeight(w float64) BlenderOption {
	return func(b *Blender) {
		switch {
		case w < 0:
			w = 0
		case w > 1:
			w = 1
		}
		b.collabWeight = w
	}
}

// WithDiscoveryLimit 设置外部发现返回条数上限
func WithDiscoveryLimit(n int) BlenderOption {
	return func(b *Blender) {
		if n > 0 {
			b.discoveryLimit = n
		}
	}
}

func WithLogger(l zerolog.Logger) BlenderOption {
	return func(b *Blender) { b.logger = l }
}

func WithMetrics(m *metrics.Metrics) BlenderOption {
	return func(b *Blender) { b.metrics = m }
}

// NewBlender 创建 Blender，默认采样器为 SeededSampler{Seed: 42}
func NewBlender(opts ...BlenderOption) *Blender {
	b := &Blender{
		sampler:        SeededSampler{Seed: defaults.DefaultSeed()},
		discoveryLimit: defaults.DefaultDiscoveryLimit(),
		logger:         logging.With("hybrid"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Blend 为 rctx 描述的用户产出至多 k 条排序结果。
//
// 只有在目录为空且外部发现也拿不到结果时才返回错误（ErrNothingToRank），
// 其余情况下协作方失败都记录在 Result.Failures 中。
func (b *Blender) Blend(ctx context.Context, sig Signals, rctx *core.RecommendContext, k int) (*Result, error) {
	start := time.Now()
	defer b.metrics.ObserveDuration("blend", start)

	if k <= 0 {
		k = defaults.DefaultTopK()
	}
	if rctx == nil {
		rctx = &core.RecommendContext{}
	}
	res := &Result{RequestID: rctx.RequestID}
	if res.RequestID == "" {
		res.RequestID = uuid.NewString()
	}

	var err error
	switch {
	case sig.Catalog.Empty():
		res.Branch = BranchDiscovery
		err = b.fromDiscovery(ctx, res)
	case !sig.contentAvailable():
		res.Branch = BranchPopularity
		res.Items = b.popularityFirst(sig, k, res.Branch)
	case len(rctx.History) == 0:
		res.Branch = BranchColdStart
		res.Items = b.popularityFirst(sig, k, res.Branch)
	default:
		res.Branch = BranchContent
		res.Items = b.byContent(sig, rctx, k, res)
	}

	b.metrics.ObserveBranch(string(res.Branch))
	b.logger.Debug().
		Str("request_id", res.RequestID).
		Str("user_id", rctx.UserID).
		Str("branch", string(res.Branch)).
		Int("items", len(res.Items)).
		Int("failures", len(res.Failures)).
		Msg("blend finished")
	return res, err
}

func (b *Blender) fromDiscovery(ctx context.Context, res *Result) error {
	if b.discovery == nil {
		return ErrNothingToRank
	}
	records, err := b.discovery.BroadDiscovery(ctx, b.discoveryLimit)
	if err != nil {
		b.recordFailure(res, b.discovery.Name(), err)
	}
	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		if rec == nil || rec.ID == "" {
			continue
		}
		if _, dup := seen[rec.ID]; dup {
			continue
		}
		seen[rec.ID] = struct{}{}
		it := core.NewItemFromCatalog(rec, 0)
		it.PutLabel(utils.LabelRecallSource, utils.Label{Value: SourceDiscovery, Source: "blend"})
		it.PutLabel(utils.LabelBlendBranch, utils.Label{Value: string(BranchDiscovery), Source: "blend"})
		res.Items = append(res.Items, it)
		if len(res.Items) >= b.discoveryLimit {
			break
		}
	}
	if len(res.Items) == 0 {
		return ErrNothingToRank
	}
	return nil
}

// popularityFirst 是分支 2/3/4：有热度信号时全部条目按热度稳定排序（同分保持目录顺序），
// 没有热度信号时按固定种子随机抽样
func (b *Blender) popularityFirst(sig Signals, k int, branch Branch) []*core.Item {
	cat := sig.Catalog
	n := cat.Len()
	scores := make([]float64, n)
	for i := 0; i < n; i++ {
		scores[i] = sig.popularity(cat.At(i))
	}

	out := make([]*core.Item, 0, min(k, n))
	if sig.hasPopularitySignal() {
		for _, i := range model.RankRows(scores, k, nil) {
			out = append(out, b.newItem(cat.At(i), scores[i], SourcePopularity, branch, ""))
		}
		return out
	}

	selected := make(map[int]struct{}, k)
	for _, i := range b.sampler.Sample(n, min(k, n)) {
		if i < 0 || i >= n {
			continue
		}
		if _, dup := selected[i]; dup {
			continue
		}
		selected[i] = struct{}{}
		out = append(out, b.newItem(cat.At(i), scores[i], SourceRandom, branch, ""))
	}
	return out
}

// byContent 是分支 4/5
func (b *Blender) byContent(sig Signals, rctx *core.RecommendContext, k int, res *Result) []*core.Item {
	cat := sig.Catalog
	hist := cat.Resolve(rctx.History)
	if len(hist) == 0 {
		res.Branch = BranchStaleHistory
		return b.popularityFirst(sig, k, res.Branch)
	}
	histIDs := make([]string, len(hist))
	for n, i := range hist {
		histIDs[n] = cat.At(i).ID
	}

	row, err := sig.Content.SimilarityRow(histIDs)
	if err != nil {
		// 目录能解析但索引里没有（索引落后于目录），视为陈旧历史
		if !core.IsMissingSignal(err) {
			b.recordFailure(res, "content", err)
		}
		res.Branch = BranchStaleHistory
		return b.popularityFirst(sig, k, res.Branch)
	}

	n := cat.Len()
	scores := make([]float64, n)
	indexed := make([]bool, n)
	rowOf := make(map[string]int, n)
	for j, id := range sig.Content.IDs() {
		rowOf[id] = j
	}
	for i := 0; i < n; i++ {
		if j, ok := rowOf[cat.At(i).ID]; ok && j < len(row) {
			scores[i] = row[j]
			indexed[i] = true
		}
	}
	for _, i := range hist {
		scores[i] = -1
	}
	b.mixCollab(sig, rctx, scores, res)

	// 索引覆盖的非历史条目全部按相似度排序（含相似度为 0 的），同分保持目录顺序
	out := make([]*core.Item, 0, min(k, n))
	selected := make(map[int]struct{}, k)
	for _, i := range model.RankRows(scores, k, func(i int) bool { return scores[i] < 0 || !indexed[i] }) {
		selected[i] = struct{}{}
		out = append(out, b.newItem(cat.At(i), scores[i], SourceContent, BranchContent, ""))
	}
	if len(out) >= k {
		return out
	}

	// 索引落后于目录时，未被索引的条目按热度补齐
	pop := make([]float64, n)
	for i := 0; i < n; i++ {
		pop[i] = sig.popularity(cat.At(i))
	}
	for _, i := range model.RankRows(pop, k-len(out), func(i int) bool {
		_, sel := selected[i]
		return sel || scores[i] < 0
	}) {
		out = append(out, b.newItem(cat.At(i), pop[i], SourcePopularity, BranchContent, SourcePopularity))
	}
	return out
}

// mixCollab 把协同预测分（按候选集 min-max 归一化）按权重混入相似度分数。
// 模型不认识的用户视为缺失信号，不算失败。
func (b *Blender) mixCollab(sig Signals, rctx *core.RecommendContext, scores []float64, res *Result) {
	if b.collabWeight <= 0 || sig.Collab == nil || rctx.UserID == "" {
		return
	}
	cat := sig.Catalog
	ids := make([]string, 0, len(scores))
	for i, s := range scores {
		if s >= 0 {
			ids = append(ids, cat.At(i).ID)
		}
	}
	preds, err := sig.Collab.PredictMany(rctx.UserID, ids)
	if err != nil {
		if core.IsMissingSignal(err) {
			b.logger.Debug().Str("user_id", rctx.UserID).Err(err).Msg("collab signal missing")
			return
		}
		b.recordFailure(res, "collab", err)
		return
	}
	if len(preds) == 0 {
		return
	}
	lo, hi := 0.0, 0.0
	first := true
	for _, p := range preds {
		if first || p < lo {
			lo = p
		}
		if first || p > hi {
			hi = p
		}
		first = false
	}
	w := b.collabWeight
	for i, s := range scores {
		if s < 0 {
			continue
		}
		norm := 0.0
		if p, ok := preds[cat.At(i).ID]; ok && hi > lo {
			norm = (p - lo) / (hi - lo)
		}
		scores[i] = (1-w)*s + w*norm
	}
}

func (b *Blender) newItem(ci *core.CatalogItem, score float64, source string, branch Branch, backfill string) *core.Item {
	it := core.NewItemFromCatalog(ci, score)
	it.PutLabel(utils.LabelRecallSource, utils.Label{Value: source, Source: "blend"})
	it.PutLabel(utils.LabelBlendBranch, utils.Label{Value: string(branch), Source: "blend"})
	if backfill != "" {
		it.PutLabel(utils.LabelBackfill, utils.Label{Value: backfill, Source: "backfill"})
	}
	return it
}

func (b *Blender) recordFailure(res *Result, collaborator string, err error) {
	res.fail(collaborator, err)
	code := core.ErrorCodeInternalError
	if de := core.GetDomainError(err); de != nil {
		code = de.Code
	}
	b.metrics.ObserveCollaboratorError(collaborator, code)
	b.logger.Warn().Str("collaborator", collaborator).Err(err).Msg("collaborator failed, continuing with remaining signals")
}
