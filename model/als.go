package model

import (
	"context"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/musicrec/core"
)

// ALSConfig 是隐式反馈 ALS 的训练参数
type ALSConfig struct {
	// Factors 隐向量维度
	Factors int `yaml:"factors" env:"FACTORS"`
	// Regularization L2 正则系数
	Regularization float64 `yaml:"regularization" env:"REGULARIZATION"`
	// Iterations 交替迭代轮数
	Iterations int `yaml:"iterations" env:"ITERATIONS"`
	// Alpha 置信度放大系数：c = 1 + alpha * rating
	Alpha float64 `yaml:"alpha" env:"ALPHA"`
	// Workers 并行求解的协程数
	Workers int `yaml:"workers" env:"WORKERS"`
}

// DefaultALSConfig 返回默认参数
func DefaultALSConfig() ALSConfig {
	return ALSConfig{
		Factors:        64,
		Regularization: 0.1,
		Iterations:     50,
		Alpha:          1.0,
		Workers:        4,
	}
}

func (c ALSConfig) withDefaults() ALSConfig {
	d := DefaultALSConfig()
	if c.Factors <= 0 {
		c.Factors = d.Factors
	}
	if c.Regularization <= 0 {
		c.Regularization = d.Regularization
	}
	if c.Iterations <= 0 {
		c.Iterations = d.Iterations
	}
	if c.Alpha <= 0 {
		c.Alpha = d.Alpha
	}
	if c.Workers <= 0 {
		c.Workers = d.Workers
	}
	return c
}

// ALS 是训练完成的隐语义模型（用户/物品隐向量 + ID 与 code 的映射）。
//
// code 是排序后的唯一 ID 下标；训练后只读，可并发调用。
type ALS struct {
	users     []string
	items     []string
	userIndex map[string]int
	itemIndex map[string]int
	x         [][]float64
	y         [][]float64
	rated     [][]int // 每个用户打过分的物品 code，升序
}

// ALSData 是 ALS 的可持久化形式
type ALSData struct {
	Users       []string    `json:"users"`
	Items       []string    `json:"items"`
	UserFactors [][]float64 `json:"user_factors"`
	ItemFactors [][]float64 `json:"item_factors"`
	Rated       [][]int     `json:"rated"`
}

// TrainALS 在交互数据上离线训练 ALS。
//
// 同一 (user, item) 出现多次时取最大置信度；没有交互返回 ErrNoInteractions。
func TrainALS(ctx context.Context, interactions []core.Interaction, cfg ALSConfig) (*ALS, error) {
	cfg = cfg.withDefaults()
	if len(interactions) == 0 {
		return nil, ErrNoInteractions
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	users := uniqueSorted(interactions, func(in core.Interaction) string { return in.UserID })
	items := uniqueSorted(interactions, func(in core.Interaction) string { return in.ItemID })
	m := &ALS{
		users:     users,
		items:     items,
		userIndex: indexOf(users),
		itemIndex: indexOf(items),
	}

	userItems := make([]map[int]float64, len(users))
	itemUsers := make([]map[int]float64, len(items))
	for _, in := range interactions {
		u, i := m.userIndex[in.UserID], m.itemIndex[in.ItemID]
		conf := 1 + cfg.Alpha*float64(in.Rating)
		if userItems[u] == nil {
			userItems[u] = make(map[int]float64)
		}
		if itemUsers[i] == nil {
			itemUsers[i] = make(map[int]float64)
		}
		if conf > userItems[u][i] {
			userItems[u][i] = conf
			itemUsers[i][u] = conf
		}
	}
	m.rated = make([][]int, len(users))
	for u, row := range userItems {
		codes := make([]int, 0, len(row))
		for i := range row {
			codes = append(codes, i)
		}
		sort.Ints(codes)
		m.rated[u] = codes
	}

	m.x = initFactors(len(users), cfg.Factors)
	m.y = initFactors(len(items), cfg.Factors)

	for iter := 0; iter < cfg.Iterations; iter++ {
		if err := solveSide(ctx, m.x, m.y, userItems, cfg); err != nil {
			return nil, err
		}
		if err := solveSide(ctx, m.y, m.x, itemUsers, cfg); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func uniqueSorted(interactions []core.Interaction, key func(core.Interaction) string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, in := range interactions {
		k := key(in)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func indexOf(ids []string) map[string]int {
	m := make(map[string]int, len(ids))
	for i, id := range ids {
		m[id] = i
	}
	return m
}

// initFactors 确定性初始化，保证同样的输入训练出同样的模型
func initFactors(rows, factors int) [][]float64 {
	out := make([][]float64, rows)
	for r := range out {
		out[r] = make([]float64, factors)
		for f := 0; f < factors; f++ {
			out[r][f] = 0.1 * (float64((r*factors+f)%1000)/1000 - 0.5)
		}
	}
	return out
}

// solveSide 固定 other，逐行求解 target：
// (Oᵀ O + Oᵀ (Cᵣ - I) O + λI) t_r = Oᵀ Cᵣ p_r
func solveSide(ctx context.Context, target, other [][]float64, conf []map[int]float64, cfg ALSConfig) error {
	nf := cfg.Factors
	gram := make([][]float64, nf)
	for f := range gram {
		gram[f] = make([]float64, nf)
	}
	for _, o := range other {
		for f1 := 0; f1 < nf; f1++ {
			for f2 := f1; f2 < nf; f2++ {
				gram[f1][f2] += o[f1] * o[f2]
			}
		}
	}
	for f1 := 0; f1 < nf; f1++ {
		for f2 := 0; f2 < f1; f2++ {
			gram[f1][f2] = gram[f2][f1]
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	chunk := (len(target) + cfg.Workers - 1) / cfg.Workers
	for start := 0; start < len(target); start += chunk {
		start, end := start, min(start+chunk, len(target))
		g.Go(func() error {
			for r := start; r < end; r++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				target[r] = solveRow(gram, other, conf[r], nf, cfg.Regularization)
			}
			return nil
		})
	}
	return g.Wait()
}

func solveRow(gram, other [][]float64, row map[int]float64, nf int, lambda float64) []float64 {
	a := make([][]float64, nf)
	for f := range a {
		a[f] = make([]float64, nf)
		copy(a[f], gram[f])
		a[f][f] += lambda
	}
	b := make([]float64, nf)
	for j, c := range row {
		o := other[j]
		for f1 := 0; f1 < nf; f1++ {
			for f2 := f1; f2 < nf; f2++ {
				d := (c - 1) * o[f1] * o[f2]
				a[f1][f2] += d
				if f1 != f2 {
					a[f2][f1] += d
				}
			}
			b[f1] += c * o[f1]
		}
	}
	return solveLinearSystem(a, b)
}

// solveLinearSystem 用 Cholesky 分解求解对称正定方程组 A x = b
func solveLinearSystem(a [][]float64, b []float64) []float64 {
	n := len(b)
	l := make([][]float64, n)
	for i := range l {
		l[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			sum := a[i][j]
			for k := 0; k < j; k++ {
				sum -= l[i][k] * l[j][k]
			}
			if i == j {
				if sum <= 0 {
					sum = 1e-10
				}
				l[i][j] = math.Sqrt(sum)
			} else if l[j][j] != 0 {
				l[i][j] = sum / l[j][j]
			}
		}
	}

	z := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := b[i]
		for j := 0; j < i; j++ {
			sum -= l[i][j] * z[j]
		}
		if l[i][i] != 0 {
			z[i] = sum / l[i][i]
		}
	}
	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := z[i]
		for j := i + 1; j < n; j++ {
			sum -= l[j][i] * x[j]
		}
		if l[i][i] != 0 {
			x[i] = sum / l[i][i]
		}
	}
	return x
}

// NewALSFromData 从持久化数据恢复模型；维度不一致时返回 MALFORMED_ARTIFACT
func NewALSFromData(d ALSData) (*ALS, error) {
	malformed := func(msg string) error {
		return core.NewDomainError(core.ModuleCollab, core.ErrorCodeMalformedArtifact, "collab: "+msg)
	}
	if len(d.Users) != len(d.UserFactors) || len(d.Items) != len(d.ItemFactors) || len(d.Rated) != len(d.Users) {
		return nil, malformed("factor matrices do not match the code maps")
	}
	nf := -1
	for _, rows := range [][][]float64{d.UserFactors, d.ItemFactors} {
		for _, r := range rows {
			if nf < 0 {
				nf = len(r)
			}
			if len(r) != nf {
				return nil, malformed("factor rows differ in length")
			}
		}
	}
	for _, codes := range d.Rated {
		for _, c := range codes {
			if c < 0 || c >= len(d.Items) {
				return nil, malformed("rated item code out of range")
			}
		}
	}
	return &ALS{
		users:     d.Users,
		items:     d.Items,
		userIndex: indexOf(d.Users),
		itemIndex: indexOf(d.Items),
		x:         d.UserFactors,
		y:         d.ItemFactors,
		rated:     d.Rated,
	}, nil
}

func (m *ALS) Name() string { return "als" }

// NumUsers 返回用户数
func (m *ALS) NumUsers() int {
	if m == nil {
		return 0
	}
	return len(m.users)
}

// NumItems 返回物品数
func (m *ALS) NumItems() int {
	if m == nil {
		return 0
	}
	return len(m.items)
}

// KnowsUser 判断用户是否参与过训练
func (m *ALS) KnowsUser(user string) bool {
	if m == nil {
		return false
	}
	_, ok := m.userIndex[user]
	return ok
}

// Predict 返回用户对物品的偏好分（隐向量点积）
func (m *ALS) Predict(user, item string) (float64, error) {
	if m == nil {
		return 0, ErrUnknownUser
	}
	u, ok := m.userIndex[user]
	if !ok {
		return 0, ErrUnknownUser
	}
	i, ok := m.itemIndex[item]
	if !ok {
		return 0, ErrUnknownItem
	}
	return dot(m.x[u], m.y[i]), nil
}

// PredictMany 为一组物品打分，模型未见过的物品不出现在结果里
func (m *ALS) PredictMany(user string, items []string) (map[string]float64, error) {
	if m == nil {
		return nil, ErrUnknownUser
	}
	u, ok := m.userIndex[user]
	if !ok {
		return nil, ErrUnknownUser
	}
	out := make(map[string]float64, len(items))
	for _, id := range items {
		if i, ok := m.itemIndex[id]; ok {
			out[id] = dot(m.x[u], m.y[i])
		}
	}
	return out, nil
}

// Recommend 返回用户未打过分的物品中预测分最高的 k 个，分数相同按物品 code 升序
func (m *ALS) Recommend(user string, k int) ([]ScoredItem, error) {
	if m == nil {
		return nil, ErrUnknownUser
	}
	u, ok := m.userIndex[user]
	if !ok {
		return nil, ErrUnknownUser
	}
	scores := make([]float64, len(m.items))
	for i := range m.items {
		scores[i] = dot(m.x[u], m.y[i])
	}
	rated := m.rated[u]
	rows := RankRows(scores, k, func(i int) bool {
		n := sort.SearchInts(rated, i)
		return n < len(rated) && rated[n] == i
	})
	return toScored(m.items, scores, rows), nil
}

// SimilarItems 按物品隐向量的余弦相似度返回最相近的 k 个物品（不含自身）
func (m *ALS) SimilarItems(item string, k int) ([]ScoredItem, error) {
	if m == nil {
		return nil, ErrUnknownItem
	}
	q, ok := m.itemIndex[item]
	if !ok {
		return nil, ErrUnknownItem
	}
	qn := math.Sqrt(dot(m.y[q], m.y[q]))
	scores := make([]float64, len(m.items))
	for i, v := range m.y {
		n := math.Sqrt(dot(v, v))
		if n == 0 || qn == 0 {
			continue
		}
		scores[i] = dot(m.y[q], v) / (qn * n)
	}
	rows := RankRows(scores, k, func(i int) bool { return i == q })
	return toScored(m.items, scores, rows), nil
}

// Data 导出可持久化数据
func (m *ALS) Data() ALSData {
	if m == nil {
		return ALSData{}
	}
	return ALSData{
		Users:       m.users,
		Items:       m.items,
		UserFactors: m.x,
		ItemFactors: m.y,
		Rated:       m.rated,
	}
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
