package model

import "github.com/rushteam/musicrec/core"

// 综合热度权重
const (
	ViewWeight    = 0.7
	LikeWeight    = 0.2
	CommentWeight = 0.1
)

// PopularityScore 计算单个条目的综合热度：0.7*view + 0.2*like + 0.1*comment（均为归一化值）。
// nil 条目得分为 0。
func PopularityScore(it *core.CatalogItem) float64 {
	if it == nil {
		return 0
	}
	return ViewWeight*it.ViewNorm + LikeWeight*it.LikeNorm + CommentWeight*it.CommentNorm
}

// PopularityRanker 是热度排序器：每个目录行一个综合热度分，构建后只读。
// 它永远不会失败；没有热度信号时所有分数为 0，排序退化为目录行顺序。
type PopularityRanker struct {
	ids    []string
	scores []float64
	index  map[string]int
}

// PopularityTable 是热度表的可持久化形式（按目录行顺序）
type PopularityTable struct {
	IDs    []string  `json:"ids"`
	Scores []float64 `json:"scores"`
}

// NewPopularityRanker 从目录快照计算热度表
func NewPopularityRanker(catalog *core.Catalog) *PopularityRanker {
	n := catalog.Len()
	t := PopularityTable{IDs: make([]string, n), Scores: make([]float64, n)}
	for i := 0; i < n; i++ {
		it := catalog.At(i)
		t.IDs[i] = it.ID
		t.Scores[i] = PopularityScore(it)
	}
	return NewPopularityRankerFromTable(t)
}

// NewPopularityRankerFromTable 从持久化的热度表恢复排序器；长度不一致时以较短者为准
func NewPopularityRankerFromTable(t PopularityTable) *PopularityRanker {
	n := len(t.IDs)
	if len(t.Scores) < n {
		n = len(t.Scores)
	}
	r := &PopularityRanker{
		ids:    append([]string(nil), t.IDs[:n]...),
		scores: append([]float64(nil), t.Scores[:n]...),
		index:  make(map[string]int, n),
	}
	for i, id := range r.ids {
		if _, dup := r.index[id]; !dup {
			r.index[id] = i
		}
	}
	return r
}

func (r *PopularityRanker) Name() string { return "popularity" }

// Len 返回热度表行数
func (r *PopularityRanker) Len() int {
	if r == nil {
		return 0
	}
	return len(r.ids)
}

// Score 返回 ID 的热度分；不在表中的 ID 为 0
func (r *PopularityRanker) Score(id string) float64 {
	if r == nil {
		return 0
	}
	if i, ok := r.index[id]; ok {
		return r.scores[i]
	}
	return 0
}

// HasSignal 判断是否存在非零热度分
func (r *PopularityRanker) HasSignal() bool {
	if r == nil {
		return false
	}
	for _, s := range r.scores {
		if s != 0 {
			return true
		}
	}
	return false
}

// TopK 返回热度最高的 k 个条目，分数相同保持表内行顺序；k <= 0 返回全部
func (r *PopularityRanker) TopK(k int) []ScoredItem {
	if r.Len() == 0 {
		return nil
	}
	return toScored(r.ids, r.scores, RankRows(r.scores, k, nil))
}

// Table 导出可持久化的热度表
func (r *PopularityRanker) Table() PopularityTable {
	if r == nil {
		return PopularityTable{}
	}
	return PopularityTable{
		IDs:    append([]string(nil), r.ids...),
		Scores: append([]float64(nil), r.scores...),
	}
}
