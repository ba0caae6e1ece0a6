package hybrid

import "github.com/rushteam/musicrec/core"

// SimilaritySource 是内容相似度信号（*model.ContentIndex 满足该接口）。
// SimilarityRow 的下标与 IDs() 对齐。
type SimilaritySource interface {
	Empty() bool
	IDs() []string
	SimilarityRow(ids []string) ([]float64, error)
}

// PopularitySource 是热度信号（*model.PopularityRanker 满足该接口）
type PopularitySource interface {
	Score(id string) float64
	HasSignal() bool
}

// CollabSource 是协同过滤信号（*model.ALS 满足该接口）
type CollabSource interface {
	PredictMany(user string, items []string) (map[string]float64, error)
}

// Signals 是一次排序用到的全部只读产物，通常来自同一个快照。
// 任一字段为 nil 表示该信号缺失。
type Signals struct {
	Catalog    *core.Catalog
	Content    SimilaritySource
	Popularity PopularitySource
	Collab     CollabSource
}

func (s Signals) contentAvailable() bool {
	return s.Content != nil && !s.Content.Empty()
}

func (s Signals) popularity(ci *core.CatalogItem) float64 {
	if s.Popularity != nil {
		return s.Popularity.Score(ci.ID)
	}
	return popularityOf(ci)
}

func (s Signals) hasPopularitySignal() bool {
	if s.Popularity != nil {
		return s.Popularity.HasSignal()
	}
	for _, ci := range s.Catalog.Items() {
		if popularityOf(ci) != 0 {
			return true
		}
	}
	return false
}
