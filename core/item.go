package core

import "github.com/rushteam/musicrec/pkg/utils"

// Item 是推荐链路中的统一承载结构：打分、元信息、标签。
// ID 对应目录中的外部视频 ID；Labels 用于解释与观测；Score 用于排序决策。
type Item struct {
	ID       string
	Score    float64
	Features map[string]float64
	Meta     map[string]any
	Labels   map[string]utils.Label
}

func NewItem(id string) *Item {
	return &Item{
		ID:       id,
		Score:    0,
		Features: make(map[string]float64),
		Meta:     make(map[string]any),
		Labels:   make(map[string]utils.Label),
	}
}

// NewItemFromCatalog 用目录条目构建 Item，并把展示需要的标题/频道放进 Meta。
func NewItemFromCatalog(ci *CatalogItem, score float64) *Item {
	it := NewItem(ci.ID)
	it.Score = score
	it.Meta["title"] = ci.Title
	it.Meta["channel"] = ci.Channel
	return it
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// MetaString 读取字符串类型的 Meta 字段，不存在时返回空串。
func (it *Item) MetaString(key string) string {
	if it.Meta == nil {
		return ""
	}
	s, _ := it.Meta[key].(string)
	return s
}

// ItemIDs 提取 ID 列表，保持顺序。
func ItemIDs(items []*Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		out = append(out, it.ID)
	}
	return out
}
