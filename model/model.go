package model

import (
	"sort"

	"github.com/rushteam/musicrec/core"
)

// ScoredItem 是模型输出的一条打分结果。
// Index 为该物品在模型内部的行号（内容索引/热度表为目录行号，协同模型为物品 code）。
type ScoredItem struct {
	ID    string
	Index int
	Score float64
}

// 模型层的领域错误；均可用 core.IsXxx 判断，调用方据此降级到下一档信号。
var (
	ErrEmptyCatalog      = core.NewDomainError(core.ModuleContent, core.ErrorCodeEmptyCatalog, "content: empty catalog")
	ErrNoContentSignal   = core.NewDomainError(core.ModuleContent, core.ErrorCodeNoSignal, "content: empty vocabulary")
	ErrNoResolvableItems = core.NewDomainError(core.ModuleContent, core.ErrorCodeNoSignal, "content: no query id resolves to an indexed row")
	ErrNoInteractions    = core.NewDomainError(core.ModuleCollab, core.ErrorCodeNoSignal, "collab: no interactions to train on")
	ErrUnknownUser       = core.NewDomainError(core.ModuleCollab, core.ErrorCodeUnknownUser, "collab: unknown user")
	ErrUnknownItem       = core.NewDomainError(core.ModuleCollab, core.ErrorCodeUnknownItem, "collab: unknown item")
)

// RankRows 按分数降序返回最多 k 个行号，分数相同按行号升序（稳定排序）。
// skip 返回 true 的行不参与排序；k <= 0 表示不截断。
func RankRows(scores []float64, k int, skip func(i int) bool) []int {
	rows := make([]int, 0, len(scores))
	for i := range scores {
		if skip != nil && skip(i) {
			continue
		}
		rows = append(rows, i)
	}
	sort.SliceStable(rows, func(a, b int) bool {
		return scores[rows[a]] > scores[rows[b]]
	})
	if k > 0 && len(rows) > k {
		rows = rows[:k]
	}
	return rows
}

func toScored(ids []string, scores []float64, rows []int) []ScoredItem {
	out := make([]ScoredItem, len(rows))
	for n, i := range rows {
		out[n] = ScoredItem{ID: ids[i], Index: i, Score: scores[i]}
	}
	return out
}
