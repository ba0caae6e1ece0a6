// Package artifact 管理派生产物（内容索引、热度表、协同模型）的构建、缓存与持久化。
package artifact

import (
	"time"

	"github.com/rushteam/musicrec/core"
	"github.com/rushteam/musicrec/hybrid"
	"github.com/rushteam/musicrec/model"
)

// Snapshot 是一组相互一致的只读产物。构建后不可修改，重建即整体替换。
// 任一模型字段为 nil 表示该信号缺失。
type Snapshot struct {
	Version    uint64
	BuiltAt    time.Time
	Catalog    *core.Catalog
	Content    *model.ContentIndex
	Popularity *model.PopularityRanker
	Collab     *model.ALS
}

// Empty 返回空快照（空目录、无任何信号）
func Empty() *Snapshot {
	return &Snapshot{Catalog: core.NewCatalog(nil)}
}

// Signals 把快照转换为 Blender 的输入；nil 字段转换为 nil 接口
func (s *Snapshot) Signals() hybrid.Signals {
	if s == nil {
		return hybrid.Signals{}
	}
	sig := hybrid.Signals{Catalog: s.Catalog}
	if s.Content != nil {
		sig.Content = s.Content
	}
	if s.Popularity != nil {
		sig.Popularity = s.Popularity
	}
	if s.Collab != nil {
		sig.Collab = s.Collab
	}
	return sig
}

// Describe 返回各产物规模，便于日志输出
func (s *Snapshot) Describe() map[string]any {
	if s == nil {
		return nil
	}
	return map[string]any{
		"version":    s.Version,
		"catalog":    s.Catalog.Len(),
		"vocabulary": s.Content.VocabularySize(),
		"popularity": s.Popularity.Len(),
		"users":      s.Collab.NumUsers(),
		"items":      s.Collab.NumItems(),
	}
}
