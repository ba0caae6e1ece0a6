// Package musicrec 是一个混合音乐推荐引擎。
//
// 设计要点：
// - Signals-first: 热度、内容相似度（TF-IDF）、协同过滤（ALS）三类信号，缺失任一信号都按固定决策树降级
// - Snapshot: 派生产物整体构建、原子替换，读方无锁
// - Labels-first: 每条结果都带 recall_source / blend_branch / backfill 标签，便于解释与观测
// - Pipeline: 混合排序之后的过滤/重排通过 Node 串联，可由配置驱动
package musicrec

import (
	"github.com/rushteam/musicrec/hybrid"
	"github.com/rushteam/musicrec/pipeline"
	"github.com/rushteam/musicrec/service"
)

// 轻量 facade：便于直接 import "musicrec" 使用核心抽象。
type (
	Pipeline    = pipeline.Pipeline
	Node        = pipeline.Node
	Kind        = pipeline.Kind
	Blender     = hybrid.Blender
	Recommender = service.Recommender
)

const (
	KindFilter      = pipeline.KindFilter
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)
