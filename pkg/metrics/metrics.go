// Package metrics 提供推荐链路的 Prometheus 指标。
//
// 指标注册到调用方传入的 Registerer，避免测试之间共享全局注册表。
// 所有方法对 nil *Metrics 安全，未启用监控时直接传 nil 即可。
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics 汇总混合排序、协作方调用与产物重建的指标。
type Metrics struct {
	BlendBranch       *prometheus.CounterVec
	CollaboratorError *prometheus.CounterVec
	ArtifactRebuild   *prometheus.CounterVec
	RankDuration      *prometheus.HistogramVec
	CatalogSize       prometheus.Gauge
}

// New 在 reg 上注册全部指标；reg 为 nil 时使用 prometheus.NewRegistry()。
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &Metrics{
		BlendBranch: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "musicrec_blend_branch_total",
				Help: "Ranking requests by hybrid blender branch",
			},
			[]string{"branch"}, // discovery / popularity / cold_start / stale_history / content
		),
		CollaboratorError: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "musicrec_collaborator_errors_total",
				Help: "Failed collaborator calls that triggered a fallback",
			},
			[]string{"collaborator", "code"},
		),
		ArtifactRebuild: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "musicrec_artifact_rebuild_total",
				Help: "Artifact snapshot rebuilds",
			},
			[]string{"artifact", "result"},
		),
		RankDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "musicrec_rank_duration_seconds",
				Help:    "Latency of ranking operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		CatalogSize: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "musicrec_catalog_items",
				Help: "Items in the current catalog snapshot",
			},
		),
	}
}

func (m *Metrics) ObserveBranch(branch string) {
	if m == nil {
		return
	}
	m.BlendBranch.WithLabelValues(branch).Inc()
}

func (m *Metrics) ObserveCollaboratorError(collaborator, code string) {
	if m == nil {
		return
	}
	if code == "" {
		code = "unknown"
	}
	m.CollaboratorError.WithLabelValues(collaborator, code).Inc()
}

func (m *Metrics) ObserveRebuild(artifact string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.ArtifactRebuild.WithLabelValues(artifact, result).Inc()
}

func (m *Metrics) ObserveDuration(operation string, start time.Time) {
	if m == nil {
		return
	}
	m.RankDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (m *Metrics) SetCatalogSize(n int) {
	if m == nil {
		return
	}
	m.CatalogSize.Set(float64(n))
}
