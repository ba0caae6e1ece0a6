package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveBranch("content")
	m.ObserveBranch("content")
	m.ObserveBranch("cold_start")
	m.ObserveCollaboratorError("discovery", "")
	m.ObserveRebuild("content", errors.New("boom"))
	m.ObserveDuration("recommend", time.Now())
	m.SetCatalogSize(5)

	if got := testutil.ToFloat64(m.BlendBranch.WithLabelValues("content")); got != 2 {
		t.Errorf("content branch = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.CollaboratorError.WithLabelValues("discovery", "unknown")); got != 1 {
		t.Errorf("discovery errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ArtifactRebuild.WithLabelValues("content", "error")); got != 1 {
		t.Errorf("rebuild errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.CatalogSize); got != 5 {
		t.Errorf("catalog size = %v, want 5", got)
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveBranch("content")
	m.ObserveCollaboratorError("discovery", "UNAVAILABLE")
	m.ObserveRebuild("als", nil)
	m.ObserveDuration("recommend", time.Now())
	m.SetCatalogSize(1)
}
