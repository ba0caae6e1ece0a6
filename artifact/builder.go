package artifact

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/musicrec/core"
	"github.com/rushteam/musicrec/model"
	"github.com/rushteam/musicrec/pkg/logging"
	"github.com/rushteam/musicrec/pkg/metrics"
)

// Builder 在一个目录快照上并发构建三类模型。
// 缺失信号（空目录、无交互）不是错误，对应字段留空。
type Builder struct {
	Content model.ContentOptions
	ALS     model.ALSConfig

	Metrics *metrics.Metrics
	Logger  zerolog.Logger
}

func NewBuilder(content model.ContentOptions, als model.ALSConfig) *Builder {
	return &Builder{Content: content, ALS: als, Logger: logging.With("artifact")}
}

// Build 构建完整快照
func (b *Builder) Build(ctx context.Context, catalog *core.Catalog, interactions []core.Interaction) (*Snapshot, error) {
	if catalog == nil {
		catalog = core.NewCatalog(nil)
	}
	snap := &Snapshot{Catalog: catalog}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		ci, err := b.buildContent(catalog)
		snap.Content = ci
		return err
	})
	eg.Go(func() error {
		start := time.Now()
		snap.Popularity = model.NewPopularityRanker(catalog)
		b.Metrics.ObserveRebuild("popularity", nil)
		b.Metrics.ObserveDuration("build_popularity", start)
		return nil
	})
	eg.Go(func() error {
		m, err := b.buildCollab(egCtx, interactions)
		snap.Collab = m
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	snap.BuiltAt = time.Now()
	b.Metrics.SetCatalogSize(catalog.Len())
	b.Logger.Info().Fields(snap.Describe()).Msg("artifacts built")
	return snap, nil
}

func (b *Builder) buildContent(catalog *core.Catalog) (*model.ContentIndex, error) {
	start := time.Now()
	defer b.Metrics.ObserveDuration("build_content", start)
	ci, err := model.BuildContentIndex(catalog, b.Content)
	if err != nil {
		if core.IsMissingSignal(err) {
			b.Logger.Debug().Err(err).Msg("content index skipped")
			return nil, nil
		}
		b.Metrics.ObserveRebuild("content", err)
		return nil, fmt.Errorf("artifact: build content index: %w", err)
	}
	b.Metrics.ObserveRebuild("content", nil)
	return ci, nil
}

func (b *Builder) buildCollab(ctx context.Context, interactions []core.Interaction) (*model.ALS, error) {
	start := time.Now()
	defer b.Metrics.ObserveDuration("build_collab", start)
	m, err := model.TrainALS(ctx, interactions, b.ALS)
	if err != nil {
		if core.IsMissingSignal(err) {
			b.Logger.Debug().Err(err).Msg("collaborative model skipped")
			return nil, nil
		}
		b.Metrics.ObserveRebuild("collab", err)
		return nil, fmt.Errorf("artifact: train als: %w", err)
	}
	b.Metrics.ObserveRebuild("collab", nil)
	return m, nil
}

// RebuildCatalogSignals 只重建依赖目录的产物（内容索引与热度），协同模型沿用 prev
func (b *Builder) RebuildCatalogSignals(prev *Snapshot, catalog *core.Catalog) (*Snapshot, error) {
	ci, err := b.buildContent(catalog)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{
		Catalog:    catalog,
		Content:    ci,
		Popularity: model.NewPopularityRanker(catalog),
		BuiltAt:    time.Now(),
	}
	if prev != nil {
		snap.Collab = prev.Collab
	}
	b.Metrics.SetCatalogSize(catalog.Len())
	return snap, nil
}
