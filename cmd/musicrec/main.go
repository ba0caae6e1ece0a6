// Command musicrec 是推荐引擎的命令行入口。
//
//	musicrec build     -config musicrec.yaml
//	musicrec recommend -user alice -k 10
//	musicrec refresh   -user alice -seen id1,id2
//	musicrec save      -user alice -item dQw4w9WgXcQ
//	musicrec similar   -item dQw4w9WgXcQ -k 5
//	musicrec history   -user alice
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/rushteam/musicrec/artifact"
	"github.com/rushteam/musicrec/config"
	"github.com/rushteam/musicrec/config/builders"
	"github.com/rushteam/musicrec/core"
	"github.com/rushteam/musicrec/discovery"
	"github.com/rushteam/musicrec/feature"
	"github.com/rushteam/musicrec/history"
	"github.com/rushteam/musicrec/hybrid"
	"github.com/rushteam/musicrec/pkg/logging"
	"github.com/rushteam/musicrec/pkg/metrics"
	"github.com/rushteam/musicrec/service"
	"github.com/rushteam/musicrec/store"
)

const usage = `usage: musicrec <command> [flags]

commands:
  build      load the catalog, synthesize interactions, build and persist artifacts
  recommend  rank the catalog for a user
  refresh    return a batch that does not overlap the previous one
  save       add an item to a user's library
  similar    items similar to a given item
  history    print a user's library
  popular    print the persisted popularity leaderboard (memory/redis stores)
`

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1], os.Args[2:]); err != nil {
		log := logging.L()
		log.Error().Err(err).Str("command", os.Args[1]).Msg("command failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd string, args []string) error {
	fset := flag.NewFlagSet(cmd, flag.ExitOnError)
	cfgPath := fset.String("config", os.Getenv("MUSICREC_CONFIG"), "path to YAML config")
	user := fset.String("user", "", "user id")
	item := fset.String("item", "", "item id")
	k := fset.Int("k", 0, "number of results (0 = configured top_k)")
	seen := fset.String("seen", "", "comma separated ids shown in the previous batch")
	scene := fset.String("scene", "", "request scene")
	if err := fset.Parse(args); err != nil {
		return err
	}

	// 兼容不带前缀的 YOUTUBE_API_KEY
	if key := os.Getenv("YOUTUBE_API_KEY"); key != "" && os.Getenv("MUSICREC_DISCOVERY_YOUTUBE_API_KEY") == "" {
		_ = os.Setenv("MUSICREC_DISCOVERY_YOUTUBE_API_KEY", key)
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}
	logging.Init(cfg.Log)

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	topK := *k
	if topK <= 0 {
		topK = cfg.Blend.TopK
	}

	switch cmd {
	case "build":
		return a.build(ctx)
	case "recommend", "refresh":
		if err := a.ensureLoaded(ctx); err != nil {
			return err
		}
		req := service.Request{UserID: *user, Scene: *scene, K: topK, Seen: splitIDs(*seen)}
		var resp *service.Response
		if cmd == "recommend" {
			resp, err = a.rec.Recommend(ctx, req)
		} else {
			resp, err = a.rec.Refresh(ctx, req)
		}
		if resp != nil {
			printResponse(resp)
		}
		return err
	case "save":
		if err := a.ensureLoaded(ctx); err != nil {
			return err
		}
		res, err := a.rec.SaveToLibrary(ctx, *user, *item)
		if err != nil {
			return err
		}
		for _, f := range res.Failures {
			fmt.Printf("warning: %v\n", f)
		}
		if res.CatalogExtended {
			if err := a.persister.Save(ctx, a.cache.Load()); err != nil {
				return err
			}
		}
		fmt.Printf("saved=%v catalog_extended=%v\n", res.Added, res.CatalogExtended)
		return nil
	case "similar":
		if err := a.ensureLoaded(ctx); err != nil {
			return err
		}
		items, err := a.rec.Similar(ctx, *item, topK)
		if err != nil {
			return err
		}
		printItems(items)
		return nil
	case "popular":
		ids, err := a.persister.Leaderboard(ctx, topK)
		if err != nil {
			return err
		}
		for i, id := range ids {
			fmt.Printf("%2d. %s\n", i+1, id)
		}
		return nil
	case "history":
		ids, err := a.history.Get(ctx, *user)
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

type app struct {
	cfg       *config.AppConfig
	store     core.Store
	cache     *artifact.Cache
	persister *artifact.Persister
	history   *history.Store
	rec       *service.Recommender
	logger    zerolog.Logger
}

func newApp(ctx context.Context, cfg *config.AppConfig) (*app, error) {
	st, err := openStore(cfg.Store)
	if err != nil {
		return nil, err
	}
	m := metrics.New(prometheus.NewRegistry())

	builder := artifact.NewBuilder(cfg.Content, cfg.Collab)
	builder.Metrics = m
	cache := artifact.NewCache(builder)

	disc, err := newDiscovery(ctx, cfg.Discovery, cache)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	builders.UseStore(st)
	pl, err := cfg.PipelineConfig().BuildPipeline(config.DefaultFactory())
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	pl.Metrics = m

	blenderOpts := []hybrid.BlenderOption{
		hybrid.WithCollabWeight(cfg.Blend.CollabWeight),
		hybrid.WithDiscoveryLimit(cfg.Blend.DiscoveryLimit),
		hybrid.WithSampler(hybrid.SeededSampler{Seed: cfg.Blend.Seed}),
		hybrid.WithMetrics(m),
	}
	if disc != nil {
		blenderOpts = append(blenderOpts, hybrid.WithDiscovery(disc))
	}
	hist := history.NewStore(st, cfg.Store.HistoryPrefix)

	recOpts := []service.Option{
		service.WithPipeline(pl),
		service.WithExposure(st, ""),
		service.WithMetrics(m),
	}
	if disc != nil {
		recOpts = append(recOpts, service.WithDiscovery(disc))
	}

	return &app{
		cfg:       cfg,
		store:     st,
		cache:     cache,
		persister: artifact.NewPersister(st, cfg.Store.ArtifactPrefix),
		history:   hist,
		rec:       service.NewRecommender(cache, hybrid.NewBlender(blenderOpts...), hist, recOpts...),
		logger:    logging.With("cli"),
	}, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("close store")
	}
}

func openStore(cfg config.StoreConfig) (core.Store, error) {
	switch cfg.Backend {
	case "redis":
		return store.NewRedisStore(cfg.RedisAddr, cfg.RedisDB)
	case "badger":
		return store.NewBadgerStore(cfg.BadgerDir)
	default:
		return store.NewMemoryStore(), nil
	}
}

// newDiscovery 返回 nil 表示不启用外部发现
func newDiscovery(ctx context.Context, cfg config.DiscoveryConfig, cache *artifact.Cache) (core.DiscoveryService, error) {
	offline := discovery.NewCatalogSearch(cache.Catalog)
	switch cfg.Provider {
	case "none":
		return nil, nil
	case "youtube":
		yt, err := discovery.NewYouTube(ctx, cfg.APIKey)
		if err != nil {
			return nil, err
		}
		fan := &discovery.Fanout{
			Primary:       yt,
			Fallback:      offline,
			Artists:       cfg.Artists,
			MaxArtists:    cfg.MaxArtists,
			PerArtist:     cfg.PerArtist,
			Timeout:       cfg.Timeout,
			MaxConcurrent: cfg.MaxConcurrent,
			Seed:          time.Now().UnixNano(),
		}
		return discovery.NewBreaker(fan, cfg.Breaker), nil
	default:
		return offline, nil
	}
}

func (a *app) loadCatalog(ctx context.Context) (*core.Catalog, error) {
	path := a.cfg.Catalog.Path
	var loader feature.CatalogLoader = feature.NewFileCatalogLoader()
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		loader = feature.NewHTTPCatalogLoader(30 * time.Second)
	}
	records, err := loader.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	catalog, _ := feature.AttachSyntheticAudio(feature.Build(records), a.cfg.Catalog.Seed)
	return catalog, nil
}

func (a *app) build(ctx context.Context) error {
	catalog, err := a.loadCatalog(ctx)
	if err != nil {
		return err
	}
	interactions := feature.GenerateInteractions(catalog.IDs(), feature.InteractionConfig{
		Users:    a.cfg.Catalog.Users,
		MinItems: a.cfg.Catalog.MinItems,
		MaxItems: a.cfg.Catalog.MaxItems,
		Seed:     a.cfg.Catalog.Seed,
	})
	snap, err := a.cache.Rebuild(ctx, catalog, interactions)
	if err != nil {
		return err
	}
	if err := a.persister.Save(ctx, snap); err != nil {
		return err
	}
	a.logger.Info().Fields(snap.Describe()).Int("interactions", len(interactions)).Msg("artifacts saved")
	return nil
}

// ensureLoaded 优先读取已持久化的产物；没有目录时现场构建（内存存储每次进程都需要这样做）
func (a *app) ensureLoaded(ctx context.Context) error {
	// 缺失/损坏的 blob 由 Persister 记录日志，对应信号视为缺失；存储本身出错时不做重建
	snap, missing := a.persister.Load(ctx)
	if err := artifact.LoadFailure(missing); err != nil {
		return fmt.Errorf("load artifacts: %w", err)
	}
	if snap != nil && !snap.Catalog.Empty() {
		a.cache.Swap(snap)
		return nil
	}
	if a.cfg.Catalog.Path == "" {
		return nil
	}
	if err := a.build(ctx); err != nil {
		a.logger.Warn().Err(err).Msg("build on demand failed, serving without catalog")
	}
	return nil
}

func splitIDs(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}

func printResponse(resp *service.Response) {
	fmt.Printf("request=%s branch=%s version=%d\n", resp.RequestID, resp.Branch, resp.Version)
	printItems(resp.Items)
	for _, f := range resp.Failures {
		fmt.Printf("warning: %v\n", f)
	}
}

func printItems(items []*core.Item) {
	for i, it := range items {
		fmt.Printf("%2d. %-12s %.4f  %s / %s\n", i+1, it.ID, it.Score, it.MetaString("title"), it.MetaString("channel"))
	}
}
