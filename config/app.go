package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"gopkg.in/yaml.v3"

	"github.com/rushteam/musicrec/core"
	"github.com/rushteam/musicrec/discovery"
	"github.com/rushteam/musicrec/model"
	"github.com/rushteam/musicrec/pipeline"
	"github.com/rushteam/musicrec/pkg/logging"
)

// AppConfig 是进程级配置：先读 YAML，再用环境变量覆盖（MUSICREC_ 前缀）。
type AppConfig struct {
	Catalog   CatalogConfig         `yaml:"catalog" envPrefix:"CATALOG_"`
	Content   model.ContentOptions  `yaml:"content" envPrefix:"CONTENT_"`
	Collab    model.ALSConfig       `yaml:"collab" envPrefix:"COLLAB_"`
	Blend     BlendConfig           `yaml:"blend" envPrefix:"BLEND_"`
	Discovery DiscoveryConfig       `yaml:"discovery" envPrefix:"DISCOVERY_"`
	Store     StoreConfig           `yaml:"store" envPrefix:"STORE_"`
	Log       logging.Config        `yaml:"log"`
	Pipeline  []pipeline.NodeConfig `yaml:"pipeline"`
}

// CatalogConfig 目录与合成交互数据
type CatalogConfig struct {
	// Path 本地 JSON/CSV 文件，或 http(s) URL
	Path string `yaml:"path" env:"PATH"`

	Users    int   `yaml:"users" env:"USERS"`
	MinItems int   `yaml:"min_items" env:"MIN_ITEMS"`
	MaxItems int   `yaml:"max_items" env:"MAX_ITEMS"`
	Seed     int64 `yaml:"seed" env:"SEED"`
}

// BlendConfig 混合排序参数
type BlendConfig struct {
	TopK           int     `yaml:"top_k" env:"TOP_K"`
	CollabWeight   float64 `yaml:"collab_weight" env:"COLLAB_WEIGHT"`
	DiscoveryLimit int     `yaml:"discovery_limit" env:"DISCOVERY_LIMIT"`
	Seed           int64   `yaml:"seed" env:"SEED"`
}

// DiscoveryConfig 外部发现
type DiscoveryConfig struct {
	// Provider: youtube / catalog / none
	Provider      string                  `yaml:"provider" env:"PROVIDER"`
	APIKey        string                  `yaml:"api_key" env:"YOUTUBE_API_KEY"`
	Artists       []string                `yaml:"artists" env:"ARTISTS" envSeparator:","`
	MaxArtists    int                     `yaml:"max_artists" env:"MAX_ARTISTS"`
	PerArtist     int                     `yaml:"per_artist" env:"PER_ARTIST"`
	MaxConcurrent int                     `yaml:"max_concurrent" env:"MAX_CONCURRENT"`
	Timeout       time.Duration           `yaml:"timeout" env:"TIMEOUT"`
	Breaker       discovery.BreakerConfig `yaml:"breaker" envPrefix:"BREAKER_"`
}

// StoreConfig 历史与产物的存储后端
type StoreConfig struct {
	// Backend: memory / redis / badger
	Backend   string `yaml:"backend" env:"BACKEND"`
	RedisAddr string `yaml:"redis_addr" env:"REDIS_ADDR"`
	RedisDB   int    `yaml:"redis_db" env:"REDIS_DB"`
	BadgerDir string `yaml:"badger_dir" env:"BADGER_DIR"`

	HistoryPrefix  string `yaml:"history_prefix" env:"HISTORY_PREFIX"`
	ArtifactPrefix string `yaml:"artifact_prefix" env:"ARTIFACT_PREFIX"`
}

var defaults core.RecommendConfig = &core.DefaultRecommendConfig{}

// Default 返回默认配置
func Default() *AppConfig {
	return &AppConfig{
		Catalog: CatalogConfig{
			Path:     "data/catalog.json",
			Users:    1000,
			MinItems: 10,
			MaxItems: 29,
			Seed:     defaults.DefaultSeed(),
		},
		Content: model.ContentOptions{MaxFeatures: model.DefaultMaxFeatures},
		Collab:  model.DefaultALSConfig(),
		Blend: BlendConfig{
			TopK:           defaults.DefaultTopK(),
			CollabWeight:   0,
			DiscoveryLimit: defaults.DefaultDiscoveryLimit(),
			Seed:           defaults.DefaultSeed(),
		},
		Discovery: DiscoveryConfig{
			Provider:   "catalog",
			MaxArtists: 8,
			PerArtist:  10,
			Timeout:    defaults.DefaultTimeout(),
			Breaker:    discovery.DefaultBreakerConfig(),
		},
		Store: StoreConfig{
			Backend:        "memory",
			RedisAddr:      "localhost:6379",
			BadgerDir:      "data/badger",
			HistoryPrefix:  "history",
			ArtifactPrefix: "artifact",
		},
		Log: logging.Config{Level: "info", Format: "console"},
	}
}

// Load 读取配置：path 为空时只用默认值 + 环境变量。
func Load(path string) (*AppConfig, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, core.NewDomainError("config", core.ErrorCodeInvalidInput, fmt.Sprintf("parse %s: %v", path, err))
		}
	}
	if err := env.Parse(cfg, env.Options{Prefix: "MUSICREC_"}); err != nil {
		return nil, core.NewDomainError("config", core.ErrorCodeInvalidInput, fmt.Sprintf("env: %v", err))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 检查取值范围与 pipeline 节点类型
func (c *AppConfig) Validate() error {
	invalid := func(msg string) error {
		return core.NewDomainError("config", core.ErrorCodeInvalidInput, msg)
	}
	if c.Blend.TopK < 0 {
		return invalid("blend.top_k must be >= 0")
	}
	if c.Blend.CollabWeight < 0 || c.Blend.CollabWeight > 1 {
		return invalid("blend.collab_weight must be in [0, 1]")
	}
	switch c.Store.Backend {
	case "", "memory", "redis", "badger":
	default:
		return invalid(fmt.Sprintf("unknown store backend %q", c.Store.Backend))
	}
	switch c.Discovery.Provider {
	case "", "none", "catalog", "youtube":
	default:
		return invalid(fmt.Sprintf("unknown discovery provider %q", c.Discovery.Provider))
	}
	if c.Discovery.Provider == "youtube" && c.Discovery.APIKey == "" {
		return invalid("discovery.api_key is required for youtube")
	}
	return ValidatePipelineConfig(c.PipelineConfig())
}

// PipelineConfig 把 pipeline 段转换为 pipeline.Config
func (c *AppConfig) PipelineConfig() *pipeline.Config {
	pc := &pipeline.Config{}
	pc.Pipeline.Name = "post_blend"
	pc.Pipeline.Nodes = c.Pipeline
	return pc
}
