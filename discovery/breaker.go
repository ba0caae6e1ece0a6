package discovery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/rushteam/musicrec/core"
	"github.com/rushteam/musicrec/pkg/logging"
)

// BreakerConfig 熔断参数
type BreakerConfig struct {
	Name             string        `yaml:"name" env:"NAME"`
	MaxRequests      uint32        `yaml:"max_requests" env:"MAX_REQUESTS"`           // 半开状态允许的探测请求数
	Interval         time.Duration `yaml:"interval" env:"INTERVAL"`                   // 闭合状态下计数清零周期
	Timeout          time.Duration `yaml:"timeout" env:"TIMEOUT"`                     // 打开状态持续时间
	FailureThreshold uint32        `yaml:"failure_threshold" env:"FAILURE_THRESHOLD"` // 连续失败多少次后打开
	CallTimeout      time.Duration `yaml:"call_timeout" env:"CALL_TIMEOUT"`           // 单次调用超时
}

// DefaultBreakerConfig 返回默认熔断参数
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:             "discovery",
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 3,
		CallTimeout:      5 * time.Second,
	}
}

// Breaker 用熔断器包装任意 core.DiscoveryService。
// 熔断打开时直接返回 ErrDiscoveryUnavailable；“查无此条目”不计为失败。
type Breaker struct {
	next        core.DiscoveryService
	cb          *gobreaker.CircuitBreaker[[]*core.CatalogItem]
	callTimeout time.Duration
	logger      zerolog.Logger
}

func NewBreaker(next core.DiscoveryService, cfg BreakerConfig) *Breaker {
	d := DefaultBreakerConfig()
	if cfg.Name == "" {
		cfg.Name = d.Name
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = d.FailureThreshold
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = d.Timeout
	}
	b := &Breaker{next: next, callTimeout: cfg.CallTimeout, logger: logging.With("discovery")}
	b.cb = gobreaker.NewCircuitBreaker[[]*core.CatalogItem](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || core.IsNotFound(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})
	return b
}

func (b *Breaker) Name() string { return b.next.Name() }

// State 返回熔断器当前状态（closed / half-open / open）
func (b *Breaker) State() string { return b.cb.State().String() }

func (b *Breaker) BroadDiscovery(ctx context.Context, k int) ([]*core.CatalogItem, error) {
	return b.execute(ctx, func(ctx context.Context) ([]*core.CatalogItem, error) {
		return b.next.BroadDiscovery(ctx, k)
	})
}

func (b *Breaker) Lookup(ctx context.Context, id string) (*core.CatalogItem, error) {
	items, err := b.execute(ctx, func(ctx context.Context) ([]*core.CatalogItem, error) {
		it, err := b.next.Lookup(ctx, id)
		if err != nil {
			return nil, err
		}
		return []*core.CatalogItem{it}, nil
	})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 || items[0] == nil {
		return nil, core.ErrDiscoveryNotFound
	}
	return items[0], nil
}

func (b *Breaker) execute(ctx context.Context, fn func(context.Context) ([]*core.CatalogItem, error)) ([]*core.CatalogItem, error) {
	items, err := b.cb.Execute(func() ([]*core.CatalogItem, error) {
		cctx := ctx
		if b.callTimeout > 0 {
			var cancel context.CancelFunc
			cctx, cancel = context.WithTimeout(ctx, b.callTimeout)
			defer cancel()
		}
		return fn(cctx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", core.ErrDiscoveryUnavailable, err)
	}
	return items, err
}
