package core

import "time"

// RecommendConfig 是推荐相关的默认值接口。
type RecommendConfig interface {
	// DefaultTopK 返回默认的 TopK 物品数
	DefaultTopK() int

	// DefaultDiscoveryLimit 返回兜底发现接口一次最多返回的物品数
	DefaultDiscoveryLimit() int

	// DefaultSeed 返回固定随机种子（无热度信号时冷启动随机抽样使用）
	DefaultSeed() int64

	// DefaultTimeout 返回外部协作方调用的默认超时时间
	DefaultTimeout() time.Duration
}

// DefaultRecommendConfig 是默认的推荐配置实现。
type DefaultRecommendConfig struct{}

func (c *DefaultRecommendConfig) DefaultTopK() int {
	return 10
}

func (c *DefaultRecommendConfig) DefaultDiscoveryLimit() int {
	return 10
}

func (c *DefaultRecommendConfig) DefaultSeed() int64 {
	return 42
}

func (c *DefaultRecommendConfig) DefaultTimeout() time.Duration {
	return 5 * time.Second
}
