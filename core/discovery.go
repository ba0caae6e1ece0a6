package core

import "context"

// DiscoveryService 是外部“广泛发现”接口（例如 YouTube 搜索）的领域抽象。
//
// 只在目录为空或本地信号不可用时使用；核心把它的输出当作不透明的目录形记录，按 ID 合并。
// 实现需要把超时/限流等失败包装成 ErrDiscoveryUnavailable，便于上层降级。
type DiscoveryService interface {
	// Name 返回实现名称（用于日志/监控）
	Name() string

	// BroadDiscovery 返回至多 k 条记录
	BroadDiscovery(ctx context.Context, k int) ([]*CatalogItem, error)

	// Lookup 按 ID 查询单条记录（用于把新收藏的内容补进目录），不存在时返回 ErrDiscoveryNotFound
	Lookup(ctx context.Context, id string) (*CatalogItem, error)
}

var (
	// ErrDiscoveryUnavailable 表示外部发现接口不可用（超时、熔断、配额等）
	ErrDiscoveryUnavailable = NewDomainError(ModuleDiscovery, ErrorCodeUnavailable, "discovery: service unavailable")

	// ErrDiscoveryNotFound 表示外部接口查无此条目
	ErrDiscoveryNotFound = NewDomainError(ModuleDiscovery, ErrorCodeNotFound, "discovery: item not found")
)
