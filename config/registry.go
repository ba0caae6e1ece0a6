package config

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rushteam/musicrec/core"
	"github.com/rushteam/musicrec/pipeline"
)

// 混合排序之后的 Node 通过注册表由配置构建。
// 内置 Node（filter.*、rerank.*）在 config/builders 的 init 中注册，入口处需要：
//
//	import _ "github.com/rushteam/musicrec/config/builders"

// NodeBuilder 与 pipeline.NodeBuilder 一致
type NodeBuilder = pipeline.NodeBuilder

var registry = struct {
	sync.RWMutex
	builders map[string]NodeBuilder
}{builders: make(map[string]NodeBuilder)}

// Register 注册（或覆盖）一种 Node 的构建逻辑
func Register(typeName string, builder NodeBuilder) {
	if typeName == "" || builder == nil {
		return
	}
	registry.Lock()
	registry.builders[typeName] = builder
	registry.Unlock()
}

func lookup(typeName string) (NodeBuilder, bool) {
	registry.RLock()
	defer registry.RUnlock()
	b, ok := registry.builders[typeName]
	return b, ok
}

// SupportedTypes 返回已注册的 Node 类型（排序）
func SupportedTypes() []string {
	registry.RLock()
	defer registry.RUnlock()
	types := make([]string, 0, len(registry.builders))
	for t := range registry.builders {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// DefaultFactory 返回注册表当前内容的快照
func DefaultFactory() *pipeline.NodeFactory {
	registry.RLock()
	defer registry.RUnlock()
	f := pipeline.NewNodeFactory()
	for typeName, builder := range registry.builders {
		f.Register(typeName, builder)
	}
	return f
}

// ValidatePipelineConfig 在启动时校验 pipeline 配置：类型必须已注册，且节点能成功构建
// （例如 CEL 表达式能编译），避免请求时才暴露配置错误。
func ValidatePipelineConfig(cfg *pipeline.Config) error {
	if cfg == nil {
		return nil
	}
	for i, nc := range cfg.Pipeline.Nodes {
		if nc.Type == "" {
			return invalidNode(i, nc.Type, "missing type")
		}
		build, ok := lookup(nc.Type)
		if !ok {
			return invalidNode(i, nc.Type, fmt.Sprintf("unsupported (supported: %v)", SupportedTypes()))
		}
		if _, err := build(nc.Config); err != nil {
			return invalidNode(i, nc.Type, err.Error())
		}
	}
	return nil
}

func invalidNode(i int, typ, reason string) error {
	return core.NewDomainError("config", core.ErrorCodeInvalidInput,
		fmt.Sprintf("pipeline node #%d %q: %s", i, typ, reason))
}
