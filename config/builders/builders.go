package builders

import (
	"fmt"

	"github.com/rushteam/musicrec/config"
	"github.com/rushteam/musicrec/core"
	"github.com/rushteam/musicrec/filter"
	"github.com/rushteam/musicrec/pipeline"
	"github.com/rushteam/musicrec/pkg/conv"
	"github.com/rushteam/musicrec/rerank"
)

func init() {
	registerFilters(nil)
	config.Register("filter.expr", BuildExprNode)
	config.Register("rerank.diversity", BuildDiversityNode)
	config.Register("rerank.topn", BuildTopNNode)
}

// UseStore 让 filter 节点里依赖存储的过滤器（blacklist key / user_block / exposed）读写 s。
// 需在 DefaultFactory 之前调用。
func UseStore(s core.Store) {
	var adapter *filter.StoreAdapter
	if s != nil {
		adapter = filter.NewStoreAdapter(s)
	}
	registerFilters(adapter)
}

func registerFilters(adapter *filter.StoreAdapter) {
	build := BuildFilterNode(adapter)
	config.Register("filter", build)
	// 单过滤器的简写，例如 filter.blacklist、filter.history
	for _, typ := range []string{"blacklist", "history", "exposed", "user_block", "min_score"} {
		config.Register("filter."+typ, singleFilter(build, typ))
	}
}

func singleFilter(build pipeline.NodeBuilder, typ string) pipeline.NodeBuilder {
	return func(cfg map[string]any) (pipeline.Node, error) {
		fc := make(map[string]any, len(cfg)+1)
		for k, v := range cfg {
			fc[k] = v
		}
		fc["type"] = typ
		return build(map[string]any{"filters": []any{fc}})
	}
}

func BuildDiversityNode(cfg map[string]any) (pipeline.Node, error) {
	labelKey := conv.ConfigGet(cfg, "label_key", "channel")
	if labelKey == "" {
		labelKey = "channel"
	}
	return &rerank.Diversity{
		LabelKey:  labelKey,
		MaxPerKey: conv.ConfigGetInt(cfg, "max_per_key", 1),
	}, nil
}

func BuildTopNNode(cfg map[string]any) (pipeline.Node, error) {
	return &rerank.TopNNode{N: conv.ConfigGetInt(cfg, "n", 0)}, nil
}

func BuildExprNode(cfg map[string]any) (pipeline.Node, error) {
	expr := conv.ConfigGet(cfg, "expr", "")
	if expr == "" {
		return nil, fmt.Errorf("expr not found")
	}
	f, err := filter.NewExprFilter(expr)
	if err != nil {
		return nil, err
	}
	return &filter.FilterNode{Filters: []filter.Filter{f}}, nil
}

// BuildFilterNode 返回 "filter" 节点的构建函数；adapter 为 nil 时存储相关过滤器只使用请求内数据。
func BuildFilterNode(adapter *filter.StoreAdapter) pipeline.NodeBuilder {
	return func(cfg map[string]any) (pipeline.Node, error) {
		filtersConfig, ok := cfg["filters"].([]any)
		if !ok {
			return nil, fmt.Errorf("filters not found or invalid")
		}
		filters := make([]filter.Filter, 0, len(filtersConfig))
		for _, fc := range filtersConfig {
			filterMap, ok := fc.(map[string]any)
			if !ok {
				continue
			}
			filterType := conv.ConfigGet(filterMap, "type", "")
			switch filterType {
			case "blacklist":
				ids := conv.SliceAnyToString(filterMap["item_ids"])
				if ids == nil {
					ids = []string{}
				}
				key := conv.ConfigGet(filterMap, "key", "")
				filters = append(filters, filter.NewBlacklistFilter(ids, adapter, key))
			case "user_block":
				keyPrefix := conv.ConfigGet(filterMap, "key_prefix", "")
				filters = append(filters, filter.NewUserBlockFilter(adapter, keyPrefix))
			case "exposed":
				keyPrefix := conv.ConfigGet(filterMap, "key_prefix", "")
				filters = append(filters, filter.NewExposedFilter(adapter, keyPrefix))
			case "history":
				filters = append(filters, &filter.HistoryFilter{})
			case "min_score":
				filters = append(filters, &filter.ScoreFilter{Min: conv.ConfigGetFloat64(filterMap, "min", 0)})
			case "expr":
				f, err := filter.NewExprFilter(conv.ConfigGet(filterMap, "expr", ""))
				if err != nil {
					return nil, err
				}
				filters = append(filters, f)
			default:
				return nil, fmt.Errorf("unknown filter type: %s", filterType)
			}
		}
		return &filter.FilterNode{Filters: filters}, nil
	}
}
