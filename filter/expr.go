package filter

import (
	"context"

	"github.com/rushteam/musicrec/core"
	"github.com/rushteam/musicrec/pkg/dsl"
)

// ExprFilter 用 CEL 表达式过滤：表达式为 true 的物品被移除。
//
// 示例：`label.recall_source == "random" && item.score < 0.1`
type ExprFilter struct {
	program *dsl.Program
}

// NewExprFilter 编译表达式；编译失败直接返回错误，避免请求时才发现
func NewExprFilter(expr string) (*ExprFilter, error) {
	prg, err := dsl.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &ExprFilter{program: prg}, nil
}

func (f *ExprFilter) Name() string { return "filter.expr" }

func (f *ExprFilter) ShouldFilter(_ context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error) {
	if item == nil {
		return true, nil
	}
	return f.program.Eval(item, rctx)
}
