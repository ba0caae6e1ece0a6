package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/musicrec/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("item", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("rctx", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Program 是编译好的 Label DSL 表达式，基于 CEL (Common Expression Language)。
// 编译一次，可并发多次 Eval。
//
// 表达式语法（CEL 标准语法）：
//   - 基础：label.recall_source == "popularity" / label.blend_branch != "content"
//   - 数值：item.score > 0.7
//   - 元信息：item.meta.channel == "Daft Punk"
//   - 请求：rctx.scene == "refresh" / size(rctx.history) == 0
//   - 包含：label.backfill.contains("popularity")
//
// 注意：访问不存在的 label key 会报错，用 has(label.key) 检查存在性。
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译表达式；空表达式永远为 true。
func Compile(expr string) (*Program, error) {
	p := &Program{expr: expr}
	if expr == "" {
		return p, nil
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, core.NewDomainError("dsl", core.ErrorCodeInvalidInput, fmt.Sprintf("compile %q: %v", expr, issues.Err()))
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, core.NewDomainError("dsl", core.ErrorCodeInvalidInput, fmt.Sprintf("program %q: %v", expr, err))
	}
	p.prg = prg
	return p, nil
}

// String 返回原始表达式
func (p *Program) String() string { return p.expr }

// Eval 对单个物品求值，表达式必须返回 bool。
func (p *Program) Eval(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	if p.prg == nil {
		return true, nil
	}
	out, _, err := p.prg.Eval(buildInput(item, rctx))
	if err != nil {
		return false, fmt.Errorf("eval %q: %w", p.expr, err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression %q must return boolean, got %T", p.expr, out.Value())
	}
	return result, nil
}

// Evaluate 一次性编译并求值，适合调试；热路径请使用 Compile。
func Evaluate(expr string, item *core.Item, rctx *core.RecommendContext) (bool, error) {
	p, err := Compile(expr)
	if err != nil {
		return false, err
	}
	return p.Eval(item, rctx)
}

func buildInput(it *core.Item, rctx *core.RecommendContext) map[string]any {
	if it == nil {
		it = core.NewItem("")
	}
	labels := make(map[string]any, len(it.Labels))
	labelAccessor := make(map[string]any, len(it.Labels))
	for k, v := range it.Labels {
		labels[k] = map[string]any{
			"value":  v.Value,
			"source": v.Source,
		}
		labelAccessor[k] = v.Value
	}

	features := it.Features
	if features == nil {
		features = map[string]float64{}
	}
	meta := it.Meta
	if meta == nil {
		meta = map[string]any{}
	}
	item := map[string]any{
		"id":       it.ID,
		"score":    it.Score,
		"features": features,
		"meta":     meta,
		"labels":   labels,
	}

	r := map[string]any{
		"user_id":    "",
		"request_id": "",
		"scene":      "",
		"history":    []string{},
		"params":     map[string]any{},
	}
	if rctx != nil {
		r["user_id"] = rctx.UserID
		r["request_id"] = rctx.RequestID
		r["scene"] = rctx.Scene
		if rctx.History != nil {
			r["history"] = rctx.History
		}
		if rctx.Params != nil {
			r["params"] = rctx.Params
		}
	}

	return map[string]any{
		"item":  item,
		"label": labelAccessor,
		"rctx":  r,
	}
}
