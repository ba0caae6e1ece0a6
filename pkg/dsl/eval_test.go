package dsl

import (
	"testing"

	"github.com/rushteam/musicrec/core"
	"github.com/rushteam/musicrec/pkg/utils"
)

func TestProgramEval(t *testing.T) {
	item := core.NewItem("v1")
	item.Score = 0.8
	item.Meta["channel"] = "Daft Punk"
	item.PutLabel(utils.LabelRecallSource, utils.Label{Value: "popularity", Source: "blend"})

	rctx := &core.RecommendContext{
		UserID:  "u1",
		Scene:   "refresh",
		History: []string{"a", "b"},
	}

	tests := []struct {
		name string
		expr string
		want bool
	}{
		{"empty", "", true},
		{"label", `label.recall_source == "popularity"`, true},
		{"label mismatch", `label.recall_source == "content"`, false},
		{"score", "item.score > 0.7", true},
		{"meta", `item.meta.channel == "Daft Punk"`, true},
		{"scene", `rctx.scene == "refresh"`, true},
		{"history size", "size(rctx.history) == 2", true},
		{"has label", "has(label.backfill)", false},
		{"combined", `label.recall_source == "popularity" && item.score < 0.5`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Compile(tt.expr)
			if err != nil {
				t.Fatalf("Compile() error = %v", err)
			}
			got, err := p.Eval(item, rctx)
			if err != nil {
				t.Fatalf("Eval() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Eval(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestCompileInvalid(t *testing.T) {
	_, err := Compile("item.score >")
	if !core.IsInvalidInput(err) {
		t.Errorf("Compile() error = %v, want INVALID_INPUT", err)
	}
}

func TestEvalNonBool(t *testing.T) {
	_, err := Evaluate("item.score", core.NewItem("x"), nil)
	if err == nil {
		t.Error("Evaluate() error = nil, want non-bool error")
	}
}
