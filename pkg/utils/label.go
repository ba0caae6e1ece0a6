package utils

// Label 是推荐链路中的一等公民：可解释、可追踪、可透传。
// 例如 {Value: "content", Source: "blend"} 说明该物品来自内容相似度分支。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"` // recall / blend / backfill / filter / refresh ...
}

// 常用 Label key
const (
	LabelRecallSource = "recall_source" // 产出物品的信号：popularity / content / collab / random / discovery
	LabelBlendBranch  = "blend_branch"  // 混合排序走到的分支
	LabelBackfill     = "backfill"      // 补齐方式：popularity / discovery
	LabelFiltered     = "filtered"      // 被过滤的原因
)

// MergeLabel 用于合并同名 Label，遵循“保留历史、可追踪”的默认策略。
// - Value: 以 '|' 累积
// - Source: 以 ',' 累积
func MergeLabel(existing Label, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" {
		return existing
	}

	merged := existing
	merged.Value = existing.Value + "|" + incoming.Value
	switch {
	case existing.Source == "":
		merged.Source = incoming.Source
	case incoming.Source == "":
		merged.Source = existing.Source
	default:
		merged.Source = existing.Source + "," + incoming.Source
	}
	return merged
}
