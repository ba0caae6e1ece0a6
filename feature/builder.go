package feature

import (
	"strings"

	"github.com/rushteam/musicrec/core"
)

// MaxTextLength 是 Text 字段的最大字符（rune）数，限制下游向量化的开销。
const MaxTextLength = 10000

const (
	fieldView    = "view_count"
	fieldLike    = "like_count"
	fieldComment = "comment_count"
)

// BuildText 按 标题、描述、标签（逗号连接）、频道 的顺序拼接文本，跳过空字段，
// 以单个空格分隔，截断到 MaxTextLength 个字符。
func BuildText(rec *core.CatalogItem) string {
	if rec == nil {
		return ""
	}
	parts := make([]string, 0, 4)
	for _, p := range []string{rec.Title, rec.Description, strings.Join(rec.Tags, ","), rec.Channel} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return truncateRunes(strings.Join(parts, " "), MaxTextLength)
}

// Normalize 对整批条目的三个计数字段做 Min-Max 归一化，写回 *Norm 字段。
// 纯函数式：相同输入得到相同输出，重复执行结果不变。
func Normalize(items []*core.CatalogItem) {
	samples := make([]map[string]float64, 0, len(items))
	for _, it := range items {
		samples = append(samples, countFeatures(it))
	}
	norm := FitMinMax(samples)
	for _, it := range items {
		it.ViewNorm = norm.NormalizeValueWithKey(fieldView, float64(it.ViewCount))
		it.LikeNorm = norm.NormalizeValueWithKey(fieldLike, float64(it.LikeCount))
		it.CommentNorm = norm.NormalizeValueWithKey(fieldComment, float64(it.CommentCount))
	}
}

// Build 把原始记录转换为目录快照：
//   - 记录按输入顺序成为目录行，重复 ID 保留第一条
//   - Text 为空时由 BuildText 生成，否则截断到 MaxTextLength
//   - 计数字段在去重后的整个快照上归一化
//
// 输入记录不会被修改。
func Build(records []*core.CatalogItem) *core.Catalog {
	items := make([]*core.CatalogItem, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		if rec == nil || rec.ID == "" {
			continue
		}
		if _, dup := seen[rec.ID]; dup {
			continue
		}
		seen[rec.ID] = struct{}{}

		it := *rec
		it.Tags = append([]string(nil), rec.Tags...)
		if it.Text == "" {
			it.Text = BuildText(&it)
		} else {
			it.Text = truncateRunes(it.Text, MaxTextLength)
		}
		items = append(items, &it)
	}
	Normalize(items)
	return core.NewCatalog(items)
}

// PrepareAppended 处理一条未经整体重建就追加到目录的条目：
// 补齐 Text，归一化字段置 0（下次 Build 时才会重算）。
func PrepareAppended(rec *core.CatalogItem) *core.CatalogItem {
	it := *rec
	it.Tags = append([]string(nil), rec.Tags...)
	if it.Text == "" {
		it.Text = BuildText(&it)
	} else {
		it.Text = truncateRunes(it.Text, MaxTextLength)
	}
	it.ViewNorm, it.LikeNorm, it.CommentNorm = 0, 0, 0
	return &it
}

func countFeatures(it *core.CatalogItem) map[string]float64 {
	return map[string]float64{
		fieldView:    float64(it.ViewCount),
		fieldLike:    float64(it.LikeCount),
		fieldComment: float64(it.CommentCount),
	}
}

func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
