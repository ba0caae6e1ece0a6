package model

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/rushteam/musicrec/core"
)

// DefaultMaxFeatures 是词表上限
const DefaultMaxFeatures = 10000

// ContentOptions 内容索引的构建参数
type ContentOptions struct {
	// MaxFeatures 词表最多保留的词数（按语料总词频取前 N），<= 0 时为 DefaultMaxFeatures
	MaxFeatures int `yaml:"max_features" env:"MAX_FEATURES"`

	// StopWords 停用词；nil 时使用内置英文停用词表
	StopWords map[string]struct{} `yaml:"-"`
}

// SparseVector 是按词号升序排列的稀疏向量
type SparseVector struct {
	Indices []int     `json:"indices"`
	Values  []float64 `json:"values"`
}

// ContentIndex 是目录文本的 TF-IDF 向量空间。
// 每行一个 L2 归一化向量，余弦相似度即点积；构建后只读，重建即整体替换。
type ContentIndex struct {
	ids        []string
	index      map[string]int
	vocabulary []string
	idf        []float64
	rows       []SparseVector
}

// ContentIndexData 是内容索引的可持久化形式（含行号对应的 ID 数组）
type ContentIndexData struct {
	IDs        []string       `json:"ids"`
	Vocabulary []string       `json:"vocabulary"`
	IDF        []float64      `json:"idf"`
	Rows       []SparseVector `json:"rows"`
}

var tokenPattern = regexp.MustCompile(`\w\w+`)

// Tokenize 小写化后抽取长度 >= 2 的词，并去掉停用词
func Tokenize(text string, stop map[string]struct{}) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if _, ok := stop[t]; ok {
			continue
		}
		out = append(out, t)
	}
	return out
}

// BuildContentIndex 在目录快照上构建 TF-IDF 索引。
//
//   - 空目录返回 ErrEmptyCatalog，调用方需要降级
//   - 所有文本都为空（词表为空）时返回 Empty() 为 true 的索引，视为“没有内容信号”
//   - idf 使用平滑公式 ln((1+n)/(1+df)) + 1
func BuildContentIndex(catalog *core.Catalog, opts ContentOptions) (*ContentIndex, error) {
	n := catalog.Len()
	if n == 0 {
		return nil, ErrEmptyCatalog
	}
	maxFeatures := opts.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = DefaultMaxFeatures
	}
	stop := opts.StopWords
	if stop == nil {
		stop = englishStopWords
	}

	docs := make([]map[string]int, n)
	total := make(map[string]int)
	df := make(map[string]int)
	for i := 0; i < n; i++ {
		tf := make(map[string]int)
		for _, tok := range Tokenize(catalog.At(i).Text, stop) {
			tf[tok]++
		}
		for term, c := range tf {
			total[term] += c
			df[term]++
		}
		docs[i] = tf
	}

	terms := make([]string, 0, len(total))
	for term := range total {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	sort.SliceStable(terms, func(a, b int) bool { return total[terms[a]] > total[terms[b]] })
	if len(terms) > maxFeatures {
		terms = terms[:maxFeatures]
	}
	// 词号按字典序分配
	sort.Strings(terms)

	vocab := make(map[string]int, len(terms))
	idf := make([]float64, len(terms))
	for j, term := range terms {
		vocab[term] = j
		idf[j] = math.Log(float64(1+n)/float64(1+df[term])) + 1
	}

	rows := make([]SparseVector, n)
	for i, tf := range docs {
		var v SparseVector
		for term := range tf {
			j, ok := vocab[term]
			if !ok {
				continue
			}
			v.Indices = append(v.Indices, j)
		}
		sort.Ints(v.Indices)
		v.Values = make([]float64, len(v.Indices))
		for k, j := range v.Indices {
			v.Values[k] = float64(tf[terms[j]]) * idf[j]
		}
		l2Normalize(v.Values)
		rows[i] = v
	}

	return newContentIndex(catalog.IDs(), terms, idf, rows), nil
}

// NewContentIndexFromData 从持久化数据恢复索引；行数与 ID 数不一致时返回 MALFORMED_ARTIFACT
func NewContentIndexFromData(d ContentIndexData) (*ContentIndex, error) {
	if len(d.IDs) != len(d.Rows) || len(d.Vocabulary) != len(d.IDF) {
		return nil, core.NewDomainError(core.ModuleContent, core.ErrorCodeMalformedArtifact,
			"content: index rows, ids and vocabulary do not line up")
	}
	for _, r := range d.Rows {
		if len(r.Indices) != len(r.Values) {
			return nil, core.NewDomainError(core.ModuleContent, core.ErrorCodeMalformedArtifact,
				"content: sparse row indices and values differ in length")
		}
		for _, j := range r.Indices {
			if j < 0 || j >= len(d.Vocabulary) {
				return nil, core.NewDomainError(core.ModuleContent, core.ErrorCodeMalformedArtifact,
					"content: sparse row references a term outside the vocabulary")
			}
		}
	}
	return newContentIndex(d.IDs, d.Vocabulary, d.IDF, d.Rows), nil
}

func newContentIndex(ids, vocabulary []string, idf []float64, rows []SparseVector) *ContentIndex {
	ci := &ContentIndex{
		ids:        ids,
		index:      make(map[string]int, len(ids)),
		vocabulary: vocabulary,
		idf:        idf,
		rows:       rows,
	}
	for i, id := range ids {
		if _, dup := ci.index[id]; !dup {
			ci.index[id] = i
		}
	}
	return ci
}

func (ci *ContentIndex) Name() string { return "content" }

// Len 返回索引行数
func (ci *ContentIndex) Len() int {
	if ci == nil {
		return 0
	}
	return len(ci.ids)
}

// VocabularySize 返回词表大小
func (ci *ContentIndex) VocabularySize() int {
	if ci == nil {
		return 0
	}
	return len(ci.vocabulary)
}

// Empty 为 true 表示没有内容信号（nil 索引或词表为空）
func (ci *ContentIndex) Empty() bool {
	return ci.Len() == 0 || ci.VocabularySize() == 0
}

// IDs 返回行号对应的 ID 数组
func (ci *ContentIndex) IDs() []string {
	if ci == nil {
		return nil
	}
	return append([]string(nil), ci.ids...)
}

// Vector 返回某个 ID 的稀疏向量
func (ci *ContentIndex) Vector(id string) (SparseVector, bool) {
	if ci == nil {
		return SparseVector{}, false
	}
	i, ok := ci.index[id]
	if !ok {
		return SparseVector{}, false
	}
	return ci.rows[i], true
}

// SimilarityRow 计算查询集合与每一行的平均余弦相似度。
// 查询集合自身所在的行固定为 -1，不在索引中的 ID 被忽略；
// 没有任何可解析的 ID 时返回 ErrNoResolvableItems。
func (ci *ContentIndex) SimilarityRow(ids []string) ([]float64, error) {
	if ci.Empty() {
		return nil, ErrNoContentSignal
	}
	query := make([]int, 0, len(ids))
	inQuery := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		i, ok := ci.index[id]
		if !ok {
			continue
		}
		if _, dup := inQuery[i]; dup {
			continue
		}
		inQuery[i] = struct{}{}
		query = append(query, i)
	}
	if len(query) == 0 {
		return nil, ErrNoResolvableItems
	}

	// mean(q_k · r) == (mean q_k) · r
	centroid := make(map[int]float64)
	for _, q := range query {
		row := ci.rows[q]
		for k, j := range row.Indices {
			centroid[j] += row.Values[k]
		}
	}
	inv := 1 / float64(len(query))

	scores := make([]float64, len(ci.rows))
	for i, row := range ci.rows {
		if _, ok := inQuery[i]; ok {
			scores[i] = -1
			continue
		}
		var dot float64
		for k, j := range row.Indices {
			dot += centroid[j] * row.Values[k]
		}
		scores[i] = dot * inv
	}
	return scores, nil
}

// TopKBySimilarity 按 SimilarityRow 降序取前 k 个，查询行被排除，分数相同按行号升序
func (ci *ContentIndex) TopKBySimilarity(ids []string, k int) ([]ScoredItem, error) {
	scores, err := ci.SimilarityRow(ids)
	if err != nil {
		return nil, err
	}
	rows := RankRows(scores, k, func(i int) bool { return scores[i] < 0 })
	return toScored(ci.ids, scores, rows), nil
}

// Data 导出可持久化数据
func (ci *ContentIndex) Data() ContentIndexData {
	if ci == nil {
		return ContentIndexData{}
	}
	return ContentIndexData{
		IDs:        append([]string(nil), ci.ids...),
		Vocabulary: append([]string(nil), ci.vocabulary...),
		IDF:        append([]float64(nil), ci.idf...),
		Rows:       append([]SparseVector(nil), ci.rows...),
	}
}

func l2Normalize(v []float64) {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range v {
		v[i] /= norm
	}
}
