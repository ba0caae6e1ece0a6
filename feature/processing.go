package feature

// Normalizer 是特征归一化接口
type Normalizer interface {
	// Normalize 归一化一组特征
	Normalize(features map[string]float64) map[string]float64
	// NormalizeValueWithKey 归一化单个值（指定特征名）
	NormalizeValueWithKey(key string, value float64) float64
}

// MinMaxNormalizer Min-Max 归一化
// 公式: x' = (x - min) / (max - min)
// 特点: 将值缩放到 [0, 1] 区间；max == min（单值或空目录）时输出 0
type MinMaxNormalizer struct {
	Min map[string]float64 // 特征最小值
	Max map[string]float64 // 特征最大值
}

// NewMinMaxNormalizer 创建 Min-Max 归一化器
func NewMinMaxNormalizer(min, max map[string]float64) *MinMaxNormalizer {
	return &MinMaxNormalizer{
		Min: min,
		Max: max,
	}
}

// FitMinMax 在一组样本上统计每个特征的最小值与最大值。
// 样本中缺失的特征不参与该特征的统计。
func FitMinMax(samples []map[string]float64) *MinMaxNormalizer {
	n := NewMinMaxNormalizer(make(map[string]float64), make(map[string]float64))
	for _, s := range samples {
		for k, v := range s {
			if lo, ok := n.Min[k]; !ok || v < lo {
				n.Min[k] = v
			}
			if hi, ok := n.Max[k]; !ok || v > hi {
				n.Max[k] = v
			}
		}
	}
	return n
}

// Normalize 归一化特征
func (n *MinMaxNormalizer) Normalize(features map[string]float64) map[string]float64 {
	normalized := make(map[string]float64, len(features))
	for k, v := range features {
		normalized[k] = n.NormalizeValueWithKey(k, v)
	}
	return normalized
}

// NormalizeValueWithKey 归一化单个值；未统计过的特征视为退化区间
func (n *MinMaxNormalizer) NormalizeValueWithKey(key string, value float64) float64 {
	lo, okLo := n.Min[key]
	hi, okHi := n.Max[key]
	if !okLo || !okHi || hi <= lo {
		return 0
	}
	v := (value - lo) / (hi - lo)
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

var _ Normalizer = (*MinMaxNormalizer)(nil)
