package hybrid

import "math/rand"

// Sampler 从 [0, n) 中无放回地抽取 k 个下标。
//
// 相同输入必须返回相同输出，这样冷启动/陈旧历史的随机兜底在目录不变时是幂等的。
type Sampler interface {
	Sample(n, k int) []int
}

// SeededSampler 每次调用都用固定种子重新初始化随机源
type SeededSampler struct {
	Seed int64
}

func (s SeededSampler) Sample(n, k int) []int {
	if n <= 0 || k <= 0 {
		return nil
	}
	if k > n {
		k = n
	}
	return rand.New(rand.NewSource(s.Seed)).Perm(n)[:k]
}

// SamplerFunc 让普通函数满足 Sampler，便于测试注入
type SamplerFunc func(n, k int) []int

func (f SamplerFunc) Sample(n, k int) []int { return f(n, k) }
