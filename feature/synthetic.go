package feature

import (
	"fmt"
	"math/rand"

	"github.com/rushteam/musicrec/core"
)

// DefaultSeed 是合成数据使用的固定随机种子
const DefaultSeed int64 = 42

// SynthesizeAudio 为 n 个条目生成 [0,1) 均匀分布的音频描述符。
// 按属性逐列生成（先全部 danceability，再 energy、valence、acousticness），
// 同一 seed 下结果固定；每条都带 Synthetic=true 标记。
func SynthesizeAudio(n int, seed int64) []*core.AudioDescriptors {
	if n <= 0 {
		return nil
	}
	rng := rand.New(rand.NewSource(seed))
	cols := make([][]float64, 4)
	for c := range cols {
		cols[c] = make([]float64, n)
		for i := range cols[c] {
			cols[c][i] = rng.Float64()
		}
	}
	out := make([]*core.AudioDescriptors, n)
	for i := range out {
		out[i] = &core.AudioDescriptors{
			Danceability: cols[0][i],
			Energy:       cols[1][i],
			Valence:      cols[2][i],
			Acousticness: cols[3][i],
			Synthetic:    true,
		}
	}
	return out
}

// AttachSyntheticAudio 返回一个新的目录快照：没有音频描述符的条目补上合成值，
// 已有（无论真实还是合成）描述符的条目保持不变。第二个返回值为补齐的条数。
// 输入目录及其条目不会被修改。
func AttachSyntheticAudio(catalog *core.Catalog, seed int64) (*core.Catalog, int) {
	descs := SynthesizeAudio(catalog.Len(), seed)
	items := make([]*core.CatalogItem, catalog.Len())
	n := 0
	for i := range items {
		src := catalog.At(i)
		if src.Audio != nil {
			items[i] = src
			continue
		}
		it := *src
		it.Audio = descs[i]
		items[i] = &it
		n++
	}
	return core.NewCatalog(items), n
}

// InteractionConfig 合成交互数据的参数
type InteractionConfig struct {
	Users     int   // 用户数，默认 1000
	MinItems  int   // 每个用户最少交互物品数，默认 10
	MaxItems  int   // 每个用户最多交互物品数（含），默认 29
	MaxRating int   // 评分上限（含），默认 5；下限固定为 1
	Seed      int64 // 随机种子，默认 42
}

// DefaultInteractionConfig 返回默认合成参数
func DefaultInteractionConfig() InteractionConfig {
	return InteractionConfig{
		Users:     1000,
		MinItems:  10,
		MaxItems:  29,
		MaxRating: 5,
		Seed:      DefaultSeed,
	}
}

func (c InteractionConfig) withDefaults() InteractionConfig {
	d := DefaultInteractionConfig()
	if c.Users <= 0 {
		c.Users = d.Users
	}
	if c.MinItems <= 0 {
		c.MinItems = d.MinItems
	}
	if c.MaxItems <= 0 {
		c.MaxItems = d.MaxItems
	}
	if c.MaxItems < c.MinItems {
		c.MaxItems = c.MinItems
	}
	if c.MaxRating <= 0 {
		c.MaxRating = d.MaxRating
	}
	if c.Seed == 0 {
		c.Seed = d.Seed
	}
	return c
}

// GenerateInteractions 生成合成的 (用户, 物品, 评分) 交互。
// 每个用户无放回地抽取 [MinItems, MaxItems] 个不同物品（物品不足时取全部），评分在 [1, MaxRating]。
// 用户 ID 形如 user_0 … user_{Users-1}。
func GenerateInteractions(itemIDs []string, cfg InteractionConfig) []core.Interaction {
	if len(itemIDs) == 0 {
		return nil
	}
	cfg = cfg.withDefaults()
	rng := rand.New(rand.NewSource(cfg.Seed))

	out := make([]core.Interaction, 0, cfg.Users*(cfg.MinItems+cfg.MaxItems)/2)
	for u := 0; u < cfg.Users; u++ {
		userID := fmt.Sprintf("user_%d", u)
		size := cfg.MinItems + rng.Intn(cfg.MaxItems-cfg.MinItems+1)
		if size > len(itemIDs) {
			size = len(itemIDs)
		}
		for _, idx := range rng.Perm(len(itemIDs))[:size] {
			out = append(out, core.Interaction{
				UserID: userID,
				ItemID: itemIDs[idx],
				Rating: 1 + rng.Intn(cfg.MaxRating),
			})
		}
	}
	return out
}
