package core

// CatalogItem 是目录中的一条可推荐内容（一个音乐视频）。
// 持久化后不可变；Norm 字段只在目录整体重建时重算，单条追加的条目在下次重建前归一化值为 0。
type CatalogItem struct {
	ID          string   `json:"video_id"`
	Title       string   `json:"title"`
	Channel     string   `json:"channel"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`

	// Text 是标题/描述/标签/频道拼接后的文本，只用于内容相似度
	Text string `json:"text"`

	ViewCount    int64 `json:"view_count"`
	LikeCount    int64 `json:"like_count"`
	CommentCount int64 `json:"comment_count"`

	ViewNorm    float64 `json:"view_count_norm"`
	LikeNorm    float64 `json:"like_count_norm"`
	CommentNorm float64 `json:"comment_count_norm"`

	// Audio 是音频描述符；目前没有真实音频信号，只能由合成器填充（Synthetic=true）
	Audio *AudioDescriptors `json:"audio,omitempty"`
}

// AudioDescriptors 是四个 [0,1] 区间的音频属性。
// Synthetic 标记数据来源：true 表示随机合成的占位值，打分逻辑不得把它当作真实特征。
type AudioDescriptors struct {
	Danceability float64 `json:"danceability"`
	Energy       float64 `json:"energy"`
	Valence      float64 `json:"valence"`
	Acousticness float64 `json:"acousticness"`
	Synthetic    bool    `json:"synthetic"`
}

// Interaction 是一条 (用户, 物品, 评分) 交互记录，评分范围 [1,5]。
type Interaction struct {
	UserID string `json:"user_id"`
	ItemID string `json:"item_id"`
	Rating int    `json:"rating"`
}

// Catalog 是目录快照：有序、按 ID 唯一、构建后只读。
// 行顺序即排序时的稳定 tie-break 顺序。
type Catalog struct {
	items []*CatalogItem
	index map[string]int
}

// NewCatalog 按输入顺序构建目录快照；重复 ID 保留首次出现的条目，空 ID 丢弃。
func NewCatalog(items []*CatalogItem) *Catalog {
	c := &Catalog{
		items: make([]*CatalogItem, 0, len(items)),
		index: make(map[string]int, len(items)),
	}
	for _, it := range items {
		if it == nil || it.ID == "" {
			continue
		}
		if _, ok := c.index[it.ID]; ok {
			continue
		}
		c.index[it.ID] = len(c.items)
		c.items = append(c.items, it)
	}
	return c
}

// Len 返回目录条目数；nil 目录视为空。
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.items)
}

// Empty 判断目录是否为空。
func (c *Catalog) Empty() bool { return c.Len() == 0 }

// At 返回第 i 行。
func (c *Catalog) At(i int) *CatalogItem { return c.items[i] }

// Items 返回条目切片的副本（条目本身共享，调用方不得修改）。
func (c *Catalog) Items() []*CatalogItem {
	if c == nil {
		return nil
	}
	out := make([]*CatalogItem, len(c.items))
	copy(out, c.items)
	return out
}

// IDs 按行顺序返回全部 ID。
func (c *Catalog) IDs() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.items))
	for i, it := range c.items {
		out[i] = it.ID
	}
	return out
}

// Index 返回 ID 对应的行号。
func (c *Catalog) Index(id string) (int, bool) {
	if c == nil {
		return 0, false
	}
	i, ok := c.index[id]
	return i, ok
}

// Get 按 ID 读取条目。
func (c *Catalog) Get(id string) (*CatalogItem, bool) {
	i, ok := c.Index(id)
	if !ok {
		return nil, false
	}
	return c.items[i], true
}

// Contains 判断 ID 是否在目录中。
func (c *Catalog) Contains(id string) bool {
	_, ok := c.Index(id)
	return ok
}

// Resolve 把 ID 列表解析为行号，忽略不在目录中的 ID 并去重，保持首次出现的顺序。
func (c *Catalog) Resolve(ids []string) []int {
	out := make([]int, 0, len(ids))
	seen := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		i, ok := c.Index(id)
		if !ok {
			continue
		}
		if _, dup := seen[i]; dup {
			continue
		}
		seen[i] = struct{}{}
		out = append(out, i)
	}
	return out
}

// Extend 返回追加了新条目的新快照；原快照不变，已存在的 ID 被忽略。
func (c *Catalog) Extend(items ...*CatalogItem) *Catalog {
	all := c.Items()
	all = append(all, items...)
	return NewCatalog(all)
}
