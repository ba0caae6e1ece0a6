// Package discovery 提供外部“广泛发现”能力：目录为空或需要补齐时，按艺人搜索候选内容。
package discovery

import (
	"context"

	"github.com/rushteam/musicrec/core"
)

// ArtistSearcher 按艺人名搜索至多 k 条候选
type ArtistSearcher interface {
	Name() string
	SearchArtist(ctx context.Context, artist string, k int) ([]*core.CatalogItem, error)
}

// DefaultArtists 是默认的种子艺人列表
var DefaultArtists = []string{
	"Taylor Swift", "Ed Sheeran", "Adele", "The Weeknd", "Billie Eilish",
	"Dua Lipa", "Coldplay", "Bruno Mars", "Drake", "Ariana Grande",
	"Imagine Dragons", "Kendrick Lamar", "Rihanna", "Post Malone", "BTS",
}

// mergeUnique 把 extra 中未出现过的条目追加到 dst，直到 dst 长度达到 k
func mergeUnique(dst []*core.CatalogItem, seen map[string]struct{}, extra []*core.CatalogItem, k int) []*core.CatalogItem {
	for _, it := range extra {
		if len(dst) >= k {
			break
		}
		if it == nil || it.ID == "" {
			continue
		}
		if _, ok := seen[it.ID]; ok {
			continue
		}
		seen[it.ID] = struct{}{}
		dst = append(dst, it)
	}
	return dst
}
