package discovery

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/rushteam/musicrec/core"
	"github.com/rushteam/musicrec/feature"
)

// 每个艺人依次尝试的查询后缀，凑够 k 条即停止
var artistQuerySuffixes = []string{
	"official audio",
	"official music video",
	"music video",
	"song",
	"audio",
}

// YouTube 基于 YouTube Data API v3 的发现实现
type YouTube struct {
	svc        *youtube.Service
	maxResults int64
}

// NewYouTube 使用 API Key 创建客户端；其他认证方式可以通过 opts 传入
func NewYouTube(ctx context.Context, apiKey string, opts ...option.ClientOption) (*YouTube, error) {
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("discovery: create youtube service: %w", err)
	}
	return NewYouTubeFromService(svc), nil
}

func NewYouTubeFromService(svc *youtube.Service) *YouTube {
	return &YouTube{svc: svc, maxResults: 50}
}

func (y *YouTube) Name() string { return "youtube" }

// SearchArtist 依次尝试各查询后缀，按视频 ID 去重，凑够 k 条返回。
// 单个查询失败会跳过；全部失败且一条都没有时返回 ErrDiscoveryUnavailable。
func (y *YouTube) SearchArtist(ctx context.Context, artist string, k int) ([]*core.CatalogItem, error) {
	var (
		out     []*core.CatalogItem
		seen    = make(map[string]struct{})
		lastErr error
	)
	for _, suffix := range artistQuerySuffixes {
		if len(out) >= k {
			break
		}
		resp, err := y.svc.Search.List([]string{"snippet"}).
			Q(artist + " " + suffix).
			Type("video").
			MaxResults(y.maxResults).
			SafeSearch("none").
			Context(ctx).
			Do()
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}
		page := make([]*core.CatalogItem, 0, len(resp.Items))
		for _, r := range resp.Items {
			if r.Id == nil || r.Id.VideoId == "" || r.Snippet == nil {
				continue
			}
			page = append(page, feature.PrepareAppended(&core.CatalogItem{
				ID:          r.Id.VideoId,
				Title:       r.Snippet.Title,
				Channel:     r.Snippet.ChannelTitle,
				Description: r.Snippet.Description,
			}))
		}
		out = mergeUnique(out, seen, page, k)
	}
	if len(out) == 0 && lastErr != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrDiscoveryUnavailable, lastErr)
	}
	return out, nil
}

// BroadDiscovery 以默认艺人列表的第一个艺人做一次搜索；多艺人发现请使用 Fanout
func (y *YouTube) BroadDiscovery(ctx context.Context, k int) ([]*core.CatalogItem, error) {
	return y.SearchArtist(ctx, DefaultArtists[0], k)
}

// Lookup 读取单个视频的元数据与统计数
func (y *YouTube) Lookup(ctx context.Context, id string) (*core.CatalogItem, error) {
	resp, err := y.svc.Videos.List([]string{"snippet", "statistics"}).Id(id).Context(ctx).Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == 404 {
			return nil, core.ErrDiscoveryNotFound
		}
		return nil, fmt.Errorf("%w: %v", core.ErrDiscoveryUnavailable, err)
	}
	if len(resp.Items) == 0 {
		return nil, core.ErrDiscoveryNotFound
	}
	return videoToItem(resp.Items[0]), nil
}

func videoToItem(v *youtube.Video) *core.CatalogItem {
	it := &core.CatalogItem{ID: v.Id}
	if s := v.Snippet; s != nil {
		it.Title = s.Title
		it.Channel = s.ChannelTitle
		it.Description = s.Description
		it.Tags = s.Tags
	}
	if st := v.Statistics; st != nil {
		it.ViewCount = int64(st.ViewCount)
		it.LikeCount = int64(st.LikeCount)
		it.CommentCount = int64(st.CommentCount)
	}
	return feature.PrepareAppended(it)
}
