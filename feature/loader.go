package feature

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/rushteam/musicrec/core"
)

// CatalogLoader 目录数据加载器接口
// 支持从不同来源加载原始目录记录（本地文件、HTTP 接口等）
type CatalogLoader interface {
	// Load 加载原始目录记录
	// source 是数据源标识（文件路径、URL 等）
	Load(ctx context.Context, source string) ([]*core.CatalogItem, error)
}

// FileCatalogLoader 本地文件目录加载器，按扩展名识别 .json / .csv
type FileCatalogLoader struct{}

// NewFileCatalogLoader 创建本地文件目录加载器
func NewFileCatalogLoader() *FileCatalogLoader {
	return &FileCatalogLoader{}
}

// Load 从本地文件加载目录；文件不存在时返回空目录而不是错误
func (l *FileCatalogLoader) Load(ctx context.Context, path string) ([]*core.CatalogItem, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("打开目录文件失败: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return DecodeCatalogJSON(f)
	case ".csv":
		return DecodeCatalogCSV(f)
	default:
		return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeNotSupported,
			fmt.Sprintf("catalog: unsupported file type %q", filepath.Ext(path)))
	}
}

// SaveCatalogFile 把目录写成 JSON 文件（先写临时文件再改名）
func SaveCatalogFile(path string, items []*core.CatalogItem) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化目录失败: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("创建目录失败: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("写入目录文件失败: %w", err)
	}
	return os.Rename(tmp, path)
}

// HTTPCatalogLoader HTTP 接口目录加载器，响应体为 CatalogItem 的 JSON 数组
type HTTPCatalogLoader struct {
	client *http.Client
}

// NewHTTPCatalogLoader 创建 HTTP 接口目录加载器
//
// 用法：
//
//	loader := feature.NewHTTPCatalogLoader(5 * time.Second)
//	records, err := loader.Load(ctx, "http://catalog.internal/v1/videos")
func NewHTTPCatalogLoader(timeout time.Duration) *HTTPCatalogLoader {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &HTTPCatalogLoader{client: &http.Client{Timeout: timeout}}
}

// NewHTTPCatalogLoaderWithClient 使用自定义 HTTP 客户端创建加载器
func NewHTTPCatalogLoaderWithClient(client *http.Client) *HTTPCatalogLoader {
	return &HTTPCatalogLoader{client: client}
}

// Load 从 HTTP 接口加载目录
func (l *HTTPCatalogLoader) Load(ctx context.Context, url string) ([]*core.CatalogItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("创建 HTTP 请求失败: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeUnavailable,
			fmt.Sprintf("catalog: http request failed: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeUnavailable,
			fmt.Sprintf("catalog: http status=%d, body=%s", resp.StatusCode, string(body)))
	}
	return DecodeCatalogJSON(resp.Body)
}

// DecodeCatalogJSON 解析 CatalogItem 的 JSON 数组
func DecodeCatalogJSON(r io.Reader) ([]*core.CatalogItem, error) {
	var items []*core.CatalogItem
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("解析目录 JSON 失败: %w", err)
	}
	return items, nil
}

// csv 列名别名，兼容 viewCount 与 view_count 两种写法
var csvColumns = map[string]string{
	"video_id":      "video_id",
	"id":            "video_id",
	"title":         "title",
	"channel":       "channel",
	"artist":        "artist",
	"description":   "description",
	"tags":          "tags",
	"text":          "text",
	"viewcount":     "view_count",
	"view_count":    "view_count",
	"views":         "view_count",
	"likecount":     "like_count",
	"like_count":    "like_count",
	"commentcount":  "comment_count",
	"comment_count": "comment_count",
}

// DecodeCatalogCSV 解析带表头的 CSV 目录。
// tags 列以逗号分隔；artist 列在 channel 为空时作为频道名。
// *_norm 列被忽略，归一化总是由 Build 重新计算。
func DecodeCatalogCSV(r io.Reader) ([]*core.CatalogItem, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取 CSV 表头失败: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		if name, ok := csvColumns[strings.ToLower(strings.TrimSpace(h))]; ok {
			cols[name] = i
		}
	}
	if _, ok := cols["video_id"]; !ok {
		return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeInvalidInput, "catalog: csv has no video_id column")
	}

	var items []*core.CatalogItem
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("读取 CSV 第 %d 行失败: %w", line, err)
		}
		get := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		it := &core.CatalogItem{
			ID:           get("video_id"),
			Title:        get("title"),
			Channel:      get("channel"),
			Description:  get("description"),
			Tags:         splitTags(get("tags")),
			Text:         get("text"),
			ViewCount:    parseCount(get("view_count")),
			LikeCount:    parseCount(get("like_count")),
			CommentCount: parseCount(get("comment_count")),
		}
		if it.Channel == "" {
			it.Channel = get("artist")
		}
		items = append(items, it)
	}
	return items, nil
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// parseCount 解析计数，空值、非法值与负数都记为 0
func parseCount(s string) int64 {
	if s == "" {
		return 0
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n < 0 {
			return 0
		}
		return n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0
	}
	return int64(f)
}
