package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Metadata 元数据抓取结果
type Metadata struct {
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail_url"`
}

// MetadataFetcher 元数据抓取能力，曲目目录通过它补全标题和封面
type MetadataFetcher interface {
	Fetch(ctx context.Context, videoID string) (*Metadata, error)
}

// Client YouTube oEmbed API 客户端
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient 创建新的API客户端。timeout 是整个抓取的硬上限，
// 超时按抓取失败处理，不会无限等待。
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Fetch 抓取视频元数据
func (c *Client) Fetch(ctx context.Context, videoID string) (*Metadata, error) {
	watchURL := "https://www.youtube.com/watch?v=" + videoID
	reqURL := fmt.Sprintf("%s?url=%s&format=json", c.baseURL, url.QueryEscape(watchURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build oembed request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("oembed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oembed returned status %d for video %s", resp.StatusCode, videoID)
	}

	var meta Metadata
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, fmt.Errorf("failed to decode oembed response: %w", err)
	}
	if meta.Title == "" {
		return nil, fmt.Errorf("oembed response missing title for video %s", videoID)
	}

	return &meta, nil
}
