// Package upstream 封装对音乐库服务器的全部 HTTP 访问。非 200 响应
// 统一转成 StatusError，由调用方决定是视为致命错误还是 not found；
// 这里不做任何重试。
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"
)

// Shared HTTP transport tunings，复用长连接并集中配置超时。
var defaultTransport = &http.Transport{
	Proxy:                 http.ProxyFromEnvironment,
	MaxIdleConns:          100,
	MaxIdleConnsPerHost:   100,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
	ForceAttemptHTTP2:     true,
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
}

// StatusError 表示上游返回了非预期状态码。
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream status %d", e.Code)
}

// Client 是音乐库服务器的瘦客户端，整个进程复用一个实例。
type Client struct {
	base string
	http *http.Client
}

// NewClient 以 base 为服务器地址构建客户端。timeout <= 0 时退回 30s，
// 避免无界阻塞。
func NewClient(base string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		base: base,
		http: &http.Client{
			Timeout:   timeout,
			Transport: defaultTransport.Clone(),
		},
	}
}

// BaseURL 返回配置的服务器地址，便于日志输出。
func (c *Client) BaseURL() string {
	return c.base
}

// Genres 拉取完整的上游流派列表。
func (c *Client) Genres(ctx context.Context) ([]Genre, error) {
	var genres []Genre
	if err := c.getJSON(ctx, "/genres", &genres); err != nil {
		return nil, err
	}
	return genres, nil
}

// GenreAlbums 拉取单个上游流派下的全部专辑。link 来自 Genres 响应。
func (c *Client) GenreAlbums(ctx context.Context, link string) ([]Album, error) {
	var contents GenreContents
	if err := c.getJSON(ctx, link+"?albums=all", &contents); err != nil {
		return nil, err
	}
	return contents.Albums, nil
}

// Album 拉取含全部音轨的专辑详情。
func (c *Client) Album(ctx context.Context, id string) (Album, error) {
	var album Album
	path := fmt.Sprintf("/albums/%s?tracks=all", url.PathEscape(id))
	if err := c.getJSON(ctx, path, &album); err != nil {
		return Album{}, err
	}
	return album, nil
}

// Artist 按原始大小写查询艺术家。上游按名字分组返回，同一逻辑艺术家
// 的不同大小写会各占一组，合并由调用方处理。
func (c *Client) Artist(ctx context.Context, name string) (map[string][]Album, error) {
	var grouped map[string][]Album
	path := fmt.Sprintf("/artists/%s?tracks=all", url.PathEscape(name))
	if err := c.getJSON(ctx, path, &grouped); err != nil {
		return nil, err
	}
	return grouped, nil
}

// Play 把播放指令透传给上游播放器，缓存层不参与。
func (c *Client) Play(ctx context.Context, albumID, trackID string) error {
	payload, err := json.Marshal(map[string]string{
		"album": albumID,
		"track": trackID,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/player/play", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}

// getJSON 执行 GET 并解码 JSON；非 200 返回 StatusError。
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, http.NoBody)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Code: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode upstream response: %w", err)
	}
	return nil
}
