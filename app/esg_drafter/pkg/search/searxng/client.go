package searxng

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/search"
)

// 部分实例会拦截没有浏览器 UA 的请求
const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Client SearXNG API 客户端
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient 创建客户端，timeout 不大于 0 时为 30 秒
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{baseURL: baseURL, client: &http.Client{Timeout: timeout}}
}

// Timeout 单次请求超时
func (c *Client) Timeout() time.Duration { return c.client.Timeout }

var _ search.Searcher = (*Client)(nil)

type searchResponse struct {
	Query   string         `json:"query"`
	Results []searchResult `json:"results"`
}

type searchResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// Search implements search.Searcher
func (c *Client) Search(ctx context.Context, req *search.Request) (*search.Response, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	u.Path = "/search"

	q := u.Query()
	q.Set("q", req.Query)
	q.Set("format", "json")
	q.Set("categories", "general")
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	httpReq.Header.Set("User-Agent", userAgent)

	res, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("searxng api error (status %d): %s", res.StatusCode, string(body))
	}

	var decoded searchResponse
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode response failed: %w", err)
	}

	results := decoded.Results
	if req.MaxResults > 0 && len(results) > req.MaxResults {
		results = results[:req.MaxResults]
	}
	out := &search.Response{Results: make([]search.Result, 0, len(results))}
	for _, r := range results {
		out.Results = append(out.Results, search.Result{Title: r.Title, URL: r.URL, Content: r.Content, Score: r.Score})
	}
	return out, nil
}
