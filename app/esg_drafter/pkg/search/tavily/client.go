package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/search"
)

// DefaultEndpoint Tavily 检索接口地址
const DefaultEndpoint = "https://api.tavily.com/search"

// Client Tavily API 客户端
type Client struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

// NewClient 创建客户端，endpoint 为空时使用 DefaultEndpoint
func NewClient(apiKey, endpoint string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		apiKey:   apiKey,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// Timeout 单次请求超时
func (c *Client) Timeout() time.Duration { return c.client.Timeout }

var _ search.Searcher = (*Client)(nil)

type searchRequest struct {
	Query       string `json:"query"`
	SearchDepth string `json:"search_depth"`
	Topic       string `json:"topic"`
	MaxResults  int    `json:"max_results"`
}

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
	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}
	payload, err := json.Marshal(searchRequest{
		Query:       req.Query,
		SearchDepth: "basic",
		Topic:       "general",
		MaxResults:  maxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request failed: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read body failed: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily api error (status %d): %s", res.StatusCode, string(body))
	}

	var decoded searchResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("unmarshal response failed: %w", err)
	}

	out := &search.Response{Results: make([]search.Result, 0, len(decoded.Results))}
	for _, r := range decoded.Results {
		out.Results = append(out.Results, search.Result{Title: r.Title, URL: r.URL, Content: r.Content, Score: r.Score})
	}
	return out, nil
}
