// Package search 定义同业公开披露的检索接口，具体实现见 tavily 与 searxng 子包。
package search

import (
	"context"
	"strings"
)

// Searcher 通用检索接口
type Searcher interface {
	Search(ctx context.Context, req *Request) (*Response, error)
}

// Request 检索请求
type Request struct {
	Query      string
	MaxResults int
}

// Response 检索结果
type Response struct {
	Results []Result
}

// Result 单条检索结果
type Result struct {
	Title   string
	URL     string
	Content string
	Score   float64
}

// Best 返回得分最高且带 URL 的结果，得分相同取靠前的
func (r *Response) Best() (Result, bool) {
	var (
		best  Result
		found bool
	)
	for _, item := range r.Results {
		if item.URL == "" {
			continue
		}
		if !found || item.Score > best.Score {
			best, found = item, true
		}
	}
	return best, found
}

// DisclosureQuery 构造同业 ESG 披露的检索词
func DisclosureQuery(company, focus string) string {
	parts := []string{company, "ESG 可持续发展报告"}
	if focus = strings.TrimSpace(focus); focus != "" {
		parts = append(parts, focus)
	}
	return strings.Join(parts, " ")
}
