// Package peer 在流水线运行前抓取同业企业的公开披露页面，为同业线索补充摘录。
// 配置了检索服务时，没有 URL 的线索先通过检索定位披露页面。
package peer

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-shiori/go-readability"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/model"
	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/search"
)

// ExcerptRunes 摘录保留的最大字符数
const ExcerptRunes = 200

const defaultConcurrency = 4

// Resolver 同业披露抓取器
type Resolver struct {
	timeout     time.Duration
	concurrency int
	searcher    search.Searcher
	maxResults  int
	log         *logrus.Logger
}

// Option 抓取器选项
type Option func(*Resolver)

// WithSearcher 为没有 URL 的线索启用检索
func WithSearcher(s search.Searcher, maxResults int) Option {
	return func(r *Resolver) {
		r.searcher = s
		r.maxResults = maxResults
	}
}

// WithConcurrency 设置同时抓取的页面数
func WithConcurrency(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// NewResolver 创建抓取器，timeout 为单个页面的抓取超时
func NewResolver(timeout time.Duration, log *logrus.Logger, opts ...Option) *Resolver {
	r := &Resolver{timeout: timeout, concurrency: defaultConcurrency, log: log}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve 为尚无摘录的线索补充摘录：带 URL 的直接抓取正文，
// 没有 URL 的在启用检索时取得分最高的结果。
// 失败只记录日志，线索保持原样；返回的切片与输入顺序一致。
func (r *Resolver) Resolve(ctx context.Context, hints []model.PeerHint) ([]model.PeerHint, error) {
	out := make([]model.PeerHint, len(hints))
	copy(out, hints)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i := range out {
		if out[i].Excerpt != "" || out[i].URL == "" && r.searcher == nil {
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if out[i].URL == "" {
				r.locate(ctx, &out[i])
				if out[i].URL == "" || out[i].Excerpt != "" {
					return nil
				}
			}
			excerpt, err := r.fetch(out[i].URL)
			if err != nil {
				r.log.Warnf("抓取同业披露失败 [%s] %s: %v", out[i].Name, out[i].URL, err)
				return nil
			}
			out[i].Excerpt = excerpt
			r.log.Debugf("抓取同业披露成功 [%s]，摘录 %d 字", out[i].Name, utf8.RuneCountInString(excerpt))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// locate 检索披露页面，检索摘要非空时直接作为摘录
func (r *Resolver) locate(ctx context.Context, hint *model.PeerHint) {
	resp, err := r.searcher.Search(ctx, &search.Request{
		Query:      search.DisclosureQuery(hint.Name, hint.Focus),
		MaxResults: r.maxResults,
	})
	if err != nil {
		r.log.Warnf("检索同业披露失败 [%s]: %v", hint.Name, err)
		return
	}
	best, ok := resp.Best()
	if !ok {
		r.log.Infof("未检索到同业披露 [%s]", hint.Name)
		return
	}
	hint.URL = best.URL
	hint.Excerpt = Excerpt(best.Content)
	r.log.Debugf("检索到同业披露 [%s] %s", hint.Name, best.URL)
}

func (r *Resolver) fetch(url string) (string, error) {
	article, err := readability.FromURL(url, r.timeout)
	if err != nil {
		return "", err
	}
	return Excerpt(article.TextContent), nil
}

// Excerpt 压缩空白并截取前 ExcerptRunes 个字符
func Excerpt(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= ExcerptRunes {
		return text
	}
	return string(runes[:ExcerptRunes])
}
