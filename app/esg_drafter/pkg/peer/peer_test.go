package peer

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/logger"
	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/model"
	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/search"
)

const disclosurePage = `<!DOCTYPE html>
<html><head><title>2023 ESG Report</title></head>
<body>
<nav>Home | About</nav>
<article>
<h1>Green Credit Disclosure</h1>
<p>%s</p>
<p>Our green credit balance grew steadily, and we disclose emissions financed across the loan book every year.</p>
</article>
</body></html>`

func TestResolver_Resolve(t *testing.T) {
	body := strings.Repeat("Sustainable finance keeps expanding across all regional branches. ", 20)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, disclosurePage, body)
	}))
	defer srv.Close()

	hints := []model.PeerHint{
		{Name: "甲", Focus: "绿色信贷", URL: srv.URL + "/report"},
		{Name: "乙", Focus: "普惠金融"},
		{Name: "丙", Focus: "碳披露", URL: srv.URL + "/report", Excerpt: "已有摘录"},
	}
	r := NewResolver(5*time.Second, logger.Discard())
	out, err := r.Resolve(context.Background(), hints)
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Contains(t, out[0].Excerpt, "Sustainable finance")
	assert.LessOrEqual(t, utf8.RuneCountInString(out[0].Excerpt), ExcerptRunes)
	assert.Empty(t, out[1].Excerpt)
	assert.Equal(t, "已有摘录", out[2].Excerpt)
	assert.Empty(t, hints[0].Excerpt, "input must not be modified")
}

func TestResolver_FetchFailureKeepsHint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	hints := []model.PeerHint{{Name: "甲", Focus: "绿色信贷", URL: srv.URL}}
	out, err := NewResolver(time.Second, logger.Discard()).Resolve(context.Background(), hints)
	require.NoError(t, err)
	assert.Equal(t, hints, out)
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "a b c", Excerpt("  a\n\n b\tc "))
	long := strings.Repeat("可", ExcerptRunes+10)
	assert.Equal(t, ExcerptRunes, utf8.RuneCountInString(Excerpt(long)))
}

// fakeSearcher 按名称返回固定结果
type fakeSearcher struct {
	results map[string][]search.Result
	err     error
}

func (f *fakeSearcher) Search(_ context.Context, req *search.Request) (*search.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	for name, results := range f.results {
		if strings.HasPrefix(req.Query, name+" ") {
			return &search.Response{Results: results}, nil
		}
	}
	return &search.Response{}, nil
}

func TestResolver_SearchLocatesDisclosure(t *testing.T) {
	body := strings.Repeat("Community investment programs reached every plant this year. ", 20)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, disclosurePage, body)
	}))
	defer srv.Close()

	searcher := &fakeSearcher{results: map[string][]search.Result{
		"甲": {{Title: "甲 ESG", URL: "https://a.example/esg", Content: "  甲公司绿色信贷\n余额增长  ", Score: 0.9}},
		"乙": {{Title: "乙 ESG", URL: srv.URL + "/report", Score: 0.7}},
	}}
	hints := []model.PeerHint{
		{Name: "甲", Focus: "绿色信贷"},
		{Name: "乙", Focus: "社区"},
		{Name: "丙", Focus: "未收录"},
	}
	r := NewResolver(5*time.Second, logger.Discard(), WithSearcher(searcher, 3), WithConcurrency(2))
	out, err := r.Resolve(context.Background(), hints)
	require.NoError(t, err)

	assert.Equal(t, "https://a.example/esg", out[0].URL)
	assert.Equal(t, "甲公司绿色信贷 余额增长", out[0].Excerpt)
	assert.Equal(t, srv.URL+"/report", out[1].URL)
	assert.Contains(t, out[1].Excerpt, "Community investment")
	assert.Equal(t, hints[2], out[2])
}

func TestResolver_SearchFailureKeepsHint(t *testing.T) {
	hints := []model.PeerHint{{Name: "甲", Focus: "绿色信贷"}}
	r := NewResolver(time.Second, logger.Discard(), WithSearcher(&fakeSearcher{err: fmt.Errorf("quota exceeded")}, 3))
	out, err := r.Resolve(context.Background(), hints)
	require.NoError(t, err)
	assert.Equal(t, hints, out)
}
