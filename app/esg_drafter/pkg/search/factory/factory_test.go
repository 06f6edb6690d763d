package factory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/config"
	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/search/searxng"
	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/search/tavily"
)

func TestNewSearcher(t *testing.T) {
	s, err := NewSearcher(config.SearchConfig{}, time.Second)
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = NewSearcher(config.SearchConfig{Provider: config.SearchTavily, Tavily: config.TavilyConfig{APIKey: "k"}}, time.Second)
	require.NoError(t, err)
	assert.IsType(t, &tavily.Client{}, s)

	s, err = NewSearcher(config.SearchConfig{Provider: config.SearchSearXNG, SearXNG: config.SearXNGConfig{BaseURL: "http://localhost:8080"}}, time.Second)
	require.NoError(t, err)
	assert.IsType(t, &searxng.Client{}, s)

	_, err = NewSearcher(config.SearchConfig{Provider: config.SearchTavily}, time.Second)
	assert.Error(t, err)
	_, err = NewSearcher(config.SearchConfig{Provider: config.SearchSearXNG}, time.Second)
	assert.Error(t, err)
	_, err = NewSearcher(config.SearchConfig{Provider: "bing"}, time.Second)
	assert.Error(t, err)
}

func TestNewSearcher_SharedTimeout(t *testing.T) {
	timeout := 7 * time.Second

	s, err := NewSearcher(config.SearchConfig{Provider: config.SearchTavily, Tavily: config.TavilyConfig{APIKey: "k"}}, timeout)
	require.NoError(t, err)
	require.IsType(t, &tavily.Client{}, s)
	assert.Equal(t, timeout, s.(*tavily.Client).Timeout())

	s, err = NewSearcher(config.SearchConfig{Provider: config.SearchSearXNG, SearXNG: config.SearXNGConfig{BaseURL: "http://localhost:8080"}}, timeout)
	require.NoError(t, err)
	require.IsType(t, &searxng.Client{}, s)
	assert.Equal(t, timeout, s.(*searxng.Client).Timeout())

	s, err = NewSearcher(config.SearchConfig{Provider: config.SearchSearXNG, SearXNG: config.SearXNGConfig{BaseURL: "http://localhost:8080"}}, 0)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, s.(*searxng.Client).Timeout())
}
