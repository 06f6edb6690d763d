package factory

import (
	"fmt"
	"time"

	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/config"
	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/search"
	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/search/searxng"
	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/search/tavily"
)

// NewSearcher 根据配置创建检索实例，未配置 provider 时返回 nil
func NewSearcher(cfg config.SearchConfig, timeout time.Duration) (search.Searcher, error) {
	switch cfg.Provider {
	case "":
		return nil, nil
	case config.SearchTavily:
		if cfg.Tavily.APIKey == "" {
			return nil, fmt.Errorf("tavily api key is missing")
		}
		return tavily.NewClient(cfg.Tavily.APIKey, cfg.Tavily.Endpoint, timeout), nil
	case config.SearchSearXNG:
		if cfg.SearXNG.BaseURL == "" {
			return nil, fmt.Errorf("searxng base url is missing")
		}
		return searxng.NewClient(cfg.SearXNG.BaseURL, timeout), nil
	default:
		return nil, fmt.Errorf("unknown search provider: %s", cfg.Provider)
	}
}
