// Package llm 根据模型配置构建报告撰写与事实核查两个角色的模型客户端。
// 这里只负责构建，流水线不会调用模型。
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/settings"
)

// ErrUnsupportedProvider 未知的模型服务商
var ErrUnsupportedProvider = errors.New("unsupported model provider")

// 模型角色
const (
	RoleReportWriter = "report_writer"
	RoleFactChecker  = "fact_checker"
)

// OpenAI 兼容服务商的默认地址
var compatibleBaseURLs = map[string]string{
	"openai":    "https://api.openai.com/v1",
	"deepseek":  "https://api.deepseek.com",
	"dashscope": "https://dashscope.aliyuncs.com/compatible-mode/v1",
	"qwen":      "https://dashscope.aliyuncs.com/compatible-mode/v1",
}

// Binding 单个角色的模型客户端
type Binding struct {
	Role   string
	Config settings.ModelConfig
	Model  model.BaseChatModel
}

// Bindings 当前配置下全部角色的模型客户端
type Bindings struct {
	ReportWriter *Binding
	FactChecker  *Binding
}

// Roles 按固定顺序返回全部绑定
func (b *Bindings) Roles() []*Binding {
	return []*Binding{b.ReportWriter, b.FactChecker}
}

// Bind 以启用模型构建全部角色的客户端
func Bind(ctx context.Context, s settings.AISettings) (*Bindings, error) {
	active, ok := s.Active()
	if !ok {
		return nil, fmt.Errorf("%w: no model configured", settings.ErrInvalid)
	}
	writer, err := newBinding(ctx, RoleReportWriter, active)
	if err != nil {
		return nil, err
	}
	checker, err := newBinding(ctx, RoleFactChecker, active)
	if err != nil {
		return nil, err
	}
	return &Bindings{ReportWriter: writer, FactChecker: checker}, nil
}

func newBinding(ctx context.Context, role string, cfg settings.ModelConfig) (*Binding, error) {
	m, err := NewChatModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("bind %s: %w", role, err)
	}
	return &Binding{Role: role, Config: cfg, Model: m}, nil
}

// NewChatModel 按服务商创建模型客户端
func NewChatModel(ctx context.Context, cfg settings.ModelConfig) (model.BaseChatModel, error) {
	temperature := float32(cfg.Temperature)
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = settings.DefaultMaxTokens
	}
	var timeout time.Duration
	if cfg.Timeout != nil && *cfg.Timeout > 0 {
		timeout = time.Duration(*cfg.Timeout) * time.Second
	}

	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	switch provider {
	case "anthropic", "claude":
		var baseURL *string
		if cfg.APIBase != "" {
			baseURL = &cfg.APIBase
		}
		m, err := claude.NewChatModel(ctx, &claude.Config{
			BaseURL:     baseURL,
			APIKey:      cfg.APIKey,
			Model:       cfg.ModelName,
			Temperature: &temperature,
			MaxTokens:   maxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("claude 模型初始化失败: %w", err)
		}
		return m, nil
	default:
		defaultBase, ok := compatibleBaseURLs[provider]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, cfg.Provider)
		}
		baseURL := cfg.APIBase
		if baseURL == "" {
			baseURL = defaultBase
		}
		m, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL:     baseURL,
			APIKey:      cfg.APIKey,
			Model:       cfg.ModelName,
			Temperature: &temperature,
			MaxTokens:   &maxTokens,
			Timeout:     timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("LLM 初始化失败: %w", err)
		}
		return m, nil
	}
}
