// Package settings 管理生成模型的连接配置。配置值总是显式传递，加载与保存由注入的 Store 负责。
package settings

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrInvalid 模型配置不完整
var ErrInvalid = errors.New("invalid model settings")

const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 2048
)

// ModelConfig 单个模型的连接与参数配置
type ModelConfig struct {
	Name        string  `json:"name"`
	ModelName   string  `json:"model_name"`
	Provider    string  `json:"provider"`
	APIBase     string  `json:"api_base"`
	APIKey      string  `json:"api_key"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	// Timeout 秒，nil 表示不限制
	Timeout *int `json:"timeout,omitempty"`
}

// AISettings 全部可用模型及当前启用的模型
type AISettings struct {
	ActiveModel string        `json:"active_model"`
	Models      []ModelConfig `json:"models"`
}

// Default 返回默认配置
func Default() AISettings {
	model := ModelConfig{
		Name:        "默认模型",
		ModelName:   "gpt-4",
		Provider:    "openai",
		APIBase:     "https://api.openai.com/v1",
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	}
	return AISettings{ActiveModel: model.Name, Models: []ModelConfig{model}}
}

// Active 返回当前启用的模型；ActiveModel 无效时返回第一个模型
func (s AISettings) Active() (ModelConfig, bool) {
	if len(s.Models) == 0 {
		return ModelConfig{}, false
	}
	for _, m := range s.Models {
		if m.Name == s.ActiveModel {
			return m, true
		}
	}
	return s.Models[0], true
}

// normalize 修正启用模型并补全缺省参数
func (s AISettings) normalize() AISettings {
	out := AISettings{ActiveModel: s.ActiveModel, Models: slices.Clone(s.Models)}
	for i := range out.Models {
		if out.Models[i].ModelName == "" {
			out.Models[i].ModelName = out.Models[i].Name
		}
		if out.Models[i].MaxTokens == 0 {
			out.Models[i].MaxTokens = DefaultMaxTokens
		}
	}
	if active, ok := out.Active(); ok {
		out.ActiveModel = active.Name
	}
	return out
}

// Validate 校验启用模型的必填项
func (s AISettings) Validate() error {
	active, ok := s.Active()
	if !ok {
		return fmt.Errorf("%w: no model configured", ErrInvalid)
	}
	return active.Validate()
}

// Validate 校验服务商、模型名与 API Key
func (m ModelConfig) Validate() error {
	var errs []error
	if strings.TrimSpace(m.Provider) == "" {
		errs = append(errs, fmt.Errorf("%w: provider is required", ErrInvalid))
	}
	if strings.TrimSpace(m.ModelName) == "" {
		errs = append(errs, fmt.Errorf("%w: model name is required", ErrInvalid))
	}
	if strings.TrimSpace(m.APIKey) == "" {
		errs = append(errs, fmt.Errorf("%w: api key is required", ErrInvalid))
	}
	return errors.Join(errs...)
}

// MaskKey 隐藏 API Key，只保留末尾 4 位
func MaskKey(key string) string {
	if key == "" {
		return ""
	}
	runes := []rune(key)
	if len(runes) <= 4 {
		return "****"
	}
	return "****" + string(runes[len(runes)-4:])
}

// Masked 返回隐藏 API Key 后的副本，用于对外展示
func (s AISettings) Masked() AISettings {
	out := AISettings{ActiveModel: s.ActiveModel, Models: slices.Clone(s.Models)}
	for i := range out.Models {
		out.Models[i].APIKey = MaskKey(out.Models[i].APIKey)
	}
	return out
}

// Preset 预置模型
type Preset struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Provider  string `json:"provider"`
	ModelName string `json:"model_name"`
	BaseURL   string `json:"base_url"`
}

var presets = []Preset{
	{ID: "openai-gpt-4-turbo", Label: "OpenAI GPT-4 Turbo", Provider: "openai", ModelName: "gpt-4-turbo", BaseURL: "https://api.openai.com/v1"},
	{ID: "openai-gpt-4o-mini", Label: "OpenAI GPT-4o Mini", Provider: "openai", ModelName: "gpt-4o-mini", BaseURL: "https://api.openai.com/v1"},
	{ID: "anthropic-claude-3-sonnet", Label: "Anthropic Claude 3 Sonnet", Provider: "anthropic", ModelName: "claude-3-sonnet-20240229", BaseURL: "https://api.anthropic.com"},
}

// Presets 返回预置模型列表
func Presets() []Preset {
	return slices.Clone(presets)
}

// DetectPreset 查找与模型配置完全一致的预置项
func DetectPreset(m ModelConfig) (string, bool) {
	for _, p := range presets {
		if p.Provider == m.Provider && p.ModelName == m.ModelName && p.BaseURL == m.APIBase {
			return p.ID, true
		}
	}
	return "", false
}

// FromPreset 以预置项创建模型配置
func FromPreset(id, apiKey string) (ModelConfig, error) {
	for _, p := range presets {
		if p.ID == id {
			return ModelConfig{
				Name:        p.Label,
				ModelName:   p.ModelName,
				Provider:    p.Provider,
				APIBase:     p.BaseURL,
				APIKey:      apiKey,
				Temperature: DefaultTemperature,
				MaxTokens:   DefaultMaxTokens,
			}, nil
		}
	}
	return ModelConfig{}, fmt.Errorf("%w: unknown preset %q", ErrInvalid, id)
}
