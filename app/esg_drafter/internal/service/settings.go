package service

import (
	"context"
	"fmt"

	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/llm"
	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/settings"
)

// Settings 返回当前模型配置
func (s *ReportService) Settings() settings.AISettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Bindings 返回当前模型绑定，配置不完整时为 nil
func (s *ReportService) Bindings() *llm.Bindings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bindings
}

// UpdateSettings 校验、保存并应用新的模型配置
func (s *ReportService) UpdateSettings(ctx context.Context, next settings.AISettings) error {
	if err := next.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if _, err := llm.Bind(ctx, next); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if s.settings != nil {
		if err := s.settings.Save(next); err != nil {
			return fmt.Errorf("failed to save model settings: %w", err)
		}
	}
	s.ApplySettings(ctx, next)
	return nil
}

// ApplySettings 应用模型配置并重建模型绑定。配置不完整时保留配置、清空绑定。
func (s *ReportService) ApplySettings(ctx context.Context, next settings.AISettings) {
	var bindings *llm.Bindings
	if err := next.Validate(); err != nil {
		s.log.Warnf("模型配置不完整，暂不绑定模型: %v", err)
	} else if b, err := llm.Bind(ctx, next); err != nil {
		s.log.Warnf("模型绑定失败: %v", err)
	} else {
		bindings = b
	}

	s.mu.Lock()
	s.current = next
	s.bindings = bindings
	s.mu.Unlock()

	if active, ok := next.Active(); ok {
		s.log.Infof("已应用模型配置 [%s] %s/%s", active.Name, active.Provider, active.ModelName)
	}
}
