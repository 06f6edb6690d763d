package server

import (
	"context"
	stderrors "errors"
	"mime"
	"strings"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/transport/http"

	"github.com/iWorld-y/esg_drafter/app/esg_drafter/internal/service"
	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/model"
	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/settings"
	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/storage"
	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/workflow"
)

// BatchRequest 批量生成请求
type BatchRequest struct {
	Items []service.GenerateRequest `json:"items"`
}

// BatchReply 批量生成结果
type BatchReply struct {
	Results []service.BatchResult `json:"results"`
}

// ListReply 报告包列表
type ListReply struct {
	Packages []storage.Summary `json:"packages"`
	Total    int               `json:"total"`
}

// PipelineReply 流水线步骤
type PipelineReply struct {
	Steps []workflow.StepInfo `json:"steps"`
}

// SettingsReply 模型配置（API Key 已隐藏）
type SettingsReply struct {
	Settings       settings.AISettings `json:"settings"`
	Presets        []settings.Preset   `json:"presets"`
	SelectedPreset string              `json:"selected_preset,omitempty"`
	// Roles 已绑定模型的角色，配置不完整时为空
	Roles []BoundRole `json:"roles"`
}

// BoundRole 角色当前使用的模型
type BoundRole struct {
	Role      string `json:"role"`
	Model     string `json:"model"`
	Provider  string `json:"provider"`
	ModelName string `json:"model_name"`
}

// toHTTPError 将业务错误转换为 kratos 错误
func toHTTPError(err error) error {
	var se *errors.Error
	switch {
	case err == nil:
		return nil
	case stderrors.As(err, &se):
		return se
	case stderrors.Is(err, storage.ErrNotFound):
		return errors.NotFound("NOT_FOUND", err.Error())
	case stderrors.Is(err, service.ErrInvalidRequest),
		stderrors.Is(err, model.ErrInvalidProfile),
		stderrors.Is(err, settings.ErrInvalid):
		return errors.BadRequest("INVALID_ARGUMENT", err.Error())
	default:
		return errors.InternalServer("INTERNAL", err.Error())
	}
}

// RegisterHTTPServer 注册全部 HTTP 路由
func RegisterHTTPServer(srv *http.Server, s *service.ReportService) {
	r := srv.Route("/v1")
	r.POST("/reports", generateHandler(s))
	r.POST("/reports/batch", generateBatchHandler(s))
	r.GET("/reports", listHandler(s))
	r.GET("/reports/{id}", getHandler(s))
	r.POST("/reports/{id}/confirmations", confirmHandler(s))
	r.GET("/reports/{id}/export", exportReportHandler(s))
	r.GET("/reports/{id}/documents/{doc_id}/export", exportDocumentHandler(s))
	r.GET("/pipeline", pipelineHandler(s))
	r.GET("/settings", getSettingsHandler(s))
	r.PUT("/settings", updateSettingsHandler(s))
}

// invoke 设置操作名并经过中间件执行业务逻辑
func invoke(ctx http.Context, operation string, req any, fn func(context.Context, any) (any, error)) (any, error) {
	http.SetOperation(ctx, operation)
	h := ctx.Middleware(func(c context.Context, in any) (any, error) {
		out, err := fn(c, in)
		return out, toHTTPError(err)
	})
	return h(ctx, req)
}

func generateHandler(s *service.ReportService) http.HandlerFunc {
	return func(ctx http.Context) error {
		var in service.GenerateRequest
		if err := ctx.Bind(&in); err != nil {
			return errors.BadRequest("INVALID_ARGUMENT", err.Error())
		}
		out, err := invoke(ctx, OperationGenerate, &in, func(c context.Context, req any) (any, error) {
			return s.Generate(c, *req.(*service.GenerateRequest))
		})
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	}
}

func generateBatchHandler(s *service.ReportService) http.HandlerFunc {
	return func(ctx http.Context) error {
		var in BatchRequest
		if err := ctx.Bind(&in); err != nil {
			return errors.BadRequest("INVALID_ARGUMENT", err.Error())
		}
		out, err := invoke(ctx, OperationGenerateBatch, &in, func(c context.Context, req any) (any, error) {
			results, err := s.GenerateBatch(c, req.(*BatchRequest).Items)
			if err != nil {
				return nil, err
			}
			return &BatchReply{Results: results}, nil
		})
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	}
}

func listHandler(s *service.ReportService) http.HandlerFunc {
	return func(ctx http.Context) error {
		out, err := invoke(ctx, OperationList, nil, func(c context.Context, _ any) (any, error) {
			items, err := s.List(c)
			if err != nil {
				return nil, err
			}
			return &ListReply{Packages: items, Total: len(items)}, nil
		})
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	}
}

func getHandler(s *service.ReportService) http.HandlerFunc {
	return func(ctx http.Context) error {
		id := ctx.Vars().Get("id")
		out, err := invoke(ctx, OperationGet, id, func(c context.Context, req any) (any, error) {
			return s.Get(c, req.(string))
		})
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	}
}

func confirmHandler(s *service.ReportService) http.HandlerFunc {
	return func(ctx http.Context) error {
		var in service.ConfirmRequest
		if err := ctx.Bind(&in); err != nil {
			return errors.BadRequest("INVALID_ARGUMENT", err.Error())
		}
		id := ctx.Vars().Get("id")
		out, err := invoke(ctx, OperationConfirm, &in, func(c context.Context, req any) (any, error) {
			return s.Confirm(c, id, *req.(*service.ConfirmRequest))
		})
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	}
}

func writeExport(ctx http.Context, out *service.Export) error {
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": out.Filename})
	ctx.Response().Header().Set("Content-Disposition", disposition)
	return ctx.Blob(200, out.ContentType, out.Data)
}

func exportReportHandler(s *service.ReportService) http.HandlerFunc {
	return func(ctx http.Context) error {
		id := ctx.Vars().Get("id")
		format := strings.ToLower(ctx.Query().Get("format"))
		out, err := invoke(ctx, OperationExportReport, id, func(c context.Context, req any) (any, error) {
			return s.ExportReport(c, req.(string), format)
		})
		if err != nil {
			return err
		}
		return writeExport(ctx, out.(*service.Export))
	}
}

func exportDocumentHandler(s *service.ReportService) http.HandlerFunc {
	return func(ctx http.Context) error {
		vars := ctx.Vars()
		id, docID := vars.Get("id"), vars.Get("doc_id")
		out, err := invoke(ctx, OperationExportDocument, docID, func(c context.Context, req any) (any, error) {
			return s.ExportDocument(c, id, req.(string))
		})
		if err != nil {
			return err
		}
		return writeExport(ctx, out.(*service.Export))
	}
}

func pipelineHandler(s *service.ReportService) http.HandlerFunc {
	return func(ctx http.Context) error {
		out, err := invoke(ctx, OperationPipeline, nil, func(context.Context, any) (any, error) {
			return &PipelineReply{Steps: s.Pipeline()}, nil
		})
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	}
}

func settingsReply(s *service.ReportService) *SettingsReply {
	current := s.Settings()
	reply := &SettingsReply{Settings: current.Masked(), Presets: settings.Presets(), Roles: []BoundRole{}}
	if active, ok := current.Active(); ok {
		reply.SelectedPreset, _ = settings.DetectPreset(active)
	}
	if bindings := s.Bindings(); bindings != nil {
		for _, b := range bindings.Roles() {
			reply.Roles = append(reply.Roles, BoundRole{
				Role:      b.Role,
				Model:     b.Config.Name,
				Provider:  b.Config.Provider,
				ModelName: b.Config.ModelName,
			})
		}
	}
	return reply
}

func getSettingsHandler(s *service.ReportService) http.HandlerFunc {
	return func(ctx http.Context) error {
		out, err := invoke(ctx, OperationGetSettings, nil, func(context.Context, any) (any, error) {
			return settingsReply(s), nil
		})
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	}
}

// restoreMaskedKeys 客户端回传隐藏后的 API Key 时沿用已保存的值
func restoreMaskedKeys(next, current settings.AISettings) settings.AISettings {
	saved := make(map[string]string, len(current.Models))
	for _, m := range current.Models {
		saved[m.Name] = m.APIKey
	}
	for i, m := range next.Models {
		if key, ok := saved[m.Name]; ok && m.APIKey != "" && m.APIKey == settings.MaskKey(key) {
			next.Models[i].APIKey = key
		}
	}
	return next
}

func updateSettingsHandler(s *service.ReportService) http.HandlerFunc {
	return func(ctx http.Context) error {
		var in settings.AISettings
		if err := ctx.Bind(&in); err != nil {
			return errors.BadRequest("INVALID_ARGUMENT", err.Error())
		}
		out, err := invoke(ctx, OperationUpdateSettings, &in, func(c context.Context, req any) (any, error) {
			next := restoreMaskedKeys(*req.(*settings.AISettings), s.Settings())
			if err := s.UpdateSettings(c, next); err != nil {
				return nil, err
			}
			return settingsReply(s), nil
		})
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	}
}
