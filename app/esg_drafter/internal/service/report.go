package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/export"
	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/llm"
	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/logger"
	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/model"
	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/settings"
	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/storage"
	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/workflow"
)

// ErrInvalidRequest 请求参数不合法
var ErrInvalidRequest = errors.New("invalid request")

// PeerResolver 同业线索补全
type PeerResolver interface {
	Resolve(ctx context.Context, hints []model.PeerHint) ([]model.PeerHint, error)
}

// GenerateRequest 生成请求
type GenerateRequest struct {
	Company model.CompanyProfile `json:"company"`
	Peers   []model.PeerHint     `json:"peers,omitempty"`
}

// BatchResult 批量生成中单个请求的结果
type BatchResult struct {
	Company string                  `json:"company"`
	Package *model.ESGReportPackage `json:"package,omitempty"`
	Error   string                  `json:"error,omitempty"`
}

// ConfirmRequest 用户确认请求
type ConfirmRequest struct {
	Reviewer    string   `json:"reviewer"`
	Comment     string   `json:"comment,omitempty"`
	DocumentIDs []string `json:"document_ids,omitempty"`
}

// Options 服务依赖
type Options struct {
	Workflow   *workflow.Workflow
	Store      storage.Store
	Settings   settings.Store
	Resolver   PeerResolver
	BatchLimit int
	Logger     *logrus.Logger
}

// ReportService 报告生成、存储、确认与导出
type ReportService struct {
	workflow   *workflow.Workflow
	store      storage.Store
	settings   settings.Store
	resolver   PeerResolver
	batchLimit int
	log        *logrus.Logger

	mu       sync.RWMutex
	current  settings.AISettings
	bindings *llm.Bindings
}

// NewReportService 创建服务并加载模型配置
func NewReportService(ctx context.Context, opts Options) (*ReportService, error) {
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	if opts.Workflow == nil {
		opts.Workflow = workflow.New(workflow.WithLogger(opts.Logger))
	}
	if opts.BatchLimit <= 0 {
		opts.BatchLimit = 4
	}
	s := &ReportService{
		workflow:   opts.Workflow,
		store:      opts.Store,
		settings:   opts.Settings,
		resolver:   opts.Resolver,
		batchLimit: opts.BatchLimit,
		log:        opts.Logger,
	}

	current := settings.Default()
	if s.settings != nil {
		loaded, err := s.settings.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load model settings: %w", err)
		}
		current = loaded
	}
	s.ApplySettings(ctx, current)
	return s, nil
}

// Generate 运行流水线并保存报告包
func (s *ReportService) Generate(ctx context.Context, req GenerateRequest) (*model.ESGReportPackage, error) {
	if err := req.Company.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	peers := req.Peers
	if s.resolver != nil && len(peers) > 0 {
		resolved, err := s.resolver.Resolve(ctx, peers)
		if err != nil {
			return nil, err
		}
		peers = resolved
	}

	pkg, err := s.workflow.Execute(ctx, req.Company, peers)
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, pkg); err != nil {
		return nil, fmt.Errorf("failed to save package: %w", err)
	}
	s.log.Infof("报告草案已保存 [%s] %s", pkg.PackageID, req.Company.Name)
	return pkg, nil
}

// GenerateBatch 并发生成多份报告，单个失败不影响其他请求；结果与请求顺序一致
func (s *ReportService) GenerateBatch(ctx context.Context, reqs []GenerateRequest) ([]BatchResult, error) {
	if len(reqs) == 0 {
		return nil, fmt.Errorf("%w: empty batch", ErrInvalidRequest)
	}

	results := make([]BatchResult, len(reqs))
	var g errgroup.Group
	g.SetLimit(s.batchLimit)
	for i, req := range reqs {
		g.Go(func() error {
			results[i].Company = req.Company.Name
			pkg, err := s.Generate(ctx, req)
			if err != nil {
				s.log.Errorf("批量生成失败 [%s]: %v", req.Company.Name, err)
				results[i].Error = err.Error()
				return nil
			}
			results[i].Package = pkg
			return nil
		})
	}
	_ = g.Wait()
	return results, nil
}

// List 列出已保存的报告包
func (s *ReportService) List(ctx context.Context) ([]storage.Summary, error) {
	return s.store.List(ctx)
}

// Get 读取报告包
func (s *ReportService) Get(ctx context.Context, packageID string) (*model.ESGReportPackage, error) {
	return s.store.Load(ctx, packageID)
}

// Confirm 记录用户对报告草案的确认，作为新的过程性文件追加到报告包末尾
func (s *ReportService) Confirm(ctx context.Context, packageID string, req ConfirmRequest) (*model.ESGReportPackage, error) {
	reviewer := strings.TrimSpace(req.Reviewer)
	if reviewer == "" {
		return nil, fmt.Errorf("%w: reviewer is required", ErrInvalidRequest)
	}
	pkg, err := s.store.Load(ctx, packageID)
	if err != nil {
		return nil, err
	}

	var confirmed []*model.ProcessDocument
	for _, id := range req.DocumentIDs {
		doc, ok := pkg.FindDocument(id)
		if !ok {
			return nil, fmt.Errorf("%w: document %s not found in package %s", ErrInvalidRequest, id, packageID)
		}
		confirmed = append(confirmed, doc)
	}

	doc := model.NewProcessDocument("用户确认记录", model.CategoryUserConfirmation,
		fmt.Sprintf("%s于%s确认报告草案。", reviewer, model.Today()), nil)
	doc.SetDetail("确认人", reviewer)
	if req.Comment != "" {
		doc.SetDetail("确认意见", req.Comment)
	}
	for _, c := range confirmed {
		doc.SetDetail(fmt.Sprintf("%s (%s)", c.Title, c.Identifier), "已确认")
	}

	updated, err := s.store.AppendDocument(ctx, packageID, doc)
	if err != nil {
		return nil, err
	}
	s.log.Infof("报告草案 [%s] 已由 %s 确认", packageID, reviewer)
	return updated, nil
}

// Export 导出结果
type Export struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportReport 导出报告草案，format 为 docx（默认）或 html
func (s *ReportService) ExportReport(ctx context.Context, packageID, format string) (*Export, error) {
	pkg, err := s.store.Load(ctx, packageID)
	if err != nil {
		return nil, err
	}
	switch format {
	case "", "docx":
		name, data, err := export.ReportDOCX(pkg)
		if err != nil {
			return nil, err
		}
		return &Export{Filename: name, ContentType: export.MIMETypeDOCX, Data: data}, nil
	case "html":
		data, err := export.ReportHTML(pkg)
		if err != nil {
			return nil, err
		}
		return &Export{Filename: pkg.PackageID + "-report-draft.html", ContentType: "text/html; charset=utf-8", Data: data}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported export format %q", ErrInvalidRequest, format)
	}
}

// ExportDocument 导出单份过程性文件
func (s *ReportService) ExportDocument(ctx context.Context, packageID, documentID string) (*Export, error) {
	pkg, err := s.store.Load(ctx, packageID)
	if err != nil {
		return nil, err
	}
	doc, ok := pkg.FindDocument(documentID)
	if !ok {
		return nil, fmt.Errorf("%w: document %s in package %s", storage.ErrNotFound, documentID, packageID)
	}
	name, data, err := export.DocumentDOCX(*doc)
	if err != nil {
		return nil, err
	}
	return &Export{Filename: name, ContentType: export.MIMETypeDOCX, Data: data}, nil
}

// Pipeline 返回流水线步骤说明
func (s *ReportService) Pipeline() []workflow.StepInfo {
	return s.workflow.Trace()
}
