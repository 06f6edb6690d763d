package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/iWorld-y/esg_drafter/app/esg_drafter/internal/service"
	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/config"
	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/export"
	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/llm"
	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/model"
	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/settings"
	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/storage"
)

type errorReply struct {
	Code   int    `json:"code"`
	Reason string `json:"reason"`
}

func newTestServer(t *testing.T, limiter *rate.Limiter) http.Handler {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFileStore(filepath.Join(dir, "packages"))
	require.NoError(t, err)

	svc, err := service.NewReportService(context.Background(), service.Options{
		Store:    store,
		Settings: settings.NewFileStore(filepath.Join(dir, "ai_settings.json")),
	})
	require.NoError(t, err)

	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return NewHTTPServer(config.ServerConfig{Addr: "127.0.0.1:0", Timeout: "5s"}, limiter, svc)
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func generate(t *testing.T, h http.Handler) *model.ESGReportPackage {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/v1/reports", service.GenerateRequest{
		Company: model.CompanyProfile{Name: "示例制造", ReportingYear: 2024, Industry: "制造业"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var pkg model.ESGReportPackage
	decode(t, rec, &pkg)
	return &pkg
}

func TestServer_GenerateAndGet(t *testing.T) {
	h := newTestServer(t, nil)
	pkg := generate(t, h)
	assert.NotEmpty(t, pkg.PackageID)
	assert.Len(t, pkg.ProcessDocuments, 2)

	rec := do(t, h, http.MethodGet, "/v1/reports/"+pkg.PackageID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got model.ESGReportPackage
	decode(t, rec, &got)
	assert.Equal(t, pkg.CompiledReport, got.CompiledReport)

	rec = do(t, h, http.MethodGet, "/v1/reports", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list ListReply
	decode(t, rec, &list)
	assert.Equal(t, 1, list.Total)
	assert.Equal(t, pkg.PackageID, list.Packages[0].PackageID)
}

func TestServer_Errors(t *testing.T) {
	h := newTestServer(t, nil)

	rec := do(t, h, http.MethodPost, "/v1/reports", service.GenerateRequest{Company: model.CompanyProfile{Name: "A"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var reply errorReply
	decode(t, rec, &reply)
	assert.Equal(t, "INVALID_ARGUMENT", reply.Reason)

	rec = do(t, h, http.MethodGet, "/v1/reports/pkg-missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	decode(t, rec, &reply)
	assert.Equal(t, "NOT_FOUND", reply.Reason)
}

func TestServer_Batch(t *testing.T) {
	h := newTestServer(t, nil)
	rec := do(t, h, http.MethodPost, "/v1/reports/batch", BatchRequest{Items: []service.GenerateRequest{
		{Company: model.CompanyProfile{Name: "甲", ReportingYear: 2024}},
		{Company: model.CompanyProfile{Name: "乙"}},
	}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var reply BatchReply
	decode(t, rec, &reply)
	require.Len(t, reply.Results, 2)
	assert.NotNil(t, reply.Results[0].Package)
	assert.NotEmpty(t, reply.Results[1].Error)
}

func TestServer_RateLimit(t *testing.T) {
	h := newTestServer(t, rate.NewLimiter(rate.Every(time.Hour), 1))
	generate(t, h)

	rec := do(t, h, http.MethodPost, "/v1/reports", service.GenerateRequest{
		Company: model.CompanyProfile{Name: "示例", ReportingYear: 2024},
	})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// 查询接口不受限流影响
	rec = do(t, h, http.MethodGet, "/v1/pipeline", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_ConfirmAndExport(t *testing.T) {
	h := newTestServer(t, nil)
	pkg := generate(t, h)
	doc := pkg.ProcessDocuments[0]

	rec := do(t, h, http.MethodPost, "/v1/reports/"+pkg.PackageID+"/confirmations", service.ConfirmRequest{
		Reviewer:    "张三",
		DocumentIDs: []string{doc.Identifier},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated model.ESGReportPackage
	decode(t, rec, &updated)
	require.Len(t, updated.ProcessDocuments, 3)
	assert.Equal(t, model.CategoryUserConfirmation, updated.ProcessDocuments[2].Category)

	rec = do(t, h, http.MethodGet, "/v1/reports/"+pkg.PackageID+"/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.MIMETypeDOCX, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.Equal(t, "PK", rec.Body.String()[:2])

	rec = do(t, h, http.MethodGet, "/v1/reports/"+pkg.PackageID+"/export?format=html", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "示例制造")

	rec = do(t, h, http.MethodGet, "/v1/reports/"+pkg.PackageID+"/export?format=pdf", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/v1/reports/"+pkg.PackageID+"/documents/"+doc.Identifier+"/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.MIMETypeDOCX, rec.Header().Get("Content-Type"))

	rec = do(t, h, http.MethodGet, "/v1/reports/"+pkg.PackageID+"/documents/doc-missing/export", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_Pipeline(t *testing.T) {
	h := newTestServer(t, nil)
	rec := do(t, h, http.MethodGet, "/v1/pipeline", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var reply PipelineReply
	decode(t, rec, &reply)
	require.Len(t, reply.Steps, 5)
	assert.Equal(t, "stakeholder_analysis", reply.Steps[0].Name)
}

func TestServer_Settings(t *testing.T) {
	h := newTestServer(t, nil)

	rec := do(t, h, http.MethodGet, "/v1/settings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var reply SettingsReply
	decode(t, rec, &reply)
	assert.Len(t, reply.Presets, 3)
	assert.Equal(t, "默认模型", reply.Settings.ActiveModel)
	assert.Empty(t, reply.Roles)

	// 缺少 API Key
	rec = do(t, h, http.MethodPut, "/v1/settings", reply.Settings)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	next := reply.Settings
	next.Models[0].APIKey = "sk-test-123456"
	rec = do(t, h, http.MethodPut, "/v1/settings", next)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &reply)
	assert.Equal(t, "****3456", reply.Settings.Models[0].APIKey)
	require.Len(t, reply.Roles, 2)
	assert.Equal(t, llm.RoleReportWriter, reply.Roles[0].Role)
	assert.Equal(t, llm.RoleFactChecker, reply.Roles[1].Role)
	for _, r := range reply.Roles {
		assert.Equal(t, next.ActiveModel, r.Model)
		assert.Equal(t, next.Models[0].ModelName, r.ModelName)
	}

	rec = do(t, h, http.MethodGet, "/v1/settings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &reply)
	assert.Len(t, reply.Roles, 2)

	// 回传隐藏后的 Key 时沿用已保存的值
	rec = do(t, h, http.MethodPut, "/v1/settings", reply.Settings)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &reply)
	assert.Equal(t, "****3456", reply.Settings.Models[0].APIKey)
}

func TestRestoreMaskedKeys(t *testing.T) {
	current := settings.AISettings{Models: []settings.ModelConfig{{Name: "a", APIKey: "sk-secret"}}}
	next := settings.AISettings{Models: []settings.ModelConfig{
		{Name: "a", APIKey: settings.MaskKey("sk-secret")},
		{Name: "b", APIKey: "****cret"},
	}}
	got := restoreMaskedKeys(next, current)
	assert.Equal(t, "sk-secret", got.Models[0].APIKey)
	assert.Equal(t, "****cret", got.Models[1].APIKey)
}
