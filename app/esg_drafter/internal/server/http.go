package server

import (
	"context"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/middleware/selector"
	"github.com/go-kratos/kratos/v2/transport/http"
	"golang.org/x/time/rate"

	"github.com/iWorld-y/esg_drafter/app/esg_drafter/internal/service"
	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/config"
)

// 接口操作名，用于中间件匹配
const (
	OperationGenerate       = "/esg.v1.Reports/Generate"
	OperationGenerateBatch  = "/esg.v1.Reports/GenerateBatch"
	OperationList           = "/esg.v1.Reports/List"
	OperationGet            = "/esg.v1.Reports/Get"
	OperationConfirm        = "/esg.v1.Reports/Confirm"
	OperationExportReport   = "/esg.v1.Reports/ExportReport"
	OperationExportDocument = "/esg.v1.Reports/ExportDocument"
	OperationPipeline       = "/esg.v1.Pipeline/Trace"
	OperationGetSettings    = "/esg.v1.Settings/Get"
	OperationUpdateSettings = "/esg.v1.Settings/Update"
)

// NewLimiter 按配置创建生成接口的令牌桶，RPM 为平均速率，QPS 为突发容量
func NewLimiter(c config.ConcurrencyConfig) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(float64(c.RPM)/60.0), c.QPS)
}

// rateLimit 令牌不足时直接拒绝
func rateLimit(l *rate.Limiter) middleware.Middleware {
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req any) (any, error) {
			if !l.Allow() {
				return nil, errors.New(429, "RATE_LIMITED", "too many generation requests, retry later")
			}
			return handler(ctx, req)
		}
	}
}

func isGeneration(_ context.Context, operation string) bool {
	return operation == OperationGenerate || operation == OperationGenerateBatch
}

// NewHTTPServer 创建 HTTP 服务并注册路由
func NewHTTPServer(c config.ServerConfig, limiter *rate.Limiter, s *service.ReportService) *http.Server {
	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
			selector.Server(rateLimit(limiter)).Match(isGeneration).Build(),
		),
	}
	if c.Addr != "" {
		opts = append(opts, http.Address(c.Addr))
	}
	if d := c.TimeoutDuration(); d > 0 {
		opts = append(opts, http.Timeout(d))
	} else {
		opts = append(opts, http.Timeout(30*time.Second))
	}

	srv := http.NewServer(opts...)
	RegisterHTTPServer(srv, s)
	return srv
}
