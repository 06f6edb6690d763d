// Package storage 持久化报告包。报告包是最小存储单元，往返后过程性文件的顺序与标识保持不变。
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/config"
	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/model"
)

// ErrNotFound 报告包不存在
var ErrNotFound = errors.New("package not found")

// Summary 报告包列表项
type Summary struct {
	PackageID     string    `json:"package_id"`
	CompanyName   string    `json:"company_name"`
	ReportingYear int       `json:"reporting_year"`
	Documents     int       `json:"documents"`
	CreatedAt     time.Time `json:"created_at"`
}

func summarize(pkg *model.ESGReportPackage) Summary {
	return Summary{
		PackageID:     pkg.PackageID,
		CompanyName:   pkg.Company.Name,
		ReportingYear: pkg.Company.ReportingYear,
		Documents:     len(pkg.ProcessDocuments),
		CreatedAt:     pkg.CreatedAt,
	}
}

// sortSummaries 按创建时间倒序，时间相同按标识排序
func sortSummaries(items []Summary) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].PackageID < items[j].PackageID
	})
}

// Store 报告包仓库
type Store interface {
	// Save 新增或覆盖报告包
	Save(ctx context.Context, pkg *model.ESGReportPackage) error
	Load(ctx context.Context, packageID string) (*model.ESGReportPackage, error)
	List(ctx context.Context) ([]Summary, error)
	// AppendDocument 在报告包末尾追加过程性文件并持久化
	AppendDocument(ctx context.Context, packageID string, doc model.ProcessDocument) (*model.ESGReportPackage, error)
	Close() error
}

// Open 根据配置创建仓库
func Open(cfg config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case config.DriverFile, "":
		return NewFileStore(cfg.Dir)
	case config.DriverPostgres:
		source := cfg.Source
		if source == "" {
			source = cfg.DB.DSN()
		}
		return NewSQLStore(DialectPostgres, source)
	case config.DriverSQLite:
		return NewSQLStore(DialectSQLite, cfg.Source)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}
