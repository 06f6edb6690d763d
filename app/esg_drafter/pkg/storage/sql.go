package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/model"
)

// Dialect SQL 方言
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// placeholder 返回第 n 个参数占位符（从 1 开始）
func (d Dialect) placeholder(n int) string {
	if d == DialectPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// bind 将查询中的 ? 替换为方言占位符
func (d Dialect) bind(query string) string {
	if d != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString(d.placeholder(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SQLStore 以单表 JSON 载荷存储报告包
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQLStore 打开数据库连接并初始化表结构
func NewSQLStore(dialect Dialect, source string) (*SQLStore, error) {
	db, err := sql.Open(string(dialect), source)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	if dialect == DialectSQLite {
		// SQLite 仅允许单写连接
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLStore{db: db, dialect: dialect}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// Close implements Store
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS esg_packages (
			package_id TEXT PRIMARY KEY,
			company_name TEXT NOT NULL,
			reporting_year INTEGER NOT NULL,
			documents INTEGER NOT NULL DEFAULT 0,
			payload TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_esg_packages_created_at ON esg_packages (created_at)`,
	}
	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query %s: %w", query, err)
		}
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQLStore) upsert(ctx context.Context, db execer, pkg *model.ESGReportPackage) error {
	payload, err := json.Marshal(pkg)
	if err != nil {
		return fmt.Errorf("failed to encode package %s: %w", pkg.PackageID, err)
	}
	_, err = db.ExecContext(ctx, s.dialect.bind(`
		INSERT INTO esg_packages (package_id, company_name, reporting_year, documents, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (package_id) DO UPDATE SET
			company_name = excluded.company_name,
			reporting_year = excluded.reporting_year,
			documents = excluded.documents,
			payload = excluded.payload,
			updated_at = excluded.updated_at`),
		pkg.PackageID, pkg.Company.Name, pkg.Company.ReportingYear, len(pkg.ProcessDocuments),
		string(payload), pkg.CreatedAt.UTC(), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save package %s: %w", pkg.PackageID, err)
	}
	return nil
}

// Save implements Store
func (s *SQLStore) Save(ctx context.Context, pkg *model.ESGReportPackage) error {
	return s.upsert(ctx, s.db, pkg)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLStore) load(ctx context.Context, db queryRower, packageID string, forUpdate bool) (*model.ESGReportPackage, error) {
	query := `SELECT payload FROM esg_packages WHERE package_id = ?`
	if forUpdate && s.dialect == DialectPostgres {
		query += ` FOR UPDATE`
	}
	var payload string
	err := db.QueryRowContext(ctx, s.dialect.bind(query), packageID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, packageID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load package %s: %w", packageID, err)
	}
	var pkg model.ESGReportPackage
	if err := json.Unmarshal([]byte(payload), &pkg); err != nil {
		return nil, fmt.Errorf("failed to decode package %s: %w", packageID, err)
	}
	return &pkg, nil
}

// Load implements Store
func (s *SQLStore) Load(ctx context.Context, packageID string) (*model.ESGReportPackage, error) {
	return s.load(ctx, s.db, packageID, false)
}

// List implements Store
func (s *SQLStore) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT package_id, company_name, reporting_year, documents, created_at
		FROM esg_packages`)
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}
	defer rows.Close()

	items := []Summary{}
	for rows.Next() {
		var item Summary
		if err := rows.Scan(&item.PackageID, &item.CompanyName, &item.ReportingYear, &item.Documents, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan package row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sortSummaries(items)
	return items, nil
}

// AppendDocument implements Store
func (s *SQLStore) AppendDocument(ctx context.Context, packageID string, doc model.ProcessDocument) (*model.ESGReportPackage, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	pkg, err := s.load(ctx, tx, packageID, true)
	if err != nil {
		return nil, err
	}
	pkg.AppendDocument(doc)
	if err := s.upsert(ctx, tx, pkg); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return pkg, nil
}
