package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/model"
)

const (
	packageFile    = "package.json"
	tempFilePrefix = "esg-tmp-"
)

// FileStore 以 <base>/<package_id>/package.json 的目录结构存储报告包
type FileStore struct {
	base string
	mu   sync.Mutex
}

// NewFileStore 创建文件仓库，目录不存在时自动创建
func NewFileStore(base string) (*FileStore, error) {
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FileStore{base: base}, nil
}

func (s *FileStore) packagePath(packageID string) string {
	return filepath.Join(s.base, packageID, packageFile)
}

// Save implements Store
func (s *FileStore) Save(_ context.Context, pkg *model.ESGReportPackage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(pkg)
}

func (s *FileStore) save(pkg *model.ESGReportPackage) error {
	if pkg.PackageID == "" || filepath.Base(pkg.PackageID) != pkg.PackageID {
		return fmt.Errorf("invalid package id %q", pkg.PackageID)
	}
	dir := filepath.Join(s.base, pkg.PackageID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create package directory: %w", err)
	}
	data, err := json.MarshalIndent(pkg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode package %s: %w", pkg.PackageID, err)
	}
	return writeFileAtomic(s.packagePath(pkg.PackageID), data, 0o644)
}

// Load implements Store
func (s *FileStore) Load(_ context.Context, packageID string) (*model.ESGReportPackage, error) {
	return s.load(packageID)
}

func (s *FileStore) load(packageID string) (*model.ESGReportPackage, error) {
	if packageID == "" || filepath.Base(packageID) != packageID {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, packageID)
	}
	data, err := os.ReadFile(s.packagePath(packageID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, packageID)
	}
	if err != nil {
		return nil, err
	}
	var pkg model.ESGReportPackage
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("failed to decode package %s: %w", packageID, err)
	}
	return &pkg, nil
}

// List implements Store
func (s *FileStore) List(_ context.Context) ([]Summary, error) {
	matches, err := doublestar.Glob(os.DirFS(s.base), "*/"+packageFile)
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}
	items := make([]Summary, 0, len(matches))
	for _, match := range matches {
		pkg, err := s.load(filepath.Dir(filepath.FromSlash(match)))
		if err != nil {
			return nil, err
		}
		items = append(items, summarize(pkg))
	}
	sortSummaries(items)
	return items, nil
}

// AppendDocument implements Store
func (s *FileStore) AppendDocument(_ context.Context, packageID string, doc model.ProcessDocument) (*model.ESGReportPackage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pkg, err := s.load(packageID)
	if err != nil {
		return nil, err
	}
	pkg.AppendDocument(doc)
	if err := s.save(pkg); err != nil {
		return nil, err
	}
	return pkg, nil
}

// Close implements Store
func (s *FileStore) Close() error { return nil }

// writeFileAtomic 先写入同目录临时文件，再重命名为目标文件
func writeFileAtomic(filename string, data []byte, perm os.FileMode) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(filename), tempFilePrefix+"*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpFile.Name(), perm); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err := os.Rename(tmpFile.Name(), filename); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", filename, err)
	}
	return nil
}
