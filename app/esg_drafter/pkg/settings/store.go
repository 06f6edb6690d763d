package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// ErrMalformed 配置文件无法解析或没有任何模型
var ErrMalformed = errors.New("malformed settings file")

// Store 模型配置的加载与保存
type Store interface {
	Load() (AISettings, error)
	Save(AISettings) error
}

// FileStore 以 JSON 文件保存模型配置
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore 创建文件存储
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path 配置文件路径
func (s *FileStore) Path() string { return s.path }

// Load 读取配置。文件缺失或模型列表为空时写入并返回默认配置；文件损坏时返回默认配置且不覆盖原文件。
func (s *FileStore) Load() (AISettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loaded, err := s.read()
	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, errNoModels):
		def := Default()
		return def, s.save(def)
	case err != nil:
		return Default(), nil
	}
	return loaded, nil
}

// Reload 重新读取配置，不回退默认值也不写文件。
// 文件损坏或没有模型时返回 ErrMalformed，调用方应保留当前配置。
func (s *FileStore) Reload() (AISettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loaded, err := s.read()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return AISettings{}, fmt.Errorf("%w: %s: %w", ErrMalformed, s.path, err)
	}
	return loaded, err
}

var errNoModels = errors.New("no models configured")

func (s *FileStore) read() (AISettings, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return AISettings{}, err
	}
	var raw rawSettings
	if err := json.Unmarshal(data, &raw); err != nil {
		return AISettings{}, err
	}
	if len(raw.Models) == 0 {
		return AISettings{}, errNoModels
	}

	out := AISettings{ActiveModel: raw.ActiveModel}
	for _, m := range raw.Models {
		out.Models = append(out.Models, m.toModel())
	}
	return out.normalize(), nil
}

// Save 写入配置
func (s *FileStore) Save(settings AISettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(settings)
}

func (s *FileStore) save(settings AISettings) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(s.path, data, 0o600)
}

// writeFileAtomic 先写入同目录临时文件，再重命名为目标文件，监听方不会读到半截内容
func writeFileAtomic(filename string, data []byte, perm os.FileMode) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(filename), ".settings-tmp-*")
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

// rawSettings 宽松解析：数值字段可以是数字或字符串，非法值回退默认
type rawSettings struct {
	ActiveModel string     `json:"active_model"`
	Models      []rawModel `json:"models"`
}

type rawModel struct {
	Name        string `json:"name"`
	ModelName   string `json:"model_name"`
	Provider    string `json:"provider"`
	APIBase     string `json:"api_base"`
	APIKey      string `json:"api_key"`
	Temperature any    `json:"temperature"`
	MaxTokens   any    `json:"max_tokens"`
	Timeout     any    `json:"timeout"`
}

func (r rawModel) toModel() ModelConfig {
	m := ModelConfig{
		Name:        r.Name,
		ModelName:   r.ModelName,
		Provider:    r.Provider,
		APIBase:     r.APIBase,
		APIKey:      r.APIKey,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	}
	if v, ok := parseFloat(r.Temperature); ok {
		m.Temperature = v
	}
	if v, ok := parseInt(r.MaxTokens); ok {
		m.MaxTokens = v
	}
	if v, ok := parseInt(r.Timeout); ok {
		m.Timeout = &v
	}
	return m
}

func parseFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func parseInt(v any) (int, bool) {
	switch x := v.(type) {
	case float64:
		return int(math.Trunc(x)), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
