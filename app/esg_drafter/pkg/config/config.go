package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// 存储后端
const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config 项目配置结构体
type Config struct {
	Log         LogConfig         `yaml:"log" json:"log"`
	Storage     StorageConfig     `yaml:"storage" json:"storage"`
	Server      ServerConfig      `yaml:"server" json:"server"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" json:"concurrency"`
	Settings    SettingsConfig    `yaml:"settings" json:"settings"`
	Peer        PeerConfig        `yaml:"peer" json:"peer"`
}

// LogConfig 日志相关配置
type LogConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// StorageConfig 报告包存储配置
type StorageConfig struct {
	// Driver 取值 file / postgres / sqlite
	Driver string   `yaml:"driver" json:"driver"`
	Dir    string   `yaml:"dir" json:"dir"`
	Source string   `yaml:"source" json:"source"`
	DB     DBConfig `yaml:"db" json:"db"`
}

// DBConfig Postgres 连接配置，Source 非空时优先使用 Source
type DBConfig struct {
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	User     string `yaml:"user" json:"user"`
	Password string `yaml:"password" json:"password"`
	Name     string `yaml:"name" json:"name"`
}

// DSN 生成 lib/pq 连接串
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Name)
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Addr    string `yaml:"addr" json:"addr"`
	Timeout string `yaml:"timeout" json:"timeout"`
}

// TimeoutDuration 解析超时配置，无法解析时返回 0
func (c ServerConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// ConcurrencyConfig 并发控制配置
type ConcurrencyConfig struct {
	QPS   int `yaml:"qps" json:"qps"`
	RPM   int `yaml:"rpm" json:"rpm"`
	Batch int `yaml:"batch" json:"batch"`
}

// SettingsConfig 模型设置文件配置
type SettingsConfig struct {
	Path  string `yaml:"path" json:"path"`
	Watch bool   `yaml:"watch" json:"watch"`
}

// PeerConfig 同业披露抓取配置
type PeerConfig struct {
	Fetch   bool         `yaml:"fetch" json:"fetch"`
	Timeout int          `yaml:"timeout" json:"timeout"`
	Search  SearchConfig `yaml:"search" json:"search"`
}

// 检索服务
const (
	SearchTavily  = "tavily"
	SearchSearXNG = "searxng"
)

// SearchConfig 同业披露检索配置，Provider 为空时不检索
type SearchConfig struct {
	Provider   string        `yaml:"provider" json:"provider"`
	MaxResults int           `yaml:"max_results" json:"max_results"`
	Tavily     TavilyConfig  `yaml:"tavily" json:"tavily"`
	SearXNG    SearXNGConfig `yaml:"searxng" json:"searxng"`
}

// TavilyConfig Tavily 配置
type TavilyConfig struct {
	APIKey   string `yaml:"api_key" json:"api_key"`
	Endpoint string `yaml:"endpoint" json:"endpoint"`
}

// SearXNGConfig SearXNG 配置
type SearXNGConfig struct {
	BaseURL string `yaml:"base_url" json:"base_url"`
}

// LoadConfig 从指定路径加载配置并补全默认值
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults 为缺省字段填入默认值
func (c *Config) ApplyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverFile
	}
	if c.Storage.Dir == "" {
		c.Storage.Dir = "data/packages"
	}
	if c.Storage.Driver == DriverPostgres && c.Storage.DB.Port == 0 {
		c.Storage.DB.Port = 5432
	}
	if c.Server.Addr == "" {
		c.Server.Addr = "0.0.0.0:8000"
	}
	if c.Server.Timeout == "" {
		c.Server.Timeout = "30s"
	}
	if c.Concurrency.QPS <= 0 {
		c.Concurrency.QPS = 5
	}
	if c.Concurrency.RPM <= 0 {
		c.Concurrency.RPM = 60
	}
	if c.Concurrency.Batch <= 0 {
		c.Concurrency.Batch = 4
	}
	if c.Settings.Path == "" {
		c.Settings.Path = "config/ai_settings.json"
	}
	if c.Peer.Timeout <= 0 {
		c.Peer.Timeout = 30
	}
	if c.Peer.Search.MaxResults <= 0 {
		c.Peer.Search.MaxResults = 3
	}
	if c.Peer.Search.Tavily.APIKey == "" {
		c.Peer.Search.Tavily.APIKey = os.Getenv("TAVILY_API_KEY")
	}
}
