package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/iWorld-y/esg_drafter/app/esg_drafter/internal/service"
	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/config"
	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/logger"
	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/peer"
	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/search/factory"
	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/settings"
	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/storage"
	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/workflow"
)

// go build -ldflags "-X main.Version=x.y.z"
var (
	Name    = "esgctl"
	Version = "dev"

	cfgPath string
	verbose bool

	cfg    *config.Config
	appLog *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "esgctl",
	Short: "ESG 可持续发展报告草案生成工具",
	Long: `esgctl 依次运行利益相关方识别、重要性评估、政策对标、同业对标与报告汇编，
生成符合 SSE 与 GRI 结构的报告草案及过程性文件，并支持确认与 Word 导出。`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadConfig(cfgPath)
		if err != nil {
			return err
		}
		level := cfg.Log.Level
		if verbose {
			level = "debug"
		}
		appLog, err = logger.New(level, cfg.Log.File)
		if err != nil {
			return fmt.Errorf("初始化日志失败: %w", err)
		}
		return nil
	},
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "app/esg_drafter/configs/config.yaml", "配置文件路径")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "输出调试日志")
	rootCmd.Version = Version
}

// loadConfig 配置文件不存在时使用默认配置
func loadConfig(path string) (*config.Config, error) {
	c, err := config.LoadConfig(path)
	if errors.Is(err, fs.ErrNotExist) {
		c = &config.Config{}
		c.ApplyDefaults()
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}
	return c, nil
}

// newService 按配置组装报告服务，返回的 cleanup 负责关闭存储
func newService(ctx context.Context) (*service.ReportService, *settings.FileStore, func(), error) {
	store, err := storage.Open(cfg.Storage)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("打开报告存储失败: %w", err)
	}
	cleanup := func() {
		if err := store.Close(); err != nil {
			appLog.Warnf("关闭报告存储失败: %v", err)
		}
	}

	settingsStore := settings.NewFileStore(cfg.Settings.Path)
	opts := service.Options{
		Workflow:   workflow.New(workflow.WithLogger(appLog)),
		Store:      store,
		Settings:   settingsStore,
		BatchLimit: cfg.Concurrency.Batch,
		Logger:     appLog,
	}
	if cfg.Peer.Fetch {
		timeout := time.Duration(cfg.Peer.Timeout) * time.Second
		searcher, err := factory.NewSearcher(cfg.Peer.Search, timeout)
		if err != nil {
			cleanup()
			return nil, nil, nil, fmt.Errorf("初始化同业检索失败: %w", err)
		}
		opts.Resolver = peer.NewResolver(timeout, appLog,
			peer.WithSearcher(searcher, cfg.Peer.Search.MaxResults),
			peer.WithConcurrency(cfg.Concurrency.Batch),
		)
	}

	svc, err := service.NewReportService(ctx, opts)
	if err != nil {
		cleanup()
		return nil, nil, nil, err
	}
	return svc, settingsStore, cleanup, nil
}
