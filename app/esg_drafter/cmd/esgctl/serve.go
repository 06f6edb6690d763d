package main

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/go-kratos/kratos/v2"
	kconfig "github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/config/file"
	_ "github.com/go-kratos/kratos/v2/encoding/yaml"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/spf13/cobra"

	"github.com/iWorld-y/esg_drafter/app/esg_drafter/internal/server"
	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/config"
	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/settings"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动 HTTP 服务",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := scanServeConfig(cfgPath); err != nil {
			return err
		}
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		svc, settingsStore, cleanup, err := newService(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		if cfg.Settings.Watch {
			go func() {
				err := settings.Watch(ctx, settingsStore, appLog, func(next settings.AISettings) {
					svc.ApplySettings(ctx, next)
				})
				if err != nil {
					appLog.Warnf("模型配置监听退出: %v", err)
				}
			}()
		}

		id, _ := os.Hostname()
		logger := log.With(log.NewStdLogger(os.Stdout),
			"ts", log.DefaultTimestamp,
			"caller", log.DefaultCaller,
			"service.id", id,
			"service.name", Name,
			"service.version", Version,
		)

		hs := server.NewHTTPServer(cfg.Server, server.NewLimiter(cfg.Concurrency), svc)
		app := kratos.New(
			kratos.ID(id),
			kratos.Name(Name),
			kratos.Version(Version),
			kratos.Metadata(map[string]string{}),
			kratos.Logger(logger),
			kratos.Server(hs),
		)
		appLog.Infof("HTTP 服务监听 %s，存储后端 %s", cfg.Server.Addr, cfg.Storage.Driver)
		return app.Run()
	},
}

// scanServeConfig 通过 kratos config 重新加载配置文件，文件不存在时沿用默认配置
func scanServeConfig(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	c := kconfig.New(
		kconfig.WithSource(
			file.NewSource(path),
		),
	)
	defer c.Close()

	if err := c.Load(); err != nil {
		return err
	}
	var bc config.Config
	if err := c.Scan(&bc); err != nil {
		return err
	}
	bc.ApplyDefaults()
	cfg = &bc
	return nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "监听地址，覆盖配置文件中的 server.addr")
}
