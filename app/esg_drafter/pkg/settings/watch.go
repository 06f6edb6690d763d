package settings

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watch 监听配置文件变化，每次写入后重新加载并回调 fn。阻塞直到 ctx 结束。
// 文件内容无法解析时只记录日志，不回调。
// 监听的是所在目录，因此文件被替换或重建后仍然有效。
func Watch(ctx context.Context, store *FileStore, log *logrus.Logger, fn func(AISettings)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create settings watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(store.Path())
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	target := filepath.Clean(store.Path())

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			loaded, err := store.Reload()
			if err != nil {
				log.Warnf("重新加载模型配置失败，保留当前配置: %v", err)
				continue
			}
			log.Infof("模型配置已更新，当前模型 [%s]", loaded.ActiveModel)
			fn(loaded)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warnf("模型配置监听异常: %v", err)
		}
	}
}
