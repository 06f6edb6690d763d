package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// CustomFormatter 自定义日志格式
type CustomFormatter struct{}

// Format 实现 logrus.Formatter 接口
func (f *CustomFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var fileLine string
	if entry.HasCaller() {
		fileLine = fmt.Sprintf("%s:%d", filepath.Base(entry.Caller.File), entry.Caller.Line)
	}

	// 对齐级别长度，例如 INFO, WARN, ERRO
	level := strings.ToUpper(entry.Level.String())
	if len(level) > 4 {
		level = level[:4]
	}

	var fields strings.Builder
	for _, key := range sortedKeys(entry.Data) {
		fmt.Fprintf(&fields, " %s=%v", key, entry.Data[key])
	}

	// [TIME] [LEVEL] [FILE:LINE] MSG key=value
	msg := fmt.Sprintf("[%s] [%s] [%s] %s%s\n",
		entry.Time.Format("2006-01-02 15:04:05"), level, fileLine, entry.Message, fields.String())
	return []byte(msg), nil
}

func sortedKeys(data logrus.Fields) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// New 创建日志实例，同时输出到标准错误和文件（filePath 为空时只输出到标准错误）。
// 标准输出留给命令的结果。
func New(levelStr string, filePath string) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetReportCaller(true)
	log.SetFormatter(&CustomFormatter{})

	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	writers := []io.Writer{os.Stderr}
	if filePath != "" {
		logDir := filepath.Dir(filePath)
		if logDir != "." {
			if err := os.MkdirAll(logDir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create log directory: %w", err)
			}
		}
		file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
		if err != nil {
			return nil, err
		}
		writers = append(writers, file)
	}
	log.SetOutput(io.MultiWriter(writers...))
	return log, nil
}

// Discard 返回丢弃全部输出的日志实例
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
