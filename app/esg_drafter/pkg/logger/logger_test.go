package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomFormatter_Format(t *testing.T) {
	entry := &logrus.Entry{
		Time:    time.Date(2024, 5, 1, 8, 30, 0, 0, time.Local),
		Level:   logrus.WarnLevel,
		Message: "hello",
		Data:    logrus.Fields{"step": "materiality", "package": "pkg-1"},
	}
	out, err := (&CustomFormatter{}).Format(entry)
	require.NoError(t, err)
	assert.Equal(t, "[2024-05-01 08:30:00] [WARN] [] hello package=pkg-1 step=materiality\n", string(out))
}

func TestNew_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	log, err := New("debug", path)
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())

	log.Info("written")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "[INFO] [logger_test.go:"))
}

func TestNew_InvalidLevelFallsBack(t *testing.T) {
	log, err := New("loud", "")
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
}
