package logger

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ecommerce/config"
	"ecommerce/infrastructure/persistence"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var testApp = config.AppConfig{Name: "ecommerce", Version: "1.2.0", Env: "production"}

func TestUninitializedLoggerIsNop(t *testing.T) {
	t.Cleanup(SetForTest(nil))

	assert.NotPanics(t, func() {
		Debug("stock applied")
		Info("order created")
		Warn("notification failed")
		Error("callback rejected")
		FromContext(context.Background()).Info("nop")
	})
	assert.NoError(t, Sync())
}

func TestInitRejectsUnknownLevel(t *testing.T) {
	err := Init(&config.LogConfig{Level: "verbose"}, testApp)
	assert.Error(t, err)
}

func TestFileOutputCarriesServiceFields(t *testing.T) {
	t.Cleanup(SetForTest(nil))
	path := filepath.Join(t.TempDir(), "logs", "worker.log")

	require.NoError(t, Init(&config.LogConfig{
		Level:    "info",
		Format:   "json",
		Output:   "file",
		FilePath: path,
	}, testApp))

	Debug("filtered out")
	Info("Outbox batch relayed", zap.Int("count", 3))
	require.NoError(t, Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "Outbox batch relayed", entry["msg"])
	assert.Equal(t, "ecommerce", entry["service"])
	assert.Equal(t, "1.2.0", entry["version"])
	assert.Equal(t, "production", entry["env"])
	assert.EqualValues(t, 3, entry["count"])
	assert.Contains(t, entry["caller"], "logger_test.go")
}

func TestFromContextAddsRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	t.Cleanup(SetForTest(zap.New(core)))

	ctx := persistence.ContextWithRequestID(context.Background(), "req-42")
	FromContext(ctx).Info("order created")
	FromContext(context.Background()).Info("no request")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "req-42", entries[0].ContextMap()["request_id"])
	assert.NotContains(t, entries[1].ContextMap(), "request_id")
}

func TestEncoderSelection(t *testing.T) {
	tests := []struct {
		format string
		env    string
		json   bool
	}{
		{format: "json", env: "development", json: true},
		{format: "console", env: "production", json: false},
		{format: "", env: "development", json: false},
		{format: "", env: "production", json: true},
	}
	for _, tt := range tests {
		t.Run(tt.format+"/"+tt.env, func(t *testing.T) {
			buf, err := newEncoder(tt.format, tt.env).EncodeEntry(zapcore.Entry{Message: "hello"}, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.json, strings.HasPrefix(buf.String(), "{"))
		})
	}
}
