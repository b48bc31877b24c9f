package logging_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/gompdf/cutticket/internal/logging"
)

func TestSetLogger(t *testing.T) {
	old := logging.Logger()
	defer logging.SetLogger(old)

	core, logs := observer.New(zapcore.DebugLevel)
	logging.SetLogger(zap.New(core))

	logging.Logger().Debug("test message", zap.String("key", "value"))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "test message", entry.Message)
	assert.Equal(t, "value", entry.ContextMap()["key"])
}

func TestSetLogger_Nil(t *testing.T) {
	old := logging.Logger()
	defer logging.SetLogger(old)

	logging.SetLogger(nil)

	l := logging.Logger()
	require.NotNil(t, l)
	assert.False(t, l.Core().Enabled(zapcore.ErrorLevel), "expected a no-op logger")
}

func TestNamed(t *testing.T) {
	old := logging.Logger()
	defer logging.SetLogger(old)

	core, logs := observer.New(zapcore.InfoLevel)
	logging.SetLogger(zap.New(core))

	logging.Named("export").Info("done")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "export", logs.All()[0].LoggerName)
}
