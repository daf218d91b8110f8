package logtest

import (
	"os"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

const testLogLevel = "JANUS_TEST_LOG_LEVEL"

// New creates a logger that writes through testing.TB.Log. Unless a level is
// given or JANUS_TEST_LOG_LEVEL is set it logs at debug level.
func New(tb testing.TB, override ...zapcore.Level) *zap.Logger {
	level := zapcore.DebugLevel
	if len(override) > 0 {
		level = override[0]
	} else if lvl := os.Getenv(testLogLevel); lvl != "" {
		if err := level.Set(lvl); err != nil {
			tb.Fatalf("invalid %s: %v", testLogLevel, err)
		}
	}
	return zaptest.NewLogger(tb, zaptest.Level(level))
}
