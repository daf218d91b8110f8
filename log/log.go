// Package log builds the zap loggers used by janus components.
package log

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// ConsoleEncoder writes human readable lines.
	ConsoleEncoder = "console"
	// JSONEncoder writes one JSON object per line.
	JSONEncoder = "json"
)

// where logs go by default.
var logWriter io.Writer = os.Stdout

// Factory creates module loggers sharing one encoder and sink.
type Factory struct {
	encoder zapcore.Encoder
	sink    zapcore.WriteSyncer
}

// NewFactory creates a factory for the given encoder kind. A nil writer
// means standard output.
func NewFactory(encoder string, w io.Writer) (*Factory, error) {
	if w == nil {
		w = logWriter
	}
	var enc zapcore.Encoder
	switch encoder {
	case ConsoleEncoder, "":
		enc = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	case JSONEncoder:
		enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	default:
		return nil, fmt.Errorf("unknown log encoder %q", encoder)
	}
	return &Factory{encoder: enc, sink: zapcore.AddSync(w)}, nil
}

// New returns a logger named after module that logs at level and above.
func (f *Factory) New(module string, level zap.AtomicLevel) *zap.Logger {
	core := zapcore.NewCore(f.encoder.Clone(), f.sink, level)
	return zap.New(core).Named(module)
}

// NewFromString is New with the level parsed from its textual form.
func (f *Factory) NewFromString(module, level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse %s log level: %w", module, err)
	}
	return f.New(module, lvl), nil
}

// WithLevel wraps logger so its level can be changed at runtime through level.
func WithLevel(logger *zap.Logger, level *zap.AtomicLevel) *zap.Logger {
	return logger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return &coreWithLevel{Core: core, lvl: level}
	}))
}

type coreWithLevel struct {
	zapcore.Core
	lvl *zap.AtomicLevel
}

func (c *coreWithLevel) Enabled(level zapcore.Level) bool {
	return c.lvl.Enabled(level)
}

func (c *coreWithLevel) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.lvl.Enabled(e.Level) {
		return ce
	}
	return ce.AddCore(e, c.Core)
}

func (c *coreWithLevel) With(fields []zapcore.Field) zapcore.Core {
	return &coreWithLevel{Core: c.Core.With(fields), lvl: c.lvl}
}

// ZID renders a timeline id as text when it is printable and as hex otherwise.
func ZID(id []byte) zap.Field {
	return zap.String("id", FormatID(id))
}

// FormatID is the textual form used by ZID.
func FormatID(id []byte) string {
	if !utf8.Valid(id) {
		return "0x" + hex.EncodeToString(id)
	}
	for _, r := range string(id) {
		if !unicode.IsPrint(r) {
			return "0x" + hex.EncodeToString(id)
		}
	}
	return string(id)
}
