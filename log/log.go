// Package log builds the zap loggers used by every component.
package log

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// ConsoleEncoder writes plain text lines.
	ConsoleEncoder = "console"
	// JSONEncoder writes one json object per line.
	JSONEncoder = "json"
)

// where logs go by default.
var logWriter io.Writer = os.Stdout

// New creates a root logger. Components override its level with WithLevel.
func New(encoder string, level zap.AtomicLevel) (*zap.Logger, error) {
	return NewWithWriter(logWriter, encoder, level)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, encoder string, level zap.AtomicLevel) (*zap.Logger, error) {
	var enc zapcore.Encoder
	switch encoder {
	case ConsoleEncoder, "":
		enc = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	case JSONEncoder:
		enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	default:
		return nil, fmt.Errorf("unknown log encoder %q", encoder)
	}
	core := zapcore.NewCore(enc, zapcore.AddSync(w), zap.LevelEnablerFunc(func(zapcore.Level) bool {
		return true
	}))
	return zap.New(core, addDynamicLevel(&level)), nil
}

// WithLevel returns a named child logger filtered by its own level.
func WithLevel(logger *zap.Logger, name, level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse level of %s: %w", name, err)
	}
	return logger.Named(name).WithOptions(addDynamicLevel(&lvl)), nil
}

func addDynamicLevel(level *zap.AtomicLevel) zap.Option {
	return zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return &coreWithLevel{
			Core: core,
			lvl:  level,
		}
	})
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
