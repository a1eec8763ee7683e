// Package logging builds the process-wide zap logger.  The logger is created once at startup and handed to
// each component; nothing in the session flow depends on what is logged.
package logging

import (
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the logger returned by New.
type Options struct {
	// Debug lowers the console level from warn to debug
	Debug bool
	// File, when set, additionally receives JSON formatted debug output, rotated by size
	File string
}

// New returns a logger which writes human readable messages to stderr, and to the optional log file.  Every
// entry carries a session field, unique to this invocation.
func New(opts Options) *zap.Logger {
	level := zapcore.WarnLevel
	if opts.Debug {
		level = zapcore.DebugLevel
	}

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEncoderConfig()), zapcore.Lock(os.Stderr), level),
	}

	if opts.File != "" {
		w := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), zapcore.AddSync(w), zapcore.DebugLevel))
	}

	return zap.New(zapcore.NewTee(cores...)).With(zap.String("session", uuid.NewString()))
}

func consoleEncoderConfig() zapcore.EncoderConfig {
	c := zap.NewDevelopmentEncoderConfig()
	c.TimeKey = ""
	c.CallerKey = ""
	c.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return c
}
