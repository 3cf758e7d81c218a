// Package logger provides opinionated logging for the igw library and CLI.
package logger

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a zap logger from the given options. With no options it writes
// human-readable console output at info level to stdout.
func New(opts ...Option) *zap.Logger {
	c := &config{level: zap.InfoLevel}
	for _, opt := range opts {
		opt(c)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if c.json {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		if !c.color {
			encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		}
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	writers := c.writers
	if len(writers) == 0 {
		writers = []io.Writer{os.Stdout}
	}

	syncers := make([]zapcore.WriteSyncer, 0, len(writers))
	for _, writer := range writers {
		syncers = append(syncers, zapcore.AddSync(writer))
	}

	core := zapcore.NewCore(encoder, zapcore.NewMultiWriteSyncer(syncers...), c.level)

	zopts := []zap.Option{}
	if c.caller {
		zopts = append(zopts, zap.AddCaller())
	}
	return zap.New(core, zopts...)
}

// NewLogger returns a colorized console logger on stderr. Debug output is
// enabled when debug is true.
func NewLogger(debug bool) *zap.Logger {
	return NewLoggerWithWriters(debug, os.Stderr)
}

// NewLoggerWithWriters is NewLogger writing to each of writers.
func NewLoggerWithWriters(debug bool, writers ...io.Writer) *zap.Logger {
	return New(
		WithDebug(debug),
		WithWriters(writers...),
		WithColor(true),
		WithCaller(true),
	)
}

// Nop returns a logger that discards everything. Library packages use it
// when the caller does not supply a logger.
func Nop() *zap.Logger {
	return zap.NewNop()
}
