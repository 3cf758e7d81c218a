package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Multi returns a logger that writes every entry to all of loggers, each
// filtered by its own level. Used by the chat command to mirror debug output
// into a file while the terminal stays quiet.
func Multi(loggers ...*zap.Logger) *zap.Logger {
	cores := make([]zapcore.Core, 0, len(loggers))
	for _, l := range loggers {
		cores = append(cores, l.Core())
	}
	return zap.New(zapcore.NewTee(cores...))
}
