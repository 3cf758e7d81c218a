package logger

import (
	"io"

	"go.uber.org/zap/zapcore"
)

type config struct {
	level   zapcore.Level
	json    bool
	color   bool
	caller  bool
	writers []io.Writer
}

// Option configures a logger created with New.
type Option func(*config)

// WithDebug sets the log level to Debug when true, Info otherwise.
func WithDebug(debug bool) Option {
	return func(c *config) {
		if debug {
			c.level = zapcore.DebugLevel
		} else {
			c.level = zapcore.InfoLevel
		}
	}
}

// WithJSON switches to zap's JSON encoder.
func WithJSON(json bool) Option {
	return func(c *config) {
		c.json = json
	}
}

// WithColor colorizes the level in console output.
func WithColor(color bool) Option {
	return func(c *config) {
		c.color = color
	}
}

// WithCaller includes the calling file:line in log output.
func WithCaller(caller bool) Option {
	return func(c *config) {
		c.caller = caller
	}
}

// WithWriter overrides the output writer. Defaults to os.Stdout.
func WithWriter(w io.Writer) Option {
	return func(c *config) {
		c.writers = []io.Writer{w}
	}
}

// WithWriters sets multiple output writers.
func WithWriters(w ...io.Writer) Option {
	return func(c *config) {
		c.writers = w
	}
}
