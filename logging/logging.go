// Package logging provides the thin structured-logger wrapper every
// component in this module shares, built on zap in the same idiom as the
// teacher's logging package (Named sub-loggers, leveled structured calls).
package logging

import (
	"go.uber.org/zap"
)

// Logger is the structured logger interface passed into every component
// constructor. It intentionally exposes only the *w (structured key/value)
// calls, matching how the rest of this module logs.
type Logger interface {
	Debugw(msg string, keysAndValues ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
	Named(name string) Logger
}

type zapLogger struct {
	sugar *zap.SugaredLogger
}

// New returns a production-configured Logger named root.
func New(name string) Logger {
	base, err := zap.NewProduction()
	if err != nil {
		base = zap.NewNop()
	}
	return &zapLogger{sugar: base.Sugar().Named(name)}
}

// NewTest returns a Logger suitable for use from test files: it never
// panics on construction failure and writes to the test's default output.
func NewTest(name string) Logger {
	base, err := zap.NewDevelopment()
	if err != nil {
		base = zap.NewNop()
	}
	return &zapLogger{sugar: base.Sugar().Named(name)}
}

func (l *zapLogger) Debugw(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l *zapLogger) Infow(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

func (l *zapLogger) Warnw(msg string, keysAndValues ...interface{}) {
	l.sugar.Warnw(msg, keysAndValues...)
}

func (l *zapLogger) Errorw(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}

func (l *zapLogger) Named(name string) Logger {
	return &zapLogger{sugar: l.sugar.Named(name)}
}
