// Package logging adapts zap loggers to the register's Logger interface.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"hr-go/internal/hr"
)

// zapAdapter wraps a sugared zap logger to satisfy hr.Logger.
type zapAdapter struct {
	s *zap.SugaredLogger
}

var _ hr.Logger = (*zapAdapter)(nil)

// NewZapLogger returns an hr.Logger backed by l. A nil l yields a no-op logger.
func NewZapLogger(l *zap.Logger) hr.Logger {
	if l == nil {
		l = zap.NewNop()
	}
	return &zapAdapter{s: l.Sugar()}
}

func (a *zapAdapter) Debug(msg string, args ...any) { a.s.Debugw(msg, args...) }
func (a *zapAdapter) Info(msg string, args ...any)  { a.s.Infow(msg, args...) }
func (a *zapAdapter) Warn(msg string, args ...any)  { a.s.Warnw(msg, args...) }
func (a *zapAdapter) Error(msg string, args ...any) { a.s.Errorw(msg, args...) }

// ParseLevel maps a config level name to a zap level. An empty name means info.
func ParseLevel(name string) (zapcore.Level, error) {
	if strings.TrimSpace(name) == "" {
		return zapcore.InfoLevel, nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(name)))); err != nil {
		return 0, fmt.Errorf("unknown log level %q", name)
	}
	return lvl, nil
}
