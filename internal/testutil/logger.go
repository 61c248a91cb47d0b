package testutil

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"hr-go/internal/hr"
	"hr-go/internal/logging"
)

// NewObservedLogger returns a debug-level hr.Logger whose entries are captured for assertions.
func NewObservedLogger() (hr.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return logging.NewZapLogger(zap.New(core)), logs
}
