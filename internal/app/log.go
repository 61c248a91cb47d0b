package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogFileName is the JSON log written under the configured log directory.
const LogFileName = "hr.log"

// newLogger creates a zap logger that writes JSON lines to logDir/hr.log and a
// human-readable console stream to console. The file receives every level; the console
// only level and above. Every entry carries the operation id.
// It returns the logger, the open log file (for cleanup), and any error.
func newLogger(logDir, opID string, level zapcore.Level, console io.Writer) (*zap.Logger, *os.File, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}

	logPath := filepath.Join(logDir, LogFileName)
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	fileEnc := zap.NewProductionEncoderConfig()
	fileEnc.TimeKey = "ts"
	fileEnc.EncodeTime = zapcore.ISO8601TimeEncoder

	consoleEnc := zap.NewDevelopmentEncoderConfig()
	consoleEnc.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02T15:04:05Z07:00")
	consoleEnc.EncodeCaller = nil
	consoleEnc.CallerKey = ""

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewJSONEncoder(fileEnc), zapcore.AddSync(f), zapcore.DebugLevel),
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEnc), zapcore.AddSync(console), level),
	)
	return zap.New(core).With(zap.String("op", opID)), f, nil
}
