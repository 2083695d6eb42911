package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const defaultLogDir = "logs"

type options struct {
	dir          string
	consoleLevel zapcore.Level
	console      zapcore.WriteSyncer
}

// Option customises InitLogger
type Option func(*options)

// WithLogDir writes the JSON log file under dir instead of ./logs
func WithLogDir(dir string) Option {
	return func(o *options) { o.dir = dir }
}

// WithConsoleLevel changes the minimum level printed to the console (Info by default)
func WithConsoleLevel(level zapcore.Level) Option {
	return func(o *options) { o.consoleLevel = level }
}

// WithConsole replaces stdout as the console destination
func WithConsole(w zapcore.WriteSyncer) Option {
	return func(o *options) { o.console = w }
}

// InitLogger builds a logger that prints human-readable lines to the console
// and writes every Debug-and-above entry as JSON to <dir>/<env>_<timestamp>.log
func InitLogger(env string, opts ...Option) (*zap.Logger, error) {
	o := options{
		dir:          defaultLogDir,
		consoleLevel: zapcore.InfoLevel,
		console:      zapcore.AddSync(os.Stdout),
	}
	for _, opt := range opts {
		opt(&o)
	}

	if err := os.MkdirAll(o.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	name := fmt.Sprintf("%s_%s.log", env, time.Now().Format("2006-01-02_15-04-05"))
	logFile, err := os.OpenFile(filepath.Join(o.dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	consoleConfig := zap.NewDevelopmentEncoderConfig()
	consoleConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	consoleConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	fileConfig := zap.NewProductionEncoderConfig()
	fileConfig.TimeKey = "timestamp"
	fileConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleConfig), o.console, o.consoleLevel),
		zapcore.NewCore(zapcore.NewJSONEncoder(fileConfig), zapcore.AddSync(logFile), zapcore.DebugLevel),
	)

	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)).With(zap.String("env", env)), nil
}
