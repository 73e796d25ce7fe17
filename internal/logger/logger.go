// Package logger builds the zap loggers used by the binaries.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects the log format and sinks.
type Config struct {
	Debug   bool   // development config, console encoding, debug level
	LogFile string // optional JSON file sink, appended to
}

// New builds a logger writing to stderr and, when LogFile is set, to a JSON file.
// The returned close function releases the file.
func New(cfg Config) (*zap.Logger, func() error, error) {
	config := zap.NewProductionConfig()
	if cfg.Debug {
		config = zap.NewDevelopmentConfig()
	}
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var consoleEncoder zapcore.Encoder
	if cfg.Debug {
		consoleEncoder = zapcore.NewConsoleEncoder(config.EncoderConfig)
	} else {
		consoleEncoder = zapcore.NewJSONEncoder(config.EncoderConfig)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stderr), config.Level),
	}
	closeFn := func() error { return nil }

	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, nil, err
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(config.EncoderConfig), zapcore.AddSync(f), config.Level))
		closeFn = f.Close
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), closeFn, nil
}

// WithComponent tags every entry with a component name.
func WithComponent(l *zap.Logger, component string) *zap.Logger {
	return l.With(zap.String("component", component))
}
