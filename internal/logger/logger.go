// Package logger builds the service's kratos logger on top of zap, with
// optional file rotation through lumberjack.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"xinyuan_tech/purchase-service/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var _ log.Logger = (*Logger)(nil)

// Logger adapts a zap logger to kratos log.Logger.
type Logger struct {
	zl *zap.Logger
}

// NewLogger builds a Logger from the log section of the config.
// Output is "stdout", "file" or "both"; format is "json" or "console".
func NewLogger(c *conf.Log) (*Logger, func(), error) {
	if c == nil {
		c = &conf.Log{}
	}

	level := zapcore.InfoLevel
	if c.Level != "" {
		if err := level.UnmarshalText([]byte(strings.ToLower(c.Level))); err != nil {
			return nil, nil, fmt.Errorf("log.level: %w", err)
		}
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "" // kratos adds ts itself
	encCfg.EncodeLevel = zapcore.LowercaseLevelEncoder
	var enc zapcore.Encoder
	switch c.Format {
	case "", "json":
		enc = zapcore.NewJSONEncoder(encCfg)
	case "console", "text":
		enc = zapcore.NewConsoleEncoder(encCfg)
	default:
		return nil, nil, fmt.Errorf("log.format %q is not supported", c.Format)
	}

	var (
		writers []io.Writer
		rotator *lumberjack.Logger
	)
	switch c.Output {
	case "", "stdout":
		writers = append(writers, os.Stdout)
	case "file", "both":
		if c.FilePath == "" {
			return nil, nil, fmt.Errorf("log.file_path is required for output %q", c.Output)
		}
		rotator = &lumberjack.Logger{
			Filename:   c.FilePath,
			MaxSize:    c.MaxSize,
			MaxAge:     c.MaxAge,
			MaxBackups: c.MaxBackups,
			Compress:   c.Compress,
		}
		writers = append(writers, rotator)
		if c.Output == "both" {
			writers = append(writers, os.Stdout)
		}
	default:
		return nil, nil, fmt.Errorf("log.output %q is not supported", c.Output)
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(io.MultiWriter(writers...)), level)
	l := &Logger{zl: zap.New(core)}
	cleanup := func() {
		_ = l.zl.Sync()
		if rotator != nil {
			_ = rotator.Close()
		}
	}
	return l, cleanup, nil
}

// NewWithCore wraps an existing zap core, mainly for tests.
func NewWithCore(core zapcore.Core) *Logger {
	return &Logger{zl: zap.New(core)}
}

// Log implements log.Logger.
func (l *Logger) Log(level log.Level, keyvals ...interface{}) error {
	if len(keyvals) == 0 {
		return nil
	}
	if len(keyvals)%2 != 0 {
		keyvals = append(keyvals, "KEYVALS UNPAIRED")
	}

	var (
		msg    string
		fields = make([]zap.Field, 0, len(keyvals)/2)
	)
	for i := 0; i < len(keyvals); i += 2 {
		key := fmt.Sprint(keyvals[i])
		if key == log.DefaultMessageKey {
			msg = fmt.Sprint(keyvals[i+1])
			continue
		}
		fields = append(fields, zap.Any(key, keyvals[i+1]))
	}

	switch level {
	case log.LevelDebug:
		l.zl.Debug(msg, fields...)
	case log.LevelWarn:
		l.zl.Warn(msg, fields...)
	case log.LevelError:
		l.zl.Error(msg, fields...)
	case log.LevelFatal:
		// kratos decides whether to exit; never os.Exit here
		l.zl.Error(msg, fields...)
	default:
		l.zl.Info(msg, fields...)
	}
	return nil
}
