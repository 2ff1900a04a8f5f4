package logger

import (
	"time"

	"github.com/suchimauz/appointment-availability-engine/internal/core/ports/out"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger реализует LoggerPort поверх zap: событие пишется сообщением,
// модуль и поля — структурированными полями
type ZapLogger struct {
	base          *zap.Logger
	defaultFields out.LogFields
	module        string
}

// NewZapLogger: локально читаемый консольный вывод с DEBUG, в остальных окружениях JSON с INFO
func NewZapLogger(timezone string, local bool) (*ZapLogger, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}

	cfg := zap.NewProductionConfig()
	if local {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.In(loc).Format("2006-01-02 15:04:05.000"))
	}
	cfg.DisableStacktrace = true

	base, err := cfg.Build(zap.AddCallerSkip(2))
	if err != nil {
		return nil, err
	}

	return NewZapLoggerFrom(base), nil
}

// NewZapLoggerFrom оборачивает готовый zap.Logger, в тестах — zap.NewNop() или zaptest/observer
func NewZapLoggerFrom(base *zap.Logger) *ZapLogger {
	return &ZapLogger{
		base:          base,
		defaultFields: make(out.LogFields),
	}
}

func (l *ZapLogger) WithFields(fields out.LogFields) out.LoggerPort {
	newLogger := &ZapLogger{
		base:          l.base,
		defaultFields: make(out.LogFields, len(l.defaultFields)+len(fields)),
		module:        l.module,
	}

	for k, v := range l.defaultFields {
		newLogger.defaultFields[k] = v
	}
	for k, v := range fields {
		newLogger.defaultFields[k] = v
	}

	return newLogger
}

func (l *ZapLogger) WithModule(module string) out.LoggerPort {
	return &ZapLogger{
		base:          l.base,
		defaultFields: l.defaultFields,
		module:        module,
	}
}

func (l *ZapLogger) Debug(event string, fields out.LogFields) {
	l.log(out.LogLevelDebug, event, fields)
}

func (l *ZapLogger) Info(event string, fields out.LogFields) {
	l.log(out.LogLevelInfo, event, fields)
}

func (l *ZapLogger) Warn(event string, fields out.LogFields) {
	l.log(out.LogLevelWarn, event, fields)
}

func (l *ZapLogger) Error(event string, fields out.LogFields) {
	l.log(out.LogLevelError, event, fields)
}

func (l *ZapLogger) Sync() error {
	return l.base.Sync()
}

func (l *ZapLogger) log(level out.LogLevel, event string, fields out.LogFields) {
	module := l.module
	if module == "" {
		module = "unknown"
	}

	zapFields := make([]zap.Field, 0, len(l.defaultFields)+len(fields)+1)
	zapFields = append(zapFields, zap.String("module", module))
	for k, v := range l.defaultFields {
		if _, overridden := fields[k]; overridden {
			continue
		}
		zapFields = append(zapFields, zap.Any(k, v))
	}
	for k, v := range fields {
		zapFields = append(zapFields, zap.Any(k, v))
	}

	switch level {
	case out.LogLevelDebug:
		l.base.Debug(event, zapFields...)
	case out.LogLevelInfo:
		l.base.Info(event, zapFields...)
	case out.LogLevelWarn:
		l.base.Warn(event, zapFields...)
	case out.LogLevelError:
		l.base.Error(event, zapFields...)
	}
}

// NewNopLogger ничего не пишет, для тестов
func NewNopLogger() *ZapLogger {
	return NewZapLoggerFrom(zap.NewNop())
}
