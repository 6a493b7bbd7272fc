package logger

import (
	"context"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// TraceIdKey is the context key extractTrace reads a trace_id string from.
// Nothing in this repo stores a value under it; pkg/trace does not.
const TraceIdKey = "trace_id"

// Log is the package-wide logger. Set by Init/InitWithFile; nil until then.
var Log *zap.Logger

// Init initializes the logger for serviceName (e.g. "clobd") at the given
// level (debug, info, warn, error).
func Init(serviceName string, level string) {
	InitWithFile(serviceName, level, "")
}

// InitWithFile is Init with an explicit log file path. An empty logFile
// falls back to logs/{serviceName}.log.
func InitWithFile(serviceName string, level string, logFile string) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zap.InfoLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderConfig.MessageKey = "msg"

	writeSyncers := []zapcore.WriteSyncer{
		zapcore.AddSync(os.Stdout),
	}

	if logFile == "" {
		logFile = filepath.Join("logs", serviceName+".log")
	}

	logDir := filepath.Dir(logFile)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		_ = err // fall back to stdout-only logging
	} else {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err == nil {
			writeSyncers = append(writeSyncers, zapcore.AddSync(file))
		}
	}

	multiWriter := zapcore.NewMultiWriteSyncer(writeSyncers...)

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig), // JSON for log aggregation
		multiWriter,
		zapLevel,
	)

	// AddCallerSkip(1): callers go through Info/Error/etc below, so skip
	// one frame or the file:line always points at this package.
	Log = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))

	Log = Log.With(zap.String("service", serviceName))
}

// Info logs at info level, attaching trace_id from ctx when present.
func Info(ctx context.Context, msg string, fields ...zap.Field) {
	extractTrace(ctx, &fields)
	Log.Info(msg, fields...)
}

// Error logs at error level, attaching trace_id from ctx when present.
func Error(ctx context.Context, msg string, fields ...zap.Field) {
	extractTrace(ctx, &fields)
	Log.Error(msg, fields...)
}

// Warn logs at warn level, attaching trace_id from ctx when present.
func Warn(ctx context.Context, msg string, fields ...zap.Field) {
	extractTrace(ctx, &fields)
	Log.Warn(msg, fields...)
}

// Debug logs at debug level, attaching trace_id from ctx when present.
func Debug(ctx context.Context, msg string, fields ...zap.Field) {
	extractTrace(ctx, &fields)
	Log.Debug(msg, fields...)
}

// Fatal logs at fatal level (calls os.Exit) attaching trace_id from ctx.
func Fatal(ctx context.Context, msg string, fields ...zap.Field) {
	extractTrace(ctx, &fields)
	Log.Fatal(msg, fields...)
}

func extractTrace(ctx context.Context, fields *[]zap.Field) {
	if ctx == nil {
		return
	}
	if traceID, ok := ctx.Value(TraceIdKey).(string); ok && traceID != "" {
		*fields = append(*fields, zap.String("trace_id", traceID))
	}
}

// Sync flushes any buffered log entries. Call in a defer from main.
func Sync() {
	if Log != nil {
		_ = Log.Sync()
	}
}
