package logging

import (
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/janisto/idcard-onboarding/internal/platform/timeutil"
)

// Cloud Logging severities keyed by zap level. Levels outside the table
// are written as DEFAULT.
var severities = map[zapcore.Level]string{
	zapcore.DebugLevel:  "DEBUG",
	zapcore.InfoLevel:   "INFO",
	zapcore.WarnLevel:   "WARNING",
	zapcore.ErrorLevel:  "ERROR",
	zapcore.DPanicLevel: "CRITICAL",
	zapcore.PanicLevel:  "ALERT",
	zapcore.FatalLevel:  "EMERGENCY",
}

// level is shared by every logger built here so SetLevel applies after
// the process logger already exists.
var level = zap.NewAtomicLevelAt(zapcore.InfoLevel)

var global struct {
	once   sync.Once
	logger *zap.Logger
	sugar  *zap.SugaredLogger
	err    error
}

func encodeSeverity(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	s, ok := severities[l]
	if !ok {
		s = "DEFAULT"
	}
	enc.AppendString(s)
}

// encodeTimeMicros writes UTC RFC 3339 with fixed microsecond precision.
func encodeTimeMicros(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.UTC().Format(timeutil.RFC3339Micros))
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "severity",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    encodeSeverity,
		EncodeTime:     encodeTimeMicros,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// NewLogger builds a JSON logger for Cloud Logging that writes to out and
// follows the level set with SetLevel.
func NewLogger(out zapcore.WriteSyncer) *zap.Logger {
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), out, level)
	return zap.New(core,
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.ErrorOutput(out),
	)
}

func buildGlobal() {
	out, _, err := zap.Open("stdout")
	if err != nil {
		global.logger, global.err = zap.NewNop(), err
	} else {
		global.logger = NewLogger(out)
	}
	global.sugar = global.logger.Sugar()
}

// SetLevel changes the minimum level by name ("debug", "info", "warn", ...).
func SetLevel(name string) error {
	l, err := zapcore.ParseLevel(name)
	if err != nil {
		return err
	}
	level.SetLevel(l)
	return nil
}

// Logger returns the process logger, writing JSON to stdout.
func Logger() *zap.Logger {
	global.once.Do(buildGlobal)
	return global.logger
}

// Sugar returns a sugared view of Logger.
func Sugar() *zap.SugaredLogger {
	global.once.Do(buildGlobal)
	return global.sugar
}

// Sync flushes buffered entries. Stdout that cannot be synced (a pipe or
// terminal) is not reported as a failure.
func Sync() error {
	err := Logger().Sync()
	if err != nil && stdoutUnsyncable() {
		return nil
	}
	return err
}

// Err reports whether the process logger fell back to a no-op logger.
func Err() error {
	global.once.Do(buildGlobal)
	return global.err
}

func stdoutUnsyncable() bool {
	fi, statErr := os.Stdout.Stat()
	if statErr != nil {
		return false
	}
	return fi.Mode()&(os.ModeCharDevice|os.ModeNamedPipe) != 0
}
