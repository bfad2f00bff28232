package zaplogger

import (
	"fmt"
	"strings"

	auth "github.com/gallery-collective/go-gallery-auth"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger adapts a zap SugaredLogger to auth.Logger. Calls may be printf
// style or a message followed by key/value pairs.
type Logger struct {
	sugar *zap.SugaredLogger
}

var _ auth.Logger = (*Logger)(nil)

// New wraps an existing zap logger.
func New(logger *zap.Logger) *Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Logger{sugar: logger.Sugar()}
}

// NewJSON builds a JSON zap logger at level writing to stdout.
func NewJSON(level string) (*Logger, *zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if err := lvl.Set(strings.ToLower(level)); err != nil {
		lvl = zapcore.InfoLevel
	}

	zapCfg := zap.Config{
		Level:    zap.NewAtomicLevelAt(lvl),
		Encoding: "json",
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey: "message",
			LevelKey:   "level",
			TimeKey:    "ts",
			NameKey:    "logger",
			EncodeLevel: func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
				enc.AppendString(l.String())
			},
			EncodeTime: zapcore.ISO8601TimeEncoder,
		},
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	base, err := zapCfg.Build()
	if err != nil {
		return nil, nil, err
	}
	return New(base.Named("gallery")), base, nil
}

func (l *Logger) Debug(format string, args ...any) {
	l.log(zapcore.DebugLevel, format, args)
}

func (l *Logger) Info(format string, args ...any) {
	l.log(zapcore.InfoLevel, format, args)
}

func (l *Logger) Warn(format string, args ...any) {
	l.log(zapcore.WarnLevel, format, args)
}

func (l *Logger) Error(format string, args ...any) {
	l.log(zapcore.ErrorLevel, format, args)
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}

func (l *Logger) log(level zapcore.Level, format string, args []any) {
	if strings.Contains(format, "%") && len(args) > 0 {
		l.sugar.Logf(level, format, args...)
		return
	}
	l.sugar.Logw(level, format, keysAndValues(args)...)
}

// keysAndValues stringifies keys so zap never reports an ignored key.
func keysAndValues(args []any) []any {
	out := make([]any, 0, len(args))
	for i := 0; i < len(args); i += 2 {
		key := fmt.Sprint(args[i])
		if i+1 >= len(args) {
			out = append(out, "extra", args[i])
			break
		}
		out = append(out, key, args[i+1])
	}
	return out
}
