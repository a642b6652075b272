package logger

import (
	"io"
	"os"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	level   = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	prefix  atomic.Pointer[string]
	base    atomic.Pointer[zap.Logger]
	current atomic.Pointer[zap.SugaredLogger]
)

func init() {
	SetLogsPrefix("ols")
	SetLogsOutput(os.Stderr)
}

func newLogger(w io.Writer) *zap.Logger {
	enc := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:        "",
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "msg",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeName:     zapcore.FullNameEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	})
	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), level))
}

// L returns the logger used by the package.
func L() *zap.SugaredLogger {
	return current.Load()
}

// SetLogger replaces the underlying logger, e.g. with the host program's own.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	base.Store(l)
	store()
}

// SetLogsPrefix : すべての種類のログの名前を設定する
func SetLogsPrefix(p string) {
	prefix.Store(&p)
	store()
}

func store() {
	l := base.Load()
	if l == nil {
		return
	}
	current.Store(l.Named(*prefix.Load()).Sugar())
}

// SetLogsOutput : すべての種類のログの出力先を変更する
func SetLogsOutput(w io.Writer) {
	SetLogger(newLogger(w))
}

// SetLevel sets the minimum level of the loggers created by SetLogsOutput.
func SetLevel(l zapcore.Level) {
	level.SetLevel(l)
}

// ParseLevel parses names like "debug" or "warn".
func ParseLevel(s string) (zapcore.Level, error) {
	return zapcore.ParseLevel(s)
}
