package logger

import (
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const timeLayout = "06-01-02 15:04:05"

type sink struct {
	writer  zapcore.WriteSyncer
	colored bool
}

// globalLogger is the process default. Pipeline components take an injected
// *zap.SugaredLogger and only fall back to L() when none is given.
type globalLogger struct {
	mu    sync.RWMutex
	level zap.AtomicLevel
	sinks []sink
	sugar *zap.SugaredLogger
}

var global *globalLogger

func init() {
	global = &globalLogger{level: zap.NewAtomicLevelAt(zapcore.InfoLevel)}
	global.sinks = []sink{{writer: zapcore.Lock(os.Stdout), colored: true}}
	global.rebuild()
}

func encoderConfig(colored bool) zapcore.EncoderConfig {
	level := zapcore.CapitalLevelEncoder
	if colored {
		level = zapcore.CapitalColorLevelEncoder
	}
	return zapcore.EncoderConfig{
		TimeKey:          "ts",
		LevelKey:         "level",
		NameKey:          "logger",
		MessageKey:       "msg",
		StacktraceKey:    "stacktrace",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       zapcore.TimeEncoderOfLayout(timeLayout),
		EncodeLevel:      level,
		EncodeDuration:   zapcore.StringDurationEncoder,
		EncodeName:       zapcore.FullNameEncoder,
		ConsoleSeparator: " ",
	}
}

func newCore(s sink, level zapcore.LevelEnabler) zapcore.Core {
	return zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig(s.colored)), s.writer, level)
}

// rebuild must be called with mu held (or before the logger is shared).
func (g *globalLogger) rebuild() {
	cores := make([]zapcore.Core, 0, len(g.sinks))
	for _, s := range g.sinks {
		cores = append(cores, newCore(s, g.level))
	}
	g.sugar = zap.New(zapcore.NewTee(cores...)).Sugar()
}

// Nop returns a logger that discards everything.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

func SetVerbose(verbose bool) {
	if verbose {
		global.level.SetLevel(zapcore.DebugLevel)
		return
	}
	global.level.SetLevel(zapcore.InfoLevel)
}

// AddWriterForAll tees every level to writer in addition to the existing sinks.
func AddWriterForAll(writer io.Writer) {
	global.mu.Lock()
	defer global.mu.Unlock()
	global.sinks = append(global.sinks, sink{writer: zapcore.AddSync(writer)})
	global.rebuild()
}

// L returns the process default logger.
func L() *zap.SugaredLogger {
	global.mu.RLock()
	defer global.mu.RUnlock()
	return global.sugar
}

// Named returns the default logger scoped to a component.
func Named(component string) *zap.SugaredLogger {
	return L().Named(component)
}

// OrDefault returns log, or the default logger when log is nil.
func OrDefault(log *zap.SugaredLogger, component string) *zap.SugaredLogger {
	if log != nil {
		return log
	}
	return Named(component)
}

func Sync() {
	_ = L().Sync()
}

func Debug(format string, args ...interface{}) {
	L().Debugf(format, args...)
}

func Info(format string, args ...interface{}) {
	L().Infof(format, args...)
}

func Warn(format string, args ...interface{}) {
	L().Warnf(format, args...)
}

func Error(format string, args ...interface{}) {
	L().Errorf(format, args...)
}
