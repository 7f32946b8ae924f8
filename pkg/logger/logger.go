package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"derivative-service/pkg/config"
)

// Logger 日志服务，封装 logrus
type Logger struct {
	log    *logrus.Logger
	closer io.Closer
}

var (
	globalMu     sync.RWMutex
	globalLogger *Logger
)

// NewLogger 根据配置创建日志服务
func NewLogger(cfg *config.Config) *Logger {
	l := logrus.New()
	lc := config.LogConfig{}
	if cfg != nil {
		lc = cfg.Log
	}

	level, err := logrus.ParseLevel(strings.TrimSpace(lc.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if strings.EqualFold(lc.Format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02 15:04:05.000"})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05.000"})
	}

	out := &Logger{log: l}
	switch strings.ToLower(lc.Output) {
	case "file":
		if lc.Filename == "" {
			l.SetOutput(os.Stdout)
			break
		}
		f, err := os.OpenFile(lc.Filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[LOGGER] open log file %s failed: %v, fallback to stdout\n", lc.Filename, err)
			l.SetOutput(os.Stdout)
			break
		}
		l.SetOutput(f)
		out.closer = f
	case "stderr":
		l.SetOutput(os.Stderr)
	default:
		l.SetOutput(os.Stdout)
	}
	return out
}

// NewNop 丢弃所有输出，测试用
func NewNop() *Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &Logger{log: l}
}

// NewWithWriter 输出到指定 writer，测试断言日志内容时使用
func NewWithWriter(w io.Writer) *Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrus.DebugLevel)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true, DisableColors: true})
	return &Logger{log: l}
}

// SetGlobalLogger 设置全局日志器
func SetGlobalLogger(l *Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = l
}

// GetGlobalLogger 返回全局日志器，未设置时返回标准输出日志器
func GetGlobalLogger() *Logger {
	globalMu.RLock()
	l := globalLogger
	globalMu.RUnlock()
	if l != nil {
		return l
	}
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger == nil {
		globalLogger = NewLogger(nil)
	}
	return globalLogger
}

// Close 关闭日志文件
func (l *Logger) Close() {
	if l != nil && l.closer != nil {
		_ = l.closer.Close()
	}
}

// WithFields returns a logrus entry carrying the given fields.
func (l *Logger) WithFields(fields map[string]interface{}) *logrus.Entry {
	return l.log.WithFields(logrus.Fields(fields))
}

func (l *Logger) entry(fields []map[string]interface{}) *logrus.Entry {
	e := logrus.NewEntry(l.log)
	for _, f := range fields {
		e = e.WithFields(logrus.Fields(f))
	}
	return e
}

func (l *Logger) Debug(msg string, fields ...map[string]interface{}) { l.entry(fields).Debug(msg) }
func (l *Logger) Info(msg string, fields ...map[string]interface{})  { l.entry(fields).Info(msg) }
func (l *Logger) Warn(msg string, fields ...map[string]interface{})  { l.entry(fields).Warn(msg) }
func (l *Logger) Error(msg string, fields ...map[string]interface{}) { l.entry(fields).Error(msg) }
func (l *Logger) Fatal(msg string, fields ...map[string]interface{}) { l.entry(fields).Fatal(msg) }

func (l *Logger) Debugf(format string, args ...interface{}) { l.log.Debugf(format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.log.Infof(format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.log.Warnf(format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.log.Errorf(format, args...) }

// 包级快捷方法，使用全局日志器

func Debug(msg string, fields ...map[string]interface{}) { GetGlobalLogger().Debug(msg, fields...) }
func Info(msg string, fields ...map[string]interface{})  { GetGlobalLogger().Info(msg, fields...) }
func Warn(msg string, fields ...map[string]interface{})  { GetGlobalLogger().Warn(msg, fields...) }
func Error(msg string, fields ...map[string]interface{}) { GetGlobalLogger().Error(msg, fields...) }
func Fatal(msg string, fields ...map[string]interface{}) { GetGlobalLogger().Fatal(msg, fields...) }

func Debugf(format string, args ...interface{}) { GetGlobalLogger().Debugf(format, args...) }
func Infof(format string, args ...interface{})  { GetGlobalLogger().Infof(format, args...) }
func Warnf(format string, args ...interface{})  { GetGlobalLogger().Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { GetGlobalLogger().Errorf(format, args...) }
