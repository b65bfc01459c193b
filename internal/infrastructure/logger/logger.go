package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"runtime"
	"strings"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type ctxKey struct{}

// Fields псевдоним для полей logrus
type Fields = logrus.Fields

// Options настройки логгера
type Options struct {
	Level   string // debug, info, warn, error
	File    string // путь к файлу с ротацией, пусто: только stderr
	NoColor bool
	Output  io.Writer // по умолчанию os.Stderr
}

// New создаёт logrus-логгер с вложенным форматтером и опциональной ротацией файла.
func New(opts Options) (*logrus.Logger, error) {
	log := logrus.New()

	level := logrus.InfoLevel
	if opts.Level != "" {
		parsed, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		level = parsed
	}
	log.SetLevel(level)

	log.SetFormatter(&formatter.Formatter{
		NoColors:        opts.NoColor,
		TimestampFormat: "02 Jan 06 - 15:04:05",
		HideKeys:        false,
		CallerFirst:     true,
		CustomCallerFormatter: func(f *runtime.Frame) string {
			s := strings.Split(f.Function, ".")
			funcName := s[len(s)-1]
			return fmt.Sprintf(" [%s:%d][%s()]", path.Base(f.File), f.Line, funcName)
		},
	})

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	writers := []io.Writer{out}

	if opts.File != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   opts.File,
			LocalTime:  true,
			Compress:   true,
			MaxSize:    100,
			MaxAge:     7,
			MaxBackups: 3,
		})
	}

	log.SetOutput(io.MultiWriter(writers...))
	log.SetReportCaller(true)

	return log, nil
}

// Discard логгер для тестов
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// WithRequestID кладёт идентификатор запроса в контекст
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, requestID)
}

// RequestID достаёт идентификатор запроса из контекста
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return "unknown"
	}
	if id, ok := ctx.Value(ctxKey{}).(string); ok && id != "" {
		return id
	}
	return "unknown"
}

// FromContext возвращает запись лога с полем request_id
func FromContext(ctx context.Context, log *logrus.Logger) *logrus.Entry {
	return log.WithField("request_id", RequestID(ctx))
}

// ErrorWithTraceID пишет ошибку с trace_id и возвращает его, чтобы показать клиенту вместо деталей.
func ErrorWithTraceID(ctx context.Context, log *logrus.Logger, fields Fields, msg string) string {
	traceID := RequestID(ctx)
	if traceID == "unknown" {
		id, err := uuid.NewRandom()
		if err != nil {
			traceID = "unknown"
		} else {
			traceID = id.String()
		}
	}

	if fields == nil {
		fields = Fields{}
	}
	fields["trace_id"] = traceID
	FromContext(ctx, log).WithFields(fields).Error(msg)

	return traceID
}
