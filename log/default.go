package log

import (
	"context"
	"io"
	"sync"
	"time"

	F "github.com/sagernet/sing/common/format"
)

var _ Factory = (*simpleFactory)(nil)

type simpleFactory struct {
	formatter Formatter
	writer    io.Writer
	access    sync.Mutex
	level     Level
}

func NewFactory(formatter Formatter, writer io.Writer) Factory {
	return &simpleFactory{
		formatter: formatter,
		writer:    writer,
		level:     LevelTrace,
	}
}

func (f *simpleFactory) SetLevel(level Level) {
	f.level = level
}

func (f *simpleFactory) Logger() ContextLogger {
	return f.NewLogger("")
}

func (f *simpleFactory) NewLogger(tag string) ContextLogger {
	return &simpleLogger{f, tag}
}

func (f *simpleFactory) Close() error {
	return nil
}

var _ ContextLogger = (*simpleLogger)(nil)

type simpleLogger struct {
	*simpleFactory
	tag string
}

func (l *simpleLogger) write(ctx context.Context, level Level, args []any) {
	if level > l.level {
		return
	}
	message := l.formatter.Format(ctx, level, l.tag, F.ToString(args...), time.Now())
	l.access.Lock()
	l.writer.Write([]byte(message))
	l.access.Unlock()
}

func (l *simpleLogger) Info(args ...any) {
	l.write(context.Background(), LevelInfo, args)
}

func (l *simpleLogger) Error(args ...any) {
	l.write(context.Background(), LevelError, args)
}

func (l *simpleLogger) Fatal(args ...any) {
	l.write(context.Background(), LevelFatal, args)
	exit(1)
}

func (l *simpleLogger) TraceContext(ctx context.Context, args ...any) {
	l.write(ctx, LevelTrace, args)
}

func (l *simpleLogger) DebugContext(ctx context.Context, args ...any) {
	l.write(ctx, LevelDebug, args)
}

func (l *simpleLogger) InfoContext(ctx context.Context, args ...any) {
	l.write(ctx, LevelInfo, args)
}

func (l *simpleLogger) WarnContext(ctx context.Context, args ...any) {
	l.write(ctx, LevelWarn, args)
}

func (l *simpleLogger) ErrorContext(ctx context.Context, args ...any) {
	l.write(ctx, LevelError, args)
}
