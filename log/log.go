package log

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/losfair/retls/option"
	"github.com/sagernet/sing/common"
	E "github.com/sagernet/sing/common/exceptions"
)

type Factory interface {
	SetLevel(level Level)
	Logger() ContextLogger
	NewLogger(tag string) ContextLogger
	Close() error
}

// Logger is used outside any connection: startup, shutdown and command
// errors. Fatal exits the process after writing.
type Logger interface {
	Info(args ...any)
	Error(args ...any)
	Fatal(args ...any)
}

type ContextLogger interface {
	Logger
	TraceContext(ctx context.Context, args ...any)
	DebugContext(ctx context.Context, args ...any)
	InfoContext(ctx context.Context, args ...any)
	WarnContext(ctx context.Context, args ...any)
	ErrorContext(ctx context.Context, args ...any)
}

type Options struct {
	Options       option.LogOptions
	DefaultWriter io.Writer
	BaseTime      time.Time
}

func New(options Options) (Factory, error) {
	logOptions := options.Options

	if logOptions.Disabled {
		return NewNOPFactory(), nil
	}

	var logFile *os.File
	var logWriter io.Writer

	switch logOptions.Output {
	case "":
		logWriter = options.DefaultWriter
		if logWriter == nil {
			logWriter = os.Stderr
		}
	case "stderr":
		logWriter = os.Stderr
	case "stdout":
		logWriter = os.Stdout
	default:
		var err error
		logFile, err = os.OpenFile(logOptions.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, E.Cause(err, "open log output")
		}
		logWriter = logFile
	}
	logFormatter := Formatter{
		BaseTime:         options.BaseTime,
		DisableColors:    logOptions.DisableColor || logFile != nil,
		DisableTimestamp: !logOptions.Timestamp && logFile != nil,
		FullTimestamp:    logOptions.Timestamp,
		TimestampFormat:  "-0700 2006-01-02 15:04:05",
	}
	factory := NewFactory(logFormatter, logWriter)
	if logOptions.Level != "" {
		logLevel, err := ParseLevel(logOptions.Level)
		if err != nil {
			if logFile != nil {
				logFile.Close()
			}
			return nil, E.Cause(err, "parse log level")
		}
		factory.SetLevel(logLevel)
	} else {
		factory.SetLevel(LevelInfo)
	}
	if logFile != nil {
		factory = &factoryWithFile{
			Factory: factory,
			file:    logFile,
		}
	}
	return factory, nil
}

type factoryWithFile struct {
	Factory
	file *os.File
}

func (f *factoryWithFile) Close() error {
	return common.Close(
		f.Factory,
		f.file,
	)
}
