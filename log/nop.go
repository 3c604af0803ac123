package log

import "context"

var _ Factory = (*nopFactory)(nil)

// nopFactory discards everything. Fatal still exits.
type nopFactory struct{}

func NewNOPFactory() Factory {
	return (*nopFactory)(nil)
}

func (f *nopFactory) SetLevel(level Level) {}

func (f *nopFactory) Logger() ContextLogger {
	return f
}

func (f *nopFactory) NewLogger(tag string) ContextLogger {
	return f
}

func (f *nopFactory) Close() error {
	return nil
}

func (f *nopFactory) Info(args ...any)  {}
func (f *nopFactory) Error(args ...any) {}

func (f *nopFactory) Fatal(args ...any) {
	exit(1)
}

func (f *nopFactory) TraceContext(ctx context.Context, args ...any) {}
func (f *nopFactory) DebugContext(ctx context.Context, args ...any) {}
func (f *nopFactory) InfoContext(ctx context.Context, args ...any)  {}
func (f *nopFactory) WarnContext(ctx context.Context, args ...any)  {}
func (f *nopFactory) ErrorContext(ctx context.Context, args ...any) {}
