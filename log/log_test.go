package log

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/losfair/retls/option"

	"github.com/stretchr/testify/require"
)

func TestFormatWithID(t *testing.T) {
	t.Parallel()
	formatter := Formatter{DisableColors: true, DisableTimestamp: true}
	ctx := ContextWithID(context.Background(), ID{ID: 42, CreatedAt: time.Now()})
	message := formatter.Format(ctx, LevelInfo, "inbound", "accepted connection", time.Now())
	require.True(t, strings.HasPrefix(message, "INFO [42 "), message)
	require.True(t, strings.HasSuffix(message, "] inbound: accepted connection\n"), message)
}

func TestLevelFilter(t *testing.T) {
	t.Parallel()
	var buffer bytes.Buffer
	factory, err := New(Options{
		Options:       option.LogOptions{Level: "warn", DisableColor: true},
		DefaultWriter: &buffer,
		BaseTime:      time.Now(),
	})
	require.NoError(t, err)
	logger := factory.NewLogger("router")
	logger.Info("hidden")
	logger.Error("shown")
	require.NotContains(t, buffer.String(), "hidden")
	require.Contains(t, buffer.String(), "ERROR[0000] router: shown")
}

func TestParseLevel(t *testing.T) {
	t.Parallel()
	level, err := ParseLevel("warning")
	require.NoError(t, err)
	require.Equal(t, LevelWarn, level)
	_, err = ParseLevel("verbose")
	require.Error(t, err)
	_, err = New(Options{Options: option.LogOptions{Level: "verbose"}})
	require.Error(t, err)
}

func TestFileOutput(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "retls.log")
	factory, err := New(Options{Options: option.LogOptions{Output: path}})
	require.NoError(t, err)
	factory.Logger().Info("written")
	require.NoError(t, factory.Close())
}

func TestDisabled(t *testing.T) {
	t.Parallel()
	factory, err := New(Options{Options: option.LogOptions{Disabled: true}})
	require.NoError(t, err)
	factory.Logger().Error("dropped")
	require.NoError(t, factory.Close())
}

func TestFatalExits(t *testing.T) {
	var buffer bytes.Buffer
	var code int
	exit = func(status int) { code = status }
	previous := std
	SetStdLogger(NewFactory(Formatter{DisableColors: true, DisableTimestamp: true}, &buffer).Logger())
	defer func() {
		exit = os.Exit
		SetStdLogger(previous)
	}()
	Fatal("bind: address in use")
	require.Equal(t, 1, code)
	require.Equal(t, "FATAL bind: address in use\n", buffer.String())
}

func TestLevelNames(t *testing.T) {
	t.Parallel()
	for _, level := range []Level{LevelFatal, LevelError, LevelWarn, LevelInfo, LevelDebug, LevelTrace} {
		parsed, err := ParseLevel(level.String())
		require.NoError(t, err)
		require.Equal(t, level, parsed)
	}
	level, err := ParseLevel(" Debug ")
	require.NoError(t, err)
	require.Equal(t, LevelDebug, level)
	require.Equal(t, "unknown", Level(42).String())
	_, err = ParseLevel("panic")
	require.Error(t, err)
}

func TestNewIDUnique(t *testing.T) {
	t.Parallel()
	seen := make(map[uint32]bool)
	for range 1000 {
		id, loaded := IDFromContext(ContextWithNewID(context.Background()))
		require.True(t, loaded)
		require.False(t, seen[id.ID])
		seen[id.ID] = true
	}
}
