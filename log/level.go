package log

import (
	"strings"

	E "github.com/sagernet/sing/common/exceptions"
)

// Level orders severities from most to least severe. A factory set to a
// level writes that level and everything more severe.
type Level uint8

const (
	LevelFatal Level = iota
	LevelError
	LevelWarn
	LevelInfo
	LevelDebug
	LevelTrace
)

var levelNames = [...]string{
	LevelFatal: "fatal",
	LevelError: "error",
	LevelWarn:  "warn",
	LevelInfo:  "info",
	LevelDebug: "debug",
	LevelTrace: "trace",
}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}

func ParseLevel(name string) (Level, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "warning" {
		return LevelWarn, nil
	}
	for level, levelName := range levelNames {
		if name == levelName {
			return Level(level), nil
		}
	}
	return LevelTrace, E.New("unknown log level: ", name)
}
