package logger

import (
	"strings"

	"github.com/pkg/errors"
)

// Level is the severity threshold of a Logger or of a log writer. Entries
// below the threshold are dropped.
type Level uint32

// Level constants, from the most verbose.
const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelCritical
	LevelOff
)

// levelNames holds the tag printed in every log line and the long name
// accepted by --loglevel.
var levelNames = [...]struct {
	tag  string
	name string
}{
	LevelTrace:    {"TRC", "trace"},
	LevelDebug:    {"DBG", "debug"},
	LevelInfo:     {"INF", "info"},
	LevelWarn:     {"WRN", "warn"},
	LevelError:    {"ERR", "error"},
	LevelCritical: {"CRT", "critical"},
	LevelOff:      {"OFF", "off"},
}

// ErrUnknownLevel is returned by ParseLevel for a string that names no level.
var ErrUnknownLevel = errors.New("unknown log level")

// ParseLevel accepts a level's long name or its tag, in any case. On failure
// it returns LevelInfo along with the error.
func ParseLevel(s string) (Level, error) {
	lowered := strings.ToLower(strings.TrimSpace(s))
	for level, names := range levelNames {
		if lowered == names.name || lowered == strings.ToLower(names.tag) {
			return Level(level), nil
		}
	}
	return LevelInfo, errors.Wrapf(ErrUnknownLevel, "[%s] is not one of %s", s, strings.Join(LevelNames(), ", "))
}

// LevelNames returns the long names of all levels, from the most verbose.
func LevelNames() []string {
	names := make([]string, len(levelNames))
	for i, level := range levelNames {
		names[i] = level.name
	}
	return names
}

// String returns the tag written in log lines for l. Anything at or above
// LevelOff is "OFF".
func (l Level) String() string {
	if l >= LevelOff {
		return levelNames[LevelOff].tag
	}
	return levelNames[l].tag
}
