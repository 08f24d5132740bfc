package mock

import (
	"fmt"
	"strings"
	"sync"
)

// Logger records log lines as "[level]: message".
type Logger struct {
	mu    sync.Mutex
	lines []string
}

func (l *Logger) log(level, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprintf("[%s]: %s", level, fmt.Sprintf(format, args...)))
}

func (l *Logger) Debugf(format string, args ...any) { l.log("debug", format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.log("info", format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.log("warn", format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.log("error", format, args...) }

// Lines returns the recorded lines of a level, all lines for "".
func (l *Logger) Lines(level string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []string
	prefix := "[" + level + "]: "
	for _, line := range l.lines {
		if level == "" || strings.HasPrefix(line, prefix) {
			out = append(out, line)
		}
	}
	return out
}
