package plugin

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/neovim/go-client/nvim"

	"github.com/kndndrj/dbeelink/core"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseLevel parses a level name. An empty name is info.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level: %q", s)
	}
}

type LoggerOption func(*Logger)

// WithLogFile logs to path instead of the editor's cache directory.
func WithLogFile(path string) LoggerOption {
	return func(l *Logger) {
		l.path = path
	}
}

func WithLevel(level Level) LoggerOption {
	return func(l *Logger) {
		l.level = level
	}
}

// WithOutput logs to w and never opens a file.
func WithOutput(w io.Writer) LoggerOption {
	return func(l *Logger) {
		l.logger.SetOutput(w)
		l.triedFileSet = true
	}
}

var _ core.Logger = (*Logger)(nil)

// Logger writes leveled log lines. The log file is opened on the first
// line, in the editor's cache directory unless a path is given.
type Logger struct {
	vim   *nvim.Nvim
	path  string
	level Level

	mu           sync.Mutex
	logger       *log.Logger
	file         *os.File
	triedFileSet bool
}

func NewLogger(vim *nvim.Nvim, opts ...LoggerOption) *Logger {
	l := &Logger{
		vim:    vim,
		level:  LevelInfo,
		logger: log.New(os.Stderr, "", log.Ldate|log.Ltime),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Logger) logPath() (string, error) {
	if l.path != "" {
		return l.path, nil
	}
	if l.vim == nil {
		return "", fmt.Errorf("no log file and no editor to ask for one")
	}

	var cache string
	err := l.vim.Call("stdpath", &cache, "cache")
	if err != nil {
		return "", err
	}
	return filepath.Join(cache, "dbeelink", "dbeelink.log"), nil
}

func (l *Logger) setupFile() error {
	fileName, err := l.logPath()
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(fileName), 0o755)
	if err != nil {
		return err
	}

	file, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o666)
	if err != nil {
		return err
	}

	l.file = file
	l.logger.SetOutput(file)
	return nil
}

func (l *Logger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
}

func (l *Logger) log(level Level, message string) {
	if level < l.level {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil && !l.triedFileSet {
		err := l.setupFile()
		if err != nil {
			l.logger.Print(err)
		}
		l.triedFileSet = true
	}

	l.logger.Printf("[%s]: %s", level, message)
}

func (l *Logger) Debugf(format string, args ...any) {
	l.log(LevelDebug, fmt.Sprintf(format, args...))
}

func (l *Logger) Infof(format string, args ...any) {
	l.log(LevelInfo, fmt.Sprintf(format, args...))
}

func (l *Logger) Warnf(format string, args ...any) {
	l.log(LevelWarn, fmt.Sprintf(format, args...))
}

func (l *Logger) Errorf(format string, args ...any) {
	l.log(LevelError, fmt.Sprintf(format, args...))
}
