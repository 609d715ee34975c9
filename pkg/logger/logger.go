// Package logger is preprint's structured stderr logger.
//
// Commands log through the package-level helpers. Until Initialize runs they
// write info and above to stderr, which is what library packages see in tests.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level is the severity of a log line.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

func (l Level) String() string {
	if l < DebugLevel || l > ErrorLevel {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// color returns the ANSI sequence for l, or "" when plain.
func (l Level) color() string {
	switch l {
	case DebugLevel:
		return "\033[36m"
	case InfoLevel:
		return "\033[32m"
	case WarnLevel:
		return "\033[33m"
	case ErrorLevel:
		return "\033[31m"
	}
	return ""
}

// ParseLevel maps a --log-level value to a Level. "trace" is accepted as an
// alias of debug. Unknown names fall back to InfoLevel and report false.
func ParseLevel(s string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace", "debug":
		return DebugLevel, true
	case "info", "":
		return InfoLevel, true
	case "warn", "warning":
		return WarnLevel, true
	case "error":
		return ErrorLevel, true
	default:
		return InfoLevel, false
	}
}

// Config controls what a Logger emits and where.
type Config struct {
	Level     Level
	UseColor  bool
	JSON      bool
	Component string
	// DryRun tags every line so previews are not mistaken for real runs.
	DryRun bool
	// Output defaults to os.Stderr.
	Output io.Writer
}

// Logger writes one line per call. It is safe for concurrent use.
type Logger struct {
	config Config
	mu     sync.Mutex
	now    func() time.Time
}

// New returns a logger for config.
func New(config Config) *Logger {
	if config.Output == nil {
		config.Output = os.Stderr
	}
	return &Logger{config: config, now: time.Now}
}

// Field is one key/value pair attached to a line. Fields print in the order
// they were passed.
type Field struct {
	Key   string
	Value interface{}
}

func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Float rounds to two decimals; it is used for sizes in MB.
func Float(key string, value float64) Field {
	return Field{Key: key, Value: fmt.Sprintf("%.2f", value)}
}

// Err records err under "error". A nil error prints as <nil>.
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: "<nil>"}
	}
	return Field{Key: "error", Value: err.Error()}
}

// jsonLine is the --json encoding of one line.
type jsonLine struct {
	Time      string                 `json:"time"`
	Level     string                 `json:"level"`
	Component string                 `json:"component,omitempty"`
	DryRun    bool                   `json:"dry_run,omitempty"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// Log writes message at level if the logger's threshold allows it.
func (l *Logger) Log(level Level, message string, fields ...Field) {
	if level < l.config.Level {
		return
	}
	t := l.now()

	var line string
	if l.config.JSON {
		line = l.formatJSON(t, level, message, fields)
	} else {
		line = l.formatPretty(t, level, message, fields)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = io.WriteString(l.config.Output, line+"\n")
}

func (l *Logger) formatJSON(t time.Time, level Level, message string, fields []Field) string {
	entry := jsonLine{
		Time:      t.UTC().Format(time.RFC3339),
		Level:     level.String(),
		Component: l.config.Component,
		DryRun:    l.config.DryRun,
		Message:   message,
	}
	if len(fields) > 0 {
		entry.Fields = make(map[string]interface{}, len(fields))
		for _, f := range fields {
			entry.Fields[f.Key] = f.Value
		}
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Sprintf(`{"level":"ERROR","message":%q}`, "unencodable log line: "+err.Error())
	}
	return string(data)
}

func (l *Logger) formatPretty(t time.Time, level Level, message string, fields []Field) string {
	var b strings.Builder
	b.WriteString(t.Format("15:04:05"))

	name := level.String()
	if l.config.UseColor {
		name = level.color() + name + "\033[0m"
	}
	b.WriteString(" " + name)

	if l.config.Component != "" {
		b.WriteString(" " + l.config.Component + ":")
	}
	if l.config.DryRun {
		b.WriteString(" [DRY-RUN]")
	}
	b.WriteString(" " + message)

	for _, f := range fields {
		value := fmt.Sprint(f.Value)
		if strings.ContainsAny(value, " \t\"") {
			value = fmt.Sprintf("%q", value)
		}
		fmt.Fprintf(&b, " %s=%s", f.Key, value)
	}
	return b.String()
}

var (
	stdMu sync.RWMutex
	std   = New(Config{Level: InfoLevel, Component: "preprint"})
)

// Initialize replaces the package-level logger used by Debug, Info, Warn
// and Error.
func Initialize(config Config) {
	l := New(config)
	stdMu.Lock()
	std = l
	stdMu.Unlock()
}

func current() *Logger {
	stdMu.RLock()
	defer stdMu.RUnlock()
	return std
}

func Debug(message string, fields ...Field) { current().Log(DebugLevel, message, fields...) }

func Info(message string, fields ...Field) { current().Log(InfoLevel, message, fields...) }

func Warn(message string, fields ...Field) { current().Log(WarnLevel, message, fields...) }

func Error(message string, fields ...Field) { current().Log(ErrorLevel, message, fields...) }
