// Package logger configures logrus for roster.
//
// Lines are written as
//
//	2006-01-02 15:04:05 INFO [controller] – add applied id=3 status=201
//
// which is also the shape the log view in the TUI parses.
package logger

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// ComponentKey is the field rendered in brackets ahead of the message.
const ComponentKey = "component"

const timeLayout = "2006-01-02 15:04:05"

// LineFormatter renders one entry per line with sorted key=value fields.
type LineFormatter struct{}

// Format implements logrus.Formatter.
func (f *LineFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer
	b.WriteString(entry.Time.Format(timeLayout))
	b.WriteByte(' ')
	b.WriteString(levelName(entry.Level))

	if component, ok := entry.Data[ComponentKey]; ok {
		fmt.Fprintf(&b, " [%v]", component)
	}
	b.WriteString(" – ")
	b.WriteString(strings.TrimSpace(entry.Message))

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		if k == ComponentKey {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(formatValue(entry.Data[k]))
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}

func levelName(level logrus.Level) string {
	switch level {
	case logrus.TraceLevel:
		return "TRACE"
	case logrus.DebugLevel:
		return "DEBUG"
	case logrus.InfoLevel:
		return "INFO"
	case logrus.WarnLevel:
		return "WARN"
	default:
		return "ERROR"
	}
}

func formatValue(v interface{}) string {
	var s string
	switch value := v.(type) {
	case error:
		s = value.Error()
	case string:
		s = value
	default:
		s = fmt.Sprint(value)
	}
	if s == "" || strings.ContainsAny(s, " \t\"=") {
		return fmt.Sprintf("%q", s)
	}
	return s
}

// Setup returns a logger writing to out at the given level. An unknown level
// falls back to info and is reported through the returned error so callers
// can warn without failing startup.
func Setup(level string, out io.Writer) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetFormatter(&LineFormatter{})
	if out == nil {
		out = io.Discard
	}
	logger.SetOutput(out)

	parsed, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		logger.SetLevel(logrus.InfoLevel)
		return logger, fmt.Errorf("log level %q: %w", level, err)
	}
	logger.SetLevel(parsed)
	return logger, nil
}

// OpenFile opens path for appending, creating its directory when needed.
func OpenFile(path string) (*os.File, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("log file path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return file, nil
}
