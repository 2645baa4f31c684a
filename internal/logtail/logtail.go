package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Read returns at most maxLines from the end of the file at path.
func Read(path string, maxLines int) ([]string, error) {
	if maxLines <= 0 {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	ring := make([]string, maxLines)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Line is one parsed log line. Lines that do not match the roster format
// come back with only Raw set.
type Line struct {
	Raw       string
	Timestamp string
	Level     string
	Component string
	Message   string
}

// Parsed reports whether the line matched the log format.
func (l Line) Parsed() bool {
	return l.Level != ""
}

var linePattern = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}) (TRACE|DEBUG|INFO|WARN|ERROR)(?: \[([^\]]+)\])? – ?(.*)$`)

// Parse splits a log line into its parts.
func Parse(line string) Line {
	m := linePattern.FindStringSubmatch(line)
	if m == nil {
		return Line{Raw: line}
	}
	return Line{Raw: line, Timestamp: m[1], Level: m[2], Component: m[3], Message: m[4]}
}

// Palette holds the styles applied by Colorize.
type Palette struct {
	Timestamp lipgloss.Style
	Component lipgloss.Style
	Separator lipgloss.Style
	Message   lipgloss.Style
	Levels    map[string]lipgloss.Style
}

// DefaultPalette suits dark terminal backgrounds.
func DefaultPalette() Palette {
	return Palette{
		Timestamp: lipgloss.NewStyle().Foreground(lipgloss.Color("#808080")),
		Component: lipgloss.NewStyle().Foreground(lipgloss.Color("#87AFFF")),
		Separator: lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")),
		Message:   lipgloss.NewStyle(),
		Levels: map[string]lipgloss.Style{
			"TRACE": lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")).Bold(true),
			"DEBUG": lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB")).Bold(true),
			"INFO":  lipgloss.NewStyle().Foreground(lipgloss.Color("#5FD75F")).Bold(true),
			"WARN":  lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700")).Bold(true),
			"ERROR": lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
		},
	}
}

// Colorize renders a line with p. Unparsed lines are returned unchanged.
func Colorize(line string, p Palette) string {
	parsed := Parse(line)
	if !parsed.Parsed() {
		return line
	}
	var b strings.Builder
	b.WriteString(p.Timestamp.Render(parsed.Timestamp))
	b.WriteByte(' ')
	b.WriteString(p.Levels[parsed.Level].Render(parsed.Level))
	if parsed.Component != "" {
		b.WriteByte(' ')
		b.WriteString(p.Component.Render("[" + parsed.Component + "]"))
	}
	b.WriteByte(' ')
	b.WriteString(p.Separator.Render("–"))
	if parsed.Message != "" {
		b.WriteByte(' ')
		b.WriteString(p.Message.Render(parsed.Message))
	}
	return b.String()
}

// Filter keeps lines at or above minLevel. Unparsed lines are kept so
// continuation output is not lost. An empty minLevel keeps everything.
func Filter(lines []string, minLevel string) []string {
	threshold, ok := levelRank[strings.ToUpper(minLevel)]
	if !ok {
		return lines
	}
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		parsed := Parse(line)
		if parsed.Parsed() && levelRank[parsed.Level] < threshold {
			continue
		}
		out = append(out, line)
	}
	return out
}

var levelRank = map[string]int{"TRACE": 0, "DEBUG": 1, "INFO": 2, "WARN": 3, "ERROR": 4}
