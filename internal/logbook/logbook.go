package logbook

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level represents the severity of a journal entry.
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Entry is one parsed journal line.
type Entry struct {
	Time    time.Time
	Level   Level
	Message string
}

// Logbook is the user-facing activity journal: one line per create, edit,
// delete or failed load, kept in a plain text file the TUI tails.
type Logbook struct {
	path  string
	clock func() time.Time
	mu    sync.Mutex
}

// New creates a logbook that writes to the provided path.
func New(path string) (*Logbook, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &Logbook{path: path, clock: time.Now}, nil
}

// Path returns the file backing this logbook.
func (l *Logbook) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Append writes a single entry. Newlines in message are flattened so every
// entry stays on one line.
func (l *Logbook) Append(level Level, message string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	message = strings.Join(strings.Fields(message), " ")
	line := fmt.Sprintf("%s %-5s %s\n",
		l.clock().UTC().Format(time.RFC3339),
		string(level),
		message,
	)
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	_, _ = f.WriteString(line)
	_ = f.Close()
}

// Tail returns the last maxLines lines and how many lines the journal holds.
// Only the window is kept in memory while scanning.
func (l *Logbook) Tail(maxLines int) ([]string, int) {
	if l == nil || maxLines <= 0 {
		return nil, 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := os.Open(l.path)
	if err != nil {
		return nil, 0
	}
	defer f.Close()

	window := make([]string, maxLines)
	total := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		window[total%maxLines] = sc.Text()
		total++
	}
	if total == 0 {
		return nil, 0
	}
	n := min(total, maxLines)
	out := make([]string, 0, n)
	for i := total - n; i < total; i++ {
		out = append(out, window[i%maxLines])
	}
	return out, total
}

// Recent parses the last maxEntries lines and reports the total line count.
// Lines that do not match the journal format are returned as INFO entries
// with a zero time.
func (l *Logbook) Recent(maxEntries int) ([]Entry, int) {
	lines, total := l.Tail(maxEntries)
	entries := make([]Entry, 0, len(lines))
	for _, line := range lines {
		entries = append(entries, parseLine(line))
	}
	return entries, total
}

func parseLine(line string) Entry {
	fields := strings.SplitN(line, " ", 2)
	if len(fields) != 2 {
		return Entry{Level: LevelInfo, Message: line}
	}
	ts, err := time.Parse(time.RFC3339, fields[0])
	if err != nil {
		return Entry{Level: LevelInfo, Message: line}
	}
	rest := strings.TrimLeft(fields[1], " ")
	level, msg, _ := strings.Cut(rest, " ")
	return Entry{Time: ts, Level: Level(level), Message: strings.TrimSpace(msg)}
}

// Info appends an informational entry.
func (l *Logbook) Info(format string, args ...any) {
	l.Append(LevelInfo, fmt.Sprintf(format, args...))
}

// Warn appends a warning entry.
func (l *Logbook) Warn(format string, args ...any) {
	l.Append(LevelWarn, fmt.Sprintf(format, args...))
}

// Error appends an error entry.
func (l *Logbook) Error(format string, args ...any) {
	l.Append(LevelError, fmt.Sprintf(format, args...))
}
