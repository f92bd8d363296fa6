package truth

// Truth sink
// ----------
// Append-only, line-oriented ground-truth log written alongside generated
// packets. One generated EVR produces exactly two lines (metadata line and
// argument line). A nil or Nop sink accepts and discards everything.

import (
	"bufio"
	"io"
	"log/slog"
	"os"
	"sync"

	generrors "github.com/alxayo/go-evrgen/internal/errors"
)

// Sink accepts truth lines. The line must not contain a trailing newline.
type Sink interface {
	WriteLine(line string) error
}

// Nop discards every line.
type Nop struct{}

func (Nop) WriteLine(string) error { return nil }

// FileSink writes truth lines through a buffered writer. It is safe for
// single-goroutine use; the mutex only guards against accidental concurrent
// callers. After the first write error the sink is disabled and keeps
// returning that error.
type FileSink struct {
	mu     sync.Mutex
	c      io.Closer
	w      *bufio.Writer
	logger *slog.Logger
	lines  uint64
	err    error
}

// Create opens path for writing (truncating it) and returns a sink.
func Create(path string, logger *slog.Logger) (*FileSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, generrors.NewSinkError("truth.create", err)
	}
	return NewWriterSink(f, logger), nil
}

// NewWriterSink wraps w. If w is an io.Closer it is closed by Close.
func NewWriterSink(w io.Writer, logger *slog.Logger) *FileSink {
	if logger == nil {
		logger = slog.Default()
	}
	s := &FileSink{w: bufio.NewWriter(w), logger: logger}
	if c, ok := w.(io.Closer); ok {
		s.c = c
	}
	return s
}

// WriteLine appends line and a newline.
func (s *FileSink) WriteLine(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if _, err := s.w.WriteString(line); err != nil {
		return s.failLocked(err)
	}
	if err := s.w.WriteByte('\n'); err != nil {
		return s.failLocked(err)
	}
	s.lines++
	return nil
}

func (s *FileSink) failLocked(err error) error {
	s.logger.Error("truth write failed", "err", err, "lines_written", s.lines)
	s.err = generrors.NewSinkError("truth.write", err)
	return s.err
}

// Lines returns the number of lines accepted so far.
func (s *FileSink) Lines() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lines
}

// Flush pushes buffered lines to the underlying writer.
func (s *FileSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if err := s.w.Flush(); err != nil {
		return s.failLocked(err)
	}
	return nil
}

// Close flushes and releases the underlying writer.
func (s *FileSink) Close() error {
	flushErr := s.Flush()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil {
		if err := s.c.Close(); err != nil && flushErr == nil {
			flushErr = generrors.NewSinkError("truth.close", err)
		}
		s.c = nil
	}
	return flushErr
}

// Memory collects lines in memory.
type Memory struct {
	mu    sync.Mutex
	lines []string
}

func (m *Memory) WriteLine(line string) error {
	m.mu.Lock()
	m.lines = append(m.lines, line)
	m.mu.Unlock()
	return nil
}

// Lines returns a copy of the collected lines.
func (m *Memory) Lines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.lines...)
}

// Reset discards collected lines.
func (m *Memory) Reset() {
	m.mu.Lock()
	m.lines = nil
	m.mu.Unlock()
}
