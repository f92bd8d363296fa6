package truth

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	generrors "github.com/alxayo/go-evrgen/internal/errors"
)

type failingWriter struct{}

func (f *failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestFileSinkWritesLines(t *testing.T) {
	p := filepath.Join(t.TempDir(), "truth.txt")
	s, err := Create(p, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for _, l := range []string{"EVR: A,WARNING_LO,1,[],[]", "No arguments"} {
		if err := s.WriteLine(l); err != nil {
			t.Fatalf("WriteLine: %v", err)
		}
	}
	if s.Lines() != 2 {
		t.Fatalf("lines=%d", s.Lines())
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	got, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if want := "EVR: A,WARNING_LO,1,[],[]\nNo arguments\n"; string(got) != want {
		t.Fatalf("file content %q want %q", got, want)
	}
}

func TestFileSinkDisablesOnError(t *testing.T) {
	s := NewWriterSink(&failingWriter{}, nil)
	// bufio absorbs the first line; the failure surfaces on flush.
	if err := s.WriteLine("x"); err != nil {
		t.Fatalf("buffered write should succeed: %v", err)
	}
	err := s.Flush()
	var se *generrors.SinkError
	if !errors.As(err, &se) {
		t.Fatalf("expected SinkError, got %v", err)
	}
	if err := s.WriteLine("y"); !errors.As(err, &se) {
		t.Fatalf("sink should stay disabled, got %v", err)
	}
}

func TestWriterSinkWithoutCloser(t *testing.T) {
	var buf bytes.Buffer
	s := NewWriterSink(&buf, nil)
	_ = s.WriteLine("Arguments: 1,2")
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if buf.String() != "Arguments: 1,2\n" {
		t.Fatalf("unexpected %q", buf.String())
	}
}

func TestMemoryAndNop(t *testing.T) {
	var m Memory
	_ = m.WriteLine("a")
	_ = m.WriteLine("b")
	if diff := cmp.Diff([]string{"a", "b"}, m.Lines()); diff != "" {
		t.Fatalf("lines (-want +got):\n%s", diff)
	}
	m.Reset()
	if len(m.Lines()) != 0 {
		t.Fatalf("reset failed")
	}
	var n Sink = Nop{}
	if err := n.WriteLine("ignored"); err != nil {
		t.Fatalf("Nop returned %v", err)
	}
}
