package packet

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	generrors "github.com/alxayo/go-evrgen/internal/errors"
)

// FileWriter appends packets to a single file. After the first write error
// the writer is disabled and every later call returns that error.
type FileWriter struct {
	mu      sync.Mutex
	w       io.WriteCloser
	logger  *slog.Logger
	packets uint64
	bytes   uint64
	err     error
}

// Create truncates path and returns a writer for it.
func Create(path string, logger *slog.Logger) (*FileWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, generrors.NewSinkError("packet.create", err)
	}
	return NewWriter(f, logger), nil
}

// NewWriter wraps w.
func NewWriter(w io.WriteCloser, logger *slog.Logger) *FileWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileWriter{w: w, logger: logger}
}

// Write persists one packet.
func (fw *FileWriter) Write(pkt []byte) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if fw.err != nil {
		return fw.err
	}
	if fw.w == nil {
		return generrors.NewSinkError("packet.write", fmt.Errorf("writer closed"))
	}
	if _, err := fw.w.Write(pkt); err != nil {
		fw.logger.Error("packet write failed", "err", err, "packets_written", fw.packets)
		fw.err = generrors.NewSinkError("packet.write", err)
		fw.closeLocked()
		return fw.err
	}
	fw.packets++
	fw.bytes += uint64(len(pkt))
	return nil
}

// Disabled reports whether a write error has shut the writer down.
func (fw *FileWriter) Disabled() bool {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return fw.err != nil
}

// Counts returns packets and bytes written so far.
func (fw *FileWriter) Counts() (packets, bytes uint64) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return fw.packets, fw.bytes
}

// Close releases the underlying file.
func (fw *FileWriter) Close() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return fw.closeLocked()
}

func (fw *FileWriter) closeLocked() error {
	if fw.w == nil {
		return nil
	}
	err := fw.w.Close()
	fw.w = nil
	return err
}
