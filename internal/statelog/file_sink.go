package statelog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/iliyamo/restaurant-sim/internal/model"
)

// FileSink appends snapshot lines to a writer, usually the run log file.
// A header is written whenever a snapshot of a new run arrives, so several
// runs can share one file.
type FileSink struct {
	mu      sync.Mutex
	w       io.Writer
	closer  io.Closer
	lastRun string
	err     error
}

// NewFileSink writes to w.  The caller keeps ownership of w.
func NewFileSink(w io.Writer) *FileSink {
	return &FileSink{w: w, lastRun: "\x00"}
}

// OpenFileSink creates the parent directory of path and opens path for
// appending.
func OpenFileSink(path string) (*FileSink, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open state log: %w", err)
	}
	s := NewFileSink(f)
	s.closer = f
	return s, nil
}

// Save appends the snapshot.  Write errors are remembered and reported by
// Err and Close; the protocol never waits on the log.
func (s *FileSink) Save(st model.FullState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return
	}
	if st.RunID != s.lastRun {
		s.lastRun = st.RunID
		header := fmt.Sprintf("\nrun %s: %d groups, %d tables\n%s", st.RunID, st.NGroups, st.NTables, FormatHeader(st.NGroups, st.NTables))
		if _, err := io.WriteString(s.w, header); err != nil {
			s.err = err
			return
		}
	}
	if _, err := io.WriteString(s.w, FormatLine(st)); err != nil {
		s.err = err
	}
}

// Err returns the first write error, if any.
func (s *FileSink) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close closes the underlying file when the sink opened it.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closer == nil {
		return s.err
	}
	err := s.closer.Close()
	s.closer = nil
	if s.err != nil {
		return s.err
	}
	return err
}
