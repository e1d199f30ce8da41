package batch

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/MrWong99/dictacheck/internal/compare"
)

// Record is one line of batch output.
type Record struct {
	// ID is the item id from the input, or a generated one.
	ID string `json:"id,omitempty"`

	// Line is the 1-based input line the record answers.
	Line int `json:"line"`

	// Timestamp is when the item finished.
	Timestamp time.Time `json:"timestamp"`

	// TraceID ties the record to the trace of its comparison.
	TraceID string `json:"traceId,omitempty"`

	// Result is set when the comparison ran.
	Result *compare.Result `json:"result,omitempty"`

	// Error is set when the input line could not be processed.
	Error string `json:"error,omitempty"`
}

// Writer appends records as JSON lines. Safe for concurrent use.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
	n  int
}

// NewWriter returns a [Writer] that writes to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write appends rec followed by a newline.
func (w *Writer) Write(rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("batch: marshal record: %w", err)
	}
	data = append(data, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.w.Write(data); err != nil {
		return fmt.Errorf("batch: write record: %w", err)
	}
	w.n++
	return nil
}

// Count returns the number of records written so far.
func (w *Writer) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.n
}

// sequencer releases records to a [Writer] in input order even though items
// finish out of order.
type sequencer struct {
	mu      sync.Mutex
	next    int
	pending map[int]Record
	out     *Writer
}

func newSequencer(out *Writer) *sequencer {
	return &sequencer{pending: make(map[int]Record), out: out}
}

// put stores the record of item idx and flushes every record that is now
// in order.
func (s *sequencer) put(idx int, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending[idx] = rec
	for {
		r, ok := s.pending[s.next]
		if !ok {
			return nil
		}
		delete(s.pending, s.next)
		s.next++
		if err := s.out.Write(r); err != nil {
			return err
		}
	}
}
