// Package batch runs many comparisons from a JSON-lines input on a bounded
// worker pool and writes one JSON-lines record per input item, in input
// order.
//
// Input lines look like:
//
//	{"id": "lesson-1", "original": "the cat sat", "user": "the dog sat"}
//
// Blank lines are skipped. A line that cannot be decoded produces a record
// with an error and does not stop the run. Read and write failures and
// context cancellation stop the run.
package batch

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/dictacheck/internal/compare"
	"github.com/MrWong99/dictacheck/internal/observe"
)

// maxLineSize bounds a single input line.
const maxLineSize = 4 << 20

// Status values used for the "status" attribute of batch metrics.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Item is one input line.
type Item struct {
	ID       string `json:"id"`
	Original string `json:"original"`
	User     string `json:"user"`
}

// Summary describes a finished run.
type Summary struct {
	// Items is the number of non-blank input lines processed.
	Items int

	// Failed is the number of items that produced an error record.
	Failed int

	// Discrepancies is the total number of spans over all items.
	Discrepancies int

	// Duration is the wall-clock time of the run.
	Duration time.Duration
}

// Option is a functional option for configuring a [Runner].
type Option func(*Runner)

// WithWorkers sets how many items are compared concurrently. Values below 1
// select GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		r.workers = n
	}
}

// WithMetrics records item outcomes and in-flight items on m.
func WithMetrics(m *observe.Metrics) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithIDGenerator replaces the generator used for items without an id.
func WithIDGenerator(fn func() string) Option {
	return func(r *Runner) {
		r.newID = fn
	}
}

// Runner processes batch inputs with a shared [compare.Engine].
type Runner struct {
	engine  *compare.Engine
	workers int
	metrics *observe.Metrics
	newID   func() string
}

// NewRunner returns a [Runner] comparing items with engine.
func NewRunner(engine *compare.Engine, opts ...Option) *Runner {
	r := &Runner{
		engine: engine,
		newID:  uuid.NewString,
	}
	for _, o := range opts {
		o(r)
	}
	if r.workers < 1 {
		r.workers = runtime.GOMAXPROCS(0)
	}
	return r
}

// Run reads items from in until EOF and writes one record per item to out.
// The summary covers every item whose record was produced, also when an
// error is returned.
func (r *Runner) Run(ctx context.Context, in io.Reader, out *Writer) (Summary, error) {
	start := time.Now()
	var items, failed, spans atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	seq := newSequencer(out)

	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	idx, line := 0, 0
	for sc.Scan() {
		line++
		if gctx.Err() != nil {
			break
		}
		data := bytes.TrimSpace(sc.Bytes())
		if len(data) == 0 {
			continue
		}
		data = bytes.Clone(data)

		i, ln := idx, line
		idx++
		g.Go(func() error {
			rec, err := r.process(gctx, ln, data)
			if err != nil {
				return err
			}
			items.Add(1)
			if rec.Error != "" {
				failed.Add(1)
			} else {
				spans.Add(int64(len(rec.Result.Comparisons)))
			}
			return seq.put(i, rec)
		})
	}
	readErr := sc.Err()
	waitErr := g.Wait()

	sum := Summary{
		Items:         int(items.Load()),
		Failed:        int(failed.Load()),
		Discrepancies: int(spans.Load()),
		Duration:      time.Since(start),
	}

	switch {
	case readErr != nil:
		return sum, fmt.Errorf("batch: read input line %d: %w", line+1, readErr)
	case waitErr != nil:
		return sum, waitErr
	case ctx.Err() != nil:
		return sum, fmt.Errorf("batch: %w", ctx.Err())
	}

	observe.Logger(ctx).Info("batch finished",
		"items", sum.Items,
		"failed", sum.Failed,
		"discrepancies", sum.Discrepancies,
		"duration", sum.Duration,
	)
	return sum, nil
}

// process turns one input line into a record. The error is non-nil only when
// ctx was cancelled.
func (r *Runner) process(ctx context.Context, line int, data []byte) (Record, error) {
	ctx, span := observe.StartSpan(ctx, "batch.item",
		trace.WithAttributes(attribute.Int("batch.line", line)),
	)
	defer span.End()

	if r.metrics != nil {
		r.metrics.BatchInflight.Add(ctx, 1)
		defer r.metrics.BatchInflight.Add(ctx, -1)
	}

	rec := Record{Line: line, TraceID: observe.CorrelationID(ctx)}

	var item Item
	if err := json.Unmarshal(data, &item); err != nil {
		rec.Error = fmt.Sprintf("decode line %d: %v", line, err)
		rec.Timestamp = time.Now().UTC()
		observe.Logger(ctx).Warn("skipping undecodable batch line", "line", line, "err", err)
		r.recordItem(ctx, StatusError)
		return rec, nil
	}

	rec.ID = item.ID
	if rec.ID == "" {
		rec.ID = r.newID()
	}
	span.SetAttributes(attribute.String("batch.id", rec.ID))

	res, err := r.engine.Compare(ctx, item.Original, item.User)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Record{}, err
		}
		rec.Error = err.Error()
		r.recordItem(ctx, StatusError)
	} else {
		rec.Result = res
		r.recordItem(ctx, StatusOK)
	}
	rec.Timestamp = time.Now().UTC()
	return rec, nil
}

func (r *Runner) recordItem(ctx context.Context, status string) {
	if r.metrics != nil {
		r.metrics.RecordBatchItem(ctx, status)
	}
}
