package batch_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/MrWong99/dictacheck/internal/batch"
	"github.com/MrWong99/dictacheck/internal/compare"
	"github.com/MrWong99/dictacheck/internal/observe"
)

const sampleInput = `{"id":"a","original":"the cat sat","user":"the dog sat"}

{"original":"the cat sat","user":"the cat sat"}
{not json
{"id":"d","original":"aaaaaaaaaa","user":"zzzzzzzzzz"}
`

// counterIDs returns a generator yielding gen-1, gen-2, ...
func counterIDs() func() string {
	var n atomic.Int64
	return func() string { return fmt.Sprintf("gen-%d", n.Add(1)) }
}

func decodeRecords(t *testing.T, out *bytes.Buffer) []batch.Record {
	t.Helper()
	var recs []batch.Record
	sc := bufio.NewScanner(out)
	for sc.Scan() {
		var rec batch.Record
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			t.Fatalf("decode output line %q: %v", sc.Text(), err)
		}
		recs = append(recs, rec)
	}
	return recs
}

func TestRun(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	r := batch.NewRunner(compare.New(), batch.WithWorkers(3), batch.WithIDGenerator(counterIDs()))

	sum, err := r.Run(context.Background(), strings.NewReader(sampleInput), batch.NewWriter(&out))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Items != 4 || sum.Failed != 1 || sum.Discrepancies != 2 {
		t.Errorf("Summary = %+v, want 4 items, 1 failed, 2 discrepancies", sum)
	}

	recs := decodeRecords(t, &out)
	if len(recs) != 4 {
		t.Fatalf("got %d records, want 4", len(recs))
	}

	wantLines := []int{1, 3, 4, 5}
	for i, rec := range recs {
		if rec.Line != wantLines[i] {
			t.Errorf("record %d line = %d, want %d", i, rec.Line, wantLines[i])
		}
	}

	if recs[0].ID != "a" || recs[0].Result == nil || len(recs[0].Result.Comparisons) != 1 {
		t.Errorf("record 0 = %+v, want id a with one comparison", recs[0])
	} else if c := recs[0].Result.Comparisons[0]; c.OriginalText != "cat" || c.UserText != "dog" {
		t.Errorf("record 0 comparison = %+v, want cat/dog", c)
	}

	if recs[1].ID != "gen-1" {
		t.Errorf("record 1 id = %q, want generated gen-1", recs[1].ID)
	}
	if recs[1].Result == nil || len(recs[1].Result.Comparisons) != 0 {
		t.Errorf("record 1 result = %+v, want no comparisons", recs[1].Result)
	}

	if recs[2].Error == "" || recs[2].Result != nil {
		t.Errorf("record 2 = %+v, want decode error without result", recs[2])
	}
	if !strings.Contains(recs[2].Error, "decode line 4") {
		t.Errorf("record 2 error = %q, want it to name line 4", recs[2].Error)
	}

	if recs[3].Result == nil || !recs[3].Result.Gated {
		t.Errorf("record 3 = %+v, want gated result", recs[3])
	}
}

func TestRun_OrderIndependentOfWorkers(t *testing.T) {
	t.Parallel()

	var in strings.Builder
	for i := range 50 {
		fmt.Fprintf(&in, "{\"id\":\"%d\",\"original\":\"the cat sat on the mat\",\"user\":\"the cat sat on a mat %d\"}\n", i, i)
	}

	for _, workers := range []int{1, 8} {
		var out bytes.Buffer
		r := batch.NewRunner(compare.New(), batch.WithWorkers(workers))
		if _, err := r.Run(context.Background(), strings.NewReader(in.String()), batch.NewWriter(&out)); err != nil {
			t.Fatalf("workers=%d: Run: %v", workers, err)
		}
		recs := decodeRecords(t, &out)
		if len(recs) != 50 {
			t.Fatalf("workers=%d: got %d records, want 50", workers, len(recs))
		}
		for i, rec := range recs {
			if rec.ID != fmt.Sprint(i) {
				t.Fatalf("workers=%d: record %d has id %q, want %d", workers, i, rec.ID, i)
			}
		}
	}
}

func TestRun_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	_, err := batch.NewRunner(compare.New()).Run(ctx, strings.NewReader(sampleInput), batch.NewWriter(&out))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestRun_WriteErrorStopsRun(t *testing.T) {
	t.Parallel()

	_, err := batch.NewRunner(compare.New()).Run(context.Background(), strings.NewReader(sampleInput), batch.NewWriter(failingWriter{}))
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Errorf("err = %v, want write error", err)
	}
}

func TestRun_RecordsMetrics(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	var out bytes.Buffer
	r := batch.NewRunner(compare.New(), batch.WithMetrics(m))
	if _, err := r.Run(context.Background(), strings.NewReader(sampleInput), batch.NewWriter(&out)); err != nil {
		t.Fatalf("Run: %v", err)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}

	status := map[string]int64{}
	var inflight int64 = -1
	for _, sm := range rm.ScopeMetrics {
		for _, met := range sm.Metrics {
			switch met.Name {
			case "dictacheck.batch.items":
				for _, dp := range met.Data.(metricdata.Sum[int64]).DataPoints {
					v, _ := dp.Attributes.Value(attribute.Key("status"))
					status[v.AsString()] += dp.Value
				}
			case "dictacheck.batch.inflight":
				inflight = 0
				for _, dp := range met.Data.(metricdata.Sum[int64]).DataPoints {
					inflight += dp.Value
				}
			}
		}
	}
	if status[batch.StatusOK] != 3 || status[batch.StatusError] != 1 {
		t.Errorf("batch items by status = %v, want ok=3 error=1", status)
	}
	if inflight != 0 {
		t.Errorf("inflight = %d, want 0 after the run", inflight)
	}
}

func TestWriter_Count(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	w := batch.NewWriter(&out)
	for i := range 3 {
		if err := w.Write(batch.Record{Line: i + 1}); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if w.Count() != 3 {
		t.Errorf("Count = %d, want 3", w.Count())
	}
	if n := strings.Count(out.String(), "\n"); n != 3 {
		t.Errorf("wrote %d lines, want 3", n)
	}
}
