package compare_test

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/MrWong99/dictacheck/internal/compare"
	"github.com/MrWong99/dictacheck/internal/observe"
	"github.com/MrWong99/dictacheck/pkg/types"
)

func cmp(oi, of int, ot string, ui, uf int, ut string) types.TextComparison {
	return types.TextComparison{
		OriginalRange: types.NewRange(oi, of),
		OriginalText:  ot,
		UserRange:     types.NewRange(ui, uf),
		UserText:      ut,
	}
}

func equalComparisons(a, b []types.TextComparison) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestCompareTexts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		original string
		user     string
		want     []types.TextComparison
	}{
		{
			name:     "identical",
			original: "The quick brown fox jumps over the lazy dog.",
			user:     "The quick brown fox jumps over the lazy dog.",
			want:     nil,
		},
		{
			name:     "both empty",
			original: "",
			user:     "",
			want:     nil,
		},
		{
			name:     "gate short-circuit",
			original: "aaaaaaaaaa",
			user:     "zzzzzzzzzz",
			want:     []types.TextComparison{cmp(0, 9, "aaaaaaaaaa", 0, 9, "zzzzzzzzzz")},
		},
		{
			name:     "empty user is gated",
			original: "hello",
			user:     "",
			want:     []types.TextComparison{cmp(0, 4, "hello", 0, -1, "")},
		},
		{
			name:     "single substitution",
			original: "the cat sat",
			user:     "the dog sat",
			want:     []types.TextComparison{cmp(4, 6, "cat", 4, 6, "dog")},
		},
		{
			name:     "missing word",
			original: "the quick brown fox jumps over the lazy dog",
			user:     "the brown fox jumps over the lazy dog",
			want:     []types.TextComparison{cmp(3, 9, " quick ", 3, 3, " ")},
		},
		{
			name:     "extra word",
			original: "the brown fox jumps over the lazy dog",
			user:     "the quick brown fox jumps over the lazy dog",
			want:     []types.TextComparison{cmp(3, 3, " ", 3, 9, " quick ")},
		},
		{
			name:     "typos across punctuation merge",
			original: "cat, sat",
			user:     "cot, sot",
			want:     []types.TextComparison{cmp(0, 7, "cat, sat", 0, 7, "cot, sot")},
		},
		{
			name:     "case and trailing punctuation ignored",
			original: "The cat sat.",
			user:     "the cat sat",
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := compare.CompareTexts(tt.original, tt.user)
			if got == nil {
				t.Fatal("CompareTexts returned nil slice")
			}
			if !equalComparisons(got, tt.want) {
				t.Errorf("CompareTexts(%q, %q):\n got  %+v\n want %+v", tt.original, tt.user, got, tt.want)
			}
		})
	}
}

func TestCompareTexts_RangeExtraction(t *testing.T) {
	t.Parallel()

	pairs := [][2]string{
		{"Où est la gare? Je cherche la gare.", "ou est la gare je cherche la guerre"},
		{"She sells sea shells by the sea shore", "she sell see shells by the shore"},
		{"one two three four five six", "one too three for five sicks seven"},
		{"the cat sat", "the dog sat"},
	}
	for _, p := range pairs {
		original, user := []rune(p[0]), []rune(p[1])
		for _, c := range compare.CompareTexts(p[0], p[1]) {
			if got := string(original[c.OriginalRange.InitialIndex : c.OriginalRange.FinalIndex+1]); got != c.OriginalText {
				t.Errorf("%q: original range %+v extracts %q, OriginalText = %q", p[0], c.OriginalRange, got, c.OriginalText)
			}
			if got := string(user[c.UserRange.InitialIndex : c.UserRange.FinalIndex+1]); got != c.UserText {
				t.Errorf("%q: user range %+v extracts %q, UserText = %q", p[1], c.UserRange, got, c.UserText)
			}
		}
	}
}

func TestEngine_Result(t *testing.T) {
	t.Parallel()

	e := compare.New()
	res, err := e.Compare(context.Background(),
		"the quick brown fox jumps over the lazy dog",
		"the brown fox jumps over the lazy dog")
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if res.Gated {
		t.Error("Gated = true, want false")
	}
	if res.Stats == nil {
		t.Fatal("Stats = nil")
	}
	if res.Stats.Deletions != 1 || res.Stats.Matches != 8 || res.Stats.ReferenceWords != 9 {
		t.Errorf("Stats = %+v, want 8 matches, 1 deletion, 9 reference words", *res.Stats)
	}
	if res.Hints != nil {
		t.Errorf("Hints = %+v, want nil without WithCharHints", res.Hints)
	}
}

func TestEngine_Gated(t *testing.T) {
	t.Parallel()

	res, err := compare.New().Compare(context.Background(), "aaaaaaaaaa", "zzzzzzzzzz")
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if !res.Gated {
		t.Error("Gated = false, want true")
	}
	if res.Similarity != 0 {
		t.Errorf("Similarity = %v, want 0", res.Similarity)
	}
	if res.Stats != nil {
		t.Errorf("Stats = %+v, want nil when gated", *res.Stats)
	}
}

func TestEngine_SimilarityThreshold(t *testing.T) {
	t.Parallel()

	// Similarity is 1 - 6/13, below the default gate.
	original, user := "the quick fox", "the fox"

	res, err := compare.New().Compare(context.Background(), original, user)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if !res.Gated {
		t.Fatal("default threshold: Gated = false, want true")
	}

	res, err = compare.New(compare.WithSimilarityThreshold(0.4)).Compare(context.Background(), original, user)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	want := []types.TextComparison{cmp(3, 9, " quick ", 3, 3, " ")}
	if res.Gated || !equalComparisons(res.Comparisons, want) {
		t.Errorf("threshold 0.4: got gated=%v %+v, want %+v", res.Gated, res.Comparisons, want)
	}

	// Out of range thresholds keep the default.
	res, _ = compare.New(compare.WithSimilarityThreshold(1.5)).Compare(context.Background(), original, user)
	if !res.Gated {
		t.Error("threshold 1.5 should be ignored")
	}
}

func TestEngine_CharHints(t *testing.T) {
	t.Parallel()

	res, err := compare.New(compare.WithCharHints(true)).Compare(context.Background(), "the cat sat", "the cot sat")
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if len(res.Hints) != len(res.Comparisons) || len(res.Hints) != 1 {
		t.Fatalf("got %d hints for %d comparisons, want 1 each", len(res.Hints), len(res.Comparisons))
	}
	want := []types.Segment{{Text: "c"}, {Text: "o", Changed: true}, {Text: "t"}}
	got := res.Hints[0].User
	if len(got) != len(want) {
		t.Fatalf("user segments = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("user segment %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestEngine_Normalization(t *testing.T) {
	t.Parallel()

	composed := "un caf\u00e9 au lait"
	decomposed := "un cafe\u0301 au lait"

	res, err := compare.New().Compare(context.Background(), composed, decomposed)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if len(res.Comparisons) == 0 {
		t.Error("without normalisation the texts should differ")
	}

	res, err = compare.New(compare.WithNormalization(compare.NormalizeNFC)).Compare(context.Background(), composed, decomposed)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if len(res.Comparisons) != 0 {
		t.Errorf("NFC comparisons = %+v, want none", res.Comparisons)
	}
	if res.User != composed {
		t.Errorf("User = %q, want normalised %q", res.User, composed)
	}
}

func TestEngine_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := compare.New().Compare(ctx, "a", "b")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if res != nil {
		t.Errorf("res = %+v, want nil", res)
	}
}

func TestEngine_RecordsMetrics(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	e := compare.New(compare.WithMetrics(m))
	ctx := context.Background()
	for _, p := range [][2]string{
		{"the cat sat", "the dog sat"},
		{"aaaaaaaaaa", "zzzzzzzzzz"},
		{"", ""},
	} {
		if _, err := e.Compare(ctx, p[0], p[1]); err != nil {
			t.Fatalf("Compare(%q, %q): %v", p[0], p[1], err)
		}
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}

	counts := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, met := range sm.Metrics {
			if met.Name != "dictacheck.compare.requests" {
				continue
			}
			sum, ok := met.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatal("requests metric is not an int64 sum")
			}
			for _, dp := range sum.DataPoints {
				v, _ := dp.Attributes.Value(attribute.Key("outcome"))
				counts[v.AsString()] += dp.Value
			}
		}
	}
	for _, outcome := range []string{observe.OutcomeAligned, observe.OutcomeGated, observe.OutcomeEmpty} {
		if counts[outcome] != 1 {
			t.Errorf("outcome %q count = %d, want 1", outcome, counts[outcome])
		}
	}
}

func TestEngine_SelfTest(t *testing.T) {
	t.Parallel()

	if err := compare.New().SelfTest(context.Background()); err != nil {
		t.Errorf("SelfTest: %v", err)
	}

	err := compare.New(compare.WithSimilarityThreshold(1)).SelfTest(context.Background())
	if !errors.Is(err, compare.ErrSelfTest) {
		t.Errorf("SelfTest with threshold 1: err = %v, want ErrSelfTest", err)
	}
}

func BenchmarkCompareTexts(b *testing.B) {
	original := "It was the best of times, it was the worst of times, it was the age of wisdom, it was the age of foolishness."
	user := "it was the best of time it was the worst of times it was the age of wisdon it was the age of foolishness"
	b.ReportAllocs()
	for b.Loop() {
		compare.CompareTexts(original, user)
	}
}
