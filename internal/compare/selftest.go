package compare

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrWong99/dictacheck/pkg/types"
)

// ErrSelfTest is returned by [Engine.SelfTest] when the engine produces an
// unexpected result for its built-in sample.
var ErrSelfTest = errors.New("compare: self-test failed")

var selfTestSample = struct {
	original, user string
	want           types.TextComparison
}{
	original: "the quick brown fox jumps over the lazy dog",
	user:     "the quick brown fox jumped over the lazy dog",
	want: types.TextComparison{
		OriginalRange: types.NewRange(20, 24),
		OriginalText:  "jumps",
		UserRange:     types.NewRange(20, 25),
		UserText:      "jumped",
	},
}

// SelfTest compares a fixed sample with the engine's settings and checks the
// outcome. Readiness probes use it. Nothing is recorded in metrics.
func (e *Engine) SelfTest(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("compare: self-test: %w", err)
	}
	res := e.compare(ctx, selfTestSample.original, selfTestSample.user)
	if res.Gated {
		return fmt.Errorf("%w: sample was gated at similarity %.2f", ErrSelfTest, res.Similarity)
	}
	if len(res.Comparisons) != 1 {
		return fmt.Errorf("%w: got %d spans, want 1", ErrSelfTest, len(res.Comparisons))
	}
	if got := res.Comparisons[0]; got != selfTestSample.want {
		return fmt.Errorf("%w: got %+v, want %+v", ErrSelfTest, got, selfTestSample.want)
	}
	return nil
}
