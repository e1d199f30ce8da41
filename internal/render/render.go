// Package render formats comparison results for a terminal.
package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/muesli/termenv"

	"github.com/MrWong99/dictacheck/internal/batch"
	"github.com/MrWong99/dictacheck/internal/compare"
	"github.com/MrWong99/dictacheck/pkg/types"
)

// gapMark stands in for an empty span so the position stays visible.
const gapMark = "‸"

// Option is a functional option for configuring a [Renderer].
type Option func(*Renderer)

// WithColor enables or disables ANSI styling. By default it follows the
// capabilities of the output.
func WithColor(enabled bool) Option {
	return func(r *Renderer) {
		r.noColor = !enabled
	}
}

// WithMarkers wraps every highlighted span in brackets, which keeps the
// spans visible when colour is off.
func WithMarkers(enabled bool) Option {
	return func(r *Renderer) {
		r.markers = enabled
	}
}

// Renderer turns results into styled text.
type Renderer struct {
	re      *lipgloss.Renderer
	noColor bool
	markers bool

	label    lipgloss.Style
	original lipgloss.Style
	user     lipgloss.Style
	muted    lipgloss.Style
}

// New returns a [Renderer] styled for output written to w.
func New(w io.Writer, opts ...Option) *Renderer {
	r := &Renderer{re: lipgloss.NewRenderer(w)}
	for _, o := range opts {
		o(r)
	}
	if r.noColor {
		r.re.SetColorProfile(termenv.Ascii)
	}

	r.label = r.re.NewStyle().Bold(true)
	r.original = r.re.NewStyle().Foreground(lipgloss.Color("2")).Underline(true)
	r.user = r.re.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	r.muted = r.re.NewStyle().Foreground(lipgloss.Color("8"))
	return r
}

// Result renders res as the two texts with their spans highlighted,
// followed by a one-line summary.
func (r *Renderer) Result(res *compare.Result) string {
	var b strings.Builder

	b.WriteString(r.label.Render("original:"))
	b.WriteString(" ")
	b.WriteString(r.highlight(res.Original, res.Comparisons, originalSide, r.original))
	b.WriteString("\n")
	b.WriteString(r.label.Render("typed:   "))
	b.WriteString(" ")
	b.WriteString(r.highlight(res.User, res.Comparisons, userSide, r.user))
	b.WriteString("\n")
	b.WriteString(r.muted.Render(Summary(res)))
	b.WriteString("\n")
	return b.String()
}

// Batch renders the closing line of a batch run.
func (r *Renderer) Batch(sum batch.Summary) string {
	return r.muted.Render(BatchSummary(sum)) + "\n"
}

type side int

const (
	originalSide side = iota
	userSide
)

func (r *Renderer) highlight(text string, comparisons []types.TextComparison, s side, style lipgloss.Style) string {
	runes := []rune(text)
	var b strings.Builder
	pos := 0
	for _, c := range comparisons {
		rg := c.OriginalRange
		if s == userSide {
			rg = c.UserRange
		}
		start := min(max(rg.InitialIndex, pos), len(runes))
		end := min(rg.FinalIndex+1, len(runes))

		b.WriteString(string(runes[pos:start]))
		span := gapMark
		if end > start {
			span = string(runes[start:end])
		}
		if r.markers {
			span = "[" + span + "]"
		}
		b.WriteString(style.Render(span))
		pos = max(pos, end)
	}
	b.WriteString(string(runes[pos:]))
	return b.String()
}

// Summary describes res in one line, e.g.
// "5 of 6 words correct (83%), 1 substitution, WER 16.7%".
func Summary(res *compare.Result) string {
	if res.Gated {
		return fmt.Sprintf("texts differ too much to compare word by word (similarity %s%%)",
			humanize.FormatFloat("#.", res.Similarity*100))
	}
	if res.Stats == nil {
		return "nothing to compare"
	}
	st := res.Stats
	parts := []string{
		fmt.Sprintf("%s of %s words correct (%s%%)",
			humanize.Comma(int64(st.Matches)),
			humanize.Comma(int64(st.ReferenceWords)),
			humanize.FormatFloat("#.", st.Accuracy()*100)),
	}
	if st.Substitutions > 0 {
		parts = append(parts, english.Plural(st.Substitutions, "substitution", ""))
	}
	if st.Deletions > 0 {
		parts = append(parts, english.Plural(st.Deletions, "missing word", ""))
	}
	if st.Insertions > 0 {
		parts = append(parts, english.Plural(st.Insertions, "extra word", ""))
	}
	parts = append(parts, "WER "+humanize.FormatFloat("#.#", st.WER()*100)+"%")
	return strings.Join(parts, ", ")
}

// BatchSummary describes a finished batch run in one line.
func BatchSummary(sum batch.Summary) string {
	return fmt.Sprintf("%s %s compared, %s failed, %s %s in %s",
		humanize.Comma(int64(sum.Items)), english.PluralWord(sum.Items, "item", ""),
		humanize.Comma(int64(sum.Failed)),
		humanize.Comma(int64(sum.Discrepancies)), english.PluralWord(sum.Discrepancies, "discrepancy", "discrepancies"),
		sum.Duration.Round(time.Millisecond),
	)
}
