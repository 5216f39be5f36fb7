// Package arabic provides the Arabic-aware text normaliser.
//
// Normalisation removes tashkeel and tatweel, unifies presentation forms and
// letter variants, drops invisible format characters and collapses
// horizontal whitespace. Rules apply rune by rune, so mixed Arabic and Latin
// lines need no script segmentation: Latin text only sees whitespace
// collapsing and is otherwise mapped by identity.
//
// Line terminators are always retained. Every extracted line therefore
// keeps at least one normalised rune, and a deleted rune can always be
// attributed to a retained neighbour on its own line.
package arabic

import (
	"context"

	"github.com/custodia-labs/sanad/internal/core/domain"
	"github.com/custodia-labs/sanad/internal/core/ports/driven"
	"github.com/custodia-labs/sanad/internal/logger"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

const unknownScriptReason = "unknown script: passed through unchanged"

// Normaliser normalises Arabic and mixed-script text.
type Normaliser struct {
	foldAlef       bool
	foldYaa        bool
	foldTaaMarbuta bool
}

// Option configures the normaliser.
type Option func(*Normaliser)

// WithAlefFolding toggles folding of أ إ آ ٱ to ا.
func WithAlefFolding(enabled bool) Option {
	return func(n *Normaliser) { n.foldAlef = enabled }
}

// WithYaaFolding toggles folding of ى to ي.
func WithYaaFolding(enabled bool) Option {
	return func(n *Normaliser) { n.foldYaa = enabled }
}

// WithTaaMarbutaFolding toggles folding of ة to ه.
func WithTaaMarbutaFolding(enabled bool) Option {
	return func(n *Normaliser) { n.foldTaaMarbuta = enabled }
}

// New creates a normaliser with every fold enabled.
func New(opts ...Option) *Normaliser {
	n := &Normaliser{foldAlef: true, foldYaa: true, foldTaaMarbuta: true}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalise returns the normalised text and its offset map. It never fails.
func (n *Normaliser) Normalise(_ context.Context, ext *domain.ExtractedText) *domain.NormalisedText {
	if ext == nil {
		return &domain.NormalisedText{Map: domain.IdentityOffsetMap(0)}
	}

	src := []rune(ext.Text)
	w := newWriter(len(src))
	for e, r := range src {
		n.apply(w, e, r)
	}
	w.finish()

	if len(w.warnings) > 0 {
		logger.Warn("normalise %s: %d span(s) of unknown script passed through unchanged",
			ext.DocumentID, len(w.warnings))
	}
	logger.Debug("normalise %s: %d runes -> %d runes", ext.DocumentID, len(src), len(w.out))

	return &domain.NormalisedText{
		Text:     string(w.out),
		Map:      domain.NewOffsetMap(w.forward, w.inverse),
		Warnings: w.warnings,
	}
}

// apply runs the rules for the extracted rune at offset e.
func (n *Normaliser) apply(w *writer, e int, r rune) {
	switch {
	case r == lineBreak:
		w.newline(e)
	case isHorizontalSpace(r):
		w.space(e)
	case isUnknown(r):
		w.emit(e, r)
		w.warn(e)
	case isPresentationForm(r):
		expanded := expand(r)
		if len(expanded) == 1 && expanded[0] == r {
			w.emit(e, r)
			return
		}
		for _, x := range expanded {
			n.apply(w, e, x)
		}
	case isDiacritic(r), r == tatweel, isFormatControl(r):
		// deleted
	default:
		w.emit(e, n.fold(r))
	}
}

// writer accumulates normalised runes and both directions of the map.
type writer struct {
	out      []rune
	forward  []int
	inverse  []int
	retained []bool
	warnings []domain.NormalisationWarning

	lineHasText  bool
	pendingSpace int
}

func newWriter(n int) *writer {
	inverse := make([]int, n)
	for i := range inverse {
		inverse[i] = -1
	}
	return &writer{
		out:          make([]rune, 0, n),
		forward:      make([]int, 0, n),
		inverse:      inverse,
		retained:     make([]bool, n),
		pendingSpace: -1,
	}
}

// emit appends a normalised rune derived from extracted offset e. A pending
// collapsed space is written first.
func (w *writer) emit(e int, r rune) {
	if w.pendingSpace >= 0 {
		w.put(w.pendingSpace, ' ')
		w.pendingSpace = -1
	}
	w.put(e, r)
	w.lineHasText = true
}

func (w *writer) put(e int, r rune) {
	if !w.retained[e] {
		w.retained[e] = true
		w.inverse[e] = len(w.out)
	}
	w.out = append(w.out, r)
	w.forward = append(w.forward, e)
}

// space records horizontal whitespace. A run becomes one space, written only
// if more text follows on the same line.
func (w *writer) space(e int) {
	if w.lineHasText && w.pendingSpace < 0 {
		w.pendingSpace = e
	}
}

func (w *writer) newline(e int) {
	w.pendingSpace = -1
	w.put(e, lineBreak)
	w.lineHasText = false
}

func (w *writer) warn(e int) {
	if k := len(w.warnings); k > 0 && w.warnings[k-1].End == e {
		w.warnings[k-1].End = e + 1
		return
	}
	w.warnings = append(w.warnings, domain.NormalisationWarning{Start: e, End: e + 1, Reason: unknownScriptReason})
}

// finish attributes every deleted rune to the previous retained rune on its
// line, or failing that to the next retained rune.
func (w *writer) finish() {
	prev := -1
	for e := range w.inverse {
		if w.retained[e] {
			prev = w.inverse[e]
		} else if prev >= 0 {
			w.inverse[e] = prev
		}
		if w.retained[e] && w.out[w.inverse[e]] == lineBreak {
			prev = -1
		}
	}

	next, last := -1, -1
	for e := len(w.inverse) - 1; e >= 0; e-- {
		switch {
		case w.retained[e]:
			next = w.inverse[e]
		case w.inverse[e] < 0:
			w.inverse[e] = next
		}
	}
	for e := range w.inverse {
		switch {
		case w.inverse[e] >= 0:
			last = w.inverse[e]
		case last >= 0:
			w.inverse[e] = last
		default:
			w.inverse[e] = 0
		}
	}
}

