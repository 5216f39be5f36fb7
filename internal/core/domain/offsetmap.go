package domain

import "fmt"

// OffsetMap is the correspondence between normalised text and the extracted
// text it was derived from.
//
// Forward maps every normalised rune to the extracted rune it derives from.
// Inverse maps every extracted rune to a normalised rune: retained runes map
// to their first normalised rune, deleted runes to a retained neighbour on
// the same line. Both directions are monotonic and total.
type OffsetMap struct {
	forward []int
	inverse []int
}

// NewOffsetMap creates a map from its two directions.
func NewOffsetMap(forward, inverse []int) OffsetMap {
	return OffsetMap{forward: forward, inverse: inverse}
}

// IdentityOffsetMap returns the map for text that was not changed.
func IdentityOffsetMap(n int) OffsetMap {
	forward := make([]int, n)
	inverse := make([]int, n)
	for i := range forward {
		forward[i] = i
		inverse[i] = i
	}
	return OffsetMap{forward: forward, inverse: inverse}
}

// Len returns the length of the normalised text.
func (m OffsetMap) Len() int {
	return len(m.forward)
}

// SourceLen returns the length of the extracted text.
func (m OffsetMap) SourceLen() int {
	return len(m.inverse)
}

// Forward returns the extracted offset for a normalised offset.
// Out-of-range offsets are clamped.
func (m OffsetMap) Forward(n int) int {
	if len(m.forward) == 0 {
		return 0
	}
	return m.forward[clamp(n, len(m.forward))]
}

// Inverse returns the normalised offset for an extracted offset.
// Out-of-range offsets are clamped.
func (m OffsetMap) Inverse(e int) int {
	if len(m.inverse) == 0 {
		return 0
	}
	return m.inverse[clamp(e, len(m.inverse))]
}

// ForwardRange maps the normalised range [start, end) to an extracted range.
func (m OffsetMap) ForwardRange(start, end int) (int, int) {
	if end <= start || len(m.forward) == 0 {
		e := m.Forward(start)
		return e, e
	}
	return m.Forward(start), m.Forward(end-1) + 1
}

// Validate checks monotonicity, totality and round-trip consistency.
func (m OffsetMap) Validate() error {
	for n, e := range m.forward {
		if e < 0 || e >= len(m.inverse) {
			return fmt.Errorf("%w: forward[%d]=%d out of range", ErrIndexCorruption, n, e)
		}
		if n > 0 && e < m.forward[n-1] {
			return fmt.Errorf("%w: forward not monotonic at %d", ErrIndexCorruption, n)
		}
		if m.inverse[e] > n {
			return fmt.Errorf("%w: inverse[%d]=%d does not reach %d", ErrIndexCorruption, e, m.inverse[e], n)
		}
	}
	for e, n := range m.inverse {
		if len(m.forward) == 0 {
			break
		}
		if n < 0 || n >= len(m.forward) {
			return fmt.Errorf("%w: inverse[%d]=%d out of range", ErrIndexCorruption, e, n)
		}
		if e > 0 && n < m.inverse[e-1] {
			return fmt.Errorf("%w: inverse not monotonic at %d", ErrIndexCorruption, e)
		}
	}
	return nil
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// NormalisedText is the output of the Normaliser.
type NormalisedText struct {
	// Text is the normalised text.
	Text string

	// Map relates Text back to the extracted text.
	Map OffsetMap

	// Warnings lists extracted spans that were passed through unchanged
	// because no rule could apply to them.
	Warnings []NormalisationWarning
}

// NormalisationWarning records a soft normalisation failure over the
// extracted runes [Start, End).
type NormalisationWarning struct {
	Start  int
	End    int
	Reason string
}
