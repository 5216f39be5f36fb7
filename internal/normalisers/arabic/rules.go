package arabic

import (
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	alef        = '\u0627'
	yaa         = '\u064A'
	haa         = '\u0647'
	alefMaqsura = '\u0649'
	taaMarbuta  = '\u0629'
	tatweel     = '\u0640'
	replacement = '\uFFFD'
	lineBreak   = '\n'
)

// alefVariants fold to a bare alef: hamza above, hamza below, madda, wasla.
var alefVariants = map[rune]bool{
	'\u0623': true,
	'\u0625': true,
	'\u0622': true,
	'\u0671': true,
}

// isDiacritic reports Arabic tashkeel and Quranic annotation marks.
func isDiacritic(r rune) bool {
	switch {
	case r >= '\u064B' && r <= '\u065F':
		return true
	case r == '\u0670':
		return true
	case r >= '\u0610' && r <= '\u061A':
		return true
	case r >= '\u06D6' && r <= '\u06ED':
		return true
	}
	return false
}

// isPresentationForm reports runes in the Arabic Presentation Forms-A and
// -B blocks, which NFKC maps back to base letters.
func isPresentationForm(r rune) bool {
	return (r >= '\uFB50' && r <= '\uFDFF') || (r >= '\uFE70' && r <= '\uFEFE')
}

// expand returns the compatibility decomposition of a presentation form,
// so a lam-alef ligature becomes lam followed by alef.
func expand(r rune) []rune {
	return []rune(norm.NFKC.String(string(r)))
}

// isHorizontalSpace reports whitespace other than the line terminator.
func isHorizontalSpace(r rune) bool {
	return r != lineBreak && unicode.IsSpace(r)
}

// isFormatControl reports invisible format characters such as bidi marks,
// zero-width joiners and byte order marks.
func isFormatControl(r rune) bool {
	return unicode.Is(unicode.Cf, r)
}

// isUnknown reports runes no rule can interpret: private use, unassigned
// code points and the replacement character left by a lossy decoder.
func isUnknown(r rune) bool {
	if r == replacement || unicode.Is(unicode.Co, r) {
		return true
	}
	return !unicode.In(r,
		unicode.L, unicode.M, unicode.N, unicode.P, unicode.S, unicode.Z,
		unicode.Cc, unicode.Cf, unicode.Cs)
}

// fold maps a single Arabic letter to its canonical form.
func (n *Normaliser) fold(r rune) rune {
	switch {
	case n.foldAlef && alefVariants[r]:
		return alef
	case n.foldYaa && r == alefMaqsura:
		return yaa
	case n.foldTaaMarbuta && r == taaMarbuta:
		return haa
	}
	return r
}
