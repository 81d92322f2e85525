package text

import (
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/termenv"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const Ellipsis = "…"

// Normalize text to aid in the filtering process. In particular, we remove
// diacritics, "ö" becomes "o", and fold case. Note that Mn is the unicode key
// for nonspacing marks.
func Normalize(in string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, in)
	if err != nil {
		out = in
	}
	return cases.Fold().String(out)
}

// Contains is a case and diacritic insensitive substring match. An empty
// needle matches everything.
func Contains(haystack, needle string) bool {
	needle = strings.TrimSpace(needle)
	if needle == "" {
		return true
	}
	return strings.Contains(Normalize(haystack), Normalize(needle))
}

// Highlight underlines the first match of needle in haystack. Matching runs
// on the normalized text, which keeps rune positions because only
// combining marks are dropped.
func Highlight(haystack, needle string, style termenv.Style) string {
	needle = strings.TrimSpace(needle)
	if needle == "" {
		return style.Styled(haystack)
	}

	hay := []rune(haystack)
	folded := make([]string, len(hay))
	for i, r := range hay {
		folded[i] = Normalize(string(r))
	}
	target := Normalize(needle)

	for start := range hay {
		var b strings.Builder
		for end := start; end < len(hay); end++ {
			b.WriteString(folded[end])
			if !strings.HasPrefix(target, b.String()) {
				break
			}
			if b.String() == target {
				return style.Styled(string(hay[:start])) +
					style.Underline().Styled(string(hay[start:end+1])) +
					style.Styled(string(hay[end+1:]))
			}
		}
	}
	return style.Styled(haystack)
}

func TruncateWithTail(txt string, width uint, ellipsis string) string {
	return truncate.StringWithTail(txt, width, ellipsis)
}

// PadRight pads s with spaces to width terminal cells.
func PadRight(s string, width int) string {
	return runewidth.FillRight(runewidth.Truncate(s, width, Ellipsis), width)
}
