package fatura

import (
	"regexp"
	"strings"

	"github.com/cloudflare/ahocorasick"

	"github.com/topsol/fatura-copel/utils"
)

// RawLine is one trimmed line of the document and its zero-based line number.
type RawLine struct {
	Text  string
	Index int
}

// BlockMarkers delimit the invoice items table.
type BlockMarkers struct {
	Start string
	End   string
}

func (m BlockMarkers) valid() bool {
	return strings.TrimSpace(m.Start) != "" && strings.TrimSpace(m.End) != ""
}

// BlockSource records which rule produced the items block.
type BlockSource string

const (
	BlockPrimary  BlockSource = "primary"
	BlockFallback BlockSource = "fallback"
	BlockDocument BlockSource = "document"
)

// SplitLines splits span into non-empty, trimmed lines. firstIndex is the line
// number of the first line of span inside the whole document.
func SplitLines(span string, firstIndex int) []RawLine {
	var lines []RawLine
	for i, l := range strings.Split(span, "\n") {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		lines = append(lines, RawLine{Text: l, Index: firstIndex + i})
	}
	return lines
}

// FindLines returns every line of text containing any of keywords, except lines
// containing any of exclusions. Both comparisons ignore case and accents.
func FindLines(text string, keywords, exclusions []string) []RawLine {
	include := newMatcher(keywords)
	if include == nil {
		return nil
	}
	exclude := newMatcher(exclusions)

	var lines []RawLine
	for _, l := range SplitLines(text, 0) {
		label := []byte(utils.NormalizeLabel(l.Text))
		if len(include.Match(label)) == 0 {
			continue
		}
		if exclude != nil && len(exclude.Match(label)) > 0 {
			continue
		}
		lines = append(lines, l)
	}
	return lines
}

// newMatcher builds a fresh automaton; ahocorasick.Matcher mutates internal
// counters on Match, so one is built per call instead of shared.
func newMatcher(patterns []string) *ahocorasick.Matcher {
	var cleaned []string
	for _, p := range patterns {
		p = utils.NormalizeLabel(strings.TrimSpace(p))
		if p != "" {
			cleaned = append(cleaned, p)
		}
	}
	if len(cleaned) == 0 {
		return nil
	}
	return ahocorasick.NewStringMatcher(cleaned)
}

// LocateBlock returns the inclusive span between the first start marker and the
// first end marker after it. When the primary pair is missing it tries fallback,
// and when both fail it returns the whole document.
func LocateBlock(text string, primary, fallback BlockMarkers) (string, BlockSource) {
	from, to, source := locate(text, primary, fallback)
	return text[from:to], source
}

// BlockLines locates the items block and splits it into lines numbered as in text.
func BlockLines(text string, primary, fallback BlockMarkers) ([]RawLine, BlockSource) {
	from, to, source := locate(text, primary, fallback)
	return SplitLines(text[from:to], strings.Count(text[:from], "\n")), source
}

func locate(text string, primary, fallback BlockMarkers) (int, int, BlockSource) {
	if from, to, ok := findBlock(text, primary); ok {
		return from, to, BlockPrimary
	}
	if from, to, ok := findBlock(text, fallback); ok {
		return from, to, BlockFallback
	}
	return 0, len(text), BlockDocument
}

// findBlock widens the marker span to whole lines so the first and last rows of
// the table are kept intact.
func findBlock(text string, m BlockMarkers) (int, int, bool) {
	if !m.valid() {
		return 0, 0, false
	}
	start, startEnd := indexFold(text, m.Start, 0)
	if start < 0 {
		return 0, 0, false
	}
	_, stop := indexFold(text, m.End, startEnd)
	if stop < 0 {
		return 0, 0, false
	}
	if nl := strings.IndexByte(text[stop:], '\n'); nl >= 0 {
		stop += nl
	} else {
		stop = len(text)
	}
	from := strings.LastIndexByte(text[:start], '\n') + 1
	return from, stop, true
}

// indexFold is a case-insensitive search for marker starting at byte offset from.
// It returns the match bounds, or -1, -1.
func indexFold(text, marker string, from int) (int, int) {
	if from > len(text) {
		return -1, -1
	}
	re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(strings.TrimSpace(marker)))
	loc := re.FindStringIndex(text[from:])
	if loc == nil {
		return -1, -1
	}
	return from + loc[0], from + loc[1]
}
