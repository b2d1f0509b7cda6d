package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Segment is an audience category (school division) scoping which bulletins
// a user context may retrieve.
type Segment string

// Segment vocabulary. SegmentGeneral is the implicit catch-all applied when
// a filename carries no recognizable tag; it matches every filter.
const (
	SegmentEI      Segment = "EI"
	SegmentAI      Segment = "AI"
	SegmentAF      Segment = "AF"
	SegmentEM      Segment = "EM"
	SegmentGeneral Segment = "General"
)

// segmentLabels maps abbreviations to the school's division names.
var segmentLabels = map[Segment]string{
	SegmentEI:      "Ensino Infantil",
	SegmentAI:      "Anos Iniciais",
	SegmentAF:      "Anos Finais",
	SegmentEM:      "Ensino Médio",
	SegmentGeneral: "Geral",
}

// Vocabulary returns the filterable segments, excluding the wildcard.
func Vocabulary() []Segment {
	return []Segment{SegmentEI, SegmentAI, SegmentAF, SegmentEM}
}

// Label returns the human-readable division name for a segment.
func (s Segment) Label() string {
	if l, ok := segmentLabels[s]; ok {
		return l
	}
	return string(s)
}

// ParseSegment validates a user-supplied filter value against the vocabulary.
func ParseSegment(v string) (Segment, error) {
	s := Segment(strings.ToUpper(strings.TrimSpace(v)))
	for _, known := range Vocabulary() {
		if s == known {
			return s, nil
		}
	}
	return "", fmt.Errorf("segment %q: %w", v, ErrInvalidSegment)
}

// delimiterPairs are the surroundings under which a segment abbreviation in
// a filename counts as a real tag rather than a substring of another word.
var delimiterPairs = [][2]string{
	{" ", " "},
	{"-", "-"},
	{" ", "("},
	{"_", "_"},
	{" ", "."},
}

// edgeDelimiters close a tag that sits at the very start or end of the
// name, where the name boundary supplies the outer side of the pair
// ("AI-AF", "Boletim-AF-AI").
var edgeDelimiters = []string{"-", "_"}

// TagFilename derives audience segments from a bulletin filename.
//
// The name is lower-cased, stripped of its .pdf extension, and padded with
// spaces so that leading and trailing abbreviations see a delimiter on both
// sides. An abbreviation tags the document when it appears inside one of
// the known delimiter pairs, or anchored at a name boundary next to a
// hyphen or underscore; this deliberately under-matches names like "Maio"
// (which contains "ai") instead of over-matching them. When nothing
// matches, the document gets the wildcard General tag.
func TagFilename(name string) []Segment {
	base := strings.ToLower(name)
	base = strings.TrimSuffix(base, ".pdf")
	padded := " " + base + " "

	var tags []Segment
	for _, s := range Vocabulary() {
		if tagMatches(padded, base, strings.ToLower(string(s))) {
			tags = append(tags, s)
		}
	}
	if len(tags) == 0 {
		return []Segment{SegmentGeneral}
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

func tagMatches(padded, base, abbr string) bool {
	for _, pair := range delimiterPairs {
		if strings.Contains(padded, pair[0]+abbr+pair[1]) {
			return true
		}
	}
	for _, d := range edgeDelimiters {
		if strings.HasPrefix(base, abbr+d) || strings.HasSuffix(base, d+abbr) {
			return true
		}
	}
	return false
}
