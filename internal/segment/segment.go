package segment

import (
	"slices"
	"strings"

	"github.com/rivo/uniseg"
)

// Segment is a contiguous span of text, tagged matched or unmatched.
// Start and Length are byte offsets into the segmented string.
type Segment struct {
	Start   int
	Length  int
	IsMatch bool
}

// End returns the offset just past the segment.
func (s Segment) End() int {
	return s.Start + s.Length
}

// Text returns the part of text covered by s.
func (s Segment) Text(text string) string {
	return text[s.Start:s.End()]
}

// Split segments text using p.
//
// The result is ordered by Start, gap free, and covers [0, len(text))
// exactly once. Zero-length matches are skipped, so no segment is empty.
// Empty text yields no segments; text without matches yields one
// unmatched segment.
//
// A match that starts or ends inside a grapheme cluster is widened to the
// enclosing cluster boundaries, so a decomposed "é" is never split between
// a styled and an unstyled run. A widened match that runs into the
// previous one is trimmed to start where the previous one ends.
func Split(text string, p *Pattern) []Segment {
	if text == "" {
		return nil
	}

	matches := p.re.FindAllStringIndex(text, -1)
	segs := make([]Segment, 0, 2*len(matches)+1)

	var bounds []int
	i := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		if start == end {
			continue
		}
		if bounds == nil {
			bounds = clusterBounds(text)
		}
		start, end = widen(bounds, start, end)
		start = max(start, i)
		if start >= end {
			continue
		}
		if start > i {
			segs = append(segs, Segment{Start: i, Length: start - i})
		}
		segs = append(segs, Segment{Start: start, Length: end - start, IsMatch: true})
		i = end
	}
	if i < len(text) {
		segs = append(segs, Segment{Start: i, Length: len(text) - i})
	}

	return segs
}

// clusterBounds returns the byte offsets of every grapheme cluster
// boundary in text, including 0 and len(text).
func clusterBounds(text string) []int {
	bounds := []int{0}
	rest, state, off := text, -1, 0
	for rest != "" {
		var cluster string
		cluster, rest, _, state = uniseg.StepString(rest, state)
		off += len(cluster)
		bounds = append(bounds, off)
	}
	return bounds
}

// widen moves start back and end forward to the nearest boundaries.
func widen(bounds []int, start, end int) (int, int) {
	if i, ok := slices.BinarySearch(bounds, start); !ok {
		start = bounds[i-1]
	}
	i, _ := slices.BinarySearch(bounds, end)
	return start, bounds[i]
}

// Join reassembles the text covered by segs.
func Join(text string, segs []Segment) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, s := range segs {
		b.WriteString(s.Text(text))
	}
	return b.String()
}

// Matches returns only the matched segments.
func Matches(segs []Segment) []Segment {
	var out []Segment
	for _, s := range segs {
		if s.IsMatch {
			out = append(out, s)
		}
	}
	return out
}

// KeepFunc reports whether a matched segment of text stays matched.
type KeepFunc func(text string, s Segment) bool

// Filter demotes the matches keep rejects to unmatched text, merging them
// with their unmatched neighbours. The result keeps the ordering and
// coverage guarantees of Split.
func Filter(text string, segs []Segment, keep KeepFunc) []Segment {
	if keep == nil {
		return segs
	}
	out := make([]Segment, 0, len(segs))
	for _, s := range segs {
		if s.IsMatch && !keep(text, s) {
			s.IsMatch = false
		}
		if n := len(out); n > 0 && !s.IsMatch && !out[n-1].IsMatch {
			out[n-1].Length += s.Length
			continue
		}
		out = append(out, s)
	}
	return out
}
