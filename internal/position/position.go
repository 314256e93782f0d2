// Package position maps text-element offsets onto structural pointers.
//
// A host document can contain structural symbols (paragraph and run
// boundaries) that occupy position space without producing text. Moving a
// pointer forward by N units from the start can therefore land short of
// the N-th text element. Locate corrects for that by re-advancing by the
// remaining deficit until the counted text matches the target.
package position

import "github.com/dshills/matchstyle/internal/host"

// Document is the subset of a host document the mapper needs.
type Document interface {
	TextRangeLength(from, to host.Pointer) int
	ContentStart() host.Pointer
	ContentEnd() host.Pointer
	Advance(p host.Pointer, n int) host.Pointer
}

// MaxCorrections bounds the number of re-advance steps Locate performs
// before giving up and returning the content end.
const MaxCorrections = 4096

// TextElements returns the number of text elements between from and to.
func TextElements(doc Document, from, to host.Pointer) int {
	return doc.TextRangeLength(from, to)
}

// Offset returns the number of text elements from the content start to p.
func Offset(doc Document, p host.Pointer) int {
	return doc.TextRangeLength(doc.ContentStart(), p)
}

// Locate returns the pointer that sits target text elements after the
// content start.
//
// Targets at or below zero map to the content start, targets at or past the
// total element count map to the content end. Overshooting, a stalled
// advance, or failing to converge within MaxCorrections steps also map to
// the content end.
func Locate(doc Document, target int) host.Pointer {
	start := doc.ContentStart()
	if target <= 0 {
		return start
	}
	end := doc.ContentEnd()
	if target >= doc.TextRangeLength(start, end) {
		return end
	}

	p := doc.Advance(start, target)
	deficit := target - doc.TextRangeLength(start, p)

	for i := 0; deficit != 0; i++ {
		if deficit < 0 || i >= MaxCorrections {
			return end
		}
		next := doc.Advance(p, deficit)
		if next.Compare(p) == 0 {
			// Advance made no progress; the remaining units are unreachable.
			return end
		}
		p = next
		deficit = target - doc.TextRangeLength(start, p)
	}

	return p
}
