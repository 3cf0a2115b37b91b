package model

import "github.com/jsphweid/bmsdex/rational"

// LayLongNote writes the segments of a long note held from start in bar
// startBar to end in bar endBar. Bars strictly between the two get a
// pass-through Span. get must return the bar for a number, creating it if
// the caller's bar set is sparse.
func LayLongNote(get func(number int) *Bar, lane, startBar int, start Note, endBar int, end Note) {
	first := get(startBar)
	first.LongNotes[lane] = append(first.LongNotes[lane], StartSegment(start.Timing, start.Sample))
	if startBar == endBar {
		first.LongNotes[lane] = append(first.LongNotes[lane],
			SpanSegment(start.Timing, end.Timing, true, true),
			EndSegment(end.Timing, end.Sample),
		)
		return
	}
	first.LongNotes[lane] = append(first.LongNotes[lane], SpanSegment(start.Timing, rational.One, true, false))
	for n := startBar + 1; n < endBar; n++ {
		b := get(n)
		b.LongNotes[lane] = append(b.LongNotes[lane], SpanSegment(rational.Zero, rational.One, false, false))
	}
	last := get(endBar)
	last.LongNotes[lane] = append(last.LongNotes[lane],
		SpanSegment(rational.Zero, end.Timing, false, true),
		EndSegment(end.Timing, end.Sample),
	)
}

// LayOpenLongNote closes a long note that never ends at the end of its bar.
func LayOpenLongNote(bar *Bar, lane int, start Note) {
	bar.LongNotes[lane] = append(bar.LongNotes[lane],
		StartSegment(start.Timing, start.Sample),
		SpanSegment(start.Timing, rational.One, true, false),
	)
}

// LayOrphanEnd draws the tail of a long note whose head is not in the chart.
// It draws a Span from the bar start up to end plus the End, rather than a
// full-bar continuation Span, so nothing is drawn past the note's end.
func LayOrphanEnd(bar *Bar, lane int, end Note) {
	bar.LongNotes[lane] = append(bar.LongNotes[lane],
		SpanSegment(rational.Zero, end.Timing, false, true),
		EndSegment(end.Timing, end.Sample),
	)
}
