package model

import "github.com/jsphweid/bmsdex/rational"

// NumLanes counts the scratch lane plus seven keys.
const NumLanes = 8

const ScratchLane = 0

// LaneNames follow the lane index: scratch first, then keys one to seven.
var LaneNames = [NumLanes]string{"scratch", "one", "two", "three", "four", "five", "six", "seven"}

type Note struct {
	Timing rational.Rational
	Sample int
}

type TempoChangeEvent struct {
	Timing rational.Rational
	BPM    float64
}

type StopEvent struct {
	Timing   rational.Rational
	Duration rational.Rational
}

type SegmentKind uint8

// Ordered so that a Start sorts before the Span it opens and an End sorts
// after the Span it closes when they share a position.
const (
	SegmentStart SegmentKind = iota
	SegmentSpan
	SegmentEnd
)

func (k SegmentKind) String() string {
	switch k {
	case SegmentStart:
		return "start"
	case SegmentSpan:
		return "span"
	case SegmentEnd:
		return "end"
	}
	return "unknown"
}

// LongNoteSegment is one visible piece of a long note inside a bar. Start
// and End use Timing and Sample; Span uses From, To, IsStart and IsEnd. A
// Span with neither IsStart nor IsEnd passes through the whole bar.
type LongNoteSegment struct {
	Kind    SegmentKind
	Timing  rational.Rational
	Sample  int
	From    rational.Rational
	To      rational.Rational
	IsStart bool
	IsEnd   bool
}

func StartSegment(timing rational.Rational, sample int) LongNoteSegment {
	return LongNoteSegment{Kind: SegmentStart, Timing: timing, Sample: sample}
}

func EndSegment(timing rational.Rational, sample int) LongNoteSegment {
	return LongNoteSegment{Kind: SegmentEnd, Timing: timing, Sample: sample}
}

func SpanSegment(from, to rational.Rational, isStart, isEnd bool) LongNoteSegment {
	return LongNoteSegment{Kind: SegmentSpan, From: from, To: to, IsStart: isStart, IsEnd: isEnd}
}

// Position is where the segment begins within its bar.
func (s LongNoteSegment) Position() rational.Rational {
	if s.Kind == SegmentSpan {
		return s.From
	}
	return s.Timing
}

// IsContinuation reports a Span crossing the bar with no head or tail.
func (s LongNoteSegment) IsContinuation() bool {
	return s.Kind == SegmentSpan && !s.IsStart && !s.IsEnd
}
