package model

import (
	"sort"

	"github.com/jsphweid/bmsdex/rational"
)

type LongNoteMode uint8

const (
	LongNoteDisabled LongNoteMode = iota
	LongNoteMarkerPair
	LongNoteObjectID
)

func (m LongNoteMode) String() string {
	switch m {
	case LongNoteMarkerPair:
		return "lntype"
	case LongNoteObjectID:
		return "lnobj"
	}
	return "disabled"
}

type TempoDefinition struct {
	Order int     `json:"order"`
	BPM   float64 `json:"bpm"`
}

type SampleDefinition struct {
	Order    int    `json:"order"`
	Resource string `json:"wav"`
}

type StopDefinition struct {
	Order int `json:"order"`
	Units int `json:"value"`
}

type Bar struct {
	Number     int
	Beat       rational.Rational
	Notes      [NumLanes][]Note
	LongNotes  [NumLanes][]LongNoteSegment
	Background []Note
	Tempo      []TempoChangeEvent
	Stops      []StopEvent
}

func NewBar(number int) *Bar {
	return &Bar{Number: number, Beat: rational.One}
}

// Sort orders every lane and the tempo and stop sequences by timing. The
// background lane keeps insertion order.
func (b *Bar) Sort() {
	for i := range b.Notes {
		notes := b.Notes[i]
		sort.SliceStable(notes, func(x, y int) bool {
			return notes[x].Timing.Less(notes[y].Timing)
		})
		segs := b.LongNotes[i]
		sort.SliceStable(segs, func(x, y int) bool {
			c := segs[x].Position().Cmp(segs[y].Position())
			if c != 0 {
				return c < 0
			}
			return segs[x].Kind < segs[y].Kind
		})
	}
	sort.SliceStable(b.Tempo, func(x, y int) bool {
		return b.Tempo[x].Timing.Less(b.Tempo[y].Timing)
	})
	sort.SliceStable(b.Stops, func(x, y int) bool {
		return b.Stops[x].Timing.Less(b.Stops[y].Timing)
	})
}

func (b *Bar) IsEmpty() bool {
	for i := range b.Notes {
		if len(b.Notes[i]) > 0 || len(b.LongNotes[i]) > 0 {
			return false
		}
	}
	return len(b.Background) == 0 && len(b.Tempo) == 0 && len(b.Stops) == 0
}

type Chart struct {
	Title     string
	Genre     string
	Artist    string
	PlayLevel string
	BPM       float64

	TempoTable  map[int]TempoDefinition
	SampleTable map[int]SampleDefinition
	StopTable   map[int]StopDefinition

	LongNoteMode    LongNoteMode
	LongNoteObjects map[int]bool

	// Bars is dense: Bars[i].Number == i.
	Bars []*Bar

	// Warnings collects non-fatal data quality findings.
	Warnings []string
}

func NewChart() *Chart {
	return &Chart{
		TempoTable:      make(map[int]TempoDefinition),
		SampleTable:     make(map[int]SampleDefinition),
		StopTable:       make(map[int]StopDefinition),
		LongNoteObjects: make(map[int]bool),
	}
}

// Bar returns nil for numbers outside the chart.
func (c *Chart) Bar(number int) *Bar {
	if number < 0 || number >= len(c.Bars) {
		return nil
	}
	return c.Bars[number]
}

// BeatOf is the length of bar number, 1 for bars past the end.
func (c *Chart) BeatOf(number int) rational.Rational {
	if b := c.Bar(number); b != nil {
		return b.Beat
	}
	return rational.One
}

// NoteCount counts playable objects: ordinary notes plus long note heads.
func (c *Chart) NoteCount() int {
	total := 0
	for _, b := range c.Bars {
		for lane := range b.Notes {
			total += len(b.Notes[lane])
			for _, s := range b.LongNotes[lane] {
				if s.Kind == SegmentStart {
					total++
				}
			}
		}
	}
	return total
}

func (c *Chart) LongNoteCount() int {
	total := 0
	for _, b := range c.Bars {
		for lane := range b.LongNotes {
			for _, s := range b.LongNotes[lane] {
				if s.Kind == SegmentStart {
					total++
				}
			}
		}
	}
	return total
}
