package chart

import (
	"encoding/json"
	"io"
	"sort"

	"github.com/jsphweid/bmsdex/model"
	"github.com/jsphweid/bmsdex/rational"
	"golang.org/x/exp/maps"
)

type noteJSON struct {
	Timing rational.Rational `json:"timing"`
	Defwav int               `json:"defwav"`
}

type tempoJSON struct {
	Timing rational.Rational `json:"timing"`
	BPM    float64           `json:"bpm"`
}

type stopJSON struct {
	Timing   rational.Rational `json:"timing"`
	Duration rational.Rational `json:"duration"`
}

type segmentJSON struct {
	Kind    string             `json:"kind"`
	Timing  *rational.Rational `json:"timing,omitempty"`
	Defwav  int                `json:"defwav,omitempty"`
	From    *rational.Rational `json:"from,omitempty"`
	To      *rational.Rational `json:"to,omitempty"`
	IsStart bool               `json:"is_start,omitempty"`
	IsEnd   bool               `json:"is_end,omitempty"`
}

type barJSON struct {
	Number       int               `json:"number"`
	Background   []noteJSON        `json:"background"`
	BPM          []tempoJSON       `json:"bpm"`
	Beat         rational.Rational `json:"beat"`
	Stop         []stopJSON        `json:"stop"`
	NotesScratch []noteJSON        `json:"notes_scratch"`
	NotesOne     []noteJSON        `json:"notes_one"`
	NotesTwo     []noteJSON        `json:"notes_two"`
	NotesThree   []noteJSON        `json:"notes_three"`
	NotesFour    []noteJSON        `json:"notes_four"`
	NotesFive    []noteJSON        `json:"notes_five"`
	NotesSix     []noteJSON        `json:"notes_six"`
	NotesSeven   []noteJSON        `json:"notes_seven"`

	LongNotesScratch []segmentJSON `json:"longnotes_scratch,omitempty"`
	LongNotesOne     []segmentJSON `json:"longnotes_one,omitempty"`
	LongNotesTwo     []segmentJSON `json:"longnotes_two,omitempty"`
	LongNotesThree   []segmentJSON `json:"longnotes_three,omitempty"`
	LongNotesFour    []segmentJSON `json:"longnotes_four,omitempty"`
	LongNotesFive    []segmentJSON `json:"longnotes_five,omitempty"`
	LongNotesSix     []segmentJSON `json:"longnotes_six,omitempty"`
	LongNotesSeven   []segmentJSON `json:"longnotes_seven,omitempty"`
}

type chartJSON struct {
	Title string                   `json:"title"`
	Genre string                   `json:"genre"`
	BPM   float64                  `json:"bpm"`
	ExBPM []model.TempoDefinition  `json:"exbpm"`
	Wav   []model.SampleDefinition `json:"wav"`
	Stop  []model.StopDefinition   `json:"stop"`
	Bars  []barJSON                `json:"bars"`
}

func notesJSON(notes []model.Note) []noteJSON {
	res := make([]noteJSON, 0, len(notes))
	for _, n := range notes {
		res = append(res, noteJSON{Timing: n.Timing, Defwav: n.Sample})
	}
	return res
}

func segmentsJSON(segs []model.LongNoteSegment) []segmentJSON {
	if len(segs) == 0 {
		return nil
	}
	res := make([]segmentJSON, 0, len(segs))
	for _, s := range segs {
		s := s
		out := segmentJSON{Kind: s.Kind.String()}
		switch s.Kind {
		case model.SegmentStart, model.SegmentEnd:
			out.Timing = &s.Timing
			out.Defwav = s.Sample
		case model.SegmentSpan:
			out.From = &s.From
			out.To = &s.To
			out.IsStart = s.IsStart
			out.IsEnd = s.IsEnd
		}
		res = append(res, out)
	}
	return res
}

func encodeBar(b *model.Bar) barJSON {
	out := barJSON{
		Number:     b.Number,
		Background: notesJSON(b.Background),
		BPM:        make([]tempoJSON, 0, len(b.Tempo)),
		Beat:       b.Beat,
		Stop:       make([]stopJSON, 0, len(b.Stops)),
	}
	for _, t := range b.Tempo {
		out.BPM = append(out.BPM, tempoJSON{Timing: t.Timing, BPM: t.BPM})
	}
	for _, s := range b.Stops {
		out.Stop = append(out.Stop, stopJSON{Timing: s.Timing, Duration: s.Duration})
	}
	lanes := [model.NumLanes]*[]noteJSON{
		&out.NotesScratch, &out.NotesOne, &out.NotesTwo, &out.NotesThree,
		&out.NotesFour, &out.NotesFive, &out.NotesSix, &out.NotesSeven,
	}
	longLanes := [model.NumLanes]*[]segmentJSON{
		&out.LongNotesScratch, &out.LongNotesOne, &out.LongNotesTwo, &out.LongNotesThree,
		&out.LongNotesFour, &out.LongNotesFive, &out.LongNotesSix, &out.LongNotesSeven,
	}
	for lane := 0; lane < model.NumLanes; lane++ {
		*lanes[lane] = notesJSON(b.Notes[lane])
		*longLanes[lane] = segmentsJSON(b.LongNotes[lane])
	}
	return out
}

func sortedByOrder[T any](m map[int]T) []T {
	keys := maps.Keys(m)
	sort.Ints(keys)
	res := make([]T, 0, len(keys))
	for _, k := range keys {
		res = append(res, m[k])
	}
	return res
}

// MarshalJSON renders the chart in the interchange layout.
func MarshalJSON(c *model.Chart) ([]byte, error) {
	return json.Marshal(toJSON(c))
}

// WriteJSON writes the interchange layout to w, indented.
func WriteJSON(w io.Writer, c *model.Chart) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(toJSON(c))
}

func toJSON(c *model.Chart) chartJSON {
	out := chartJSON{
		Title: c.Title,
		Genre: c.Genre,
		BPM:   c.BPM,
		ExBPM: sortedByOrder(c.TempoTable),
		Wav:   sortedByOrder(c.SampleTable),
		Stop:  sortedByOrder(c.StopTable),
		Bars:  make([]barJSON, 0, len(c.Bars)),
	}
	for _, b := range c.Bars {
		out.Bars = append(out.Bars, encodeBar(b))
	}
	return out
}
