package timeline

import (
	"fmt"
	"math"
	"sort"

	"github.com/jsphweid/bmsdex/model"
	"github.com/jsphweid/bmsdex/rational"
	"github.com/pkg/errors"
)

var (
	// ErrNoMoreBar is returned for a time or position past the end of the
	// chart. Replay readers take it as the end of the chart.
	ErrNoMoreBar = errors.New("no more bar")
	// ErrBeforeChart is returned for a negative time.
	ErrBeforeChart = errors.New("before chart start")
)

// IsRangeError reports whether err is one of the out-of-chart conditions.
func IsRangeError(err error) bool {
	return errors.Is(err, ErrNoMoreBar) || errors.Is(err, ErrBeforeChart)
}

// IntegrityError reports two events of one lane landing on the same or
// reversed time.
type IntegrityError struct {
	Bar   int
	Lane  int
	Value string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("bar %d lane %d: non increasing time at %s", e.Bar, e.Lane, e.Value)
}

// msPerMeasure is the length of one bar unit (four beats) at one BPM.
var msPerMeasure = rational.Int(240000)

// msPerBeat is 60000/bpm, in the exact form used for stops.
func msPerBeat(tempo rational.Rational) rational.Rational {
	return rational.Int(60000).Div(tempo)
}

// Window is a stretch of time with one tempo, or a stop when Stop is set.
// StartBar and StartBeat give where it begins, StartBeat being a fraction
// of the bar.
type Window struct {
	StartBar  int
	StartBeat rational.Rational
	BPM       float64
	StartMS   int64
	EndMS     int64
	Stop      bool

	resume bool
	tempo  rational.Rational
	offset rational.Rational // exact start in ms
	at     rational.Rational // bar units from the chart start
}

type Timeline struct {
	chart     *model.Chart
	windows   []Window
	barStart  []rational.Rational
	endOffset rational.Rational
	lanes     [model.NumLanes][]float64
	laneBars  [model.NumLanes][]int
}

// Build derives the timeline of c and checks that every lane's notes come
// out strictly increasing in time.
func Build(c *model.Chart) (*Timeline, error) {
	if c.BPM <= 0 {
		return nil, errors.Errorf("non-positive base tempo %g", c.BPM)
	}
	t := &Timeline{chart: c}

	t.barStart = make([]rational.Rational, len(c.Bars)+1)
	for i, b := range c.Bars {
		t.barStart[i+1] = t.barStart[i].Add(b.Beat)
	}

	tempo := rational.FromFloat(c.BPM)
	offset := rational.Zero
	t.windows = append(t.windows, Window{BPM: c.BPM, tempo: tempo})

	for _, b := range c.Bars {
		last := rational.Zero
		advance := func(to rational.Rational) {
			offset = offset.Add(to.Sub(last).Mul(b.Beat).Mul(msPerMeasure).Div(tempo))
			last = to
		}
		open := func(w Window) {
			w.StartBar = b.Number
			w.offset = offset
			w.at = t.barStart[b.Number].Add(w.StartBeat.Mul(b.Beat))
			t.windows = append(t.windows, w)
		}

		for _, ev := range barEvents(b) {
			advance(ev.timing)
			if ev.stop == nil {
				tempo = rational.FromFloat(ev.bpm)
				open(Window{StartBeat: ev.timing, BPM: ev.bpm, tempo: tempo})
				continue
			}
			bpm := t.windows[len(t.windows)-1].BPM
			open(Window{StartBeat: ev.timing, BPM: bpm, tempo: tempo, Stop: true})
			offset = offset.Add(ev.stop.Duration.Mul(msPerBeat(tempo)))
			open(Window{StartBeat: ev.timing, BPM: bpm, tempo: tempo, resume: true})
		}
		advance(rational.One)
	}
	t.endOffset = offset

	for i := range t.windows {
		t.windows[i].StartMS = ceil(t.windows[i].offset)
	}
	for i := range t.windows {
		if i+1 < len(t.windows) {
			t.windows[i].EndMS = t.windows[i+1].StartMS - 1
		} else {
			t.windows[i].EndMS = ceil(t.endOffset) - 1
		}
	}

	if err := t.buildLanes(); err != nil {
		return nil, err
	}
	return t, nil
}

type barEvent struct {
	timing rational.Rational
	bpm    float64
	stop   *model.StopEvent
}

// barEvents merges tempo changes and stops; at one timing the tempo change
// comes first so the stop runs at the new tempo.
func barEvents(b *model.Bar) []barEvent {
	res := make([]barEvent, 0, len(b.Tempo)+len(b.Stops))
	for _, ev := range b.Tempo {
		res = append(res, barEvent{timing: ev.Timing, bpm: ev.BPM})
	}
	for i := range b.Stops {
		res = append(res, barEvent{timing: b.Stops[i].Timing, stop: &b.Stops[i]})
	}
	sort.SliceStable(res, func(i, j int) bool {
		c := res[i].timing.Cmp(res[j].timing)
		if c != 0 {
			return c < 0
		}
		return res[i].stop == nil && res[j].stop != nil
	})
	return res
}

func ceil(r rational.Rational) int64 {
	return -rational.Zero.Sub(r).Floor()
}

func (t *Timeline) Windows() []Window {
	return t.windows
}

// Length is the time at the end of the last bar.
func (t *Timeline) Length() float64 {
	return t.endOffset.Float64()
}

func (t *Timeline) absolute(bar int, timing rational.Rational) (rational.Rational, error) {
	if bar < 0 || bar >= len(t.chart.Bars) || timing.Sign() < 0 || rational.One.Less(timing) {
		return rational.Zero, ErrNoMoreBar
	}
	return t.barStart[bar].Add(timing.Mul(t.chart.Bars[bar].Beat)), nil
}

// exact returns the time of a position as an exact number of milliseconds.
// A position right on a stop is taken before the stop.
func (t *Timeline) exact(bar int, timing rational.Rational) (rational.Rational, error) {
	p, err := t.absolute(bar, timing)
	if err != nil {
		return rational.Zero, err
	}
	idx := sort.Search(len(t.windows), func(i int) bool {
		return t.windows[i].at.Cmp(p) > 0
	})
	for j := idx - 1; j >= 0; j-- {
		w := t.windows[j]
		if w.Stop || (w.resume && w.at.Equal(p)) {
			continue
		}
		return w.offset.Add(p.Sub(w.at).Mul(msPerMeasure).Div(w.tempo)), nil
	}
	return rational.Zero, ErrNoMoreBar
}

// MS is the absolute time of a position within a bar.
func (t *Timeline) MS(bar int, timing rational.Rational) (float64, error) {
	ms, err := t.exact(bar, timing)
	if err != nil {
		return 0, err
	}
	return ms.Float64(), nil
}

// Position maps a time back to a bar and a fraction of that bar. During a
// stop the position stays where the stop is.
func (t *Timeline) Position(ms int64) (int, rational.Rational, error) {
	if ms < 0 {
		return 0, rational.Zero, ErrBeforeChart
	}
	last := t.windows[len(t.windows)-1]
	if ms > last.EndMS {
		return 0, rational.Zero, ErrNoMoreBar
	}
	idx := sort.Search(len(t.windows), func(i int) bool {
		return t.windows[i].StartMS > ms
	}) - 1
	w := t.windows[idx]
	if w.Stop {
		return w.StartBar, w.StartBeat, nil
	}

	measures := rational.Int(ms).Sub(w.offset).Mul(w.tempo).Div(msPerMeasure)
	pos := w.StartBeat.Mul(t.chart.BeatOf(w.StartBar)).Add(measures)
	rem, carried := pos.CarryInto(func(i int) rational.Rational {
		return t.chart.BeatOf(w.StartBar + i)
	})
	bar := w.StartBar + carried
	return bar, rem.Div(t.chart.BeatOf(bar)), nil
}

// buildLanes collects, per lane, the time of every note and long note head.
func (t *Timeline) buildLanes() error {
	for lane := 0; lane < model.NumLanes; lane++ {
		var prev *rational.Rational
		for _, b := range t.chart.Bars {
			for _, timing := range laneTimings(b, lane) {
				ms, err := t.exact(b.Number, timing)
				if err != nil {
					return err
				}
				if prev != nil && !prev.Less(ms) {
					return &IntegrityError{Bar: b.Number, Lane: lane, Value: timing.String()}
				}
				p := ms
				prev = &p
				t.lanes[lane] = append(t.lanes[lane], ms.Float64())
				t.laneBars[lane] = append(t.laneBars[lane], b.Number)
			}
		}
	}
	return nil
}

func laneTimings(b *model.Bar, lane int) []rational.Rational {
	res := make([]rational.Rational, 0, len(b.Notes[lane]))
	for _, n := range b.Notes[lane] {
		res = append(res, n.Timing)
	}
	for _, s := range b.LongNotes[lane] {
		if s.Kind == model.SegmentStart {
			res = append(res, s.Timing)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].Less(res[j])
	})
	return res
}

// Lane returns the note times of a lane in milliseconds, in order.
func (t *Timeline) Lane(lane int) []float64 {
	return t.lanes[lane]
}

// LaneBars returns, for each time of Lane(lane), the bar it belongs to.
func (t *Timeline) LaneBars(lane int) []int {
	return t.laneBars[lane]
}

// Round is the millisecond rounding used for display and export.
func Round(ms float64) int64 {
	return int64(math.Round(ms))
}
