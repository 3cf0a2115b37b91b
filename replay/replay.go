package replay

import (
	"github.com/jsphweid/bmsdex/model"
	"github.com/jsphweid/bmsdex/rational"
	"github.com/jsphweid/bmsdex/timeline"
	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Thresholds are the longest holds, in ms, still read as a tap.
type Thresholds struct {
	Key     int64 `yaml:"key"`
	Scratch int64 `yaml:"scratch"`
}

var DefaultThresholds = Thresholds{Key: 100, Scratch: 400}

func (t Thresholds) forLane(lane int) int64 {
	if lane == model.ScratchLane {
		return t.Scratch
	}
	return t.Key
}

// Locator maps a time to a position in the chart.
type Locator interface {
	Position(ms int64) (int, rational.Rational, error)
}

// Replay is the player input laid out as bars. Only bars that received
// input exist.
type Replay struct {
	SHA256 string
	Modify []int
	// Truncated is set when the key log ran past the end of the chart.
	Truncated bool
	// Unreleased counts keys still held when the key log ended.
	Unreleased int

	chart *model.Chart
	bars  map[int]*model.Bar
}

// Bar returns bar number, or an empty bar when nothing was played in it.
func (r *Replay) Bar(number int) *model.Bar {
	if b, ok := r.bars[number]; ok {
		return b
	}
	b := model.NewBar(number)
	b.Beat = r.chart.BeatOf(number)
	return b
}

// Bars lists the bars that received input, by number.
func (r *Replay) Bars() []*model.Bar {
	numbers := maps.Keys(r.bars)
	slices.Sort(numbers)
	res := make([]*model.Bar, 0, len(numbers))
	for _, n := range numbers {
		res = append(res, r.bars[n])
	}
	return res
}

func (r *Replay) get(number int) *model.Bar {
	b, ok := r.bars[number]
	if !ok {
		b = model.NewBar(number)
		b.Beat = r.chart.BeatOf(number)
		r.bars[number] = b
	}
	return b
}

type keyState struct {
	pressed bool
	ms      int64
	bar     int
	timing  rational.Rational
}

// Reconstruct replays the key log of rec against the chart c, whose
// positions are looked up through loc. A hold no longer than the lane's
// threshold is a tap at the press position; a longer one is a long note
// from press to release. The key log running past the end of the chart
// stops reconstruction and marks the result Truncated.
func Reconstruct(c *model.Chart, loc Locator, rec *model.ReplayRecord, th Thresholds) (*Replay, error) {
	modify, err := Modify(rec)
	if err != nil {
		return nil, err
	}
	r := &Replay{
		SHA256: rec.SHA256,
		Modify: modify,
		chart:  c,
		bars:   make(map[int]*model.Bar),
	}

	var states [model.NumLanes]keyState
	for _, ev := range rec.Keylog {
		if ev.Lane < 0 || ev.Lane >= model.NumLanes {
			return nil, &FormatError{Msg: "lane out of range", Lane: ev.Lane, Time: ev.Time}
		}
		st := &states[ev.Lane]

		if ev.Pressed {
			if st.pressed {
				return nil, &FormatError{Msg: "duplicate press", Lane: ev.Lane, Time: ev.Time}
			}
			bar, timing, err := loc.Position(ev.Time)
			if errors.Is(err, timeline.ErrNoMoreBar) {
				r.Truncated = true
				break
			}
			if err != nil {
				return nil, errors.Wrapf(err, "press at %dms", ev.Time)
			}
			*st = keyState{pressed: true, ms: ev.Time, bar: bar, timing: timing}
			continue
		}

		if !st.pressed {
			return nil, &FormatError{Msg: "release without press", Lane: ev.Lane, Time: ev.Time}
		}
		head := model.Note{Timing: st.timing}
		if ev.Time-st.ms <= th.forLane(ev.Lane) {
			b := r.get(st.bar)
			b.Notes[ev.Lane] = append(b.Notes[ev.Lane], head)
			*st = keyState{}
			continue
		}
		endBar, endTiming, err := loc.Position(ev.Time)
		if errors.Is(err, timeline.ErrNoMoreBar) {
			r.Truncated = true
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "release at %dms", ev.Time)
		}
		model.LayLongNote(r.get, ev.Lane, st.bar, head, endBar, model.Note{Timing: endTiming})
		*st = keyState{}
	}

	for _, st := range states {
		if st.pressed {
			r.Unreleased++
		}
	}

	for _, n := range maps.Keys(r.bars) {
		b := r.bars[n]
		b.Sort()
		for lane, notes := range b.Notes {
			for i := 1; i < len(notes); i++ {
				if notes[i].Timing.Equal(notes[i-1].Timing) {
					return nil, &timeline.IntegrityError{Bar: n, Lane: lane, Value: notes[i].Timing.String()}
				}
			}
		}
	}
	return r, nil
}
