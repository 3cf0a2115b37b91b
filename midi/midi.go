package midi

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/jsphweid/bmsdex/model"
	"github.com/jsphweid/bmsdex/timeline"
	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
	"gitlab.com/gomidi/quantizer/lib/quantizer"
)

// ExportBPM is the tempo written to every exported file. Event times are
// real milliseconds, so the chart's own tempo changes need no meta events.
const ExportBPM = 120.0

// TapLength is how long a plain note sounds.
const TapLength = 60 * time.Millisecond

const velocity = 100

// LaneKeys gives each lane a key: the scratch on C2, keys one to seven on
// the white keys from middle C.
var LaneKeys = [model.NumLanes]uint8{36, 60, 62, 64, 65, 67, 69, 71}

type event struct {
	at    time.Duration
	order int
	msg   midi.Message
}

func ms(v float64) time.Duration {
	return time.Duration(v * float64(time.Millisecond))
}

func build(name string, events []event) (*smf.SMF, error) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].at != events[j].at {
			return events[i].at < events[j].at
		}
		return events[i].order < events[j].order
	})

	file := smf.New()
	clock := file.TimeFormat.(smf.MetricTicks)
	track := smf.Track{}
	track.Add(0, smf.MetaTrackSequenceName(name))
	track.Add(0, smf.MetaTempo(ExportBPM))

	var last uint32
	for _, ev := range events {
		tick := clock.Ticks(ExportBPM, ev.at)
		track.Add(tick-last, ev.msg)
		last = tick
	}
	track.Close(0)
	if err := file.Add(track); err != nil {
		return nil, errors.Wrap(err, "adding track")
	}
	return file, nil
}

// ExportChart renders the playable notes of a chart as one track. Long
// notes hold their key from head to tail.
func ExportChart(c *model.Chart, tl *timeline.Timeline) (*smf.SMF, error) {
	var events []event
	for lane := 0; lane < model.NumLanes; lane++ {
		key := LaneKeys[lane]
		var held *time.Duration
		for _, b := range c.Bars {
			for _, n := range b.Notes[lane] {
				at, err := tl.MS(b.Number, n.Timing)
				if err != nil {
					return nil, errors.Wrapf(err, "bar %d lane %d", b.Number, lane)
				}
				events = append(events,
					event{at: ms(at), order: 1, msg: midi.NoteOn(0, key, velocity)},
					event{at: ms(at) + TapLength, order: 0, msg: midi.NoteOff(0, key)},
				)
			}
			for _, s := range b.LongNotes[lane] {
				if s.Kind == model.SegmentSpan {
					continue
				}
				at, err := tl.MS(b.Number, s.Timing)
				if err != nil {
					return nil, errors.Wrapf(err, "bar %d lane %d", b.Number, lane)
				}
				switch {
				case s.Kind == model.SegmentStart:
					start := ms(at)
					held = &start
				case held != nil:
					events = append(events,
						event{at: *held, order: 1, msg: midi.NoteOn(0, key, velocity)},
						event{at: ms(at), order: 0, msg: midi.NoteOff(0, key)},
					)
					held = nil
				}
			}
		}
		if held != nil {
			events = append(events,
				event{at: *held, order: 1, msg: midi.NoteOn(0, key, velocity)},
				event{at: ms(tl.Length()), order: 0, msg: midi.NoteOff(0, key)},
			)
		}
	}
	name := c.Title
	if name == "" {
		name = "chart"
	}
	return build(name, events)
}

// ExportReplay writes the raw key log: every press and release as it was
// recorded.
func ExportReplay(rec *model.ReplayRecord) (*smf.SMF, error) {
	events := make([]event, 0, len(rec.Keylog))
	for i, k := range rec.Keylog {
		if k.Lane < 0 || k.Lane >= model.NumLanes {
			return nil, errors.Errorf("keylog entry %d: lane %d out of range", i, k.Lane)
		}
		if k.Time < 0 {
			return nil, errors.Errorf("keylog entry %d: negative time %d", i, k.Time)
		}
		ev := event{at: time.Duration(k.Time) * time.Millisecond, order: i}
		if k.Pressed {
			ev.msg = midi.NoteOn(0, LaneKeys[k.Lane], velocity)
		} else {
			ev.msg = midi.NoteOff(0, LaneKeys[k.Lane])
		}
		events = append(events, ev)
	}
	return build(fmt.Sprintf("replay %s", rec.SHA256), events)
}

// Quantize snaps the notes of s to the grid of ExportBPM.
func Quantize(s *smf.SMF) (*smf.SMF, error) {
	var in, out bytes.Buffer
	if _, err := s.WriteTo(&in); err != nil {
		return nil, errors.Wrap(err, "writing midi for quantization")
	}
	if err := quantizer.Quantize(&in, &out); err != nil {
		return nil, errors.Wrap(err, "quantizing")
	}
	res, err := smf.ReadFrom(&out)
	if err != nil {
		return nil, errors.Wrap(err, "reading quantized midi")
	}
	return res, nil
}

// Read loads a midi file. The smf reader panics on some broken files, that
// is turned into an error too.
func Read(path string) (s *smf.SMF, e error) {
	defer func() {
		if r := recover(); r != nil {
			s, e = nil, errors.Errorf("parsing midi file %s: %v", path, r)
		}
	}()

	dat, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading midi file")
	}
	res, err := smf.ReadFrom(bytes.NewReader(dat))
	if err != nil {
		return nil, errors.Wrap(err, "parsing midi file")
	}
	return res, nil
}
