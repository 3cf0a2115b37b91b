package midi

import (
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

func isEndOfTrack(m smf.Message) bool {
	return len(m) >= 2 && m[0] == 0xFF && m[1] == 0x2F
}

// Excerpt copies s from an offset on and keeps at most maxNotes note on/off
// messages per track, none when maxNotes is zero or less. Other messages
// before the offset are kept but squeezed to the start.
func Excerpt(s *smf.SMF, from time.Duration, maxNotes int) *smf.SMF {
	var res smf.SMF
	res.TimeFormat = s.TimeFormat
	var offset uint64
	if clock, ok := s.TimeFormat.(smf.MetricTicks); ok {
		offset = uint64(clock.Ticks(ExportBPM, from))
	}

	for _, track := range s.Tracks {
		var newTrack smf.Track
		var absTicks, last uint64
		var numNoteOnOff int
	TrackEventLoop:
		for _, evt := range track {
			absTicks += uint64(evt.Delta)
			switch {
			case midi.Message(evt.Message).Is(midi.NoteOnMsg), midi.Message(evt.Message).Is(midi.NoteOffMsg):
				if absTicks < offset {
					continue
				}
				if numNoteOnOff >= maxNotes {
					break TrackEventLoop
				}
				at := absTicks - offset
				evt.Delta = uint32(at - last)
				last = at
				newTrack = append(newTrack, evt)
				numNoteOnOff++
			case isEndOfTrack(evt.Message):
			default:
				if absTicks >= offset {
					at := absTicks - offset
					evt.Delta = uint32(at - last)
					last = at
				} else {
					evt.Delta = 0
				}
				newTrack = append(newTrack, evt)
			}
		}
		newTrack.Close(0)
		res.Tracks = append(res.Tracks, newTrack)
	}
	return &res
}
