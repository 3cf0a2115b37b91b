package replay

import (
	"bytes"
	"compress/gzip"
	"errors"
	"strings"
	"testing"

	"github.com/jsphweid/bmsdex/chart"
	"github.com/jsphweid/bmsdex/model"
	"github.com/jsphweid/bmsdex/rational"
	"github.com/jsphweid/bmsdex/timeline"
	"github.com/stretchr/testify/assert"
)

func gzipped(t *testing.T, doc string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(doc)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func setup(t *testing.T, text string) (*model.Chart, *timeline.Timeline) {
	t.Helper()
	c, err := chart.ParseString(text)
	if err != nil {
		t.Fatal(err)
	}
	tl, err := timeline.Build(c)
	if err != nil {
		t.Fatal(err)
	}
	return c, tl
}

func record(events ...model.KeyInputEvent) *model.ReplayRecord {
	return &model.ReplayRecord{SHA256: "abc", Keylog: events}
}

func press(lane int, ms int64) model.KeyInputEvent {
	return model.KeyInputEvent{Lane: lane, Time: ms, Pressed: true}
}

func release(lane int, ms int64) model.KeyInputEvent {
	return model.KeyInputEvent{Lane: lane, Time: ms}
}

const threeBars = "#BPM 120\n#00211:01\n"

func TestDecode(t *testing.T) {
	raw := gzipped(t, `{
		"sha256": "deadbeef",
		"randomoption": 2,
		"pattern": [{"modify": [6,5,4,3,2,1,0]}],
		"keylog": [
			{"time": 10, "pressed": true},
			{"keycode": 7, "time": 20, "pressed": true},
			{"keycode": 9, "time": 25, "pressed": true},
			{"keycode": 0, "time": 30},
			{"keycode": 7, "time": 40, "pressed": false}
		]
	}`)
	rec, err := DecodeBytes(raw)

	assert := assert.New(t)
	assert.NoError(err)
	assert.Equal("deadbeef", rec.SHA256)
	assert.Equal(model.RandomRandom, rec.RandomOption)
	assert.Equal(1, rec.Skipped)
	assert.Equal([]model.KeyInputEvent{
		{Lane: 1, Time: 10, Pressed: true},
		{Lane: 0, Time: 20, Pressed: true},
		{Lane: 1, Time: 30},
		{Lane: 0, Time: 40},
	}, rec.Keylog)
	assert.Equal([][]int{{6, 5, 4, 3, 2, 1, 0}}, rec.Pattern)
}

func TestDecodeRejectsPlainJSON(t *testing.T) {
	_, err := DecodeBytes([]byte(`{"sha256": "x", "keylog": []}`))

	var ferr *FormatError
	assert.True(t, errors.As(err, &ferr))
}

func TestDecodeCapsInflatedSize(t *testing.T) {
	defer func(n int64) { MaxDecodedSize = n }(MaxDecodedSize)
	MaxDecodedSize = 1024

	doc := `{"sha256": "abc", "keylog": []}`
	padded := doc + strings.Repeat(" ", 1<<20)
	_, err := DecodeBytes(gzipped(t, padded))

	var ferr *FormatError
	assert := assert.New(t)
	assert.True(errors.As(err, &ferr))
	assert.Contains(ferr.Msg, "1024 bytes")

	rec, err := DecodeBytes(gzipped(t, doc+strings.Repeat(" ", 1024-len(doc))))
	assert.NoError(err)
	assert.Equal("abc", rec.SHA256)
}

func TestModify(t *testing.T) {
	cases := []struct {
		name    string
		rec     model.ReplayRecord
		want    []int
		wantErr error
	}{
		{"normal", model.ReplayRecord{RandomOption: model.RandomNormal}, []int{0, 1, 2, 3, 4, 5, 6}, nil},
		{"mirror", model.ReplayRecord{RandomOption: model.RandomMirror}, []int{0, 1, 2, 3, 4, 5, 6}, nil},
		{"random", model.ReplayRecord{
			RandomOption: model.RandomRandom,
			Pattern:      [][]int{{3, 1, 0, 6, 5, 2, 4}},
		}, []int{3, 1, 0, 6, 5, 2, 4}, nil},
		{"other", model.ReplayRecord{RandomOption: 4}, nil, ErrUnsupportedOption},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Modify(&tc.rec)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestModifyRejectsBrokenPattern(t *testing.T) {
	_, err := Modify(&model.ReplayRecord{
		RandomOption: model.RandomRandom,
		Pattern:      [][]int{{0, 0, 1, 2, 3, 4, 5}},
	})

	var ferr *FormatError
	assert.True(t, errors.As(err, &ferr))
}

func TestShortHoldIsTap(t *testing.T) {
	c, tl := setup(t, threeBars)
	r, err := Reconstruct(c, tl, record(press(1, 1000), release(1, 1090)), DefaultThresholds)

	assert := assert.New(t)
	assert.NoError(err)
	bar := r.Bar(0)
	assert.Len(bar.Notes[1], 1)
	assert.True(bar.Notes[1][0].Timing.Equal(rational.New(1, 2)))
	assert.Empty(bar.LongNotes[1])
}

func TestLongHoldIsLongNote(t *testing.T) {
	c, tl := setup(t, threeBars)
	r, err := Reconstruct(c, tl, record(press(1, 1000), release(1, 1101)), DefaultThresholds)

	assert := assert.New(t)
	assert.NoError(err)
	bar := r.Bar(0)
	assert.Empty(bar.Notes[1])
	assert.Equal([]model.LongNoteSegment{
		model.StartSegment(rational.New(1, 2), 0),
		model.SpanSegment(rational.New(1, 2), rational.New(1101, 2000), true, true),
		model.EndSegment(rational.New(1101, 2000), 0),
	}, bar.LongNotes[1])
}

func TestScratchUsesItsOwnThreshold(t *testing.T) {
	c, tl := setup(t, threeBars)
	r, err := Reconstruct(c, tl, record(press(0, 1000), release(0, 1300)), DefaultThresholds)

	assert := assert.New(t)
	assert.NoError(err)
	assert.Len(r.Bar(0).Notes[0], 1)
}

func TestLongNoteAcrossBars(t *testing.T) {
	c, tl := setup(t, threeBars)
	r, err := Reconstruct(c, tl, record(press(3, 1000), release(3, 4500)), DefaultThresholds)

	assert := assert.New(t)
	assert.NoError(err)
	assert.Equal([]model.LongNoteSegment{
		model.StartSegment(rational.New(1, 2), 0),
		model.SpanSegment(rational.New(1, 2), rational.One, true, false),
	}, r.Bar(0).LongNotes[3])
	assert.Equal([]model.LongNoteSegment{
		model.SpanSegment(rational.Zero, rational.One, false, false),
	}, r.Bar(1).LongNotes[3])
	assert.Equal([]model.LongNoteSegment{
		model.SpanSegment(rational.Zero, rational.New(1, 4), false, true),
		model.EndSegment(rational.New(1, 4), 0),
	}, r.Bar(2).LongNotes[3])
	assert.Len(r.Bars(), 3)
}

func TestBarsAreSparse(t *testing.T) {
	c, tl := setup(t, threeBars)
	r, err := Reconstruct(c, tl, record(press(2, 4000), release(2, 4010)), DefaultThresholds)

	assert := assert.New(t)
	assert.NoError(err)
	assert.Len(r.Bars(), 1)
	assert.Equal(2, r.Bars()[0].Number)
	assert.True(r.Bar(0).IsEmpty())
	assert.True(r.Bar(40).IsEmpty())
}

func TestDuplicatePress(t *testing.T) {
	c, tl := setup(t, threeBars)
	_, err := Reconstruct(c, tl, record(press(1, 100), press(1, 200)), DefaultThresholds)

	var ferr *FormatError
	assert.True(t, errors.As(err, &ferr))
	assert.Equal(t, "duplicate press", ferr.Msg)
}

func TestReleaseWithoutPress(t *testing.T) {
	c, tl := setup(t, threeBars)
	_, err := Reconstruct(c, tl, record(release(4, 100)), DefaultThresholds)

	var ferr *FormatError
	assert.True(t, errors.As(err, &ferr))
}

func TestKeylogPastChartEndTruncates(t *testing.T) {
	c, tl := setup(t, "#BPM 120\n#00011:01\n")
	r, err := Reconstruct(c, tl, record(
		press(1, 500), release(1, 510),
		press(2, 1900), release(2, 2500),
		press(1, 3000), release(1, 3010),
	), DefaultThresholds)

	assert := assert.New(t)
	assert.NoError(err)
	assert.True(r.Truncated)
	assert.Equal(1, r.Unreleased)
	assert.Len(r.Bar(0).Notes[1], 1)
	assert.Empty(r.Bar(0).LongNotes[2])
}

func TestTapsOnSamePositionAreIntegrityError(t *testing.T) {
	c, tl := setup(t, "#BPM 120\n#STOP01 96\n#00009:0001\n")
	_, err := Reconstruct(c, tl, record(
		press(5, 1000), release(5, 1010),
		press(5, 1100), release(5, 1110),
	), DefaultThresholds)

	var integrity *timeline.IntegrityError
	assert.True(t, errors.As(err, &integrity))
	assert.Equal(t, 5, integrity.Lane)
}

func TestUnsupportedOptionStopsReconstruction(t *testing.T) {
	c, tl := setup(t, threeBars)
	rec := record(press(1, 0), release(1, 10))
	rec.RandomOption = 3
	_, err := Reconstruct(c, tl, rec, DefaultThresholds)

	assert.ErrorIs(t, err, ErrUnsupportedOption)
}
