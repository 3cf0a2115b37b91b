package replay

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/jsphweid/bmsdex/constants"
	"github.com/jsphweid/bmsdex/model"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// ErrUnsupportedOption is returned for a random option with no lane mapping.
var ErrUnsupportedOption = errors.New("unsupported random option")

// identity is the lane mapping of the normal and mirror options.
var identity = []int{0, 1, 2, 3, 4, 5, 6}

// LaneOfKeycode maps a keylog keycode to a lane: 0-6 are keys one to seven
// and 7 is the scratch.
func LaneOfKeycode(code int64) (int, bool) {
	switch {
	case code == 7:
		return model.ScratchLane, true
	case code >= 0 && code < 7:
		return int(code) + 1, true
	}
	return 0, false
}

// MaxDecodedSize caps the decompressed size of a replay file.
var MaxDecodedSize int64 = constants.MaxReplaySize

// Decode reads a gzip compressed replay file. A file inflating past
// MaxDecodedSize is rejected without reading the rest.
func Decode(r io.Reader) (*model.ReplayRecord, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, &FormatError{Msg: "not a gzip stream", Err: err}
	}
	defer zr.Close()
	raw, err := io.ReadAll(io.LimitReader(zr, MaxDecodedSize+1))
	if err != nil {
		return nil, &FormatError{Msg: "reading replay", Err: err}
	}
	if int64(len(raw)) > MaxDecodedSize {
		return nil, &FormatError{Msg: fmt.Sprintf("replay inflates past %d bytes", MaxDecodedSize)}
	}
	return DecodeJSON(raw)
}

// DecodeBytes is Decode over an in-memory file.
func DecodeBytes(raw []byte) (*model.ReplayRecord, error) {
	return Decode(bytes.NewReader(raw))
}

// DecodeJSON reads the uncompressed replay document. A keylog entry without
// a keycode is keycode 0; one without "pressed" is a release.
func DecodeJSON(raw []byte) (*model.ReplayRecord, error) {
	if !gjson.ValidBytes(raw) {
		return nil, &FormatError{Msg: "replay is not valid JSON"}
	}
	doc := gjson.ParseBytes(raw)

	rec := &model.ReplayRecord{
		SHA256:       doc.Get("sha256").String(),
		RandomOption: model.RandomOption(doc.Get("randomoption").Int()),
	}
	if rec.SHA256 == "" {
		return nil, &FormatError{Msg: "missing sha256"}
	}
	keylog := doc.Get("keylog")
	if !keylog.IsArray() {
		return nil, &FormatError{Msg: "missing keylog"}
	}

	var ferr error
	index := -1
	keylog.ForEach(func(_, key gjson.Result) bool {
		index++
		t := key.Get("time")
		if !t.Exists() {
			ferr = &FormatError{Msg: "keylog entry without time", Index: index}
			return false
		}
		lane, ok := LaneOfKeycode(key.Get("keycode").Int())
		if !ok {
			rec.Skipped++
			return true
		}
		rec.Keylog = append(rec.Keylog, model.KeyInputEvent{
			Lane:    lane,
			Time:    t.Int(),
			Pressed: key.Get("pressed").Bool(),
		})
		return true
	})
	if ferr != nil {
		return nil, ferr
	}

	doc.Get("pattern").ForEach(func(_, block gjson.Result) bool {
		var modify []int
		block.Get("modify").ForEach(func(_, v gjson.Result) bool {
			modify = append(modify, int(v.Int()))
			return true
		})
		rec.Pattern = append(rec.Pattern, modify)
		return true
	})
	return rec, nil
}

// Modify returns the key lane mapping in effect for a record.
func Modify(rec *model.ReplayRecord) ([]int, error) {
	switch rec.RandomOption {
	case model.RandomNormal, model.RandomMirror:
		res := make([]int, len(identity))
		copy(res, identity)
		return res, nil
	case model.RandomRandom:
		if len(rec.Pattern) == 0 {
			return nil, &FormatError{Msg: "random option without pattern"}
		}
		modify := rec.Pattern[0]
		if !isPermutation(modify) {
			return nil, &FormatError{Msg: "pattern is not a permutation of the seven keys"}
		}
		return modify, nil
	}
	return nil, errors.Wrapf(ErrUnsupportedOption, "option %d", int(rec.RandomOption))
}

func isPermutation(modify []int) bool {
	if len(modify) != len(identity) {
		return false
	}
	var seen [7]bool
	for _, v := range modify {
		if v < 0 || v >= len(seen) || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}
