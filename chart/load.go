package chart

import (
	"bytes"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/jsphweid/bmsdex/model"
	"github.com/pkg/errors"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

type Encoding string

const (
	EncodingAuto     Encoding = "auto"
	EncodingUTF8     Encoding = "utf-8"
	EncodingShiftJIS Encoding = "shift_jis"
)

func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return EncodingAuto, nil
	case "utf-8", "utf8":
		return EncodingUTF8, nil
	case "shift_jis", "shift-jis", "sjis", "cp932":
		return EncodingShiftJIS, nil
	}
	return "", errors.Errorf("unknown chart encoding %q", s)
}

// Decode turns raw chart bytes into text. Auto keeps valid UTF-8 as is and
// reads anything else as Shift_JIS.
func Decode(raw []byte, enc Encoding) (string, error) {
	if enc == EncodingAuto {
		if utf8.Valid(raw) {
			enc = EncodingUTF8
		} else {
			enc = EncodingShiftJIS
		}
	}
	switch enc {
	case EncodingUTF8:
		return string(raw), nil
	case EncodingShiftJIS:
		out, _, err := transform.Bytes(japanese.ShiftJIS.NewDecoder(), raw)
		if err != nil {
			return "", errors.Wrap(err, "decoding shift_jis")
		}
		return string(out), nil
	}
	return "", errors.Errorf("unknown chart encoding %q", enc)
}

// ParseBytes decodes and parses raw chart bytes.
func ParseBytes(raw []byte, enc Encoding) (*model.Chart, error) {
	text, err := Decode(raw, enc)
	if err != nil {
		return nil, err
	}
	return Parse(bytes.NewBufferString(text))
}

// Load reads and parses the chart at path. A failure to read the file comes
// back as *LoadError; a malformed chart as *FormatError.
func Load(path string, enc Encoding) (*model.Chart, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	c, err := ParseBytes(raw, enc)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	return c, nil
}
