package file

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jsphweid/bmsdex/constants"
	"github.com/jsphweid/bmsdex/model"
	"github.com/pkg/errors"
)

func CreateFileNumMap(paths []string) model.FileNumToChartPath {
	res := make(model.FileNumToChartPath)
	for i, v := range paths {
		res[uint32(i)] = v
	}
	return res
}

// IsChart reports whether path has a chart file extension.
func IsChart(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range constants.ChartExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// FindCharts lists the chart files under root in lexical order. maxNum
// caps the result; zero means no cap.
func FindCharts(root string, maxNum int) ([]string, error) {
	var res []string
	walk := func(s string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && IsChart(s) {
			res = append(res, s)
		}
		return nil
	}
	if err := filepath.WalkDir(root, walk); err != nil {
		return nil, errors.Wrapf(err, "walking %s", root)
	}
	sort.Strings(res)
	if maxNum > 0 && len(res) > maxNum {
		res = res[:maxNum]
	}
	return res, nil
}

type Digest struct {
	SHA256 string
	MD5    string
}

// Hash digests the raw bytes of a chart file, the keys songs are looked up
// by.
func Hash(raw []byte) Digest {
	s := sha256.Sum256(raw)
	m := md5.Sum(raw)
	return Digest{SHA256: hex.EncodeToString(s[:]), MD5: hex.EncodeToString(m[:])}
}
