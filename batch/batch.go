package batch

import (
	"context"
	stderrors "errors"
	"os"
	"sync/atomic"
	"time"

	"github.com/bep/debounce"
	charmlog "github.com/charmbracelet/log"
	"github.com/jsphweid/bmsdex/chart"
	"github.com/jsphweid/bmsdex/file"
	"github.com/jsphweid/bmsdex/level"
	"github.com/jsphweid/bmsdex/model"
	"github.com/pkg/errors"
	"github.com/remeh/sizedwaitgroup"
)

// ProgressInterval throttles progress logging.
var ProgressInterval = 500 * time.Millisecond

type Result struct {
	Path   string
	Digest file.Digest
	Chart  *model.Chart
	Stats  level.Stats
	Err    error
}

// Song is the index row of a successfully scored chart.
func (r Result) Song() model.Song {
	return model.Song{
		SHA256:   r.Digest.SHA256,
		MD5:      r.Digest.MD5,
		Path:     r.Path,
		Title:    r.Chart.Title,
		Artist:   r.Chart.Artist,
		Genre:    r.Chart.Genre,
		Level:    r.Stats.Level,
		Notes:    r.Stats.Notes,
		LengthMS: r.Stats.LengthMS,
	}
}

// Score loads, hashes and scores one chart.
func Score(path string, enc chart.Encoding) Result {
	res := Result{Path: path}
	raw, err := os.ReadFile(path)
	if err != nil {
		res.Err = &chart.LoadError{Path: path, Err: err}
		return res
	}
	res.Digest = file.Hash(raw)
	res.Chart, err = chart.ParseBytes(raw, enc)
	if err != nil {
		res.Err = errors.Wrapf(err, "parsing %s", path)
		return res
	}
	res.Stats, err = level.Measure(res.Chart)
	if err != nil {
		res.Err = errors.Wrapf(err, "scoring %s", path)
	}
	return res
}

// Run scores every chart of fileNums with at most workers charts in
// flight. Results come back in file number order; the error joins every
// chart that failed.
func Run(ctx context.Context, fileNums model.FileNumToChartPath, workers int, enc chart.Encoding) ([]Result, error) {
	logger := charmlog.FromContext(ctx)
	total := len(fileNums)
	results := make([]Result, total)

	var done int64
	debounced := debounce.New(ProgressInterval)
	progress := func() {
		logger.Info("scoring charts", "done", atomic.LoadInt64(&done), "total", total)
	}

	wg := sizedwaitgroup.New(workers)
	for i := 0; i < total; i++ {
		if ctx.Err() != nil {
			break
		}
		wg.Add()
		go func(i int) {
			defer wg.Done()
			results[i] = Score(fileNums[uint32(i)], enc)
			atomic.AddInt64(&done, 1)
			debounced(progress)
		}(i)
	}
	wg.Wait()
	progress()

	var errs error
	for i := range results {
		if results[i].Path == "" {
			results[i] = Result{Path: fileNums[uint32(i)], Err: ctx.Err()}
		}
		if results[i].Err != nil {
			errs = stderrors.Join(errs, results[i].Err)
			logger.Warn("skipping chart", "path", results[i].Path, "err", results[i].Err)
			continue
		}
		for _, w := range results[i].Chart.Warnings {
			logger.Debug("chart warning", "path", results[i].Path, "warning", w)
		}
	}
	return results, errs
}
