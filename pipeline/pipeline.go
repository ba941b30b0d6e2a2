// Package pipeline drives the whole process per §4.F: open each file,
// frame it, dispatch records across a worker pool (or run single
// threaded when N==0), fold per-worker partials, then fold per-file
// results into one global Debtors.
package pipeline

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-fastpivot/fastpivot/aggregate"
	"github.com/go-fastpivot/fastpivot/dispatch"
	"github.com/go-fastpivot/fastpivot/extract"
	"github.com/go-fastpivot/fastpivot/framer"
)

// Options configures a run.
type Options struct {
	Workers       int // 0 selects the single-threaded fast path
	Mode          dispatch.Mode
	Capacity      int
	ChunkSize     int
	ProgressEvery uint64

	OnProgress  func(file string, tid int, processed uint64)
	OnFileDone  func(file string, processed, errs uint64, elapsed time.Duration)
	OnFileError func(file string, err error)
}

// FileResult is one file's outcome, useful to callers that want
// per-file diagnostics beyond the aggregate result.
type FileResult struct {
	Path      string
	Processed uint64
	Errors    uint64
}

// Run processes every file in paths and returns the merged Debtors
// graph across all of them. A per-file open/read error is logged via
// OnFileError and that file is abandoned; the pipeline continues with
// the rest (§7).
func Run(paths []string, opts Options) (*aggregate.Debtors, []FileResult, error) {
	var result *aggregate.Debtors
	var fileResults []FileResult

	for _, path := range paths {
		start := time.Now()
		partial, processed, errs, err := runFile(path, opts)

		// A read error abandons the rest of the file, but whatever was
		// already framed and aggregated before the error is still real
		// data and must be folded in (§7: "partial results from a file
		// that errors mid-read are still folded into the global
		// result"). Only a file-open failure produces no partial at all.
		if partial != nil {
			fileResults = append(fileResults, FileResult{Path: path, Processed: processed, Errors: errs})
			if result == nil {
				result = partial
			} else {
				result.Merge(partial)
			}
		}

		if err != nil {
			if opts.OnFileError != nil {
				opts.OnFileError(path, err)
			}
			continue
		}
		if opts.OnFileDone != nil {
			opts.OnFileDone(path, processed, errs, time.Since(start))
		}
	}

	if result == nil {
		result = aggregate.New()
	}
	return result, fileResults, nil
}

func runFile(path string, opts Options) (*aggregate.Debtors, uint64, uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if opts.Workers == 0 {
		return runSingleThreaded(path, f, opts)
	}
	return runPooled(path, f, opts)
}

// runSingleThreaded is the N==0 fast path: framer -> extractor ->
// aggregator directly, with no channels or goroutines. Semantically
// identical to the N==1 pooled path (§4.F).
func runSingleThreaded(path string, r io.Reader, opts Options) (*aggregate.Debtors, uint64, uint64, error) {
	fr := framer.New(r, opts.ChunkSize)
	ex := extract.New()
	agg := aggregate.New()
	var processed, errs uint64
	for {
		obj, err := fr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return agg, processed, errs, fmt.Errorf("read %s: %w", path, err)
		}
		rec, err := ex.Extract(obj)
		if err != nil {
			errs++
			continue
		}
		agg.Insert(rec)
		processed++
		if opts.ProgressEvery > 0 && processed%opts.ProgressEvery == 0 && opts.OnProgress != nil {
			opts.OnProgress(path, 0, processed)
		}
	}
	return agg, processed, errs, nil
}

func runPooled(path string, r io.Reader, opts Options) (*aggregate.Debtors, uint64, uint64, error) {
	var onProgress func(tid int, processed uint64)
	if opts.OnProgress != nil {
		onProgress = func(tid int, processed uint64) { opts.OnProgress(path, tid, processed) }
	}
	pool := dispatch.NewPool(opts.Workers, opts.Mode, opts.Capacity, opts.ProgressEvery, onProgress)

	fr := framer.New(r, opts.ChunkSize)
	var readErr error
	for {
		obj, err := fr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			readErr = fmt.Errorf("read %s: %w", path, err)
			break
		}
		pool.Dispatch(obj)
	}

	results := pool.Shutdown()

	merged := aggregate.New()
	var processed, errs uint64
	for _, res := range results {
		merged.Merge(res.Partial)
		processed += res.Processed
		errs += res.Errors
	}
	if readErr != nil {
		return merged, processed, errs, readErr
	}
	return merged, processed, errs, nil
}
