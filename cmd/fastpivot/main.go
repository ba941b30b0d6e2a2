// Command fastpivot ingests one or more files of concatenated JSON
// objects and prints the debtor equivalence classes formed by unioning
// on shared phone numbers.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/go-fastpivot/fastpivot/pipeline"
	"github.com/go-fastpivot/fastpivot/render"
)

// progressEvery is §6's PRN_COUNT.
const progressEvery = 100000

// channelCapacity is §4.E's default sync-mode channel capacity C.
const channelCapacity = 1000

func main() {
	cfg, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	opts := pipeline.Options{
		Workers:       cfg.Workers,
		Mode:          cfg.Mode,
		Capacity:      channelCapacity,
		ProgressEvery: progressEvery,
		OnProgress: func(file string, tid int, processed uint64) {
			render.Progress(os.Stdout, tid, processed)
		},
		OnFileDone: func(file string, processed, errs uint64, elapsed time.Duration) {
			render.FileBanner(os.Stdout, file, processed, errs, elapsed.Seconds())
		},
		OnFileError: func(file string, err error) {
			fmt.Fprintf(os.Stderr, "%s: %v\n", file, err)
		},
	}

	result, _, err := pipeline.Run(cfg.Files, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	render.Nodes(os.Stdout, result)
}
