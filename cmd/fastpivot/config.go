package main

import (
	"fmt"
	"strconv"

	"github.com/go-fastpivot/fastpivot/dispatch"
)

// Config mirrors the teacher's Config/Validate/defaultConfig shape, but
// §6's grammar (bare "-t N", "sync"/"async" and filenames interleaved
// in any order) doesn't fit flag.FlagSet, so parseArgs below hand-rolls
// the scan the way the teacher's non-encoding/json token loops do for
// shapes the standard parser can't express.
type Config struct {
	Workers int
	Mode    dispatch.Mode
	ModeSet bool
	Files   []string
}

func (c Config) Validate() error {
	if len(c.Files) == 0 {
		return fmt.Errorf("usage error: no input files given")
	}
	if c.Workers > 0 && !c.ModeSet {
		return fmt.Errorf("usage error: -t %d requires a channel mode, sync or async", c.Workers)
	}
	return nil
}

func defaultConfig() Config {
	return Config{Workers: 0}
}

// parseArgs scans args left to right. "-t" consumes the following
// argument as the worker count; "sync"/"async" set the channel mode;
// everything else is treated as an input file path. Order does not
// matter, matching §6.
func parseArgs(args []string) (Config, error) {
	cfg := defaultConfig()

	for i := 0; i < len(args); i++ {
		a := args[i]
		switch a {
		case "-t":
			i++
			if i >= len(args) {
				return Config{}, fmt.Errorf("usage error: -t requires a value")
			}
			n, err := strconv.Atoi(args[i])
			if err != nil {
				return Config{}, fmt.Errorf("usage error: -t value %q is not an integer", args[i])
			}
			if n < 0 {
				return Config{}, fmt.Errorf("usage error: -t value %d must be >= 0", n)
			}
			cfg.Workers = n
		case "sync":
			cfg.Mode = dispatch.Sync
			cfg.ModeSet = true
		case "async":
			cfg.Mode = dispatch.Async
			cfg.ModeSet = true
		default:
			cfg.Files = append(cfg.Files, a)
		}
	}

	return cfg, nil
}
