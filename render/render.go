// Package render formats a Debtors graph and worker progress to a
// writer, per §6's human-readable output format.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-fastpivot/fastpivot/aggregate"
)

// Separator is printed before each node's summary.
const Separator = "----------------------------------------"

// Nodes writes one block per live node: a separator line, then debt,
// companies, and phones.
func Nodes(w io.Writer, d *aggregate.Debtors) {
	for i, n := range d.Nodes() {
		fmt.Fprintln(w, Separator)
		fmt.Fprintf(w, "#%d: debt: %v\n", i, n.Debt)
		fmt.Fprintf(w, "companies: %s\n", strings.Join(aggregate.SortedCompanies(n), ", "))
		fmt.Fprintf(w, "phones: %s\n", strings.Join(aggregate.SortedPhones(n), ", "))
	}
}

// Progress writes a progress line for worker tid, indented two tabs per
// tid as the original implementation did.
func Progress(w io.Writer, tid int, count uint64) {
	fmt.Fprintf(w, "%s#%d: %d\n", strings.Repeat("\t", tid*2), tid, count)
}

// FileBanner writes the per-file summary line printed after a file
// finishes processing.
func FileBanner(w io.Writer, path string, processed, errs uint64, elapsedSeconds float64) {
	fmt.Fprintf(w, "file %s: processed %d objects in %.3fs, %d errors\n", path, processed, elapsedSeconds, errs)
}
