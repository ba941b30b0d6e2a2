// Package aggregate folds DebtRec values into a Debtors graph that
// unions any records sharing a phone number into one node, and merges
// two such graphs together.
package aggregate

import (
	"sort"

	"github.com/go-fastpivot/fastpivot/extract"
)

// Debtor is one equivalence-class node: every company and phone folded
// into it, and the conserved sum of their debts.
type Debtor struct {
	Companies map[string]struct{}
	Phones    map[string]struct{}
	Debt      float64

	absorbed bool // tombstoned: merged into another node, excluded from output
}

// Debtors is the union-find-backed aggregate graph described in §3 and
// §4.C. It is not safe for concurrent use; each worker owns one.
type Debtors struct {
	all          []*Debtor
	indexByPhone map[string]int
}

// New returns an empty Debtors graph.
func New() *Debtors {
	return &Debtors{indexByPhone: make(map[string]int)}
}

// Insert folds one DebtRec into the graph, performing a full union of
// every node reachable from the record's phones (the "option (b)"
// resolution of the spec's transitive-union open question: see
// DESIGN.md). This keeps I1-I4 holding unconditionally rather than only
// for carefully ordered inputs.
func (d *Debtors) Insert(rec extract.DebtRec) {
	targets := d.distinctTargets(rec.Phones)

	var target int
	if len(targets) == 0 {
		target = len(d.all)
		d.all = append(d.all, &Debtor{
			Companies: make(map[string]struct{}),
			Phones:    make(map[string]struct{}),
		})
	} else {
		target = targets[0]
		for _, other := range targets[1:] {
			d.unionInto(target, other)
		}
	}

	node := d.all[target]
	node.Companies[rec.Company] = struct{}{}
	for _, p := range rec.Phones {
		node.Phones[p] = struct{}{}
		d.indexByPhone[p] = target
	}
	node.Debt += rec.Debt
}

// distinctTargets returns, in first-occurrence order, the distinct node
// indices already reachable via any of phones.
func (d *Debtors) distinctTargets(phones []string) []int {
	var targets []int
	seen := make(map[int]struct{})
	for _, p := range phones {
		idx, ok := d.indexByPhone[p]
		if !ok {
			continue
		}
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		targets = append(targets, idx)
	}
	return targets
}

// unionInto absorbs the node at index other into the node at index
// target: companies, phones, and debt are moved over, every phone
// pointer is redirected, and other is tombstoned.
func (d *Debtors) unionInto(target, other int) {
	if target == other {
		return
	}
	src := d.all[other]
	if src.absorbed {
		return
	}
	dst := d.all[target]
	for c := range src.Companies {
		dst.Companies[c] = struct{}{}
	}
	for p := range src.Phones {
		dst.Phones[p] = struct{}{}
		d.indexByPhone[p] = target
	}
	dst.Debt += src.Debt
	src.Companies = nil
	src.Phones = nil
	src.Debt = 0
	src.absorbed = true
}

// Merge folds every live node of other into d, preserving the
// equivalence relation, via the same generalized insertion §4.C and
// §4.D both rely on.
func (d *Debtors) Merge(other *Debtors) {
	if other == nil {
		return
	}
	for _, node := range other.all {
		if node.absorbed {
			continue
		}
		d.insertNode(node)
	}
}

// insertNode is Insert generalized to fold in an already-built node
// (companies/phones/debt) rather than a single DebtRec, used by Merge.
func (d *Debtors) insertNode(node *Debtor) {
	phones := make([]string, 0, len(node.Phones))
	for p := range node.Phones {
		phones = append(phones, p)
	}
	targets := d.distinctTargets(phones)

	var target int
	if len(targets) == 0 {
		target = len(d.all)
		d.all = append(d.all, &Debtor{
			Companies: make(map[string]struct{}),
			Phones:    make(map[string]struct{}),
		})
	} else {
		target = targets[0]
		for _, other := range targets[1:] {
			d.unionInto(target, other)
		}
	}

	dst := d.all[target]
	for c := range node.Companies {
		dst.Companies[c] = struct{}{}
	}
	for _, p := range phones {
		dst.Phones[p] = struct{}{}
		d.indexByPhone[p] = target
	}
	dst.Debt += node.Debt
}

// Nodes returns every live (non-tombstoned) node, in a stable order
// (insertion order among survivors). Per §5, node identity/ordering
// carries no meaning across runs; callers must only rely on the
// returned multiset of content.
func (d *Debtors) Nodes() []*Debtor {
	out := make([]*Debtor, 0, len(d.all))
	for _, n := range d.all {
		if !n.absorbed {
			out = append(out, n)
		}
	}
	return out
}

// TotalDebt sums every live node's debt, useful for verifying I4.
func (d *Debtors) TotalDebt() float64 {
	var total float64
	for _, n := range d.Nodes() {
		total += n.Debt
	}
	return total
}

// SortedCompanies and SortedPhones give deterministic renderings of a
// node's sets, used by the render package.
func SortedCompanies(n *Debtor) []string { return sortedKeys(n.Companies) }
func SortedPhones(n *Debtor) []string    { return sortedKeys(n.Phones) }

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
