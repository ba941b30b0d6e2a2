package aggregate

import (
	"testing"

	"github.com/go-fastpivot/fastpivot/extract"
)

func TestInsert_NoOverlapCreatesSeparateNodes(t *testing.T) {
	d := New()
	d.Insert(extract.DebtRec{Company: "A", Phones: []string{"1"}, Debt: 1})
	d.Insert(extract.DebtRec{Company: "B", Phones: []string{"2"}, Debt: 2})
	if len(d.Nodes()) != 2 {
		t.Fatalf("got %d nodes, want 2", len(d.Nodes()))
	}
	if d.TotalDebt() != 3 {
		t.Errorf("total debt = %v, want 3", d.TotalDebt())
	}
}

func TestInsert_SharedPhoneMergesIntoOneNode(t *testing.T) {
	d := New()
	d.Insert(extract.DebtRec{Company: "A", Phones: []string{"1"}, Debt: 1})
	d.Insert(extract.DebtRec{Company: "B", Phones: []string{"1", "2"}, Debt: 2})
	nodes := d.Nodes()
	if len(nodes) != 1 {
		t.Fatalf("got %d nodes, want 1", len(nodes))
	}
	n := nodes[0]
	if n.Debt != 3 {
		t.Errorf("debt = %v, want 3", n.Debt)
	}
	if len(n.Companies) != 2 {
		t.Errorf("companies = %v, want 2 entries", n.Companies)
	}
	if len(n.Phones) != 2 {
		t.Errorf("phones = %v, want 2 entries", n.Phones)
	}
}

// TestInsert_TransitiveBridgeUnifiesThreeRecords exercises I3: A and B
// share no phone, but C shares one phone with each of them, so all
// three must end up in one node.
func TestInsert_TransitiveBridgeUnifiesThreeRecords(t *testing.T) {
	d := New()
	d.Insert(extract.DebtRec{Company: "A", Phones: []string{"1", "2"}, Debt: 1})
	d.Insert(extract.DebtRec{Company: "B", Phones: []string{"3", "4"}, Debt: 2})
	// Bridges A and B via phones 2 and 3 in the same record.
	d.Insert(extract.DebtRec{Company: "C", Phones: []string{"2", "3"}, Debt: 3})

	nodes := d.Nodes()
	if len(nodes) != 1 {
		t.Fatalf("got %d nodes, want 1 (transitive union); nodes=%v", len(nodes), nodes)
	}
	if nodes[0].Debt != 6 {
		t.Errorf("debt = %v, want 6", nodes[0].Debt)
	}
	if len(nodes[0].Companies) != 3 {
		t.Errorf("companies = %v, want 3 entries", nodes[0].Companies)
	}
}

func TestInsert_OrderIndependenceOfBridging(t *testing.T) {
	// Same three records in a different order should produce the same
	// equivalence class content (P7).
	recs := []extract.DebtRec{
		{Company: "C", Phones: []string{"2", "3"}, Debt: 3},
		{Company: "A", Phones: []string{"1", "2"}, Debt: 1},
		{Company: "B", Phones: []string{"3", "4"}, Debt: 2},
	}
	d := New()
	for _, r := range recs {
		d.Insert(r)
	}
	nodes := d.Nodes()
	if len(nodes) != 1 || nodes[0].Debt != 6 {
		t.Fatalf("got nodes=%v, want 1 node with debt 6", nodes)
	}
}

func TestInvariants_IndexByPhoneConsistency(t *testing.T) {
	d := New()
	d.Insert(extract.DebtRec{Company: "A", Phones: []string{"1", "2"}, Debt: 1})
	d.Insert(extract.DebtRec{Company: "B", Phones: []string{"3"}, Debt: 2})
	d.Insert(extract.DebtRec{Company: "C", Phones: []string{"2", "3"}, Debt: 3})

	for phone, idx := range d.indexByPhone {
		node := d.all[idx]
		if node.absorbed {
			t.Errorf("I1 violated: phone %q points at tombstoned node %d", phone, idx)
		}
		if _, ok := node.Phones[phone]; !ok {
			t.Errorf("I1 violated: phone %q not in node %d's phone set", phone, idx)
		}
	}
	for i, node := range d.all {
		if node.absorbed {
			continue
		}
		for phone := range node.Phones {
			if d.indexByPhone[phone] != i {
				t.Errorf("I2 violated: phone %q in node %d but index points at %d", phone, i, d.indexByPhone[phone])
			}
		}
	}
}

func TestMerge_CombinesPartialsAndMayFurtherUnify(t *testing.T) {
	a := New()
	a.Insert(extract.DebtRec{Company: "A", Phones: []string{"1"}, Debt: 1})

	b := New()
	b.Insert(extract.DebtRec{Company: "B", Phones: []string{"1", "2"}, Debt: 2})
	b.Insert(extract.DebtRec{Company: "C", Phones: []string{"9"}, Debt: 9})

	a.Merge(b)
	nodes := a.Nodes()
	if len(nodes) != 2 {
		t.Fatalf("got %d nodes, want 2; nodes=%v", len(nodes), nodes)
	}
	if a.TotalDebt() != 12 {
		t.Errorf("total debt = %v, want 12", a.TotalDebt())
	}
}

func TestMerge_Empty(t *testing.T) {
	a := New()
	a.Insert(extract.DebtRec{Company: "A", Phones: []string{"1"}, Debt: 1})
	a.Merge(New())
	if len(a.Nodes()) != 1 {
		t.Fatalf("got %d nodes, want 1", len(a.Nodes()))
	}
}

func TestInsert_RecordWithNoPhonesGetsOwnNode(t *testing.T) {
	d := New()
	d.Insert(extract.DebtRec{Company: "NoPhone", Debt: 5})
	d.Insert(extract.DebtRec{Company: "AlsoNoPhone", Debt: 7})
	if len(d.Nodes()) != 2 {
		t.Fatalf("got %d nodes, want 2", len(d.Nodes()))
	}
}
