package decode

import (
	"os"
	"path/filepath"
	"testing"
)

func flatTaxonomy(t *testing.T, names ...string) *Taxonomy {
	t.Helper()
	def := TaxonomyDef{}
	for _, n := range names {
		def.Classes = append(def.Classes, NodeDef{Name: n})
	}
	tax, err := NewTaxonomy(def)
	if err != nil {
		t.Fatalf("NewTaxonomy: %v", err)
	}
	return tax
}

func twoLevelTaxonomy(t *testing.T) *Taxonomy {
	t.Helper()
	tax, err := NewTaxonomy(TaxonomyDef{Classes: []NodeDef{
		{Name: "regulatory", Children: []NodeDef{{Name: "stop"}, {Name: "yield"}}},
		{Name: "warning", Children: []NodeDef{{Name: "curve"}, {Name: "merge"}, {Name: "signal"}}},
	}})
	if err != nil {
		t.Fatalf("NewTaxonomy: %v", err)
	}
	return tax
}

func TestTaxonomySingleLevel(t *testing.T) {
	tax := flatTaxonomy(t, "stop", "yield", "speedLimit")

	if tax.Depth() != 1 {
		t.Fatalf("expected depth 1, got %d", tax.Depth())
	}
	if tax.NumLogits() != 3 || tax.NumLeaves() != 3 {
		t.Fatalf("expected 3 logits and 3 leaves, got %d and %d", tax.NumLogits(), tax.NumLeaves())
	}
	name, ok := tax.LeafName(1)
	if !ok || name != "yield" {
		t.Fatalf("LeafName(1) = %q, %v", name, ok)
	}
}

func TestTaxonomyTwoLevel(t *testing.T) {
	tax := twoLevelTaxonomy(t)

	if tax.Depth() != 2 {
		t.Fatalf("expected depth 2, got %d", tax.Depth())
	}
	// 2 parent logits plus 5 child logits.
	if tax.NumLogits() != 7 {
		t.Fatalf("expected 7 logits, got %d", tax.NumLogits())
	}
	if tax.NumLeaves() != 5 {
		t.Fatalf("expected 5 leaves, got %d", tax.NumLeaves())
	}

	// Leaf ids follow tree order over leaves.
	want := []string{"stop", "yield", "curve", "merge", "signal"}
	got := tax.LeafNames()
	if len(got) != len(want) {
		t.Fatalf("LeafNames() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("leaf %d = %q, want %q", i, got[i], want[i])
		}
		name, ok := tax.LeafName(i)
		if !ok || name != want[i] {
			t.Fatalf("LeafName(%d) = %q, %v, want %q", i, name, ok, want[i])
		}
	}

	if _, ok := tax.LeafName(5); ok {
		t.Fatal("expected LeafName(5) to report out of range")
	}
	if _, ok := tax.LeafName(-1); ok {
		t.Fatal("expected LeafName(-1) to report out of range")
	}
}

func TestTaxonomyValidation(t *testing.T) {
	cases := []struct {
		name string
		def  TaxonomyDef
	}{
		{"empty", TaxonomyDef{}},
		{"empty node name", TaxonomyDef{Classes: []NodeDef{{Name: ""}}}},
		{"empty child name", TaxonomyDef{Classes: []NodeDef{
			{Name: "a", Children: []NodeDef{{Name: ""}}},
		}}},
		{"too deep", TaxonomyDef{Classes: []NodeDef{
			{Name: "a", Children: []NodeDef{
				{Name: "b", Children: []NodeDef{{Name: "c"}}},
			}},
		}}},
		{"mixed levels", TaxonomyDef{Classes: []NodeDef{
			{Name: "a", Children: []NodeDef{{Name: "b"}}},
			{Name: "leaf"},
		}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewTaxonomy(tc.def); err == nil {
				t.Fatalf("expected error for %s definition", tc.name)
			}
		})
	}
}

func TestLoadTaxonomy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "classes.yaml")
	content := `classes:
  - name: regulatory
    children:
      - name: stop
      - name: yield
  - name: warning
    children:
      - name: curve
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write taxonomy file: %v", err)
	}

	tax, err := LoadTaxonomy(path)
	if err != nil {
		t.Fatalf("LoadTaxonomy: %v", err)
	}
	if tax.NumLeaves() != 3 || tax.NumLogits() != 5 {
		t.Fatalf("unexpected taxonomy shape: %d leaves, %d logits", tax.NumLeaves(), tax.NumLogits())
	}
}

func TestLoadTaxonomyErrors(t *testing.T) {
	if _, err := LoadTaxonomy(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("classes: [::"), 0o600); err != nil {
		t.Fatalf("write taxonomy file: %v", err)
	}
	if _, err := LoadTaxonomy(path); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}
