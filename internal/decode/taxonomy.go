package decode

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// NodeDef describes one class node in a taxonomy definition file. Leaf nodes
// are final classes; nodes with children are groupings scored via conditional
// softmax over their children.
type NodeDef struct {
	Name     string    `yaml:"name" json:"name"`
	Children []NodeDef `yaml:"children,omitempty" json:"children,omitempty"`
}

// TaxonomyDef is the on-disk taxonomy definition: the ordered children of an
// implicit root node.
type TaxonomyDef struct {
	Classes []NodeDef `yaml:"classes" json:"classes"`
}

// Taxonomy is an immutable, array-indexed class tree built once at
// configuration time. Logit indices are assigned level by level: the root's
// children occupy [0, rootCount), followed by each root child's children in
// tree order. Leaf class ids are assigned in tree order over leaves, so the
// id mapping used by the score resolvers is derived from construction order
// rather than hard-coded offsets.
type Taxonomy struct {
	names      []string // per logit index
	rootCount  int
	childStart []int // logit index of first child of root child r (0 if none)
	childCount []int // number of children of root child r
	leafBase   []int // external class id of root child r's first leaf
	numLogits  int
	numLeaves  int
	depth      int
}

// NewTaxonomy builds an immutable taxonomy from a definition. Trees deeper
// than two levels below the root are rejected; mixing leaf and non-leaf
// nodes at the top level is rejected because conditional scoring needs a
// uniform depth.
func NewTaxonomy(def TaxonomyDef) (*Taxonomy, error) {
	rootCount := len(def.Classes)
	if rootCount == 0 {
		return nil, errors.New("taxonomy has no classes")
	}

	withChildren := 0
	for _, n := range def.Classes {
		if n.Name == "" {
			return nil, errors.New("taxonomy node has empty name")
		}
		if len(n.Children) > 0 {
			withChildren++
		}
		for _, c := range n.Children {
			if c.Name == "" {
				return nil, errors.New("taxonomy node has empty name")
			}
			if len(c.Children) > 0 {
				return nil, fmt.Errorf("taxonomy node %q exceeds maximum depth of two levels", c.Name)
			}
		}
	}
	if withChildren != 0 && withChildren != rootCount {
		return nil, errors.New("taxonomy mixes leaf and non-leaf nodes at the top level")
	}

	t := &Taxonomy{
		rootCount:  rootCount,
		childStart: make([]int, rootCount),
		childCount: make([]int, rootCount),
		leafBase:   make([]int, rootCount),
	}

	// Level one: root children occupy logit indices [0, rootCount).
	for _, n := range def.Classes {
		t.names = append(t.names, n.Name)
	}

	if withChildren == 0 {
		// Single-level tree: the root children are the leaves.
		t.depth = 1
		t.numLogits = rootCount
		t.numLeaves = rootCount
		for r := range rootCount {
			t.leafBase[r] = r
		}
		return t, nil
	}

	// Level two: each root child's children follow, in tree order.
	t.depth = 2
	next := rootCount
	leaf := 0
	for r, n := range def.Classes {
		t.childStart[r] = next
		t.childCount[r] = len(n.Children)
		t.leafBase[r] = leaf
		for _, c := range n.Children {
			t.names = append(t.names, c.Name)
		}
		next += len(n.Children)
		leaf += len(n.Children)
	}
	t.numLogits = next
	t.numLeaves = leaf
	return t, nil
}

// LoadTaxonomy reads a YAML taxonomy definition from disk and builds the tree.
func LoadTaxonomy(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: taxonomy path is user configuration
	if err != nil {
		return nil, fmt.Errorf("failed to read taxonomy file: %w", err)
	}
	var def TaxonomyDef
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse taxonomy file %s: %w", path, err)
	}
	t, err := NewTaxonomy(def)
	if err != nil {
		return nil, fmt.Errorf("invalid taxonomy in %s: %w", path, err)
	}
	return t, nil
}

// NumLogits returns the number of class logits the network must produce for
// this taxonomy (internal nodes included).
func (t *Taxonomy) NumLogits() int { return t.numLogits }

// NumLeaves returns the number of final classes.
func (t *Taxonomy) NumLeaves() int { return t.numLeaves }

// Depth returns the tree depth below the root (1 or 2).
func (t *Taxonomy) Depth() int { return t.depth }

// LeafName returns the name of the leaf with the given external class id.
func (t *Taxonomy) LeafName(leafID int) (string, bool) {
	if leafID < 0 || leafID >= t.numLeaves {
		return "", false
	}
	if t.depth == 1 {
		return t.names[leafID], true
	}
	for r := range t.rootCount {
		if leafID < t.leafBase[r]+t.childCount[r] {
			rel := leafID - t.leafBase[r]
			return t.names[t.childStart[r]+rel], true
		}
	}
	return "", false
}

// LeafNames returns all leaf names in class-id order.
func (t *Taxonomy) LeafNames() []string {
	out := make([]string, 0, t.numLeaves)
	if t.depth == 1 {
		out = append(out, t.names[:t.rootCount]...)
		return out
	}
	for r := range t.rootCount {
		out = append(out, t.names[t.childStart[r]:t.childStart[r]+t.childCount[r]]...)
	}
	return out
}
