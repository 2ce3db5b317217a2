package resolver

import (
	"encoding/json"
	"io"

	"github.com/matzehuels/mvnresolve/pkg/errors"
)

// Node is a dependency-tree node. The root's Parent is nil.
type Node interface {
	Parent() Node
}

// Candidate is one version requested for a coordinate, with every tree node
// that requested it.
type Candidate struct {
	Version string
	Nodes   []Node
}

// Depth counts the edges between n and the tree root.
func Depth(n Node) int {
	d := 0
	for p := n.Parent(); p != nil; p = p.Parent() {
		d++
	}
	return d
}

// Nearest applies the nearest-wins policy: the candidate requested by the
// shallowest node wins. Equal depths go to the earlier candidate. It reports
// false when no candidate has a requesting node.
func Nearest(candidates []Candidate) (string, bool) {
	best, bestDepth := "", -1
	for _, c := range candidates {
		for _, n := range c.Nodes {
			if d := Depth(n); bestDepth < 0 || d < bestDepth {
				best, bestDepth = c.Version, d
			}
		}
	}
	return best, bestDepth >= 0
}

// TreeNode is a dependency tree as read from JSON:
//
//	{"id": "org.example:app", "version": "1.0", "children": [...]}
type TreeNode struct {
	ID       string      `json:"id"`
	Version  string      `json:"version"`
	Children []*TreeNode `json:"children,omitempty"`

	parent *TreeNode
}

// Parent implements [Node].
func (t *TreeNode) Parent() Node {
	if t.parent == nil {
		return nil
	}
	return t.parent
}

// ReadTree decodes a JSON tree and links every node to its parent.
// Null children are rejected.
func ReadTree(r io.Reader) (*TreeNode, error) {
	var root TreeNode
	if err := json.NewDecoder(r).Decode(&root); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decoding dependency tree")
	}
	if err := root.link(nil); err != nil {
		return nil, err
	}
	return &root, nil
}

func (t *TreeNode) link(parent *TreeNode) error {
	t.parent = parent
	for i, c := range t.Children {
		if c == nil {
			return errors.New(errors.ErrCodeInvalidInput, "dependency tree: child %d of %q is null", i, t.ID)
		}
		if err := c.link(t); err != nil {
			return err
		}
	}
	return nil
}

// Mediation is the outcome of conflict resolution for one coordinate.
type Mediation struct {
	ID        string   `json:"id"`
	Selected  string   `json:"selected"`
	Requested []string `json:"requested"`
}

// Mediate picks one version per coordinate below root. Candidates are
// ordered by first appearance in a pre-order walk, which fixes the tie-break.
// Results are ordered the same way. Nil children are skipped.
func Mediate(root *TreeNode) []Mediation {
	type entry struct {
		candidates []Candidate
		index      map[string]int
	}
	entries := map[string]*entry{}
	var order []string

	var walk func(n *TreeNode)
	walk = func(n *TreeNode) {
		for _, c := range n.Children {
			if c == nil {
				continue
			}
			e := entries[c.ID]
			if e == nil {
				e = &entry{index: map[string]int{}}
				entries[c.ID] = e
				order = append(order, c.ID)
			}
			i, ok := e.index[c.Version]
			if !ok {
				i = len(e.candidates)
				e.index[c.Version] = i
				e.candidates = append(e.candidates, Candidate{Version: c.Version})
			}
			e.candidates[i].Nodes = append(e.candidates[i].Nodes, c)
			walk(c)
		}
	}
	walk(root)

	out := make([]Mediation, 0, len(order))
	for _, id := range order {
		e := entries[id]
		selected, _ := Nearest(e.candidates)
		m := Mediation{ID: id, Selected: selected}
		for _, c := range e.candidates {
			m.Requested = append(m.Requested, c.Version)
		}
		out = append(out, m)
	}
	return out
}
