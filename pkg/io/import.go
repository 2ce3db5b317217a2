package io

import (
	"encoding/json"
	"io"

	"github.com/matzehuels/mvnresolve/pkg/dag"
	"github.com/matzehuels/mvnresolve/pkg/errors"
)

// ReadJSON decodes a graph written by [WriteJSON]. Unknown edge endpoints,
// duplicate ids and cycles are rejected as invalid input.
func ReadJSON(r io.Reader) (*dag.DAG, error) {
	var data graph
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decoding graph")
	}

	g := dag.New(data.Meta)
	for _, n := range data.Nodes {
		nd := dag.Node{ID: n.ID, Meta: n.Meta}
		if n.Row != nil {
			nd.Row = *n.Row
		}
		if err := g.AddNode(nd); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "node %q", n.ID)
		}
	}
	for _, e := range data.Edges {
		kind := e.Kind
		if kind == "" {
			kind = dag.EdgeDependency
		}
		if err := g.AddEdge(dag.Edge{From: e.From, To: e.To, Kind: kind, Meta: e.Meta}); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "edge %s -> %s", e.From, e.To)
		}
	}
	if err := g.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid graph")
	}
	return g, nil
}
