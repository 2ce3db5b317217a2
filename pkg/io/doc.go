// Package io reads and writes descriptor graphs as JSON.
//
// A graph built by [dag.FromDescriptor] can be saved and rendered later
// without resolving again:
//
//	{
//	  "meta": {"root": "org.example:app:1.0"},
//	  "nodes": [
//	    {"id": "org.example:app:1.0", "meta": {"packaging": "jar"}},
//	    {"id": "org.example:parent:1.0", "meta": {"packaging": "pom"}},
//	    {"id": "org.slf4j:slf4j-api:2.0.9", "row": 1}
//	  ],
//	  "edges": [
//	    {"from": "org.example:app:1.0", "to": "org.example:parent:1.0", "kind": "parent"},
//	    {"from": "org.example:app:1.0", "to": "org.slf4j:slf4j-api:2.0.9", "kind": "dependency",
//	     "meta": {"scope": "compile"}}
//	  ]
//	}
//
// Nodes need an id; row defaults to 0. Edges default to kind "dependency".
// A node whose meta carries "error" is a dependency that failed to resolve.
//
// [dag.FromDescriptor]: github.com/matzehuels/mvnresolve/pkg/dag.FromDescriptor
package io
