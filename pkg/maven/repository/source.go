// Package repository implements the two kinds of artifact repository a
// resolver searches: a directory in the standard Maven layout ([Local]) and
// an HTTP server with the same layout ([Remote]).
//
// Both answer the same three questions through [Source]: which versions of
// an artifact exist, what its project document says, and where its binary
// file is. Documents are not parsed here; [Source.LoadPom] hands the opener
// for the document to a [DocumentLoader] (the resolution coordinator) so
// every load of the same location is shared.
package repository

import (
	"context"
	"io"
	"strings"

	"github.com/matzehuels/mvnresolve/pkg/errors"
	"github.com/matzehuels/mvnresolve/pkg/future"
	"github.com/matzehuels/mvnresolve/pkg/maven/pom"
	"github.com/matzehuels/mvnresolve/pkg/maven/version"
)

// Source is one repository.
type Source interface {
	// ID is a short human-readable name, used in logs.
	ID() string
	// Location is the repository root: a directory or a base URL.
	Location() string
	Policy() Policy

	// ListVersions returns the versions of groupID:artifactID the repository
	// holds and its policy admits. An unknown artifact yields no versions and
	// no error.
	ListVersions(ctx context.Context, groupID, artifactID string) ([]string, error)
	// LoadPom loads the project document of one version through docs.
	LoadPom(ctx context.Context, docs DocumentLoader, groupID, artifactID, version string) *future.Future[*pom.Descriptor]
	// LoadArtifactFile returns a local path to the artifact's file, downloading it first if needed.
	LoadArtifactFile(ctx context.Context, groupID, artifactID, version, classifier, typ string) (string, error)

	// IsSame reports whether location and policy name this repository.
	IsSame(location string, p Policy) bool
}

// OpenFunc opens a document for reading.
type OpenFunc func(ctx context.Context) (io.ReadCloser, error)

// DocumentLoader builds descriptors for documents held in a repository.
// Implementations cache by location and attach store to the finalized
// descriptor so it can fetch its own artifact file.
type DocumentLoader interface {
	LoadDocument(ctx context.Context, location string, store pom.ArtifactStore, open OpenFunc) *future.Future[*pom.Descriptor]
}

// Policy selects which kinds of version a repository serves.
type Policy struct {
	Releases  bool `json:"releases" toml:"releases"`
	Snapshots bool `json:"snapshots" toml:"snapshots"`
}

// DefaultPolicy serves both releases and snapshots.
var DefaultPolicy = Policy{Releases: true, Snapshots: true}

// Allows reports whether a version string may be requested under p.
func (p Policy) Allows(v string) bool {
	if version.IsSnapshot(v) {
		return p.Snapshots
	}
	return p.Releases
}

func (p Policy) refuse(g, a, v string) error {
	kind := "releases"
	if version.IsSnapshot(v) {
		kind = "snapshots"
	}
	return errors.New(errors.ErrCodeNotFound, "%s:%s:%s refused: repository does not serve %s", g, a, v, kind)
}

func (p Policy) filter(versions []string) []string {
	out := versions[:0:0]
	for _, v := range versions {
		if p.Allows(v) {
			out = append(out, v)
		}
	}
	return out
}

// New returns a [Remote] for http(s) locations and a [Local] rooted at the
// directory otherwise.
func New(location string, p Policy, opts Options) Source {
	if pom.IsURL(location) {
		return NewRemote(location, p, opts)
	}
	return NewLocal(location, p)
}

// sameLocation compares repository roots, ignoring a trailing slash.
func sameLocation(a, b string) bool {
	return strings.TrimSuffix(a, "/") == strings.TrimSuffix(b, "/")
}
