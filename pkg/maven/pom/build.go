package pom

import (
	"context"
	"io"
	"strings"

	"github.com/matzehuels/mvnresolve/pkg/errors"
	"github.com/matzehuels/mvnresolve/pkg/future"
	"github.com/matzehuels/mvnresolve/pkg/maven/version"
)

// Loader loads other descriptors a document refers to. It is implemented by
// the resolution coordinator, which caches and coalesces both kinds of request.
type Loader interface {
	// LoadLocation loads the project document at a path or URL.
	LoadLocation(ctx context.Context, location string) *future.Future[*Descriptor]
	// LoadCoordinate searches the repositories for the best version of
	// groupID:artifactID satisfying c. repos are consulted after the
	// process-wide repositories.
	LoadCoordinate(ctx context.Context, groupID, artifactID string, c version.Constraint, repos []Repository) *future.Future[*Descriptor]
}

// Build parses the document in r, resolves its parent through loader and
// finalizes it against env.
func Build(ctx context.Context, r io.Reader, location string, fromRepository bool, loader Loader, env Environment) (*Descriptor, error) {
	d, err := Parse(r, location)
	if err != nil {
		return nil, err
	}
	d.FromRepository = fromRepository

	parent, err := LoadParent(ctx, d, loader, env)
	if err != nil {
		return nil, err
	}
	Finalize(d, parent, env)
	return d, nil
}

// LoadParent returns the finalized parent of d, or nil if d declares none.
//
// Project documents first try the sibling document named by relativePath; a
// missing or mismatching sibling falls back to a repository search for the
// declared parent version. Documents from a repository go straight to the search.
func LoadParent(ctx context.Context, d *Descriptor, loader Loader, env Environment) (*Descriptor, error) {
	ref := d.Parent
	if ref == nil {
		return nil, nil
	}

	if !d.FromRepository && ref.RelativePath != "" {
		p, err := loader.LoadLocation(ctx, parentLocation(d.Location, ref.RelativePath)).Wait(ctx)
		if errors.IsCancelled(err) {
			return nil, err
		}
		if err == nil && p.Coordinate == ref.Coordinate && (ref.Version == "" || p.Version == ref.Version) {
			return p, nil
		}
	}

	if ref.GroupID == "" || ref.ArtifactID == "" || ref.Version == "" {
		return nil, errors.New(errors.ErrCodeMalformed, "parent declaration of %s is incomplete", d.ArtifactID).At(d.Location)
	}
	c := version.Exact{Version: version.Parse(ref.Version)}
	p, err := loader.LoadCoordinate(ctx, ref.GroupID, ref.ArtifactID, c, declaredRepositories(d, env)).Wait(ctx)
	if err != nil {
		if errors.IsCancelled(err) {
			return nil, err
		}
		return nil, errors.Wrap(errors.ErrCodeUpstream, err, "loading parent %s:%s", ref.Coordinate, ref.Version).At(d.Location)
	}
	return p, nil
}

// parentLocation resolves a relativePath; a directory reference names its pom.xml.
func parentLocation(base, rel string) string {
	if !strings.HasSuffix(strings.ToLower(rel), ".xml") {
		rel = strings.TrimSuffix(rel, "/") + "/pom.xml"
	}
	return ResolveRelative(base, rel)
}

// declaredRepositories expands the repository URLs of a not yet finalized
// descriptor with its own properties, so a repository named through a property
// can serve the parent lookup.
func declaredRepositories(d *Descriptor, env Environment) []Repository {
	if len(d.Repositories) == 0 {
		return nil
	}
	in := &interpolator{d: d, env: env, resolved: map[string]string{}, pending: map[string]string{}}
	for k, v := range d.Properties {
		in.pending[k] = v
	}
	in.fixpoint()
	repos := make([]Repository, len(d.Repositories))
	for i, r := range d.Repositories {
		r.URL = in.substitute(r.URL)
		repos[i] = r
	}
	return repos
}
