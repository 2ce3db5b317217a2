package resolver

import (
	"context"

	"github.com/matzehuels/mvnresolve/pkg/maven/pom"
	"github.com/matzehuels/mvnresolve/pkg/maven/repository"
)

// Repositories returns the process-wide repositories followed by every
// repository discovered in descriptors so far.
func (r *Resolver) Repositories() []repository.Source {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]repository.Source, 0, len(r.repos)+len(r.discovered))
	out = append(out, r.repos...)
	return append(out, r.discovered...)
}

// Repository returns the repository for location and policy: a process-wide
// one if it matches, else a previously discovered one, else a new instance
// that is remembered for later lookups.
func (r *Resolver) Repository(location string, p repository.Policy) repository.Source {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.repositoryLocked(location, p)
}

func (r *Resolver) repositoryLocked(location string, p repository.Policy) repository.Source {
	for _, src := range r.repos {
		if src.IsSame(location, p) {
			return src
		}
	}
	for _, src := range r.discovered {
		if src.IsSame(location, p) {
			return src
		}
	}
	src := repository.New(location, p, r.ropts)
	r.discovered = append(r.discovered, src)
	r.logger.Debug("discovered repository", "location", location)
	return src
}

// sources is the search order for one request: the process-wide list, then
// the repositories the requesting descriptor declared, without duplicates.
func (r *Resolver) sources(extra []pom.Repository) []repository.Source {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]repository.Source(nil), r.repos...)
	for _, decl := range extra {
		if decl.URL == "" {
			continue
		}
		src := r.repositoryLocked(decl.URL, repository.Policy{Releases: decl.Releases, Snapshots: decl.Snapshots})
		if !containsSource(out, src) {
			out = append(out, src)
		}
	}
	return out
}

func containsSource(list []repository.Source, src repository.Source) bool {
	for _, s := range list {
		if s == src {
			return true
		}
	}
	return false
}

// RepositoryVersions is the version listing of one repository.
type RepositoryVersions struct {
	Repository string   `json:"repository"`
	Versions   []string `json:"versions"`
	Err        error    `json:"-"`
}

// ListVersions asks every process-wide repository for the versions of
// groupID:artifactID. Per-repository failures are reported in the result.
func (r *Resolver) ListVersions(ctx context.Context, groupID, artifactID string) ([]RepositoryVersions, error) {
	var out []RepositoryVersions
	for _, src := range r.sources(nil) {
		versions, err := src.ListVersions(ctx, groupID, artifactID)
		if err != nil && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		out = append(out, RepositoryVersions{Repository: src.Location(), Versions: versions, Err: err})
	}
	return out, nil
}
