package repository

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/matzehuels/mvnresolve/pkg/errors"
	"github.com/matzehuels/mvnresolve/pkg/future"
	"github.com/matzehuels/mvnresolve/pkg/maven/pom"
)

// Local is a repository directory in the standard layout, such as ~/.m2/repository.
type Local struct {
	root   string
	fs     billy.Filesystem
	policy Policy
}

// NewLocal returns a repository over the directory root.
func NewLocal(root string, p Policy) *Local {
	return NewLocalFS(root, osfs.New(root), p)
}

// NewLocalFS returns a repository reading fs, which is rooted at the
// directory root. root only names files in locations and results.
func NewLocalFS(root string, fs billy.Filesystem, p Policy) *Local {
	return &Local{root: filepath.Clean(root), fs: fs, policy: p}
}

func (l *Local) ID() string       { return "local:" + l.root }
func (l *Local) Location() string { return l.root }
func (l *Local) Policy() Policy   { return l.policy }
func (l *Local) String() string   { return l.root }

// ListVersions lists the version directories that contain the matching
// project document.
func (l *Local) ListVersions(_ context.Context, groupID, artifactID string) ([]string, error) {
	dir := ArtifactDir(groupID, artifactID)
	entries, err := l.fs.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(errors.ErrCodeTransport, err, "listing versions").At(l.abs(dir))
	}

	var versions []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := l.fs.Stat(path.Join(dir, e.Name(), PomFilename(artifactID, e.Name()))); err == nil {
			versions = append(versions, e.Name())
		}
	}
	return l.policy.filter(versions), nil
}

// LoadPom loads <root>/<group>/<artifact>/<version>/<artifact>-<version>.pom.
func (l *Local) LoadPom(ctx context.Context, docs DocumentLoader, groupID, artifactID, version string) *future.Future[*pom.Descriptor] {
	if !l.policy.Allows(version) {
		return future.Failed[*pom.Descriptor](l.policy.refuse(groupID, artifactID, version))
	}
	rel := path.Join(VersionDir(groupID, artifactID, version), PomFilename(artifactID, version))
	location := l.abs(rel)
	return docs.LoadDocument(ctx, location, l, func(context.Context) (io.ReadCloser, error) {
		f, err := l.fs.Open(rel)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.New(errors.ErrCodeNotFound, "no project document").At(location)
			}
			return nil, errors.Wrap(errors.ErrCodeTransport, err, "opening project document").At(location)
		}
		return f, nil
	})
}

// LoadArtifactFile returns the path of the artifact file if it exists.
func (l *Local) LoadArtifactFile(_ context.Context, groupID, artifactID, version, classifier, typ string) (string, error) {
	if !l.policy.Allows(version) {
		return "", l.policy.refuse(groupID, artifactID, version)
	}
	rel := path.Join(VersionDir(groupID, artifactID, version), Filename(artifactID, version, classifier, typ))
	if _, err := l.fs.Stat(rel); err != nil {
		if os.IsNotExist(err) {
			return "", errors.New(errors.ErrCodeNotFound, "no artifact file").At(l.abs(rel))
		}
		return "", errors.Wrap(errors.ErrCodeTransport, err, "stat artifact file").At(l.abs(rel))
	}
	return l.abs(rel), nil
}

func (l *Local) IsSame(location string, p Policy) bool {
	return !pom.IsURL(location) && filepath.Clean(location) == l.root && p == l.policy
}

func (l *Local) abs(rel string) string {
	return filepath.Join(l.root, filepath.FromSlash(rel))
}

var _ Source = (*Local)(nil)
