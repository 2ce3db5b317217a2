package repository

import (
	"bytes"
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/google/uuid"

	"github.com/matzehuels/mvnresolve/pkg/cache"
	"github.com/matzehuels/mvnresolve/pkg/errors"
	"github.com/matzehuels/mvnresolve/pkg/future"
	"github.com/matzehuels/mvnresolve/pkg/httputil"
	"github.com/matzehuels/mvnresolve/pkg/maven/pom"
	"github.com/matzehuels/mvnresolve/pkg/maven/version"
)

// Default cache lifetimes for remote responses. Release documents never
// change once published; version listings do.
const (
	DefaultMetadataTTL = 30 * time.Minute
	DefaultDocumentTTL = 7 * 24 * time.Hour
)

// Options configures remote repositories.
type Options struct {
	// Client performs the requests. Defaults to an uncached client.
	Client *httputil.Client
	// ScratchDir receives downloaded artifact files. Defaults to
	// <os temp dir>/mvnresolve-downloads.
	ScratchDir string
	// Scratch overrides the filesystem rooted at ScratchDir.
	Scratch     billy.Filesystem
	MetadataTTL time.Duration
	DocumentTTL time.Duration
}

// Remote is an HTTP repository in the standard layout, such as Maven Central.
type Remote struct {
	id          string
	base        string
	policy      Policy
	client      *httputil.Client
	scratchDir  string
	scratch     billy.Filesystem
	metadataTTL time.Duration
	documentTTL time.Duration
}

// NewRemote returns a repository at base, an http(s) URL.
func NewRemote(base string, p Policy, opts Options) *Remote {
	if opts.Client == nil {
		opts.Client = httputil.NewClient(nil)
	}
	if opts.ScratchDir == "" {
		opts.ScratchDir = filepath.Join(os.TempDir(), "mvnresolve-downloads")
	}
	if opts.Scratch == nil {
		opts.Scratch = osfs.New(opts.ScratchDir)
	}
	if opts.MetadataTTL == 0 {
		opts.MetadataTTL = DefaultMetadataTTL
	}
	if opts.DocumentTTL == 0 {
		opts.DocumentTTL = DefaultDocumentTTL
	}
	base = strings.TrimSuffix(base, "/")
	return &Remote{
		id:          base,
		base:        base,
		policy:      p,
		client:      opts.Client,
		scratchDir:  opts.ScratchDir,
		scratch:     opts.Scratch,
		metadataTTL: opts.MetadataTTL,
		documentTTL: opts.DocumentTTL,
	}
}

func (r *Remote) ID() string       { return r.id }
func (r *Remote) Location() string { return r.base }
func (r *Remote) Policy() Policy   { return r.policy }
func (r *Remote) String() string   { return r.base }

// ListVersions reads the artifact's maven-metadata.xml. A missing document
// means the repository does not hold the artifact.
func (r *Remote) ListVersions(ctx context.Context, groupID, artifactID string) ([]string, error) {
	u := r.url(MetadataPath(groupID, artifactID))
	data, err := r.client.Fetch(ctx, u, r.metadataTTL)
	if err != nil {
		if errors.Is(err, errors.ErrCodeNotFound) {
			return nil, nil
		}
		return nil, err
	}
	versions, err := parseMetadata(bytes.NewReader(data), u)
	if err != nil {
		return nil, err
	}
	return r.policy.filter(versions), nil
}

// LoadPom loads the document at its canonical URL. Release documents are
// served from the response cache.
func (r *Remote) LoadPom(ctx context.Context, docs DocumentLoader, groupID, artifactID, v string) *future.Future[*pom.Descriptor] {
	if !r.policy.Allows(v) {
		return future.Failed[*pom.Descriptor](r.policy.refuse(groupID, artifactID, v))
	}
	u := r.url(path.Join(VersionDir(groupID, artifactID, v), PomFilename(artifactID, v)))
	ttl := r.documentTTL
	if version.IsSnapshot(v) {
		ttl = 0
	}
	return docs.LoadDocument(ctx, u, r, func(ctx context.Context) (io.ReadCloser, error) {
		data, err := r.client.Fetch(ctx, u, ttl)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(bytes.NewReader(data)), nil
	})
}

// LoadArtifactFile downloads the artifact file into the scratch directory and
// returns its path. A release already downloaded is reused.
func (r *Remote) LoadArtifactFile(ctx context.Context, groupID, artifactID, v, classifier, typ string) (string, error) {
	if !r.policy.Allows(v) {
		return "", r.policy.refuse(groupID, artifactID, v)
	}
	name := Filename(artifactID, v, classifier, typ)
	rel := path.Join(cache.Hash([]byte(r.base))[:12], VersionDir(groupID, artifactID, v), name)
	local := filepath.Join(r.scratchDir, filepath.FromSlash(rel))

	if !version.IsSnapshot(v) {
		if _, err := r.scratch.Stat(rel); err == nil {
			return local, nil
		}
	}

	if err := r.scratch.MkdirAll(path.Dir(rel), 0o755); err != nil {
		return "", errors.Wrap(errors.ErrCodeTransport, err, "creating scratch directory").At(local)
	}
	tmp := path.Join(path.Dir(rel), ".download-"+uuid.NewString())
	f, err := r.scratch.Create(tmp)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeTransport, err, "creating scratch file").At(local)
	}

	u := r.url(path.Join(VersionDir(groupID, artifactID, v), name))
	err = r.client.Download(ctx, u, f)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = errors.Wrap(errors.ErrCodeTransport, cerr, "writing scratch file").At(local)
	}
	if err != nil {
		_ = r.scratch.Remove(tmp)
		return "", err
	}
	if err := r.scratch.Rename(tmp, rel); err != nil {
		_ = r.scratch.Remove(tmp)
		return "", errors.Wrap(errors.ErrCodeTransport, err, "moving download into place").At(local)
	}
	return local, nil
}

func (r *Remote) IsSame(location string, p Policy) bool {
	return sameLocation(location, r.base) && p == r.policy
}

func (r *Remote) url(rel string) string {
	return r.base + "/" + rel
}

var _ Source = (*Remote)(nil)
