// Package resolver coordinates descriptor loads across repositories.
//
// A [Resolver] is the single entry point for loading project descriptors,
// either by document location or by coordinate and version constraint. It
// owns the repository search order and two caches of in-flight or completed
// loads:
//
//   - by normalized document location (one entry per physical document)
//   - by coordinate, then by version (one entry per resolved version)
//
// Both caches hold futures, never bare descriptors, so concurrent requests for
// the same document or version share one load. Entries are registered before
// any work starts. A load runs detached from the context of whoever triggered
// it and is cancelled only by [Resolver.Close]; a caller that stops waiting
// does not cancel work others may be waiting on. Cancelled entries are
// evicted so a later request retries; failures stay cached.
//
//	r := resolver.New(resolver.Options{Repositories: repos})
//	defer r.Close()
//	d, err := r.Resolve(ctx, "org.slf4j", "slf4j-api", "[2.0,3.0)")
package resolver

import (
	"bytes"
	"context"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mvnresolve/pkg/errors"
	"github.com/matzehuels/mvnresolve/pkg/future"
	"github.com/matzehuels/mvnresolve/pkg/httputil"
	"github.com/matzehuels/mvnresolve/pkg/maven/pom"
	"github.com/matzehuels/mvnresolve/pkg/maven/repository"
	"github.com/matzehuels/mvnresolve/pkg/maven/version"
	"github.com/matzehuels/mvnresolve/pkg/observability"
)

// Options configures a Resolver.
type Options struct {
	// Repositories are searched in order before any repository a descriptor declares.
	Repositories []repository.Source
	// Environment drives profile activation and placeholder fallbacks.
	// Defaults to pom.HostEnvironment().
	Environment *pom.Environment
	// RepositoryOptions configures remote repositories discovered in descriptors.
	RepositoryOptions repository.Options
	// Client fetches project documents given by URL. Defaults to RepositoryOptions.Client.
	Client *httputil.Client
	// Logger receives debug output. Defaults to log.Default().
	Logger *log.Logger
}

// Resolver loads, caches and coalesces descriptor requests. It is safe for
// concurrent use.
type Resolver struct {
	ctx    context.Context
	cancel context.CancelFunc
	env    pom.Environment
	logger *log.Logger
	client *httputil.Client
	repos  []repository.Source
	ropts  repository.Options

	mu         sync.Mutex
	locations  map[string]*future.Future[*pom.Descriptor]
	versions   map[pom.Coordinate]map[string]*future.Future[*pom.Descriptor]
	discovered []repository.Source
	waits      waitGraph
}

// New returns a Resolver.
func New(opts Options) *Resolver {
	env := pom.HostEnvironment()
	if opts.Environment != nil {
		env = *opts.Environment
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	client := opts.Client
	if client == nil {
		client = opts.RepositoryOptions.Client
	}
	if client == nil {
		client = httputil.NewClient(nil)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Resolver{
		ctx:       ctx,
		cancel:    cancel,
		env:       env,
		logger:    logger,
		client:    client,
		repos:     slices.Clone(opts.Repositories),
		ropts:     opts.RepositoryOptions,
		locations: make(map[string]*future.Future[*pom.Descriptor]),
		versions:  make(map[pom.Coordinate]map[string]*future.Future[*pom.Descriptor]),
		waits:     make(waitGraph),
	}
}

// Close cancels every load still in flight. Pending futures complete with
// context.Canceled.
func (r *Resolver) Close() { r.cancel() }

// Environment returns the environment descriptors are finalized against.
func (r *Resolver) Environment() pom.Environment { return r.env }

// Resolve parses constraint and loads the best matching version of groupID:artifactID.
func (r *Resolver) Resolve(ctx context.Context, groupID, artifactID, constraint string) (*pom.Descriptor, error) {
	if err := errors.ValidateCoordinate(groupID, artifactID); err != nil {
		return nil, err
	}
	c, err := version.ParseConstraint(constraint)
	if err != nil {
		return nil, err
	}
	return r.LoadCoordinate(ctx, groupID, artifactID, c, nil).Wait(ctx)
}

// LoadLocation loads the project document at a file path or http(s) URL.
func (r *Resolver) LoadLocation(ctx context.Context, location string) *future.Future[*pom.Descriptor] {
	location = normalizeLocation(location)
	open := func(ctx context.Context) (io.ReadCloser, error) {
		if pom.IsURL(location) {
			data, err := r.client.Fetch(ctx, location, 0)
			if err != nil {
				return nil, err
			}
			return io.NopCloser(bytes.NewReader(data)), nil
		}
		f, err := os.Open(location)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.New(errors.ErrCodeNotFound, "no such document").At(location)
			}
			return nil, errors.Wrap(errors.ErrCodeTransport, err, "opening document").At(location)
		}
		return f, nil
	}
	return r.loadDocument(ctx, location, false, nil, open)
}

// LoadDocument loads a document held by a repository. It implements
// [repository.DocumentLoader].
func (r *Resolver) LoadDocument(ctx context.Context, location string, store pom.ArtifactStore, open repository.OpenFunc) *future.Future[*pom.Descriptor] {
	return r.loadDocument(ctx, location, true, store, open)
}

func (r *Resolver) loadDocument(ctx context.Context, location string, fromRepository bool, store pom.ArtifactStore, open repository.OpenFunc) *future.Future[*pom.Descriptor] {
	// Repository documents and directly requested ones are built differently
	// (relative parents, artifact store), so they are cached apart.
	key := "location:" + location
	if fromRepository {
		key = "repository:" + location
	}
	requester := requesterFrom(ctx)

	r.mu.Lock()
	if f, ok := r.locations[key]; ok {
		if !r.waits.add(requester, key) {
			r.mu.Unlock()
			return future.Failed[*pom.Descriptor](cyclic(key))
		}
		r.mu.Unlock()
		r.releaseWhenDone(f, requester, key)
		observability.Resolve().OnCoalesced(ctx, observability.KindLocation, location)
		return f
	}
	if !r.waits.add(requester, key) {
		r.mu.Unlock()
		return future.Failed[*pom.Descriptor](cyclic(key))
	}
	f := future.New[*pom.Descriptor]()
	r.locations[key] = f
	r.mu.Unlock()

	f.OnDone(func(_ *pom.Descriptor, err error) {
		if errors.IsCancelled(err) {
			r.mu.Lock()
			if r.locations[key] == f {
				delete(r.locations, key)
			}
			r.mu.Unlock()
		}
	})
	r.releaseWhenDone(f, requester, key)

	r.run(observability.KindLocation, key, location, f, func(ctx context.Context) (*pom.Descriptor, error) {
		rc, err := open(ctx)
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		d, err := pom.Build(ctx, rc, location, fromRepository, r, r.env)
		if err != nil {
			return nil, err
		}
		if store != nil {
			d.SetArtifactStore(store)
		}
		r.logger.Debug("loaded descriptor", "id", d.ID(), "location", location)
		return d, nil
	})
	return f
}

// LoadCoordinate returns the best version of groupID:artifactID satisfying c.
// A version already requested before is served from the cache; otherwise the
// process-wide repositories and then repos are searched in order, and the
// first repository offering a matching version wins. It implements [pom.Loader].
func (r *Resolver) LoadCoordinate(ctx context.Context, groupID, artifactID string, c version.Constraint, repos []pom.Repository) *future.Future[*pom.Descriptor] {
	coord := pom.Coordinate{GroupID: groupID, ArtifactID: artifactID}
	requester := requesterFrom(ctx)

	r.mu.Lock()
	if v, f, ok := r.bestCached(coord, c); ok {
		key := versionKey(coord, v)
		if !r.waits.add(requester, key) {
			r.mu.Unlock()
			return future.Failed[*pom.Descriptor](cyclic(key))
		}
		r.mu.Unlock()
		r.releaseWhenDone(f, requester, key)
		observability.Resolve().OnCoalesced(ctx, observability.KindCoordinate, key)
		return f
	}
	r.mu.Unlock()

	out := future.New[*pom.Descriptor]()
	go func() {
		f, err := r.search(ctx, coord, c, repos)
		if err != nil {
			out.Complete(nil, err)
			return
		}
		future.Forward(f, out)
	}()
	return out
}

// search walks the repositories for the best version matching c and
// registers the load of that version.
func (r *Resolver) search(ctx context.Context, coord pom.Coordinate, c version.Constraint, extra []pom.Repository) (*future.Future[*pom.Descriptor], error) {
	start := time.Now()
	hooks := observability.Resolve()
	searchKey := coord.String() + ":" + c.String()
	hooks.OnLoadStart(ctx, observability.KindVersions, searchKey)

	for _, src := range r.sources(extra) {
		versions, err := src.ListVersions(ctx, coord.GroupID, coord.ArtifactID)
		if err != nil {
			if errors.IsCancelled(err) {
				hooks.OnLoadComplete(ctx, observability.KindVersions, searchKey, time.Since(start), err)
				return nil, err
			}
			r.logger.Debug("repository failed, trying next", "repository", src.ID(), "coordinate", coord, "err", err)
			continue
		}
		best, ok := version.BestString(c, versions)
		if !ok {
			r.logger.Debug("no matching version", "repository", src.ID(), "coordinate", coord, "constraint", c, "offered", len(versions))
			continue
		}
		hooks.OnLoadComplete(ctx, observability.KindVersions, searchKey, time.Since(start), nil)
		r.logger.Debug("selected version", "coordinate", coord, "version", best, "repository", src.ID())
		return r.loadVersion(ctx, coord, best, src)
	}

	err := errors.New(errors.ErrCodeNotFound, "no repository has a version of %s matching %s", coord, c)
	hooks.OnLoadComplete(ctx, observability.KindVersions, searchKey, time.Since(start), err)
	return nil, err
}

// loadVersion registers the load of one version, or joins the one already registered.
func (r *Resolver) loadVersion(ctx context.Context, coord pom.Coordinate, v string, src repository.Source) (*future.Future[*pom.Descriptor], error) {
	key := versionKey(coord, v)
	requester := requesterFrom(ctx)

	r.mu.Lock()
	byVersion := r.versions[coord]
	if byVersion == nil {
		byVersion = make(map[string]*future.Future[*pom.Descriptor])
		r.versions[coord] = byVersion
	}
	if f, ok := byVersion[v]; ok {
		if !r.waits.add(requester, key) {
			r.mu.Unlock()
			return nil, cyclic(key)
		}
		r.mu.Unlock()
		r.releaseWhenDone(f, requester, key)
		observability.Resolve().OnCoalesced(ctx, observability.KindCoordinate, key)
		return f, nil
	}
	if !r.waits.add(requester, key) {
		r.mu.Unlock()
		return nil, cyclic(key)
	}
	f := future.New[*pom.Descriptor]()
	byVersion[v] = f
	r.mu.Unlock()

	f.OnDone(func(_ *pom.Descriptor, err error) {
		if errors.IsCancelled(err) {
			r.mu.Lock()
			if r.versions[coord][v] == f {
				delete(r.versions[coord], v)
			}
			r.mu.Unlock()
		}
	})
	r.releaseWhenDone(f, requester, key)

	r.run(observability.KindCoordinate, key, coord.String()+":"+v, f, func(ctx context.Context) (*pom.Descriptor, error) {
		return src.LoadPom(ctx, r, coord.GroupID, coord.ArtifactID, v).Wait(ctx)
	})
	return f, nil
}

// bestCached picks the best cached version of coord satisfying c. r.mu must be held.
func (r *Resolver) bestCached(coord pom.Coordinate, c version.Constraint) (string, *future.Future[*pom.Descriptor], bool) {
	byVersion := r.versions[coord]
	if len(byVersion) == 0 {
		return "", nil, false
	}
	// Sorted for a deterministic pick among equal-ranking versions.
	cached := slices.Sorted(maps.Keys(byVersion))
	best, ok := version.BestString(c, cached)
	if !ok {
		return "", nil, false
	}
	return best, byVersion[best], true
}

// run executes work on its own goroutine under the resolver's lifetime
// context, tagged with key so nested requests know who is waiting on them.
func (r *Resolver) run(kind, key, label string, f *future.Future[*pom.Descriptor], work func(ctx context.Context) (*pom.Descriptor, error)) {
	ctx := withRequester(r.ctx, key)
	go func() {
		hooks := observability.Resolve()
		start := time.Now()
		hooks.OnLoadStart(ctx, kind, label)
		d, err := work(ctx)
		if err != nil && ctx.Err() != nil && !errors.IsCancelled(err) {
			err = ctx.Err()
		}
		hooks.OnLoadComplete(ctx, kind, label, time.Since(start), err)
		f.Complete(d, err)
	}()
}

// releaseWhenDone drops the wait edge requester -> key once f completes.
func (r *Resolver) releaseWhenDone(f *future.Future[*pom.Descriptor], requester, key string) {
	if requester == "" {
		return
	}
	f.OnDone(func(*pom.Descriptor, error) {
		r.mu.Lock()
		r.waits.remove(requester, key)
		r.mu.Unlock()
	})
}

func normalizeLocation(location string) string {
	if pom.IsURL(location) {
		return location
	}
	if abs, err := filepath.Abs(location); err == nil {
		return abs
	}
	return filepath.Clean(location)
}

func versionKey(coord pom.Coordinate, v string) string {
	return "version:" + coord.String() + ":" + v
}

func cyclic(key string) error {
	return errors.New(errors.ErrCodeNotFound, "cyclic reference to %s", key)
}
