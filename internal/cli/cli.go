// Package cli implements the mvnresolve command-line interface.
//
// Every command builds its resolver the same way: the config file, then
// Maven's settings.xml, then the global flags, with later sources taking
// precedence. The local repository is always searched first, followed by
// configured remotes, remotes from active settings profiles and --remote.
//
// # Commands
//
//   - resolve: resolve a descriptor by coordinate or document location
//   - versions: list the versions each repository holds
//   - fetch: locate or download an artifact file
//   - graph: draw parents and direct dependencies as DOT, SVG or JSON
//   - render: render a graph saved as JSON
//   - conflict: nearest-wins mediation over a JSON dependency tree
//   - serve: the resolver behind an HTTP API
//   - cache: manage the response cache
//
// All commands support --verbose (-v) for debug-level logging, which also
// traces every load, cache lookup and HTTP request.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mvnresolve/pkg/cache"
	"github.com/matzehuels/mvnresolve/pkg/config"
	"github.com/matzehuels/mvnresolve/pkg/errors"
	"github.com/matzehuels/mvnresolve/pkg/httputil"
	"github.com/matzehuels/mvnresolve/pkg/maven/pom"
	"github.com/matzehuels/mvnresolve/pkg/maven/repository"
	"github.com/matzehuels/mvnresolve/pkg/maven/resolver"
	"github.com/matzehuels/mvnresolve/pkg/maven/settings"
	"github.com/matzehuels/mvnresolve/pkg/observability"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "mvnresolve"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	opts   globalOpts
}

// globalOpts holds the persistent flags shared by every command.
type globalOpts struct {
	repository string   // local repository directory
	settings   string   // settings.xml path
	config     string   // config.toml path
	remotes    []string // extra remote repositories, searched after the configured ones
	defines    []string // -D key=value system properties
	profiles   []string // profile ids to force active
	noCache    bool     // bypass the response cache
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// =============================================================================
// Resolver Factory
// =============================================================================

// session is a configured resolver and the resources backing it.
type session struct {
	res   *resolver.Resolver
	cache cache.Cache
	env   pom.Environment
}

func (s *session) Close() {
	s.res.Close()
	_ = s.cache.Close()
}

// newSession builds a resolver from the config file, the settings file and
// the command-line flags, in increasing order of precedence.
func (c *CLI) newSession(ctx context.Context) (*session, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	st, err := c.loadSettings(cfg)
	if err != nil {
		return nil, err
	}
	env, err := c.environment(cfg, st)
	if err != nil {
		return nil, err
	}

	ch, err := c.openCache(ctx, cfg)
	if err != nil {
		return nil, err
	}
	client := httputil.NewClient(ch, httputil.WithHeaders(map[string]string{"User-Agent": appName}))
	ropts := cfg.RepositoryOptions(repository.Options{Client: client})

	repos := []repository.Source{repository.NewLocal(c.localRepository(cfg, st), repository.DefaultPolicy)}
	for _, r := range c.remoteRepositories(cfg, st) {
		repos = append(repos, repository.New(r.location, r.policy, ropts))
	}

	hooks := logHooks{c.Logger}
	observability.SetResolveHooks(hooks)
	observability.SetCacheHooks(hooks)
	observability.SetHTTPHooks(hooks)
	res := resolver.New(resolver.Options{
		Repositories:      repos,
		Environment:       &env,
		RepositoryOptions: ropts,
		Client:            client,
		Logger:            c.Logger,
	})
	for _, r := range repos {
		c.Logger.Debug("repository", "location", r.Location(), "releases", r.Policy().Releases, "snapshots", r.Policy().Snapshots)
	}
	return &session{res: res, cache: ch, env: env}, nil
}

func (c *CLI) loadConfig() (*config.Config, error) {
	if c.opts.config != "" {
		return config.Load(c.opts.config)
	}
	return config.LoadDefault()
}

func (c *CLI) loadSettings(cfg *config.Config) (*settings.Settings, error) {
	switch {
	case c.opts.settings != "":
		return settings.Load(c.opts.settings)
	case cfg.Settings != "":
		return settings.Load(cfg.Settings)
	default:
		return settings.LoadDefault()
	}
}

// environment combines the host, the config file, settings active profiles,
// --profile and -D definitions.
func (c *CLI) environment(cfg *config.Config, st *settings.Settings) (pom.Environment, error) {
	env := pom.HostEnvironment()
	cfg.Apply(&env)

	defines, err := parseDefines(c.opts.defines)
	if err != nil {
		return env, err
	}
	if len(defines) > 0 && env.SystemProperties == nil {
		env.SystemProperties = make(map[string]string, len(defines))
	}
	for k, v := range defines {
		env.SystemProperties[k] = v
	}

	env.ActiveProfiles = append(env.ActiveProfiles, st.ActiveProfiles...)
	env.ActiveProfiles = append(env.ActiveProfiles, c.opts.profiles...)
	return env, nil
}

func (c *CLI) openCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	if c.opts.noCache {
		return cache.NewNullCache(), nil
	}
	opts := cfg.Cache.Options()
	if opts.Dir == "" {
		if dir, err := cacheDir(); err == nil {
			opts.Dir = dir
		}
	}
	ch, err := cache.Open(ctx, opts)
	if err != nil {
		c.Logger.Warn("cache disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	return ch, nil
}

// localRepository picks --repository, then the config file, then settings.xml,
// then ~/.m2/repository.
func (c *CLI) localRepository(cfg *config.Config, st *settings.Settings) string {
	for _, dir := range []string{c.opts.repository, cfg.LocalRepository, st.LocalRepository} {
		if dir != "" {
			if abs, err := filepath.Abs(dir); err == nil {
				return abs
			}
			return dir
		}
	}
	return settings.DefaultLocalRepository()
}

type remoteRepository struct {
	location string
	policy   repository.Policy
}

// remoteRepositories lists the process-wide repositories after the local one:
// config file entries, then repositories of active settings profiles, then --remote.
func (c *CLI) remoteRepositories(cfg *config.Config, st *settings.Settings) []remoteRepository {
	var out []remoteRepository
	add := func(location string, p repository.Policy) {
		for _, r := range out {
			if strings.TrimSuffix(r.location, "/") == strings.TrimSuffix(location, "/") {
				return
			}
		}
		out = append(out, remoteRepository{location: location, policy: p})
	}
	for _, r := range cfg.Repositories {
		add(r.URL, r.Policy())
	}
	for _, r := range st.Repositories(c.opts.profiles...) {
		add(r.URL, repository.Policy{Releases: r.Releases, Snapshots: r.Snapshots})
	}
	for _, u := range c.opts.remotes {
		add(u, repository.DefaultPolicy)
	}
	return out
}

// parseDefines turns ["a=b", "flag"] into {"a": "b", "flag": "true"}.
func parseDefines(defs []string) (map[string]string, error) {
	out := make(map[string]string, len(defs))
	for _, d := range defs {
		k, v, ok := strings.Cut(d, "=")
		if k == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "invalid -D definition %q", d)
		}
		if !ok {
			v = "true"
		}
		out[k] = v
	}
	return out, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/mvnresolve/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Argument Helpers
// =============================================================================

// coordinateArg is a parsed "groupId:artifactId[:constraint]" argument.
type coordinateArg struct {
	groupID    string
	artifactID string
	constraint string
}

func (a coordinateArg) String() string {
	s := a.groupID + ":" + a.artifactID
	if a.constraint != "" {
		s += ":" + a.constraint
	}
	return s
}

// parseCoordinate splits "groupId:artifactId[:constraint]". The constraint
// may itself contain ':' only inside a range, which Maven never produces, so
// everything after the second ':' is taken verbatim.
func parseCoordinate(s string) (coordinateArg, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) < 2 {
		return coordinateArg{}, errors.New(errors.ErrCodeInvalidCoordinate, "expected groupId:artifactId[:version], got %q", s)
	}
	arg := coordinateArg{groupID: parts[0], artifactID: parts[1]}
	if len(parts) == 3 {
		arg.constraint = parts[2]
	}
	if err := errors.ValidateCoordinate(arg.groupID, arg.artifactID); err != nil {
		return coordinateArg{}, err
	}
	return arg, nil
}

// isDocumentArg reports whether arg names a project document rather than a coordinate.
func isDocumentArg(arg string) bool {
	if pom.IsURL(arg) || strings.HasSuffix(arg, ".xml") || strings.HasSuffix(arg, ".pom") {
		return true
	}
	info, err := os.Stat(arg)
	return err == nil && !info.IsDir()
}

// load resolves arg as a document location or a coordinate. A coordinate
// without a constraint uses defaultConstraint.
func (s *session) load(ctx context.Context, arg, defaultConstraint string) (*pom.Descriptor, error) {
	if isDocumentArg(arg) {
		return s.res.LoadLocation(ctx, arg).Wait(ctx)
	}
	coord, err := parseCoordinate(arg)
	if err != nil {
		return nil, err
	}
	constraint := coord.constraint
	if constraint == "" {
		if defaultConstraint == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "%s: a version is required", arg)
		}
		constraint = defaultConstraint
	}
	return s.res.Resolve(ctx, coord.groupID, coord.artifactID, constraint)
}

func writeFileOrStdout(w io.Writer, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := w.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
