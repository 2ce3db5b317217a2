// Package config loads the mvnresolve configuration file.
//
// The file is TOML and lives at $XDG_CONFIG_HOME/mvnresolve/config.toml
// unless a path is given explicitly:
//
//	local_repository = "/srv/m2/repository"
//	settings = "~/.m2/settings.xml"
//
//	[[repositories]]
//	url = "https://repo.maven.apache.org/maven2"
//	snapshots = false
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//	metadata_ttl = "30m"
//
//	[properties]
//	"java.version" = "17"
//
//	[environment]
//	os_name = "Linux"
//	jdk = "17.0.2"
package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/mvnresolve/pkg/cache"
	"github.com/matzehuels/mvnresolve/pkg/errors"
	"github.com/matzehuels/mvnresolve/pkg/maven/pom"
	"github.com/matzehuels/mvnresolve/pkg/maven/repository"
)

const appName = "mvnresolve"

// Config is the parsed configuration file. Zero values mean "use the default".
type Config struct {
	LocalRepository string            `toml:"local_repository"`
	Settings        string            `toml:"settings"`
	Repositories    []Repository      `toml:"repositories"`
	Cache           Cache             `toml:"cache"`
	Properties      map[string]string `toml:"properties"`
	Environment     Environment       `toml:"environment"`
}

// Repository is a process-wide repository searched after the local one.
type Repository struct {
	URL       string `toml:"url"`
	Releases  *bool  `toml:"releases"`
	Snapshots *bool  `toml:"snapshots"`
}

// Policy returns the repository policy; unset kinds are allowed.
func (r Repository) Policy() repository.Policy {
	p := repository.DefaultPolicy
	if r.Releases != nil {
		p.Releases = *r.Releases
	}
	if r.Snapshots != nil {
		p.Snapshots = *r.Snapshots
	}
	return p
}

// Cache configures the response cache used for remote repositories.
type Cache struct {
	Backend       string   `toml:"backend"`
	Dir           string   `toml:"dir"`
	RedisAddr     string   `toml:"redis_addr"`
	MongoURI      string   `toml:"mongo_uri"`
	MongoDatabase string   `toml:"mongo_database"`
	MetadataTTL   Duration `toml:"metadata_ttl"`
	DocumentTTL   Duration `toml:"document_ttl"`
}

// Options converts c into [cache.Options].
func (c Cache) Options() cache.Options {
	return cache.Options{
		Backend:       c.Backend,
		Dir:           expandHome(c.Dir),
		RedisAddr:     c.RedisAddr,
		MongoURI:      c.MongoURI,
		MongoDatabase: c.MongoDatabase,
	}
}

// Environment overrides the detected host for profile activation.
type Environment struct {
	OSName    string   `toml:"os_name"`
	OSFamily  []string `toml:"os_family"`
	OSArch    string   `toml:"os_arch"`
	OSVersion string   `toml:"os_version"`
	JDK       string   `toml:"jdk"`
}

// Duration is a time.Duration written as a string such as "30m" or "168h".
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// DefaultPath returns the configuration file location following the XDG convention.
func DefaultPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml")
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, appName, "config.toml")
}

// Load reads and validates the file at path.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeNotFound, "config file not found").At(path)
	}
	var c Config
	md, err := toml.DecodeFile(path, &c)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parsing config").At(path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown config keys: %s", strings.Join(keys, ", ")).At(path)
	}
	if err := c.validate(); err != nil {
		return nil, err.At(path)
	}
	c.LocalRepository = expandHome(c.LocalRepository)
	c.Settings = expandHome(c.Settings)
	for i, r := range c.Repositories {
		if !pom.IsURL(r.URL) {
			c.Repositories[i].URL = expandHome(r.URL)
		}
	}
	return &c, nil
}

// LoadDefault reads the file at DefaultPath, or returns an empty Config if there is none.
func LoadDefault() (*Config, error) {
	path := DefaultPath()
	if path == "" {
		return &Config{}, nil
	}
	c, err := Load(path)
	if errors.Is(err, errors.ErrCodeNotFound) {
		return &Config{}, nil
	}
	return c, err
}

func (c *Config) validate() *errors.Error {
	for i, r := range c.Repositories {
		if r.URL == "" {
			return errors.New(errors.ErrCodeInvalidInput, "repositories[%d]: url is required", i)
		}
		if !pom.IsURL(r.URL) && !filepath.IsAbs(expandHome(r.URL)) {
			return errors.New(errors.ErrCodeInvalidInput, "repositories[%d]: %q is neither an http(s) URL nor an absolute path", i, r.URL)
		}
	}
	backends := []string{"", cache.BackendFile, cache.BackendRedis, cache.BackendMongo, cache.BackendNone}
	if !slices.Contains(backends, c.Cache.Backend) {
		return errors.New(errors.ErrCodeInvalidInput, "cache.backend must be one of file, redis, mongo, none; got %q", c.Cache.Backend)
	}
	if c.Cache.MetadataTTL < 0 || c.Cache.DocumentTTL < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "cache ttl cannot be negative")
	}
	return nil
}

// Apply overlays the configured environment and properties on env.
func (c *Config) Apply(env *pom.Environment) {
	e := c.Environment
	if e.OSName != "" {
		env.OSName = e.OSName
	}
	if len(e.OSFamily) > 0 {
		env.OSFamilies = slices.Clone(e.OSFamily)
	}
	if e.OSArch != "" {
		env.OSArch = e.OSArch
	}
	if e.OSVersion != "" {
		env.OSVersion = e.OSVersion
	}
	if e.JDK != "" {
		env.JDK = e.JDK
	}
	if len(c.Properties) > 0 && env.SystemProperties == nil {
		env.SystemProperties = make(map[string]string, len(c.Properties))
	}
	for k, v := range c.Properties {
		env.SystemProperties[k] = v
	}
}

// RepositoryOptions returns the configured cache lifetimes for remote repositories.
func (c *Config) RepositoryOptions(opts repository.Options) repository.Options {
	if c.Cache.MetadataTTL > 0 {
		opts.MetadataTTL = time.Duration(c.Cache.MetadataTTL)
	}
	if c.Cache.DocumentTTL > 0 {
		opts.DocumentTTL = time.Duration(c.Cache.DocumentTTL)
	}
	return opts
}

func expandHome(p string) string {
	rest, ok := strings.CutPrefix(p, "~")
	if !ok || (rest != "" && rest[0] != '/' && rest[0] != filepath.Separator) {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, rest)
}
