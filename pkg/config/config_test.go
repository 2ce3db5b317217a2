package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/mvnresolve/pkg/cache"
	"github.com/matzehuels/mvnresolve/pkg/errors"
	"github.com/matzehuels/mvnresolve/pkg/maven/pom"
	"github.com/matzehuels/mvnresolve/pkg/maven/repository"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const fullConfig = `
local_repository = "~/m2"
settings = "/etc/maven/settings.xml"

[[repositories]]
url = "https://repo.maven.apache.org/maven2"
snapshots = false

[[repositories]]
url = "/mnt/mirror"

[cache]
backend = "redis"
redis_addr = "localhost:6379"
metadata_ttl = "5m"
document_ttl = "48h"

[properties]
"java.version" = "17"
flavour = "ci"

[environment]
os_name = "Windows"
os_family = ["windows"]
jdk = "17.0.2"
`

func TestLoad(t *testing.T) {
	t.Setenv("HOME", "/home/dev")
	c, err := Load(writeConfig(t, fullConfig))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if c.LocalRepository != "/home/dev/m2" {
		t.Errorf("LocalRepository = %q", c.LocalRepository)
	}
	if c.Settings != "/etc/maven/settings.xml" {
		t.Errorf("Settings = %q", c.Settings)
	}
	if len(c.Repositories) != 2 {
		t.Fatalf("Repositories = %+v", c.Repositories)
	}
	if got := c.Repositories[0].Policy(); got != (repository.Policy{Releases: true}) {
		t.Errorf("Policy() = %+v", got)
	}
	if got := c.Repositories[1].Policy(); got != repository.DefaultPolicy {
		t.Errorf("default Policy() = %+v", got)
	}

	opts := c.Cache.Options()
	if opts.Backend != cache.BackendRedis || opts.RedisAddr != "localhost:6379" {
		t.Errorf("Cache.Options() = %+v", opts)
	}
	ropts := c.RepositoryOptions(repository.Options{DocumentTTL: time.Hour})
	if ropts.MetadataTTL != 5*time.Minute || ropts.DocumentTTL != 48*time.Hour {
		t.Errorf("RepositoryOptions() = %+v", ropts)
	}
}

func TestApply(t *testing.T) {
	c, err := Load(writeConfig(t, fullConfig))
	if err != nil {
		t.Fatal(err)
	}
	env := pom.Environment{OSName: "Linux", OSFamilies: []string{"unix"}, OSArch: "amd64"}
	c.Apply(&env)

	if env.OSName != "Windows" || !slices.Equal(env.OSFamilies, []string{"windows"}) {
		t.Errorf("os = %s %v", env.OSName, env.OSFamilies)
	}
	if env.OSArch != "amd64" {
		t.Errorf("unset override changed OSArch to %q", env.OSArch)
	}
	if env.JDK != "17.0.2" {
		t.Errorf("JDK = %q", env.JDK)
	}
	if env.SystemProperties["java.version"] != "17" || env.SystemProperties["flavour"] != "ci" {
		t.Errorf("SystemProperties = %v", env.SystemProperties)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"syntax", `local_repository = `, "parsing config"},
		{"unknown key", "local_repo = \"/x\"\n", "unknown config keys: local_repo"},
		{"missing url", "[[repositories]]\nsnapshots = true\n", "url is required"},
		{"relative path", "[[repositories]]\nurl = \"repo\"\n", "neither an http(s) URL"},
		{"bad backend", "[cache]\nbackend = \"memcached\"\n", "cache.backend"},
		{"bad duration", "[cache]\nmetadata_ttl = \"soon\"\n", "parsing config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Fatalf("Load() error = %v, want INVALID_INPUT", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should contain %q", err, tt.want)
			}
		})
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "none.toml")); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Load(missing) error = %v, want NOT_FOUND", err)
	}

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	c, err := LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault() error: %v", err)
	}
	if c.LocalRepository != "" || len(c.Repositories) != 0 {
		t.Errorf("LoadDefault() = %+v, want empty config", c)
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	if got := DefaultPath(); got != filepath.Join("/xdg", "mvnresolve", "config.toml") {
		t.Errorf("DefaultPath() = %q", got)
	}
}
