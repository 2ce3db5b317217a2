package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/mvnresolve/pkg/errors"
	"github.com/matzehuels/mvnresolve/pkg/observability"
)

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// fixture is a local repository plus empty config and settings files, so
// commands never read the user's own.
type fixture struct {
	dir  string
	repo string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{dir: dir, repo: filepath.Join(dir, "repo")}
	writeTestFile(t, filepath.Join(dir, "config.toml"), "")
	writeTestFile(t, filepath.Join(dir, "settings.xml"), "<settings/>")

	f.pom("org.example", "parent", "1.0", `<packaging>pom</packaging>
<properties><slf4j.version>2.0.9</slf4j.version></properties>
<dependencyManagement><dependencies>
  <dependency><groupId>org.slf4j</groupId><artifactId>slf4j-api</artifactId><version>${slf4j.version}</version></dependency>
</dependencies></dependencyManagement>`)
	f.pom("org.example", "lib", "1.0", `<parent><groupId>org.example</groupId><artifactId>parent</artifactId><version>1.0</version></parent>
<dependencies><dependency><groupId>org.slf4j</groupId><artifactId>slf4j-api</artifactId></dependency></dependencies>`)
	f.pom("org.example", "lib", "1.1", "")
	f.pom("org.example", "lib", "1.10", "")
	writeTestFile(t, filepath.Join(f.repo, "org", "example", "lib", "1.0", "lib-1.0.jar"), "PK")
	f.pom("org.slf4j", "slf4j-api", "2.0.9", "")

	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Cleanup(observability.Reset)
	return f
}

func (f *fixture) pom(g, a, v, body string) {
	path := filepath.Join(f.repo, filepath.FromSlash(strings.ReplaceAll(g, ".", "/")), a, v, a+"-"+v+".pom")
	content := "<project><modelVersion>4.0.0</modelVersion><groupId>" + g + "</groupId><artifactId>" + a +
		"</artifactId><version>" + v + "</version>" + body + "</project>"
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		panic(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		panic(err)
	}
}

// run executes the CLI with the fixture's isolation flags and returns stdout.
func (f *fixture) run(t *testing.T, stdin io.Reader, args ...string) (string, error) {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs(append([]string{
		"--repository", f.repo,
		"--config", filepath.Join(f.dir, "config.toml"),
		"--settings", filepath.Join(f.dir, "settings.xml"),
		"--no-cache",
	}, args...))
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	if stdin != nil {
		root.SetIn(stdin)
	}
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestResolveCommandJSON(t *testing.T) {
	f := newFixture(t)
	out, err := f.run(t, nil, "resolve", "org.example:lib:1.0", "--json")
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}

	var got struct {
		ID           string   `json:"id"`
		ArtifactType string   `json:"artifactType"`
		ParentChain  []string `json:"parentChain"`
		Dependencies []struct {
			ArtifactID string `json:"artifactId"`
			Version    string `json:"version"`
			Scope      string `json:"scope"`
		} `json:"dependencies"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if got.ID != "org.example:lib:1.0" || got.ArtifactType != "jar" {
		t.Errorf("got %+v", got)
	}
	if len(got.ParentChain) != 1 || got.ParentChain[0] != "org.example:parent:1.0" {
		t.Errorf("ParentChain = %v", got.ParentChain)
	}
	if len(got.Dependencies) != 1 || got.Dependencies[0].Version != "2.0.9" || got.Dependencies[0].Scope != "compile" {
		t.Errorf("Dependencies = %+v", got.Dependencies)
	}
}

func TestResolveCommandLatest(t *testing.T) {
	f := newFixture(t)
	out, err := f.run(t, nil, "resolve", "org.example:lib", "--json")
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	if !strings.Contains(out, `"id": "org.example:lib:1.10"`) {
		t.Errorf("expected newest version 1.10, got:\n%s", out)
	}
}

func TestResolveCommandDocument(t *testing.T) {
	f := newFixture(t)
	doc := filepath.Join(f.dir, "app", "pom.xml")
	writeTestFile(t, doc, `<project><groupId>org.example</groupId><artifactId>app</artifactId><version>0.1</version>
<dependencies><dependency><groupId>org.example</groupId><artifactId>lib</artifactId><version>1.0</version></dependency></dependencies></project>`)

	out, err := f.run(t, nil, "resolve", doc)
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	for _, want := range []string{"org.example:app:0.1", "org.example:lib:1.0", doc} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestResolveCommandNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.run(t, nil, "resolve", "org.example:missing:1.0")
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("error = %v, want NOT_FOUND", err)
	}
}

func TestVersionsCommand(t *testing.T) {
	f := newFixture(t)
	out, err := f.run(t, nil, "versions", "org.example:lib", "--json")
	if err != nil {
		t.Fatalf("versions error: %v", err)
	}
	var got []versionsView
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d repositories, want 1", len(got))
	}
	if want := []string{"1.0", "1.1", "1.10"}; strings.Join(got[0].Versions, ",") != strings.Join(want, ",") {
		t.Errorf("Versions = %v, want %v", got[0].Versions, want)
	}
}

func TestFetchCommand(t *testing.T) {
	f := newFixture(t)
	out, err := f.run(t, nil, "fetch", "org.example:lib:1.0")
	if err != nil {
		t.Fatalf("fetch error: %v", err)
	}
	want := filepath.Join(f.repo, "org", "example", "lib", "1.0", "lib-1.0.jar")
	if strings.TrimSpace(out) != want {
		t.Errorf("fetch printed %q, want %q", out, want)
	}

	dst := filepath.Join(f.dir, "lib.jar")
	if _, err := f.run(t, nil, "fetch", "org.example:lib:1.0", "-o", dst); err != nil {
		t.Fatalf("fetch -o error: %v", err)
	}
	if data, err := os.ReadFile(dst); err != nil || string(data) != "PK" {
		t.Errorf("copied file = %q, %v", data, err)
	}

	if _, err := f.run(t, nil, "fetch", "org.example:lib"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("fetch without version error = %v, want INVALID_INPUT", err)
	}
}

func TestGraphCommand(t *testing.T) {
	f := newFixture(t)
	doc := filepath.Join(f.dir, "app", "pom.xml")
	writeTestFile(t, doc, `<project><groupId>org.example</groupId><artifactId>app</artifactId><version>0.1</version>
<dependencies>
  <dependency><groupId>org.example</groupId><artifactId>lib</artifactId><version>1.0</version></dependency>
  <dependency><groupId>org.example</groupId><artifactId>gone</artifactId><version>9</version></dependency>
  <dependency><groupId>junit</groupId><artifactId>junit</artifactId><version>4.13.2</version><scope>test</scope></dependency>
</dependencies></project>`)

	out, err := f.run(t, nil, "graph", doc)
	if err != nil {
		t.Fatalf("graph error: %v", err)
	}
	for _, want := range []string{"digraph", "org.example:lib:1.0", "org.example:parent:1.0", "org.example:gone"} {
		if !strings.Contains(out, want) {
			t.Errorf("DOT output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "junit") {
		t.Errorf("test dependency drawn without --test:\n%s", out)
	}

	if _, err := f.run(t, nil, "graph", doc, "--format", "png"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("unknown format error = %v, want INVALID_INPUT", err)
	}
}

func TestConflictCommand(t *testing.T) {
	f := newFixture(t)
	tree := `{"id":"app","version":"1","children":[
  {"id":"a","version":"1","children":[{"id":"log","version":"2.0"}]},
  {"id":"log","version":"1.5"}
]}`
	out, err := f.run(t, strings.NewReader(tree), "conflict", "-", "--json")
	if err != nil {
		t.Fatalf("conflict error: %v", err)
	}
	var got []struct {
		ID        string   `json:"id"`
		Selected  string   `json:"selected"`
		Requested []string `json:"requested"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	for _, m := range got {
		if m.ID == "log" && m.Selected != "1.5" {
			t.Errorf("log selected %s, want the nearer 1.5", m.Selected)
		}
	}

	if _, err := f.run(t, strings.NewReader("{"), "conflict", "-"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("bad tree error = %v, want INVALID_INPUT", err)
	}
}

func TestCachePathCommand(t *testing.T) {
	f := newFixture(t)
	out, err := f.run(t, nil, "cache", "path")
	if err != nil {
		t.Fatalf("cache path error: %v", err)
	}
	if want := filepath.Join(f.dir, "cache", appName); strings.TrimSpace(out) != want {
		t.Errorf("cache path = %q, want %q", out, want)
	}
}

func TestCacheClearCommand(t *testing.T) {
	f := newFixture(t)
	entry := filepath.Join(f.dir, "cache", appName, "ab", "entry")
	writeTestFile(t, entry, "stale")

	if _, err := f.run(t, nil, "cache", "clear"); err != nil {
		t.Fatalf("cache clear error: %v", err)
	}
	if _, err := os.Stat(entry); !os.IsNotExist(err) {
		t.Errorf("cache entry survived clear: %v", err)
	}
}

func TestGraphJSONThenRender(t *testing.T) {
	f := newFixture(t)
	saved := filepath.Join(f.dir, "deps.json")
	if _, err := f.run(t, nil, "graph", "org.example:lib:1.0", "--format", "json", "-o", saved); err != nil {
		t.Fatalf("graph --format json error: %v", err)
	}

	out, err := f.run(t, nil, "render", saved, "--format", "dot")
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	for _, want := range []string{"org.example:lib:1.0", "org.example:parent:1.0", "org.slf4j:slf4j-api:2.0.9", "penwidth=2"} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered DOT missing %q:\n%s", want, out)
		}
	}

	if _, err := f.run(t, nil, "render", saved, "--format", "json"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("render --format json error = %v, want INVALID_INPUT", err)
	}
}
