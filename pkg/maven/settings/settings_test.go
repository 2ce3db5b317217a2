package settings

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/mvnresolve/pkg/errors"
)

const settingsDoc = `<?xml version="1.0"?>
<settings xmlns="http://maven.apache.org/SETTINGS/1.0.0">
  <localRepository>${env.MVNRESOLVE_TEST_HOME}/repo</localRepository>
  <servers><server><id>corp</id><password>secret</password></server></servers>
  <profiles>
    <profile>
      <id>corp</id>
      <repositories>
        <repository>
          <id>corp-releases</id>
          <url>https://repo.corp.example/releases</url>
          <snapshots><enabled>false</enabled></snapshots>
        </repository>
      </repositories>
    </profile>
    <profile>
      <id>nightly</id>
      <repositories>
        <repository><id>nightly</id><url>https://repo.corp.example/nightly</url>
          <releases><enabled>false</enabled></releases>
        </repository>
      </repositories>
    </profile>
  </profiles>
  <activeProfiles>
    <activeProfile>corp</activeProfile>
    <activeProfile></activeProfile>
  </activeProfiles>
</settings>`

func TestParse(t *testing.T) {
	t.Setenv("MVNRESOLVE_TEST_HOME", "/home/ci")

	s, err := Parse(strings.NewReader(settingsDoc), "settings.xml")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if s.LocalRepository != "/home/ci/repo" {
		t.Errorf("LocalRepository = %q", s.LocalRepository)
	}
	if !slices.Equal(s.ActiveProfiles, []string{"corp"}) {
		t.Errorf("ActiveProfiles = %v", s.ActiveProfiles)
	}
	if len(s.Profiles) != 2 {
		t.Fatalf("Profiles = %+v", s.Profiles)
	}

	repos := s.Repositories()
	want := Repository{ID: "corp-releases", URL: "https://repo.corp.example/releases", Releases: true}
	if len(repos) != 1 || repos[0] != want {
		t.Errorf("Repositories() = %+v, want [%+v]", repos, want)
	}

	repos = s.Repositories("nightly")
	if len(repos) != 2 || repos[1].Releases || !repos[1].Snapshots {
		t.Errorf("Repositories(nightly) = %+v", repos)
	}
}

func TestParseEnabledIsCaseInsensitive(t *testing.T) {
	doc := `<settings><profiles><profile><id>p</id><repositories>
  <repository><id>r</id><url>https://repo.example</url>
    <releases><enabled>FALSE</enabled></releases>
    <snapshots><enabled> False </enabled></snapshots>
  </repository>
</repositories></profile></profiles></settings>`
	s, err := Parse(strings.NewReader(doc), "settings.xml")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	repos := s.Repositories("p")
	if len(repos) != 1 || repos[0].Releases || repos[0].Snapshots {
		t.Errorf("Repositories(p) = %+v, want both policies disabled", repos)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"wrong root", `<project/>`},
		{"unterminated", `<settings><localRepository>/x`},
		{"empty", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.doc), "settings.xml")
			if !errors.Is(err, errors.ErrCodeMalformed) {
				t.Errorf("Parse() error = %v, want MALFORMED", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.xml")
	if err := os.WriteFile(path, []byte(`<settings><localRepository>/srv/m2</localRepository></settings>`), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if s.LocalRepository != "/srv/m2" {
		t.Errorf("LocalRepository = %q", s.LocalRepository)
	}

	if _, err := Load(filepath.Join(dir, "missing.xml")); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Load(missing) error = %v, want NOT_FOUND", err)
	}
}

func TestLoadDefaultMissing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	s, err := LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault() error: %v", err)
	}
	if s.LocalRepository != "" || len(s.ActiveProfiles) != 0 {
		t.Errorf("LoadDefault() = %+v, want empty settings", s)
	}
}

func TestExpand(t *testing.T) {
	t.Setenv("HOME", "/home/dev")
	t.Setenv("MVNRESOLVE_TEST_DIR", "/data")
	tests := map[string]string{
		"${user.home}/.m2/repository": "/home/dev/.m2/repository",
		"${env.MVNRESOLVE_TEST_DIR}":  "/data",
		"${env.MVNRESOLVE_UNSET_X}/r": "${env.MVNRESOLVE_UNSET_X}/r",
		"${other}":                    "${other}",
		"/plain":                      "/plain",
	}
	for in, want := range tests {
		if got := expand(in); got != want {
			t.Errorf("expand(%q) = %q, want %q", in, got, want)
		}
	}
}
