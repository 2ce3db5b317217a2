package repository

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"

	"github.com/matzehuels/mvnresolve/pkg/errors"
	"github.com/matzehuels/mvnresolve/pkg/httputil"
)

const libMetadata = `<?xml version="1.0" encoding="UTF-8"?>
<metadata>
  <groupId>org.example</groupId>
  <artifactId>lib</artifactId>
  <versioning>
    <latest>2.1-SNAPSHOT</latest>
    <release>2.0</release>
    <versions>
      <version>1.0</version>
      <version>2.0</version>
      <version>2.1-SNAPSHOT</version>
    </versions>
    <lastUpdated>20240101000000</lastUpdated>
  </versioning>
</metadata>`

// fakeRemote serves a tiny repository in the standard layout.
type fakeRemote struct {
	*httptest.Server
	downloads atomic.Int32
}

func newFakeRemote(t *testing.T) *fakeRemote {
	t.Helper()
	fr := &fakeRemote{}
	r := chi.NewRouter()
	r.Get("/maven2/org/example/lib/maven-metadata.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(libMetadata))
	})
	r.Get("/maven2/org/example/broken/maven-metadata.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<metadata><versioning>"))
	})
	r.Get("/maven2/org/example/other/maven-metadata.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<project/>"))
	})
	r.Get("/maven2/org/example/lib/{version}/{file}", func(w http.ResponseWriter, r *http.Request) {
		v, file := chi.URLParam(r, "version"), chi.URLParam(r, "file")
		switch {
		case file == "lib-"+v+".pom":
			w.Write([]byte(pomDoc("org.example", "lib", v)))
		case file == "lib-"+v+".jar":
			fr.downloads.Add(1)
			w.Write([]byte("jar:" + v))
		default:
			http.NotFound(w, r)
		}
	})
	fr.Server = httptest.NewServer(r)
	t.Cleanup(fr.Close)
	return fr
}

func newTestRemote(t *testing.T, fr *fakeRemote, p Policy) *Remote {
	t.Helper()
	client := httputil.NewClient(nil, httputil.WithHTTPClient(fr.Client()), httputil.WithRetry(1, time.Millisecond))
	return NewRemote(fr.URL+"/maven2/", p, Options{Client: client, ScratchDir: "/tmp/scratch", Scratch: memfs.New()})
}

func TestRemoteListVersions(t *testing.T) {
	fr := newFakeRemote(t)
	ctx := context.Background()
	repo := newTestRemote(t, fr, DefaultPolicy)

	got, err := repo.ListVersions(ctx, "org.example", "lib")
	if err != nil {
		t.Fatalf("ListVersions() error: %v", err)
	}
	if want := []string{"1.0", "2.0", "2.1-SNAPSHOT"}; !slices.Equal(got, want) {
		t.Errorf("ListVersions() = %v, want %v", got, want)
	}

	releasesOnly := newTestRemote(t, fr, Policy{Releases: true})
	got, _ = releasesOnly.ListVersions(ctx, "org.example", "lib")
	if want := []string{"1.0", "2.0"}; !slices.Equal(got, want) {
		t.Errorf("releases-only ListVersions() = %v, want %v", got, want)
	}
}

func TestRemoteListVersionsFailures(t *testing.T) {
	fr := newFakeRemote(t)
	ctx := context.Background()
	repo := newTestRemote(t, fr, DefaultPolicy)

	if got, err := repo.ListVersions(ctx, "org.example", "absent"); err != nil || len(got) != 0 {
		t.Errorf("absent artifact = %v, %v; want no versions and no error", got, err)
	}
	if _, err := repo.ListVersions(ctx, "org.example", "broken"); !errors.Is(err, errors.ErrCodeMalformed) {
		t.Errorf("truncated metadata error = %v, want MALFORMED", err)
	}
	if _, err := repo.ListVersions(ctx, "org.example", "other"); !errors.Is(err, errors.ErrCodeMalformed) {
		t.Errorf("wrong root error = %v, want MALFORMED", err)
	}
}

func TestRemoteLoadPom(t *testing.T) {
	fr := newFakeRemote(t)
	ctx := context.Background()
	repo := newTestRemote(t, fr, DefaultPolicy)
	docs := &parsingLoader{}

	d, err := repo.LoadPom(ctx, docs, "org.example", "lib", "2.0").Wait(ctx)
	if err != nil {
		t.Fatalf("LoadPom() error: %v", err)
	}
	if d.Version != "2.0" {
		t.Errorf("Version = %q", d.Version)
	}
	if want := fr.URL + "/maven2/org/example/lib/2.0/lib-2.0.pom"; docs.locations[0] != want {
		t.Errorf("location = %q, want %q", docs.locations[0], want)
	}
}

func TestRemoteLoadArtifactFile(t *testing.T) {
	fr := newFakeRemote(t)
	ctx := context.Background()
	fs := memfs.New()
	client := httputil.NewClient(nil, httputil.WithHTTPClient(fr.Client()), httputil.WithRetry(1, time.Millisecond))
	repo := NewRemote(fr.URL+"/maven2", DefaultPolicy, Options{Client: client, ScratchDir: "/tmp/scratch", Scratch: fs})

	got, err := repo.LoadArtifactFile(ctx, "org.example", "lib", "1.0", "", "jar")
	if err != nil {
		t.Fatalf("LoadArtifactFile() error: %v", err)
	}
	if !strings.HasPrefix(got, "/tmp/scratch") || filepath.Base(got) != "lib-1.0.jar" {
		t.Errorf("LoadArtifactFile() = %q", got)
	}

	rel, _ := filepath.Rel("/tmp/scratch", got)
	data, err := util.ReadFile(fs, filepath.ToSlash(rel))
	if err != nil {
		t.Fatalf("reading download: %v", err)
	}
	if string(data) != "jar:1.0" {
		t.Errorf("downloaded %q", data)
	}

	// A release already in scratch is not downloaded again.
	if _, err := repo.LoadArtifactFile(ctx, "org.example", "lib", "1.0", "", "jar"); err != nil {
		t.Fatal(err)
	}
	if n := fr.downloads.Load(); n != 1 {
		t.Errorf("downloaded %d times, want 1", n)
	}

	if _, err := repo.LoadArtifactFile(ctx, "org.example", "lib", "1.0", "", "war"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("missing file error = %v, want NOT_FOUND", err)
	}
	entries, _ := fs.ReadDir(filepath.ToSlash(filepath.Dir(rel)))
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".download-") {
			t.Errorf("temporary file %s left behind", e.Name())
		}
	}
}

func TestRemoteIsSame(t *testing.T) {
	repo := NewRemote("https://repo.example.com/maven2/", DefaultPolicy, Options{})
	if !repo.IsSame("https://repo.example.com/maven2", DefaultPolicy) {
		t.Error("trailing slash should not matter")
	}
	if repo.IsSame("https://repo.example.com/maven2", Policy{Snapshots: true}) {
		t.Error("different policy treated as the same repository")
	}
}

func TestNew(t *testing.T) {
	if _, ok := New("https://repo.example.com", DefaultPolicy, Options{}).(*Remote); !ok {
		t.Error("URL should yield a remote repository")
	}
	if _, ok := New(t.TempDir(), DefaultPolicy, Options{}).(*Local); !ok {
		t.Error("directory should yield a local repository")
	}
}
