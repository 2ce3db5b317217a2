package xmlstream

import (
	"encoding/xml"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/matzehuels/mvnresolve/pkg/errors"
)

func TestWalk(t *testing.T) {
	doc := `<?xml version="1.0"?>
<root xmlns="urn:test">
  <!-- comment -->
  <a>  hello </a>
  <unknown><deep><deeper/></deep></unknown>
  <b>x<nested>ignored</nested>y</b>
</root>`
	r := New(strings.NewReader(doc), "test.xml")
	if _, err := r.Root("root"); err != nil {
		t.Fatalf("Root() error: %v", err)
	}

	got := map[string]string{}
	err := r.Each(func(se xml.StartElement) error {
		switch se.Name.Local {
		case "a", "b":
			s, err := r.Text()
			got[se.Name.Local] = s
			return err
		default:
			return r.Skip()
		}
	})
	if err != nil {
		t.Fatalf("Each() error: %v", err)
	}
	if got["a"] != "hello" {
		t.Errorf("a = %q, want hello", got["a"])
	}
	if got["b"] != "xy" {
		t.Errorf("b = %q, want xy", got["b"])
	}
}

func TestRootMismatch(t *testing.T) {
	r := New(strings.NewReader(`<settings/>`), "pom.xml")
	_, err := r.Root("project")
	if !errors.Is(err, errors.ErrCodeMalformed) {
		t.Fatalf("Root() error = %v, want MALFORMED", err)
	}
	if !strings.Contains(err.Error(), "pom.xml:") {
		t.Errorf("error %q should carry the document location", err)
	}
}

func TestUnterminated(t *testing.T) {
	r := New(strings.NewReader(`<project><dependencies><dependency>`), "pom.xml")
	if _, err := r.Root("project"); err != nil {
		t.Fatalf("Root() error: %v", err)
	}
	err := r.Each(func(se xml.StartElement) error { return r.Skip() })
	if !errors.Is(err, errors.ErrCodeMalformed) {
		t.Errorf("Each() error = %v, want MALFORMED", err)
	}
}

func TestEmptyDocument(t *testing.T) {
	r := New(strings.NewReader(``), "empty.xml")
	if _, err := r.Root("project"); !errors.Is(err, errors.ErrCodeMalformed) {
		t.Errorf("Root() error = %v, want MALFORMED", err)
	}
}

func rootText(t *testing.T, r *Reader, root, child string) string {
	t.Helper()
	if _, err := r.Root(root); err != nil {
		t.Fatalf("Root() error: %v", err)
	}
	var got string
	err := r.Each(func(se xml.StartElement) error {
		if se.Name.Local != child {
			return r.Skip()
		}
		s, err := r.Text()
		got = s
		return err
	})
	if err != nil {
		t.Fatalf("Each() error: %v", err)
	}
	return got
}

func TestDeclaredEncoding(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"latin-1", "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><project><name>Caf\xe9</name></project>", "Café"},
		{"windows-1252", "<?xml version=\"1.0\" encoding=\"windows-1252\"?><project><name>\x93q\x94</name></project>", "\u201cq\u201d"},
		{"utf-8", `<?xml version="1.0" encoding="UTF-8"?><project><name>Café</name></project>`, "Café"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(strings.NewReader(tt.doc), "pom.xml")
			if got := rootText(t, r, "project", "name"); got != tt.want {
				t.Errorf("name = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUnsupportedEncodingIsMalformed(t *testing.T) {
	r := New(strings.NewReader(`<?xml version="1.0" encoding="x-unknown"?><project/>`), "pom.xml")
	if _, err := r.Root("project"); !errors.Is(err, errors.ErrCodeMalformed) {
		t.Errorf("Root() error = %v, want MALFORMED", err)
	}
}

func TestHTMLEntities(t *testing.T) {
	doc := `<project><description>&copy; 2010 Acme&nbsp;Inc</description><skipped>&reg;</skipped></project>`
	r := New(strings.NewReader(doc), "pom.xml")
	if got := rootText(t, r, "project", "description"); got != "\u00a9 2010 Acme\u00a0Inc" {
		t.Errorf("description = %q", got)
	}
}

func TestReaderFailureIsTransport(t *testing.T) {
	src := io.MultiReader(strings.NewReader(`<project><a>`), iotest.ErrReader(io.ErrClosedPipe))
	r := New(src, "pom.xml")
	if _, err := r.Root("project"); err != nil {
		t.Fatalf("Root() error: %v", err)
	}
	err := r.Each(func(se xml.StartElement) error { return r.Skip() })
	if !errors.Is(err, errors.ErrCodeTransport) {
		t.Errorf("Each() error = %v, want TRANSPORT", err)
	}
}
