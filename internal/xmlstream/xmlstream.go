// Package xmlstream is a small pull reader over encoding/xml used by the
// document parsers. It walks one element at a time and lets callers skip
// whole subtrees they do not recognize.
package xmlstream

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/htmlindex"

	mvnerrors "github.com/matzehuels/mvnresolve/pkg/errors"
)

// Reader reads elements from an XML document in document order.
type Reader struct {
	dec      *xml.Decoder
	location string
}

// New returns a Reader over r. location names the document in error messages.
func New(r io.Reader, location string) *Reader {
	dec := xml.NewDecoder(sourceReader{r})
	dec.Strict = true
	dec.Entity = xml.HTMLEntity
	dec.CharsetReader = charsetReader
	return &Reader{dec: dec, location: location}
}

// readError marks failures of the underlying reader so they are not
// mistaken for malformed content.
type readError struct{ err error }

func (e readError) Error() string { return e.err.Error() }
func (e readError) Unwrap() error { return e.err }

type sourceReader struct{ r io.Reader }

func (s sourceReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if err != nil && err != io.EOF {
		err = readError{err}
	}
	return n, err
}

// charsetReader transcodes documents that declare a non-UTF-8 encoding.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q", label)
	}
	return enc.NewDecoder().Reader(input), nil
}

// Location returns the document name passed to New.
func (r *Reader) Location() string { return r.location }

// Pos returns "location:line:column" for the current read position.
func (r *Reader) Pos() string {
	line, col := r.dec.InputPos()
	return fmt.Sprintf("%s:%d:%d", r.location, line, col)
}

// Root reads up to the document element and checks its local name.
func (r *Reader) Root(name string) (xml.StartElement, error) {
	for {
		tok, err := r.dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return xml.StartElement{}, r.Malformed("document has no root element")
			}
			return xml.StartElement{}, r.wrap(err)
		}
		if se, ok := tok.(xml.StartElement); ok {
			if se.Name.Local != name {
				return se, r.Malformed("root element must be %q, found %q", name, se.Name.Local)
			}
			return se, nil
		}
	}
}

// Next returns the next child element of the element currently open.
// It reports false once the enclosing element's end tag has been consumed.
func (r *Reader) Next() (xml.StartElement, bool, error) {
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return xml.StartElement{}, false, r.wrap(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return t, true, nil
		case xml.EndElement:
			return xml.StartElement{}, false, nil
		}
	}
}

// Text reads the character data of the element just returned by Next and
// consumes its end tag. Nested elements are skipped. Surrounding whitespace is trimmed.
func (r *Reader) Text() (string, error) {
	var sb strings.Builder
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return "", r.wrap(err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.StartElement:
			if err := r.Skip(); err != nil {
				return "", err
			}
		case xml.EndElement:
			return strings.TrimSpace(sb.String()), nil
		}
	}
}

// Skip consumes the rest of the element just returned by Next, including its end tag.
func (r *Reader) Skip() error {
	if err := r.dec.Skip(); err != nil {
		return r.wrap(err)
	}
	return nil
}

// Each calls fn for every child element of the open element until its end tag.
// fn must consume the child (Text, Skip or a nested Each).
func (r *Reader) Each(fn func(se xml.StartElement) error) error {
	for {
		se, ok, err := r.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := fn(se); err != nil {
			return err
		}
	}
}

// Enabled reads a <releases>/<snapshots> policy block. Only <enabled> is
// consulted; it defaults to true and "false" in any case disables it.
func (r *Reader) Enabled() (bool, error) {
	on := true
	err := r.Each(func(se xml.StartElement) error {
		if se.Name.Local != "enabled" {
			return r.Skip()
		}
		s, err := r.Text()
		if strings.EqualFold(s, "false") {
			on = false
		}
		return err
	})
	return on, err
}

// Malformed returns a MALFORMED error positioned at the current read position.
func (r *Reader) Malformed(format string, args ...any) error {
	return mvnerrors.New(mvnerrors.ErrCodeMalformed, format, args...).At(r.Pos())
}

func (r *Reader) wrap(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return r.Malformed("unterminated element")
	}
	var se *xml.SyntaxError
	if errors.As(err, &se) {
		return mvnerrors.Wrap(mvnerrors.ErrCodeMalformed, err, "invalid XML").At(r.Pos())
	}
	var re readError
	if errors.As(err, &re) {
		return mvnerrors.Wrap(mvnerrors.ErrCodeTransport, re.err, "read failed").At(r.location)
	}
	return mvnerrors.Wrap(mvnerrors.ErrCodeMalformed, err, "invalid XML").At(r.Pos())
}
