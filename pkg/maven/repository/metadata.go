package repository

import (
	"encoding/xml"
	"io"

	"github.com/matzehuels/mvnresolve/internal/xmlstream"
)

// parseMetadata reads the version list of a maven-metadata.xml document.
// Only metadata/versioning/versions/version is consulted.
func parseMetadata(r io.Reader, location string) ([]string, error) {
	xr := xmlstream.New(r, location)
	if _, err := xr.Root("metadata"); err != nil {
		return nil, err
	}
	var versions []string
	err := xr.Each(func(se xml.StartElement) error {
		if se.Name.Local != "versioning" {
			return xr.Skip()
		}
		return xr.Each(func(se xml.StartElement) error {
			if se.Name.Local != "versions" {
				return xr.Skip()
			}
			return xr.Each(func(se xml.StartElement) error {
				if se.Name.Local != "version" {
					return xr.Skip()
				}
				v, err := xr.Text()
				if err != nil {
					return err
				}
				if v != "" {
					versions = append(versions, v)
				}
				return nil
			})
		})
	})
	if err != nil {
		return nil, err
	}
	return versions, nil
}
