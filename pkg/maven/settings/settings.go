// Package settings reads the parts of a Maven settings.xml the resolver
// honours: the local repository path, the active profile ids, and the
// repositories those profiles declare.
package settings

import (
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"

	"github.com/matzehuels/mvnresolve/internal/xmlstream"
	"github.com/matzehuels/mvnresolve/pkg/errors"
)

// Settings is the subset of settings.xml the resolver understands.
type Settings struct {
	LocalRepository string
	ActiveProfiles  []string
	Profiles        []Profile
}

// Profile is a settings profile. Only its repositories are used.
type Profile struct {
	ID           string
	Repositories []Repository
}

// Repository is a repository declared by a settings profile.
type Repository struct {
	ID        string
	URL       string
	Releases  bool
	Snapshots bool
}

// DefaultPath returns ~/.m2/settings.xml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".m2", "settings.xml")
}

// DefaultLocalRepository returns ~/.m2/repository.
func DefaultLocalRepository() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".m2", "repository")
}

// Load reads the settings file at path.
func Load(path string) (*Settings, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeNotFound, "settings file not found").At(path)
		}
		return nil, errors.Wrap(errors.ErrCodeTransport, err, "opening settings").At(path)
	}
	defer f.Close()
	return Parse(f, path)
}

// LoadDefault reads DefaultPath, returning empty settings if it does not exist.
func LoadDefault() (*Settings, error) {
	path := DefaultPath()
	if path == "" {
		return &Settings{}, nil
	}
	s, err := Load(path)
	if errors.Is(err, errors.ErrCodeNotFound) {
		return &Settings{}, nil
	}
	return s, err
}

// Parse reads a settings document. location names it in errors.
func Parse(r io.Reader, location string) (*Settings, error) {
	xr := xmlstream.New(r, location)
	if _, err := xr.Root("settings"); err != nil {
		return nil, err
	}
	s := &Settings{}
	err := xr.Each(func(se xml.StartElement) error {
		switch se.Name.Local {
		case "localRepository":
			v, err := xr.Text()
			s.LocalRepository = expand(v)
			return err
		case "activeProfiles":
			return xr.Each(func(se xml.StartElement) error {
				if se.Name.Local != "activeProfile" {
					return xr.Skip()
				}
				id, err := xr.Text()
				if err == nil && id != "" {
					s.ActiveProfiles = append(s.ActiveProfiles, id)
				}
				return err
			})
		case "profiles":
			return xr.Each(func(se xml.StartElement) error {
				if se.Name.Local != "profile" {
					return xr.Skip()
				}
				p, err := parseProfile(xr)
				if err == nil {
					s.Profiles = append(s.Profiles, p)
				}
				return err
			})
		default:
			return xr.Skip()
		}
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func parseProfile(xr *xmlstream.Reader) (Profile, error) {
	var p Profile
	err := xr.Each(func(se xml.StartElement) error {
		switch se.Name.Local {
		case "id":
			v, err := xr.Text()
			p.ID = v
			return err
		case "repositories":
			return xr.Each(func(se xml.StartElement) error {
				if se.Name.Local != "repository" {
					return xr.Skip()
				}
				repo, err := parseRepository(xr)
				if err == nil && repo.URL != "" {
					p.Repositories = append(p.Repositories, repo)
				}
				return err
			})
		default:
			return xr.Skip()
		}
	})
	return p, err
}

func parseRepository(xr *xmlstream.Reader) (Repository, error) {
	repo := Repository{Releases: true, Snapshots: true}
	err := xr.Each(func(se xml.StartElement) error {
		var err error
		switch se.Name.Local {
		case "id":
			repo.ID, err = xr.Text()
		case "url":
			var u string
			u, err = xr.Text()
			repo.URL = expand(u)
		case "releases":
			repo.Releases, err = xr.Enabled()
		case "snapshots":
			repo.Snapshots, err = xr.Enabled()
		default:
			err = xr.Skip()
		}
		return err
	})
	return repo, err
}

// Repositories returns the repositories of every active profile, in
// declaration order. extra lists further profile ids to treat as active.
func (s *Settings) Repositories(extra ...string) []Repository {
	var out []Repository
	for _, p := range s.Profiles {
		if p.ID == "" || !(slices.Contains(s.ActiveProfiles, p.ID) || slices.Contains(extra, p.ID)) {
			continue
		}
		out = append(out, p.Repositories...)
	}
	return out
}

var placeholder = regexp.MustCompile(`\$\{([^}]+)\}`)

// expand substitutes ${user.home} and ${env.NAME}. Unknown placeholders stay literal.
func expand(s string) string {
	return placeholder.ReplaceAllStringFunc(s, func(m string) string {
		name := m[2 : len(m)-1]
		switch {
		case name == "user.home":
			if home, err := os.UserHomeDir(); err == nil {
				return home
			}
		case len(name) > 4 && name[:4] == "env.":
			if v, ok := os.LookupEnv(name[4:]); ok {
				return v
			}
		}
		return m
	})
}
