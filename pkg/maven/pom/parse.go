package pom

import (
	"encoding/xml"
	"io"
	"strings"

	"github.com/matzehuels/mvnresolve/internal/xmlstream"
)

// Parse reads a POM document into an unfinalized Descriptor.
//
// Only the elements the resolver needs are read; every other element, at any
// depth, is skipped without error. A wrong root element or an unterminated
// block fails the whole parse with a MALFORMED error carrying the position.
func Parse(r io.Reader, location string) (*Descriptor, error) {
	xr := xmlstream.New(r, location)
	if _, err := xr.Root("project"); err != nil {
		return nil, err
	}
	d := &Descriptor{Location: location, Properties: map[string]string{}}
	p := parser{xr: xr}
	if err := xr.Each(p.project(d)); err != nil {
		return nil, err
	}
	return d, nil
}

type parser struct {
	xr *xmlstream.Reader
}

func (p parser) project(d *Descriptor) func(xml.StartElement) error {
	return func(se xml.StartElement) error {
		var err error
		switch se.Name.Local {
		case "groupId":
			d.GroupID, err = p.xr.Text()
		case "artifactId":
			d.ArtifactID, err = p.xr.Text()
		case "version":
			d.Version, err = p.xr.Text()
		case "packaging":
			d.Packaging, err = p.xr.Text()
		case "parent":
			d.Parent, err = p.parent()
		case "build":
			err = p.xr.Each(p.build(&d.OutputDirectory))
		case "properties":
			err = p.xr.Each(p.properties(d.Properties))
		case "dependencyManagement":
			d.DependencyManagement, err = p.dependencyManagement(d.DependencyManagement)
		case "dependencies":
			d.Dependencies, err = p.dependencies(d.Dependencies)
		case "profiles":
			d.Profiles, err = p.profiles(d.Profiles)
		case "repositories":
			d.Repositories, err = p.repositories(d.Repositories)
		default:
			err = p.xr.Skip()
		}
		return err
	}
}

func (p parser) parent() (*ParentRef, error) {
	ref := &ParentRef{RelativePath: DefaultRelativePath}
	err := p.xr.Each(func(se xml.StartElement) error {
		var err error
		switch se.Name.Local {
		case "groupId":
			ref.GroupID, err = p.xr.Text()
		case "artifactId":
			ref.ArtifactID, err = p.xr.Text()
		case "version":
			ref.Version, err = p.xr.Text()
		case "relativePath":
			ref.RelativePath, err = p.xr.Text()
		default:
			err = p.xr.Skip()
		}
		return err
	})
	return ref, err
}

func (p parser) build(outputDirectory *string) func(xml.StartElement) error {
	return func(se xml.StartElement) error {
		if se.Name.Local != "outputDirectory" {
			return p.xr.Skip()
		}
		s, err := p.xr.Text()
		*outputDirectory = s
		return err
	}
}

func (p parser) properties(props map[string]string) func(xml.StartElement) error {
	return func(se xml.StartElement) error {
		s, err := p.xr.Text()
		props[se.Name.Local] = s
		return err
	}
}

func (p parser) dependencyManagement(list []Dependency) ([]Dependency, error) {
	err := p.xr.Each(func(se xml.StartElement) error {
		if se.Name.Local != "dependencies" {
			return p.xr.Skip()
		}
		var err error
		list, err = p.dependencies(list)
		return err
	})
	return list, err
}

func (p parser) dependencies(list []Dependency) ([]Dependency, error) {
	err := p.xr.Each(func(se xml.StartElement) error {
		if se.Name.Local != "dependency" {
			return p.xr.Skip()
		}
		dep, err := p.dependency()
		list = append(list, dep)
		return err
	})
	return list, err
}

func (p parser) dependency() (Dependency, error) {
	var dep Dependency
	err := p.xr.Each(func(se xml.StartElement) error {
		var err error
		switch se.Name.Local {
		case "groupId":
			dep.GroupID, err = p.xr.Text()
		case "artifactId":
			dep.ArtifactID, err = p.xr.Text()
		case "version":
			dep.Version, err = p.xr.Text()
		case "classifier":
			dep.Classifier, err = p.xr.Text()
		case "type":
			dep.Type, err = p.xr.Text()
		case "scope":
			dep.Scope, err = p.xr.Text()
		case "systemPath":
			dep.SystemPath, err = p.xr.Text()
		case "optional":
			var s string
			s, err = p.xr.Text()
			dep.Optional = strings.EqualFold(s, "true")
		case "exclusions":
			dep.Exclusions, err = p.exclusions()
		default:
			err = p.xr.Skip()
		}
		return err
	})
	return dep, err
}

func (p parser) exclusions() ([]Exclusion, error) {
	var list []Exclusion
	err := p.xr.Each(func(se xml.StartElement) error {
		if se.Name.Local != "exclusion" {
			return p.xr.Skip()
		}
		var ex Exclusion
		err := p.xr.Each(func(se xml.StartElement) error {
			var err error
			switch se.Name.Local {
			case "groupId":
				ex.GroupID, err = p.xr.Text()
			case "artifactId":
				ex.ArtifactID, err = p.xr.Text()
			default:
				err = p.xr.Skip()
			}
			return err
		})
		if ex.GroupID == "*" {
			ex.GroupID = ""
		}
		if ex.ArtifactID == "*" {
			ex.ArtifactID = ""
		}
		list = append(list, ex)
		return err
	})
	return list, err
}

func (p parser) profiles(list []Profile) ([]Profile, error) {
	err := p.xr.Each(func(se xml.StartElement) error {
		if se.Name.Local != "profile" {
			return p.xr.Skip()
		}
		prof, err := p.profile()
		list = append(list, prof)
		return err
	})
	return list, err
}

func (p parser) profile() (Profile, error) {
	prof := Profile{Properties: map[string]string{}}
	err := p.xr.Each(func(se xml.StartElement) error {
		var err error
		switch se.Name.Local {
		case "id":
			prof.ID, err = p.xr.Text()
		case "activation":
			err = p.xr.Each(p.activation(&prof.Activation))
		case "build":
			err = p.xr.Each(p.build(&prof.OutputDirectory))
		case "properties":
			err = p.xr.Each(p.properties(prof.Properties))
		case "dependencyManagement":
			prof.DependencyManagement, err = p.dependencyManagement(prof.DependencyManagement)
		case "dependencies":
			prof.Dependencies, err = p.dependencies(prof.Dependencies)
		case "repositories":
			prof.Repositories, err = p.repositories(prof.Repositories)
		default:
			err = p.xr.Skip()
		}
		return err
	})
	return prof, err
}

func (p parser) activation(a *Activation) func(xml.StartElement) error {
	return func(se xml.StartElement) error {
		var err error
		switch se.Name.Local {
		case "activeByDefault":
			var s string
			s, err = p.xr.Text()
			a.ActiveByDefault = strings.EqualFold(s, "true")
		case "jdk":
			a.JDK, err = p.xr.Text()
		case "os":
			a.OS = &OSActivation{}
			err = p.xr.Each(func(se xml.StartElement) error {
				var err error
				switch se.Name.Local {
				case "name":
					a.OS.Name, err = p.xr.Text()
				case "family":
					a.OS.Family, err = p.xr.Text()
				case "arch":
					a.OS.Arch, err = p.xr.Text()
				case "version":
					a.OS.Version, err = p.xr.Text()
				default:
					err = p.xr.Skip()
				}
				return err
			})
		case "property":
			a.Property = &PropertyActivation{}
			err = p.xr.Each(func(se xml.StartElement) error {
				var err error
				switch se.Name.Local {
				case "name":
					a.Property.Name, err = p.xr.Text()
				case "value":
					a.Property.Value, err = p.xr.Text()
				default:
					err = p.xr.Skip()
				}
				return err
			})
		case "file":
			a.File = &FileActivation{}
			err = p.xr.Each(func(se xml.StartElement) error {
				var err error
				switch se.Name.Local {
				case "exists":
					a.File.Exists, err = p.xr.Text()
				case "missing":
					a.File.Missing, err = p.xr.Text()
				default:
					err = p.xr.Skip()
				}
				return err
			})
		default:
			err = p.xr.Skip()
		}
		return err
	}
}

func (p parser) repositories(list []Repository) ([]Repository, error) {
	err := p.xr.Each(func(se xml.StartElement) error {
		if se.Name.Local != "repository" {
			return p.xr.Skip()
		}
		repo := Repository{Releases: true, Snapshots: true}
		err := p.xr.Each(func(se xml.StartElement) error {
			var err error
			switch se.Name.Local {
			case "id":
				repo.ID, err = p.xr.Text()
			case "url":
				repo.URL, err = p.xr.Text()
			case "releases":
				repo.Releases, err = p.xr.Enabled()
			case "snapshots":
				repo.Snapshots, err = p.xr.Enabled()
			default:
				err = p.xr.Skip()
			}
			return err
		})
		list = append(list, repo)
		return err
	})
	return list, err
}
