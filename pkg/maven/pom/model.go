package pom

import (
	"context"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/matzehuels/mvnresolve/pkg/maven/version"
)

// Default values applied when a document leaves a field out.
const (
	DefaultPackaging       = "jar"
	DefaultScope           = "compile"
	DefaultRelativePath    = "../pom.xml"
	DefaultOutputDirectory = "target/classes"
)

// Coordinate identifies an artifact family.
type Coordinate struct {
	GroupID    string `json:"groupId"`
	ArtifactID string `json:"artifactId"`
}

// String returns "groupId:artifactId".
func (c Coordinate) String() string { return c.GroupID + ":" + c.ArtifactID }

// ParentRef is the <parent> declaration of a descriptor.
type ParentRef struct {
	Coordinate
	Version      string `json:"version"`
	RelativePath string `json:"relativePath,omitempty"`
}

// Exclusion is a coordinate pattern removed from a dependency's transitive set.
// An empty field matches anything ("*" in the document).
type Exclusion struct {
	GroupID    string `json:"groupId,omitempty"`
	ArtifactID string `json:"artifactId,omitempty"`
}

// Matches reports whether the exclusion pattern covers c.
func (e Exclusion) Matches(c Coordinate) bool {
	return (e.GroupID == "" || e.GroupID == c.GroupID) &&
		(e.ArtifactID == "" || e.ArtifactID == c.ArtifactID)
}

// Dependency is one <dependency> entry.
//
// Version holds the raw constraint text until the descriptor is finalized;
// use [Dependency.Constraint] to parse it.
type Dependency struct {
	Coordinate
	Version    string      `json:"version,omitempty"`
	Classifier string      `json:"classifier,omitempty"`
	Type       string      `json:"type,omitempty"`
	Scope      string      `json:"scope,omitempty"`
	SystemPath string      `json:"systemPath,omitempty"`
	Optional   bool        `json:"optional,omitempty"`
	Exclusions []Exclusion `json:"exclusions,omitempty"`
}

// Constraint parses the dependency's version text.
func (d Dependency) Constraint() (version.Constraint, error) {
	return version.ParseConstraint(d.Version)
}

// Excludes reports whether any exclusion of d covers c.
func (d Dependency) Excludes(c Coordinate) bool {
	for _, e := range d.Exclusions {
		if e.Matches(c) {
			return true
		}
	}
	return false
}

// Repository is an additional repository declared by a descriptor.
type Repository struct {
	ID        string `json:"id,omitempty"`
	URL       string `json:"url"`
	Releases  bool   `json:"releases"`
	Snapshots bool   `json:"snapshots"`
}

// OSActivation is the <os> activation predicate. Empty fields are not checked.
type OSActivation struct {
	Name    string `json:"name,omitempty"`
	Family  string `json:"family,omitempty"`
	Arch    string `json:"arch,omitempty"`
	Version string `json:"version,omitempty"`
}

func (o *OSActivation) empty() bool {
	return o == nil || (o.Name == "" && o.Family == "" && o.Arch == "" && o.Version == "")
}

// PropertyActivation is the <property> activation predicate.
// A Name starting with '!' requires the property to be absent.
type PropertyActivation struct {
	Name  string `json:"name"`
	Value string `json:"value,omitempty"`
}

// FileActivation is the <file> activation predicate. It is recorded but never
// evaluated; a profile declaring it is treated as if the predicate held.
type FileActivation struct {
	Exists  string `json:"exists,omitempty"`
	Missing string `json:"missing,omitempty"`
}

// Activation holds every predicate a profile may declare.
type Activation struct {
	ActiveByDefault bool                `json:"activeByDefault,omitempty"`
	JDK             string              `json:"jdk,omitempty"`
	OS              *OSActivation       `json:"os,omitempty"`
	Property        *PropertyActivation `json:"property,omitempty"`
	File            *FileActivation     `json:"file,omitempty"`
}

// Profile is a conditional overlay.
type Profile struct {
	ID                   string            `json:"id,omitempty"`
	Activation           Activation        `json:"activation"`
	OutputDirectory      string            `json:"outputDirectory,omitempty"`
	Properties           map[string]string `json:"properties,omitempty"`
	Dependencies         []Dependency      `json:"dependencies,omitempty"`
	DependencyManagement []Dependency      `json:"dependencyManagement,omitempty"`
	Repositories         []Repository      `json:"repositories,omitempty"`
}

// ArtifactStore fetches the binary output of a descriptor that came from a repository.
type ArtifactStore interface {
	LoadArtifactFile(ctx context.Context, groupID, artifactID, version, classifier, typ string) (string, error)
}

// Descriptor is a project object model.
//
// A Descriptor is mutated only while it is parsed and finalized by the load
// that created it; afterwards it is shared read-only.
type Descriptor struct {
	Coordinate
	Version              string            `json:"version"`
	Packaging            string            `json:"packaging"`
	Parent               *ParentRef        `json:"parent,omitempty"`
	OutputDirectory      string            `json:"outputDirectory,omitempty"`
	Properties           map[string]string `json:"properties,omitempty"`
	Dependencies         []Dependency      `json:"dependencies,omitempty"`
	DependencyManagement []Dependency      `json:"dependencyManagement,omitempty"`
	Profiles             []Profile         `json:"profiles,omitempty"`
	Repositories         []Repository      `json:"repositories,omitempty"`

	// Location is the normalized path or URL the document was read from.
	Location string `json:"location"`
	// FromRepository is set for documents read out of a repository layout;
	// relative parent paths are not followed for them.
	FromRepository bool `json:"fromRepository"`

	parent *Descriptor
	store  ArtifactStore
}

// ResolvedParent returns the finalized parent descriptor, or nil.
func (d *Descriptor) ResolvedParent() *Descriptor { return d.parent }

// SetArtifactStore records where the descriptor's binary output can be fetched.
func (d *Descriptor) SetArtifactStore(s ArtifactStore) { d.store = s }

// ID returns "groupId:artifactId:version".
func (d *Descriptor) ID() string {
	return d.GroupID + ":" + d.ArtifactID + ":" + d.Version
}

// ArtifactType maps the packaging to the dependency type naming its file.
func (d *Descriptor) ArtifactType() string {
	switch d.Packaging {
	case "", "bundle":
		return DefaultPackaging
	default:
		return d.Packaging
	}
}

// ArtifactFile returns the location of the descriptor's binary output.
//
// Repository descriptors fetch the file through the repository they came from.
// Project descriptors report their output directory, resolved against the
// directory holding the document.
func (d *Descriptor) ArtifactFile(ctx context.Context) (string, error) {
	if d.FromRepository && d.store != nil {
		return d.store.LoadArtifactFile(ctx, d.GroupID, d.ArtifactID, d.Version, "", d.ArtifactType())
	}
	out := d.OutputDirectory
	if out == "" {
		out = DefaultOutputDirectory
	}
	return ResolveRelative(d.Location, out), nil
}

// ManagedVersion returns the first dependency-management entry for c.
func (d *Descriptor) ManagedVersion(c Coordinate) (Dependency, bool) {
	for _, m := range d.DependencyManagement {
		if m.Coordinate == c {
			return m, true
		}
	}
	return Dependency{}, false
}

// IsURL reports whether loc is an http(s) location rather than a file path.
func IsURL(loc string) bool {
	return strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://")
}

// ResolveRelative resolves rel against the document at base. Absolute rel values
// are returned unchanged.
func ResolveRelative(base, rel string) string {
	if IsURL(base) {
		b, err := url.Parse(base)
		if err != nil {
			return rel
		}
		r, err := url.Parse(filepath.ToSlash(rel))
		if err != nil {
			return rel
		}
		return b.ResolveReference(r).String()
	}
	if filepath.IsAbs(rel) {
		return filepath.Clean(rel)
	}
	return filepath.Join(filepath.Dir(base), rel)
}
