package pom

import (
	"maps"
	"slices"
)

// Finalize merges the parent into d, applies active profiles, expands
// properties and applies dependency management. parent may be nil when d
// declares none. Finalize runs once, before d is shared.
func Finalize(d *Descriptor, parent *Descriptor, env Environment) {
	d.parent = parent

	// Identity inherited from the parent.
	if parent != nil {
		if d.GroupID == "" {
			d.GroupID = parent.GroupID
		}
		if d.Version == "" {
			d.Version = parent.Version
		}
	} else if d.Parent != nil {
		if d.GroupID == "" {
			d.GroupID = d.Parent.GroupID
		}
		if d.Version == "" {
			d.Version = d.Parent.Version
		}
	}

	in := &interpolator{
		d:        d,
		parent:   parent,
		env:      env,
		resolved: map[string]string{},
		pending:  maps.Clone(d.Properties),
	}
	if in.pending == nil {
		in.pending = map[string]string{}
	}

	// Parent properties the child does not redeclare.
	if parent != nil {
		for k, v := range parent.Properties {
			if _, own := d.Properties[k]; !own {
				in.resolved[k] = v
			}
		}
		for _, m := range parent.DependencyManagement {
			if _, local := d.ManagedVersion(m.Coordinate); !local {
				d.DependencyManagement = append(d.DependencyManagement, m.clone())
			}
		}
	}

	lookup := func(name string) (string, bool) {
		if v, ok := in.pending[name]; ok {
			return v, true
		}
		if v, ok := in.resolved[name]; ok {
			return v, true
		}
		v, ok := env.SystemProperties[name]
		return v, ok
	}
	for _, p := range activeProfiles(d.Profiles, env, lookup) {
		if p.OutputDirectory != "" {
			d.OutputDirectory = p.OutputDirectory
		}
		maps.Copy(in.pending, p.Properties)
		for _, dep := range p.Dependencies {
			d.Dependencies = append(d.Dependencies, dep.clone())
		}
		for _, m := range p.DependencyManagement {
			d.DependencyManagement = append(d.DependencyManagement, m.clone())
		}
		d.Repositories = append(d.Repositories, p.Repositories...)
	}

	in.fixpoint()
	d.Properties = in.resolved

	d.GroupID = in.substitute(d.GroupID)
	d.ArtifactID = in.substitute(d.ArtifactID)
	d.Version = in.substitute(d.Version)
	d.OutputDirectory = in.substitute(d.OutputDirectory)
	for i := range d.Dependencies {
		substituteDependency(in, &d.Dependencies[i])
	}
	for i := range d.DependencyManagement {
		substituteDependency(in, &d.DependencyManagement[i])
	}
	for i := range d.Repositories {
		d.Repositories[i].URL = in.substitute(d.Repositories[i].URL)
	}

	for i := range d.Dependencies {
		dep := &d.Dependencies[i]
		if m, ok := d.ManagedVersion(dep.Coordinate); ok {
			if m.Version != "" {
				dep.Version = m.Version
			}
			if dep.Scope == "" {
				dep.Scope = m.Scope
			}
		}
		if dep.Scope == "" {
			dep.Scope = DefaultScope
		}
		if dep.Type == "" {
			dep.Type = DefaultPackaging
		}
	}
	if d.Packaging == "" {
		d.Packaging = DefaultPackaging
	}
}

func substituteDependency(in *interpolator, dep *Dependency) {
	dep.GroupID = in.substitute(dep.GroupID)
	dep.ArtifactID = in.substitute(dep.ArtifactID)
	dep.Version = in.substitute(dep.Version)
	dep.Classifier = in.substitute(dep.Classifier)
	dep.Type = in.substitute(dep.Type)
	dep.Scope = in.substitute(dep.Scope)
	dep.SystemPath = in.substitute(dep.SystemPath)
	for i := range dep.Exclusions {
		dep.Exclusions[i].GroupID = in.substitute(dep.Exclusions[i].GroupID)
		dep.Exclusions[i].ArtifactID = in.substitute(dep.Exclusions[i].ArtifactID)
	}
}

// clone copies dep so substitution never writes through to a shared parent or profile entry.
func (dep Dependency) clone() Dependency {
	dep.Exclusions = slices.Clone(dep.Exclusions)
	return dep
}
