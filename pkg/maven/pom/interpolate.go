package pom

import (
	"maps"
	"slices"
	"strings"
)

// interpolator expands ${name} placeholders for one descriptor.
//
// resolved holds fully expanded values; pending holds declared values not yet
// expanded. A placeholder naming a pending property blocks expansion until that
// property resolves. A placeholder nothing can answer stays in the text as-is.
type interpolator struct {
	d        *Descriptor
	parent   *Descriptor
	env      Environment
	resolved map[string]string
	pending  map[string]string
}

// maxExpansionDepth bounds recursion through values that themselves contain placeholders.
const maxExpansionDepth = 32

// fixpoint moves pending properties into the resolved table until a full pass
// makes no progress. Whatever is left (reference cycles) is expanded as far as
// possible, leaving the blocked placeholders literal.
func (in *interpolator) fixpoint() {
	for {
		progress := false
		for _, name := range slices.Sorted(maps.Keys(in.pending)) {
			out, ok := in.expand(in.pending[name], true, 0)
			if !ok {
				continue
			}
			in.resolved[name] = out
			delete(in.pending, name)
			progress = true
		}
		if !progress {
			break
		}
	}
	leftover := slices.Sorted(maps.Keys(in.pending))
	for _, name := range leftover {
		in.resolved[name], _ = in.expand(in.pending[name], false, 0)
	}
	for _, name := range leftover {
		delete(in.pending, name)
	}
}

// substitute expands s against the final tables; unknown placeholders stay literal.
func (in *interpolator) substitute(s string) string {
	out, _ := in.expand(s, false, 0)
	return out
}

// expand replaces every placeholder in s. When strict is set, a reference to a
// pending property aborts the expansion and ok is false.
func (in *interpolator) expand(s string, strict bool, depth int) (string, bool) {
	if !strings.Contains(s, "${") {
		return s, true
	}
	var sb strings.Builder
	rest := s
	for {
		start := strings.Index(rest, "${")
		if start < 0 {
			sb.WriteString(rest)
			return sb.String(), true
		}
		end := strings.IndexByte(rest[start+2:], '}')
		if end < 0 {
			sb.WriteString(rest)
			return sb.String(), true
		}
		name := rest[start+2 : start+2+end]
		sb.WriteString(rest[:start])
		rest = rest[start+3+end:]

		if _, blocked := in.pending[name]; blocked && strict {
			return "", false
		}
		value, found := in.lookup(name)
		if !found || depth >= maxExpansionDepth {
			sb.WriteString("${" + name + "}")
			continue
		}
		expanded, ok := in.expand(value, strict, depth+1)
		if !ok {
			return "", false
		}
		sb.WriteString(expanded)
	}
}

// lookup answers a placeholder name without consulting pending values.
func (in *interpolator) lookup(name string) (string, bool) {
	if field, ok := cutAny(name, "project.parent.", "parent."); ok {
		return in.parentField(field)
	}
	if field, ok := cutAny(name, "project.", "pom."); ok {
		if v, ok := descriptorField(in.d, field); ok {
			return v, true
		}
	}
	if v, ok := strings.CutPrefix(name, "env."); ok {
		if value, ok := in.env.lookupEnv(v); ok {
			return value, true
		}
	}
	if v, ok := in.resolved[name]; ok {
		return v, true
	}
	if v, ok := in.env.SystemProperties[name]; ok {
		return v, true
	}
	return "", false
}

func (in *interpolator) parentField(field string) (string, bool) {
	if in.parent != nil {
		return descriptorField(in.parent, field)
	}
	if ref := in.d.Parent; ref != nil {
		switch field {
		case "groupId":
			return ref.GroupID, ref.GroupID != ""
		case "artifactId":
			return ref.ArtifactID, ref.ArtifactID != ""
		case "version":
			return ref.Version, ref.Version != ""
		}
	}
	return "", false
}

func descriptorField(d *Descriptor, field string) (string, bool) {
	var v string
	switch field {
	case "groupId":
		v = d.GroupID
	case "artifactId":
		v = d.ArtifactID
	case "version":
		v = d.Version
	case "packaging":
		v = d.Packaging
		if v == "" {
			v = DefaultPackaging
		}
	default:
		return "", false
	}
	return v, v != ""
}

func cutAny(s string, prefixes ...string) (string, bool) {
	for _, p := range prefixes {
		if rest, ok := strings.CutPrefix(s, p); ok {
			return rest, true
		}
	}
	return "", false
}
