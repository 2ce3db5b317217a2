package pom

import (
	"os"
	"runtime"
	"slices"
	"strings"

	"github.com/matzehuels/mvnresolve/pkg/maven/version"
)

// Environment is the host description profile activation and placeholder
// fallbacks are evaluated against.
type Environment struct {
	OSName     string   // e.g. "Linux", "Mac OS X", "Windows"
	OSFamilies []string // e.g. ["unix"], ["mac", "unix"], ["windows"]
	OSArch     string   // e.g. "amd64", "aarch64"
	OSVersion  string   // empty when unknown
	JDK        string   // JDK version for <jdk> activation; empty means the predicate holds

	// ActiveProfiles lists profile ids that are active regardless of their predicates.
	ActiveProfiles []string
	// SystemProperties is the process-wide property table consulted after the
	// descriptor's own properties.
	SystemProperties map[string]string
	// LookupEnv resolves ${env.NAME}. Defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// HostEnvironment describes the machine the resolver runs on.
func HostEnvironment() Environment {
	env := Environment{
		OSArch:    hostArch(runtime.GOARCH),
		LookupEnv: os.LookupEnv,
	}
	switch runtime.GOOS {
	case "windows":
		env.OSName, env.OSFamilies = "Windows", []string{"windows"}
	case "darwin":
		env.OSName, env.OSFamilies = "Mac OS X", []string{"mac", "unix"}
	case "linux":
		env.OSName, env.OSFamilies = "Linux", []string{"unix"}
	default:
		env.OSName, env.OSFamilies = runtime.GOOS, []string{"unix"}
	}
	return env
}

func hostArch(goarch string) string {
	switch goarch {
	case "arm64":
		return "aarch64"
	case "386":
		return "x86"
	default:
		return goarch
	}
}

func (e Environment) lookupEnv(name string) (string, bool) {
	if e.LookupEnv == nil {
		return os.LookupEnv(name)
	}
	return e.LookupEnv(name)
}

// propertyLookup answers whether a property is defined while profiles are
// being selected.
type propertyLookup func(name string) (string, bool)

// activeProfiles returns the profiles to apply, in declaration order.
// Profiles whose predicates all hold (or that are forced by id) win; when
// none do, the activeByDefault profiles run instead.
func activeProfiles(profiles []Profile, env Environment, lookup propertyLookup) []Profile {
	var explicit, defaults []Profile
	for _, p := range profiles {
		forced := p.ID != "" && slices.Contains(env.ActiveProfiles, p.ID)
		if forced || (p.Activation.hasPredicates() && p.Activation.holds(env, lookup)) {
			explicit = append(explicit, p)
			continue
		}
		if p.Activation.ActiveByDefault {
			defaults = append(defaults, p)
		}
	}
	if len(explicit) > 0 {
		return explicit
	}
	return defaults
}

func (a Activation) hasPredicates() bool {
	return a.JDK != "" || !a.OS.empty() || (a.Property != nil && a.Property.Name != "") || a.File != nil
}

func (a Activation) holds(env Environment, lookup propertyLookup) bool {
	if a.JDK != "" && !jdkMatches(a.JDK, env.JDK) {
		return false
	}
	if !a.OS.empty() && !a.OS.matches(env) {
		return false
	}
	if a.Property != nil && a.Property.Name != "" && !a.Property.matches(lookup) {
		return false
	}
	// <file> is never evaluated and does not block activation.
	return true
}

func (o *OSActivation) matches(env Environment) bool {
	if o.Name != "" && !matchValue(o.Name, env.OSName) {
		return false
	}
	if o.Family != "" && !matchFamily(o.Family, env.OSFamilies) {
		return false
	}
	if o.Arch != "" && !matchValue(o.Arch, env.OSArch) {
		return false
	}
	if o.Version != "" && !matchValue(o.Version, env.OSVersion) {
		return false
	}
	return true
}

// matchValue compares case-insensitively; a leading '!' negates.
func matchValue(want, have string) bool {
	if neg, ok := strings.CutPrefix(want, "!"); ok {
		return !strings.EqualFold(neg, have)
	}
	return strings.EqualFold(want, have)
}

func matchFamily(want string, families []string) bool {
	neg, negated := strings.CutPrefix(want, "!")
	if !negated {
		neg = want
	}
	found := slices.ContainsFunc(families, func(f string) bool { return strings.EqualFold(f, neg) })
	return found != negated
}

func (p *PropertyActivation) matches(lookup propertyLookup) bool {
	if name, ok := strings.CutPrefix(p.Name, "!"); ok {
		_, present := lookup(name)
		return !present
	}
	value, present := lookup(p.Name)
	switch {
	case p.Value == "":
		return present
	case strings.HasPrefix(p.Value, "!"):
		return !present || value != p.Value[1:]
	default:
		return present && value == p.Value
	}
}

// jdkMatches evaluates a <jdk> predicate: a version prefix, a negated prefix,
// or a bracketed range. An unknown JDK satisfies every predicate.
func jdkMatches(want, have string) bool {
	if have == "" {
		return true
	}
	if strings.HasPrefix(want, "[") || strings.HasPrefix(want, "(") {
		c, err := version.ParseConstraint(want)
		return err == nil && c.Matches(version.Parse(have))
	}
	if neg, ok := strings.CutPrefix(want, "!"); ok {
		return !strings.HasPrefix(have, neg)
	}
	return strings.HasPrefix(have, want)
}
