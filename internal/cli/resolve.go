package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mvnresolve/pkg/maven/pom"
)

// latest is the constraint used when a coordinate names no version.
const latest = "[0,)"

// descriptorView is the JSON form of a resolved descriptor.
type descriptorView struct {
	ID           string   `json:"id"`
	ArtifactType string   `json:"artifactType"`
	ParentChain  []string `json:"parentChain,omitempty"`
	*pom.Descriptor
}

func newDescriptorView(d *pom.Descriptor) descriptorView {
	v := descriptorView{ID: d.ID(), ArtifactType: d.ArtifactType(), Descriptor: d}
	for p := d.ResolvedParent(); p != nil; p = p.ResolvedParent() {
		v.ParentChain = append(v.ParentChain, p.ID())
	}
	return v
}

func (c *CLI) resolveCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "resolve <groupId:artifactId[:version] | pom.xml | url>",
		Short: "Resolve a project descriptor",
		Long: `Resolve a project descriptor by coordinate or document location.

A coordinate's version may be an exact version, a soft preference or a range
such as "[1.0,2.0)". Without a version the newest admissible one is used.`,
		Example: `  mvnresolve resolve org.slf4j:slf4j-api:2.0.9
  mvnresolve resolve 'com.google.guava:guava:[32,33)' --json
  mvnresolve resolve ./pom.xml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := c.newSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			prog := newProgress(c.Logger)
			spin := newSpinnerWithContext(ctx, cmd.ErrOrStderr(), "Resolving "+args[0]+"...")
			spin.Start()
			d, err := s.load(ctx, args[0], latest)
			spin.Stop()
			if err != nil {
				return err
			}
			prog.done("Resolved " + d.ID())

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), newDescriptorView(d))
			}
			printDescriptor(cmd.OutOrStdout(), d)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the descriptor as JSON")
	return cmd
}

func printDescriptor(w io.Writer, d *pom.Descriptor) {
	fmt.Fprintln(w, StyleTitle.Render(d.ID()))
	printKeyValue(w, "packaging", d.Packaging)
	printKeyValue(w, "type", d.ArtifactType())
	printKeyValue(w, "location", d.Location)
	if p := d.ResolvedParent(); p != nil {
		printNewline(w)
		fmt.Fprintln(w, StyleDim.Render("parents"))
		for ; p != nil; p = p.ResolvedParent() {
			printParent(w, p.ID())
		}
	}
	if len(d.Dependencies) > 0 {
		printNewline(w)
		fmt.Fprintln(w, StyleDim.Render("dependencies"))
		for _, dep := range d.Dependencies {
			id := dep.Coordinate.String()
			if dep.Version != "" {
				id += ":" + dep.Version
			}
			printDependency(w, id, dep.Scope, dep.Optional)
		}
	}
	if len(d.Repositories) > 0 {
		printNewline(w)
		fmt.Fprintln(w, StyleDim.Render("repositories"))
		for _, r := range d.Repositories {
			printFile(w, r.URL)
		}
	}
	printNewline(w)
	printNextStep(w, "Dependency graph", fmt.Sprintf("%s graph %s -o deps.svg", appName, d.ID()))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
