package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mvnresolve/pkg/errors"
	"github.com/matzehuels/mvnresolve/pkg/maven/version"
)

type versionsView struct {
	Repository string   `json:"repository"`
	Versions   []string `json:"versions"`
	Error      string   `json:"error,omitempty"`
}

func (c *CLI) versionsCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "versions <groupId:artifactId>",
		Short:   "List the versions each repository holds",
		Example: `  mvnresolve versions org.slf4j:slf4j-api --remote https://repo.maven.apache.org/maven2`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			coord, err := parseCoordinate(args[0])
			if err != nil {
				return err
			}
			s, err := c.newSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			listing, err := s.res.ListVersions(ctx, coord.groupID, coord.artifactID)
			if err != nil {
				return err
			}

			views := make([]versionsView, 0, len(listing))
			for _, l := range listing {
				v := versionsView{Repository: l.Repository, Versions: sortVersions(l.Versions)}
				if l.Err != nil {
					v.Error = errors.UserMessage(l.Err)
				}
				views = append(views, v)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, views)
			}
			for _, v := range views {
				fmt.Fprintln(out, StyleTitle.Render(v.Repository))
				switch {
				case v.Error != "":
					printWarning(out, "%s", v.Error)
				case len(v.Versions) == 0:
					printDetail(out, "no versions")
				default:
					for _, ver := range v.Versions {
						printDetail(out, "%s", ver)
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the listing as JSON")
	return cmd
}

// sortVersions orders versions oldest first using Maven version ordering.
func sortVersions(vs []string) []string {
	out := slices.Clone(vs)
	slices.SortStableFunc(out, func(a, b string) int {
		return version.Compare(version.Parse(a), version.Parse(b))
	})
	if out == nil {
		out = []string{}
	}
	return out
}
