package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mvnresolve/pkg/errors"
	"github.com/matzehuels/mvnresolve/pkg/maven/resolver"
)

func (c *CLI) conflictCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "conflict <tree.json | ->",
		Short: "Pick one version per coordinate in a dependency tree",
		Long: `Apply nearest-wins mediation to a dependency tree given as JSON:

  {"id": "org.example:app", "version": "1.0", "children": [
    {"id": "org.slf4j:slf4j-api", "version": "2.0.9"}
  ]}

The version requested closest to the root wins. Ties go to the version that
appears first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := readTree(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			results := resolver.Mediate(tree)

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, results)
			}
			for _, m := range results {
				line := fmt.Sprintf("%s:%s", m.ID, m.Selected)
				if len(m.Requested) > 1 {
					printWarning(out, "%s (requested %s)", line, strings.Join(m.Requested, ", "))
					continue
				}
				printSuccess(out, "%s", line)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the mediation as JSON")
	return cmd
}

func readTree(stdin io.Reader, path string) (*resolver.TreeNode, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "open tree").At(path)
		}
		defer f.Close()
		r = f
	}
	tree, err := resolver.ReadTree(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse tree").At(path)
	}
	return tree, nil
}
