package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mvnresolve/pkg/errors"
)

func (c *CLI) fetchCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "fetch <groupId:artifactId:version | pom.xml>",
		Short: "Locate or download the artifact file of a descriptor",
		Long: `Locate the artifact file of a resolved descriptor, downloading it from its
repository when necessary. For a project document the file is its build
output directory. With -o the file is copied to the given path.`,
		Example: `  mvnresolve fetch junit:junit:4.13.2 -o junit.jar`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := c.newSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			d, err := s.load(ctx, args[0], "")
			if err != nil {
				return err
			}
			path, err := d.ArtifactFile(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if output == "" {
				fmt.Fprintln(out, path)
				return nil
			}
			if err := copyFile(path, output); err != nil {
				return err
			}
			printSuccess(out, "Fetched %s", d.ID())
			printFile(out, output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "copy the artifact file to this path")
	return cmd
}

func copyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return errors.Wrap(errors.ErrCodeNotFound, err, "artifact file").At(src)
	}
	if info.IsDir() {
		return errors.New(errors.ErrCodeInvalidInput, "%s is a directory", src)
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("write %s: %w", dst, err)
	}
	return out.Close()
}
