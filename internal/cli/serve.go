package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/mvnresolve/pkg/server"
)

func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve descriptor resolution over HTTP",
		Long: `Serve descriptor resolution over HTTP. One resolver backs every request, so
concurrent requests for the same artifact share one load.

  GET /v1/artifacts/{groupId}/{artifactId}/{constraint}
  GET /v1/artifacts/{groupId}/{artifactId}/{version}/file
  GET /v1/versions/{groupId}/{artifactId}
  GET /healthz`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := c.newSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			printInfo(cmd.ErrOrStderr(), "Listening on http://%s", addr)
			return server.New(s.res, loggerFromContext(ctx)).ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	return cmd
}
