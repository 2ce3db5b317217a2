package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mvnresolve/pkg/cache"
	"github.com/matzehuels/mvnresolve/pkg/errors"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the repository response cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheOptions returns the configured backend with the CLI's default directory.
func (c *CLI) cacheOptions() (cache.Options, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return cache.Options{}, err
	}
	opts := cfg.Cache.Options()
	if opts.Dir == "" {
		dir, err := cacheDir()
		if err != nil {
			return cache.Options{}, fmt.Errorf("get cache dir: %w", err)
		}
		opts.Dir = dir
	}
	return opts, nil
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Drop every cached repository response",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			opts, err := c.cacheOptions()
			if err != nil {
				return err
			}
			ch, err := cache.Open(ctx, opts)
			if err != nil {
				return err
			}
			defer ch.Close()

			clearer, ok := ch.(cache.Clearer)
			if !ok {
				return errors.New(errors.ErrCodeInvalidInput, "the %q cache backend cannot be cleared", opts.Backend)
			}
			if err := clearer.Clear(ctx); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printSuccess(out, "Cache cleared")
			if opts.Backend == "" || opts.Backend == cache.BackendFile {
				printDetail(out, "Directory: %s", opts.Dir)
			}
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.cacheOptions()
			if err != nil {
				return err
			}
			if opts.Backend != "" && opts.Backend != cache.BackendFile {
				return errors.New(errors.ErrCodeInvalidInput, "the %q cache backend has no directory", opts.Backend)
			}
			fmt.Fprintln(cmd.OutOrStdout(), opts.Dir)
			return nil
		},
	}
}
