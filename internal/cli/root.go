package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/mvnresolve/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "mvnresolve resolves Maven project descriptors",
		Long: `mvnresolve loads Maven project descriptors from local and remote repositories,
resolving parent chains, profiles, properties and managed versions the way a
build would see them.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.StringVar(&c.opts.repository, "repository", "", "local repository directory (default ~/.m2/repository)")
	flags.StringVar(&c.opts.settings, "settings", "", "Maven settings.xml (default ~/.m2/settings.xml)")
	flags.StringVar(&c.opts.config, "config", "", "config file (default $XDG_CONFIG_HOME/mvnresolve/config.toml)")
	flags.StringArrayVar(&c.opts.remotes, "remote", nil, "remote repository URL, searched after configured ones (repeatable)")
	flags.StringArrayVarP(&c.opts.defines, "define", "D", nil, "system property key=value (repeatable)")
	flags.StringArrayVarP(&c.opts.profiles, "profile", "P", nil, "profile id to activate (repeatable)")
	flags.BoolVar(&c.opts.noCache, "no-cache", false, "disable the response cache")

	root.AddCommand(c.resolveCommand())
	root.AddCommand(c.versionsCommand())
	root.AddCommand(c.fetchCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.conflictCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}
