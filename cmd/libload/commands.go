package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/snowmerak/libload/lib/config"
	"github.com/snowmerak/libload/lib/loader"
)

type rootFlags struct {
	configPath string
	asJSON     bool
	verbose    bool
}

// environment is what a command takes from the process. install, when set,
// receives the wired Loader before the command's operation runs.
type environment struct {
	getenv  func(string) string
	install func(*loader.Loader) error
}

func newRootCommand(env environment) *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "libload",
		Short:         "Load and initialize a native library set",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "configuration file (default $"+config.EnvConfigPath+" or "+config.DefaultPath+")")
	root.PersistentFlags().BoolVar(&flags.asJSON, "json", false, "print the report as JSON")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log load progress to stderr")

	ensureCmd := &cobra.Command{
		Use:   "ensure [-- native args...]",
		Short: "Load the library set and run native initialization",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, flags, env, args, func(s *session) error {
				return s.loader.EnsureReady(s.commandLine.Argv())
			})
		},
	}

	loadCmd := &cobra.Command{
		Use:   "load",
		Short: "Load the library set without initializing it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, flags, env, nil, func(s *session) error {
				return s.loader.LoadOnly()
			})
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the expected native version and library set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(config.ResolvePath(flags.configPath, env.getenv), env.getenv)
			if err != nil {
				return err
			}
			m, err := cfg.Manifest()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", m)
			return nil
		},
	}

	root.AddCommand(ensureCmd, loadCmd, versionCmd)
	return root
}

// run wires a loader from the configuration, performs op and prints the
// report. A failed op turns into an exitError carrying its result code.
func run(cmd *cobra.Command, flags *rootFlags, env environment, nativeArgs []string, op func(*session) error) error {
	cfg, err := config.Load(config.ResolvePath(flags.configPath, env.getenv), env.getenv)
	if err != nil {
		return err
	}

	var logOut io.Writer = io.Discard
	if flags.verbose {
		logOut = cmd.ErrOrStderr()
	}
	log := slog.New(slog.NewTextHandler(logOut, nil))

	argv := append([]string{os.Args[0]}, nativeArgs...)
	s, err := wire(cfg, argv, log)
	if err != nil {
		return err
	}
	if env.install != nil {
		if err := env.install(s.loader); err != nil {
			return err
		}
	}

	opErr := op(s)

	report, err := buildReport(s.loader, s.registry, opErr)
	if err != nil {
		return err
	}
	if err := writeReport(cmd.OutOrStdout(), report, flags.asJSON); err != nil {
		return err
	}

	if opErr != nil {
		return &exitError{code: int(loader.ResultCodeOf(opErr)), err: opErr}
	}
	return nil
}
