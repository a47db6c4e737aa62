package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func main() {
	root := buildRoot()
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildRoot creates the root command with all subcommands.
func buildRoot() *cobra.Command {
	globalFlags := &GlobalFlags{}
	startFlags := &StartFlags{}
	listFlags := &ListFlags{}
	outputFlags := &TargetFlags{}
	logsFlags := &TargetFlags{}
	killFlags := &TargetFlags{}
	serveFlags := &ServeFlags{}

	cmd := command{global: globalFlags}

	root := &cobra.Command{
		Use:   "bgproc",
		Short: "Background process lifecycle manager",
		Long: `Bgproc spawns long-running commands in their own process groups,
tracks their lifecycle, captures their output, and terminates them
gracefully with a SIGTERM-then-SIGKILL protocol.

Examples:
  bgproc serve --config=config.toml       # Start the daemon
  bgproc start --name=dev --command="npm run dev"
  bgproc list
  bgproc output --id=proc_1
  bgproc kill --id=dev`,
	}

	root.PersistentFlags().StringVar(&globalFlags.ConfigPath, "config", "", "path to TOML config file (optional)")
	root.PersistentFlags().StringVar(&globalFlags.APIUrl, "api-url", "", "daemon URL (default http://127.0.0.1:8951/api)")
	root.PersistentFlags().DurationVar(&globalFlags.APITimeout, "api-timeout", 10*time.Second, "request timeout")

	root.AddCommand(
		createStartCommand(cmd, startFlags),
		createListCommand(cmd, listFlags),
		createOutputCommand(cmd, outputFlags),
		createLogsCommand(cmd, logsFlags),
		createKillCommand(cmd, killFlags),
		createClearCommand(cmd),
		createServeCommand(globalFlags, serveFlags),
	)
	return root
}

func createStartCommand(c command, flags *StartFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a background process",
		Long: `Start a shell command as a tracked background process.

Examples:
  bgproc start --name=dev-server --command="npm run dev"
  bgproc start --command="make watch" --work-dir=/repo --env=FOO=bar
  bgproc start --command="./batch.sh" --alert-on-success`,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.SuccessChanged = cmd.Flag("alert-on-success").Changed
			flags.FailureChanged = cmd.Flag("alert-on-failure").Changed
			flags.KillChanged = cmd.Flag("alert-on-kill").Changed
			return c.Start(*flags)
		},
	}
	cmd.Flags().StringVar(&flags.Name, "name", "", "human-friendly process name (optional, need not be unique)")
	cmd.Flags().StringVar(&flags.Command, "command", "", "shell command to run (required)")
	cmd.Flags().StringVar(&flags.WorkDir, "work-dir", "", "working directory")
	cmd.Flags().StringSliceVar(&flags.EnvKVs, "env", nil, "extra KEY=VALUE environment entries")
	cmd.Flags().BoolVar(&flags.AlertOnSuccess, "alert-on-success", false, "give the agent a turn when the process exits 0")
	cmd.Flags().BoolVar(&flags.AlertOnFailure, "alert-on-failure", true, "give the agent a turn when the process exits non-zero")
	cmd.Flags().BoolVar(&flags.AlertOnKill, "alert-on-kill", false, "give the agent a turn when the process dies to an external signal")
	if err := cmd.MarkFlagRequired("command"); err != nil {
		panic(err)
	}
	return cmd
}

func createListCommand(c command, flags *ListFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tracked processes",
		Long: `List all tracked processes, running ones first, then finished ones
by most recent end time.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.List(*flags)
		},
	}
	cmd.Flags().BoolVar(&flags.JSON, "json", false, "print records as JSON")
	return cmd
}

func createOutputCommand(c command, flags *TargetFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "output",
		Short: "Show recent output of a process",
		Long: `Show the recent stdout and stderr of a process, ANSI-stripped and
truncated to the configured caps. The target may be a process id, an
exact name, or a unique name substring.

Examples:
  bgproc output --id=proc_1
  bgproc output --id=dev-server`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Output(*flags)
		},
	}
	cmd.Flags().StringVar(&flags.Target, "id", "", "process id or name pattern (required)")
	if err := cmd.MarkFlagRequired("id"); err != nil {
		panic(err)
	}
	return cmd
}

func createLogsCommand(c command, flags *TargetFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show log file paths of a process",
		Long: `Show the on-disk stdout and stderr log file paths of a process so
the full output can be inspected directly.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Logs(*flags)
		},
	}
	cmd.Flags().StringVar(&flags.Target, "id", "", "process id or name pattern (required)")
	if err := cmd.MarkFlagRequired("id"); err != nil {
		panic(err)
	}
	return cmd
}

func createKillCommand(c command, flags *TargetFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kill",
		Short: "Terminate a process",
		Long: `Terminate a process group: SIGTERM first, then SIGKILL after the
grace period if it does not exit. Killing an already-finished process
is a no-op.

Examples:
  bgproc kill --id=proc_1
  bgproc kill --id=dev-server`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Kill(*flags)
		},
	}
	cmd.Flags().StringVar(&flags.Target, "id", "", "process id or name pattern (required)")
	if err := cmd.MarkFlagRequired("id"); err != nil {
		panic(err)
	}
	return cmd
}

func createClearCommand(c command) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove finished records",
		Long: `Remove all finished process records from the registry. Running
processes are never removed. Log files on disk are untouched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Clear()
		},
	}
}

func createServeCommand(globalFlags *GlobalFlags, serveFlags *ServeFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [config.toml]",
		Short: "Start the bgproc daemon",
		Long: `Start the bgproc daemon that owns the process registry and serves
the REST API consumed by the other subcommands.

Examples:
  bgproc serve --log-dir=/tmp/bgproc-logs
  bgproc serve config.toml
  bgproc serve --config=config.toml --listen=127.0.0.1:9000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			serveFlags.ConfigPath = globalFlags.ConfigPath
			if len(args) > 0 {
				serveFlags.ConfigPath = args[0]
			}
			return runServeCommand(serveFlags)
		},
	}
	cmd.Flags().StringVar(&serveFlags.Listen, "listen", "", "listen address (overrides config)")
	cmd.Flags().StringVar(&serveFlags.LogDir, "log-dir", "", "process output log directory (overrides config)")
	return cmd
}
