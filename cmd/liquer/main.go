package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/orest-d/liquer/internal/errdef"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	if errdef.Is(err, errdef.CodeConfig) {
		return 2
	}
	return 1
}

func run(args []string, stdout, stderr io.Writer) error {
	root, a := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	defer a.teardown()
	return root.Execute()
}

func newRootCmd(stdout, stderr io.Writer) (*cobra.Command, *app) {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "liquer [query]",
		Short: "Terminal client for liquer servers",
		Long: `liquer submits queries to a liquer server, follows their evaluation and
shows the result. Without a subcommand it opens the interactive browser.`,
		Version: version,
		Args:    cobra.MaximumNArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" || cmd.Name() == "completion" {
				return nil
			}
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd.Context(), firstArg(args))
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "profile file (default: ./liquer.yaml)")
	pf.String("server", "", "liquer server URL")
	pf.Duration("timeout", 0, "HTTP request timeout")
	pf.Bool("insecure", false, "skip TLS certificate verification")
	pf.String("proxy", "", "HTTP proxy URL")
	pf.Duration("poll-interval", 0, "metadata polling interval")
	pf.Int("history-size", 0, "number of visited queries to keep")
	pf.String("log-file", "", "log file path")
	pf.String("log-level", "", "log level (debug|info|warn|error)")
	pf.StringVarP(&a.format, "format", "f", "table", "output format (table|json|csv|markdown)")

	_ = root.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "json", "csv", "markdown"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = root.RegisterFlagCompletionFunc("log-level", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"debug", "info", "warn", "error"}, cobra.ShellCompDirectiveNoFileComp
	})

	root.AddCommand(
		newTUICmd(a),
		newSubmitCmd(a),
		newGetCmd(a),
		newMetaCmd(a),
		newRemoveCmd(a),
		newCommandsCmd(a),
		newStatusCmd(a),
		newCleanCacheCmd(a),
		newHistoryCmd(a),
		newVersionCmd(),
	)
	return root, a
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
