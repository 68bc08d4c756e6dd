package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/orest-d/liquer/internal/liquer"
	"github.com/orest-d/liquer/internal/poller"
	"github.com/orest-d/liquer/internal/render"
)

type followOptions struct {
	out      string
	wait     time.Duration
	progress bool
	inspect  bool
}

func (o *followOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.out, "out", "o", "", "write the result content to a file")
	cmd.Flags().DurationVar(&o.wait, "wait", 0, "give up after this long (0 waits until done)")
	cmd.Flags().BoolVar(&o.progress, "progress", false, "print the evaluation log while waiting")
}

func newTUICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tui [query]",
		Short: "Browse queries interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd.Context(), firstArg(args))
		},
	}
}

func newSubmitCmd(a *app) *cobra.Command {
	var opts followOptions
	cmd := &cobra.Command{
		Use:   "submit <query>",
		Short: "Submit a query, wait for it and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := strings.TrimPrefix(args[0], "#")
			return a.follow(cmd.Context(), opts, func(p *poller.Poller) {
				if opts.inspect {
					p.InspectQuery(q)
					return
				}
				p.SubmitQuery(q)
			})
		},
	}
	opts.bind(cmd)
	cmd.Flags().BoolVar(&opts.inspect, "inspect", false, "print the evaluation log and metadata")
	return cmd
}

func newGetCmd(a *app) *cobra.Command {
	var opts followOptions
	cmd := &cobra.Command{
		Use:   "get [query]",
		Short: "Load a query result without submitting it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := strings.TrimPrefix(firstArg(args), "#")
			return a.follow(cmd.Context(), opts, func(p *poller.Poller) { p.Load(q) })
		},
	}
	opts.bind(cmd)
	return cmd
}

// follow runs one navigation to completion and prints its result.
func (a *app) follow(ctx context.Context, opts followOptions, start func(*poller.Poller)) error {
	ctx, stop := signal.NotifyContext(ctxOrBackground(ctx), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if opts.wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.wait)
		defer cancel()
	}

	p := a.newPoller()
	defer p.Close()
	start(p)

	printed := 0
	var onChange func(poller.View)
	if opts.progress {
		onChange = func(v poller.View) {
			printed = a.printLogSince(v.MetadataLog, printed)
		}
	}
	v, err := waitDone(ctx, p, onChange)
	if err != nil {
		return fmt.Errorf("waiting for %q (last status %s): %w", v.Query, metadataStatus(v), err)
	}
	if opts.inspect {
		if err := a.printMetadata(v.Metadata); err != nil {
			return err
		}
		return viewError(v)
	}
	if opts.out != "" {
		return a.saveContent(ctx, v, opts.out)
	}
	return a.printView(ctx, v)
}

func (a *app) printLogSince(log []liquer.LogEntry, from int) int {
	if from > len(log) {
		from = 0
	}
	for _, entry := range log[from:] {
		fmt.Fprintf(a.stderr, "%-8s %s\n", entry.Kind, entry.Message)
	}
	return len(log)
}

func metadataStatus(v poller.View) liquer.Status {
	if v.Metadata == nil {
		return liquer.StatusUndefined
	}
	return v.Metadata.Status
}

func newMetaCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "meta <query>",
		Short: "Show the cached metadata of a query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, err := a.client.Metadata(ctxOrBackground(cmd.Context()), args[0])
			if err != nil {
				return err
			}
			return a.printMetadata(meta)
		},
	}
}

func newRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <query>",
		Short: "Remove a query from the server cache",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, err := a.client.Remove(ctxOrBackground(cmd.Context()), args[0])
			if err != nil {
				return err
			}
			return a.printMetadata(meta)
		},
	}
}

func newCommandsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "commands [filter]",
		Short: "List the commands the server offers",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmds, err := a.client.Commands(ctxOrBackground(cmd.Context()))
			if err != nil {
				return err
			}
			filter := strings.ToLower(firstArg(args))
			headers := []string{"NS", "Name", "Label", "Doc", "Example"}
			var rows [][]string
			for _, c := range cmds {
				if filter != "" && !strings.Contains(strings.ToLower(c.NS+" "+c.Name+" "+c.Label), filter) {
					continue
				}
				rows = append(rows, []string{c.NS, c.Name, c.Label, firstLine(c.Doc), c.ExampleLink})
			}
			return render.Records(a.stdout, headers, rows, a.outputFormat())
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "List queries the server is evaluating",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rows, err := a.client.QueriesStatus(ctxOrBackground(cmd.Context()))
			if err != nil {
				return err
			}
			headers := []string{"Query", "Status", "Message", "Updated", "Started"}
			out := make([][]string, 0, len(rows))
			for _, r := range rows {
				out = append(out, []string{r.Query, string(r.Status), r.Message, r.Updated, r.Started})
			}
			return render.Records(a.stdout, headers, out, a.outputFormat())
		},
	}
}

func newCleanCacheCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clean-cache",
		Short: "Clean the server cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := a.client.CleanCache(ctxOrBackground(cmd.Context()))
			if err != nil {
				return fmt.Errorf("cache cleaning error: %w", err)
			}
			msg := "Cache cleaned"
			if res != nil && res.Message != "" {
				msg = res.Message
			}
			fmt.Fprintln(a.stdout, msg)
			return nil
		},
	}
}

func newHistoryCmd(a *app) *cobra.Command {
	var clearAll bool
	cmd := &cobra.Command{
		Use:   "history [query]",
		Short: "List visited queries",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.history.Load(); err != nil {
				return err
			}
			if clearAll {
				if err := a.history.Clear(); err != nil {
					return err
				}
				fmt.Fprintln(a.stdout, "History cleared")
				return nil
			}
			headers := []string{"Visited", "Query", "Status", "Mode", "Polls", "Duration"}
			var rows [][]string
			for _, e := range a.history.ByQuery(firstArg(args)) {
				rows = append(rows, []string{
					e.VisitedAt.Local().Format(time.DateTime),
					e.Query,
					e.Status,
					e.Mode,
					fmt.Sprint(e.Polls),
					e.Duration.Round(time.Millisecond).String(),
				})
			}
			return render.Records(a.stdout, headers, rows, a.outputFormat())
		},
	}
	cmd.Flags().BoolVar(&clearAll, "clear", false, "remove all entries")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "liquer %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}

func ctxOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return s
}
