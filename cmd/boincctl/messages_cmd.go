package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/boinc-go/guirpc/pkg/rpc"
)

type messagesOpts struct {
	*rootOpts
	seqno        int
	translatable bool
	follow       bool
	interval     time.Duration
}

func newMessages(parent *rootOpts) *messagesOpts {
	return &messagesOpts{rootOpts: parent}
}

func (opts *messagesOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "messages",
		Short: "Show the BOINC client's event log.",
		Example: makeExample(
			"boincctl messages",
			"boincctl messages --seqno 120",
			"boincctl messages --follow --interval 10s",
		),
		RunE: opts.RunE,
	}
	cmd.Flags().IntVar(&opts.seqno, "seqno", 0, "Only messages after this sequence number")
	cmd.Flags().BoolVar(&opts.translatable, "translatable", false, "Ask for messages with translatable text left marked up")
	cmd.Flags().BoolVarP(&opts.follow, "follow", "f", false, "Keep polling for new messages until interrupted")
	cmd.Flags().DurationVar(&opts.interval, "interval", 5*time.Second, "How often to poll when following")
	return cmd
}

func (opts *messagesOpts) RunE(cmd *cobra.Command, args []string) error {
	if len(args) != 0 {
		return errorWantedNoArgs
	}

	if opts.follow {
		if opts.interval <= 0 {
			return newUsageError("--interval must be positive")
		}
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigs)
		go func() {
			select {
			case <-sigs:
				cancel()
			case <-ctx.Done():
			}
		}()
		return opts.followMessages(ctx, cmd.OutOrStdout(), rate.NewLimiter(rate.Every(opts.interval), 1))
	}

	ctx, cancel := opts.context()
	defer cancel()
	msgs, err := opts.API.GetMessages(ctx, opts.seqno, opts.translatable)
	if err != nil {
		return err
	}
	return opts.printMessages(cmd.OutOrStdout(), records(msgs), true)
}

// followMessages polls for messages newer than the last one seen, at
// most as often as limiter allows, until ctx is done.
func (opts *messagesOpts) followMessages(ctx context.Context, out io.Writer, limiter *rate.Limiter) error {
	seqno := opts.seqno
	header := true
	for {
		if err := limiter.Wait(ctx); err != nil {
			return nil
		}
		rctx, cancel := opts.contextFrom(ctx)
		msgs, err := opts.API.GetMessages(rctx, seqno, opts.translatable)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		rs := records(msgs)
		if len(rs) == 0 {
			continue
		}
		if err := opts.printMessages(out, rs, header); err != nil {
			return err
		}
		header = false
		for _, m := range rs {
			if n, err := strconv.Atoi(m.Text(rpc.Seqno)); err == nil && n > seqno {
				seqno = n
			}
		}
	}
}

func (opts *messagesOpts) printMessages(out io.Writer, msgs []rpc.Record, header bool) error {
	return opts.print(out, msgs, func(w *tabwriter.Writer) {
		if header {
			fmt.Fprintf(w, "SEQNO\tTIME\tPROJECT\tMESSAGE\n")
		}
		for _, m := range msgs {
			body := strings.Join(strings.Fields(m.Text("body")), " ")
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", m.Text(rpc.Seqno), timestamp(m.Text("time")), m.Text("project"), body)
		}
	})
}

type messageCountOpts struct {
	*rootOpts
}

func newMessageCount(parent *rootOpts) *messageCountOpts {
	return &messageCountOpts{rootOpts: parent}
}

func (opts *messageCountOpts) Command() *cobra.Command {
	return &cobra.Command{
		Use:   "message-count",
		Short: "Show the sequence number of the newest message.",
		RunE:  opts.RunE,
	}
}

func (opts *messageCountOpts) RunE(cmd *cobra.Command, args []string) error {
	if len(args) != 0 {
		return errorWantedNoArgs
	}
	ctx, cancel := opts.context()
	defer cancel()
	n, err := opts.API.GetMessageCount(ctx)
	if err != nil {
		return err
	}
	return opts.print(cmd.OutOrStdout(), n, func(w *tabwriter.Writer) {
		fmt.Fprintln(w, n)
	})
}

type noticesOpts struct {
	*rootOpts
	seqno int
}

func newNotices(parent *rootOpts) *noticesOpts {
	return &noticesOpts{rootOpts: parent}
}

func (opts *noticesOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notices",
		Short: "Show the public notices from the BOINC client's projects.",
		Example: makeExample(
			"boincctl notices",
			"boincctl notices --seqno 12",
		),
		RunE: opts.RunE,
	}
	cmd.Flags().IntVar(&opts.seqno, "seqno", 0, "Only notices from this sequence number on")
	return cmd
}

func (opts *noticesOpts) RunE(cmd *cobra.Command, args []string) error {
	if len(args) != 0 {
		return errorWantedNoArgs
	}
	var seqno *int
	if cmd.Flags().Changed("seqno") {
		seqno = &opts.seqno
	}

	ctx, cancel := opts.context()
	defer cancel()
	list, err := opts.API.GetNoticesPublic(ctx, seqno)
	if err != nil {
		return err
	}
	notices := records(list)

	return opts.print(cmd.OutOrStdout(), notices, func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "SEQNO\tCREATED\tCATEGORY\tTITLE\n")
		for _, n := range notices {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", n.Text(rpc.Seqno), timestamp(n.Text("create_time")), n.Text("category"), n.Text("title"))
		}
	})
}
