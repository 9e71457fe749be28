package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/boinc-go/guirpc/pkg/api"
)

// taskControlOpts is one of the commands that act on a single task.
type taskControlOpts struct {
	*rootOpts
	use   string
	short string
	done  string
	call  func(c api.Controller) func(ctx context.Context, projectURL, name string) error
}

func newTaskControls(parent *rootOpts) []*cobra.Command {
	return []*cobra.Command{
		(&taskControlOpts{
			rootOpts: parent,
			use:      "abort",
			short:    "Abort a task. It can't be resumed afterwards.",
			done:     "aborted",
			call:     func(c api.Controller) func(context.Context, string, string) error { return c.AbortResult },
		}).Command(),
		(&taskControlOpts{
			rootOpts: parent,
			use:      "suspend",
			short:    "Suspend a task.",
			done:     "suspended",
			call:     func(c api.Controller) func(context.Context, string, string) error { return c.SuspendResult },
		}).Command(),
		(&taskControlOpts{
			rootOpts: parent,
			use:      "resume",
			short:    "Resume a suspended task.",
			done:     "resumed",
			call:     func(c api.Controller) func(context.Context, string, string) error { return c.ResumeResult },
		}).Command(),
	}
}

func (opts *taskControlOpts) Command() *cobra.Command {
	return &cobra.Command{
		Use:     opts.use + " <project-url> <task-name>",
		Short:   opts.short,
		Example: makeExample("boincctl " + opts.use + " https://einsteinathome.org/ h1_0123.4_O2MD1"),
		RunE:    opts.RunE,
	}
}

func (opts *taskControlOpts) RunE(cmd *cobra.Command, args []string) error {
	if len(args) != 2 {
		return errorWantedTask
	}
	projectURL, name := args[0], args[1]

	ctx, cancel := opts.context()
	defer cancel()
	if err := opts.call(opts.API)(ctx, projectURL, name); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", opts.done, name)
	return nil
}
