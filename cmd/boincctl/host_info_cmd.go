package main

import (
	"text/tabwriter"

	"github.com/spf13/cobra"
)

type hostInfoOpts struct {
	*rootOpts
}

func newHostInfo(parent *rootOpts) *hostInfoOpts {
	return &hostInfoOpts{rootOpts: parent}
}

func (opts *hostInfoOpts) Command() *cobra.Command {
	return &cobra.Command{
		Use:     "host-info",
		Short:   "Show what the BOINC client knows about the computer it runs on.",
		Example: makeExample("boincctl host-info -o json"),
		RunE:    opts.RunE,
	}
}

func (opts *hostInfoOpts) RunE(cmd *cobra.Command, args []string) error {
	if len(args) != 0 {
		return errorWantedNoArgs
	}
	ctx, cancel := opts.context()
	defer cancel()
	info, err := opts.API.GetHostInfo(ctx)
	if err != nil {
		return err
	}
	return opts.print(cmd.OutOrStdout(), info, func(w *tabwriter.Writer) {
		writeRecord(w, info, "")
	})
}
