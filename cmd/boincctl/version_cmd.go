package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var version string

type versionOpts struct {
	*rootOpts
	client bool
}

func newVersionCommand(parent *rootOpts) *cobra.Command {
	opts := &versionOpts{rootOpts: parent}
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Output the version of boincctl",
		Example: makeExample(
			"boincctl version",
			"boincctl version --client",
		),
		RunE: opts.RunE,
	}
	cmd.Flags().BoolVar(&opts.client, "client", false, "Also ask the BOINC client for its version")
	return cmd
}

func (opts *versionOpts) RunE(cmd *cobra.Command, args []string) error {
	if len(args) != 0 {
		return errorWantedNoArgs
	}
	if version == "" {
		version = "unversioned"
	}
	if !opts.client {
		fmt.Fprintln(cmd.OutOrStdout(), version)
		return nil
	}

	ctx, cancel := opts.context()
	defer cancel()
	v, err := opts.API.ExchangeVersions(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "boincctl: %s\nclient: %s\n", version, v)
	return nil
}
