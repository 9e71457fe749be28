package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/ryanuber/go-glob"
	"github.com/spf13/cobra"

	"github.com/boinc-go/guirpc/pkg/rpc"
)

const masterURL rpc.Tag = "master_url"

type projectsOpts struct {
	*rootOpts
	url string
}

func newProjects(parent *rootOpts) *projectsOpts {
	return &projectsOpts{rootOpts: parent}
}

func (opts *projectsOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List the projects the BOINC client is attached to.",
		Example: makeExample(
			"boincctl projects",
			"boincctl projects --url '*einstein*' -o yaml",
		),
		RunE: opts.RunE,
	}
	cmd.Flags().StringVarP(&opts.url, "url", "u", "", "Only projects whose URL matches this glob")
	return cmd
}

func (opts *projectsOpts) RunE(cmd *cobra.Command, args []string) error {
	if len(args) != 0 {
		return errorWantedNoArgs
	}

	ctx, cancel := opts.context()
	defer cancel()
	status, err := opts.API.GetProjectStatus(ctx)
	if err != nil {
		return err
	}

	projects := []rpc.Record{}
	for _, p := range records(status) {
		if opts.url == "" || glob.Glob(opts.url, p.Text(masterURL)) {
			projects = append(projects, p)
		}
	}
	sort.Slice(projects, func(a, b int) bool {
		return projects[a].Text(masterURL) < projects[b].Text(masterURL)
	})

	return opts.print(cmd.OutOrStdout(), projects, func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "PROJECT\tURL\tCREDIT\tSTATUS\n")
		for _, p := range projects {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Text("project_name"), p.Text(masterURL), credit(p.Text("user_total_credit")), projectStatus(p))
		}
	})
}

func credit(s string) string {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return s
	}
	return strconv.FormatFloat(f, 'f', 0, 64)
}

func projectStatus(p rpc.Record) string {
	var status []string
	if p.Has("suspended_via_gui") {
		status = append(status, "suspended")
	}
	if p.Has("dont_request_more_work") {
		status = append(status, "no new tasks")
	}
	if p.Has("detach_when_done") {
		status = append(status, "detaching")
	}
	return strings.Join(status, ",")
}
