package main

import (
	"fmt"
	"sort"
	"strconv"
	"text/tabwriter"

	"github.com/ryanuber/go-glob"
	"github.com/spf13/cobra"

	"github.com/boinc-go/guirpc/pkg/rpc"
)

type tasksOpts struct {
	*rootOpts
	all     bool
	name    string
	project string
}

func newTasks(parent *rootOpts) *tasksOpts {
	return &tasksOpts{rootOpts: parent}
}

func (opts *tasksOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List the tasks the BOINC client is working on.",
		Example: makeExample(
			"boincctl tasks",
			"boincctl tasks --all --project '*einstein*'",
			"boincctl tasks --name 'h1_*' -o json",
		),
		RunE: opts.RunE,
	}
	cmd.Flags().BoolVarP(&opts.all, "all", "a", false, "Include tasks that aren't running")
	cmd.Flags().StringVarP(&opts.name, "name", "n", "", "Only tasks whose name matches this glob")
	cmd.Flags().StringVar(&opts.project, "project", "", "Only tasks whose project URL matches this glob")
	return cmd
}

func (opts *tasksOpts) RunE(cmd *cobra.Command, args []string) error {
	if len(args) != 0 {
		return errorWantedNoArgs
	}

	ctx, cancel := opts.context()
	defer cancel()
	results, err := opts.API.GetResults(ctx, !opts.all)
	if err != nil {
		return err
	}

	tasks := filterTasks(records(results), rpc.Name, opts.name, opts.project)
	sort.Sort(tasksByName{tasks, rpc.Name})

	return opts.print(cmd.OutOrStdout(), tasks, func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "TASK\tPROJECT\tSTATUS\tDONE\tDEADLINE\n")
		for _, t := range tasks {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				t.Text(rpc.Name), t.Text(rpc.ProjectURL), taskStatus(t), progress(t), timestamp(t.Text("report_deadline")))
		}
	})
}

type oldTasksOpts struct {
	*rootOpts
	name    string
	project string
}

func newOldTasks(parent *rootOpts) *oldTasksOpts {
	return &oldTasksOpts{rootOpts: parent}
}

func (opts *oldTasksOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "old-tasks",
		Short:   "List tasks that have recently been reported.",
		Example: makeExample("boincctl old-tasks --project '*rosetta*'"),
		RunE:    opts.RunE,
	}
	cmd.Flags().StringVarP(&opts.name, "name", "n", "", "Only tasks whose name matches this glob")
	cmd.Flags().StringVar(&opts.project, "project", "", "Only tasks whose project URL matches this glob")
	return cmd
}

func (opts *oldTasksOpts) RunE(cmd *cobra.Command, args []string) error {
	if len(args) != 0 {
		return errorWantedNoArgs
	}

	ctx, cancel := opts.context()
	defer cancel()
	results, err := opts.API.GetOldResults(ctx)
	if err != nil {
		return err
	}

	tasks := filterTasks(records(results), "result_name", opts.name, opts.project)
	sort.Sort(tasksByName{tasks, "result_name"})

	return opts.print(cmd.OutOrStdout(), tasks, func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "TASK\tPROJECT\tEXIT STATUS\tCOMPLETED\n")
		for _, t := range tasks {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				t.Text("result_name"), t.Text(rpc.ProjectURL), t.Text("exit_status"), timestamp(t.Text("completed_time")))
		}
	})
}

// filterTasks keeps the tasks whose name and project URL match the
// given globs. An empty glob matches everything.
func filterTasks(tasks []rpc.Record, nameTag rpc.Tag, name, project string) []rpc.Record {
	if name == "" && project == "" {
		return tasks
	}
	filtered := []rpc.Record{}
	for _, t := range tasks {
		if name != "" && !glob.Glob(name, t.Text(nameTag)) {
			continue
		}
		if project != "" && !glob.Glob(project, t.Text(rpc.ProjectURL)) {
			continue
		}
		filtered = append(filtered, t)
	}
	return filtered
}

type tasksByName struct {
	tasks []rpc.Record
	tag   rpc.Tag
}

func (s tasksByName) Len() int {
	return len(s.tasks)
}

func (s tasksByName) Less(a, b int) bool {
	return s.tasks[a].Text(s.tag) < s.tasks[b].Text(s.tag)
}

func (s tasksByName) Swap(a, b int) {
	s.tasks[a], s.tasks[b] = s.tasks[b], s.tasks[a]
}

var resultStates = map[string]string{
	"0": "new",
	"1": "downloading",
	"2": "ready to run",
	"3": "computation error",
	"4": "uploading",
	"5": "uploaded",
	"6": "aborted",
	"7": "upload failed",
}

func taskStatus(t rpc.Record) string {
	if t.Has("suspended_via_gui") {
		return "suspended"
	}
	if v, ok := t.Get("active_task"); ok {
		if at, ok := v.Record(); ok {
			switch at.Text("active_task_state") {
			case "1":
				return "running"
			case "9":
				return "waiting"
			case "5", "8":
				return "stopping"
			}
		}
	}
	if t.Has("ready_to_report") {
		return "ready to report"
	}
	if s, ok := resultStates[t.Text("state")]; ok {
		return s
	}
	return t.Text("state")
}

func progress(t rpc.Record) string {
	v, ok := t.Get("active_task")
	if !ok {
		return ""
	}
	at, ok := v.Record()
	if !ok {
		return ""
	}
	f, err := strconv.ParseFloat(at.Text("fraction_done"), 64)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%.1f%%", f*100)
}
