package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v2"

	"github.com/boinc-go/guirpc/pkg/rpc"
)

// outputFormat is the value of --output.
type outputFormat string

var _ pflag.Value = new(outputFormat)

func (f *outputFormat) String() string {
	return string(*f)
}

func (f *outputFormat) Set(s string) error {
	switch s {
	case "tab", "json", "yaml":
		*f = outputFormat(s)
		return nil
	}
	return errorInvalidOutputFormat
}

func (f *outputFormat) Type() string {
	return "format"
}

func newTabwriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
}

// print writes v as JSON or YAML, or, for tab output, hands a
// tabwriter to table.
func (opts *rootOpts) print(out io.Writer, v interface{}, table func(w *tabwriter.Writer)) error {
	var marshal func(interface{}) ([]byte, error)
	switch opts.output {
	case "tab":
		w := newTabwriter(out)
		table(w)
		return w.Flush()
	case "yaml":
		marshal = yaml.Marshal
	case "json":
		marshal = func(v interface{}) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	default:
		return errorInvalidOutputFormat
	}
	bytes, err := marshal(v)
	if err != nil {
		return errors.Wrap(err, "marshalling to output format "+opts.output.String())
	}
	if _, err := out.Write(bytes); err != nil {
		return err
	}
	if opts.output == "json" {
		fmt.Fprintln(out)
	}
	return nil
}

// records picks out the record values of a list reply.
func records(vs []rpc.Value) []rpc.Record {
	rs := make([]rpc.Record, 0, len(vs))
	for _, v := range vs {
		if r, ok := v.Record(); ok {
			rs = append(rs, r)
		}
	}
	return rs
}

// timestamp renders the daemon's seconds-since-epoch fields.
func timestamp(s string) string {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		return s
	}
	return time.Unix(int64(f), 0).Local().Format("2006-01-02 15:04:05")
}

// writeRecord writes one key/value line per field, with nested
// records indented under their key.
func writeRecord(w io.Writer, r rpc.Record, indent string) {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := r[rpc.Tag(k)]
		switch v.Kind() {
		case rpc.RecordValue:
			fmt.Fprintf(w, "%s%s\t\n", indent, k)
			nested, _ := v.Record()
			writeRecord(w, nested, indent+"  ")
		case rpc.StringValue:
			s, _ := v.Str()
			fmt.Fprintf(w, "%s%s\t%s\n", indent, k, strings.TrimSpace(s))
		default:
			fmt.Fprintf(w, "%s%s\tyes\n", indent, k)
		}
	}
}
