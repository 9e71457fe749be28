// Shared main test code
package main

import (
	"bytes"
	"io/ioutil"
	"testing"

	"github.com/boinc-go/guirpc/pkg/config"
	"github.com/boinc-go/guirpc/pkg/guirpctest"
)

const testPassword = "hunter2"

// mockRoot makes root options that dial srv and read no config file.
func mockRoot(t *testing.T, srv *guirpctest.Server) *rootOpts {
	opts := newRoot()
	opts.Config = &config.Config{}
	opts.Dialer = srv
	t.Cleanup(func() {
		opts.Close()
		srv.Close()
	})
	return opts
}

func execute(opts *rootOpts, args ...string) (string, error) {
	cmd := opts.Command()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(ioutil.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}
