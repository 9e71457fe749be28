package main

import (
	"fmt"
	"os"
)

func main() {
	root := newRoot()
	rootCmd := root.Command()

	cmd, err := rootCmd.ExecuteC()
	root.Close()
	if err != nil {
		if _, ok := err.(usageError); ok {
			cmd.Println("")
			cmd.Println(cmd.UsageString())
		} else if e := typedError(err); e != nil && e.Help != "" {
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprint(os.Stderr, e.Help)
		}
		os.Exit(1)
	}
}
