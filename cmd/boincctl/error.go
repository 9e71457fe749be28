package main

import (
	"errors"

	rpcerr "github.com/boinc-go/guirpc/pkg/errors"
)

type usageError struct {
	error
}

func newUsageError(msg string) usageError {
	return usageError{error: errors.New(msg)}
}

var errorWantedNoArgs = newUsageError("expected no (non-flag) arguments")
var errorWantedTask = newUsageError("expected exactly two arguments: <project-url> <task-name>")
var errorInvalidOutputFormat = newUsageError(`invalid output format specified (want "tab", "json" or "yaml")`)

// typedError finds the outermost *rpcerr.Error in err's chain of
// causes, if there is one.
func typedError(err error) *rpcerr.Error {
	for err != nil {
		if e, ok := err.(*rpcerr.Error); ok {
			return e
		}
		c, ok := err.(interface{ Cause() error })
		if !ok {
			return nil
		}
		err = c.Cause()
	}
	return nil
}
