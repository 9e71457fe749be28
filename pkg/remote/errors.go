package remote

import (
	"context"

	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"

	"github.com/boinc-go/guirpc/pkg/api"
	rpcerr "github.com/boinc-go/guirpc/pkg/errors"
)

func UpgradeNeededError(err error) error {
	return &rpcerr.Error{
		Type: rpcerr.User,
		Help: `Your BOINC client needs to be upgraded

    ` + err.Error() + `

The BOINC client answering on this host is older than the version
asked for. Please install a newer release from

    https://boinc.berkeley.edu/download.php

and try again.
`,
		Err: err,
	}
}

// RequireVersion asks the daemon for its version and checks it
// against constraint.
func RequireVersion(ctx context.Context, c api.Reader, constraint *semver.Constraints) (*semver.Version, error) {
	v, err := c.ExchangeVersions(ctx)
	if err != nil {
		return nil, err
	}
	if !constraint.Check(v) {
		return v, UpgradeNeededError(errors.Errorf("client version %s does not satisfy %s", v, constraint))
	}
	return v, nil
}
