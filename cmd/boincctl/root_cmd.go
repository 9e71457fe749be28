package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/go-kit/kit/log"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/boinc-go/guirpc/pkg/api"
	"github.com/boinc-go/guirpc/pkg/client"
	"github.com/boinc-go/guirpc/pkg/config"
	"github.com/boinc-go/guirpc/pkg/remote"
	"github.com/boinc-go/guirpc/pkg/session"
	"github.com/boinc-go/guirpc/pkg/transport"
)

const (
	EnvVariableHost     = "BOINC_HOST"
	EnvVariablePassword = "BOINC_PASSWORD"
)

type rootOpts struct {
	host        string
	password    string
	configPath  string
	timeout     time.Duration
	output      outputFormat
	minVersion  string
	metricsAddr string
	verbose     bool

	// Set before running to bypass the config file and the network.
	Config *config.Config
	Dialer transport.Dialer

	API            api.Client
	requestTimeout time.Duration
	session        *session.Session
	logger         log.Logger
	metrics        net.Listener
}

func newRoot() *rootOpts {
	return &rootOpts{}
}

var rootLongHelp = strings.TrimSpace(`
boincctl talks to a BOINC client over its GUI RPC port.

Workflow:
  boincctl tasks                                            # What's running?
  boincctl messages --follow                                # Watch the event log.
  boincctl suspend https://einsteinathome.org/ h1_0123.4_O2 # Pause one task.
  boincctl -H cruncher projects -o yaml                     # Ask a host named in ~/.boincctl.yaml.
`)

func (opts *rootOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "boincctl",
		Long:              rootLongHelp,
		SilenceUsage:      true,
		PersistentPreRunE: opts.PersistentPreRunE,
	}
	cmd.PersistentFlags().StringVarP(&opts.host, "host", "H", "",
		fmt.Sprintf("host name from the config file, or address of the BOINC client (default localhost:31416); you can also set the environment variable %s", EnvVariableHost))
	cmd.PersistentFlags().StringVarP(&opts.password, "password", "p", "",
		fmt.Sprintf("GUI RPC password; you can also set the environment variable %s", EnvVariablePassword))
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "",
		fmt.Sprintf("path to the hosts file (default $HOME/%s)", config.ConfigName))
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 0,
		fmt.Sprintf("how long to wait for each request (default %s)", config.Defaults.Timeout))
	opts.output = "tab"
	cmd.PersistentFlags().VarP(&opts.output, "output", "o", `output format: "tab", "json" or "yaml"`)
	cmd.PersistentFlags().StringVar(&opts.minVersion, "min-version", "", "fail unless the BOINC client is at least this version")
	cmd.PersistentFlags().StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running, e.g. :9090")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log connection and request details to stderr")

	cmd.AddCommand(
		newVersionCommand(opts),
		newTasks(opts).Command(),
		newOldTasks(opts).Command(),
		newProjects(opts).Command(),
		newMessages(opts).Command(),
		newMessageCount(opts).Command(),
		newNotices(opts).Command(),
		newHostInfo(opts).Command(),
	)
	cmd.AddCommand(newTaskControls(opts)...)

	return cmd
}

func (opts *rootOpts) PersistentPreRunE(cmd *cobra.Command, _ []string) error {
	opts.logger = log.NewNopLogger()
	if opts.verbose {
		logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
		logger = log.With(logger, "ts", log.DefaultTimestampUTC)
		opts.logger = log.With(logger, "caller", log.DefaultCaller)
	}

	if opts.metricsAddr != "" {
		ln, err := net.Listen("tcp", opts.metricsAddr)
		if err != nil {
			return errors.Wrapf(err, "listening for metrics on %s", opts.metricsAddr)
		}
		opts.metrics = ln
		logger := log.With(opts.logger, "component", "metrics")
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		go func() {
			logger.Log("addr", ln.Addr(), "err", http.Serve(ln, mux))
		}()
	}

	if opts.API == nil {
		if err := opts.connect(cmd); err != nil {
			return err
		}
	}

	if opts.minVersion != "" {
		constraint, err := semver.NewConstraint(">= " + opts.minVersion)
		if err != nil {
			return newUsageError("invalid --min-version: " + err.Error())
		}
		ctx, cancel := opts.context()
		defer cancel()
		if _, err := remote.RequireVersion(ctx, opts.API, constraint); err != nil {
			return err
		}
	}
	return nil
}

// connect works out which host to talk to, and with what password,
// and sets up the client for it. Nothing is dialled yet.
func (opts *rootOpts) connect(cmd *cobra.Command) error {
	cfg := opts.Config
	if cfg == nil {
		path := opts.configPath
		if path == "" {
			path = config.DefaultPath()
		}
		var err error
		if cfg, err = config.Load(path, cmd.Flags().Changed("config")); err != nil {
			return err
		}
	}

	hostName := os.Getenv(EnvVariableHost)
	if cmd.Flags().Changed("host") || hostName == "" {
		hostName = opts.host
	}
	password := os.Getenv(EnvVariablePassword)
	if cmd.Flags().Changed("password") || password == "" {
		password = opts.password
	}

	host, err := cfg.Resolve(hostName)
	if err != nil {
		return err
	}
	if host, err = host.Override(config.Host{Password: password, Timeout: opts.timeout}); err != nil {
		return err
	}
	secret, err := host.Secret()
	if err != nil {
		return err
	}
	opts.requestTimeout = host.Timeout

	opts.session = session.New(session.Config{
		Host:     host.Address,
		Password: secret,
		Dialer:   opts.Dialer,
		Logger:   log.With(opts.logger, "component", "session", "host", host.Address),
	})
	var c api.Client = client.New(opts.session)
	c = remote.NewErrorLoggingClient(c, log.With(opts.logger, "component", "client"))
	opts.API = remote.Instrument(c)
	return nil
}

// context bounds one request by the configured timeout.
func (opts *rootOpts) context() (context.Context, context.CancelFunc) {
	return opts.contextFrom(context.Background())
}

func (opts *rootOpts) contextFrom(parent context.Context) (context.Context, context.CancelFunc) {
	timeout := opts.requestTimeout
	if timeout <= 0 {
		timeout = config.Defaults.Timeout
	}
	return context.WithTimeout(parent, timeout)
}

// Close hangs up on the BOINC client, if we called it.
func (opts *rootOpts) Close() error {
	if opts.metrics != nil {
		opts.metrics.Close()
		opts.metrics = nil
	}
	if opts.session == nil {
		return nil
	}
	return errors.Wrap(opts.session.Close(), "closing session")
}

func makeExample(examples ...string) string {
	var buf strings.Builder
	for _, example := range examples {
		fmt.Fprintln(&buf, "  "+example)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
