package session

import (
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"

	guimetrics "github.com/boinc-go/guirpc/pkg/metrics"
)

var (
	// Each time a daemon says unauthorized to a call that needs
	// authorization, we run the handshake once. A high rate of
	// authorized="false" means a wrong password.
	reauthorizations = prometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Namespace: guimetrics.Namespace,
		Subsystem: guimetrics.Subsystem,
		Name:      "reauthorizations_total",
		Help:      "Count of handshakes run in response to an unauthorized reply.",
	}, []string{guimetrics.LabelAuthorized})

	connects = prometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Namespace: guimetrics.Namespace,
		Subsystem: guimetrics.Subsystem,
		Name:      "connects_total",
		Help:      "Count of connection attempts to a daemon.",
	}, []string{guimetrics.LabelSuccess})
)
