package remote

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"

	"github.com/boinc-go/guirpc/pkg/api"
	guimetrics "github.com/boinc-go/guirpc/pkg/metrics"
	"github.com/boinc-go/guirpc/pkg/rpc"
)

var (
	requestDuration = prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
		Namespace: guimetrics.Namespace,
		Subsystem: guimetrics.Subsystem,
		Name:      "request_duration_seconds",
		Help:      "Request duration in seconds.",
		Buckets:   stdprometheus.DefBuckets,
	}, []string{guimetrics.LabelMethod, guimetrics.LabelSuccess})
)

var _ api.Client = &instrumentedClient{}

type instrumentedClient struct {
	c api.Client
}

func Instrument(c api.Client) *instrumentedClient {
	return &instrumentedClient{c}
}

func observe(method string, err error, begin time.Time) {
	requestDuration.With(
		guimetrics.LabelMethod, method,
		guimetrics.LabelSuccess, fmt.Sprint(err == nil),
	).Observe(time.Since(begin).Seconds())
}

func (i *instrumentedClient) GetResults(ctx context.Context, activeOnly bool) (_ []rpc.Value, err error) {
	defer func(begin time.Time) { observe("GetResults", err, begin) }(time.Now())
	return i.c.GetResults(ctx, activeOnly)
}

func (i *instrumentedClient) GetOldResults(ctx context.Context) (_ []rpc.Value, err error) {
	defer func(begin time.Time) { observe("GetOldResults", err, begin) }(time.Now())
	return i.c.GetOldResults(ctx)
}

func (i *instrumentedClient) GetProjectStatus(ctx context.Context) (_ []rpc.Value, err error) {
	defer func(begin time.Time) { observe("GetProjectStatus", err, begin) }(time.Now())
	return i.c.GetProjectStatus(ctx)
}

func (i *instrumentedClient) GetMessageCount(ctx context.Context) (_ int, err error) {
	defer func(begin time.Time) { observe("GetMessageCount", err, begin) }(time.Now())
	return i.c.GetMessageCount(ctx)
}

func (i *instrumentedClient) GetMessages(ctx context.Context, seqno int, translatable bool) (_ []rpc.Value, err error) {
	defer func(begin time.Time) { observe("GetMessages", err, begin) }(time.Now())
	return i.c.GetMessages(ctx, seqno, translatable)
}

func (i *instrumentedClient) GetNoticesPublic(ctx context.Context, seqno *int) (_ []rpc.Value, err error) {
	defer func(begin time.Time) { observe("GetNoticesPublic", err, begin) }(time.Now())
	return i.c.GetNoticesPublic(ctx, seqno)
}

func (i *instrumentedClient) ExchangeVersions(ctx context.Context) (_ *semver.Version, err error) {
	defer func(begin time.Time) { observe("ExchangeVersions", err, begin) }(time.Now())
	return i.c.ExchangeVersions(ctx)
}

func (i *instrumentedClient) GetHostInfo(ctx context.Context) (_ rpc.Record, err error) {
	defer func(begin time.Time) { observe("GetHostInfo", err, begin) }(time.Now())
	return i.c.GetHostInfo(ctx)
}

func (i *instrumentedClient) AbortResult(ctx context.Context, projectURL, name string) (err error) {
	defer func(begin time.Time) { observe("AbortResult", err, begin) }(time.Now())
	return i.c.AbortResult(ctx, projectURL, name)
}

func (i *instrumentedClient) SuspendResult(ctx context.Context, projectURL, name string) (err error) {
	defer func(begin time.Time) { observe("SuspendResult", err, begin) }(time.Now())
	return i.c.SuspendResult(ctx, projectURL, name)
}

func (i *instrumentedClient) ResumeResult(ctx context.Context, projectURL, name string) (err error) {
	defer func(begin time.Time) { observe("ResumeResult", err, begin) }(time.Now())
	return i.c.ResumeResult(ctx, projectURL, name)
}
