package remote

import (
	"context"

	"github.com/Masterminds/semver/v3"
	"github.com/go-kit/kit/log"

	"github.com/boinc-go/guirpc/pkg/api"
	"github.com/boinc-go/guirpc/pkg/rpc"
)

var _ api.Client = &ErrorLoggingClient{}

type ErrorLoggingClient struct {
	client api.Client
	logger log.Logger
}

func NewErrorLoggingClient(c api.Client, l log.Logger) *ErrorLoggingClient {
	return &ErrorLoggingClient{c, l}
}

func (p *ErrorLoggingClient) GetResults(ctx context.Context, activeOnly bool) (_ []rpc.Value, err error) {
	defer func() {
		if err != nil {
			p.logger.Log("method", "GetResults", "active_only", activeOnly, "err", err)
		}
	}()
	return p.client.GetResults(ctx, activeOnly)
}

func (p *ErrorLoggingClient) GetOldResults(ctx context.Context) (_ []rpc.Value, err error) {
	defer func() {
		if err != nil {
			p.logger.Log("method", "GetOldResults", "err", err)
		}
	}()
	return p.client.GetOldResults(ctx)
}

func (p *ErrorLoggingClient) GetProjectStatus(ctx context.Context) (_ []rpc.Value, err error) {
	defer func() {
		if err != nil {
			p.logger.Log("method", "GetProjectStatus", "err", err)
		}
	}()
	return p.client.GetProjectStatus(ctx)
}

func (p *ErrorLoggingClient) GetMessageCount(ctx context.Context) (_ int, err error) {
	defer func() {
		if err != nil {
			p.logger.Log("method", "GetMessageCount", "err", err)
		}
	}()
	return p.client.GetMessageCount(ctx)
}

func (p *ErrorLoggingClient) GetMessages(ctx context.Context, seqno int, translatable bool) (_ []rpc.Value, err error) {
	defer func() {
		if err != nil {
			p.logger.Log("method", "GetMessages", "seqno", seqno, "err", err)
		}
	}()
	return p.client.GetMessages(ctx, seqno, translatable)
}

func (p *ErrorLoggingClient) GetNoticesPublic(ctx context.Context, seqno *int) (_ []rpc.Value, err error) {
	defer func() {
		if err != nil {
			p.logger.Log("method", "GetNoticesPublic", "err", err)
		}
	}()
	return p.client.GetNoticesPublic(ctx, seqno)
}

func (p *ErrorLoggingClient) ExchangeVersions(ctx context.Context) (_ *semver.Version, err error) {
	defer func() {
		if err != nil {
			p.logger.Log("method", "ExchangeVersions", "err", err)
		}
	}()
	return p.client.ExchangeVersions(ctx)
}

func (p *ErrorLoggingClient) GetHostInfo(ctx context.Context) (_ rpc.Record, err error) {
	defer func() {
		if err != nil {
			p.logger.Log("method", "GetHostInfo", "err", err)
		}
	}()
	return p.client.GetHostInfo(ctx)
}

func (p *ErrorLoggingClient) AbortResult(ctx context.Context, projectURL, name string) (err error) {
	defer func() {
		if err != nil {
			p.logger.Log("method", "AbortResult", "project_url", projectURL, "task", name, "err", err)
		}
	}()
	return p.client.AbortResult(ctx, projectURL, name)
}

func (p *ErrorLoggingClient) SuspendResult(ctx context.Context, projectURL, name string) (err error) {
	defer func() {
		if err != nil {
			p.logger.Log("method", "SuspendResult", "project_url", projectURL, "task", name, "err", err)
		}
	}()
	return p.client.SuspendResult(ctx, projectURL, name)
}

func (p *ErrorLoggingClient) ResumeResult(ctx context.Context, projectURL, name string) (err error) {
	defer func() {
		if err != nil {
			p.logger.Log("method", "ResumeResult", "project_url", projectURL, "task", name, "err", err)
		}
	}()
	return p.client.ResumeResult(ctx, projectURL, name)
}
