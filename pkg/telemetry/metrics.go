// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Semantic conventions for Vibemonitor SDK telemetry.
const (
	AttrEndpoint    = "vibemonitor.api.endpoint"
	AttrMethod      = "vibemonitor.api.method"
	AttrStatus      = "vibemonitor.api.status"
	AttrRetried     = "vibemonitor.api.retried"
	AttrWorkspaceID = "vibemonitor.workspace.id"
	AttrOperation   = "vibemonitor.cache.operation"
)

// ClientMetrics tracks request outcomes and auth lifecycle events for the
// HTTP client core.
type ClientMetrics struct {
	requestCounter  metric.Int64Counter
	refreshCounter  metric.Int64Counter
	refreshFailures metric.Int64Counter
	authRedirects   metric.Int64Counter
}

// NewClientMetrics creates client metrics on the global meter provider.
func NewClientMetrics() (*ClientMetrics, error) {
	meter := otel.Meter("vibemonitor/api")

	requestCounter, err := meter.Int64Counter(
		"vibemonitor.api.requests.total",
		metric.WithDescription("API requests by method and status"),
	)
	if err != nil {
		return nil, err
	}
	refreshCounter, err := meter.Int64Counter(
		"vibemonitor.auth.refreshes.total",
		metric.WithDescription("Token refresh attempts"),
	)
	if err != nil {
		return nil, err
	}
	refreshFailures, err := meter.Int64Counter(
		"vibemonitor.auth.refresh_failures.total",
		metric.WithDescription("Token refresh attempts that cleared the session"),
	)
	if err != nil {
		return nil, err
	}
	authRedirects, err := meter.Int64Counter(
		"vibemonitor.auth.redirects.total",
		metric.WithDescription("Auth failures that requested a redirect to login"),
	)
	if err != nil {
		return nil, err
	}

	return &ClientMetrics{
		requestCounter:  requestCounter,
		refreshCounter:  refreshCounter,
		refreshFailures: refreshFailures,
		authRedirects:   authRedirects,
	}, nil
}

// RecordRequest records one completed request.
func (m *ClientMetrics) RecordRequest(ctx context.Context, method string, status int, retried bool) {
	if m == nil {
		return
	}
	m.requestCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String(AttrMethod, method),
			attribute.Int(AttrStatus, status),
			attribute.Bool(AttrRetried, retried),
		),
	)
}

// RecordRefresh records a token refresh attempt and its outcome.
func (m *ClientMetrics) RecordRefresh(ctx context.Context, ok bool) {
	if m == nil {
		return
	}
	m.refreshCounter.Add(ctx, 1)
	if !ok {
		m.refreshFailures.Add(ctx, 1)
	}
}

// RecordAuthRedirect records an auth failure that flagged a login redirect.
func (m *ClientMetrics) RecordAuthRedirect(ctx context.Context) {
	if m == nil {
		return
	}
	m.authRedirects.Add(ctx, 1)
}
