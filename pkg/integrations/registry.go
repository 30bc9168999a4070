// Package integrations exposes per-provider API surfaces (source control,
// alerting, dashboards) over the shared HTTP client core.
//
// Clients are built lazily and memoized: a provider the application never
// touches costs nothing, and repeated lookups return the same instance.
package integrations

import (
	"sync"

	"github.com/vibemonitor/vibemonitor-go/pkg/api"
)

// Registry hands out integration clients bound to one HTTP client core.
// Safe for concurrent use.
type Registry struct {
	client *api.Client

	mu       sync.Mutex
	github   *GitHub
	slack    *Slack
	grafana  *Grafana
	aws      *AWS
	datadog  *Datadog
	newrelic *NewRelic
}

// NewRegistry creates a registry over the shared client core.
func NewRegistry(client *api.Client) *Registry {
	return &Registry{client: client}
}

// GitHub returns the source-control integration client.
func (r *Registry) GitHub() *GitHub {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.github == nil {
		r.github = &GitHub{client: r.client}
	}
	return r.github
}

// Slack returns the messaging integration client.
func (r *Registry) Slack() *Slack {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.slack == nil {
		r.slack = &Slack{connection: connection{client: r.client, provider: "slack"}}
	}
	return r.slack
}

// Grafana returns the dashboards integration client.
func (r *Registry) Grafana() *Grafana {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.grafana == nil {
		r.grafana = &Grafana{connection: connection{client: r.client, provider: "grafana"}}
	}
	return r.grafana
}

// AWS returns the cloud account integration client.
func (r *Registry) AWS() *AWS {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.aws == nil {
		r.aws = &AWS{connection: connection{client: r.client, provider: "aws"}}
	}
	return r.aws
}

// Datadog returns the monitoring integration client.
func (r *Registry) Datadog() *Datadog {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.datadog == nil {
		r.datadog = &Datadog{connection: connection{client: r.client, provider: "datadog"}}
	}
	return r.datadog
}

// NewRelic returns the APM integration client.
func (r *Registry) NewRelic() *NewRelic {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.newrelic == nil {
		r.newrelic = &NewRelic{connection: connection{client: r.client, provider: "newrelic"}}
	}
	return r.newrelic
}
