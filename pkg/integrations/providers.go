package integrations

import (
	"context"
	"net/http"

	"github.com/vibemonitor/vibemonitor-go/pkg/api"
)

// Slack is the messaging integration. Alert routing targets a channel.
type Slack struct {
	connection
}

// ListChannels fetches the channels alerts can be routed to.
func (s *Slack) ListChannels(ctx context.Context, workspaceID string) api.Result {
	return s.client.Request(ctx, http.MethodGet, s.path(workspaceID, "channels"), nil)
}

// SendTestMessage posts a test notification to one channel so the user
// can verify the routing before enabling alerts.
func (s *Slack) SendTestMessage(ctx context.Context, workspaceID, channelID string) api.Result {
	payload := map[string]string{"channel_id": channelID}
	return s.client.Request(ctx, http.MethodPost, s.path(workspaceID, "test"), payload)
}

// Grafana is the dashboards integration.
type Grafana struct {
	connection
}

// ListDashboards fetches the dashboards linked to the workspace.
func (g *Grafana) ListDashboards(ctx context.Context, workspaceID string) api.Result {
	return g.client.Request(ctx, http.MethodGet, g.path(workspaceID, "dashboards"), nil)
}

// AWS is the cloud account integration.
type AWS struct {
	connection
}

// ListAccounts fetches the linked AWS accounts.
func (a *AWS) ListAccounts(ctx context.Context, workspaceID string) api.Result {
	return a.client.Request(ctx, http.MethodGet, a.path(workspaceID, "accounts"), nil)
}

// Datadog is the monitoring integration.
type Datadog struct {
	connection
}

// ListMonitors fetches the monitors visible to the workspace.
func (d *Datadog) ListMonitors(ctx context.Context, workspaceID string) api.Result {
	return d.client.Request(ctx, http.MethodGet, d.path(workspaceID, "monitors"), nil)
}

// NewRelic is the APM integration.
type NewRelic struct {
	connection
}

// ListApplications fetches the instrumented applications.
func (n *NewRelic) ListApplications(ctx context.Context, workspaceID string) api.Result {
	return n.client.Request(ctx, http.MethodGet, n.path(workspaceID, "applications"), nil)
}
