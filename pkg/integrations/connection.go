package integrations

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/vibemonitor/vibemonitor-go/pkg/api"
)

// ConnectionStatus describes one provider's link to a workspace.
type ConnectionStatus struct {
	Provider    string `json:"provider"`
	Connected   bool   `json:"connected"`
	AccountName string `json:"account_name,omitempty"`
}

// connection implements the connect/status/disconnect cycle every
// provider shares. Provider-specific clients embed it and add their own
// endpoints on top.
type connection struct {
	client   *api.Client
	provider string
}

// Status fetches the provider's connection state for a workspace.
func (c *connection) Status(ctx context.Context, workspaceID string) api.Result {
	return c.client.Request(ctx, http.MethodGet, c.path(workspaceID, "status"), nil)
}

// Connect begins the provider's OAuth or key exchange. The response body
// carries the provider-specific next step (authorize URL or confirmation).
func (c *connection) Connect(ctx context.Context, workspaceID string, params map[string]string) api.Result {
	return c.client.Request(ctx, http.MethodPost, c.path(workspaceID, "connect"), params)
}

// Disconnect revokes the provider's link to the workspace.
func (c *connection) Disconnect(ctx context.Context, workspaceID string) api.Result {
	return c.client.Request(ctx, http.MethodDelete, c.path(workspaceID, "connection"), nil)
}

func (c *connection) path(workspaceID, suffix string) string {
	return fmt.Sprintf("/api/v1/workspaces/%s/integrations/%s/%s",
		url.PathEscape(workspaceID), c.provider, suffix)
}
