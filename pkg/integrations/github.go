package integrations

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/vibemonitor/vibemonitor-go/pkg/api"
)

// GitHub is the source-control integration. Besides the shared connection
// cycle it lists the repositories and branches the workspace can track.
type GitHub struct {
	client *api.Client
}

func (g *GitHub) Status(ctx context.Context, workspaceID string) api.Result {
	return g.client.Request(ctx, http.MethodGet, g.path(workspaceID, "status"), nil)
}

func (g *GitHub) Connect(ctx context.Context, workspaceID string, params map[string]string) api.Result {
	return g.client.Request(ctx, http.MethodPost, g.path(workspaceID, "connect"), params)
}

func (g *GitHub) Disconnect(ctx context.Context, workspaceID string) api.Result {
	return g.client.Request(ctx, http.MethodDelete, g.path(workspaceID, "connection"), nil)
}

// ListRepositories fetches the repositories the installation can see.
func (g *GitHub) ListRepositories(ctx context.Context, workspaceID string) api.Result {
	return g.client.Request(ctx, http.MethodGet, g.path(workspaceID, "repositories"), nil)
}

// ListBranches fetches the branches of one repository by full name.
func (g *GitHub) ListBranches(ctx context.Context, workspaceID, repoFullName string) api.Result {
	path := g.path(workspaceID, "branches") + "?repo=" + url.QueryEscape(repoFullName)
	return g.client.Request(ctx, http.MethodGet, path, nil)
}

func (g *GitHub) path(workspaceID, suffix string) string {
	return fmt.Sprintf("/api/v1/workspaces/%s/integrations/github/%s",
		url.PathEscape(workspaceID), suffix)
}
