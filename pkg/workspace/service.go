package workspace

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/vibemonitor/vibemonitor-go/pkg/api"
)

// Backend is the REST surface the store synchronizes against. The
// production implementation is Service; tests substitute a scripted one.
type Backend interface {
	ListEnvironments(ctx context.Context, workspaceID string) api.Result
	CreateEnvironment(ctx context.Context, workspaceID string, req EnvironmentRequest) api.Result
	UpdateEnvironment(ctx context.Context, workspaceID, environmentID string, req EnvironmentRequest) api.Result
	DeleteEnvironment(ctx context.Context, workspaceID, environmentID string) api.Result
	SetDefaultEnvironment(ctx context.Context, workspaceID, environmentID string) api.Result
	ListAvailableRepositories(ctx context.Context, workspaceID string) api.Result
	ListRepositoryBranches(ctx context.Context, workspaceID, repoFullName string) api.Result
	AddRepositoryConfig(ctx context.Context, workspaceID, environmentID string, req RepositoryConfigRequest) api.Result
	UpdateRepositoryConfig(ctx context.Context, workspaceID, environmentID, configID string, req RepositoryConfigRequest) api.Result
	RemoveRepositoryConfig(ctx context.Context, workspaceID, environmentID, configID string) api.Result
}

// Service implements Backend over the shared HTTP client core.
type Service struct {
	client *api.Client
}

// NewService creates the production backend binding.
func NewService(client *api.Client) *Service {
	return &Service{client: client}
}

func (s *Service) ListEnvironments(ctx context.Context, workspaceID string) api.Result {
	return s.client.Request(ctx, http.MethodGet, environmentsPath(workspaceID), nil)
}

func (s *Service) CreateEnvironment(ctx context.Context, workspaceID string, req EnvironmentRequest) api.Result {
	return s.client.Request(ctx, http.MethodPost, environmentsPath(workspaceID), req)
}

func (s *Service) UpdateEnvironment(ctx context.Context, workspaceID, environmentID string, req EnvironmentRequest) api.Result {
	return s.client.Request(ctx, http.MethodPut, environmentPath(workspaceID, environmentID), req)
}

func (s *Service) DeleteEnvironment(ctx context.Context, workspaceID, environmentID string) api.Result {
	return s.client.Request(ctx, http.MethodDelete, environmentPath(workspaceID, environmentID), nil)
}

func (s *Service) SetDefaultEnvironment(ctx context.Context, workspaceID, environmentID string) api.Result {
	return s.client.Request(ctx, http.MethodPost, environmentPath(workspaceID, environmentID)+"/default", nil)
}

func (s *Service) ListAvailableRepositories(ctx context.Context, workspaceID string) api.Result {
	path := fmt.Sprintf("/api/v1/workspaces/%s/integrations/github/repositories", url.PathEscape(workspaceID))
	return s.client.Request(ctx, http.MethodGet, path, nil)
}

func (s *Service) ListRepositoryBranches(ctx context.Context, workspaceID, repoFullName string) api.Result {
	path := fmt.Sprintf("/api/v1/workspaces/%s/integrations/github/branches?repo=%s",
		url.PathEscape(workspaceID), url.QueryEscape(repoFullName))
	return s.client.Request(ctx, http.MethodGet, path, nil)
}

func (s *Service) AddRepositoryConfig(ctx context.Context, workspaceID, environmentID string, req RepositoryConfigRequest) api.Result {
	return s.client.Request(ctx, http.MethodPost, repositoryConfigsPath(workspaceID, environmentID), req)
}

func (s *Service) UpdateRepositoryConfig(ctx context.Context, workspaceID, environmentID, configID string, req RepositoryConfigRequest) api.Result {
	return s.client.Request(ctx, http.MethodPut, repositoryConfigPath(workspaceID, environmentID, configID), req)
}

func (s *Service) RemoveRepositoryConfig(ctx context.Context, workspaceID, environmentID, configID string) api.Result {
	return s.client.Request(ctx, http.MethodDelete, repositoryConfigPath(workspaceID, environmentID, configID), nil)
}

func environmentsPath(workspaceID string) string {
	return fmt.Sprintf("/api/v1/workspaces/%s/environments", url.PathEscape(workspaceID))
}

func environmentPath(workspaceID, environmentID string) string {
	return environmentsPath(workspaceID) + "/" + url.PathEscape(environmentID)
}

func repositoryConfigsPath(workspaceID, environmentID string) string {
	return environmentPath(workspaceID, environmentID) + "/repository-configs"
}

func repositoryConfigPath(workspaceID, environmentID, configID string) string {
	return repositoryConfigsPath(workspaceID, environmentID) + "/" + url.PathEscape(configID)
}
