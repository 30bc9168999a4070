package workspace

// Environment is a named deployment context owning repository configs.
// At most one environment per workspace carries IsDefault.
type Environment struct {
	ID                string             `json:"id"`
	Name              string             `json:"name"`
	IsDefault         bool               `json:"is_default"`
	RepositoryConfigs []RepositoryConfig `json:"repository_configs"`
}

// RepositoryConfig pairs a source repository and branch under one
// environment. It is owned exclusively by its parent.
type RepositoryConfig struct {
	ID           string `json:"id"`
	RepoFullName string `json:"repo_full_name"`
	Branch       string `json:"branch"`
}

// AvailableRepository is a repository the connected source-control
// integration can track. Read-only, not owned by any environment.
type AvailableRepository struct {
	FullName      string `json:"full_name"`
	Private       bool   `json:"private"`
	DefaultBranch string `json:"default_branch"`
}

// RepositoryBranch is one branch of an available repository.
type RepositoryBranch struct {
	Name      string `json:"name"`
	Protected bool   `json:"protected"`
}

// EnvironmentRequest is the create/update payload for an environment.
type EnvironmentRequest struct {
	Name string `json:"name"`
}

// RepositoryConfigRequest is the create/update payload for a repository
// config.
type RepositoryConfigRequest struct {
	RepoFullName string `json:"repo_full_name"`
	Branch       string `json:"branch"`
}
