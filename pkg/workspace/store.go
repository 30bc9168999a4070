// Package workspace maintains the client-side cache of a workspace's
// environments and their repository configs, synchronized with the
// backend through a fixed set of operations.
//
// Each operation tracks its own loading and error state so independent
// UI surfaces never block each other. Mutations are applied under one
// store lock in the operation's success path only; concurrent edits to
// the same entity resolve last-write-wins (single-operator assumption,
// the backend offers no optimistic-concurrency token).
package workspace

import (
	"context"
	"net/http"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/vibemonitor/vibemonitor-go/pkg/api"
	"github.com/vibemonitor/vibemonitor-go/pkg/errors"
)

// OpStatus is the loading/error pair tracked per operation.
type OpStatus struct {
	Loading bool
	Error   string
}

// BranchCache holds the branch list of one repository together with its
// own loading state, so fetching branches for one repository never
// affects another.
type BranchCache struct {
	Branches []RepositoryBranch
	Loading  bool
	Error    string
}

// Status is a snapshot of every operation's state.
type Status struct {
	Fetch        OpStatus
	Create       OpStatus
	Update       OpStatus
	Delete       OpStatus
	SetDefault   OpStatus
	Repositories OpStatus
}

// Store is the cache. All methods are safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	backend Backend

	environments          []Environment
	availableRepositories []AvailableRepository
	branches              map[string]BranchCache

	fetchStatus      OpStatus
	createStatus     OpStatus
	updateStatus     OpStatus
	deleteStatus     OpStatus
	setDefaultStatus OpStatus
	reposStatus      OpStatus
}

// NewStore creates an empty cache bound to a backend.
func NewStore(backend Backend) *Store {
	return &Store{
		backend:  backend,
		branches: make(map[string]BranchCache),
	}
}

// FetchEnvironments replaces the cached environment list with the
// backend's. Any of the backend's list envelopes is accepted; an
// unrecognized shape caches an empty list.
func (s *Store) FetchEnvironments(ctx context.Context, workspaceID string) error {
	s.begin(&s.fetchStatus)
	result := s.backend.ListEnvironments(ctx, workspaceID)
	if err := operationError(result, http.StatusOK); err != nil {
		s.fail(&s.fetchStatus, err)
		return err
	}

	envs := decodeEnvironmentList(result.Data)
	s.mu.Lock()
	s.environments = envs
	s.fetchStatus = OpStatus{}
	s.mu.Unlock()
	return nil
}

// CreateEnvironment creates an environment and appends it to the cache.
// The creation response never includes repository configs; the new entry
// starts with an empty list.
func (s *Store) CreateEnvironment(ctx context.Context, workspaceID string, req EnvironmentRequest) (Environment, error) {
	s.begin(&s.createStatus)
	result := s.backend.CreateEnvironment(ctx, workspaceID, req)
	if err := operationError(result, http.StatusOK, http.StatusCreated); err != nil {
		s.fail(&s.createStatus, err)
		return Environment{}, err
	}

	var env Environment
	if err := result.Decode(&env); err != nil {
		ve := errors.New(errors.CodeServer, "malformed environment in response", err)
		s.fail(&s.createStatus, ve)
		return Environment{}, ve
	}
	env.RepositoryConfigs = []RepositoryConfig{}

	s.mu.Lock()
	s.environments = append(s.environments, env)
	s.createStatus = OpStatus{}
	s.mu.Unlock()
	return env, nil
}

// UpdateEnvironment merges the fields returned by the backend into the
// matching cache entry. A no-op when the environment has meanwhile been
// removed from the cache.
func (s *Store) UpdateEnvironment(ctx context.Context, workspaceID, environmentID string, req EnvironmentRequest) error {
	s.begin(&s.updateStatus)
	result := s.backend.UpdateEnvironment(ctx, workspaceID, environmentID, req)
	if err := operationError(result, http.StatusOK); err != nil {
		s.fail(&s.updateStatus, err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.environments {
		if s.environments[i].ID == environmentID {
			// Unmarshaling onto the existing value only touches fields
			// present in the response: a merge, not a replacement.
			_ = json.Unmarshal(result.Data, &s.environments[i])
			break
		}
	}
	s.updateStatus = OpStatus{}
	return nil
}

// DeleteEnvironment removes the environment from the backend and the cache.
func (s *Store) DeleteEnvironment(ctx context.Context, workspaceID, environmentID string) error {
	s.begin(&s.deleteStatus)
	result := s.backend.DeleteEnvironment(ctx, workspaceID, environmentID)
	if err := operationError(result, http.StatusOK, http.StatusNoContent); err != nil {
		s.fail(&s.deleteStatus, err)
		return err
	}

	s.mu.Lock()
	kept := s.environments[:0]
	for _, env := range s.environments {
		if env.ID != environmentID {
			kept = append(kept, env)
		}
	}
	s.environments = kept
	s.deleteStatus = OpStatus{}
	s.mu.Unlock()
	return nil
}

// SetDefaultEnvironment marks one environment as the default. The whole
// list is rewritten so IsDefault holds for exactly the returned id,
// keeping the at-most-one-default invariant on every record.
func (s *Store) SetDefaultEnvironment(ctx context.Context, workspaceID, environmentID string) error {
	s.begin(&s.setDefaultStatus)
	result := s.backend.SetDefaultEnvironment(ctx, workspaceID, environmentID)
	if err := operationError(result, http.StatusOK); err != nil {
		s.fail(&s.setDefaultStatus, err)
		return err
	}

	defaultID := environmentID
	var returned Environment
	if err := json.Unmarshal(result.Data, &returned); err == nil && returned.ID != "" {
		defaultID = returned.ID
	}

	s.mu.Lock()
	for i := range s.environments {
		s.environments[i].IsDefault = s.environments[i].ID == defaultID
	}
	s.setDefaultStatus = OpStatus{}
	s.mu.Unlock()
	return nil
}

// FetchAvailableRepositories refreshes the flat list of repositories the
// source-control integration can track.
func (s *Store) FetchAvailableRepositories(ctx context.Context, workspaceID string) error {
	s.begin(&s.reposStatus)
	result := s.backend.ListAvailableRepositories(ctx, workspaceID)
	if err := operationError(result, http.StatusOK); err != nil {
		s.fail(&s.reposStatus, err)
		return err
	}

	repos := decodeRepositoryList(result.Data)
	s.mu.Lock()
	s.availableRepositories = repos
	s.reposStatus = OpStatus{}
	s.mu.Unlock()
	return nil
}

// FetchRepositoryBranches loads the branch list for one repository.
// Each repository's entry carries its own loading flag and cached value.
func (s *Store) FetchRepositoryBranches(ctx context.Context, workspaceID, repoFullName string) error {
	s.mu.Lock()
	entry := s.branches[repoFullName]
	entry.Loading = true
	entry.Error = ""
	s.branches[repoFullName] = entry
	s.mu.Unlock()

	result := s.backend.ListRepositoryBranches(ctx, workspaceID, repoFullName)
	if err := operationError(result, http.StatusOK); err != nil {
		s.mu.Lock()
		entry = s.branches[repoFullName]
		entry.Loading = false
		entry.Error = err.Message
		s.branches[repoFullName] = entry
		s.mu.Unlock()
		return err
	}

	branches := decodeBranchList(result.Data)
	s.mu.Lock()
	s.branches[repoFullName] = BranchCache{Branches: branches}
	s.mu.Unlock()
	return nil
}

// AddRepositoryConfig creates a repository config under one environment
// and appends it to that environment's sub-list. A no-op on the cache
// when the parent environment is not present.
func (s *Store) AddRepositoryConfig(ctx context.Context, workspaceID, environmentID string, req RepositoryConfigRequest) error {
	s.begin(&s.updateStatus)
	result := s.backend.AddRepositoryConfig(ctx, workspaceID, environmentID, req)
	if err := operationError(result, http.StatusOK, http.StatusCreated); err != nil {
		s.fail(&s.updateStatus, err)
		return err
	}

	var config RepositoryConfig
	if err := result.Decode(&config); err != nil {
		ve := errors.New(errors.CodeServer, "malformed repository config in response", err)
		s.fail(&s.updateStatus, ve)
		return ve
	}

	s.mu.Lock()
	if env := s.findEnvironment(environmentID); env != nil {
		env.RepositoryConfigs = append(env.RepositoryConfigs, config)
	}
	s.updateStatus = OpStatus{}
	s.mu.Unlock()
	return nil
}

// UpdateRepositoryConfig replaces one repository config under one
// environment by id. All other configs and environments stay untouched.
func (s *Store) UpdateRepositoryConfig(ctx context.Context, workspaceID, environmentID, configID string, req RepositoryConfigRequest) error {
	s.begin(&s.updateStatus)
	result := s.backend.UpdateRepositoryConfig(ctx, workspaceID, environmentID, configID, req)
	if err := operationError(result, http.StatusOK); err != nil {
		s.fail(&s.updateStatus, err)
		return err
	}

	var config RepositoryConfig
	if err := result.Decode(&config); err != nil {
		ve := errors.New(errors.CodeServer, "malformed repository config in response", err)
		s.fail(&s.updateStatus, ve)
		return ve
	}

	s.mu.Lock()
	if env := s.findEnvironment(environmentID); env != nil {
		for i := range env.RepositoryConfigs {
			if env.RepositoryConfigs[i].ID == configID {
				env.RepositoryConfigs[i] = config
				break
			}
		}
	}
	s.updateStatus = OpStatus{}
	s.mu.Unlock()
	return nil
}

// RemoveRepositoryConfig deletes one repository config and drops it from
// its parent environment's sub-list.
func (s *Store) RemoveRepositoryConfig(ctx context.Context, workspaceID, environmentID, configID string) error {
	s.begin(&s.updateStatus)
	result := s.backend.RemoveRepositoryConfig(ctx, workspaceID, environmentID, configID)
	if err := operationError(result, http.StatusOK, http.StatusNoContent); err != nil {
		s.fail(&s.updateStatus, err)
		return err
	}

	s.mu.Lock()
	if env := s.findEnvironment(environmentID); env != nil {
		kept := env.RepositoryConfigs[:0]
		for _, config := range env.RepositoryConfigs {
			if config.ID != configID {
				kept = append(kept, config)
			}
		}
		env.RepositoryConfigs = kept
	}
	s.updateStatus = OpStatus{}
	s.mu.Unlock()
	return nil
}

// ApplyLocal mutates one cached environment without any network call.
// This is the optimistic-update escape hatch; it does not participate in
// any operation's loading or error state.
func (s *Store) ApplyLocal(environmentID string, mutate func(*Environment)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if env := s.findEnvironment(environmentID); env != nil {
		mutate(env)
	}
}

// Clear resets the whole cache to its initial state. Used on workspace
// switch and logout.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.environments = nil
	s.availableRepositories = nil
	s.branches = make(map[string]BranchCache)
	s.fetchStatus = OpStatus{}
	s.createStatus = OpStatus{}
	s.updateStatus = OpStatus{}
	s.deleteStatus = OpStatus{}
	s.setDefaultStatus = OpStatus{}
	s.reposStatus = OpStatus{}
}

// Environments returns a deep copy of the cached environment list.
func (s *Store) Environments() []Environment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Environment, len(s.environments))
	for i, env := range s.environments {
		out[i] = env
		out[i].RepositoryConfigs = append([]RepositoryConfig(nil), env.RepositoryConfigs...)
	}
	return out
}

// AvailableRepositories returns a copy of the cached repository list.
func (s *Store) AvailableRepositories() []AvailableRepository {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]AvailableRepository(nil), s.availableRepositories...)
}

// Branches returns the branch cache entry for one repository and whether
// any state exists for it yet.
func (s *Store) Branches(repoFullName string) (BranchCache, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.branches[repoFullName]
	entry.Branches = append([]RepositoryBranch(nil), entry.Branches...)
	return entry, ok
}

// Status returns a snapshot of every operation's loading/error state.
func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		Fetch:        s.fetchStatus,
		Create:       s.createStatus,
		Update:       s.updateStatus,
		Delete:       s.deleteStatus,
		SetDefault:   s.setDefaultStatus,
		Repositories: s.reposStatus,
	}
}

// findEnvironment returns a pointer into the list; callers must hold mu.
func (s *Store) findEnvironment(environmentID string) *Environment {
	for i := range s.environments {
		if s.environments[i].ID == environmentID {
			return &s.environments[i]
		}
	}
	return nil
}

func (s *Store) begin(status *OpStatus) {
	s.mu.Lock()
	status.Loading = true
	status.Error = ""
	s.mu.Unlock()
}

func (s *Store) fail(status *OpStatus, err *errors.VibeError) {
	s.mu.Lock()
	status.Loading = false
	status.Error = err.Message
	s.mu.Unlock()
}

// operationError classifies a failed result: 401 is an authentication
// failure (the client core already reported the redirect), a transport
// failure surfaces as a recoverable network error, anything else as a
// server error. Only the core's Transport marker identifies network
// failures; a backend 500 is a server error and must not be retried.
func operationError(result api.Result, allowed ...int) *errors.VibeError {
	for _, status := range allowed {
		if result.Status == status && result.Error == "" {
			return nil
		}
	}
	switch {
	case result.Status == http.StatusUnauthorized:
		return errors.New(errors.CodeAuth, "Authentication failed", nil).WithRedirect()
	case result.Transport:
		return errors.New(errors.CodeNetwork, result.Error, nil).WithStatus(result.Status)
	default:
		msg := result.Error
		if msg == "" {
			msg = http.StatusText(result.Status)
		}
		return errors.New(errors.CodeServer, msg, nil).WithStatus(result.Status)
	}
}
