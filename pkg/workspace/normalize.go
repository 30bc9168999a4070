package workspace

import (
	json "github.com/goccy/go-json"
)

// The backend has shipped three list envelopes over time: a bare array,
// an object keyed by the resource name, and a generic {data: [...]}.
// decodeList accepts all three and folds anything else to an empty list,
// so callers never branch on response shape and never panic on it.
func decodeList[T any](data json.RawMessage, key string) []T {
	if len(data) == 0 {
		return []T{}
	}

	var bare []T
	if err := json.Unmarshal(data, &bare); err == nil {
		if bare == nil {
			return []T{}
		}
		return bare
	}

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return []T{}
	}
	for _, candidate := range []string{key, "data"} {
		raw, ok := wrapped[candidate]
		if !ok {
			continue
		}
		var list []T
		if err := json.Unmarshal(raw, &list); err == nil && list != nil {
			return list
		}
	}
	return []T{}
}

func decodeEnvironmentList(data json.RawMessage) []Environment {
	return decodeList[Environment](data, "environments")
}

func decodeRepositoryList(data json.RawMessage) []AvailableRepository {
	return decodeList[AvailableRepository](data, "repositories")
}

func decodeBranchList(data json.RawMessage) []RepositoryBranch {
	return decodeList[RepositoryBranch](data, "branches")
}
