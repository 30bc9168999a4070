package workspace

import (
	"testing"

	json "github.com/goccy/go-json"
)

func TestDecodeEnvironmentListShapes(t *testing.T) {
	envs := `[{"id":"e1","name":"staging"},{"id":"e2","name":"prod","is_default":true}]`

	tests := []struct {
		name string
		body string
		want int
	}{
		{"bare array", envs, 2},
		{"environments envelope", `{"environments":` + envs + `}`, 2},
		{"data envelope", `{"data":` + envs + `}`, 2},
		{"empty array", `[]`, 0},
		{"unrecognized object", `{"items":` + envs + `}`, 0},
		{"scalar", `42`, 0},
		{"null", `null`, 0},
		{"empty body", ``, 0},
		{"garbage", `{"environments":"nope"}`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decodeEnvironmentList(json.RawMessage(tt.body))
			if got == nil {
				t.Fatalf("normalizer must never return nil")
			}
			if len(got) != tt.want {
				t.Errorf("got %d environments, want %d", len(got), tt.want)
			}
		})
	}
}

func TestDecodeEnvironmentListEquivalence(t *testing.T) {
	envs := `[{"id":"e1","name":"staging"}]`
	bare := decodeEnvironmentList(json.RawMessage(envs))
	keyed := decodeEnvironmentList(json.RawMessage(`{"environments":` + envs + `}`))
	generic := decodeEnvironmentList(json.RawMessage(`{"data":` + envs + `}`))

	for _, got := range [][]Environment{bare, keyed, generic} {
		if len(got) != 1 || got[0].ID != "e1" || got[0].Name != "staging" {
			t.Errorf("shapes must normalize to the same list, got %+v", got)
		}
	}
}

func TestDecodeBranchList(t *testing.T) {
	got := decodeBranchList(json.RawMessage(`{"branches":[{"name":"main","protected":true},{"name":"dev"}]}`))
	if len(got) != 2 || got[0].Name != "main" || !got[0].Protected {
		t.Errorf("unexpected branches: %+v", got)
	}
}

func TestDecodeRepositoryList(t *testing.T) {
	got := decodeRepositoryList(json.RawMessage(`[{"full_name":"org/app","default_branch":"main"}]`))
	if len(got) != 1 || got[0].FullName != "org/app" {
		t.Errorf("unexpected repositories: %+v", got)
	}
}
