package backendtest

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/vibemonitor/vibemonitor-go/pkg/api"
	"github.com/vibemonitor/vibemonitor-go/pkg/auth"
)

func TestScriptedRoutes(t *testing.T) {
	backend := New().
		WithValidToken("tok-1").
		Route("GET /api/v1/workspaces/ws-1/environments", http.StatusOK, `[{"id":"e1"}]`)
	defer backend.Close()

	tokens := auth.NewMemoryWith(auth.Credentials{
		AccessToken: "tok-1",
		ExpiresAt:   time.Now().Add(time.Hour),
	})
	client := api.New(backend.URL(), api.WithTokenProvider(tokens))

	result := client.Request(context.Background(), http.MethodGet, "/api/v1/workspaces/ws-1/environments", nil)
	if !result.OK() {
		t.Fatalf("unexpected result: %+v", result)
	}

	records := backend.RequestsTo("GET /api/v1/workspaces/ws-1/environments")
	if len(records) != 1 || records[0].Token != "tok-1" {
		t.Errorf("unexpected records: %+v", records)
	}
}

func TestRefreshGrantCycle(t *testing.T) {
	backend := New().
		WithRefreshGrant("ref-1", "tok-2").
		Route("GET /api/v1/ping", http.StatusOK, `{}`)
	defer backend.Close()

	// tok-1 was never registered, so the first request 401s and the
	// client refreshes into tok-2.
	tokens := auth.NewMemoryWith(auth.Credentials{
		AccessToken:  "tok-1",
		RefreshToken: "ref-1",
		ExpiresAt:    time.Now().Add(time.Hour),
	})
	client := api.New(backend.URL(), api.WithTokenProvider(tokens))

	result := client.Request(context.Background(), http.MethodGet, "/api/v1/ping", nil)
	if !result.OK() {
		t.Fatalf("unexpected result: %+v", result)
	}

	if refreshes := backend.RequestsTo("POST /api/v1/auth/refresh"); len(refreshes) != 1 {
		t.Errorf("refresh calls = %d, want 1", len(refreshes))
	}
	pings := backend.RequestsTo("GET /api/v1/ping")
	if len(pings) != 2 || pings[1].Token != "tok-2" {
		t.Errorf("unexpected ping records: %+v", pings)
	}
}

func TestUnscriptedRouteAnswers404(t *testing.T) {
	backend := New()
	defer backend.Close()

	result := api.New(backend.URL()).PublicRequest(context.Background(), http.MethodGet, "/api/v1/nowhere", nil)
	if result.Status != http.StatusNotFound || result.Error != "not found" {
		t.Errorf("unexpected result: %+v", result)
	}
}
