package auth

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestCredentialsExpired(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name  string
		creds Credentials
		want  bool
	}{
		{"no access token", Credentials{RefreshToken: "r"}, true},
		{"explicit future expiry", Credentials{AccessToken: "a", ExpiresAt: now.Add(time.Hour)}, false},
		{"explicit past expiry", Credentials{AccessToken: "a", ExpiresAt: now.Add(-time.Hour)}, true},
		{"within skew window", Credentials{AccessToken: "a", ExpiresAt: now.Add(10 * time.Second)}, true},
		{"opaque token without expiry", Credentials{AccessToken: "not-a-jwt"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.creds.Expired(now); got != tt.want {
				t.Errorf("Expired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCredentialsExpiredJWTFallback(t *testing.T) {
	now := time.Now()

	live := Credentials{AccessToken: signedToken(t, now.Add(time.Hour))}
	if live.Expired(now) {
		t.Errorf("token with future exp claim should not be expired")
	}

	stale := Credentials{AccessToken: signedToken(t, now.Add(-time.Hour))}
	if !stale.Expired(now) {
		t.Errorf("token with past exp claim should be expired")
	}
}

func TestMemoryStore(t *testing.T) {
	m := NewMemory()

	if err := m.StoreAccess("acc", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("StoreAccess: %v", err)
	}
	if err := m.StoreRefresh("ref"); err != nil {
		t.Fatalf("StoreRefresh: %v", err)
	}

	creds, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if creds.AccessToken != "acc" || creds.RefreshToken != "ref" {
		t.Errorf("unexpected credentials: %+v", creds)
	}

	if err := m.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	creds, _ = m.Load()
	if creds.AccessToken != "" || creds.RefreshToken != "" {
		t.Errorf("expected cleared credentials, got %+v", creds)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credentials.json")
	f := NewFileStore(path)

	// Missing file reads as logged out.
	creds, err := f.Load()
	if err != nil {
		t.Fatalf("Load on missing file: %v", err)
	}
	if creds.AccessToken != "" {
		t.Errorf("expected empty credentials, got %+v", creds)
	}

	expiry := time.Now().Add(time.Hour).Truncate(time.Second)
	if err := f.StoreAccess("acc", expiry); err != nil {
		t.Fatalf("StoreAccess: %v", err)
	}
	if err := f.StoreRefresh("ref"); err != nil {
		t.Fatalf("StoreRefresh: %v", err)
	}

	creds, err = f.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if creds.AccessToken != "acc" || creds.RefreshToken != "ref" {
		t.Errorf("unexpected credentials: %+v", creds)
	}
	if !creds.ExpiresAt.Equal(expiry) {
		t.Errorf("expiry not persisted: got %v want %v", creds.ExpiresAt, expiry)
	}

	// StoreAccess must not drop the refresh token.
	if err := f.StoreAccess("acc2", expiry); err != nil {
		t.Fatalf("StoreAccess: %v", err)
	}
	creds, _ = f.Load()
	if creds.RefreshToken != "ref" {
		t.Errorf("refresh token lost on access update: %+v", creds)
	}

	if err := f.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	creds, _ = f.Load()
	if creds.AccessToken != "" {
		t.Errorf("expected cleared credentials, got %+v", creds)
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.db")
	s, err := OpenSQLiteStore(path)
	if err != nil {
		t.Fatalf("OpenSQLiteStore: %v", err)
	}
	defer s.Close()

	creds, err := s.Load()
	if err != nil {
		t.Fatalf("Load on empty store: %v", err)
	}
	if creds.AccessToken != "" {
		t.Errorf("expected empty credentials, got %+v", creds)
	}

	expiry := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	if err := s.StoreRefresh("ref"); err != nil {
		t.Fatalf("StoreRefresh: %v", err)
	}
	if err := s.StoreAccess("acc", expiry); err != nil {
		t.Fatalf("StoreAccess: %v", err)
	}

	creds, err = s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if creds.AccessToken != "acc" || creds.RefreshToken != "ref" {
		t.Errorf("unexpected credentials: %+v", creds)
	}
	if !creds.ExpiresAt.Equal(expiry) {
		t.Errorf("expiry not persisted: got %v want %v", creds.ExpiresAt, expiry)
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	creds, _ = s.Load()
	if creds.AccessToken != "" || creds.RefreshToken != "" {
		t.Errorf("expected cleared credentials, got %+v", creds)
	}
}
