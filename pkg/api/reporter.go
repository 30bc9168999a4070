package api

import (
	"context"
	"log/slog"
)

// Reporter receives failures that concern the whole session rather than a
// single call site: authentication failures (which may require routing the
// user back to login) and connectivity problems. The host application
// supplies its own implementation; the default logs through slog.
type Reporter interface {
	// AuthError is invoked on authentication failures. redirect signals
	// that the session is gone and the user should be sent to login.
	AuthError(ctx context.Context, msg string, redirect bool)

	// NetworkError is invoked on transport failures.
	NetworkError(ctx context.Context, err error)
}

type logReporter struct{}

func (logReporter) AuthError(ctx context.Context, msg string, redirect bool) {
	slog.WarnContext(ctx, "authentication error", "message", msg, "redirect", redirect)
}

func (logReporter) NetworkError(ctx context.Context, err error) {
	slog.WarnContext(ctx, "network error, check your connection", "error", err)
}
