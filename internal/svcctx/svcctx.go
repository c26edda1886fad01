// Package svcctx provides service context for dependency injection via context.
// This package is separate from server to avoid import cycles with endpoints.
package svcctx

import (
	"context"
	"log/slog"

	"github.com/wallsified/pdf-o-matico/internal/config"
	"github.com/wallsified/pdf-o-matico/internal/home"
	"github.com/wallsified/pdf-o-matico/internal/pdf"
	"github.com/wallsified/pdf-o-matico/internal/session"
	"github.com/wallsified/pdf-o-matico/internal/store"
	"github.com/wallsified/pdf-o-matico/internal/tools"
)

// Services holds all core services that flow through context.
// Components extract what they need via the individual extractors.
type Services struct {
	Sessions   *session.Manager
	Tools      *tools.Registry
	Store      *store.Store
	Rasterizer *pdf.Poppler
	Config     *config.Manager
	Logger     *slog.Logger
	Home       *home.Dir

	// MaxUploadBytes bounds a single upload request body
	MaxUploadBytes int64
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context.
// Returns nil if not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// SessionsFrom extracts the session manager from context.
func SessionsFrom(ctx context.Context) *session.Manager {
	if s := ServicesFrom(ctx); s != nil {
		return s.Sessions
	}
	return nil
}

// ToolsFrom extracts the tool registry from context.
func ToolsFrom(ctx context.Context) *tools.Registry {
	if s := ServicesFrom(ctx); s != nil {
		return s.Tools
	}
	return nil
}

// StoreFrom extracts the upload store from context.
func StoreFrom(ctx context.Context) *store.Store {
	if s := ServicesFrom(ctx); s != nil {
		return s.Store
	}
	return nil
}

// RasterizerFrom extracts the page rasterizer from context.
func RasterizerFrom(ctx context.Context) *pdf.Poppler {
	if s := ServicesFrom(ctx); s != nil {
		return s.Rasterizer
	}
	return nil
}

// LoggerFrom extracts the logger from context, falling back to slog.Default.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil && s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// HomeFrom extracts the home directory from context.
func HomeFrom(ctx context.Context) *home.Dir {
	if s := ServicesFrom(ctx); s != nil {
		return s.Home
	}
	return nil
}

// MaxUploadBytesFrom returns the upload size limit, or 0 when unset.
func MaxUploadBytesFrom(ctx context.Context) int64 {
	if s := ServicesFrom(ctx); s != nil {
		return s.MaxUploadBytes
	}
	return 0
}
