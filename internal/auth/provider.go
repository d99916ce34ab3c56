package auth

import (
	"context"
	"fmt"

	"github.com/yourname/aquaguide/internal"
	"github.com/yourname/aquaguide/internal/config"
)

// Provider resolves a bearer token to a user. Failures wrap internal.ErrUnauthorized.
type Provider interface {
	ValidateToken(ctx context.Context, token string) (*internal.User, error)
}

// NewProvider picks the provider for cfg.AuthMode.
func NewProvider(cfg *config.Config, logger internal.Logger) (Provider, error) {
	switch cfg.AuthMode {
	case "local":
		return NewLocalAuthProvider(cfg.AuthTokens, logger), nil
	case "remote":
		return NewRemoteAuthProvider(cfg.AuthServiceURL, logger), nil
	case "jwt":
		return NewJWTAuthProvider(cfg.JWTSecret, logger), nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.AuthMode)
	}
}

func unauthorized(reason string) error {
	return fmt.Errorf("%w: %s", internal.ErrUnauthorized, reason)
}
