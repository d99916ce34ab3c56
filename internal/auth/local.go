package auth

import (
	"context"

	"github.com/yourname/aquaguide/internal"
)

// LocalAuthProvider checks tokens against a static token -> user id table.
type LocalAuthProvider struct {
	Tokens map[string]string
	logger internal.Logger
}

func (a *LocalAuthProvider) ValidateToken(ctx context.Context, token string) (*internal.User, error) {
	if userID, ok := a.Tokens[token]; ok && token != "" {
		return &internal.User{ID: userID, Token: token, Name: userID}, nil
	}
	a.logger.Warnf("invalid local token")
	return nil, unauthorized("invalid token")
}

func NewLocalAuthProvider(tokens map[string]string, logger internal.Logger) *LocalAuthProvider {
	return &LocalAuthProvider{Tokens: tokens, logger: logger}
}
