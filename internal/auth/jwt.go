package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
	"github.com/yourname/aquaguide/internal"
)

// JWTAuthProvider accepts HS256 tokens signed with a shared secret; the sub claim is the user id.
type JWTAuthProvider struct {
	secret []byte
	logger internal.Logger
}

type Claims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

func NewJWTAuthProvider(secret string, logger internal.Logger) *JWTAuthProvider {
	return &JWTAuthProvider{secret: []byte(secret), logger: logger}
}

func (a *JWTAuthProvider) ValidateToken(ctx context.Context, token string) (*internal.User, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		a.logger.Warnf("jwt rejected: %v", err)
		return nil, unauthorized("invalid token")
	}
	if claims.Subject == "" {
		return nil, unauthorized("token has no subject")
	}
	name := claims.Name
	if name == "" {
		name = claims.Subject
	}
	return &internal.User{ID: claims.Subject, Token: token, Name: name}, nil
}

// Sign issues an HS256 token with the provider secret.
func (a *JWTAuthProvider) Sign(claims Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}
