package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yourname/aquaguide/internal"
	"github.com/yourname/aquaguide/internal/response"
)

const userKey = "user"

// AuthMiddleware rejects any request without a bearer token the provider accepts.
func AuthMiddleware(provider Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if strings.HasPrefix(header, "Bearer ") {
			token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
			if token != "" {
				user, err := provider.ValidateToken(c.Request.Context(), token)
				if err == nil && user != nil {
					c.Set(userKey, user)
					c.Next()
					return
				}
			}
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Unauthorized("unauthorized"))
	}
}

// CurrentUser returns the user set by AuthMiddleware, or nil.
func CurrentUser(c *gin.Context) *internal.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := v.(*internal.User)
	return user
}
