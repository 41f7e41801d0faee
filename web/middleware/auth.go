// Package middleware contains the gin middleware of the user-center web
// layer: principal resolution, role gating and login throttling.
package middleware

import (
	"net/http"

	"user-center/database/model"
	"user-center/web/entity"
	"user-center/web/policy"
	"user-center/web/service"

	"github.com/gin-gonic/gin"
)

const (
	principalKey   = "PRINCIPAL"
	currentUserKey = "CURRENT_USER"
)

// AuthRequired resolves the bearer token to a Principal and stores it in
// the request context. The user row is reloaded on every request so role
// changes and deactivation apply to already-issued tokens.
func AuthRequired(tokens *service.TokenService, users *service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := service.ExtractBearer(c.GetHeader("Authorization"))
		if token == "" {
			abortUnauthenticated(c, "Authentication required")
			return
		}

		claims, err := tokens.ValidateAccessToken(token)
		if err != nil {
			abortUnauthenticated(c, "Invalid or expired token")
			return
		}

		user, err := users.GetById(claims.UserId)
		if err != nil {
			abortUnauthenticated(c, "Invalid or expired token")
			return
		}
		if !user.Active {
			abortUnauthenticated(c, "Account is inactive")
			return
		}

		c.Set(principalKey, policy.Principal{
			Id:     user.Id,
			Slug:   user.Slug,
			Role:   user.Role,
			Active: user.Active,
		})
		c.Set(currentUserKey, user)
		c.Next()
	}
}

// AdminRequired gates a route group to admin principals. Runs after
// AuthRequired.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		if !ok {
			abortUnauthenticated(c, "Authentication required")
			return
		}
		if !p.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, entity.Msg{
				Success: false,
				Message: policy.ReasonAdminRequired,
			})
			return
		}
		c.Next()
	}
}

// GetPrincipal returns the principal resolved by AuthRequired.
func GetPrincipal(c *gin.Context) (policy.Principal, bool) {
	value, exists := c.Get(principalKey)
	if !exists {
		return policy.Principal{}, false
	}
	p, ok := value.(policy.Principal)
	return p, ok
}

// CurrentUser returns the full user record behind the principal.
func CurrentUser(c *gin.Context) *model.User {
	value, exists := c.Get(currentUserKey)
	if !exists {
		return nil
	}
	user, _ := value.(*model.User)
	return user
}

func abortUnauthenticated(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, entity.Msg{
		Success: false,
		Message: msg,
	})
}
