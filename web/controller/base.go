// Package controller provides the HTTP handlers of the user-center REST
// API: authentication, user management, activity logs, dashboard and
// server status.
package controller

import (
	"net/http"

	"user-center/web/entity"
	"user-center/web/middleware"
	"user-center/web/policy"

	"github.com/gin-gonic/gin"
)

// BaseController provides shared helpers for all controllers.
type BaseController struct{}

// principal returns the authenticated principal or aborts with 401. The
// auth middleware guarantees presence on protected routes; the abort is
// the backstop for misregistered ones.
func (a *BaseController) principal(c *gin.Context) (policy.Principal, bool) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, entity.Msg{
			Success: false,
			Message: "Authentication required",
		})
	}
	return p, ok
}
