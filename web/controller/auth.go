package controller

import (
	"net/http"

	"user-center/web/middleware"
	"user-center/web/service"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	BaseController

	authService *service.AuthService
}

func NewAuthController(g *gin.RouterGroup, authed *gin.RouterGroup, loginLimiter gin.HandlerFunc) *AuthController {
	a := &AuthController{authService: service.NewAuthService()}

	g.POST("/login", loginLimiter, a.login)
	g.POST("/refresh", a.refresh)

	authed.POST("/logout", a.logout)
	authed.GET("/me", a.me)
	authed.POST("/change-password", a.changePassword)

	return a
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (a *AuthController) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonBadRequest(c, "Invalid login payload")
		return
	}

	user, pair, err := a.authService.Login(req.Email, req.Password, requestMeta(c))
	if err != nil {
		if err == service.ErrInvalidCredentials || err == service.ErrAccountInactive {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": err.Error()})
			return
		}
		jsonError(c, err)
		return
	}

	jsonData(c, http.StatusOK, "User authenticated successfully", gin.H{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"token_type":    pair.TokenType,
		"expires_in":    pair.ExpiresIn,
		"user":          user,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (a *AuthController) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonBadRequest(c, "Invalid refresh payload")
		return
	}

	user, pair, err := a.authService.Refresh(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid or expired token"})
		return
	}

	jsonData(c, http.StatusOK, "Token refreshed successfully", gin.H{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"token_type":    pair.TokenType,
		"expires_in":    pair.ExpiresIn,
		"user":          user,
	})
}

func (a *AuthController) logout(c *gin.Context) {
	p, ok := a.principal(c)
	if !ok {
		return
	}

	email := ""
	if user := middleware.CurrentUser(c); user != nil {
		email = user.Email
	}
	a.authService.Logout(p, email, requestMeta(c))

	jsonData(c, http.StatusOK, "Successfully logged out", nil)
}

func (a *AuthController) me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Authentication required"})
		return
	}
	jsonData(c, http.StatusOK, "User profile retrieved successfully", user)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=6,max=50"`
}

func (a *AuthController) changePassword(c *gin.Context) {
	p, ok := a.principal(c)
	if !ok {
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonBadRequest(c, "Invalid change-password payload")
		return
	}

	if err := a.authService.ChangePassword(p, req.CurrentPassword, req.NewPassword); err != nil {
		jsonError(c, err)
		return
	}
	jsonData(c, http.StatusOK, "Password changed successfully", nil)
}
