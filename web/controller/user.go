package controller

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"user-center/config"
	"user-center/logger"
	"user-center/util/common"
	"user-center/web/middleware"
	"user-center/web/policy"
	"user-center/web/service"

	"github.com/gin-gonic/gin"
)

const maxPhotoSize = 2 << 20 // 2MB

var allowedPhotoExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
}

type UserController struct {
	BaseController

	userService *service.UserService
}

func NewUserController(authed *gin.RouterGroup) *UserController {
	a := &UserController{userService: service.NewUserService()}

	users := authed.Group("/users")
	{
		users.GET("", a.list)
		users.POST("", a.create)
		users.GET("/:slug", a.show)
		users.PUT("/:slug", a.update)
		users.DELETE("/:slug", a.delete)
		users.PATCH("/:slug/status", a.changeStatus)
	}

	profile := authed.Group("/profile")
	{
		profile.GET("", a.profile)
		profile.POST("/photo", a.uploadProfilePhoto)
		profile.DELETE("/photo", a.deleteProfilePhoto)
	}

	return a
}

func (a *UserController) list(c *gin.Context) {
	page := queryInt(c, "page", 1)
	perPage := queryInt(c, "per_page", 10)

	users, total, err := a.userService.Search(c.Query("search"), page, perPage)
	if err != nil {
		jsonError(c, err)
		return
	}
	jsonPage(c, "Users retrieved successfully", users, total, page, perPage)
}

type createUserRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=255"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=50"`
	Role     string `json:"role" binding:"omitempty,oneof=admin user"`
	Active   *bool  `json:"active"`
}

func (a *UserController) create(c *gin.Context) {
	p, ok := a.principal(c)
	if !ok {
		return
	}

	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonBadRequest(c, "Invalid user payload")
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	user, err := a.userService.Create(p, req.Name, req.Email, req.Password, req.Role, active, requestMeta(c))
	if err != nil {
		jsonError(c, err)
		return
	}
	jsonData(c, http.StatusCreated, "User created successfully", user)
}

func (a *UserController) show(c *gin.Context) {
	user, err := a.userService.GetBySlug(c.Param("slug"))
	if err != nil {
		if err == common.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found"})
			return
		}
		jsonError(c, err)
		return
	}
	jsonData(c, http.StatusOK, "User retrieved successfully", user)
}

type updateUserRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=2,max=255"`
	Email    *string `json:"email" binding:"omitempty,email,max=255"`
	Password *string `json:"password" binding:"omitempty,min=6,max=50"`
	Role     *string `json:"role" binding:"omitempty,oneof=admin user"`
	Active   *bool   `json:"active"`
}

func (a *UserController) update(c *gin.Context) {
	p, ok := a.principal(c)
	if !ok {
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonBadRequest(c, "Invalid user payload")
		return
	}

	mutation := policy.Mutation{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		Active:   req.Active,
	}
	user, err := a.userService.Update(p, c.Param("slug"), mutation, requestMeta(c))
	if err != nil {
		if err == common.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found"})
			return
		}
		jsonError(c, err)
		return
	}
	jsonData(c, http.StatusOK, "User updated successfully", user)
}

func (a *UserController) delete(c *gin.Context) {
	p, ok := a.principal(c)
	if !ok {
		return
	}

	err := a.userService.Delete(p, c.Param("slug"), requestMeta(c))
	if err != nil {
		if err == common.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found"})
			return
		}
		jsonError(c, err)
		return
	}
	jsonData(c, http.StatusOK, "User deleted successfully", nil)
}

type changeStatusRequest struct {
	Active *bool `json:"active" binding:"required"`
}

func (a *UserController) changeStatus(c *gin.Context) {
	p, ok := a.principal(c)
	if !ok {
		return
	}

	var req changeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonBadRequest(c, "The active field is required")
		return
	}

	user, err := a.userService.ChangeStatus(p, c.Param("slug"), *req.Active)
	if err != nil {
		if err == common.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found"})
			return
		}
		jsonError(c, err)
		return
	}

	message := "User activated successfully"
	if !*req.Active {
		message = "User deactivated successfully"
	}
	jsonData(c, http.StatusOK, message, user)
}

func (a *UserController) profile(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Authentication required"})
		return
	}
	jsonData(c, http.StatusOK, "Profile retrieved successfully", gin.H{
		"user":          user,
		"profile_photo": user.ProfilePhoto,
	})
}

func (a *UserController) uploadProfilePhoto(c *gin.Context) {
	p, ok := a.principal(c)
	if !ok {
		return
	}

	file, err := c.FormFile("photo")
	if err != nil {
		jsonBadRequest(c, "The photo field is required")
		return
	}
	if file.Size > maxPhotoSize {
		jsonBadRequest(c, "The photo must not exceed 2MB")
		return
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedPhotoExts[ext] {
		jsonBadRequest(c, "The photo must be a jpeg, png, webp or gif image")
		return
	}

	photoDir := filepath.Join(config.GetUploadFolder(), "profile_photos")
	if err := os.MkdirAll(photoDir, 0o750); err != nil {
		jsonError(c, err)
		return
	}
	filename := fmt.Sprintf("%s_%d%s", p.Slug, time.Now().Unix(), ext)
	fullPath := filepath.Join(photoDir, filename)
	if err := c.SaveUploadedFile(file, fullPath); err != nil {
		jsonError(c, err)
		return
	}

	storedPath := filepath.Join("profile_photos", filename)
	previous, err := a.userService.SetProfilePhoto(p, storedPath, requestMeta(c))
	if err != nil {
		_ = os.Remove(fullPath)
		jsonError(c, err)
		return
	}
	removeStoredPhoto(previous)

	jsonData(c, http.StatusOK, "Profile photo uploaded successfully", gin.H{
		"profile_photo": storedPath,
	})
}

func (a *UserController) deleteProfilePhoto(c *gin.Context) {
	p, ok := a.principal(c)
	if !ok {
		return
	}

	previous, err := a.userService.ClearProfilePhoto(p, requestMeta(c))
	if err != nil {
		if err == common.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "No profile photo found"})
			return
		}
		jsonError(c, err)
		return
	}
	removeStoredPhoto(previous)

	jsonData(c, http.StatusOK, "Profile photo deleted successfully", nil)
}

func removeStoredPhoto(storedPath string) {
	if storedPath == "" {
		return
	}
	fullPath := filepath.Join(config.GetUploadFolder(), storedPath)
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		logger.Warning("failed to remove profile photo:", err)
	}
}
