package controller

import (
	"net/http"

	"user-center/web/service"

	"github.com/gin-gonic/gin"
)

type ServerController struct {
	BaseController

	serverService *service.ServerService
}

func NewServerController(admin *gin.RouterGroup, serverService *service.ServerService) *ServerController {
	a := &ServerController{serverService: serverService}

	admin.GET("/server/status", a.status)

	return a
}

func (a *ServerController) status(c *gin.Context) {
	jsonData(c, http.StatusOK, "Server status retrieved successfully", a.serverService.Status())
}
