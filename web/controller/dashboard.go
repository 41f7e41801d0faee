package controller

import (
	"net/http"

	"user-center/web/service"

	"github.com/gin-gonic/gin"
)

type DashboardController struct {
	BaseController

	dashboardService *service.DashboardService
}

func NewDashboardController(authed *gin.RouterGroup, dashboardService *service.DashboardService) *DashboardController {
	a := &DashboardController{dashboardService: dashboardService}

	g := authed.Group("/dashboard")
	g.GET("/stats", a.stats)
	g.GET("/recent-users", a.recentUsers)
	g.GET("/activity-chart", a.activityChart)

	return a
}

func (a *DashboardController) stats(c *gin.Context) {
	stats, err := a.dashboardService.Stats()
	if err != nil {
		jsonError(c, err)
		return
	}
	jsonData(c, http.StatusOK, "Dashboard stats retrieved successfully", stats)
}

func (a *DashboardController) recentUsers(c *gin.Context) {
	users, err := a.dashboardService.RecentUsers(queryInt(c, "limit", 5))
	if err != nil {
		jsonError(c, err)
		return
	}
	jsonData(c, http.StatusOK, "Recent users retrieved successfully", users)
}

func (a *DashboardController) activityChart(c *gin.Context) {
	points, err := a.dashboardService.ActivityChart(queryInt(c, "days", 7))
	if err != nil {
		jsonError(c, err)
		return
	}
	jsonData(c, http.StatusOK, "User activity chart data retrieved successfully", points)
}
