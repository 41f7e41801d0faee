package controller

import (
	"net/http"

	"user-center/web/policy"
	"user-center/web/service"

	"github.com/gin-gonic/gin"
)

type ActivityController struct {
	BaseController

	activityService *service.ActivityService
}

func NewActivityController(authed *gin.RouterGroup, admin *gin.RouterGroup) *ActivityController {
	a := &ActivityController{activityService: service.NewActivityService()}

	admin.GET("/activity-logs", a.list)
	admin.POST("/activity-logs/clean", a.clean)
	authed.GET("/activity-logs/my", a.myLogs)

	return a
}

// list is the admin view: unrestricted, all filters available.
func (a *ActivityController) list(c *gin.Context) {
	filter := service.ActivityFilter{
		UserId:   queryInt(c, "user_id", 0),
		Action:   c.Query("action"),
		FromDate: c.Query("from_date"),
		ToDate:   c.Query("to_date"),
		Page:     queryInt(c, "page", 1),
		PerPage:  queryInt(c, "per_page", 15),
	}

	entries, total, err := a.activityService.List(filter)
	if err != nil {
		jsonError(c, err)
		return
	}
	jsonPage(c, "Activity logs retrieved successfully", entries, total, filter.Page, filter.PerPage)
}

// myLogs is scoped server-side to the caller's own entries regardless of
// any filter parameters; only the action filter narrows further.
func (a *ActivityController) myLogs(c *gin.Context) {
	p, ok := a.principal(c)
	if !ok {
		return
	}

	filter := service.ActivityFilter{
		UserId:  p.Id,
		Action:  c.Query("action"),
		Page:    queryInt(c, "page", 1),
		PerPage: queryInt(c, "per_page", 15),
	}

	entries, total, err := a.activityService.List(filter)
	if err != nil {
		jsonError(c, err)
		return
	}
	jsonPage(c, "Your activity logs retrieved successfully", entries, total, filter.Page, filter.PerPage)
}

type cleanRequest struct {
	Days int `json:"days"`
}

// clean purges entries past the requested retention. Administrative purge
// is the only deletion path for audit data.
func (a *ActivityController) clean(c *gin.Context) {
	p, ok := a.principal(c)
	if !ok {
		return
	}
	if !p.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": policy.ReasonAdminRequired})
		return
	}

	var req cleanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonBadRequest(c, "Invalid clean payload")
		return
	}
	if req.Days <= 0 {
		req.Days = 90
	}

	removed, err := a.activityService.CleanOld(req.Days)
	if err != nil {
		jsonError(c, err)
		return
	}
	jsonData(c, http.StatusOK, "Old activity logs cleaned", gin.H{"removed": removed})
}
