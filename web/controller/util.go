package controller

import (
	"net"
	"net/http"
	"strconv"
	"strings"

	"user-center/logger"
	"user-center/util/common"
	"user-center/web/entity"
	"user-center/web/service"

	"github.com/gin-gonic/gin"
)

// getRemoteIp extracts the real client address, honoring proxy headers.
func getRemoteIp(c *gin.Context) string {
	value := c.GetHeader("X-Real-IP")
	if value != "" {
		return value
	}
	value = c.GetHeader("X-Forwarded-For")
	if value != "" {
		ips := strings.Split(value, ",")
		return strings.TrimSpace(ips[0])
	}
	ip, _, _ := net.SplitHostPort(c.Request.RemoteAddr)
	return ip
}

// requestMeta captures the audit metadata of the current request.
func requestMeta(c *gin.Context) *service.RequestMeta {
	return &service.RequestMeta{
		IP:        getRemoteIp(c),
		UserAgent: c.GetHeader("User-Agent"),
	}
}

func jsonData(c *gin.Context, status int, message string, data any) {
	c.JSON(status, entity.Msg{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func jsonPage(c *gin.Context, message string, items any, total int64, page, perPage int) {
	jsonData(c, http.StatusOK, message, entity.Page{
		Items:   items,
		Total:   total,
		Page:    page,
		PerPage: perPage,
	})
}

// jsonError translates a service error into the HTTP status the error
// taxonomy prescribes: 403 policy rejections, 422 field validation, 404
// absent targets, 409 uniqueness races, 400 malformed requests, 500 rest.
func jsonError(c *gin.Context, err error) {
	switch e := err.(type) {
	case *common.ForbiddenError:
		c.JSON(http.StatusForbidden, entity.Msg{Success: false, Message: e.Reason})
	case *common.FieldError:
		c.JSON(http.StatusUnprocessableEntity, entity.Msg{
			Success: false,
			Message: "Validation failed",
			Errors:  map[string][]string{e.Field: {e.Reason}},
		})
	case *common.ConflictError:
		c.JSON(http.StatusConflict, entity.Msg{Success: false, Message: e.Message})
	case *common.RequestError:
		c.JSON(http.StatusBadRequest, entity.Msg{Success: false, Message: e.Message})
	default:
		if err == common.ErrNotFound {
			c.JSON(http.StatusNotFound, entity.Msg{Success: false, Message: "Not found"})
			return
		}
		logger.Warning("request failed:", err)
		c.JSON(http.StatusInternalServerError, entity.Msg{Success: false, Message: "Internal server error"})
	}
}

func jsonBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, entity.Msg{Success: false, Message: message})
}

func queryInt(c *gin.Context, name string, defaultValue int) int {
	value := c.Query(name)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
