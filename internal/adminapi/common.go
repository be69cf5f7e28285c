package adminapi

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/vtryon/lensmart/internal/domain"
	"github.com/vtryon/lensmart/internal/webserver"
	"github.com/vtryon/lensmart/pkg/common"
)

// InitRouter registers every admin endpoint
func InitRouter() {
	registerProductRoutes()
	registerCategoryRoutes()
	registerUserRoutes()
	registerOrderRoutes()
	registerDashboardRoutes()
	registerExportRoutes()
	registerSettingsRoutes()
	registerUploadRoutes()
}

// GetDB returns the request-scoped database handle
func GetDB(c echo.Context) *gorm.DB {
	return webserver.App().DB().WithContext(c.Request().Context())
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    data,
	})
}

func fail(c echo.Context, status int, code, message string, detail interface{}) error {
	return c.JSON(status, map[string]interface{}{
		"success": false,
		"code":    code,
		"message": message,
		"detail":  detail,
	})
}

func paged(c echo.Context, rows interface{}, total int64, page, pageSize int) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":   true,
		"data":      rows,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

func parsePagination(c echo.Context) (page, pageSize int) {
	page = 1
	if p, err := strconv.Atoi(c.QueryParam("page")); err == nil && p > 0 {
		page = p
	}
	pageSize = 20
	if ps, err := strconv.Atoi(c.QueryParam("perPage")); err == nil && ps > 0 && ps <= 500 {
		pageSize = ps
	}
	return page, pageSize
}

func parseIDParam(c echo.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}

// auditLog records an admin mutation for the retention-bound audit trail
func auditLog(c echo.Context, action, detail string) {
	claims := webserver.CurrentClaims(c)
	username := ""
	if claims != nil {
		username = fmt.Sprintf("%d", claims.UserId)
		var u domain.User
		if err := GetDB(c).Select("email").Where("id = ?", claims.UserId).First(&u).Error; err == nil {
			username = u.Email
		}
	}
	GetDB(c).Create(&domain.SysAuditLog{
		ID:       common.UUIDint64(),
		Username: username,
		SrcIp:    c.RealIP(),
		Action:   action,
		Detail:   detail,
		OptTime:  time.Now(),
	})
}
