package adminapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vtryon/lensmart/internal/domain"
	"github.com/vtryon/lensmart/internal/webserver"
)

func registerSettingsRoutes() {
	webserver.ApiGET("/settings", listSettings)
	webserver.ApiPUT("/settings", saveSettings)
	webserver.ApiGET("/audit-logs", listAuditLogs)
}

func listSettings(c echo.Context) error {
	query := GetDB(c).Order("type, sort, name")
	if category := c.QueryParam("category"); category != "" {
		query = query.Where("type = ?", category)
	}
	var rows []domain.SysConfig
	if err := query.Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query settings", err.Error())
	}
	return ok(c, rows)
}

// saveSettings accepts a flat map keyed "category.name"
func saveSettings(c echo.Context) error {
	var payload map[string]interface{}
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse settings", nil)
	}
	if len(payload) == 0 {
		return fail(c, http.StatusBadRequest, "EMPTY_SETTINGS", "No settings provided", nil)
	}
	if err := webserver.App().SaveSettings(payload); err != nil {
		return fail(c, http.StatusBadRequest, "SAVE_FAILED", err.Error(), nil)
	}
	auditLog(c, "settings.update", "")
	return ok(c, map[string]interface{}{"updated": len(payload)})
}

func listAuditLogs(c echo.Context) error {
	page, pageSize := parsePagination(c)

	base := GetDB(c).Model(&domain.SysAuditLog{})
	if action := c.QueryParam("action"); action != "" {
		base = base.Where("action = ?", action)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query audit logs", err.Error())
	}
	var logs []domain.SysAuditLog
	if err := base.Order("opt_time DESC").Offset((page-1)*pageSize).Limit(pageSize).Find(&logs).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query audit logs", err.Error())
	}
	return paged(c, logs, total, page, pageSize)
}
