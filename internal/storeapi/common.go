// Package storeapi serves the public storefront surface: account auth,
// the published catalog, checkout and order tracking.
package storeapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/vtryon/lensmart/internal/webserver"
)

// InitRouter registers every storefront endpoint
func InitRouter() {
	registerAuthRoutes()
	registerCatalogRoutes()
	registerCheckoutRoutes()
	registerTryOnRoutes()
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

func fail(c echo.Context, status int, code, message string) error {
	return c.JSON(status, map[string]interface{}{
		"success": false,
		"code":    code,
		"message": message,
	})
}
