package storeapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vtryon/lensmart/internal/webserver"
)

// tryOnConfig is what the browser overlay needs to position a frame
// image over detected face landmarks.
type tryOnConfig struct {
	Enabled        bool    `json:"enabled" mapstructure:"Enabled"`
	ModelURL       string  `json:"model_url" mapstructure:"ModelURL"`
	OverlayScale   float64 `json:"overlay_scale" mapstructure:"OverlayScale"`
	OverlayOffsetY float64 `json:"overlay_offset_y" mapstructure:"OverlayOffsetY"`
}

func registerTryOnRoutes() {
	webserver.PubGET("/tryon/config", getTryOnConfig)
}

func getTryOnConfig(c echo.Context) error {
	var cfg tryOnConfig
	if err := webserver.App().ConfigMgr().GetSection("tryon", &cfg); err != nil {
		return fail(c, http.StatusInternalServerError, "SETTINGS_ERROR", "Failed to load try-on settings")
	}
	return ok(c, cfg)
}
