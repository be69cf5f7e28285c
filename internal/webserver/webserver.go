// Package webserver owns the echo instance, its middleware chain and the
// route-registration helpers used by the api packages. Three surfaces:
// public storefront routes, authenticated routes (valid bearer token) and
// admin routes (token plus admin flag).
package webserver

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/golang-jwt/jwt/v4"
	jsoniter "github.com/json-iterator/go"

	"github.com/vtryon/lensmart/internal/app"
	"github.com/vtryon/lensmart/internal/auth"
)

var server *WebServer

type WebServer struct {
	root  *echo.Echo
	app   *app.Application
	pub   *echo.Group
	authd *echo.Group
	admin *echo.Group
}

// jsonSerializer swaps echo's default encoder for jsoniter
type jsonSerializer struct{}

func (jsonSerializer) Serialize(c echo.Context, i interface{}, indent string) error {
	enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (jsonSerializer) Deserialize(c echo.Context, i interface{}) error {
	return jsoniter.ConfigCompatibleWithStandardLibrary.NewDecoder(c.Request().Body).Decode(i)
}

// Init builds the server; api packages register routes afterwards
func Init(application *app.Application) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = jsonSerializer{}

	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     allowOrigins(application),
		AllowCredentials: true,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			zap.L().Info("http",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
			)
			return nil
		},
	}))

	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code := http.StatusInternalServerError
		message := "Internal server error"
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			message = fmt.Sprintf("%v", he.Message)
		}
		_ = c.JSON(code, map[string]interface{}{
			"code":    code,
			"message": message,
		})
	}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{"status": "ok"})
	})

	jwtMiddleware := echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(application.Config().Web.Secret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(auth.Claims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized")
		},
	})

	pub := e.Group("/api")
	authd := e.Group("/api", jwtMiddleware)
	admin := e.Group("/api/admin", jwtMiddleware, adminGuard)

	server = &WebServer{root: e, app: application, pub: pub, authd: authd, admin: admin}
}

func allowOrigins(application *app.Application) []string {
	raw := application.Config().Web.CorsAllow
	if strings.TrimSpace(raw) == "" {
		return []string{"*"}
	}
	return strings.Split(raw, ",")
}

// adminGuard rejects authenticated requests without the admin flag
func adminGuard(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims := CurrentClaims(c)
		if claims == nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized")
		}
		if !claims.IsAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "Admins only")
		}
		return next(c)
	}
}

// CurrentClaims returns the verified bearer claims, nil on public routes
func CurrentClaims(c echo.Context) *auth.Claims {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return nil
	}
	claims, ok := token.Claims.(*auth.Claims)
	if !ok {
		return nil
	}
	return claims
}

// App exposes the application context to route handlers
func App() *app.Application {
	return server.app
}

// Listen blocks serving HTTP until the listener fails or is shut down
func Listen() error {
	cfg := server.app.Config().Web
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	zap.L().Info("webserver listening", zap.String("addr", addr))
	return server.root.Start(addr)
}

// Shutdown stops the listener gracefully
func Shutdown() error {
	return server.root.Close()
}

// SetOutput silences echo's own logger output (tests)
func SetOutput(w io.Writer) {
	server.root.Logger.SetOutput(w)
}

// Public route helpers

func PubGET(path string, h echo.HandlerFunc)  { server.pub.GET(path, h) }
func PubPOST(path string, h echo.HandlerFunc) { server.pub.POST(path, h) }

// Authenticated route helpers

func AuthGET(path string, h echo.HandlerFunc)  { server.authd.GET(path, h) }
func AuthPOST(path string, h echo.HandlerFunc) { server.authd.POST(path, h) }
func AuthPUT(path string, h echo.HandlerFunc)  { server.authd.PUT(path, h) }

// Admin route helpers

func ApiGET(path string, h echo.HandlerFunc)    { server.admin.GET(path, h) }
func ApiPOST(path string, h echo.HandlerFunc)   { server.admin.POST(path, h) }
func ApiPUT(path string, h echo.HandlerFunc)    { server.admin.PUT(path, h) }
func ApiDELETE(path string, h echo.HandlerFunc) { server.admin.DELETE(path, h) }
