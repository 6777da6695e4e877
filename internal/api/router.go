package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/segmentio/ksuid"
	"github.com/tracyhilton810-ctrl/tubefetch/internal/api/controllers"
	"github.com/tracyhilton810-ctrl/tubefetch/internal/app"
)

func RegisterRoutes(e *echo.Echo, app *app.Context) {

	// Middleware: Request ID
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			id := c.Request().Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = ksuid.New().String()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, id)
			return next(c)
		}
	})

	// Middleware: Request Logger
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c *echo.Context, v middleware.RequestLoggerValues) error {
			app.Logger.Info("%s %s | %d | %s", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))

	dlCtrl := controllers.NewDownloadController(app)

	// Middleware: failures that escape a handler render the form page
	// with a generic flash instead of echo's default error body. Recover
	// is registered after this so the error it produces from a panic
	// passes through here on the way out.
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			var httpErr *echo.HTTPError
			if errors.As(err, &httpErr) && httpErr.Code == http.StatusNotFound {
				return dlCtrl.NotFound(c)
			}

			app.Logger.Error("request %s %s failed: %v", c.Request().Method, c.Request().URL.Path, err)
			return dlCtrl.InternalError(c)
		}
	})

	// Middleware: panic recovery
	e.Use(middleware.Recover())

	// Web UI
	e.GET("/", dlCtrl.Index)
	e.POST("/analyze", dlCtrl.Analyze)
	e.POST("/download", dlCtrl.StartDownload)

	// Job API (polled by the download page)
	e.GET("/progress/:id", dlCtrl.Progress)
	e.GET("/events/:id", dlCtrl.Events)
	e.GET("/download-file/:id", dlCtrl.FetchFile)

	// Operational
	e.GET("/healthz", dlCtrl.Health)
}
