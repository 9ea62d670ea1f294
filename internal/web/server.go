// Package web serves the browser UI and the JSON API over echo.
package web

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ironsheep/image-translate/internal/pipeline"
)

// Options configure the HTTP layer.
type Options struct {
	// UploadLimit caps request bodies, in echo's size syntax ("10M").
	UploadLimit string

	// Gatherer backs /metrics. Nil uses the default registry.
	Gatherer prometheus.Gatherer

	// Version is reported by /healthz.
	Version string
}

// Server holds the handlers for pages and API routes.
type Server struct {
	svc  *pipeline.Service
	opts Options
}

// NewServer creates the HTTP handlers around svc.
func NewServer(svc *pipeline.Service, opts Options) *Server {
	if opts.UploadLimit == "" {
		opts.UploadLimit = "10M"
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	return &Server{svc: svc, opts: opts}
}

// NewEcho returns an echo instance with logging, recovery, request IDs,
// body limit and validation installed, and every route registered.
func (s *Server) NewEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/healthz" || c.Path() == "/metrics"
		},
		LogStatus:    true,
		LogLatency:   true,
		LogMethod:    true,
		LogURI:       true,
		LogError:     true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogRoutePath: true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"route", v.RoutePath,
				"status", v.Status,
				"latency", v.Latency,
				"remote_ip", v.RemoteIP,
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				slog.Error("request failed", append(attrs, "error", v.Error)...)
				return nil
			}
			slog.Info("request", attrs...)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(s.opts.UploadLimit))

	e.Validator = NewGenericEchoValidator()
	e.Renderer = newTemplate()

	s.SetRoutes(e)
	return e
}

// SetRoutes registers page, API and operational routes on e.
func (s *Server) SetRoutes(e *echo.Echo) {
	e.GET("/", s.rootRedirectHandler)
	e.GET("/recognize", s.recognizePageHandler)
	e.POST("/recognize", s.recognizeHandler)
	e.GET("/translate", s.translatePageHandler)
	e.POST("/translate/text", s.translateTextHandler)
	e.POST("/translate/image", s.translateImageHandler)

	api := e.Group("/api")
	api.POST("/recognize", s.apiRecognizeHandler)
	api.POST("/detect", s.apiDetectHandler)
	api.POST("/translate", s.apiTranslateHandler)
	api.POST("/grammar", s.apiGrammarHandler)
	api.POST("/speech", s.apiSpeechHandler)
	api.GET("/languages", s.apiLanguagesHandler)

	e.GET("/healthz", s.healthHandler)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{})))
}

func (s *Server) rootRedirectHandler(ctx echo.Context) error {
	return ctx.Redirect(http.StatusMovedPermanently, "/recognize")
}

func (s *Server) healthHandler(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]any{
		"status":    "ok",
		"version":   s.opts.Version,
		"languages": len(s.svc.Languages()),
	})
}

// readUpload returns the bytes of the multipart file in field.
func readUpload(ctx echo.Context, field string) ([]byte, error) {
	file, err := ctx.FormFile(field)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "no image uploaded")
	}
	src, err := file.Open()
	if err != nil {
		slog.Error("readUpload: failed to open uploaded file", "error", err, "filename", file.Filename)
		return nil, echo.NewHTTPError(http.StatusBadRequest, "could not open uploaded image")
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			slog.Error("readUpload: failed to close uploaded file reader", "error", cerr, "filename", file.Filename)
		}
	}()

	data, err := io.ReadAll(src)
	if err != nil {
		slog.Error("readUpload: failed to read uploaded file", "error", err, "filename", file.Filename)
		return nil, echo.NewHTTPError(http.StatusBadRequest, "could not read uploaded image")
	}
	return data, nil
}

// formFlag reports whether a checkbox-style form field is set.
func formFlag(ctx echo.Context, field string) bool {
	switch ctx.FormValue(field) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

// formValues returns every value of a repeated form field, accepting both
// "name" and "name[]".
func formValues(ctx echo.Context, field string) []string {
	form, err := ctx.MultipartForm()
	var values []string
	if err == nil && form != nil {
		values = append(values, form.Value[field]...)
		values = append(values, form.Value[field+"[]"]...)
		return values
	}
	params, err := ctx.FormParams()
	if err != nil {
		return nil
	}
	values = append(values, params[field]...)
	values = append(values, params[field+"[]"]...)
	return values
}
