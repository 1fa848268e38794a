package server

import (
	"net/http"

	"PawTriage/internal/admin"
	"PawTriage/internal/auth"
	"PawTriage/internal/utility"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
)

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(LoggerMiddleware)
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogMethod:   true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger := utility.LoggerFromContext(c)
			event := logger.Info()
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				event = logger.Error().Err(v.Error)
			}
			event.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("64K"))

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"https://*", "http://*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:       300,
	}))

	// Public routes
	e.GET("/health", s.healthHandler)
	e.GET("/clinics/nearby", s.pets.NearbyClinicsHandler)

	// Protected routes
	protected := e.Group("")
	protected.Use(auth.JwtAuthMiddleware(s.jwtSecret))

	protected.POST("/analyze", s.pets.AnalyzeHandler)
	protected.GET("/analyses", s.pets.ListAnalysesHandler)
	protected.GET("/analyses/:analysis_id", s.pets.GetAnalysisHandler)
	protected.POST("/analyses/:analysis_id/feedback", s.pets.FeedbackHandler)

	return e
}

func (s *Server) healthHandler(c echo.Context) error {
	status := http.StatusOK
	resp := map[string]interface{}{
		"server": admin.CollectServerHealth(c.Request().Context()),
	}

	if s.db != nil {
		dbHealth := s.db.Health()
		if dbHealth["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
		resp["database"] = dbHealth
	}

	return c.JSON(status, resp)
}

func LoggerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := c.Request().Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Response().Header().Set("X-Request-ID", requestID)

		logger := log.With().Str("request_id", requestID).Logger()

		c.Set("logger", &logger)

		return next(c)
	}
}
