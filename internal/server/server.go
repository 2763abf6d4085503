package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/bijaagro/farm-api/internal/config"
	"github.com/bijaagro/farm-api/internal/errlog"
	"github.com/bijaagro/farm-api/internal/expenses"
	"github.com/bijaagro/farm-api/internal/handlers"
	"github.com/bijaagro/farm-api/internal/herd"
	"github.com/bijaagro/farm-api/internal/notifications"
	"github.com/bijaagro/farm-api/internal/repository"
)

// New собирает HTTP-сервер Echo с роутами и зависимостями.
func New(cfg config.Config, logger *slog.Logger, db *pgxpool.Pool, reporter errlog.Reporter, hub *notifications.Hub) *echo.Echo {
	if logger == nil {
		logger = slog.Default()
	}
	if reporter == nil {
		reporter = errlog.Discard{}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()
	e.HTTPErrorHandler = errorHandler(logger)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger(logger))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowedOrigins(cfg.Server.CORSAllowedOrigins),
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderXRequestID},
	}))
	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	categoryRepo := repository.NewCategoryRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)
	animalRepo := repository.NewAnimalRepository(db)
	weightRepo := repository.NewWeightRepository(db)
	breedingRepo := repository.NewBreedingRepository(db)
	vaccinationRepo := repository.NewVaccinationRepository(db)
	healthRepo := repository.NewHealthRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	errorLogRepo := repository.NewErrorLogRepository(db)

	expenseService := expenses.NewService(expenseRepo, categoryRepo, reporter, logger)
	herdService := herd.NewService(animalRepo, weightRepo)

	routes := Routes{
		Health:     handlers.NewHealthHandler(db),
		Expenses:   handlers.NewExpenseHandler(expenseService, expenseRepo, hub, cfg.Import.MaxItems),
		Categories: handlers.NewCategoryHandler(categoryRepo, hub),
		Animals:    handlers.NewAnimalHandler(animalRepo, herdService, hub),
		Records:    handlers.NewRecordHandler(animalRepo, weightRepo, breedingRepo, vaccinationRepo, healthRepo, hub),
		Tasks:      handlers.NewTaskHandler(taskRepo, animalRepo, hub),
		Logs:       handlers.NewLogHandler(errorLogRepo, reporter),
		Events:     handlers.NewEventHandler(hub),
		ImportRate: importRateLimiter(cfg.Import),
	}
	if cfg.Metrics.Enabled {
		routes.Metrics = echo.WrapHandler(promhttp.Handler())
	}

	registerRoutes(e, routes)

	return e
}

// NewHTTPServer создает net/http сервер с заданными таймаутами.
func NewHTTPServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.String("remote_ip", v.RemoteIP),
				slog.String("request_id", v.RequestID),
				slog.Duration("latency", v.Latency),
			}

			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}

			msg := "request completed"
			if v.Status >= http.StatusInternalServerError {
				logger.LogAttrs(c.Request().Context(), slog.LevelError, msg, attrs...)
				return nil
			}

			logger.LogAttrs(c.Request().Context(), slog.LevelInfo, msg, attrs...)
			return nil
		},
	})
}

// errorHandler отдает ошибки маршрутизации и middleware в формате {"error": "..."}.
func errorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		message := "internal server error"

		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			status = httpErr.Code
			if status < http.StatusInternalServerError {
				message = fmt.Sprint(httpErr.Message)
			}
		} else {
			logger.ErrorContext(c.Request().Context(), "unhandled error", slog.String("error", err.Error()))
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, handlers.ErrorResponse{Error: message})
	}
}

func importRateLimiter(cfg config.ImportConfig) echo.MiddlewareFunc {
	limit := rate.Limit(float64(cfg.RateLimitPerMinute) / 60.0)
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      limit,
		Burst:     cfg.RateLimitBurst,
		ExpiresIn: time.Minute,
	})

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			return c.JSON(http.StatusTooManyRequests, handlers.ErrorResponse{Error: "too many import requests"})
		},
		ErrorHandler: func(c echo.Context, _ error) error {
			return c.JSON(http.StatusForbidden, handlers.ErrorResponse{Error: "cannot identify client"})
		},
	})
}

func allowedOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
