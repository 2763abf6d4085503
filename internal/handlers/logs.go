package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/bijaagro/farm-api/internal/errlog"
	"github.com/bijaagro/farm-api/internal/models"
)

const maxLogLimit = 500

type LogStore interface {
	List(ctx context.Context, filter models.ErrorLogFilter) ([]models.ErrorLog, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

type LogHandler struct {
	Logs     LogStore
	Reporter errlog.Reporter
}

// NewLogHandler создает обработчик журнала ошибок.
func NewLogHandler(logs LogStore, reporter errlog.Reporter) *LogHandler {
	return &LogHandler{Logs: logs, Reporter: reporter}
}

type LogRequest struct {
	Level   string         `json:"level" validate:"omitempty,oneof=debug info warn error"`
	Message string         `json:"message" validate:"required,max=2000"`
	Source  string         `json:"source" validate:"max=100"`
	Details map[string]any `json:"details"`
}

type LogAcceptedResponse struct {
	Status string `json:"status"`
}

type LogDeleteResponse struct {
	Deleted int64 `json:"deleted"`
}

// Create принимает запись журнала от клиента. Запись сохраняется в фоне.
func (h *LogHandler) Create(c echo.Context) error {
	var req LogRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}

	req.Message = strings.TrimSpace(req.Message)
	req.Level = strings.ToLower(strings.TrimSpace(req.Level))
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	level := models.LogLevel(req.Level)
	if level == "" {
		level = models.LogLevelError
	}
	source := strings.TrimSpace(req.Source)
	if source == "" {
		source = "client"
	}

	h.Reporter.Log(c.Request().Context(), level, req.Message, source, req.Details)
	return c.JSON(http.StatusAccepted, LogAcceptedResponse{Status: "queued"})
}

// List возвращает последние записи журнала с фильтрами level, source и limit.
func (h *LogHandler) List(c echo.Context) error {
	filter := models.ErrorLogFilter{
		Level:  models.LogLevel(strings.ToLower(strings.TrimSpace(c.QueryParam("level")))),
		Source: strings.TrimSpace(c.QueryParam("source")),
	}
	if filter.Level != "" && !models.ValidLogLevel(filter.Level) {
		return badRequest(c, "invalid level")
	}

	if value := strings.TrimSpace(c.QueryParam("limit")); value != "" {
		limit, err := strconv.Atoi(value)
		if err != nil || limit <= 0 {
			return badRequest(c, "limit must be a positive integer")
		}
		filter.Limit = min(limit, maxLogLimit)
	}

	logs, err := h.Logs.List(c.Request().Context(), filter)
	if err != nil {
		return serverError(c)
	}

	return c.JSON(http.StatusOK, logs)
}

// DeleteBefore удаляет записи старше даты before.
func (h *LogHandler) DeleteBefore(c echo.Context) error {
	value := strings.TrimSpace(c.QueryParam("before"))
	if value == "" {
		return badRequest(c, "before is required")
	}

	before, err := time.Parse(models.DateLayout, value)
	if err != nil {
		return badRequest(c, "before must be YYYY-MM-DD")
	}

	deleted, err := h.Logs.DeleteBefore(c.Request().Context(), before)
	if err != nil {
		return serverError(c)
	}

	return c.JSON(http.StatusOK, LogDeleteResponse{Deleted: deleted})
}
