package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/taskrelayhq/taskrelay/internal/mapping"
)

// MappingHandler administers the company-to-channel table.
type MappingHandler struct {
	logger *slog.Logger
	store  *mapping.Store
}

// NewMappingHandler creates the mapping administration handler.
func NewMappingHandler(log *slog.Logger, store *mapping.Store) *MappingHandler {
	if log == nil {
		log = slog.Default()
	}
	return &MappingHandler{
		logger: log.With(slog.String("handler", "mapping")),
		store:  store,
	}
}

// Register registers the mapping routes.
func (h *MappingHandler) Register(e *echo.Echo) {
	e.POST("/map", h.Set)
	e.GET("/map", h.List)
}

// SetMappingRequest is the POST /map body.
type SetMappingRequest struct {
	CompanyKey string `json:"companyKey" form:"companyKey"`
	ChannelID  string `json:"channelId" form:"channelId"`
}

// Set godoc
// @Summary Map a company key to a chat channel
// @Accept json
// @Produce json
// @Param request body SetMappingRequest true "Mapping to persist"
// @Success 200 {object} Ack
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /map [post]
func (h *MappingHandler) Set(c echo.Context) error {
	var req SetMappingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.CompanyKey) == "" || strings.TrimSpace(req.ChannelID) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "companyKey and channelId required")
	}

	if err := h.store.Set(req.CompanyKey, req.ChannelID); err != nil {
		h.logger.Error("mapping persist failed", slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]any{
		"ok":    true,
		"saved": map[string]string{"companyKey": req.CompanyKey, "channelId": req.ChannelID},
	})
}

// List godoc
// @Summary Current company-to-channel table
// @Description Reloads from durable storage before answering, so
// out-of-band edits are visible.
// @Produce json
// @Success 200 {object} map[string]string
// @Router /map [get]
func (h *MappingHandler) List(c echo.Context) error {
	h.store.Reload()
	return c.JSON(http.StatusOK, h.store.Snapshot())
}
