package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// PingHandler answers liveness probes.
type PingHandler struct{}

// NewPingHandler creates the liveness handler.
func NewPingHandler() *PingHandler {
	return &PingHandler{}
}

// Register registers the probe routes.
func (h *PingHandler) Register(e *echo.Echo) {
	e.GET("/", h.Root)
	e.GET("/ping", h.Ping)
}

// Root returns a short status line, useful for manual checks.
func (h *PingHandler) Root(c echo.Context) error {
	return c.String(http.StatusOK, "taskrelay bridge running")
}

// Ping godoc
// @Summary Liveness probe
// @Success 200 {string} string "pong"
// @Router /ping [get]
func (h *PingHandler) Ping(c echo.Context) error {
	return c.String(http.StatusOK, "pong")
}
