package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	infralogger "github.com/jonesrussell/north-cloud/conversions-tracker/internal/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/pixel"
)

const pixelScriptMaxAge = "public, max-age=3600"

// ScriptSource renders the pixel bootstrap script.
type ScriptSource interface {
	BootstrapScript() ([]byte, error)
}

// PixelScriptHandler serves the pixel bootstrap script.
type PixelScriptHandler struct {
	source ScriptSource
	log    infralogger.Logger
}

// NewPixelScriptHandler creates a PixelScriptHandler.
func NewPixelScriptHandler(source ScriptSource, log infralogger.Logger) *PixelScriptHandler {
	return &PixelScriptHandler{source: source, log: log}
}

// HandleScript serves GET /pixel.js. Without a pixel id there is nothing
// to load, so it answers 404.
func (h *PixelScriptHandler) HandleScript(c *gin.Context) {
	script, err := h.source.BootstrapScript()
	if errors.Is(err, pixel.ErrNoPixelID) {
		c.Status(http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error("Failed to render pixel script", infralogger.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Cache-Control", pixelScriptMaxAge)
	c.Data(http.StatusOK, "application/javascript; charset=utf-8", script)
}
