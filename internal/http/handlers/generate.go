package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/miraverse/miraverse-backend/internal/generate"
	"github.com/miraverse/miraverse-backend/internal/http/response"
	"github.com/miraverse/miraverse-backend/internal/platform/logger"
)

type GenerateHandler struct {
	log *logger.Logger
	svc *generate.Service
}

func NewGenerateHandler(log *logger.Logger, svc *generate.Service) *GenerateHandler {
	return &GenerateHandler{log: log.With("handler", "GenerateHandler"), svc: svc}
}

// Generate runs one mode-tagged generation request. Malformed extraction
// degrades to a text payload inside a 200; provider or assembly failure is
// a 502 with the error envelope.
func (h *GenerateHandler) Generate(c *gin.Context) {
	var req generate.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request_body", err)
		return
	}
	if req.Mode == "" {
		response.RespondError(c, http.StatusBadRequest, "missing_mode", errors.New("mode is required"))
		return
	}
	if !req.Mode.Valid() {
		response.RespondError(c, http.StatusBadRequest, "unknown_mode", fmt.Errorf("unknown mode %q", req.Mode))
		return
	}

	resp := h.svc.Generate(c.Request.Context(), req)
	if resp.Error != "" {
		response.RespondError(c, http.StatusBadGateway, "generation_failed", errors.New(resp.Error))
		return
	}
	response.RespondOK(c, resp)
}
