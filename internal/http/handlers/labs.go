package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/miraverse/miraverse-backend/internal/http/response"
	"github.com/miraverse/miraverse-backend/internal/labs"
	"github.com/miraverse/miraverse-backend/internal/platform/logger"
)

type LabsHandler struct {
	log *logger.Logger
	svc *labs.Service
}

func NewLabsHandler(log *logger.Logger, svc *labs.Service) *LabsHandler {
	return &LabsHandler{log: log.With("handler", "LabsHandler"), svc: svc}
}

func (h *LabsHandler) List(c *gin.Context) {
	response.RespondOK(c, gin.H{"labs": h.svc.List()})
}

type synthesizeRequest struct {
	LabIDs []string `json:"labIds"`
}

func (h *LabsHandler) Synthesize(c *gin.Context) {
	var req synthesizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request_body", err)
		return
	}
	if len(req.LabIDs) < 2 {
		response.RespondError(c, http.StatusBadRequest, "too_few_labs", errors.New("select at least two labs"))
		return
	}
	text, err := h.svc.Synthesize(c.Request.Context(), req.LabIDs)
	if err != nil {
		response.RespondError(c, http.StatusUnprocessableEntity, "synthesis_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"direction": text})
}
