package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/miraverse/miraverse-backend/internal/http/response"
	"github.com/miraverse/miraverse-backend/internal/ingest"
	"github.com/miraverse/miraverse-backend/internal/platform/logger"
	"github.com/miraverse/miraverse-backend/internal/types"
)

const maxUploadBytes = 32 << 20

type SourceHandler struct {
	log *logger.Logger
	svc *ingest.Service
}

func NewSourceHandler(log *logger.Logger, svc *ingest.Service) *SourceHandler {
	return &SourceHandler{log: log.With("handler", "SourceHandler"), svc: svc}
}

// UploadFile ingests one multipart file under the "file" field. An optional
// "title" field overrides the filename.
func (h *SourceHandler) UploadFile(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(maxUploadBytes); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_multipart_form", err)
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "missing_file", err)
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}

	name := fileHeader.Filename
	if title := strings.TrimSpace(c.PostForm("title")); title != "" {
		name = title
	}

	src, err := h.svc.FromFile(c.Request.Context(), name, fileHeader.Header.Get("Content-Type"), data)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, src)
}

type linkRequest struct {
	URL string `json:"url"`
}

func (h *SourceHandler) AddLink(c *gin.Context) {
	var req linkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request_body", err)
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		response.RespondError(c, http.StatusBadRequest, "missing_url", errors.New("url is required"))
		return
	}
	src, err := h.svc.FromLink(c.Request.Context(), req.URL)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, src)
}

func (h *SourceHandler) AddYouTube(c *gin.Context) {
	var req linkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request_body", err)
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		response.RespondError(c, http.StatusBadRequest, "missing_url", errors.New("url is required"))
		return
	}
	src, err := h.svc.FromYouTube(c.Request.Context(), req.URL)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, src)
}

type textRequest struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

func (h *SourceHandler) AddText(c *gin.Context) {
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request_body", err)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		response.RespondError(c, http.StatusBadRequest, "missing_text", errors.New("text is required"))
		return
	}
	src, err := h.svc.FromText(c.Request.Context(), req.Title, req.Text)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, src)
}

type summarizeRequest struct {
	Sources []types.Source `json:"sources"`
}

type summarizeResponse struct {
	Sources []types.Source `json:"sources"`
}

// Summarize backfills one-line summaries for the given sources. Failures
// leave the summary empty rather than failing the batch.
func (h *SourceHandler) Summarize(c *gin.Context) {
	var req summarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request_body", err)
		return
	}
	refs := make([]*types.Source, len(req.Sources))
	for i := range req.Sources {
		refs[i] = &req.Sources[i]
	}
	h.svc.SummarizeAll(c.Request.Context(), refs)
	response.RespondOK(c, summarizeResponse{Sources: req.Sources})
}
