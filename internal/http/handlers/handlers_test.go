package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/miraverse/miraverse-backend/internal/generate"
	httpserver "github.com/miraverse/miraverse-backend/internal/http"
	httpH "github.com/miraverse/miraverse-backend/internal/http/handlers"
	"github.com/miraverse/miraverse-backend/internal/ingest"
	"github.com/miraverse/miraverse-backend/internal/labs"
	"github.com/miraverse/miraverse-backend/internal/platform/logger"
	"github.com/miraverse/miraverse-backend/internal/platform/openai"
	"github.com/miraverse/miraverse-backend/internal/types"
)

type stubLLM struct {
	reply string
	err   error
}

func (s *stubLLM) GenerateText(context.Context, string, string) (string, error) {
	return s.reply, s.err
}

func (s *stubLLM) GenerateChat(context.Context, string, []openai.Message, string) (string, error) {
	return s.reply, s.err
}

func (s *stubLLM) GenerateImage(context.Context, string) (openai.ImageGeneration, error) {
	return openai.ImageGeneration{Bytes: []byte{1}, MimeType: "image/png"}, nil
}

func (s *stubLLM) SynthesizeSpeech(context.Context, string, string) ([]byte, error) {
	return nil, nil
}

func newTestRouter(t *testing.T, llm openai.Client) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	ingestSvc := ingest.NewService(log, llm, ingest.NewFetcher(log))
	generateSvc := generate.NewService(log, llm, generate.DefaultConfig())
	labsSvc := labs.NewService(log, llm)

	return httpserver.NewRouter(httpserver.RouterConfig{
		Log:             log,
		GenerateHandler: httpH.NewGenerateHandler(log, generateSvc),
		SourceHandler:   httpH.NewSourceHandler(log, ingestSvc),
		LabsHandler:     httpH.NewLabsHandler(log, labsSvc),
		HealthHandler:   httpH.NewHealthHandler(),
	})
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHealthcheck(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, &stubLLM{})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got=%d want=%d", rec.Code, http.StatusOK)
	}
	if rec.Body.String() != "ok" {
		t.Fatalf("body: got=%q", rec.Body.String())
	}
}

func TestGenerateMissingMode(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, &stubLLM{})
	rec := doJSON(t, r, http.MethodPost, "/api/generate", `{"prompt":"hi"}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got=%d want=%d", rec.Code, http.StatusBadRequest)
	}
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Error.Code != "missing_mode" {
		t.Fatalf("code: got=%q", env.Error.Code)
	}
}

func TestGenerateUnknownMode(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, &stubLLM{})
	rec := doJSON(t, r, http.MethodPost, "/api/generate", `{"mode":"hologram"}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got=%d want=%d", rec.Code, http.StatusBadRequest)
	}
}

func TestGenerateProviderFailure(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, &stubLLM{err: errors.New("upstream unavailable")})
	rec := doJSON(t, r, http.MethodPost, "/api/generate", `{"mode":"chat","prompt":"explain"}`)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status: got=%d want=%d", rec.Code, http.StatusBadGateway)
	}
	var env struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Error.Code != "generation_failed" || env.Error.Message == "" {
		t.Fatalf("envelope: got=%+v", env.Error)
	}
}

func TestGenerateChatRoundTrip(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, &stubLLM{reply: "structured answer"})
	rec := doJSON(t, r, http.MethodPost, "/api/generate", `{"mode":"chat","prompt":"explain"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got=%d body=%s", rec.Code, rec.Body.String())
	}
	var resp generate.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Text != "structured answer" {
		t.Fatalf("text: got=%q", resp.Text)
	}
}

func TestAddTextSource(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, &stubLLM{reply: "a concise summary"})
	rec := doJSON(t, r, http.MethodPost, "/api/sources/text", `{"title":"Notes","text":"mitochondria are organelles"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got=%d body=%s", rec.Code, rec.Body.String())
	}
	var src types.Source
	if err := json.Unmarshal(rec.Body.Bytes(), &src); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if src.ID == "" || src.Kind != types.SourceText || src.Title != "Notes" {
		t.Fatalf("source: got=%+v", src)
	}
}

func TestAddTextSourceMissingText(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, &stubLLM{})
	rec := doJSON(t, r, http.MethodPost, "/api/sources/text", `{"title":"Notes","text":"  "}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got=%d", rec.Code)
	}
}

func TestUploadFileSource(t *testing.T) {
	t.Parallel()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", "notes.txt")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	if _, err := part.Write([]byte("plain study notes")); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	r := newTestRouter(t, &stubLLM{reply: "summary"})
	req := httptest.NewRequest(http.MethodPost, "/api/sources/file", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got=%d body=%s", rec.Code, rec.Body.String())
	}
	var src types.Source
	if err := json.Unmarshal(rec.Body.Bytes(), &src); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if src.Kind != types.SourceFile || src.Content != "plain study notes" {
		t.Fatalf("source: got=%+v", src)
	}
}

func TestListLabs(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, &stubLLM{})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/labs", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got=%d", rec.Code)
	}
	var payload struct {
		Labs []labs.Lab `json:"labs"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Labs) == 0 {
		t.Fatal("expected labs in payload")
	}
}

func TestSynthesizeTooFewLabs(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, &stubLLM{})
	rec := doJSON(t, r, http.MethodPost, "/api/labs/synthesize", `{"labIds":["quantum-matter"]}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got=%d", rec.Code)
	}
}

func TestSynthesizeDirection(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, &stubLLM{reply: "Quantum approaches to neural population coding."})
	rec := doJSON(t, r, http.MethodPost, "/api/labs/synthesize", `{"labIds":["quantum-matter","neural-dynamics"]}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got=%d body=%s", rec.Code, rec.Body.String())
	}
	var payload struct {
		Direction string `json:"direction"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Direction == "" {
		t.Fatal("expected a synthesized direction")
	}
}
