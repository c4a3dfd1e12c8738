package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/miraverse/miraverse-backend/internal/platform/envutil"
	"github.com/miraverse/miraverse-backend/internal/platform/httpx"
	"github.com/miraverse/miraverse-backend/internal/platform/logger"
)

// Message is one conversation turn forwarded to the model.
type Message struct {
	Role    string
	Content string
}

type ImageGeneration struct {
	Bytes         []byte
	MimeType      string
	RevisedPrompt string
}

// Client is the generative API client used by the rest of the backend.
// Implementations must be safe for concurrent use.
type Client interface {
	// GenerateText runs one system+user exchange and returns the output text.
	GenerateText(ctx context.Context, system string, user string) (string, error)

	// GenerateChat runs a full conversation history plus the new user turn.
	GenerateChat(ctx context.Context, system string, history []Message, user string) (string, error)

	// GenerateImage returns raster bytes (PNG by default).
	GenerateImage(ctx context.Context, prompt string) (ImageGeneration, error)

	// SynthesizeSpeech renders input text as WAV bytes in the given voice.
	SynthesizeSpeech(ctx context.Context, voice string, input string) ([]byte, error)
}

type client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	imageModel string
	imageSize  string
	ttsModel   string
	httpClient *http.Client

	maxRetries int

	temperature *float64
}

func NewClient(log *logger.Logger) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	apiKey := envutil.String("OPENAI_API_KEY", "")
	if apiKey == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}

	baseURL := strings.TrimRight(envutil.String("OPENAI_BASE_URL", "https://api.openai.com"), "/")

	var tempPtr *float64
	if !envutil.Bool("OPENAI_DISABLE_TEMPERATURE", false) {
		temp := 0.7
		if v := strings.TrimSpace(envutil.String("OPENAI_TEMPERATURE", "")); v != "" {
			if _, err := fmt.Sscanf(v, "%f", &temp); err != nil {
				temp = 0.7
			}
		}
		tempPtr = &temp
	}

	return &client{
		log:         log.With("service", "OpenAIClient"),
		baseURL:     baseURL,
		apiKey:      apiKey,
		model:       envutil.String("OPENAI_MODEL", "gpt-4o-mini"),
		imageModel:  envutil.String("OPENAI_IMAGE_MODEL", "gpt-image-1"),
		imageSize:   envutil.String("OPENAI_IMAGE_SIZE", "1024x1024"),
		ttsModel:    envutil.String("OPENAI_TTS_MODEL", "gpt-4o-mini-tts"),
		httpClient:  &http.Client{Timeout: envutil.Duration("OPENAI_TIMEOUT", 180*time.Second)},
		maxRetries:  envutil.Int("OPENAI_MAX_RETRIES", 4),
		temperature: tempPtr,
	}, nil
}

type apiHTTPError struct {
	StatusCode int
	Body       string
}

func (e *apiHTTPError) Error() string {
	return fmt.Sprintf("openai http %d: %s", e.StatusCode, e.Body)
}

func (e *apiHTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func (c *client) doOnce(ctx context.Context, method, path string, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &apiHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

// do runs a JSON request with retry on transient failures, honoring
// Retry-After with jitter.
func (c *client) do(ctx context.Context, method, path string, body any, out any) error {
	return c.doRaw(ctx, method, path, body, func(raw []byte) error {
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("openai decode error: %w; raw=%s", err, string(raw))
		}
		return nil
	})
}

func (c *client) doRaw(ctx context.Context, method, path string, body any, consume func(raw []byte) error) error {
	backoff := 1 * time.Second

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		resp, raw, err := c.doOnce(ctx, method, path, body)
		if err == nil {
			return consume(raw)
		}

		if !httpx.IsRetryableError(err) || attempt == c.maxRetries {
			return err
		}

		sleepFor := httpx.JitterSleep(httpx.RetryAfterDuration(resp, backoff, 10*time.Second))
		c.log.Warn("OpenAI request retrying",
			"path", path,
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)
		time.Sleep(sleepFor)
		backoff *= 2
	}

	return fmt.Errorf("unreachable retry loop")
}

// -------------------- Responses API --------------------

type responsesInput struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responsesRequest struct {
	Model       string           `json:"model"`
	Input       []responsesInput `json:"input"`
	Temperature *float64         `json:"temperature,omitempty"`
}

type responsesResponse struct {
	Output []struct {
		Type    string `json:"type"`
		Role    string `json:"role,omitempty"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text,omitempty"`
		} `json:"content,omitempty"`
	} `json:"output"`
	Refusal string `json:"refusal,omitempty"`
}

func extractOutputText(resp responsesResponse) string {
	var out strings.Builder
	for _, item := range resp.Output {
		if item.Type == "message" && item.Role == "assistant" {
			for _, c := range item.Content {
				if c.Type == "output_text" && c.Text != "" {
					out.WriteString(c.Text)
				}
			}
		}
	}
	return out.String()
}

func isUnsupportedTemperatureParam(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "temperature") {
		return false
	}
	return strings.Contains(msg, "unsupported") ||
		strings.Contains(msg, "unknown parameter") ||
		strings.Contains(msg, "does not support") ||
		strings.Contains(msg, "not supported")
}

// doResponses retries exactly once without temperature if the model rejects it.
func (c *client) doResponses(ctx context.Context, req responsesRequest) (string, error) {
	var resp responsesResponse
	err := c.do(ctx, "POST", "/v1/responses", req, &resp)
	if err != nil && req.Temperature != nil && isUnsupportedTemperatureParam(err) {
		req.Temperature = nil
		resp = responsesResponse{}
		err = c.do(ctx, "POST", "/v1/responses", req, &resp)
	}
	if err != nil {
		return "", err
	}
	if resp.Refusal != "" {
		return "", fmt.Errorf("model refused: %s", resp.Refusal)
	}
	text := extractOutputText(resp)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no output_text found in response")
	}
	return text, nil
}

func (c *client) GenerateText(ctx context.Context, system string, user string) (string, error) {
	return c.GenerateChat(ctx, system, nil, user)
}

func (c *client) GenerateChat(ctx context.Context, system string, history []Message, user string) (string, error) {
	input := make([]responsesInput, 0, len(history)+2)
	if strings.TrimSpace(system) != "" {
		input = append(input, responsesInput{Role: "system", Content: system})
	}
	for _, m := range history {
		role := strings.TrimSpace(m.Role)
		if role == "" || strings.TrimSpace(m.Content) == "" {
			continue
		}
		input = append(input, responsesInput{Role: role, Content: m.Content})
	}
	input = append(input, responsesInput{Role: "user", Content: user})

	req := responsesRequest{
		Model:       c.model,
		Input:       input,
		Temperature: c.temperature,
	}
	return c.doResponses(ctx, req)
}

// -------------------- Images API --------------------

type imagesGenerationRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n,omitempty"`
	Size   string `json:"size,omitempty"`
}

type imagesGenerationResponse struct {
	Data []struct {
		B64JSON       string `json:"b64_json"`
		RevisedPrompt string `json:"revised_prompt"`
	} `json:"data"`
}

func (c *client) GenerateImage(ctx context.Context, prompt string) (ImageGeneration, error) {
	var out ImageGeneration
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return out, errors.New("image prompt required")
	}

	req := imagesGenerationRequest{
		Model:  c.imageModel,
		Prompt: prompt,
		N:      1,
		Size:   c.imageSize,
	}

	var resp imagesGenerationResponse
	if err := c.do(ctx, "POST", "/v1/images/generations", req, &resp); err != nil {
		return out, err
	}
	if len(resp.Data) == 0 {
		return out, errors.New("no image returned")
	}
	item := resp.Data[0]
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(item.B64JSON))
	if err != nil || len(raw) == 0 {
		return out, fmt.Errorf("decode image base64: %w", err)
	}
	out.Bytes = raw
	out.MimeType = "image/png"
	out.RevisedPrompt = strings.TrimSpace(item.RevisedPrompt)
	return out, nil
}

// -------------------- Speech API --------------------

type speechRequest struct {
	Model          string `json:"model"`
	Voice          string `json:"voice"`
	Input          string `json:"input"`
	ResponseFormat string `json:"response_format,omitempty"`
}

// SynthesizeSpeech returns the raw WAV buffer (44-byte header plus PCM
// samples) produced by the speech endpoint.
func (c *client) SynthesizeSpeech(ctx context.Context, voice string, input string) ([]byte, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, errors.New("speech input required")
	}
	if strings.TrimSpace(voice) == "" {
		voice = "alloy"
	}

	req := speechRequest{
		Model:          c.ttsModel,
		Voice:          voice,
		Input:          input,
		ResponseFormat: "wav",
	}

	var audio []byte
	err := c.doRaw(ctx, "POST", "/v1/audio/speech", req, func(raw []byte) error {
		if len(raw) == 0 {
			return errors.New("empty audio response")
		}
		audio = raw
		return nil
	})
	if err != nil {
		return nil, err
	}
	return audio, nil
}
