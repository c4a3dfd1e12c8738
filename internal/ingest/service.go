package ingest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/miraverse/miraverse-backend/internal/platform/apierr"
	"github.com/miraverse/miraverse-backend/internal/platform/logger"
	"github.com/miraverse/miraverse-backend/internal/types"
)

// ContextBudgetRunes caps how much of a source's content is carried into
// generation prompts. Longer content is truncated with a marker.
const ContextBudgetRunes = 12000

const truncationMarker = " …[truncated]"

// Summarizer produces the optional one-line source summary. Satisfied by
// the OpenAI client.
type Summarizer interface {
	GenerateText(ctx context.Context, system string, user string) (string, error)
}

// Service normalizes every ingestion path (file, link, youtube, free text)
// into a types.Source.
type Service struct {
	log        *logger.Logger
	summarizer Summarizer
	fetcher    *Fetcher
}

func NewService(log *logger.Logger, summarizer Summarizer, fetcher *Fetcher) *Service {
	return &Service{
		log:        log.With("service", "IngestService"),
		summarizer: summarizer,
		fetcher:    fetcher,
	}
}

// FromFile extracts text from an uploaded file.
func (s *Service) FromFile(ctx context.Context, name string, mimeType string, data []byte) (*types.Source, error) {
	text, err := ExtractFileText(name, mimeType, data)
	if err != nil {
		return nil, apierr.New(http.StatusUnprocessableEntity, "file_extraction_failed", fmt.Errorf("extract %q: %w", name, err))
	}
	src := s.newSource(types.SourceFile, name, text, "")
	s.summarize(ctx, src)
	return src, nil
}

// FromLink fetches a web page and extracts its readable article text.
func (s *Service) FromLink(ctx context.Context, rawURL string) (*types.Source, error) {
	title, text, err := s.fetcher.Article(ctx, rawURL)
	if err != nil {
		return nil, apierr.New(http.StatusUnprocessableEntity, "link_fetch_failed", fmt.Errorf("fetch link: %w", err))
	}
	if strings.TrimSpace(title) == "" {
		title = rawURL
	}
	src := s.newSource(types.SourceLink, title, text, rawURL)
	s.summarize(ctx, src)
	return src, nil
}

// FromYouTube fetches the caption transcript for a video URL.
func (s *Service) FromYouTube(ctx context.Context, rawURL string) (*types.Source, error) {
	title, transcript, err := s.fetcher.Transcript(ctx, rawURL)
	if err != nil {
		return nil, apierr.New(http.StatusUnprocessableEntity, "transcript_fetch_failed", fmt.Errorf("fetch transcript: %w", err))
	}
	if strings.TrimSpace(transcript) == "" {
		return nil, apierr.New(http.StatusUnprocessableEntity, "no_captions", errors.New("video has no caption transcript"))
	}
	if strings.TrimSpace(title) == "" {
		title = "YouTube video"
	}
	src := s.newSource(types.SourceYouTube, title, transcript, rawURL)
	s.summarize(ctx, src)
	return src, nil
}

// FromText wraps pasted free text.
func (s *Service) FromText(ctx context.Context, title string, text string) (*types.Source, error) {
	text = collapseWhitespace(text)
	if text == "" {
		return nil, apierr.New(http.StatusBadRequest, "empty_text", errors.New("empty text"))
	}
	if strings.TrimSpace(title) == "" {
		title = firstWords(text, 8)
	}
	src := s.newSource(types.SourceText, title, text, "")
	s.summarize(ctx, src)
	return src, nil
}

// SummarizeAll fills missing summaries for a batch of sources in parallel.
// Failures leave the summary empty; they never fail the batch.
func (s *Service) SummarizeAll(ctx context.Context, sources []*types.Source) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, src := range sources {
		if src == nil || src.Summary != "" {
			continue
		}
		src := src
		g.Go(func() error {
			s.summarize(ctx, src)
			return nil
		})
	}
	_ = g.Wait()
}

func (s *Service) newSource(kind types.SourceKind, title string, content string, originURL string) *types.Source {
	return &types.Source{
		ID:        types.NewSourceID(),
		Title:     strings.TrimSpace(title),
		Kind:      kind,
		Content:   TruncateForContext(content),
		OriginURL: originURL,
	}
}

// summarize is best effort: a provider failure logs and leaves the field
// empty rather than failing ingestion.
func (s *Service) summarize(ctx context.Context, src *types.Source) {
	if s.summarizer == nil || src == nil || strings.TrimSpace(src.Content) == "" {
		return
	}
	summary, err := s.summarizer.GenerateText(ctx,
		"You summarize study material. Reply with one plain sentence, no markdown.",
		"Summarize this source in one sentence:\n\n"+src.Content,
	)
	if err != nil {
		s.log.Warn("Source summary failed", "source_id", src.ID, "error", err.Error())
		return
	}
	src.Summary = strings.TrimSpace(summary)
}

// TruncateForContext enforces the per-source context budget.
func TruncateForContext(s string) string {
	runes := []rune(s)
	if len(runes) <= ContextBudgetRunes {
		return s
	}
	return string(runes[:ContextBudgetRunes]) + truncationMarker
}

func firstWords(s string, n int) string {
	fields := strings.Fields(s)
	if len(fields) > n {
		fields = fields[:n]
	}
	return strings.Join(fields, " ")
}
