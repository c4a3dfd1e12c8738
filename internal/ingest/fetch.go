package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/miraverse/miraverse-backend/internal/platform/logger"
)

const maxFetchBytes = 8 << 20

// Fetcher retrieves remote pages and video transcripts.
type Fetcher struct {
	log        *logger.Logger
	httpClient *http.Client
}

func NewFetcher(log *logger.Logger) *Fetcher {
	return &Fetcher{
		log:        log.With("service", "Fetcher"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Article fetches a web page and returns its title and readable body text.
// Readability extraction comes first; a bare tag-strip with a goquery title
// lookup covers pages readability rejects.
func (f *Fetcher) Article(ctx context.Context, rawURL string) (title string, text string, err error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", "", fmt.Errorf("invalid url: %q", rawURL)
	}

	body, err := f.get(ctx, u.String())
	if err != nil {
		return "", "", err
	}

	if article, rErr := readability.FromReader(strings.NewReader(string(body)), u); rErr == nil {
		text = collapseWhitespace(article.TextContent)
		title = strings.TrimSpace(article.Title)
		if text != "" {
			return title, text, nil
		}
	}

	doc, qErr := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if qErr == nil {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	text = stripHTMLTags(string(body))
	if text == "" {
		return "", "", fmt.Errorf("no readable text at %s", rawURL)
	}
	return title, text, nil
}

func (f *Fetcher) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; miraverse/1.0)")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: http %d", u, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
}
