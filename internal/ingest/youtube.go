package ingest

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"
)

// Transcript fetches a YouTube video's caption track and flattens it into a
// plain-text transcript. It scrapes the watch page for the player response's
// captionTracks list, then downloads the timedtext XML.
func (f *Fetcher) Transcript(ctx context.Context, rawURL string) (title string, transcript string, err error) {
	videoID, err := ParseVideoID(rawURL)
	if err != nil {
		return "", "", err
	}

	page, err := f.get(ctx, "https://www.youtube.com/watch?v="+url.QueryEscape(videoID))
	if err != nil {
		return "", "", err
	}

	title = watchPageTitle(string(page))
	trackURL, ok := captionTrackURL(string(page))
	if !ok {
		return title, "", fmt.Errorf("no caption tracks for video %s", videoID)
	}

	timedtext, err := f.get(ctx, trackURL)
	if err != nil {
		return title, "", fmt.Errorf("caption track fetch: %w", err)
	}

	transcript, err = decodeTimedText(timedtext)
	if err != nil {
		return title, "", err
	}
	return title, transcript, nil
}

var videoIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ParseVideoID accepts watch, youtu.be, shorts and embed URL forms, or a
// bare 11-character id.
func ParseVideoID(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if videoIDRe.MatchString(rawURL) {
		return rawURL, nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid youtube url: %q", rawURL)
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	switch host {
	case "youtu.be":
		if id := strings.Trim(u.Path, "/"); videoIDRe.MatchString(id) {
			return id, nil
		}
	case "youtube.com", "m.youtube.com", "music.youtube.com":
		if id := u.Query().Get("v"); videoIDRe.MatchString(id) {
			return id, nil
		}
		for _, prefix := range []string{"/shorts/", "/embed/", "/live/"} {
			if strings.HasPrefix(u.Path, prefix) {
				id := strings.Trim(strings.TrimPrefix(u.Path, prefix), "/")
				if videoIDRe.MatchString(id) {
					return id, nil
				}
			}
		}
	}
	return "", fmt.Errorf("could not find a video id in %q", rawURL)
}

var captionTracksRe = regexp.MustCompile(`"captionTracks"\s*:\s*(\[.*?\])`)

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

// captionTrackURL extracts the caption track list embedded in the watch
// page's player response and picks a track, preferring a manually authored
// one over auto-generated ("asr") captions.
func captionTrackURL(page string) (string, bool) {
	m := captionTracksRe.FindStringSubmatch(page)
	if m == nil {
		return "", false
	}
	var tracks []captionTrack
	if err := json.Unmarshal([]byte(m[1]), &tracks); err != nil {
		return "", false
	}
	var fallback string
	for _, t := range tracks {
		u := strings.ReplaceAll(t.BaseURL, "&amp;", "&")
		if u == "" {
			continue
		}
		if t.Kind != "asr" {
			return u, true
		}
		if fallback == "" {
			fallback = u
		}
	}
	if fallback != "" {
		return fallback, true
	}
	return "", false
}

var watchTitleRe = regexp.MustCompile(`<title>(.*?)</title>`)

func watchPageTitle(page string) string {
	m := watchTitleRe.FindStringSubmatch(page)
	if m == nil {
		return ""
	}
	title := html.UnescapeString(strings.TrimSpace(m[1]))
	return strings.TrimSpace(strings.TrimSuffix(title, "- YouTube"))
}

type timedTextDoc struct {
	Texts []struct {
		Body string `xml:",chardata"`
	} `xml:"text"`
}

func decodeTimedText(raw []byte) (string, error) {
	var doc timedTextDoc
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return "", fmt.Errorf("timedtext decode: %w", err)
	}
	parts := make([]string, 0, len(doc.Texts))
	for _, t := range doc.Texts {
		s := html.UnescapeString(strings.TrimSpace(t.Body))
		if s != "" {
			parts = append(parts, s)
		}
	}
	return collapseWhitespace(strings.Join(parts, " ")), nil
}
