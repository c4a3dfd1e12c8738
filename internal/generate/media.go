package generate

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/miraverse/miraverse-backend/internal/extract"
	"github.com/miraverse/miraverse-backend/internal/platform/openai"
	"github.com/miraverse/miraverse-backend/internal/types"
)

// video builds a scene script and then runs a bounded parallel fan-out:
// every scene's illustration and narration audio are requested concurrently
// and a failed scene keeps an empty media slot instead of failing the batch.
func (s *Service) video(ctx context.Context, req Request) Response {
	raw, err := s.llm.GenerateText(ctx, videoSystem, userPrompt(req.Prompt, req.Sources))
	if err != nil {
		return s.providerError("video", err)
	}
	script, ok := extract.VideoScript(raw)
	if !ok {
		return Response{Text: raw}
	}
	if strings.TrimSpace(script.Title) == "" {
		script.Title = "Explainer video"
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.SceneFanout)
	for i := range script.Scenes {
		i := i
		g.Go(func() error {
			s.fillSceneImage(gctx, &script.Scenes[i], i)
			return nil
		})
		g.Go(func() error {
			s.fillSceneAudio(gctx, &script.Scenes[i], i)
			return nil
		})
	}
	_ = g.Wait()

	return Response{Video: script}
}

func (s *Service) fillSceneImage(ctx context.Context, scene *types.VideoScene, idx int) {
	if strings.TrimSpace(scene.Visual) == "" {
		return
	}
	img, err := s.llm.GenerateImage(ctx, scene.Visual)
	if err != nil {
		s.log.Warn("Scene image failed", "scene", idx, "error", err.Error())
		return
	}
	scene.Image = fmt.Sprintf("data:%s;base64,%s", img.MimeType, base64.StdEncoding.EncodeToString(img.Bytes))
}

func (s *Service) fillSceneAudio(ctx context.Context, scene *types.VideoScene, idx int) {
	if strings.TrimSpace(scene.Text) == "" {
		return
	}
	voice := ""
	if len(s.cfg.Speakers) > 0 {
		voice = s.cfg.Speakers[0].Voice
	}
	wav, err := s.llm.SynthesizeSpeech(ctx, voice, scene.Text)
	if err != nil {
		s.log.Warn("Scene audio failed", "scene", idx, "error", err.Error())
		return
	}
	scene.Audio = "data:audio/wav;base64," + base64.StdEncoding.EncodeToString(wav)
}

// illustrateSlides attaches one generated image per slide, same partial
// failure policy as video scenes.
func (s *Service) illustrateSlides(ctx context.Context, deck *types.SlideDeck) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.SceneFanout)
	for i := range deck.Slides {
		i := i
		g.Go(func() error {
			slide := &deck.Slides[i]
			img, err := s.llm.GenerateImage(gctx, slide.Title+": "+strings.Join(slide.Bullets, "; "))
			if err != nil {
				s.log.Warn("Slide image failed", "slide", i, "error", err.Error())
				return nil
			}
			slide.Image = fmt.Sprintf("data:%s;base64,%s", img.MimeType, base64.StdEncoding.EncodeToString(img.Bytes))
			return nil
		})
	}
	_ = g.Wait()
}

// dialogueSynthesizer adapts the speech endpoint to the assembler's chunk
// interface. A chunk spoken by a single known speaker uses that speaker's
// voice; mixed chunks fall back to the first configured voice with speaker
// names kept inline so attribution survives.
type dialogueSynthesizer struct {
	llm      openai.Client
	speakers []Speaker
}

func (d *dialogueSynthesizer) SynthesizeDialogue(ctx context.Context, lines []types.DialogueLine) ([]byte, error) {
	voice := d.voiceFor(lines)
	var b strings.Builder
	single := singleSpeaker(lines)
	for _, line := range lines {
		if !single && strings.TrimSpace(line.Speaker) != "" {
			b.WriteString(line.Speaker)
			b.WriteString(": ")
		}
		b.WriteString(strings.TrimSpace(line.Text))
		b.WriteString("\n")
	}
	return d.llm.SynthesizeSpeech(ctx, voice, b.String())
}

func (d *dialogueSynthesizer) voiceFor(lines []types.DialogueLine) string {
	fallback := ""
	if len(d.speakers) > 0 {
		fallback = d.speakers[0].Voice
	}
	if !singleSpeaker(lines) {
		return fallback
	}
	name := strings.TrimSpace(lines[0].Speaker)
	for _, sp := range d.speakers {
		if strings.EqualFold(sp.Name, name) {
			return sp.Voice
		}
	}
	return fallback
}

func singleSpeaker(lines []types.DialogueLine) bool {
	if len(lines) == 0 {
		return true
	}
	first := strings.TrimSpace(lines[0].Speaker)
	for _, line := range lines[1:] {
		if !strings.EqualFold(strings.TrimSpace(line.Speaker), first) {
			return false
		}
	}
	return true
}
