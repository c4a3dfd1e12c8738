package audio

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/miraverse/miraverse-backend/internal/platform/logger"
	"github.com/miraverse/miraverse-backend/internal/types"
)

// Synthesizer renders one chunk of attributed dialogue as a WAV byte buffer
// (44-byte header followed by sample data in the assembler's format).
type Synthesizer interface {
	SynthesizeDialogue(ctx context.Context, lines []types.DialogueLine) ([]byte, error)
}

// AssemblerConfig carries the parameters the assembler would otherwise hide
// as module state, so tests can vary them.
type AssemblerConfig struct {
	// MaxChunkLines bounds how many dialogue lines go into one synthesis call.
	MaxChunkLines int
	Format        Format
}

func DefaultAssemblerConfig() AssemblerConfig {
	return AssemblerConfig{
		MaxChunkLines: 6,
		Format:        DefaultFormat,
	}
}

// Assembler turns a multi-line dialogue script into a single playable WAV.
// Scripts longer than one synthesis call's practical limit are split into
// consecutive chunks; each chunk's header is discarded and the sample bytes
// are concatenated under one freshly computed header.
type Assembler struct {
	log   *logger.Logger
	synth Synthesizer
	cfg   AssemblerConfig
}

func NewAssembler(log *logger.Logger, synth Synthesizer, cfg AssemblerConfig) *Assembler {
	if cfg.MaxChunkLines <= 0 {
		cfg.MaxChunkLines = DefaultAssemblerConfig().MaxChunkLines
	}
	if cfg.Format.SampleRate <= 0 {
		cfg.Format = DefaultFormat
	}
	return &Assembler{log: log.With("service", "AudioAssembler"), synth: synth, cfg: cfg}
}

// Assemble synthesizes the script chunk by chunk. A failed chunk reduces the
// total duration but does not fail the call; only zero usable chunks is an
// error.
func (a *Assembler) Assemble(ctx context.Context, lines []types.DialogueLine) ([]byte, error) {
	if len(lines) == 0 {
		return nil, errors.New("empty dialogue script")
	}

	var samples []byte
	usable := 0
	for i, chunk := range chunkLines(lines, a.cfg.MaxChunkLines) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, err := a.synth.SynthesizeDialogue(ctx, chunk)
		if err != nil {
			a.log.Warn("Chunk synthesis failed, skipping",
				"chunk", i,
				"lines", len(chunk),
				"error", err.Error(),
			)
			continue
		}
		body, err := StripWAVHeader(raw)
		if err != nil {
			a.log.Warn("Chunk audio unusable, skipping", "chunk", i, "error", err.Error())
			continue
		}
		samples = append(samples, body...)
		usable++
	}

	if usable == 0 || len(samples) == 0 {
		return nil, errors.New("no audio chunk produced usable bytes")
	}
	return WrapWAV(a.cfg.Format, samples), nil
}

// AssembleDataURI returns the assembled WAV as a data URI suitable for the
// audioProject payload.
func (a *Assembler) AssembleDataURI(ctx context.Context, lines []types.DialogueLine) (string, error) {
	wav, err := a.Assemble(ctx, lines)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("data:audio/wav;base64,%s", base64.StdEncoding.EncodeToString(wav)), nil
}

func chunkLines(lines []types.DialogueLine, size int) [][]types.DialogueLine {
	var out [][]types.DialogueLine
	for start := 0; start < len(lines); start += size {
		end := start + size
		if end > len(lines) {
			end = len(lines)
		}
		out = append(out, lines[start:end])
	}
	return out
}
