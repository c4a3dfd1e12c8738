package labs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/miraverse/miraverse-backend/internal/platform/logger"
)

// Lab is one research lab in the static orbital dataset.
type Lab struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Field string `json:"field"`
	Focus string `json:"focus"`
}

// Dataset behind the orbital visualization. Static by design: the page is
// decorative, the only dynamic behavior is direction synthesis.
var dataset = []Lab{
	{ID: "quantum-matter", Name: "Quantum Matter Lab", Field: "Physics", Focus: "Topological phases and quantum simulation with ultracold atoms"},
	{ID: "neural-dynamics", Name: "Neural Dynamics Group", Field: "Neuroscience", Focus: "Population coding and dynamics of decision-making circuits"},
	{ID: "synthetic-genomes", Name: "Synthetic Genomes Initiative", Field: "Biology", Focus: "Minimal genomes and engineered cellular programs"},
	{ID: "climate-systems", Name: "Climate Systems Observatory", Field: "Earth Science", Focus: "Coupled ocean-atmosphere modeling and tipping points"},
	{ID: "machine-cognition", Name: "Machine Cognition Lab", Field: "Computer Science", Focus: "Reasoning and abstraction in large learned models"},
	{ID: "soft-robotics", Name: "Soft Robotics Studio", Field: "Engineering", Focus: "Compliant actuators and embodied control"},
	{ID: "origins", Name: "Origins of Life Group", Field: "Chemistry", Focus: "Prebiotic chemistry and self-replicating systems"},
	{ID: "collective-behavior", Name: "Collective Behavior Unit", Field: "Ecology", Focus: "Swarm intelligence and emergent coordination in animal groups"},
	{ID: "materials-discovery", Name: "Materials Discovery Forge", Field: "Materials Science", Focus: "Generative search over crystal structure space"},
	{ID: "computational-medicine", Name: "Computational Medicine Center", Field: "Medicine", Focus: "Mechanistic digital twins for personalized therapy"},
}

// Generator is the narrow LLM surface the service needs.
type Generator interface {
	GenerateText(ctx context.Context, system string, user string) (string, error)
}

type Service struct {
	log *logger.Logger
	gen Generator
}

func NewService(log *logger.Logger, gen Generator) *Service {
	return &Service{log: log.With("service", "LabsService"), gen: gen}
}

// List returns the full dataset in stable order.
func (s *Service) List() []Lab {
	out := make([]Lab, len(dataset))
	copy(out, dataset)
	return out
}

func byID(id string) (Lab, bool) {
	for _, lab := range dataset {
		if lab.ID == id {
			return lab, true
		}
	}
	return Lab{}, false
}

// Synthesize asks the model for a new interdisciplinary research direction
// combining the selected labs. At least two known labs are required.
func (s *Service) Synthesize(ctx context.Context, labIDs []string) (string, error) {
	selected := make([]Lab, 0, len(labIDs))
	for _, id := range labIDs {
		lab, ok := byID(strings.TrimSpace(id))
		if !ok {
			return "", fmt.Errorf("unknown lab id %q", id)
		}
		selected = append(selected, lab)
	}
	if len(selected) < 2 {
		return "", errors.New("select at least two labs to synthesize a direction")
	}

	var b strings.Builder
	b.WriteString("Propose one new interdisciplinary research direction that combines the following labs. ")
	b.WriteString("Give it a short name, then two or three sentences on the idea and why the combination is promising.\n\n")
	for _, lab := range selected {
		fmt.Fprintf(&b, "- %s (%s): %s\n", lab.Name, lab.Field, lab.Focus)
	}

	text, err := s.gen.GenerateText(ctx,
		"You are a research strategist who finds surprising but rigorous connections between fields.",
		b.String(),
	)
	if err != nil {
		return "", fmt.Errorf("synthesize direction: %w", err)
	}
	return strings.TrimSpace(text), nil
}
