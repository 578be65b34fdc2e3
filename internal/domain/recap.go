package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const (
	excellentTierMiles  = 2.0
	convenientTierMiles = 5.0
)

// RecapInput is the material a recap is written from.
type RecapInput struct {
	Address           string
	BasicScore        int
	PersonalizedScore int
	IsPersonalized    bool
	Targets           []ScoredTarget
	Schools           []School
	Environment       EnvironmentSignals
	Notes             string
}

// RecapWriter produces the natural-language recap. It asks a text generator
// first and falls back to a deterministic template on any failure.
type RecapWriter struct {
	generator TextGenerator
	opts      GenerationOptions
	timeout   time.Duration
	logger    *slog.Logger
}

// NewRecapWriter creates a writer. A nil generator always uses the template.
func NewRecapWriter(generator TextGenerator, opts GenerationOptions, timeout time.Duration, logger *slog.Logger) *RecapWriter {
	return &RecapWriter{generator: generator, opts: opts, timeout: timeout, logger: logger}
}

// Write returns the recap text and which path produced it. It never fails.
func (w *RecapWriter) Write(ctx context.Context, in RecapInput) (string, RecapDiagnostics) {
	text, err := w.generate(ctx, in)
	if err == nil {
		return text, RecapDiagnostics{Source: RecapSourceGenerated}
	}

	if !errors.Is(err, ErrProviderNotConfigured) {
		w.logger.Warn("recap generation failed, using template", "error", err)
	}
	return TemplateRecap(in), RecapDiagnostics{Source: RecapSourceTemplate, Error: err.Error()}
}

func (w *RecapWriter) generate(ctx context.Context, in RecapInput) (string, error) {
	if w.generator == nil {
		return "", ErrProviderNotConfigured
	}
	ctx, cancel := WithTimeout(ctx, w.timeout)
	defer cancel()

	text, err := w.generator.Generate(ctx, BuildRecapPrompt(in), w.opts)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrRecapUnavailable, w.generator.Name(), err)
	}
	if text = strings.TrimSpace(text); text == "" {
		return "", fmt.Errorf("%w: empty response", ErrRecapUnavailable)
	}
	return text, nil
}

// BuildRecapPrompt renders the structured prompt sent to the text generator.
func BuildRecapPrompt(in RecapInput) string {
	var b strings.Builder
	b.WriteString("Write a friendly two to three sentence summary of how well this home fits the buyer. ")
	b.WriteString("Mention the most relevant nearby places and any standout strengths or drawbacks. ")
	b.WriteString("Do not invent facts that are not listed below.\n\n")

	fmt.Fprintf(&b, "Address: %s\n", recapAddress(in.Address))
	fmt.Fprintf(&b, "Overall score: %d/100\n", in.BasicScore)
	if in.IsPersonalized {
		fmt.Fprintf(&b, "Personalized score: %d/100\n", in.PersonalizedScore)
	}

	if len(in.Targets) > 0 {
		b.WriteString("Nearby places:\n")
		for _, t := range in.Targets {
			if t.DistanceMiles == nil || len(t.Places) == 0 {
				fmt.Fprintf(&b, "- %s: none found nearby\n", t.Label)
				continue
			}
			fmt.Fprintf(&b, "- %s: %s, %.1f miles\n", t.Label, t.Places[0].Name, *t.DistanceMiles)
		}
	}

	if len(in.Schools) > 0 {
		b.WriteString("Schools:\n")
		for _, s := range in.Schools {
			fmt.Fprintf(&b, "- %s: %.1f/10\n", s.Label, s.Score)
		}
	}

	env := in.Environment
	writeSignal := func(name string, score *int, label string) {
		if score != nil {
			fmt.Fprintf(&b, "- %s: %s (%d/100)\n", name, label, *score)
		}
	}
	if env.SoundScore != nil || env.AirScore != nil || env.StargazeScore != nil {
		b.WriteString("Environment:\n")
		writeSignal("Noise", env.SoundScore, env.SoundLabel)
		writeSignal("Air quality", env.AirScore, env.AirLabel)
		writeSignal("Stargazing", env.StargazeScore, env.StargazeLabel)
	}

	if notes := strings.TrimSpace(in.Notes); notes != "" {
		fmt.Fprintf(&b, "Buyer notes: %s\n", notes)
	}
	return b.String()
}

// TemplateRecap is the deterministic recap: the address, one sentence per
// target by distance tier, then the buyer's notes.
func TemplateRecap(in RecapInput) string {
	sentences := []string{recapAddress(in.Address) + "."}

	for _, t := range in.Targets {
		sentences = append(sentences, targetSentence(t))
	}

	if notes := strings.TrimSpace(in.Notes); notes != "" {
		sentences = append(sentences, "Your notes: "+notes)
	}
	return strings.Join(sentences, " ")
}

func targetSentence(t ScoredTarget) string {
	if t.DistanceMiles == nil || len(t.Places) == 0 {
		return fmt.Sprintf("No nearby %s found.", t.Label)
	}
	d := *t.DistanceMiles
	name := t.Places[0].Name
	switch {
	case d <= excellentTierMiles:
		return fmt.Sprintf("Excellent access to %s: %s is %.1f miles away.", t.Label, name, d)
	case d <= convenientTierMiles:
		return fmt.Sprintf("Convenient access to %s: %s is %.1f miles away.", t.Label, name, d)
	default:
		return fmt.Sprintf("%s is a longer distance away: %s is %.1f miles.", capitalize(t.Label), name, d)
	}
}

func recapAddress(address string) string {
	if a := strings.TrimRight(strings.TrimSpace(address), "."); a != "" {
		return a
	}
	return "This home"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
