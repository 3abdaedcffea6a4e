// Package ai generates specification questions and product descriptions,
// either with Gemini or with a static fallback.
package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/m3rciful/craftbot/core/logger"
	"github.com/m3rciful/craftbot/internal/product"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-1.5-flash"

// ImageSource downloads a product photo from the transport.
type ImageSource interface {
	FetchImage(ctx context.Context, ref product.ImageRef) ([]byte, string, error)
}

// Config configures the Gemini client.
type Config struct {
	APIKey          string
	Model           string
	Temperature     float32
	BreakerTimeout  time.Duration
	BreakerFailures uint32
}

// Gemini talks to the Gemini API. One client is shared by all sessions.
type Gemini struct {
	client      *genai.Client
	model       string
	temperature float32
	images      ImageSource
	breaker     *Breaker
}

// NewGemini opens a client. images may be nil, descriptions are then text-only.
func NewGemini(ctx context.Context, cfg Config, images ImageSource) (*Gemini, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, errors.New("gemini: api key is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(key))
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	timeout := cfg.BreakerTimeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	return &Gemini{
		client:      cl,
		model:       model,
		temperature: cfg.Temperature,
		images:      images,
		breaker:     NewBreaker("gemini", timeout, failures),
	}, nil
}

// Close releases the underlying client.
func (g *Gemini) Close() error {
	return g.client.Close()
}

// BreakerState reports the circuit breaker state.
func (g *Gemini) BreakerState() string { return g.breaker.State() }

// Model returns the configured model name.
func (g *Gemini) Model() string { return g.model }

// GenerateQuestions asks the model for the five most relevant catalogue specs.
func (g *Gemini) GenerateQuestions(ctx context.Context, pc product.Context) ([]product.Question, error) {
	m := g.newModel(questionsInstruction)
	txt, err := g.generate(ctx, "ai.questions", m, genai.Text(questionsPrompt(pc)))
	if err != nil {
		return nil, err
	}
	return ParseQuestions(txt, pc.DisplayName())
}

// GenerateDescription writes a short marketing description, looking at the
// product photo when it can be downloaded.
func (g *Gemini) GenerateDescription(ctx context.Context, rec product.Record) (string, error) {
	m := g.newModel(descriptionInstruction)
	parts := []genai.Part{genai.Text(descriptionPrompt(rec))}
	if g.images != nil && rec.Image.FileID != "" {
		data, mime, err := g.images.FetchImage(ctx, rec.Image)
		if err != nil {
			logger.Warn(ctx, "ai", "ai.image",
				slog.String("status", "skip"),
				slog.String("session_id", rec.SessionID),
				slog.Any("err", err),
			)
		} else {
			parts = append(parts, &genai.Blob{MIMEType: mime, Data: data})
		}
	}
	txt, err := g.generate(ctx, "ai.describe", m, parts...)
	if err != nil {
		return "", err
	}
	return ParseDescription(txt)
}

func (g *Gemini) newModel(instruction string) *genai.GenerativeModel {
	m := g.client.GenerativeModel(g.model)
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(g.temperature),
		ResponseMIMEType: "application/json",
	}
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(instruction)},
	}
	return m
}

func (g *Gemini) generate(ctx context.Context, event string, m *genai.GenerativeModel, parts ...genai.Part) (string, error) {
	start := time.Now()
	var txt string
	err := g.breaker.Execute(func() error {
		resp, err := m.GenerateContent(ctx, parts...)
		if err != nil {
			return err
		}
		txt = firstText(resp)
		if txt == "" {
			return errors.New("empty response")
		}
		return nil
	})
	attrs := []slog.Attr{
		slog.String("status", logger.Status(err)),
		slog.String("model", g.model),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	}
	if err != nil {
		attrs = append(attrs, slog.Any("err", err))
		logger.Warn(ctx, "ai", event, attrs...)
		return "", fmt.Errorf("gemini %s: %w", event, err)
	}
	logger.Debug(ctx, "ai", event, attrs...)
	return StripCodeFences(txt), nil
}

const questionsInstruction = `You help artisans list handmade products on a marketplace.
Pick the five specifications a buyer most needs for the given product and write one short, friendly question per specification.
Use only keys from the provided catalogue. Reply with JSON only: {"questions":[{"key":"...","question":"..."}]}`

const descriptionInstruction = `You write product descriptions for an artisan marketplace.
Write 40-50 words, marketing friendly, focused on craftsmanship and visible features.
Use only the details provided and what is visible in the image. Never invent dimensions, colours or materials.
Reply with JSON only: {"description":"..."}`

func questionsPrompt(pc product.Context) string {
	name := pc.DisplayName()
	var b strings.Builder
	fmt.Fprintf(&b, "Product name: %q.\n", name)
	if pc.Price != nil {
		fmt.Fprintf(&b, "Price: %s.\n", product.FormatPrice(*pc.Price))
	}
	b.WriteString("\nCatalogue:\n")
	for _, s := range catalogue {
		fmt.Fprintf(&b, "%s: %s\n", s.Key, s.Hint)
	}
	b.WriteString("\nRules:\n")
	b.WriteString("1. Choose exactly 5 keys, no duplicates.\n")
	b.WriteString("2. Prioritize material, colour, craft_style for most products.\n")
	b.WriteString("3. Textiles: material, colour, craft_style, pattern, length. Clothing: material, colour, silhouette, occasion, care_instructions.\n")
	b.WriteString("4. Pottery: material, shape, finish, usage, craft_style. Jewelry: material, colour, embellishment, occasion, weight.\n")
	fmt.Fprintf(&b, "5. Make every question specific to %q.\n", name)
	return b.String()
}

func descriptionPrompt(rec product.Record) string {
	name := "product"
	if rec.Name != nil && strings.TrimSpace(*rec.Name) != "" {
		name = strings.TrimSpace(*rec.Name)
	}
	var details []string
	for _, a := range rec.Answers {
		if a.Answer == nil || strings.TrimSpace(*a.Answer) == "" {
			continue
		}
		details = append(details, fmt.Sprintf("%s: %s", a.Question.Key, strings.TrimSpace(*a.Answer)))
	}
	provided := "No specific details provided"
	if len(details) > 0 {
		provided = strings.Join(details, ", ")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Product: %q.\n", name)
	if rec.Price != nil {
		fmt.Fprintf(&b, "Price: ₹%s.\n", product.FormatPrice(*rec.Price))
	}
	fmt.Fprintf(&b, "Seller provided: %s.\n", provided)
	return b.String()
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
