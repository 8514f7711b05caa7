package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"google.golang.org/genai"

	domainErrors "github.com/polkiloo/melodiemacher/internal/domain/errors"
	"github.com/polkiloo/melodiemacher/internal/domain/model"
)

const (
	maxGenerateTries        = 3
	initialGenerateInterval = time.Second
	maxGenerateInterval     = 10 * time.Second
	dateLayout              = "02.01.2006"
)

const systemInstruction = `Du bist Produktionsleiter bei MelodieMacher, einem Studio für personalisierte Songs.
Antworte ausschließlich mit JSON gemäß dem vorgegebenen Schema und auf Deutsch.`

// generateFunc sends one prompt and returns the raw JSON answer.
type generateFunc func(ctx context.Context, prompt string, schema *genai.Schema) (string, error)

// Gemini implements Assistant on the Gemini API.
type Gemini struct {
	generate generateFunc
	logger   *slog.Logger
	now      func() time.Time

	initialInterval time.Duration
}

// NewGemini creates a Gemini backed assistant.
func NewGemini(ctx context.Context, apiKey, modelName string, logger *slog.Logger) (*Gemini, error) {
	if apiKey == "" {
		return nil, domainErrors.ErrAssistantUnavailable
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	generate := func(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
		resp, err := client.Models.GenerateContent(ctx, modelName, genai.Text(prompt), &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
			ResponseMIMEType:  "application/json",
			ResponseSchema:    schema,
			Temperature:       genai.Ptr[float32](0.2),
		})
		if err != nil {
			return "", err
		}
		return resp.Text(), nil
	}
	return newGemini(generate, logger), nil
}

func newGemini(generate generateFunc, logger *slog.Logger) *Gemini {
	return &Gemini{
		generate:        generate,
		logger:          logger,
		now:             time.Now,
		initialInterval: initialGenerateInterval,
	}
}

var prioritySchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"priority": {
			Type: genai.TypeString,
			Enum: []string{string(model.PriorityLow), string(model.PriorityNormal), string(model.PriorityHigh), string(model.PriorityUrgent)},
		},
		"reasons": {
			Type:     genai.TypeArray,
			Items:    &genai.Schema{Type: genai.TypeString},
			MaxItems: genai.Ptr[int64](maxPriorityReasons),
		},
		"suggested_deadline": {
			Type:        genai.TypeString,
			Description: "Datum im Format YYYY-MM-DD",
		},
	},
	Required: []string{"priority", "reasons", "suggested_deadline"},
}

var qualitySchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"score":   {Type: genai.TypeInteger, Minimum: genai.Ptr[float64](minQualityScore), Maximum: genai.Ptr[float64](maxQualityScore)},
		"details": {Type: genai.TypeString},
	},
	Required: []string{"score", "details"},
}

var promptSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"title":  {Type: genai.TypeString},
		"style":  {Type: genai.TypeString},
		"prompt": {Type: genai.TypeString},
	},
	Required: []string{"title", "style", "prompt"},
}

// AssessPriority asks the model how urgent the order is.
func (g *Gemini) AssessPriority(ctx context.Context, order *model.Order) (*PriorityAssessment, error) {
	now := g.now()
	var b strings.Builder
	fmt.Fprintf(&b, "Heute ist der %s. Bewerte die Dringlichkeit der Bestellung %s.\n", now.Format(dateLayout), order.OrderNumber)
	fmt.Fprintf(&b, "Eingegangen: %s\n", order.CreatedAt.Format(dateLayout))
	writeBrief(&b, order)
	fmt.Fprintf(&b, "Express-Lieferung: %s\n", yesNo(order.HasRush()))
	b.WriteString("Gib priority (low, normal, high, urgent), höchstens fünf kurze reasons und suggested_deadline (YYYY-MM-DD, nicht in der Vergangenheit) zurück.")

	var payload priorityPayload
	if err := g.call(ctx, "priority", b.String(), prioritySchema, &payload); err != nil {
		return nil, err
	}
	result, err := payload.validate(now)
	return checked(g.logger, "priority", result, err)
}

// AssessQuality rates whether the brief carries enough detail for a song.
func (g *Gemini) AssessQuality(ctx context.Context, order *model.Order) (*QualityAssessment, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Bewerte, wie gut sich die Angaben der Bestellung %s für einen persönlichen Song eignen.\n", order.OrderNumber)
	writeBrief(&b, order)
	b.WriteString("Gib score (1 bis 10) und details mit konkreten Hinweisen auf fehlende Angaben zurück.")

	var payload qualityPayload
	if err := g.call(ctx, "quality", b.String(), qualitySchema, &payload); err != nil {
		return nil, err
	}
	result, err := payload.validate()
	return checked(g.logger, "quality", result, err)
}

// GeneratePrompt drafts the music generation prompt for production.
func (g *Gemini) GeneratePrompt(ctx context.Context, order *model.Order) (*PromptResult, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Schreibe einen Prompt für ein Musik-KI-System für die Bestellung %s.\n", order.OrderNumber)
	writeBrief(&b, order)
	if order.HasCustomLyrics && order.CustomLyrics != "" {
		fmt.Fprintf(&b, "Eigener Songtext, unverändert übernehmen:\n%s\n", order.CustomLyrics)
	}
	if order.AllowEnglish {
		b.WriteString("Englische Passagen sind erlaubt.\n")
	} else {
		b.WriteString("Der Song muss vollständig auf Deutsch sein.\n")
	}
	b.WriteString("Gib title, style (Genre- und Stimmungs-Tags) und prompt zurück.")

	var payload promptPayload
	if err := g.call(ctx, "prompt", b.String(), promptSchema, &payload); err != nil {
		return nil, err
	}
	result, err := payload.validate()
	return checked(g.logger, "prompt", result, err)
}

func (g *Gemini) call(ctx context.Context, kind, prompt string, schema *genai.Schema, out any) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = g.initialInterval
	bo.MaxInterval = maxGenerateInterval

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		raw, err := g.generate(ctx, prompt, schema)
		if err != nil {
			g.logger.Warn("assistant request failed",
				slog.String("kind", kind),
				slog.String("error", err.Error()),
			)
			return struct{}{}, err
		}
		if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), out); err != nil {
			return struct{}{}, backoff.Permanent(fmt.Errorf("%w: %v", ErrInvalidResponse, err))
		}
		return struct{}{}, nil
	}, backoff.WithBackOff(bo), backoff.WithMaxTries(maxGenerateTries))
	if err != nil && !errors.Is(err, ErrInvalidResponse) {
		return fmt.Errorf("%w: %v", domainErrors.ErrAssistantUnavailable, err)
	}
	return err
}

func checked[T any](logger *slog.Logger, kind string, result *T, err error) (*T, error) {
	if err != nil {
		logger.Warn("assistant response rejected",
			slog.String("kind", kind),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	return result, nil
}

func writeBrief(b *strings.Builder, order *model.Order) {
	fmt.Fprintf(b, "Paket: %s\n", order.PackageType)
	fmt.Fprintf(b, "Empfänger: %s (%s)\n", order.RecipientName, order.Relationship)
	fmt.Fprintf(b, "Anlass: %s\n", order.Occasion)
	if order.OccasionDate != nil {
		fmt.Fprintf(b, "Datum des Anlasses: %s\n", order.OccasionDate.Format(dateLayout))
	}
	fmt.Fprintf(b, "Genre: %s, Stimmung: %d von 5\n", order.Genre, order.Mood)
	fmt.Fprintf(b, "Geschichte:\n%s\n", order.Story)
}

func yesNo(v bool) string {
	if v {
		return "ja"
	}
	return "nein"
}
