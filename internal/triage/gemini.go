package triage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/BruksfildServices01/clinic-scheduler/internal/logger"
)

const systemPrompt = `You triage dental patients before booking.
Reply with a JSON object only: {"urgency": "routine" | "urgent", "specialization": string}.
"urgent" means the patient must be contacted immediately: severe pain, bleeding, trauma,
facial swelling, fever with swelling, or anything that sounds like an emergency.
"specialization" is one of "General Dentist", "Orthodontist", "Oral Surgeon", or "" when unclear.`

type geminiReply struct {
	Urgency        string `json:"urgency"`
	Specialization string `json:"specialization"`
}

// GeminiClassifier asks a Gemini model for the classification and falls
// back to another classifier when the call or the reply is unusable.
type GeminiClassifier struct {
	client   *genai.Client
	modelID  string
	fallback Classifier
	log      *zap.Logger
}

func NewGeminiClassifier(
	ctx context.Context,
	apiKey string,
	modelID string,
	fallback Classifier,
	log *zap.Logger,
) (*GeminiClassifier, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("triage: gemini api key is required")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = "gemini-1.5-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("triage: failed to create gemini client: %w", err)
	}

	return &GeminiClassifier{
		client:   client,
		modelID:  modelID,
		fallback: fallback,
		log:      logger.OrNop(log),
	}, nil
}

func (g *GeminiClassifier) Classify(ctx context.Context, text string, priorTurns []string) (Classification, error) {
	out, err := g.classify(ctx, text, priorTurns)
	if err == nil {
		return out, nil
	}

	if g.fallback == nil {
		return Classification{}, err
	}

	g.log.Warn("gemini triage failed, using fallback", zap.Error(err))
	return g.fallback.Classify(ctx, text, priorTurns)
}

func (g *GeminiClassifier) classify(ctx context.Context, text string, priorTurns []string) (Classification, error) {
	model := g.client.GenerativeModel(g.modelID)
	model.SetTemperature(0)
	model.ResponseMIMEType = "application/json"
	model.SystemInstruction = genai.NewUserContent(genai.Text(systemPrompt))

	cs := model.StartChat()
	for _, turn := range priorTurns {
		turn = strings.TrimSpace(turn)
		if turn == "" {
			continue
		}
		cs.History = append(cs.History, &genai.Content{
			Role:  "user",
			Parts: []genai.Part{genai.Text(turn)},
		})
	}

	resp, err := cs.SendMessage(ctx, genai.Text(text))
	if err != nil {
		return Classification{}, fmt.Errorf("triage: gemini completion failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return Classification{}, errors.New("triage: gemini returned no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}

	return parseReply(sb.String())
}

// parseReply accepts the model's JSON, tolerating a surrounding code fence.
func parseReply(raw string) (Classification, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var reply geminiReply
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &reply); err != nil {
		return Classification{}, fmt.Errorf("triage: unreadable gemini reply: %w", err)
	}

	urgency := Urgency(strings.ToLower(strings.TrimSpace(reply.Urgency)))
	if !urgency.Valid() {
		return Classification{}, fmt.Errorf("triage: unknown urgency %q", reply.Urgency)
	}

	return Classification{
		Urgency:                 urgency,
		SuggestedSpecialization: strings.TrimSpace(reply.Specialization),
	}, nil
}

func (g *GeminiClassifier) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

var _ Classifier = (*GeminiClassifier)(nil)
