package intelligence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pharmavoice/models"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const completionTimeout = 10 * time.Second

const systemInstruction = "You are a friendly, concise pharmacy assistant. Keep every reply under 300 characters."

// Fixed example exchanges priming the fallback responder: vaccine
// scheduling, refill, hours, and a stock check.
var fewShot = []models.TurnMessage{
	{Role: models.RoleUser, Content: "I want to schedule a vaccine appointment."},
	{Role: models.RoleAssistant, Content: "Which vaccine would you like? Please say the vaccine name."},
	{Role: models.RoleUser, Content: "I need to refill my prescription."},
	{Role: models.RoleAssistant, Content: "Of course. What is your prescription number?"},
	{Role: models.RoleUser, Content: "What are your pharmacy hours on Saturday?"},
	{Role: models.RoleAssistant, Content: "We're open Monday to Friday 9 to 6, Saturday 10 to 4."},
	{Role: models.RoleUser, Content: "Do you have ibuprofen 200 mg in stock?"},
	{Role: models.RoleAssistant, Content: "Yes. Would you like me to hold some?"},
}

// GeminiCompleter answers general questions the keyword router cannot,
// from the turn history plus the fixed priming prefix.
type GeminiCompleter struct {
	model *genai.GenerativeModel
}

// NewGeminiCompleter creates the Gemini-backed completion collaborator.
func NewGeminiCompleter(ctx context.Context, apiKey string) (*GeminiCompleter, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel("models/gemini-1.5-pro")
	model.SetMaxOutputTokens(60)
	model.SetTemperature(0.2)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemInstruction)},
	}
	return &GeminiCompleter{model: model}, nil
}

// Complete sends the priming prefix plus the conversation so far and
// returns a single reply. Slot annotations are internal scratch memory and
// are not forwarded.
func (g *GeminiCompleter) Complete(ctx context.Context, history []models.TurnMessage) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, completionTimeout)
	defer cancel()

	turns := append(append([]models.TurnMessage{}, fewShot...), history...)

	// The last user turn is the message; everything before it is chat
	// history.
	last := ""
	var priors []*genai.Content
	for _, m := range turns {
		switch m.Role {
		case models.RoleUser:
			last = m.Content
			priors = append(priors, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(m.Content)}})
		case models.RoleAssistant:
			priors = append(priors, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(m.Content)}})
		}
	}
	if last == "" {
		return "", fmt.Errorf("no user turn to complete")
	}

	chat := g.model.StartChat()
	if len(priors) > 1 {
		chat.History = priors[:len(priors)-1]
	}

	resp, err := chat.SendMessage(ctx, genai.Text(last))
	if err != nil {
		return "", fmt.Errorf("gemini generate error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if textPart, ok := part.(genai.Text); ok {
			sb.WriteString(string(textPart))
		}
	}
	reply := strings.TrimSpace(sb.String())
	if reply == "" {
		return "", fmt.Errorf("gemini returned an empty reply")
	}
	return reply, nil
}
