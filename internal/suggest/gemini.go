package suggest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const geminiModel = "gemini-2.0-flash"

const promptPreamble = `You are helping annotate a text for culture-specific references.
Find phrases that act as culture markers: food, customs, idioms, social norms, named traditions.
Reply with a JSON array only. Each element: {"text": "<exact phrase copied from the input>", "cultureProxy": "<category>", "comment": "<one sentence>"}.
Copy each phrase character-for-character from the input; do not paraphrase.

Input text:
`

// GeminiProvider asks Gemini for culture-span candidates.
type GeminiProvider struct {
	client *genai.Client
}

func NewGeminiProvider(apiKey string) (*GeminiProvider, error) {
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	return &GeminiProvider{client: client}, nil
}

func (p *GeminiProvider) Suggest(ctx context.Context, text string) ([]Candidate, error) {
	result, err := p.client.Models.GenerateContent(
		ctx,
		geminiModel,
		genai.Text(promptPreamble+text),
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("generate suggestions: %w", err)
	}

	return ParseCandidates(result.Text())
}

// ParseCandidates decodes the model reply, tolerating a markdown code fence
// around the JSON array.
func ParseCandidates(reply string) ([]Candidate, error) {
	trimmed := strings.TrimSpace(reply)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	if trimmed == "" {
		return nil, nil
	}

	var candidates []Candidate
	if err := json.Unmarshal([]byte(trimmed), &candidates); err != nil {
		return nil, fmt.Errorf("decode suggestion reply: %w", err)
	}
	return candidates, nil
}
