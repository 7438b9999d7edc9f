package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const blitzOptionCount = 4

// QuestionDraft is one generated question: four option texts and the
// index of the correct one.
type QuestionDraft struct {
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
}

// Generator produces question drafts for a topic. The LLM-backed client
// below is the production implementation; tests inject a fake.
type Generator interface {
	Generate(ctx context.Context, topic string) ([]QuestionDraft, error)
}

// LLMGenerator calls an OpenAI-compatible chat completion API and
// parses the response into question drafts.
type LLMGenerator struct {
	httpClient *http.Client
	apiKey     string
	apiURL     string
	model      string
}

func NewLLMGenerator(apiKey, apiURL, model string) *LLMGenerator {
	return &LLMGenerator{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		apiKey:     apiKey,
		apiURL:     apiURL,
		model:      model,
	}
}

func (g *LLMGenerator) IsAvailable() bool {
	return g.apiKey != ""
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

const generatorPrompt = `You are a quiz generator. The user will give you a topic. You must respond with ONLY valid JSON (no markdown, no code fences, no explanations) in the following format:

{
  "questions": [
    {
      "text": "Question text?",
      "options": ["Option A", "Option B", "Option C", "Option D"],
      "correct_index": 0
    }
  ]
}

Rules:
- Generate at most 20 questions
- Each question must have exactly 4 options
- correct_index is the zero-based index of the correct option
- Make questions factually accurate and varied in difficulty
- Write everything in the same language as the topic
- Return ONLY the JSON object, nothing else`

func (g *LLMGenerator) Generate(ctx context.Context, topic string) ([]QuestionDraft, error) {
	if !g.IsAvailable() {
		return nil, fmt.Errorf("%w: generator API key is not configured", ErrUpstream)
	}

	reqBody := chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: generatorPrompt},
			{Role: "user", Content: topic},
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: generator request failed: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read generator response: %v", ErrUpstream, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: generator returned status %d", ErrUpstream, resp.StatusCode)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("%w: failed to parse generator response: %v", ErrUpstream, err)
	}
	if chatResp.Error != nil {
		return nil, fmt.Errorf("%w: generator error: %s", ErrUpstream, chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty generator response", ErrUpstream)
	}

	content := cleanJSONContent(chatResp.Choices[0].Message.Content)

	var payload struct {
		Questions []QuestionDraft `json:"questions"`
	}
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, fmt.Errorf("%w: generator returned invalid JSON: %v", ErrUpstream, err)
	}

	return payload.Questions, nil
}

func cleanJSONContent(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
	}
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
	}
	if strings.HasSuffix(content, "```") {
		content = strings.TrimSuffix(content, "```")
	}
	return strings.TrimSpace(content)
}
