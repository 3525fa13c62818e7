package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const defaultRemoteModel = "gpt-4o-mini"

// remotePrompt is the fixed instruction sent with every vector
const remotePrompt = `You classify online shoppers into exactly one intent state from a behavioral vector.

The vector has five dimensions in [0,1]: exploration (breadth of sections and elements visited),
hesitation (scroll reversals, dead clicks, abandoned forms), engagement (hovers, text selection,
product views), velocity (progress through the purchase funnel) and focus (concentration on one area).
frustration is a separate [0,1] score of rage, dead and double clicks.

Valid states: frustrated, overwhelmed, confident, ready_to_decide, comparison_focused, impulse_buyer,
cautious, exploratory.

Respond with a single JSON object and nothing else:
{"identity_state": "<state>", "confidence": <number between 0 and 1>, "reasoning": "<one sentence>"}`

// RemoteClassifier asks a chat-completions model for the state
type RemoteClassifier struct {
	client *openai.Client
	model  string
}

// RemoteConfig configures the remote classifier
type RemoteConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// NewRemoteClassifier creates a classifier backed by an OpenAI-compatible API
func NewRemoteClassifier(cfg RemoteConfig) *RemoteClassifier {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultRemoteModel
	}
	return &RemoteClassifier{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
	}
}

func (c *RemoteClassifier) Name() string {
	return string(SourceRemote)
}

// Classify sends the serialized signals and validates the reply
func (c *RemoteClassifier) Classify(ctx context.Context, sig Signals) (Identity, error) {
	payload, err := json.Marshal(sig)
	if err != nil {
		return Identity{}, fmt.Errorf("marshalling signals: %w", err)
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: remotePrompt},
			{Role: openai.ChatMessageRoleUser, Content: string(payload)},
		},
		MaxTokens:   256,
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrClassifierUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return Identity{}, fmt.Errorf("%w: no choices returned", ErrInvalidResponse)
	}

	id, err := parseRemoteResponse(resp.Choices[0].Message.Content)
	if err != nil {
		return Identity{}, err
	}
	id.Signals = sig
	return id, nil
}

type remoteResponse struct {
	IdentityState *string  `json:"identity_state"`
	Confidence    *float64 `json:"confidence"`
	Reasoning     *string  `json:"reasoning"`
}

// parseRemoteResponse accepts the bare object or one wrapped in code fences
func parseRemoteResponse(content string) (Identity, error) {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
		content = strings.TrimSpace(content)
	}

	var r remoteResponse
	if err := json.Unmarshal([]byte(content), &r); err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if r.IdentityState == nil || r.Confidence == nil || r.Reasoning == nil {
		return Identity{}, fmt.Errorf("%w: missing field", ErrInvalidResponse)
	}

	state := State(*r.IdentityState)
	if !state.Valid() {
		return Identity{}, fmt.Errorf("%w: unknown state %q", ErrInvalidResponse, *r.IdentityState)
	}
	if *r.Confidence < 0 || *r.Confidence > 1 {
		return Identity{}, fmt.Errorf("%w: confidence %v out of range", ErrInvalidResponse, *r.Confidence)
	}

	return Identity{
		State:      state,
		Confidence: *r.Confidence,
		Reasoning:  *r.Reasoning,
		Source:     SourceRemote,
	}, nil
}
