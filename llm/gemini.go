package llm

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/tfelder/agentware/agent"
)

// GeminiModel is an adapter for Google's Gemini models.
//
// Kept as a third swappable provider alongside Bedrock and OpenAI. It
// implements the plain LLM interface only; agents needing tool use should
// run on Bedrock or OpenAI.
type GeminiModel struct {
	client *genai.Client
	model  string
}

// NewGeminiModel creates a new Gemini model adapter.
//
// If apiKey is empty, GEMINI_API_KEY then GOOGLE_API_KEY are consulted.
func NewGeminiModel(ctx context.Context, apiKey, model string) (*GeminiModel, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
		if apiKey == "" {
			apiKey = os.Getenv("GOOGLE_API_KEY")
		}
		if apiKey == "" {
			return nil, errors.New("gemini api key required: provide apiKey or set GEMINI_API_KEY or GOOGLE_API_KEY")
		}
	}
	if model == "" {
		model = "gemini-2.0-flash-exp"
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiModel{client: client, model: model}, nil
}

// ModelID returns the model identifier.
func (g *GeminiModel) ModelID() string { return g.model }

// Unwrap returns the underlying genai client.
func (g *GeminiModel) Unwrap() interface{} { return g.client }

// Complete generates a completion from Gemini.
func (g *GeminiModel) Complete(ctx context.Context, messages []*agent.Message, opts ...CallOption) (*agent.Message, error) {
	options := BuildCallOptions(opts...)

	model := g.client.GenerativeModel(g.model)
	g.configureModel(model, options)

	history, lastParts := g.convertMessages(messages)
	session := model.StartChat()
	session.History = history

	resp, err := session.SendMessage(ctx, lastParts...)
	if err != nil {
		return nil, fmt.Errorf("gemini api error: %w", err)
	}

	response := agent.NewMessage("assistant", extractGeminiContent(resp))
	response.Metadata["model"] = g.model
	if resp.UsageMetadata != nil {
		response.Metadata["usage"] = map[string]interface{}{
			"prompt_tokens":     resp.UsageMetadata.PromptTokenCount,
			"completion_tokens": resp.UsageMetadata.CandidatesTokenCount,
			"total_tokens":      resp.UsageMetadata.TotalTokenCount,
		}
	}
	if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != 0 {
		response.Metadata["finish_reason"] = resp.Candidates[0].FinishReason.String()
	}
	return response, nil
}

// Stream generates completion chunks from Gemini.
func (g *GeminiModel) Stream(ctx context.Context, messages []*agent.Message, opts ...CallOption) (<-chan *agent.Message, error) {
	options := BuildCallOptions(opts...)

	model := g.client.GenerativeModel(g.model)
	g.configureModel(model, options)

	history, lastParts := g.convertMessages(messages)
	session := model.StartChat()
	session.History = history

	iter := session.SendMessageStream(ctx, lastParts...)
	messageChan := make(chan *agent.Message)

	go func() {
		defer close(messageChan)
		for {
			resp, err := iter.Next()
			if errors.Is(err, iterator.Done) {
				return
			}
			if err != nil {
				errorMsg := agent.NewMessage("assistant", "")
				errorMsg.Metadata["error"] = err.Error()
				errorMsg.Metadata["streaming"] = true
				messageChan <- errorMsg
				return
			}
			if content := extractGeminiContent(resp); content != "" {
				chunk := agent.NewMessage("assistant", content)
				chunk.Metadata["streaming"] = true
				chunk.Metadata["model"] = g.model
				messageChan <- chunk
			}
		}
	}()

	return messageChan, nil
}

// convertMessages converts agent messages to Gemini chat format. System
// messages are folded into the history as user turns; the final message is
// returned separately as the parts to send.
func (g *GeminiModel) convertMessages(messages []*agent.Message) ([]*genai.Content, []genai.Part) {
	if len(messages) == 0 {
		return nil, nil
	}
	var history []*genai.Content
	for i := 0; i < len(messages)-1; i++ {
		msg := messages[i]
		history = append(history, &genai.Content{
			Role:  mapGeminiRole(msg.Role),
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}
	last := messages[len(messages)-1]
	return history, []genai.Part{genai.Text(last.Content)}
}

func mapGeminiRole(role string) string {
	switch role {
	case "user", "system":
		return "user"
	default:
		return "model"
	}
}

func (g *GeminiModel) configureModel(model *genai.GenerativeModel, options *CallOptions) {
	if options.Temperature != nil {
		temp := float32(*options.Temperature)
		model.Temperature = &temp
	}
	if options.MaxTokens != nil {
		maxTokens := int32(*options.MaxTokens)
		model.MaxOutputTokens = &maxTokens
	}
	if options.TopP != nil {
		topP := float32(*options.TopP)
		model.TopP = &topP
	}
	if len(options.StopSequences) > 0 {
		model.StopSequences = options.StopSequences
	}
}

func extractGeminiContent(resp *genai.GenerateContentResponse) string {
	var content string
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				content += string(text)
			}
		}
	}
	return content
}
