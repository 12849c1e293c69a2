package invoke

import (
	"context"
	"fmt"
	"sync"

	openai "github.com/openai/openai-go"
	openaiopt "github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/bench-hub/bench-hub/internal/abstractions"
)

// OpenAIBackend is the generic multi-provider completion client. Every
// OpenAI-compatible backend is reached through it; the base URL of the
// resolved route selects the actual provider.
type OpenAIBackend struct{}

func NewOpenAIBackend() *OpenAIBackend {
	return &OpenAIBackend{}
}

var _ abstractions.Backend = (*OpenAIBackend)(nil)

func (b *OpenAIBackend) Complete(ctx context.Context, req *abstractions.CompletionRequest) (*abstractions.CompletionResult, error) {
	// Retries are owned by the retry controller, not the SDK.
	clientOpts := []openaiopt.RequestOption{openaiopt.WithMaxRetries(0)}
	if req.APIKey != "" {
		clientOpts = append(clientOpts, openaiopt.WithAPIKey(req.APIKey))
	}
	if req.BaseURL != "" {
		clientOpts = append(clientOpts, openaiopt.WithBaseURL(req.BaseURL))
	}
	client := openai.NewClient(clientOpts...)

	chatRequest := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(req.Model),
		Messages: convertMessages(req.Messages),
	}
	if req.MaxTokens > 0 {
		chatRequest.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature > 0 {
		chatRequest.Temperature = openai.Float(req.Temperature)
	}

	// Additional options ride along as extra JSON fields.
	var requestOpts []openaiopt.RequestOption
	for key, value := range req.Options {
		requestOpts = append(requestOpts, openaiopt.WithJSONSet(key, value))
	}

	chatCompletion, err := client.Chat.Completions.New(ctx, chatRequest, requestOpts...)
	if err != nil {
		return nil, err
	}
	if len(chatCompletion.Choices) == 0 {
		return nil, fmt.Errorf("backend returned no choices for model %s", req.Model)
	}

	// The served model comes from the response: routed backends may have
	// substituted an equivalent one.
	resolvedModel := chatCompletion.Model
	if resolvedModel == "" {
		resolvedModel = req.Model
	}
	return &abstractions.CompletionResult{
		Text:     chatCompletion.Choices[0].Message.Content,
		Provider: req.Provider,
		Model:    resolvedModel,
	}, nil
}

// BatchComplete submits every prompt of a batch in one call and returns
// the results in request order.
func (b *OpenAIBackend) BatchComplete(ctx context.Context, reqs []*abstractions.CompletionRequest) ([]*abstractions.CompletionResult, error) {
	results := make([]*abstractions.CompletionResult, len(reqs))
	errs := make([]error, len(reqs))

	var wg sync.WaitGroup
	for i, req := range reqs {
		wg.Add(1)
		go func(i int, req *abstractions.CompletionRequest) {
			defer wg.Done()
			results[i], errs[i] = b.Complete(ctx, req)
		}(i, req)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

func convertMessages(messages []abstractions.ChatMessage) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case abstractions.RoleSystem:
			result = append(result, openai.SystemMessage(msg.Content))
		case abstractions.RoleAssistant:
			result = append(result, openai.AssistantMessage(msg.Content))
		default:
			result = append(result, openai.UserMessage(msg.Content))
		}
	}
	return result
}
