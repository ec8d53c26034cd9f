// Package planner turns a natural-language query into an ordered list of
// analysis instructions and validates the model output into a Plan.
package planner

import (
	"context"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"
)

// Plan is an ordered, immutable sequence of instruction strings.
// Invariant: non-empty, and every element is non-empty text.
type Plan []string

// Generator produces the raw plan output for a query and dataset profile.
// The output contract is a JSON array of instruction strings; anything
// else is rejected by ParsePlan.
type Generator interface {
	Generate(ctx context.Context, query, profile string) (string, error)
}

const systemPromptTemplate = "This is the dataframe info: %s\n" +
	"Beware of the null values in the columns. " +
	"You are a data analysis planning expert. Your aim is to create a plan based on the user query. " +
	"Don't write code. Output a JSON array of instruction strings (including visualizations), " +
	"that will be executed against the dataframe one by one."

// OpenAIGenerator calls a chat completion model to produce the plan.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

// NewOpenAIGenerator creates a plan generator backed by the OpenAI API.
func NewOpenAIGenerator(apiKey, model string, logger *slog.Logger) *OpenAIGenerator {
	return &OpenAIGenerator{
		client: openai.NewClient(apiKey),
		model:  model,
		logger: logger.With(slog.String("component", "plan_generator")),
	}
}

// NewOpenAIGeneratorWithClient wraps an existing client. Used when the
// planner and engine share one API client.
func NewOpenAIGeneratorWithClient(client *openai.Client, model string, logger *slog.Logger) *OpenAIGenerator {
	return &OpenAIGenerator{
		client: client,
		model:  model,
		logger: logger.With(slog.String("component", "plan_generator")),
	}
}

// Generate asks the model for an ordered instruction list. The raw text
// is returned as-is; validation happens in ParsePlan.
func (g *OpenAIGenerator) Generate(ctx context.Context, query, profile string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: fmt.Sprintf(systemPromptTemplate, profile)},
			{Role: openai.ChatMessageRoleUser, Content: query},
		},
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("plan generation request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("plan generation returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	g.logger.DebugContext(ctx, "plan generated",
		slog.String("model", g.model),
		slog.Int("raw_length", len(raw)))
	return raw, nil
}
