package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"datachat/internal/dataset"
)

const engineSystemPrompt = "You are a data analysis engine. You receive a tabular dataset " +
	"and one instruction per turn. Apply the instruction to the dataset and respond with a " +
	"single JSON object, no prose. The object must have a \"type\" field of \"dataframe\", " +
	"\"number\", \"string\" or \"chart\". For \"dataframe\" include \"columns\" (array of " +
	"strings) and \"rows\" (array of arrays). For \"number\" and \"string\" include \"value\". " +
	"For \"chart\" include \"value\" with a chart specification reference. Earlier turns in " +
	"this conversation are prior steps of the same analysis; their context applies."

// OpenAIEngine executes instructions through a chat completion model,
// keeping the conversation history so later steps can refer to earlier
// ones. Not safe for concurrent use.
type OpenAIEngine struct {
	client        *openai.Client
	model         string
	maxSampleRows int
	history       []openai.ChatCompletionMessage
	logger        *slog.Logger
}

// NewOpenAIFactory returns a Factory producing one OpenAIEngine per session,
// all sharing the underlying HTTP client.
func NewOpenAIFactory(client *openai.Client, model string, maxSampleRows int, logger *slog.Logger) Factory {
	return func() Engine {
		return &OpenAIEngine{
			client:        client,
			model:         model,
			maxSampleRows: maxSampleRows,
			logger:        logger.With(slog.String("component", "analysis_engine")),
		}
	}
}

// Execute sends the working dataset and instruction to the model and
// classifies the reply into a Result.
func (e *OpenAIEngine) Execute(ctx context.Context, ds dataset.Dataset, instruction string) (Result, error) {
	userMsg, err := buildStepMessage(ds.Sample(e.maxSampleRows), instruction)
	if err != nil {
		return Result{}, fmt.Errorf("failed to build step message: %w", err)
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(e.history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: engineSystemPrompt,
	})
	messages = append(messages, e.history...)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userMsg,
	})

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    e.model,
		Messages: messages,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("engine request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Result{}, fmt.Errorf("engine returned no choices")
	}

	content := resp.Choices[0].Message.Content
	result, err := parseEngineOutput(content)
	if err != nil {
		return Result{}, err
	}

	// Record the turn so following steps see this exchange
	e.history = append(e.history,
		openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: userMsg},
		openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
	)

	e.logger.DebugContext(ctx, "step executed",
		slog.String("kind", string(result.Kind)),
		slog.Int("history_turns", len(e.history)/2))
	return result, nil
}

// buildStepMessage serializes the dataset sample and instruction into one
// user turn.
func buildStepMessage(ds dataset.Dataset, instruction string) (string, error) {
	data, err := json.Marshal(ds)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Dataset: %s\nInstruction: %s", data, instruction), nil
}

// engineOutput is the wire shape of the model's reply.
type engineOutput struct {
	Type    string            `json:"type"`
	Columns []string          `json:"columns"`
	Rows    [][]any           `json:"rows"`
	Value   json.RawMessage   `json:"value"`
}

// parseEngineOutput classifies the model reply into a typed Result.
func parseEngineOutput(content string) (Result, error) {
	trimmed := strings.TrimSpace(content)
	if i := strings.IndexByte(trimmed, '{'); i > 0 {
		trimmed = trimmed[i:]
	}
	if j := strings.LastIndexByte(trimmed, '}'); j >= 0 {
		trimmed = trimmed[:j+1]
	}

	var out engineOutput
	if err := json.Unmarshal([]byte(trimmed), &out); err != nil {
		return Result{}, fmt.Errorf("engine output is not valid JSON: %w", err)
	}

	switch ResultKind(out.Type) {
	case KindTable:
		if out.Columns == nil {
			return Result{}, fmt.Errorf("dataframe result missing columns")
		}
		return Result{
			Kind:  KindTable,
			Table: dataset.New(out.Columns, out.Rows),
		}, nil
	case KindScalar:
		var v float64
		if err := json.Unmarshal(out.Value, &v); err != nil {
			return Result{}, fmt.Errorf("number result has non-numeric value: %w", err)
		}
		return Result{Kind: KindScalar, Scalar: v}, nil
	case KindChart:
		var v string
		if err := json.Unmarshal(out.Value, &v); err != nil {
			return Result{}, fmt.Errorf("chart result has invalid value: %w", err)
		}
		return Result{Kind: KindChart, Chart: v}, nil
	case KindText:
		var v string
		if err := json.Unmarshal(out.Value, &v); err != nil {
			return Result{}, fmt.Errorf("string result has invalid value: %w", err)
		}
		return Result{Kind: KindText, Text: v}, nil
	default:
		return Result{}, fmt.Errorf("engine returned unknown result type %q", out.Type)
	}
}
