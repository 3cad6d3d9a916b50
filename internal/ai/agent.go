package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// maxToolRounds stops a model that keeps calling tools forever.
const maxToolRounds = 5

var ErrNoAnswer = errors.New("assistant returned no answer")

// Assistant answers admin questions about stock and sales through Gemini,
// using the read-only tools in a Toolbox.
type Assistant struct {
	client *genai.Client
	model  string
	tools  *Toolbox
}

// NewAssistant opens a Gemini client.
func NewAssistant(ctx context.Context, apiKey, model string, tools *Toolbox) (*Assistant, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Assistant{client: client, model: model, tools: tools}, nil
}

// Close releases the client.
func (a *Assistant) Close() error {
	return a.client.Close()
}

func systemPrompt(today, userMessage string) string {
	return fmt.Sprintf(`SYSTEM: Today is %s. You are a read-only assistant for a retail point of sale.

RULES:
1. STOCK: If the user asks about PRICE, STOCK or DETAILS of a product, call 'check_inventory'
   (optionally with a search term) and answer from the JSON. Never guess numbers.
2. LOW STOCK: For reorder questions call 'low_stock_items'.
3. SALES: For revenue or number of sales in a period call 'get_sales_report' with dates in YYYY-MM-DD.
   For best sellers call 'top_selling'.
4. You cannot change prices, stock or sales. If asked to, explain that an admin must use the POS screens.

USER: %s`, today, userMessage)
}

// Ask sends one question and resolves any tool calls the model makes.
func (a *Assistant) Ask(ctx context.Context, userMessage string) (string, error) {
	model := a.client.GenerativeModel(a.model)
	model.Tools = []*genai.Tool{{FunctionDeclarations: a.tools.Declarations()}}

	session := model.StartChat()
	resp, err := session.SendMessage(ctx, genai.Text(systemPrompt(a.tools.now().Format("2006-01-02"), userMessage)))
	if err != nil {
		return "", err
	}

	for round := 0; round < maxToolRounds; round++ {
		calls := functionCalls(resp)
		if len(calls) == 0 {
			return textOf(resp)
		}

		parts := make([]genai.Part, 0, len(calls))
		for _, call := range calls {
			result, err := a.tools.Execute(ctx, call.Name, call.Args)
			if err != nil {
				result = map[string]any{"error": err.Error()}
			}
			parts = append(parts, genai.FunctionResponse{Name: call.Name, Response: plainJSON(result)})
		}
		resp, err = session.SendMessage(ctx, parts...)
		if err != nil {
			return "", err
		}
	}
	return textOf(resp)
}

// plainJSON flattens structs and typed slices into the map/slice/scalar
// shapes the protobuf conversion accepts.
func plainJSON(v map[string]any) map[string]any {
	b, err := json.Marshal(v)
	if err != nil {
		return map[string]any{"error": err.Error()}
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return map[string]any{"error": err.Error()}
	}
	return out
}

func functionCalls(resp *genai.GenerateContentResponse) []genai.FunctionCall {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	var calls []genai.FunctionCall
	for _, part := range resp.Candidates[0].Content.Parts {
		if fc, ok := part.(genai.FunctionCall); ok {
			calls = append(calls, fc)
		}
	}
	return calls
}

func textOf(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrNoAnswer
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			return string(txt), nil
		}
	}
	return "", ErrNoAnswer
}

// parseDay reads a YYYY-MM-DD tool argument.
func parseDay(args map[string]any, key string) (time.Time, error) {
	raw, _ := args[key].(string)
	day, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be in YYYY-MM-DD format", key)
	}
	return day, nil
}
