package gemini

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Cyclone1070/termpilot/internal/agent"
	"github.com/Cyclone1070/termpilot/internal/conversation"
	"google.golang.org/genai"
)

// toGeminiContents splits system messages into a single system instruction
// and converts the rest to Gemini contents.
func toGeminiContents(messages []conversation.Message) (*genai.Content, []*genai.Content) {
	var system []string
	contents := make([]*genai.Content, 0, len(messages))

	for _, msg := range messages {
		if msg.Role == conversation.RoleSystem {
			if msg.Content != "" {
				system = append(system, msg.Content)
			}
			continue
		}
		if content := messageToGeminiContent(msg); content != nil {
			contents = append(contents, content)
		}
	}

	if len(system) == 0 {
		return nil, contents
	}
	return &genai.Content{
		Role:  "user",
		Parts: []*genai.Part{genai.NewPartFromText(strings.Join(system, "\n\n"))},
	}, contents
}

// messageToGeminiContent converts a single message to Gemini Content format.
func messageToGeminiContent(msg conversation.Message) *genai.Content {
	role := "user"
	if msg.Role == conversation.RoleAssistant {
		role = "model"
	}

	parts := make([]*genai.Part, 0)

	if msg.Content != "" {
		parts = append(parts, genai.NewPartFromText(msg.Content))
	}

	for _, call := range msg.ToolCalls {
		parts = append(parts, &genai.Part{
			FunctionCall: &genai.FunctionCall{
				ID:   call.ID,
				Name: call.Name,
				Args: call.Args,
			},
		})
	}

	for _, result := range msg.ToolResults {
		parts = append(parts, &genai.Part{
			FunctionResponse: &genai.FunctionResponse{
				ID:       result.ID,
				Name:     result.Name,
				Response: result.Result,
			},
		})
	}

	// Skip empty messages
	if len(parts) == 0 {
		return nil
	}

	return &genai.Content{
		Role:  role,
		Parts: parts,
	}
}

// defaultSafetySettings turns content filters off; the user decides what runs.
func defaultSafetySettings() []*genai.SafetySetting {
	return []*genai.SafetySetting{
		{
			Category:  genai.HarmCategoryHateSpeech,
			Threshold: genai.HarmBlockThresholdOff,
		},
		{
			Category:  genai.HarmCategoryDangerousContent,
			Threshold: genai.HarmBlockThresholdOff,
		},
		{
			Category:  genai.HarmCategoryHarassment,
			Threshold: genai.HarmBlockThresholdOff,
		},
		{
			Category:  genai.HarmCategorySexuallyExplicit,
			Threshold: genai.HarmBlockThresholdOff,
		},
	}
}

// toGeminiTools converts tool definitions to Gemini tools.
func toGeminiTools(tools []agent.ToolDefinition) []*genai.Tool {
	if len(tools) == 0 {
		return nil
	}

	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, tool := range tools {
		fd := &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
		}
		if tool.Parameters != nil {
			fd.Parameters = toGeminiSchema(tool.Parameters)
		}
		decls = append(decls, fd)
	}

	return []*genai.Tool{
		{FunctionDeclarations: decls},
	}
}

// toGeminiSchema converts ParameterSchema to Gemini Schema.
func toGeminiSchema(params *agent.ParameterSchema) *genai.Schema {
	schema := &genai.Schema{
		Type: genai.TypeObject,
	}

	if params.Properties != nil {
		schema.Properties = make(map[string]*genai.Schema, len(params.Properties))
		for name, prop := range params.Properties {
			schema.Properties[name] = &genai.Schema{
				Type:        toGeminiType(prop.Type),
				Description: prop.Description,
			}
			if len(prop.Enum) > 0 {
				schema.Properties[name].Enum = prop.Enum
			}
		}
	}

	if len(params.Required) > 0 {
		schema.Required = params.Required
	}

	return schema
}

// toGeminiType converts string type to Gemini Type.
func toGeminiType(typeStr string) genai.Type {
	switch typeStr {
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}

// fromGeminiResponse converts a Gemini response into an agent response.
func fromGeminiResponse(resp *genai.GenerateContentResponse, modelUsed string) (*agent.Response, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, &agent.ProviderError{
			Code:    agent.ErrorCodeEmptyResponse,
			Message: "no candidates in response",
		}
	}

	candidate := resp.Candidates[0]

	if candidate.FinishReason == genai.FinishReasonSafety {
		return nil, &agent.ProviderError{
			Code:    agent.ErrorCodeContentBlocked,
			Message: "content blocked by safety filters",
		}
	}

	out := &agent.Response{Model: modelUsed}
	if resp.UsageMetadata != nil {
		out.Usage = agent.Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}

	if candidate.Content != nil {
		var text strings.Builder
		for i, part := range candidate.Content.Parts {
			if part == nil || part.Thought {
				continue
			}
			if part.Text != "" {
				text.WriteString(part.Text)
			}
			if part.FunctionCall != nil {
				id := part.FunctionCall.ID
				if id == "" {
					id = fmt.Sprintf("call_%d", i)
				}
				out.ToolCalls = append(out.ToolCalls, conversation.ToolCall{
					ID:   id,
					Name: part.FunctionCall.Name,
					Args: part.FunctionCall.Args,
				})
			}
		}
		out.Text = text.String()
	}

	if candidate.FinishReason == genai.FinishReasonMaxTokens {
		return out, &agent.ProviderError{
			Code:    agent.ErrorCodeContextLength,
			Message: "response truncated due to max tokens",
		}
	}

	return out, nil
}

// mapGeminiError maps Gemini API errors to provider errors.
func mapGeminiError(err error) error {
	if err == nil {
		return nil
	}

	code, message, ok := apiErrorDetails(err)
	if !ok {
		return &agent.ProviderError{
			Code:       agent.ErrorCodeNetwork,
			Message:    "network error",
			Underlying: err,
			Retryable:  true,
		}
	}

	switch code {
	case 401, 403:
		return &agent.ProviderError{
			Code:       agent.ErrorCodeAuth,
			Message:    "authentication failed",
			Underlying: err,
		}
	case 429:
		return &agent.ProviderError{
			Code:       agent.ErrorCodeRateLimit,
			Message:    "rate limit exceeded",
			Underlying: err,
			Retryable:  true,
		}
	case 400:
		return &agent.ProviderError{
			Code:       agent.ErrorCodeInvalidRequest,
			Message:    fmt.Sprintf("invalid request: %s", message),
			Underlying: err,
		}
	case 500, 502, 503, 504:
		return &agent.ProviderError{
			Code:       agent.ErrorCodeUnavailable,
			Message:    "service unavailable",
			Underlying: err,
			Retryable:  true,
		}
	default:
		return &agent.ProviderError{
			Code:       agent.ErrorCodeNetwork,
			Message:    fmt.Sprintf("API error: %s", message),
			Underlying: err,
			Retryable:  true,
		}
	}
}

// apiErrorDetails walks the wrap chain for an APIError, which the SDK may
// return by value or by pointer.
func apiErrorDetails(err error) (int, string, bool) {
	for e := err; e != nil; e = errors.Unwrap(e) {
		switch v := any(e).(type) {
		case *genai.APIError:
			if v != nil {
				return v.Code, v.Message, true
			}
		case genai.APIError:
			return v.Code, v.Message, true
		}
	}
	return 0, "", false
}
