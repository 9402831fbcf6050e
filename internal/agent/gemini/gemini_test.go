package gemini

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Cyclone1070/termpilot/internal/agent"
	"github.com/Cyclone1070/termpilot/internal/conversation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content:      &genai.Content{Parts: []*genai.Part{{Text: text}}},
				FinishReason: genai.FinishReasonStop,
			},
		},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     10,
			CandidatesTokenCount: 5,
			TotalTokenCount:      15,
		},
	}
}

func TestGenerate_TextResponse(t *testing.T) {
	client := replying(textResponse("Hello there! <run>ls</run>"))
	p := New(client, "gemini-mock", agent.ShellToolDefinition())

	conv := conversation.New("system rules")
	conv.AddUser("list files")

	resp, err := p.Generate(context.Background(), conv.Messages())

	require.NoError(t, err)
	assert.Equal(t, "Hello there! <run>ls</run>", resp.Text)
	assert.Empty(t, resp.ToolCalls)
	assert.Equal(t, 15, resp.Usage.TotalTokens)
	assert.Equal(t, "gemini-mock", resp.Model)

	call, ok := client.lastCall()
	require.True(t, ok)
	assert.Equal(t, "gemini-mock", call.Model)
	require.Len(t, call.Contents, 1)
	assert.Equal(t, "user", call.Contents[0].Role)
	require.NotNil(t, call.Config.SystemInstruction)
	assert.Equal(t, "system rules", call.Config.SystemInstruction.Parts[0].Text)
	require.Len(t, call.Config.Tools, 1)
	assert.Equal(t, agent.ShellToolName, call.Config.Tools[0].FunctionDeclarations[0].Name)
}

func TestGenerate_FunctionCall(t *testing.T) {
	p := New(replying(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "checking", Thought: true},
				{Text: "Let me check."},
				{FunctionCall: &genai.FunctionCall{Name: "run_shell", Args: map[string]any{"command": "pwd"}}},
			}},
			FinishReason: genai.FinishReasonStop,
		}},
	}), "gemini-mock")

	resp, err := p.Generate(context.Background(), []conversation.Message{{Role: conversation.RoleUser, Content: "where am I"}})

	require.NoError(t, err)
	assert.Equal(t, "Let me check.", resp.Text)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "run_shell", resp.ToolCalls[0].Name)
	assert.Equal(t, "pwd", resp.ToolCalls[0].Args["command"])
	assert.NotEmpty(t, resp.ToolCalls[0].ID)
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCode  agent.ErrorCode
		retryable bool
	}{
		{"Auth", &genai.APIError{Code: 401, Message: "bad key"}, agent.ErrorCodeAuth, false},
		{"RateLimit", &genai.APIError{Code: 429, Message: "slow down"}, agent.ErrorCodeRateLimit, true},
		{"BadRequest", &genai.APIError{Code: 400, Message: "nope"}, agent.ErrorCodeInvalidRequest, false},
		{"Unavailable", &genai.APIError{Code: 503, Message: "down"}, agent.ErrorCodeUnavailable, true},
		{"Wrapped", fmt.Errorf("call: %w", &genai.APIError{Code: 403}), agent.ErrorCodeAuth, false},
		{"Network", errors.New("connection reset"), agent.ErrorCodeNetwork, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(failing(tt.err), "gemini-mock")

			_, err := p.Generate(context.Background(), nil)

			var pe *agent.ProviderError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.wantCode, pe.Code)
			assert.Equal(t, tt.retryable, agent.IsRetryable(err))
		})
	}
}

func TestGenerate_NoCandidates(t *testing.T) {
	p := New(replying(&genai.GenerateContentResponse{}), "gemini-mock")

	_, err := p.Generate(context.Background(), nil)

	var pe *agent.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, agent.ErrorCodeEmptyResponse, pe.Code)
}

func TestGenerate_SafetyBlocked(t *testing.T) {
	p := New(replying(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}},
	}), "gemini-mock")

	_, err := p.Generate(context.Background(), nil)

	var pe *agent.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, agent.ErrorCodeContentBlocked, pe.Code)
}

func TestGenerate_MaxTokensReturnsPartial(t *testing.T) {
	resp := textResponse("partial")
	resp.Candidates[0].FinishReason = genai.FinishReasonMaxTokens
	p := New(replying(resp), "gemini-mock")

	got, err := p.Generate(context.Background(), nil)

	require.Error(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "partial", got.Text)
}

func TestGenerate_CancelledContext(t *testing.T) {
	client := replying(textResponse("unused"))
	p := New(client, "gemini-mock")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Generate(ctx, nil)

	assert.ErrorIs(t, err, context.Canceled)
	_, ok := client.lastCall()
	assert.True(t, ok)
}
