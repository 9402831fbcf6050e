package gemini

import (
	"context"

	"github.com/Cyclone1070/termpilot/internal/agent"
	"github.com/Cyclone1070/termpilot/internal/conversation"
	"google.golang.org/genai"
)

// GeminiAgent answers conversations with Google Gemini.
type GeminiAgent struct {
	client    GeminiClient
	modelName string
	tools     []agent.ToolDefinition
}

// New creates a GeminiAgent with the specified client and model.
func New(client GeminiClient, modelName string, tools ...agent.ToolDefinition) *GeminiAgent {
	if client == nil {
		panic("client is required")
	}
	return &GeminiAgent{
		client:    client,
		modelName: modelName,
		tools:     tools,
	}
}

// Generate sends the conversation to Gemini and converts the reply.
func (p *GeminiAgent) Generate(ctx context.Context, messages []conversation.Message) (*agent.Response, error) {
	model := p.modelName
	tools := p.tools

	system, contents := toGeminiContents(messages)
	config := &genai.GenerateContentConfig{
		SafetySettings: defaultSafetySettings(),
	}
	if system != nil {
		config.SystemInstruction = system
	}
	if len(tools) > 0 {
		config.Tools = toGeminiTools(tools)
	}

	resp, err := p.client.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, mapGeminiError(err)
	}

	return fromGeminiResponse(resp, model)
}
