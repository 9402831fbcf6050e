package gemini

import (
	"context"
	"sync"

	"google.golang.org/genai"
)

// generateCall is one request seen by fakeClient.
type generateCall struct {
	Model    string
	Contents []*genai.Content
	Config   *genai.GenerateContentConfig
}

// fakeClient replays a canned reply and records every request.
type fakeClient struct {
	reply *genai.GenerateContentResponse
	err   error

	mu    sync.Mutex
	calls []generateCall
}

func replying(resp *genai.GenerateContentResponse) *fakeClient {
	return &fakeClient{reply: resp}
}

func failing(err error) *fakeClient {
	return &fakeClient{err: err}
}

func (f *fakeClient) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, generateCall{Model: model, Contents: contents, Config: config})
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.reply, f.err
}

func (f *fakeClient) lastCall() (generateCall, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return generateCall{}, false
	}
	return f.calls[len(f.calls)-1], true
}
