package service

import (
	"context"

	"github.com/F0xhopper/Cogno-MVP/llm"
)

// fakeLLM is a scripted generation client for tests. Responses are
// consumed in order; the last one repeats. Every call is counted and
// its user prompt recorded.
type fakeLLM struct {
	responses []string
	err       error
	calls     int
	prompts   []string
}

func (f *fakeLLM) Generate(ctx context.Context, messages []llm.Message, opts llm.Options) (string, error) {
	f.calls++
	for _, m := range messages {
		if m.Role == llm.RoleUser {
			f.prompts = append(f.prompts, m.Content)
		}
	}
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "", nil
	}
	resp := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return resp, nil
}

func (f *fakeLLM) lastPrompt() string {
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}
