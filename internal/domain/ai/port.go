package ai

import "context"

// Generator is an answer engine: text in, text out, or failure.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, prompt string) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, systemPrompt, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, systemPrompt, prompt string) (string, error) {
	return f(ctx, systemPrompt, prompt)
}
