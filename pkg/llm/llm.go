// Package llm defines the boundary to an external generative-language
// service: a prompt plus an output-shape constraint goes in, response text
// that should be JSON matching that shape comes out. Backends live in
// pkg/gemini and pkg/ollama.
package llm

import "context"

// Request is a single schema-constrained generation call.
type Request struct {
	Model  string
	Prompt string
	Schema *Schema
}

// Generator sends one Request and returns the raw response text. It makes
// exactly one call to the service per invocation.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// Unavailable returns a Generator that fails every call with err. It stands
// in for a backend that cannot be configured.
func Unavailable(err error) Generator {
	return GeneratorFunc(func(context.Context, Request) (string, error) {
		return "", err
	})
}
