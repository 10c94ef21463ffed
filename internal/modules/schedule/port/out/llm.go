package out

import "context"

// LLM is a text completion backend that answers in JSON.
type LLM interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Ping(ctx context.Context) error
	Model() string
}
