package llm

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned when neither an API key nor a Cloud project is set
var ErrNotConfigured = errors.New("no generative model credentials configured")

const DefaultModel = "gemini-1.5-flash"

// Client sends a prompt to a generative model and returns its text reply
type Client interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Close() error
}

// Options selects and configures a Client. An API key takes precedence over
// a Cloud project.
type Options struct {
	APIKey    string
	ProjectID string
	Location  string
	Model     string
}

// New creates the client matching the configured credentials
func New(ctx context.Context, opts Options) (Client, error) {
	if opts.Model == "" {
		opts.Model = DefaultModel
	}

	switch {
	case opts.APIKey != "":
		return NewGeminiClient(ctx, opts.APIKey, opts.Model)
	case opts.ProjectID != "":
		return NewVertexAIClient(ctx, opts.ProjectID, opts.Location, opts.Model)
	default:
		return nil, ErrNotConfigured
	}
}
