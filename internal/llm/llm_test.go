package llm

import (
	"context"
	"errors"
	"testing"
)

func TestNew_NoCredentials(t *testing.T) {
	client, err := New(context.Background(), Options{})
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("New() error = %v, want ErrNotConfigured", err)
	}
	if client != nil {
		t.Errorf("New() returned a client without credentials")
	}
}

func TestNewClients_RequireCredentials(t *testing.T) {
	ctx := context.Background()

	if _, err := NewGeminiClient(ctx, "", DefaultModel); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("NewGeminiClient() error = %v, want ErrNotConfigured", err)
	}
	if _, err := NewVertexAIClient(ctx, "", "", DefaultModel); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("NewVertexAIClient() error = %v, want ErrNotConfigured", err)
	}
}

func TestNew_PrefersAPIKey(t *testing.T) {
	client, err := New(context.Background(), Options{APIKey: "test-key", ProjectID: "project"})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer client.Close()

	gc, ok := client.(*GeminiClient)
	if !ok {
		t.Fatalf("New() returned %T, want *GeminiClient", client)
	}
	if gc.model != DefaultModel {
		t.Errorf("model = %q, want %q", gc.model, DefaultModel)
	}
}
