// Package embedding wraps the external embedding model behind a small
// capability interface. The model itself is a black box; this package owns
// only the calling contract and the degraded-mode fallback.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultDimensions is the embedding width stored and indexed.
	DefaultDimensions = 384
)

// DefaultModel is the OpenAI model used for embeddings; it supports
// reduced output dimensions via the request parameter.
const DefaultModel = openai.SmallEmbedding3

var (
	// ErrUnavailable is returned by the null client; callers switch to the
	// lexical fallback instead of failing.
	ErrUnavailable = errors.New("embedding model not available")
	// ErrWrongDimensions is returned when the model responds with an
	// unexpected vector width.
	ErrWrongDimensions = errors.New("embedding has wrong dimensions")
)

// Client generates fixed-dimension embedding vectors. Blank text yields a
// zero vector, never an error; downstream similarity math treats zero
// vectors as similarity 0.
type Client interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
	Available() bool
}

// API is the minimal surface consumed from the OpenAI SDK, extracted for
// testing.
type API interface {
	CreateEmbeddings(ctx context.Context, req openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

// OpenAIClient calls the OpenAI embeddings endpoint. The underlying SDK
// client is built lazily on first use to keep cold starts cheap for
// requests that never need embeddings.
type OpenAIClient struct {
	apiKey     string
	model      openai.EmbeddingModel
	dimensions int

	once sync.Once
	api  API
}

// Config holds OpenAI client construction options.
type Config struct {
	APIKey     string
	Model      openai.EmbeddingModel
	Dimensions int
}

// NewOpenAIClient creates a client with default model and dimensions.
func NewOpenAIClient(apiKey string) *OpenAIClient {
	return NewOpenAIClientWithConfig(Config{APIKey: apiKey})
}

// NewOpenAIClientWithConfig creates a client with explicit configuration.
func NewOpenAIClientWithConfig(cfg Config) *OpenAIClient {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	dimensions := cfg.Dimensions
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &OpenAIClient{
		apiKey:     cfg.APIKey,
		model:      model,
		dimensions: dimensions,
	}
}

// NewOpenAIClientWithAPI creates a client over a pre-built API, for tests.
func NewOpenAIClientWithAPI(api API, dimensions int) *OpenAIClient {
	c := NewOpenAIClientWithConfig(Config{Dimensions: dimensions})
	c.api = api
	return c
}

// Embed generates an embedding for the given text. Blank text short
// circuits to a zero vector without touching the model.
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return make([]float32, c.dimensions), nil
	}

	c.once.Do(func() {
		if c.api == nil {
			c.api = openai.NewClient(c.apiKey)
		}
	})

	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      []string{text},
		Model:      c.model,
		Dimensions: c.dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}

	if len(resp.Data) == 0 {
		return nil, errors.New("no embedding data returned")
	}

	vec := resp.Data[0].Embedding
	if len(vec) != c.dimensions {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrWrongDimensions, c.dimensions, len(vec))
	}

	return vec, nil
}

// Dimensions returns the configured embedding width.
func (c *OpenAIClient) Dimensions() int {
	return c.dimensions
}

// Available reports that the real client can serve embeddings.
func (c *OpenAIClient) Available() bool {
	return true
}
