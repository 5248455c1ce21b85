package embedding

import "context"

// NullClient is the degraded-capability implementation selected at startup
// when no embedding provider is configured. Search falls back to lexical
// ranking; saves proceed without vectors.
type NullClient struct {
	dimensions int
}

// NewNullClient creates a NullClient with the given dimensions.
func NewNullClient(dimensions int) *NullClient {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &NullClient{dimensions: dimensions}
}

// Embed always reports the capability as unavailable.
func (c *NullClient) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, ErrUnavailable
}

// Dimensions returns the configured embedding width.
func (c *NullClient) Dimensions() int {
	return c.dimensions
}

// Available reports that no embedding provider is configured.
func (c *NullClient) Available() bool {
	return false
}
