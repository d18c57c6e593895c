package llm

import (
	"context"
	"errors"
	"math"
)

// Role tags a message in a generation request
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message is a single role-tagged message in a generation request
type Message struct {
	Role    Role
	Content string
}

// Options control a single generation call
type Options struct {
	Temperature float64
	// JSONResponse asks the provider for a strict-JSON response body
	JSONResponse bool
}

// EmbeddingDimension is the vector size produced by all embedders and
// expected by the chunk store
const EmbeddingDimension = 768

var (
	ErrEmptyResponse = errors.New("model returned empty response")
	ErrEmptyInput    = errors.New("cannot embed empty text")
)

// Client is a text generation service
type Client interface {
	Generate(ctx context.Context, messages []Message, opts Options) (string, error)
}

// Embedder converts text into a fixed-dimension vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	Dimension() int
}

// l2normalize scales a vector to unit length in place
func l2normalize(v []float64) {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return
	}
	for i := range v {
		v[i] /= norm
	}
}
