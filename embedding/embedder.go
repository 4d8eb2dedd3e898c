package embedding

import "context"

// Provider maps text to fixed-length dense vectors. Encode is batched and
// order-preserving: result i is the vector for texts[i].
type Provider interface {
	Encode(ctx context.Context, texts []string) ([][]float64, error)
}
