package embedding

import "context"

// TextEmbedder maps free text to a numeric vector of the implementation's
// native dimension. The live implementation calls a remote model endpoint
// and may fail or be absent entirely; callers fit the returned vector to
// the width they need.
type TextEmbedder interface {
	Name() string
	EmbedText(ctx context.Context, text string) ([]float64, error)
}
