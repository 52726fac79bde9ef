package core

import "context"

// ImageGenerator produces a brand new image and returns a URL it can be fetched from.
// The URL may be remote (http/https) or an inline data: URL.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
}
