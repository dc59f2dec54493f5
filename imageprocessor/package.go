// Package imageprocessor decodes image files and computes their perceptual hashes.
package imageprocessor

import "image"

// ImageLoader is the interface that all image loaders must implement
type ImageLoader interface {
	// CanLoad checks if the loader can handle the given file
	CanLoad(path string) bool

	// LoadImage decodes the file into a pixel grid
	LoadImage(path string) (image.Image, error)
}
