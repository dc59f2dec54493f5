package processor

import (
	"fmt"
	"runtime/debug"

	"imagedup/imageprocessor"
	"imagedup/logging"
	"imagedup/types"
)

// ImageProcessor is an adapter that simplifies interactions between the scanner
// and the imageprocessor package
type ImageProcessor struct {
	registry *imageprocessor.ImageLoaderRegistry
	owned    bool
}

// NewImageProcessor wraps registry, creating a private one when it is nil
func NewImageProcessor(registry *imageprocessor.ImageLoaderRegistry) *ImageProcessor {
	if registry != nil {
		return &ImageProcessor{registry: registry}
	}
	return &ImageProcessor{
		registry: imageprocessor.NewImageLoaderRegistry(),
		owned:    true,
	}
}

// CanHash checks if the path has a registered loader
func (p *ImageProcessor) CanHash(path string) bool {
	return p.registry.CanLoadFile(path)
}

// HashImage decodes and hashes one file. Loader panics are recovered and
// returned as a *imageprocessor.DecodeError like any other failure.
func (p *ImageProcessor) HashImage(path string) (hash types.ImageHash, err error) {
	defer func() {
		if r := recover(); r != nil {
			stackTrace := debug.Stack()
			logging.LogError("Panic during image loading: %v, file: %s\nStack trace: %s", r, path, string(stackTrace))
			hash = 0
			err = &imageprocessor.DecodeError{Path: path, Err: fmt.Errorf("panic during image loading: %v", r)}
		}
	}()

	return imageprocessor.HashFile(p.registry, path)
}

// Close releases the registry if this processor created it
func (p *ImageProcessor) Close() error {
	if p.owned {
		return p.registry.Close()
	}
	return nil
}
