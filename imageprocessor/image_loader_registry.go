package imageprocessor

import (
	"errors"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"imagedup/logging"
)

// optionalLoaders hooks in loaders that need cgo libraries; build-tagged
// files append to it from init
var optionalLoaders []func(r *ImageLoaderRegistry)

// ImageLoaderRegistry maintains a registry of image loaders
type ImageLoaderRegistry struct {
	loaders   map[string]ImageLoader
	fallbacks []ImageLoader
	closers   []io.Closer
	mutex     sync.RWMutex
}

// NewImageLoaderRegistry creates a new image loader registry
func NewImageLoaderRegistry() *ImageLoaderRegistry {
	registry := &ImageLoaderRegistry{
		loaders: make(map[string]ImageLoader),
	}

	registry.registerStandardLoaders()
	registry.registerSpecializedLoaders()

	for _, register := range optionalLoaders {
		register(registry)
	}

	return registry
}

// registerStandardLoaders registers loaders for formats with pure Go decoders
func (r *ImageLoaderRegistry) registerStandardLoaders() {
	standardLoader := NewStandardImageLoader()
	for _, ext := range standardLoader.Extensions() {
		r.RegisterLoader(ext, standardLoader)
	}
}

// registerSpecializedLoaders registers loaders that depend on external tools
func (r *ImageLoaderRegistry) registerSpecializedLoaders() {
	rawLoader, err := NewRawPreviewLoader()
	if err != nil {
		logging.DebugLog("RAW support disabled: %v", err)
		return
	}

	for _, ext := range rawLoader.Extensions() {
		r.RegisterLoader(ext, rawLoader)
	}
	r.addCloser(rawLoader)
	logging.DebugLog("Registered exiftool RAW preview loader")
}

// RegisterLoader registers a new loader for a specific file extension
func (r *ImageLoaderRegistry) RegisterLoader(ext string, loader ImageLoader) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ext = strings.ToLower(ext)
	r.loaders[ext] = loader
}

// RegisterFallback adds a loader tried when the primary loader fails
func (r *ImageLoaderRegistry) RegisterFallback(loader ImageLoader) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.fallbacks = append(r.fallbacks, loader)
}

func (r *ImageLoaderRegistry) addCloser(c io.Closer) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.closers = append(r.closers, c)
}

// GetLoader returns the loader registered for the path's extension, or nil
func (r *ImageLoaderRegistry) GetLoader(path string) ImageLoader {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	ext := strings.ToLower(filepath.Ext(path))
	return r.loaders[ext]
}

// CanLoadFile checks if any registered loader handles the file's extension
func (r *ImageLoaderRegistry) CanLoadFile(path string) bool {
	return r.GetLoader(path) != nil
}

// CanLoad lets the registry itself be used as an ImageLoader
func (r *ImageLoaderRegistry) CanLoad(path string) bool {
	return r.CanLoadFile(path) && fileExists(path)
}

// Extensions returns every registered extension, sorted
func (r *ImageLoaderRegistry) Extensions() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	extensions := make([]string, 0, len(r.loaders))
	for ext := range r.loaders {
		extensions = append(extensions, ext)
	}
	sort.Strings(extensions)
	return extensions
}

// LoadImage loads an image using the appropriate registered loader, then
// any fallback loaders that accept the file
func (r *ImageLoaderRegistry) LoadImage(path string) (image.Image, error) {
	loader := r.GetLoader(path)
	if loader == nil {
		return nil, newImageLoadError("no suitable loader found", path)
	}

	img, err := loader.LoadImage(path)
	if err == nil {
		return img, nil
	}

	r.mutex.RLock()
	fallbacks := r.fallbacks
	r.mutex.RUnlock()

	for _, fallback := range fallbacks {
		if fallback == loader || !fallback.CanLoad(path) {
			continue
		}
		fbImg, fbErr := fallback.LoadImage(path)
		if fbErr == nil {
			logging.DebugLog("Fallback loader decoded %s", path)
			return fbImg, nil
		}
		err = errors.Join(err, fbErr)
	}

	return nil, err
}

// Close releases external processes held by loaders
func (r *ImageLoaderRegistry) Close() error {
	r.mutex.Lock()
	closers := r.closers
	r.closers = nil
	r.mutex.Unlock()

	var errs []error
	for _, c := range closers {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close loader: %w", err))
		}
	}
	return errors.Join(errs...)
}
