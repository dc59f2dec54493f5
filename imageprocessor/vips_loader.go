//go:build vips

package imageprocessor

import (
	"bytes"
	"fmt"
	"image"
	"sync"

	"imagedup/logging"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/disintegration/imaging"
)

// Decoding is shrunk to this bound; hashing downsamples further anyway
const vipsMaxDimension = 1024

func init() {
	optionalLoaders = append(optionalLoaders, registerVipsLoader)
}

// VipsImageLoader decodes JPEG XL and HEIF family images through libvips
type VipsImageLoader struct {
	BaseImageLoader
	mu      sync.Mutex
	started bool
}

// NewVipsImageLoader creates a loader backed by libvips
func NewVipsImageLoader() *VipsImageLoader {
	return &VipsImageLoader{
		BaseImageLoader: BaseImageLoader{
			SupportedFormats: []FormatType{FormatJXL, FormatHEIF, FormatAVIF},
		},
	}
}

func (l *VipsImageLoader) start() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.started {
		return
	}

	vips.LoggingSettings(func(domain string, level vips.LogLevel, msg string) {
		logging.DebugLog("[vips:%s] %s", domain, msg)
	}, vips.LogLevelWarning)

	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
	})
	l.started = true
	logging.DebugLog("libvips started (version: %s)", vips.Version)
}

// LoadImage decodes with libvips and hands back a lossless copy
func (l *VipsImageLoader) LoadImage(path string) (image.Image, error) {
	l.start()

	ref, err := vips.LoadImageFromFile(path, vips.NewImportParams())
	if err != nil {
		return nil, fmt.Errorf("vips failed to load %s: %w", path, err)
	}
	defer ref.Close()

	if ref.Width() > vipsMaxDimension || ref.Height() > vipsMaxDimension {
		if err := ref.Thumbnail(vipsMaxDimension, vipsMaxDimension, vips.InterestingNone); err != nil {
			return nil, fmt.Errorf("vips resize failed for %s: %w", path, err)
		}
	}

	data, _, err := ref.ExportPng(vips.NewPngExportParams())
	if err != nil {
		return nil, fmt.Errorf("vips export failed for %s: %w", path, err)
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode vips output for %s: %w", path, err)
	}
	return img, nil
}

// Close shuts libvips down if it was started
func (l *VipsImageLoader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.started {
		vips.Shutdown()
		l.started = false
	}
	return nil
}

func registerVipsLoader(r *ImageLoaderRegistry) {
	loader := NewVipsImageLoader()
	for _, ext := range loader.Extensions() {
		r.RegisterLoader(ext, loader)
	}
	r.addCloser(loader)
}
