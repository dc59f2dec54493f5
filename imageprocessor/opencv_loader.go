//go:build gocv

package imageprocessor

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

func init() {
	optionalLoaders = append(optionalLoaders, registerOpenCVLoader)
}

// OpenCVImageLoader decodes through OpenCV's imgcodecs. It covers formats
// without a Go decoder and serves as fallback for files the Go decoders reject.
type OpenCVImageLoader struct {
	BaseImageLoader
}

// NewOpenCVImageLoader creates a loader backed by gocv
func NewOpenCVImageLoader() *OpenCVImageLoader {
	return &OpenCVImageLoader{
		BaseImageLoader: BaseImageLoader{
			SupportedFormats: []FormatType{
				FormatJP2,
				FormatPNM,
				FormatSUN,
				FormatJPEG,
				FormatPNG,
				FormatBMP,
				FormatTIFF,
				FormatWEBP,
			},
		},
	}
}

// LoadImage reads the file as 8-bit BGR and converts it to an image.Image
func (l *OpenCVImageLoader) LoadImage(path string) (image.Image, error) {
	mat := gocv.IMRead(path, gocv.IMReadColor)
	defer mat.Close()

	if mat.Empty() {
		return nil, newImageLoadError("opencv could not decode image", path)
	}

	img, err := mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert %s: %w", path, err)
	}
	return img, nil
}

func registerOpenCVLoader(r *ImageLoaderRegistry) {
	loader := NewOpenCVImageLoader()
	for _, ext := range ExtensionsFor(FormatJP2, FormatPNM, FormatSUN) {
		r.RegisterLoader(ext, loader)
	}
	r.RegisterFallback(loader)
}
