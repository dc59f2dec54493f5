// Package testutil synthesizes image fixtures for tests.
package testutil

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/image/bmp"
)

const (
	gridCells = 8
	cellSize  = 32
)

// GridImage returns a 256x256 grayscale image of 8x8 flat blocks. Shades
// stay within 40..215 so small brightness shifts never clip.
func GridImage(seed uint64) *image.Gray {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	size := gridCells * cellSize
	img := image.NewGray(image.Rect(0, 0, size, size))

	for cy := 0; cy < gridCells; cy++ {
		for cx := 0; cx < gridCells; cx++ {
			shade := color.Gray{Y: uint8(40 + r.IntN(176))}
			for y := cy * cellSize; y < (cy+1)*cellSize; y++ {
				for x := cx * cellSize; x < (cx+1)*cellSize; x++ {
					img.SetGray(x, y, shade)
				}
			}
		}
	}
	return img
}

// Brighten returns a copy with every pixel shifted by delta
func Brighten(src *image.Gray, delta int) *image.Gray {
	dst := image.NewGray(src.Bounds())
	for i, v := range src.Pix {
		dst.Pix[i] = uint8(clamp(int(v) + delta))
	}
	return dst
}

// Invert returns the photographic negative
func Invert(src *image.Gray) *image.Gray {
	dst := image.NewGray(src.Bounds())
	for i, v := range src.Pix {
		dst.Pix[i] = 255 - v
	}
	return dst
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

// WritePNG encodes img as PNG at path, creating parent directories
func WritePNG(path string, img image.Image) error {
	return writeImage(path, img, png.Encode)
}

// WriteBMP encodes img as BMP at path, creating parent directories
func WriteBMP(path string, img image.Image) error {
	return writeImage(path, img, bmp.Encode)
}

func writeImage(path string, img image.Image, encode func(w io.Writer, m image.Image) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// WriteCorrupt writes bytes that no decoder accepts under an image name
func WriteCorrupt(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte("this is not an image"), 0o644)
}

// Touch sets the modification time of path to a fixed offset from now so
// that rewrites within the same clock tick still change the signature
func Touch(path string, offset time.Duration) error {
	ts := time.Now().Add(offset)
	return os.Chtimes(path, ts, ts)
}
