package imageprocessor

import (
	"errors"
	"fmt"
	"image"

	"imagedup/types"

	"github.com/corona10/goimagehash"
	"github.com/disintegration/imaging"
)

// HashAlgorithm names the preprocessing and hash combination below. Caches
// written with a different value are discarded.
const HashAlgorithm = "phash-blur3-v1"

const (
	normalizedSize = 256
	blurSigma      = 3.0
)

// ErrEmptyImage is returned for nil images or images without pixels
var ErrEmptyImage = errors.New("cannot compute hash for empty image")

// DecodeError reports a file that could not be decoded or hashed
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ComputePerceptualHash computes a DCT-based perceptual hash for the image.
// The image is first scaled to a fixed square and blurred so that small
// re-encoding differences do not flip hash bits.
func ComputePerceptualHash(img image.Image) (types.ImageHash, error) {
	if img == nil || img.Bounds().Empty() {
		return 0, ErrEmptyImage
	}

	normalized := imaging.Resize(img, normalizedSize, normalizedSize, imaging.NearestNeighbor)
	blurred := imaging.Blur(normalized, blurSigma)

	hash, err := goimagehash.PerceptionHash(blurred)
	if err != nil {
		return 0, fmt.Errorf("perception hash: %w", err)
	}

	return types.ImageHash(hash.GetHash()), nil
}

// HashFile decodes the file with the given loader and hashes it. Every
// failure is returned as a *DecodeError.
func HashFile(loader ImageLoader, path string) (types.ImageHash, error) {
	img, err := loader.LoadImage(path)
	if err != nil {
		return 0, &DecodeError{Path: path, Err: err}
	}

	hash, err := ComputePerceptualHash(img)
	if err != nil {
		return 0, &DecodeError{Path: path, Err: err}
	}

	return hash, nil
}
