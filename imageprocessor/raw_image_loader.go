package imageprocessor

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"os/exec"
	"strings"

	"imagedup/logging"

	"github.com/barasher/go-exiftool"
	"github.com/disintegration/imaging"
)

// previewTags are tried in order; the first decodable one wins
var previewTags = []string{
	"JpgFromRaw",
	"LargestImagePreview",
	"PreviewImage",
	"OtherImage",
	"ThumbnailImage",
}

// exiftool prints binary tags as "base64:<data>" when -b is passed
const base64Prefix = "base64:"

// RawPreviewLoader decodes camera RAW files through their embedded JPEG preview
type RawPreviewLoader struct {
	BaseImageLoader
	et *exiftool.Exiftool
}

// NewRawPreviewLoader starts a long-running exiftool process. It fails when
// the exiftool binary is not installed.
func NewRawPreviewLoader() (*RawPreviewLoader, error) {
	if !exiftoolAvailable() {
		return nil, fmt.Errorf("exiftool not found in PATH")
	}

	// Previews can be several megabytes once base64 encoded
	buf := make([]byte, 256*1024)
	et, err := exiftool.NewExiftool(
		exiftool.ExtractAllBinaryMetadata(),
		exiftool.Buffer(buf, 64*1024*1024),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start exiftool: %w", err)
	}

	return &RawPreviewLoader{
		BaseImageLoader: BaseImageLoader{SupportedFormats: []FormatType{FormatRAW}},
		et:              et,
	}, nil
}

// LoadImage extracts and decodes the largest usable embedded preview
func (l *RawPreviewLoader) LoadImage(path string) (image.Image, error) {
	if !hasFileContent(path) {
		return nil, newImageLoadError("empty or missing RAW file", path)
	}

	infos := l.et.ExtractMetadata(path)
	if len(infos) == 0 {
		return nil, newImageLoadError("no metadata extracted", path)
	}
	if infos[0].Err != nil {
		return nil, fmt.Errorf("exiftool failed on %s: %w", path, infos[0].Err)
	}

	for _, tag := range previewTags {
		value, err := infos[0].GetString(tag)
		if err != nil || !strings.HasPrefix(value, base64Prefix) {
			continue
		}

		data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, base64Prefix))
		if err != nil {
			logging.DebugLog("Invalid %s payload in %s: %v", tag, path, err)
			continue
		}

		img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
		if err != nil {
			logging.DebugLog("Could not decode %s from %s: %v", tag, path, err)
			continue
		}

		logging.DebugLog("Using %s preview for %s", tag, path)
		return img, nil
	}

	return nil, newImageLoadError("no decodable preview found in RAW file", path)
}

// Close stops the exiftool process
func (l *RawPreviewLoader) Close() error {
	return l.et.Close()
}

// exiftoolAvailable checks if the exiftool command is available
func exiftoolAvailable() bool {
	_, err := exec.LookPath("exiftool")
	return err == nil
}
