package imageprocessor

import (
	"path/filepath"
	"sort"
	"strings"
)

// FormatType represents a known image format type
type FormatType string

// Known image format constants
const (
	FormatUnknown FormatType = "unknown"
	FormatJPEG    FormatType = "jpeg"
	FormatPNG     FormatType = "png"
	FormatGIF     FormatType = "gif"
	FormatTIFF    FormatType = "tiff"
	FormatBMP     FormatType = "bmp"
	FormatWEBP    FormatType = "webp"
	FormatRAW     FormatType = "raw"
	FormatJXL     FormatType = "jxl"
	FormatHEIF    FormatType = "heif"
	FormatAVIF    FormatType = "avif"
	FormatJP2     FormatType = "jp2"
	FormatPNM     FormatType = "pnm"
	FormatSUN     FormatType = "sunraster"
)

// Map of extensions to format types
var formatExtensions = map[string]FormatType{
	".jpg":  FormatJPEG,
	".jpeg": FormatJPEG,
	".png":  FormatPNG,
	".gif":  FormatGIF,
	".tif":  FormatTIFF,
	".tiff": FormatTIFF,
	".bmp":  FormatBMP,
	".webp": FormatWEBP,
	".jxl":  FormatJXL,
	".heic": FormatHEIF,
	".heif": FormatHEIF,
	".avif": FormatAVIF,
	".jp2":  FormatJP2,
	".pbm":  FormatPNM,
	".pgm":  FormatPNM,
	".ppm":  FormatPNM,
	".ras":  FormatSUN,
	".sr":   FormatSUN,

	// RAW formats carry an embedded JPEG preview
	".dng": FormatRAW,
	".raf": FormatRAW,
	".arw": FormatRAW,
	".nef": FormatRAW,
	".cr2": FormatRAW,
	".cr3": FormatRAW,
	".nrw": FormatRAW,
	".srf": FormatRAW,
	".orf": FormatRAW,
	".rw2": FormatRAW,
	".pef": FormatRAW,
}

// GetFileFormat returns the format type based on file extension
func GetFileFormat(path string) FormatType {
	ext := strings.ToLower(filepath.Ext(path))
	format, exists := formatExtensions[ext]
	if !exists {
		return FormatUnknown
	}
	return format
}

// IsRawFormat checks if a file is in RAW format
func IsRawFormat(path string) bool {
	return GetFileFormat(path) == FormatRAW
}

// ExtensionsFor returns the sorted extensions mapped to the given formats
func ExtensionsFor(formats ...FormatType) []string {
	want := make(map[FormatType]bool, len(formats))
	for _, f := range formats {
		want[f] = true
	}

	var extensions []string
	for ext, format := range formatExtensions {
		if want[format] {
			extensions = append(extensions, ext)
		}
	}
	sort.Strings(extensions)
	return extensions
}
