package types

import (
	"fmt"
	"math/bits"
	"strconv"
)

// ImageHash is a 64-bit perceptual hash of an image's visual content
type ImageHash uint64

// Distance returns the Hamming distance between two hashes
func (h ImageHash) Distance(other ImageHash) int {
	return bits.OnesCount64(uint64(h ^ other))
}

// String returns the hash as 16 lowercase hex digits
func (h ImageHash) String() string {
	return fmt.Sprintf("%016x", uint64(h))
}

// ParseImageHash parses the hex form produced by ImageHash.String
func ParseImageHash(s string) (ImageHash, error) {
	if len(s) != 16 {
		return 0, fmt.Errorf("invalid image hash %q: want 16 hex digits", s)
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid image hash %q: %w", s, err)
	}
	return ImageHash(v), nil
}

// FileIdentity identifies an image file by its path relative to the scanned
// root plus a modification signature (size and mtime)
type FileIdentity struct {
	Path    string `json:"path"`
	Size    int64  `json:"size"`
	ModTime int64  `json:"mod_time"` // Unix nanoseconds
}

// SameSignature reports whether both identities carry the same size and mtime
func (f FileIdentity) SameSignature(other FileIdentity) bool {
	return f.Size == other.Size && f.ModTime == other.ModTime
}

// CacheEntry associates a file identity with its hash
type CacheEntry struct {
	FileIdentity
	Hash ImageHash `json:"hash"`
}

// SimilarPair is an unordered pair of near-duplicate images. A always sorts
// before B.
type SimilarPair struct {
	A        string `json:"a"`
	B        string `json:"b"`
	Distance int    `json:"distance"`
}

// ImageMatch holds one cached image close to a query image
type ImageMatch struct {
	Path     string `json:"path"`
	Hash     string `json:"hash"`
	Distance int    `json:"distance"`
}
