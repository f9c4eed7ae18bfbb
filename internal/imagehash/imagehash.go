// Package imagehash computes and compares the fingerprints used for evidence
// image matching: a 64-bit perceptual hash for visual similarity and a SHA-256
// content hash for byte-exact identity.
package imagehash

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"math/bits"
	"strconv"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/corona10/goimagehash"
)

// HashBits is the fixed width of a perceptual hash.
const HashBits = 64

// PHash is a 64-bit perceptual hash. Visually similar images produce hashes
// with a small Hamming distance.
type PHash uint64

// String renders the hash as 16 lowercase hex characters, the storage format.
func (h PHash) String() string {
	return fmt.Sprintf("%016x", uint64(h))
}

// ParsePHash parses the 16-hex-character storage format. A "p:" prefix, as
// emitted by some extractors, is tolerated.
func ParsePHash(value string) (PHash, error) {
	trimmed := strings.TrimSpace(strings.ToLower(value))
	trimmed = strings.TrimPrefix(trimmed, "p:")
	if trimmed == "" {
		return 0, fmt.Errorf("perceptual hash: empty value")
	}
	if len(trimmed) != HashBits/4 {
		return 0, fmt.Errorf("perceptual hash: want %d hex chars, got %d", HashBits/4, len(trimmed))
	}
	parsed, err := strconv.ParseUint(trimmed, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("perceptual hash: %w", err)
	}
	return PHash(parsed), nil
}

// HammingDistance counts differing bits between two hashes. It is symmetric
// and zero for identical hashes.
func HammingDistance(a, b PHash) int {
	return bits.OnesCount64(uint64(a) ^ uint64(b))
}

// Similarity converts a Hamming distance into a [0,1] score where 1.0 means
// identical hashes.
func Similarity(distance int) float64 {
	if distance <= 0 {
		return 1.0
	}
	if distance >= HashBits {
		return 0.0
	}
	return 1.0 - float64(distance)/float64(HashBits)
}

// ContentHash returns the SHA-256 digest of raw image bytes as lowercase hex.
func ContentHash(data []byte) string {
	digest := sha256.Sum256(data)
	return hex.EncodeToString(digest[:])
}

// Compute decodes the image bytes and derives its 64-bit perceptual hash.
func Compute(data []byte) (PHash, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("decode image: %w", err)
	}
	return ComputeFromImage(img)
}

// ComputeFromImage derives the perceptual hash of an already-decoded image.
func ComputeFromImage(img image.Image) (PHash, error) {
	hash, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return 0, fmt.Errorf("perception hash: %w", err)
	}
	return PHash(hash.GetHash()), nil
}
