package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"

	"golang.org/x/sync/errgroup"

	"claimguard/internal/claims"
	"claimguard/internal/imagehash"
)

// defaultImageWorkers bounds concurrent fingerprinting when Options leaves
// ImageWorkers unset. Hashing is CPU-bound, so a small pool keeps one
// image-heavy claim from monopolizing the process.
const defaultImageWorkers = 4

// prepareImages fingerprints the extracted images concurrently: byte size,
// content hash, perceptual hash, and pixel dimensions. Values the extractor
// already supplied are kept; missing ones are computed from the image bytes.
// Per-image failures degrade to warnings so one corrupt image never sinks the
// whole claim.
func prepareImages(ctx context.Context, claimID string, extracted []claims.ExtractedImage, workers int) ([]*claims.EvidenceImage, []string, error) {
	if len(extracted) == 0 {
		return nil, nil, nil
	}
	if workers < 1 {
		workers = defaultImageWorkers
	}

	images := make([]*claims.EvidenceImage, len(extracted))
	slotWarnings := make([][]string, len(extracted))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range extracted {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			images[i], slotWarnings[i] = buildEvidenceImage(claimID, extracted[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var warnings []string
	for _, w := range slotWarnings {
		warnings = append(warnings, w...)
	}
	return images, warnings, nil
}

func buildEvidenceImage(claimID string, e claims.ExtractedImage) (*claims.EvidenceImage, []string) {
	img := &claims.EvidenceImage{
		ClaimID:        claimID,
		Page:           e.Page,
		ImageIndex:     e.Index,
		Method:         e.Method,
		Width:          e.Width,
		Height:         e.Height,
		ByteSize:       e.ByteSize,
		PerceptualHash: e.PerceptualHash,
		ContentHash:    e.ContentHash,
		EXIFTimestamp:  e.EXIF["timestamp"],
		EXIFDevice:     e.EXIF["device"],
		EXIFGPS:        e.EXIF["gps"],
	}

	var warnings []string
	data := e.Bytes
	if len(data) == 0 && e.Path != "" {
		loaded, err := os.ReadFile(e.Path)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: read %s: %v", e, e.Path, err))
		} else {
			data = loaded
		}
	}

	if img.ByteSize == 0 {
		img.ByteSize = int64(len(data))
	}
	if len(data) == 0 {
		if img.ContentHash == "" && img.PerceptualHash == "" {
			warnings = append(warnings, fmt.Sprintf("%s: no image data and no precomputed hashes", e))
		}
		return img, warnings
	}

	if img.ContentHash == "" {
		img.ContentHash = imagehash.ContentHash(data)
	}
	if img.PerceptualHash == "" {
		hash, err := imagehash.Compute(data)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: perceptual hash: %v", e, err))
		} else {
			img.PerceptualHash = hash.String()
		}
	}
	if img.Width == 0 || img.Height == 0 {
		// Decoders are registered by the imagehash package imports.
		if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
			img.Width = cfg.Width
			img.Height = cfg.Height
		}
	}
	return img, warnings
}
