package dedupe

import (
	"context"
	"fmt"

	"claimguard/internal/claims"
	"claimguard/internal/faults"
)

// Shape and size cutoffs separating document boilerplate from evidence
// photos. Real damage photos are full-frame camera output; letterheads,
// logos, and dividers are small or extremely elongated.
const (
	maxIconBytes   = 5000
	bannerRatio    = 5.0
	stripShortSide = 200
	stripFactor    = 3
)

// DefaultTemplateMinClaims is the recurrence cutoff when no override is
// configured: a byte-identical image seen in this many other claims is
// treated as shared boilerplate.
const DefaultTemplateMinClaims = 3

// HashCounter counts how many distinct claims already hold an image with a
// given content hash.
type HashCounter interface {
	GetHashClaimCount(ctx context.Context, contentHash string) (int, error)
}

// TemplateFilter decides whether an extracted image is boilerplate rather
// than claim evidence. Template images are stored for audit but excluded
// from duplicate matching.
type TemplateFilter struct {
	counter   HashCounter
	minClaims int
}

// NewTemplateFilter builds a filter backed by the given hash counter.
// minClaims values below one fall back to DefaultTemplateMinClaims.
func NewTemplateFilter(counter HashCounter, minClaims int) *TemplateFilter {
	if minClaims < 1 {
		minClaims = DefaultTemplateMinClaims
	}
	return &TemplateFilter{counter: counter, minClaims: minClaims}
}

// Classify applies the boilerplate rules in order and returns the first
// matching reason. Images with unknown dimensions skip the shape rules
// rather than being rejected: a photo we could not decode is still
// evidence. The recurrence rule runs before the image's own fingerprint is
// persisted, so the count covers other claims only.
func (f *TemplateFilter) Classify(ctx context.Context, img *claims.EvidenceImage) (bool, string, error) {
	if img == nil {
		return false, "", nil
	}
	if img.ByteSize > 0 && img.ByteSize < maxIconBytes {
		return true, fmt.Sprintf("small icon or logo (%d bytes)", img.ByteSize), nil
	}
	if img.Width > 0 && img.Height > 0 {
		w := float64(img.Width)
		h := float64(img.Height)
		if w/h > bannerRatio || h/w > bannerRatio {
			return true, fmt.Sprintf("banner aspect ratio (%dx%d)", img.Width, img.Height), nil
		}
	}
	if img.Height > 0 && img.Height < stripShortSide && img.Width > stripFactor*img.Height {
		return true, fmt.Sprintf("header strip (%dx%d)", img.Width, img.Height), nil
	}
	if img.Width > 0 && img.Width < stripShortSide && img.Height > stripFactor*img.Width {
		return true, fmt.Sprintf("sidebar strip (%dx%d)", img.Width, img.Height), nil
	}
	if img.ContentHash != "" && f.counter != nil {
		count, err := f.counter.GetHashClaimCount(ctx, img.ContentHash)
		if err != nil {
			return false, "", faults.Wrap(faults.ErrStore, "dedupe", "classify_template", "count hash recurrence", err)
		}
		if count >= f.minClaims {
			return true, fmt.Sprintf("appears in %d other claims", count), nil
		}
	}
	return false, "", nil
}
