package dedupe

import (
	"context"
	"fmt"

	"claimguard/internal/claims"
	"claimguard/internal/faults"
	"claimguard/internal/imagehash"
	"claimguard/internal/store"
	"claimguard/internal/textutil"
)

// Store is the persistence surface duplicate detection reads and writes.
// Both *store.Store and *store.Tx satisfy it, so the engine can run inside
// the per-claim transaction.
type Store interface {
	FindExactImage(ctx context.Context, contentHash, excludeClaimID string) (*claims.EvidenceImage, error)
	FindSimilarImages(ctx context.Context, phash, excludeClaimID string, maxDistance int) ([]store.SimilarImage, error)
	FindClaimsByVIN(ctx context.Context, vin, excludeClaimID string) ([]*claims.Claim, error)
	SaveDuplicateMatch(ctx context.Context, m *claims.DuplicateMatch) error
}

// Options tune the duplicate passes. Zero values fall back to the standard
// cutoffs.
type Options struct {
	// NearDistance is the Hamming cutoff below which two perceptual hashes
	// are treated as the same photo.
	NearDistance int
	// SimilarDistance is the outer Hamming cutoff for reporting visual
	// similarity at all.
	SimilarDistance int
	// IssueSimilarity is the Jaccard cutoff (exclusive) for flagging two
	// claims on the same vehicle as describing the same issue.
	IssueSimilarity float64
	// ProximityWindow is the span in days over which two claim dates count
	// as close. Date proximity decays linearly across the window.
	ProximityWindow int
}

func (o Options) normalized() Options {
	if o.NearDistance <= 0 {
		o.NearDistance = 5
	}
	if o.SimilarDistance <= 0 {
		o.SimilarDistance = 10
	}
	if o.SimilarDistance < o.NearDistance {
		o.SimilarDistance = o.NearDistance
	}
	if o.IssueSimilarity <= 0 || o.IssueSimilarity >= 1 {
		o.IssueSimilarity = 0.7
	}
	if o.ProximityWindow <= 0 {
		o.ProximityWindow = 90
	}
	return o
}

// Engine runs the duplicate passes for one claim against the history the
// given Store exposes. Engines are cheap: build one per analysis run around
// the run's transaction.
type Engine struct {
	st   Store
	opts Options
}

// NewEngine builds an engine over the given store surface.
func NewEngine(st Store, opts Options) *Engine {
	return &Engine{st: st, opts: opts.normalized()}
}

// CheckDuplicates runs the exact-image, near-image, and VIN-issue passes for
// a claim whose images are already fingerprinted and template-classified.
// Template images never participate. Every detected match is persisted
// through the store before being returned, in detection order.
func (e *Engine) CheckDuplicates(ctx context.Context, claim *claims.Claim, images []*claims.EvidenceImage) ([]claims.DuplicateMatch, error) {
	if claim == nil || claim.ID == "" {
		return nil, faults.Wrap(faults.ErrInvariant, "dedupe", "check_duplicates", "claim is missing an id", nil)
	}

	var matches []claims.DuplicateMatch
	// Claims already reported by the exact pass. The perceptual pass skips
	// them: a byte-identical hit against a claim supersedes any near hit
	// against the same claim.
	exactTo := make(map[string]struct{})

	for _, img := range images {
		if img == nil || img.IsTemplate || img.ContentHash == "" {
			continue
		}
		found, err := e.st.FindExactImage(ctx, img.ContentHash, claim.ID)
		if err != nil {
			return nil, faults.Wrap(faults.ErrStore, "dedupe", "exact_pass", "look up content hash", err)
		}
		if found == nil {
			continue
		}
		match := claims.DuplicateMatch{
			ClaimID:        claim.ID,
			MatchedClaimID: found.ClaimID,
			Kind:           claims.MatchImageExact,
			Similarity:     1.0,
			ImageIndex:     intPtr(img.ImageIndex),
			MatchedIndex:   intPtr(found.ImageIndex),
			Details: fmt.Sprintf("image %d is byte-identical to image %d of claim %s",
				img.ImageIndex, found.ImageIndex, found.ClaimID),
		}
		if err := e.save(ctx, &match); err != nil {
			return nil, err
		}
		matches = append(matches, match)
		exactTo[found.ClaimID] = struct{}{}
	}

	for _, img := range images {
		if img == nil || img.IsTemplate || img.PerceptualHash == "" {
			continue
		}
		// An unparsable hash skips this image; it does not abort the claim.
		if _, err := imagehash.ParsePHash(img.PerceptualHash); err != nil {
			continue
		}
		similar, err := e.st.FindSimilarImages(ctx, img.PerceptualHash, claim.ID, e.opts.SimilarDistance)
		if err != nil {
			return nil, faults.Wrap(faults.ErrStore, "dedupe", "near_pass", "scan perceptual hashes", err)
		}
		for _, hit := range similar {
			if _, done := exactTo[hit.Image.ClaimID]; done {
				continue
			}
			kind := claims.MatchImageSimilar
			if hit.Distance <= e.opts.NearDistance {
				kind = claims.MatchImageLikelySame
			}
			match := claims.DuplicateMatch{
				ClaimID:        claim.ID,
				MatchedClaimID: hit.Image.ClaimID,
				Kind:           kind,
				Similarity:     imagehash.Similarity(hit.Distance),
				ImageIndex:     intPtr(img.ImageIndex),
				MatchedIndex:   intPtr(hit.Image.ImageIndex),
				Details: fmt.Sprintf("image %d is %d bits from image %d of claim %s",
					img.ImageIndex, hit.Distance, hit.Image.ImageIndex, hit.Image.ClaimID),
			}
			if err := e.save(ctx, &match); err != nil {
				return nil, err
			}
			matches = append(matches, match)
		}
	}

	vinMatches, err := e.checkVINIssues(ctx, claim)
	if err != nil {
		return nil, err
	}
	matches = append(matches, vinMatches...)

	return matches, nil
}

// checkVINIssues flags prior claims on the same vehicle that describe the
// same issue close in time. Both cutoffs are exclusive, and a claim with an
// unparseable date never crosses the proximity bar.
func (e *Engine) checkVINIssues(ctx context.Context, claim *claims.Claim) ([]claims.DuplicateMatch, error) {
	if claim.VIN == "" || claim.IssueDescription == "" {
		return nil, nil
	}
	others, err := e.st.FindClaimsByVIN(ctx, claim.VIN, claim.ID)
	if err != nil {
		return nil, faults.Wrap(faults.ErrStore, "dedupe", "vin_pass", "load claims for vin", err)
	}

	var matches []claims.DuplicateMatch
	for _, other := range others {
		if other == nil || other.ID == claim.ID {
			continue
		}
		issueSim := textutil.JaccardSimilarity(claim.IssueDescription, other.IssueDescription)
		if issueSim <= e.opts.IssueSimilarity {
			continue
		}
		proximity, daysApart := e.dateProximity(claim.ClaimDate, other.ClaimDate)
		if proximity <= 0.5 {
			continue
		}
		match := claims.DuplicateMatch{
			ClaimID:        claim.ID,
			MatchedClaimID: other.ID,
			Kind:           claims.MatchVINIssue,
			Similarity:     (issueSim + proximity) / 2,
			Details: fmt.Sprintf("same vehicle and issue as claim %s (%.0f%% issue overlap, %d days apart)",
				other.ID, issueSim*100, daysApart),
		}
		if err := e.save(ctx, &match); err != nil {
			return nil, err
		}
		matches = append(matches, match)
	}
	return matches, nil
}

// dateProximity scores how close two claim dates are: 1.0 for the same day,
// decaying linearly to 0 at the window edge. Unparseable dates score a
// neutral 0.5, which deliberately fails the exclusive > 0.5 check.
func (e *Engine) dateProximity(a, b string) (float64, int) {
	dateA, okA := claims.ParseDate(a)
	dateB, okB := claims.ParseDate(b)
	if !okA || !okB {
		return 0.5, 0
	}
	days := claims.DaysBetween(dateA, dateB)
	proximity := 1.0 - float64(days)/float64(e.opts.ProximityWindow)
	if proximity < 0 {
		proximity = 0
	}
	return proximity, days
}

func (e *Engine) save(ctx context.Context, match *claims.DuplicateMatch) error {
	if err := e.st.SaveDuplicateMatch(ctx, match); err != nil {
		return faults.Wrap(faults.ErrStore, "dedupe", "save_match", "persist duplicate match", err)
	}
	return nil
}

func intPtr(v int) *int {
	return &v
}
