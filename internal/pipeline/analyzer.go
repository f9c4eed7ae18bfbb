package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"claimguard/internal/claims"
	"claimguard/internal/config"
	"claimguard/internal/dedupe"
	"claimguard/internal/faults"
	"claimguard/internal/logging"
	"claimguard/internal/risk"
	"claimguard/internal/signals"
	"claimguard/internal/store"
)

// Options carries the analysis tunables. Zero values fall back to the same
// defaults the sample configuration ships with.
type Options struct {
	TemplateMinClaims int
	NearDistance      int
	SimilarDistance   int
	IssueSimilarity   float64
	ProximityWindow   int
	RepeatWindowDays  int
	Thresholds        risk.Thresholds
	ImageWorkers      int
}

// OptionsFromConfig maps the analysis section of the configuration onto
// pipeline options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		TemplateMinClaims: cfg.Analysis.TemplateMinClaims,
		NearDistance:      cfg.Analysis.NearMatchDistance,
		SimilarDistance:   cfg.Analysis.SimilarMatchDistance,
		IssueSimilarity:   cfg.Analysis.IssueSimilarityThreshold,
		ProximityWindow:   cfg.Analysis.DuplicateWindowDays,
		RepeatWindowDays:  cfg.Analysis.RepeatWindowDays,
		Thresholds: risk.Thresholds{
			Investigate: cfg.Analysis.InvestigateThreshold,
			Review:      cfg.Analysis.ReviewThreshold,
		},
	}
}

// Analyzer runs the full fraud analysis for extracted claims: image
// fingerprinting, template filtering, duplicate detection, fraud signal
// evaluation, and risk aggregation. It is safe for concurrent use; the
// signal detector's benchmark and dealer caches are shared across claims.
type Analyzer struct {
	st       *store.Store
	detector *signals.Detector
	log      *slog.Logger
	opts     Options
}

// NewAnalyzer builds an analyzer over the store. A nil logger disables
// logging.
func NewAnalyzer(st *store.Store, logger *slog.Logger, opts Options) *Analyzer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Analyzer{
		st:       st,
		detector: signals.NewDetector(st, logger, signals.Options{RepeatWindowDays: opts.RepeatWindowDays}),
		log:      logging.NewComponentLogger(logger, "pipeline"),
		opts:     opts,
	}
}

// Analyze runs the complete analysis for one extracted claim and persists the
// outcome. All writes for the claim are grouped in a single transaction, so
// the caller receives either a fully persisted result or an error with no
// partial state. Re-analyzing a claim replaces its derived fields and
// fingerprints; the original created_at survives.
func (a *Analyzer) Analyze(ctx context.Context, extracted claims.ExtractedClaim, sourcePath string) (*claims.AnalysisResult, error) {
	claim := extracted.ToClaim(time.Now().UTC())
	claim.SourcePath = sourcePath
	log := a.log.With(logging.String(logging.FieldClaimID, claim.ID))

	images, warnings, err := prepareImages(ctx, claim.ID, extracted.Images, a.opts.ImageWorkers)
	if err != nil {
		return nil, faults.Wrap(faults.ErrTransient, "pipeline", "prepare_images", "image fingerprinting interrupted", err)
	}

	tx, err := a.st.Begin(ctx)
	if err != nil {
		return nil, faults.Wrap(faults.ErrStore, "pipeline", "begin", "could not start claim transaction", err)
	}
	defer tx.Rollback()

	claim.Status = claims.StatusAnalyzing
	if err := tx.SaveClaim(ctx, &claim); err != nil {
		return nil, faults.Wrap(faults.ErrStore, "pipeline", "save_claim", "could not persist claim", err)
	}

	// Template classification counts hash recurrence across claims, so the
	// current claim's own fingerprints must not be in the table yet: clear
	// any prior generation, classify everything, then insert.
	if err := tx.DeleteImageFingerprints(ctx, claim.ID); err != nil {
		return nil, faults.Wrap(faults.ErrStore, "pipeline", "reset_fingerprints", "could not clear prior fingerprints", err)
	}
	filter := dedupe.NewTemplateFilter(tx, a.opts.TemplateMinClaims)
	for _, img := range images {
		isTemplate, reason, err := filter.Classify(ctx, img)
		if err != nil {
			return nil, err
		}
		img.IsTemplate = isTemplate
		img.TemplateReason = reason
		if isTemplate {
			log.Debug("image excluded as template",
				logging.Int("page", img.Page),
				logging.Int("image_index", img.ImageIndex),
				logging.String("reason", reason))
		}
	}
	for _, img := range images {
		if err := tx.SaveImageFingerprint(ctx, img); err != nil {
			return nil, faults.Wrap(faults.ErrStore, "pipeline", "save_fingerprint", "could not persist image fingerprint", err)
		}
	}

	engine := dedupe.NewEngine(tx, dedupe.Options{
		NearDistance:    a.opts.NearDistance,
		SimilarDistance: a.opts.SimilarDistance,
		IssueSimilarity: a.opts.IssueSimilarity,
		ProximityWindow: a.opts.ProximityWindow,
	})
	duplicates, err := engine.CheckDuplicates(ctx, &claim, images)
	if err != nil {
		return nil, err
	}

	// Rule evaluation reads committed history only (benchmarks, dealer
	// statistics, prior claims); the open transaction never influences it.
	sigs, ruleWarnings, err := a.detector.Detect(ctx, &claim)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, ruleWarnings...)
	sigs = append(sigs, duplicateSignals(duplicates)...)

	assessment := risk.Aggregate(sigs, duplicates, a.opts.Thresholds)
	if assessment.Score < 0 || assessment.Score > 1 {
		return nil, faults.Wrap(faults.ErrInvariant, "pipeline", "aggregate",
			fmt.Sprintf("risk score %.4f outside [0,1]", assessment.Score), nil)
	}

	claim.Status = claims.StatusAnalyzed
	claim.RiskScore = assessment.Score
	claim.TriageClass = assessment.Triage
	claim.IsSuspicious = assessment.Suspicious
	claim.Summary = assessment.Summary
	claim.ErrorMessage = ""
	claim.LastHeartbeat = nil
	analyzedAt := time.Now().UTC()
	claim.AnalyzedAt = &analyzedAt
	if claim.SignalsJSON, err = encodeList(sigs); err != nil {
		return nil, faults.Wrap(faults.ErrInvariant, "pipeline", "encode_signals", "could not encode fraud signals", err)
	}
	if claim.WarningsJSON, err = encodeList(warnings); err != nil {
		return nil, faults.Wrap(faults.ErrInvariant, "pipeline", "encode_warnings", "could not encode warnings", err)
	}

	if err := tx.SaveClaim(ctx, &claim); err != nil {
		return nil, faults.Wrap(faults.ErrStore, "pipeline", "save_result", "could not persist analysis result", err)
	}
	if claim.DealerID != "" {
		if err := tx.UpdateDealerStatistics(ctx, claim.DealerID, claim.DealerName); err != nil {
			return nil, faults.Wrap(faults.ErrStore, "pipeline", "dealer_stats", "could not refresh dealer statistics", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, faults.Wrap(faults.ErrStore, "pipeline", "commit", "could not commit claim transaction", err)
	}

	if duplicates == nil {
		duplicates = []claims.DuplicateMatch{}
	}
	if sigs == nil {
		sigs = []claims.FraudSignal{}
	}
	if warnings == nil {
		warnings = []string{}
	}

	log.Info("claim analyzed",
		logging.Float64("risk_score", assessment.Score),
		logging.String("triage", string(assessment.Triage)),
		logging.Bool("suspicious", assessment.Suspicious),
		logging.Int("duplicates", len(duplicates)),
		logging.Int("signals", len(sigs)),
		logging.Int("warnings", len(warnings)))

	return &claims.AnalysisResult{
		ClaimID:         claim.ID,
		RiskScore:       assessment.Score,
		TriageClass:     assessment.Triage,
		IsSuspicious:    assessment.Suspicious,
		Duplicates:      duplicates,
		Signals:         sigs,
		Warnings:        warnings,
		Summary:         assessment.Summary,
		ImagesExtracted: len(images),
	}, nil
}

// duplicateSignals promotes duplicate matches into fraud signals so they
// carry weight alongside rule findings. Byte-identical and likely-same image
// matches count as high-severity evidence reuse; same-VIN same-issue matches
// as a medium resubmission indicator. Weak IMAGE_SIMILAR matches stay
// matches only.
func duplicateSignals(matches []claims.DuplicateMatch) []claims.FraudSignal {
	var out []claims.FraudSignal
	for _, m := range matches {
		evidence := map[string]any{
			"matched_claim_id": m.MatchedClaimID,
			"kind":             string(m.Kind),
			"similarity":       m.Similarity,
		}
		switch m.Kind {
		case claims.MatchImageExact, claims.MatchImageLikelySame:
			out = append(out, claims.FraudSignal{
				Type:        claims.SignalDuplicateImage,
				Severity:    claims.SeverityHigh,
				Description: fmt.Sprintf("Evidence image reused from claim %s", m.MatchedClaimID),
				Evidence:    evidence,
			})
		case claims.MatchVINIssue:
			out = append(out, claims.FraudSignal{
				Type:        claims.SignalDuplicateClaim,
				Severity:    claims.SeverityMedium,
				Description: fmt.Sprintf("Possible resubmission of claim %s", m.MatchedClaimID),
				Evidence:    evidence,
			})
		}
	}
	return out
}

func encodeList[T any](list []T) (string, error) {
	if len(list) == 0 {
		return "", nil
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
