package signals

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"claimguard/internal/claims"
	"claimguard/internal/faults"
	"claimguard/internal/logging"
)

// Benchmark and dealer rows change rarely, so reads are cached briefly to
// keep burst analysis off the store. Claim history is never cached: the
// repeat-claim rules must see claims analyzed moments ago.
const (
	cacheTTL   = 5 * time.Minute
	cacheSweep = 10 * time.Minute
)

// Store is the read surface the detector needs. Lookups return nil, not an
// error, when no row exists.
type Store interface {
	GetBenchmark(ctx context.Context, brand, issueType string) (*claims.Benchmark, error)
	GetDealerStatistics(ctx context.Context, dealerID string) (*claims.DealerStatistics, error)
	FindClaimsByVIN(ctx context.Context, vin, excludeClaimID string) ([]*claims.Claim, error)
}

// Options tune the stateful rules.
type Options struct {
	// RepeatWindowDays bounds how far back the repeat-claim rule looks.
	RepeatWindowDays int
}

// Detector runs every fraud rule group over a claim. It is safe for
// concurrent use and meant to be long-lived: benchmark and dealer reads are
// served from an expiring cache.
type Detector struct {
	st           Store
	log          *slog.Logger
	cache        *cache.Cache
	repeatWindow int
}

// NewDetector builds a detector over the given store surface.
func NewDetector(st Store, logger *slog.Logger, opts Options) *Detector {
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.RepeatWindowDays <= 0 {
		opts.RepeatWindowDays = 90
	}
	return &Detector{
		st:           st,
		log:          logging.NewComponentLogger(logger, "signals"),
		cache:        cache.New(cacheTTL, cacheSweep),
		repeatWindow: opts.RepeatWindowDays,
	}
}

// Detect runs all rule groups and returns the signals and warnings they
// produced. Missing or unparseable claim fields skip rules or degrade to
// warnings; only store failures return an error, and those are retryable.
func (d *Detector) Detect(ctx context.Context, claim *claims.Claim) ([]claims.FraudSignal, []string, error) {
	if claim == nil || claim.ID == "" {
		return nil, nil, faults.Wrap(faults.ErrInvariant, "signals", "detect", "claim is missing an id", nil)
	}

	in := newRuleInput(claim, time.Now().UTC())
	out := &findings{}

	checkAmounts(in, out)
	checkDates(in, out)
	if err := d.checkBenchmarks(ctx, in, out); err != nil {
		return nil, nil, err
	}
	if err := d.checkDealer(ctx, in, out); err != nil {
		return nil, nil, err
	}
	checkVIN(in, out)
	checkPatterns(in, out)
	if err := d.checkHistory(ctx, in, out); err != nil {
		return nil, nil, err
	}

	d.log.Debug("signal detection finished",
		logging.String(logging.FieldClaimID, claim.ID),
		logging.Int("signals", len(out.signals)),
		logging.Int("warnings", len(out.warnings)))
	return out.signals, out.warnings, nil
}

// benchmarkFor resolves the benchmark for a (brand, issue type) pair through
// the cache. Both hits and misses are cached; a nil result means no
// benchmark exists.
func (d *Detector) benchmarkFor(ctx context.Context, brand, issueType string) (*claims.Benchmark, error) {
	key := "benchmark\x00" + strings.ToLower(brand) + "\x00" + strings.ToLower(issueType)
	if cached, ok := d.cache.Get(key); ok {
		bench, _ := cached.(*claims.Benchmark)
		return bench, nil
	}
	bench, err := d.st.GetBenchmark(ctx, brand, issueType)
	if err != nil {
		return nil, faults.Wrap(faults.ErrStore, "signals", "benchmark_lookup", "load benchmark", err)
	}
	d.cache.Set(key, bench, cache.DefaultExpiration)
	return bench, nil
}

// dealerStatsFor resolves dealer aggregates through the cache. A nil result
// means the dealer has no recorded history.
func (d *Detector) dealerStatsFor(ctx context.Context, dealerID string) (*claims.DealerStatistics, error) {
	key := "dealer\x00" + dealerID
	if cached, ok := d.cache.Get(key); ok {
		stats, _ := cached.(*claims.DealerStatistics)
		return stats, nil
	}
	stats, err := d.st.GetDealerStatistics(ctx, dealerID)
	if err != nil {
		return nil, faults.Wrap(faults.ErrStore, "signals", "dealer_lookup", "load dealer statistics", err)
	}
	d.cache.Set(key, stats, cache.DefaultExpiration)
	return stats, nil
}

// ruleInput is the immutable snapshot every rule group reads. Dates are
// parsed once so rules share one interpretation of the claim.
type ruleInput struct {
	claim          *claims.Claim
	now            time.Time
	claimDate      time.Time
	claimDateOK    bool
	decisionDate   time.Time
	decisionDateOK bool
}

func newRuleInput(claim *claims.Claim, now time.Time) *ruleInput {
	in := &ruleInput{claim: claim, now: now}
	in.claimDate, in.claimDateOK = claims.ParseDate(claim.ClaimDate)
	in.decisionDate, in.decisionDateOK = claims.ParseDate(claim.DecisionDate)
	return in
}

// findings accumulates what the rule groups produce.
type findings struct {
	signals  []claims.FraudSignal
	warnings []string
}

func (f *findings) add(t claims.SignalType, severity claims.Severity, description string, evidence map[string]any) {
	f.signals = append(f.signals, claims.FraudSignal{
		Type:        t,
		Severity:    severity,
		Description: description,
		Evidence:    evidence,
	})
}

func (f *findings) warn(format string, args ...any) {
	f.warnings = append(f.warnings, fmt.Sprintf(format, args...))
}

func value(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
