package claims

import (
	"strings"
	"time"
)

// Status represents the analysis lifecycle of a claim.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAnalyzing Status = "analyzing"
	StatusAnalyzed  Status = "analyzed"
	StatusFailed    Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusAnalyzing,
	StatusAnalyzed,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// TriageClass is the routing decision produced by risk aggregation.
type TriageClass string

const (
	TriageAutoApprove TriageClass = "AUTO_APPROVE"
	TriageReview      TriageClass = "REVIEW"
	TriageInvestigate TriageClass = "INVESTIGATE"
)

// ParseTriageClass converts a string into a known TriageClass.
func ParseTriageClass(value string) (TriageClass, bool) {
	switch TriageClass(strings.ToUpper(strings.TrimSpace(value))) {
	case TriageAutoApprove:
		return TriageAutoApprove, true
	case TriageReview:
		return TriageReview, true
	case TriageInvestigate:
		return TriageInvestigate, true
	default:
		return "", false
	}
}

// Severity ranks how strongly a fraud signal should influence triage.
type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
	SeverityLow    Severity = "LOW"
)

// MatchKind tags the detection method behind a duplicate match.
type MatchKind string

const (
	MatchImageExact      MatchKind = "IMAGE_EXACT"
	MatchImageLikelySame MatchKind = "IMAGE_LIKELY_SAME"
	MatchImageSimilar    MatchKind = "IMAGE_SIMILAR"
	MatchVINIssue        MatchKind = "VIN_ISSUE_DUPLICATE"
)

// SignalType identifies the rule that produced a fraud signal. Values are
// stable codes recorded in audit output; renaming one is a breaking change
// for downstream consumers.
type SignalType string

const (
	SignalNegativeTax          SignalType = "NEGATIVE_TAX"
	SignalNegativeParts        SignalType = "NEGATIVE_PARTS"
	SignalNegativeLabor        SignalType = "NEGATIVE_LABOR"
	SignalTotalMismatch        SignalType = "TOTAL_MISMATCH"
	SignalLaborPartsRatio      SignalType = "LABOR_PARTS_RATIO"
	SignalExcessiveTaxRate     SignalType = "EXCESSIVE_TAX_RATE"
	SignalFutureClaimDate      SignalType = "FUTURE_CLAIM_DATE"
	SignalOldVehicle           SignalType = "OLD_VEHICLE"
	SignalClaimBeforeMfg       SignalType = "CLAIM_BEFORE_MANUFACTURE"
	SignalDecisionBeforeClaim  SignalType = "DECISION_BEFORE_CLAIM"
	SignalTotalOutlier         SignalType = "TOTAL_AMOUNT_OUTLIER"
	SignalPartsOutlier         SignalType = "PARTS_COST_OUTLIER"
	SignalLaborOutlier         SignalType = "LABOR_COST_OUTLIER"
	SignalHighRiskDealer       SignalType = "HIGH_RISK_DEALER"
	SignalVINInvalidLength     SignalType = "VIN_INVALID_LENGTH"
	SignalVINInvalidChars      SignalType = "VIN_INVALID_CHARACTERS"
	SignalVINBrandMismatch     SignalType = "VIN_BRAND_MISMATCH"
	SignalVINModelMismatch     SignalType = "VIN_MODEL_MISMATCH"
	SignalRoundTotal           SignalType = "ROUND_TOTAL_AMOUNT"
	SignalIdenticalCents       SignalType = "IDENTICAL_CENTS"
	SignalZeroLaborComplex     SignalType = "ZERO_LABOR_COMPLEX_REPAIR"
	SignalVINMultipleClaims    SignalType = "VIN_MULTIPLE_CLAIMS"
	SignalVINExcessiveClaims   SignalType = "VIN_EXCESSIVE_CLAIMS"
	SignalRepeatClaimShortSpan SignalType = "REPEAT_CLAIM_SAME_PART_SHORT_WINDOW"
	SignalOdometerRollback     SignalType = "ODOMETER_ROLLBACK"
	SignalDuplicateImage       SignalType = "DUPLICATE_IMAGE"
	SignalDuplicateClaim       SignalType = "DUPLICATE_CLAIM"
)

// Claim represents an analyzed warranty claim persisted in the store.
// Extraction fields are immutable once saved; derived fields (risk score,
// triage, summary) are replaced on re-analysis.
type Claim struct {
	ID               string
	ClaimNumber      string
	CustomerName     string
	DealerID         string
	DealerName       string
	VIN              string
	Brand            string
	Model            string
	Year             *int
	Odometer         *int
	IssueDescription string
	IssueType        string
	ClaimDate        string
	DecisionDate     string
	PartsCost        *float64
	LaborCost        *float64
	TaxAmount        *float64
	TotalAmount      *float64
	ReportedStatus   string
	RejectionReason  string
	RawText          string
	SourcePath       string
	Status           Status
	RiskScore        float64
	TriageClass      TriageClass
	IsSuspicious     bool
	Summary          string
	SignalsJSON      string
	WarningsJSON     string
	ErrorMessage     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	AnalyzedAt       *time.Time
	LastHeartbeat    *time.Time
}

// SetFailed marks the claim as failed with the given error message and clears
// the heartbeat.
func (c *Claim) SetFailed(message string) {
	c.Status = StatusFailed
	c.ErrorMessage = message
	c.LastHeartbeat = nil
}

// EvidenceImage is one extracted image belonging to exactly one claim.
// Hashes and dimensions are computed once at ingestion and never mutated.
type EvidenceImage struct {
	ID             int64
	ClaimID        string
	Page           int
	ImageIndex     int
	Method         string
	Width          int
	Height         int
	ByteSize       int64
	PerceptualHash string
	ContentHash    string
	IsTemplate     bool
	TemplateReason string
	EXIFTimestamp  string
	EXIFDevice     string
	EXIFGPS        string
	CreatedAt      time.Time
}

// DuplicateMatch records one detected duplicate between two claims. Rows are
// append-only: reruns may record the same pair again, and a claim never
// matches itself.
type DuplicateMatch struct {
	ID             int64
	ClaimID        string
	MatchedClaimID string
	Kind           MatchKind
	Similarity     float64
	ImageIndex     *int
	MatchedIndex   *int
	Details        string
	CreatedAt      time.Time
}

// FraudSignal is a typed finding produced fresh on every analysis run. The
// evidence map carries the concrete numbers that triggered the rule.
type FraudSignal struct {
	Type        SignalType     `json:"type"`
	Severity    Severity       `json:"severity"`
	Description string         `json:"description"`
	Evidence    map[string]any `json:"evidence,omitempty"`
}

// Benchmark holds historical cost statistics for a (brand, issue type) pair.
// A nil Brand marks the generic fallback row for the issue type.
type Benchmark struct {
	ID            int64
	Brand         *string
	IssueType     string
	AvgPartsCost  float64
	StdPartsCost  float64
	AvgLaborCost  float64
	StdLaborCost  float64
	AvgTotal      float64
	StdTotal      float64
	MinTotal      float64
	MaxTotal      float64
	AvgLaborRatio float64
	AvgTaxRate    float64
	SampleCount   int
	UpdatedAt     time.Time
}

// IsGeneric reports whether the benchmark is the brand-independent fallback.
func (b Benchmark) IsGeneric() bool {
	return b.Brand == nil || strings.TrimSpace(*b.Brand) == ""
}

// DealerStatistics aggregates claim history per dealer. Written by the
// orchestrator after each persisted analysis, read by the dealer fraud rule.
type DealerStatistics struct {
	DealerID        string
	DealerName      string
	TotalClaims     int
	FlaggedClaims   int
	FraudConfirmed  int
	DuplicateClaims int
	AvgClaimAmount  float64
	TotalAmount     float64
	UpdatedAt       time.Time
}

// FraudRate returns the confirmed-fraud share of the dealer's claims.
func (d DealerStatistics) FraudRate() float64 {
	if d.TotalClaims <= 0 {
		return 0
	}
	return float64(d.FraudConfirmed) / float64(d.TotalClaims)
}

// AnalysisResult is the output contract of the analysis pipeline. The caller
// always receives either a complete result or an error, never both.
type AnalysisResult struct {
	ClaimID         string           `json:"claim_id"`
	RiskScore       float64          `json:"risk_score"`
	TriageClass     TriageClass      `json:"triage_class"`
	IsSuspicious    bool             `json:"is_suspicious"`
	Duplicates      []DuplicateMatch `json:"duplicates_found"`
	Signals         []FraudSignal    `json:"fraud_signals"`
	Warnings        []string         `json:"warnings"`
	Summary         string           `json:"summary"`
	ImagesExtracted int              `json:"images_extracted"`
}

// DatabaseHealth captures diagnostic information about the claim database.
type DatabaseHealth struct {
	Driver           string
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    string
	TableExists      bool
	ColumnsPresent   []string
	MissingColumns   []string
	IntegrityCheck   bool
	TotalClaims      int
	Error            string
}

// HealthSummary describes aggregated claim counts per key lifecycle states.
type HealthSummary struct {
	Total     int
	Pending   int
	Analyzing int
	Analyzed  int
	Failed    int
}
