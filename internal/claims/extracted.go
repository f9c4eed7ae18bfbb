package claims

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ExtractedClaim is the input contract from the ingestion/extraction
// collaborator. Every field except RawText is optional; missing values
// degrade individual rules rather than failing the claim.
type ExtractedClaim struct {
	ClaimID          string           `json:"claim_id,omitempty"`
	CustomerName     string           `json:"customer_name,omitempty"`
	DealerID         string           `json:"dealer_id,omitempty"`
	DealerName       string           `json:"dealer_name,omitempty"`
	VIN              string           `json:"vin,omitempty"`
	Brand            string           `json:"brand,omitempty"`
	Model            string           `json:"model,omitempty"`
	Year             *int             `json:"year,omitempty"`
	Odometer         *int             `json:"odometer,omitempty"`
	IssueDescription string           `json:"issue_description,omitempty"`
	ClaimDate        string           `json:"claim_date,omitempty"`
	DecisionDate     string           `json:"decision_date,omitempty"`
	PartsCost        *float64         `json:"parts_cost,omitempty"`
	LaborCost        *float64         `json:"labor_cost,omitempty"`
	Tax              *float64         `json:"tax,omitempty"`
	TotalAmount      *float64         `json:"total_amount,omitempty"`
	Status           string           `json:"status,omitempty"`
	RejectionReason  string           `json:"rejection_reason,omitempty"`
	RawText          string           `json:"raw_text"`
	Images           []ExtractedImage `json:"images,omitempty"`
}

// ExtractedImage carries one candidate evidence image. Bytes may be inline
// (base64 in JSON) or referenced by path; hashes are computed at ingestion
// when the extractor did not supply them.
type ExtractedImage struct {
	Bytes          []byte            `json:"bytes,omitempty"`
	Path           string            `json:"path,omitempty"`
	Page           int               `json:"page"`
	Index          int               `json:"index"`
	Method         string            `json:"method,omitempty"`
	BBox           []float64         `json:"bbox,omitempty"`
	Width          int               `json:"width"`
	Height         int               `json:"height"`
	ByteSize       int64             `json:"byte_size"`
	PerceptualHash string            `json:"perceptual_hash,omitempty"`
	ContentHash    string            `json:"content_hash,omitempty"`
	EXIF           map[string]string `json:"exif,omitempty"`
}

// DeriveClaimID produces a stable claim identifier. A reported claim number
// wins; otherwise the identifier is derived from a digest of the raw text so
// re-ingesting the same document maps to the same claim. A random identifier
// is the last resort for empty documents.
func DeriveClaimID(claimNumber, rawText string) string {
	if trimmed := normalizeIdentifier(claimNumber); trimmed != "" {
		return trimmed
	}
	if strings.TrimSpace(rawText) != "" {
		digest := sha256.Sum256([]byte(rawText))
		return "CLM-" + hex.EncodeToString(digest[:])[:16]
	}
	return "CLM-" + uuid.NewString()
}

// DeriveDealerID produces a stable dealer identifier from a dealer name.
func DeriveDealerID(name string) string {
	return normalizeIdentifier(name)
}

func normalizeIdentifier(value string) string {
	value = strings.ToUpper(strings.TrimSpace(value))
	if value == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(value))
	lastDash := false
	for _, r := range value {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

// ToClaim converts extraction output into a Claim ready for persistence.
// Derived analysis fields start zeroed; the pipeline fills them in.
func (e ExtractedClaim) ToClaim(now time.Time) Claim {
	dealerName := strings.TrimSpace(e.DealerName)
	if dealerName == "" {
		dealerName = strings.TrimSpace(e.CustomerName)
	}
	dealerID := strings.TrimSpace(e.DealerID)
	if dealerID == "" && dealerName != "" {
		dealerID = DeriveDealerID(dealerName)
	}

	return Claim{
		ID:               DeriveClaimID(e.ClaimID, e.RawText),
		ClaimNumber:      strings.TrimSpace(e.ClaimID),
		CustomerName:     strings.TrimSpace(e.CustomerName),
		DealerID:         dealerID,
		DealerName:       dealerName,
		VIN:              NormalizeVIN(e.VIN),
		Brand:            strings.TrimSpace(e.Brand),
		Model:            strings.TrimSpace(e.Model),
		Year:             e.Year,
		Odometer:         e.Odometer,
		IssueDescription: strings.TrimSpace(e.IssueDescription),
		IssueType:        ClassifyIssueType(e.IssueDescription),
		ClaimDate:        strings.TrimSpace(e.ClaimDate),
		DecisionDate:     strings.TrimSpace(e.DecisionDate),
		PartsCost:        e.PartsCost,
		LaborCost:        e.LaborCost,
		TaxAmount:        e.Tax,
		TotalAmount:      e.TotalAmount,
		ReportedStatus:   strings.TrimSpace(e.Status),
		RejectionReason:  strings.TrimSpace(e.RejectionReason),
		RawText:          e.RawText,
		Status:           StatusPending,
		TriageClass:      TriageAutoApprove,
		CreatedAt:        now.UTC(),
		UpdatedAt:        now.UTC(),
	}
}

// NormalizeVIN strips whitespace and uppercases a reported VIN without
// validating it; validation is a fraud rule, not an input gate.
func NormalizeVIN(vin string) string {
	return strings.ToUpper(strings.Join(strings.Fields(vin), ""))
}

func (e ExtractedImage) String() string {
	return fmt.Sprintf("page %d image %d (%dx%d, %d bytes)", e.Page, e.Index, e.Width, e.Height, e.ByteSize)
}
