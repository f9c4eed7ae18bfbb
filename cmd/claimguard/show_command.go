package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"claimguard/internal/claims"
	"claimguard/internal/store"
)

type claimDetailView struct {
	claimResultView
	Status           string     `json:"status"`
	ClaimNumber      string     `json:"claim_number,omitempty"`
	CustomerName     string     `json:"customer_name,omitempty"`
	DealerName       string     `json:"dealer_name,omitempty"`
	Brand            string     `json:"brand,omitempty"`
	Model            string     `json:"model,omitempty"`
	Year             *int       `json:"year,omitempty"`
	Odometer         *int       `json:"odometer,omitempty"`
	IssueType        string     `json:"issue_type,omitempty"`
	IssueDescription string     `json:"issue_description,omitempty"`
	ClaimDate        string     `json:"claim_date,omitempty"`
	DecisionDate     string     `json:"decision_date,omitempty"`
	PartsCost        *float64   `json:"parts_cost,omitempty"`
	LaborCost        *float64   `json:"labor_cost,omitempty"`
	TaxAmount        *float64   `json:"tax,omitempty"`
	TotalAmount      *float64   `json:"total_amount,omitempty"`
	ReportedStatus   string     `json:"reported_status,omitempty"`
	RejectionReason  string     `json:"rejection_reason,omitempty"`
	SourcePath       string     `json:"source_path,omitempty"`
	ErrorMessage     string     `json:"error_message,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

type matchView struct {
	Kind         string    `json:"kind"`
	MatchedClaim string    `json:"matched_claim_id"`
	Similarity   float64   `json:"similarity"`
	ImageIndex   *int      `json:"image_index,omitempty"`
	MatchedIndex *int      `json:"matched_image_index,omitempty"`
	Details      string    `json:"details,omitempty"`
	DetectedAt   time.Time `json:"detected_at"`
}

type imageView struct {
	Page           int    `json:"page"`
	ImageIndex     int    `json:"image_index"`
	Width          int    `json:"width,omitempty"`
	Height         int    `json:"height,omitempty"`
	ByteSize       int64  `json:"byte_size,omitempty"`
	PerceptualHash string `json:"perceptual_hash,omitempty"`
	ContentHash    string `json:"content_hash,omitempty"`
	IsTemplate     bool   `json:"is_template"`
	TemplateReason string `json:"template_reason,omitempty"`
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <claim-id>",
		Short: "Display one claim with its analysis, signals, and matches",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			claimID := strings.TrimSpace(args[0])
			return ctx.withStore(func(st *store.Store) error {
				c, err := st.GetClaim(cmd.Context(), claimID)
				if err != nil {
					return err
				}
				if c == nil {
					return fmt.Errorf("claim %s not found", claimID)
				}

				images, err := st.ImagesForClaim(cmd.Context(), c.ID)
				if err != nil {
					return err
				}
				matches, err := st.MatchesForClaim(cmd.Context(), c.ID)
				if err != nil {
					return err
				}
				sigs, err := decodeSignals(c)
				if err != nil {
					return err
				}
				warnings, err := decodeWarnings(c)
				if err != nil {
					return err
				}

				if jsonOut {
					return writeJSON(cmd, map[string]any{
						"claim":    buildClaimDetailView(c),
						"signals":  sigs,
						"warnings": warnings,
						"matches":  buildMatchViews(matches),
						"images":   buildImageViews(images),
					})
				}

				printClaimDetail(cmd, c, sigs, warnings, matches, images)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the claim as JSON")
	return cmd
}

func buildClaimDetailView(c *claims.Claim) claimDetailView {
	return claimDetailView{
		claimResultView: claimResultView{
			ClaimID:      c.ID,
			TriageClass:  string(c.TriageClass),
			RiskScore:    c.RiskScore,
			IsSuspicious: c.IsSuspicious,
			VIN:          c.VIN,
			DealerID:     c.DealerID,
			Summary:      c.Summary,
			AnalyzedAt:   c.AnalyzedAt,
		},
		Status:           string(c.Status),
		ClaimNumber:      c.ClaimNumber,
		CustomerName:     c.CustomerName,
		DealerName:       c.DealerName,
		Brand:            c.Brand,
		Model:            c.Model,
		Year:             c.Year,
		Odometer:         c.Odometer,
		IssueType:        c.IssueType,
		IssueDescription: c.IssueDescription,
		ClaimDate:        c.ClaimDate,
		DecisionDate:     c.DecisionDate,
		PartsCost:        c.PartsCost,
		LaborCost:        c.LaborCost,
		TaxAmount:        c.TaxAmount,
		TotalAmount:      c.TotalAmount,
		ReportedStatus:   c.ReportedStatus,
		RejectionReason:  c.RejectionReason,
		SourcePath:       c.SourcePath,
		ErrorMessage:     c.ErrorMessage,
		CreatedAt:        c.CreatedAt,
	}
}

func buildMatchViews(matches []*claims.DuplicateMatch) []matchView {
	views := make([]matchView, 0, len(matches))
	for _, m := range matches {
		views = append(views, matchView{
			Kind:         string(m.Kind),
			MatchedClaim: m.MatchedClaimID,
			Similarity:   m.Similarity,
			ImageIndex:   m.ImageIndex,
			MatchedIndex: m.MatchedIndex,
			Details:      m.Details,
			DetectedAt:   m.CreatedAt,
		})
	}
	return views
}

func buildImageViews(images []*claims.EvidenceImage) []imageView {
	views := make([]imageView, 0, len(images))
	for _, img := range images {
		views = append(views, imageView{
			Page:           img.Page,
			ImageIndex:     img.ImageIndex,
			Width:          img.Width,
			Height:         img.Height,
			ByteSize:       img.ByteSize,
			PerceptualHash: img.PerceptualHash,
			ContentHash:    img.ContentHash,
			IsTemplate:     img.IsTemplate,
			TemplateReason: img.TemplateReason,
		})
	}
	return views
}

func printClaimDetail(cmd *cobra.Command, c *claims.Claim, sigs []claims.FraudSignal, warnings []string, matches []*claims.DuplicateMatch, images []*claims.EvidenceImage) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	vehicleParts := make([]string, 0, 2)
	if strings.TrimSpace(c.Brand) != "" {
		vehicleParts = append(vehicleParts, displayName(c.Brand))
	}
	if strings.TrimSpace(c.Model) != "" {
		vehicleParts = append(vehicleParts, c.Model)
	}
	vehicle := strings.Join(vehicleParts, " ")
	if c.Year != nil {
		if vehicle == "" {
			vehicle = strconv.Itoa(*c.Year)
		} else {
			vehicle = fmt.Sprintf("%s (%d)", vehicle, *c.Year)
		}
	}
	issueType := ""
	if strings.TrimSpace(c.IssueType) != "" {
		issueType = displayName(c.IssueType)
	}
	dealer := c.DealerID
	if c.DealerName != "" {
		dealer = fmt.Sprintf("%s (%s)", c.DealerID, c.DealerName)
	}

	for _, line := range renderSectionHeader("Claim "+c.ID, colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderKeyValues([][2]string{
		{"Claim number", c.ClaimNumber},
		{"Customer", c.CustomerName},
		{"Dealer", dealer},
		{"VIN", c.VIN},
		{"Vehicle", vehicle},
		{"Odometer", formatIntPtr(c.Odometer)},
		{"Issue type", issueType},
		{"Issue", truncate(c.IssueDescription, 90)},
		{"Claim date", c.ClaimDate},
		{"Decision date", c.DecisionDate},
		{"Parts cost", formatMoney(c.PartsCost)},
		{"Labor cost", formatMoney(c.LaborCost)},
		{"Tax", formatMoney(c.TaxAmount)},
		{"Total amount", formatMoney(c.TotalAmount)},
		{"Reported status", c.ReportedStatus},
		{"Rejection reason", c.RejectionReason},
		{"Document", c.SourcePath},
		{"Created", formatTime(c.CreatedAt)},
	}))

	fmt.Fprintln(out)
	for _, line := range renderSectionHeader("Analysis", colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderKeyValues([][2]string{
		{"Status", formatStatusLabel(string(c.Status))},
		{"Risk score", formatScore(c.RiskScore)},
		{"Triage", string(c.TriageClass)},
		{"Suspicious", yesNo(c.IsSuspicious)},
		{"Summary", c.Summary},
		{"Analyzed", formatTimePtr(c.AnalyzedAt)},
		{"Error", c.ErrorMessage},
	}))

	fmt.Fprintln(out)
	for _, line := range renderSectionHeader("Fraud Signals", colorize) {
		fmt.Fprintln(out, line)
	}
	if len(sigs) == 0 {
		fmt.Fprintln(out, "No fraud signals")
	} else {
		rows := make([][]string, 0, len(sigs))
		for _, sig := range sigs {
			rows = append(rows, []string{string(sig.Type), string(sig.Severity), truncate(sig.Description, 70)})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Type", "Severity", "Description"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft},
		))
	}

	if len(warnings) > 0 {
		fmt.Fprintln(out)
		for _, line := range renderSectionHeader("Warnings", colorize) {
			fmt.Fprintln(out, line)
		}
		for _, warning := range warnings {
			fmt.Fprintf(out, "%s- %s\n", statusIndent, warning)
		}
	}

	fmt.Fprintln(out)
	for _, line := range renderSectionHeader("Duplicate Matches", colorize) {
		fmt.Fprintln(out, line)
	}
	if len(matches) == 0 {
		fmt.Fprintln(out, "No duplicate matches")
	} else {
		rows := make([][]string, 0, len(matches))
		for _, m := range matches {
			rows = append(rows, []string{
				string(m.Kind),
				m.MatchedClaimID,
				fmt.Sprintf("%.2f", m.Similarity),
				formatIntPtr(m.ImageIndex),
				truncate(m.Details, 60),
				formatTime(m.CreatedAt),
			})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Kind", "Matched Claim", "Similarity", "Image", "Details", "Detected"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
		))
	}

	fmt.Fprintln(out)
	for _, line := range renderSectionHeader("Evidence Images", colorize) {
		fmt.Fprintln(out, line)
	}
	if len(images) == 0 {
		fmt.Fprintln(out, "No images recorded")
		return
	}
	rows := make([][]string, 0, len(images))
	for _, img := range images {
		dims := "-"
		if img.Width > 0 && img.Height > 0 {
			dims = fmt.Sprintf("%dx%d", img.Width, img.Height)
		}
		rows = append(rows, []string{
			strconv.Itoa(img.Page),
			strconv.Itoa(img.ImageIndex),
			strconv.FormatInt(img.ByteSize, 10),
			dims,
			yesNo(img.IsTemplate),
			img.TemplateReason,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Page", "Index", "Bytes", "Dimensions", "Template", "Reason"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignRight, alignLeft, alignLeft, alignLeft},
	))
}
