package signals

import (
	"fmt"

	"claimguard/internal/claims"
	"claimguard/internal/vin"
)

// yearTolerance allows the off-by-one common at model-year boundaries, where
// vehicles are sold months before their nominal year.
const yearTolerance = 1

// checkVIN validates the VIN's structure and its consistency with the
// claimed brand and model year. Brands and year codes outside the lookup
// tables skip their checks rather than flag.
func checkVIN(in *ruleInput, out *findings) {
	c := in.claim
	if c.VIN == "" {
		return
	}

	if len(c.VIN) != vin.Length {
		out.add(claims.SignalVINInvalidLength, claims.SeverityMedium,
			fmt.Sprintf("VIN has %d characters, expected %d", len(c.VIN), vin.Length),
			map[string]any{"vin": c.VIN, "length": len(c.VIN)})
	}
	if illegal := vin.IllegalChars(c.VIN); len(illegal) > 0 {
		out.add(claims.SignalVINInvalidChars, claims.SeverityMedium,
			fmt.Sprintf("VIN contains characters never used in valid VINs: %s", string(illegal)),
			map[string]any{"vin": c.VIN, "illegal_chars": string(illegal)})
	}

	if c.Brand != "" {
		if matches, known := vin.MatchesBrand(c.VIN, c.Brand); known && !matches {
			out.add(claims.SignalVINBrandMismatch, claims.SeverityHigh,
				fmt.Sprintf("VIN prefix %s does not belong to %s", vin.WMI(c.VIN), c.Brand),
				map[string]any{"vin": c.VIN, "wmi": vin.WMI(c.VIN), "claimed_brand": c.Brand})
		}
	}

	if c.Year != nil {
		code := vin.YearCode(c.VIN)
		candidates := vin.YearCandidates(code)
		if len(candidates) > 0 && !vin.YearMatches(code, *c.Year, yearTolerance) {
			out.add(claims.SignalVINModelMismatch, claims.SeverityHigh,
				fmt.Sprintf("VIN year code %q means %v, claim says %d", string(code), candidates, *c.Year),
				map[string]any{
					"vin":             c.VIN,
					"year_code":       string(code),
					"year_candidates": candidates,
					"claimed_year":    *c.Year,
				})
		}
	}
}
