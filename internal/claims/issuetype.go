package claims

import "strings"

// Issue types recognized by the classifier. Benchmarks are keyed by these
// values, so the set must stay in sync with the training job.
const (
	IssueTransmission    = "transmission"
	IssueEngine          = "engine"
	IssueBrakes          = "brakes"
	IssueElectrical      = "electrical"
	IssueSuspension      = "suspension"
	IssueSteering        = "steering"
	IssueCooling         = "cooling"
	IssueAirConditioning = "air_conditioning"
	IssueBody            = "body"
	IssueGeneral         = "general"
)

// issueKeywords maps each issue type to the description keywords that select
// it. Order matters: the first type with a keyword hit wins, so more specific
// systems come before catch-alls like engine.
var issueKeywords = []struct {
	issueType string
	keywords  []string
}{
	{IssueTransmission, []string{"transmission", "gearbox", "clutch", "torque converter", "shifting", "gear"}},
	{IssueBrakes, []string{"brake", "rotor", "caliper", "abs"}},
	{IssueSteering, []string{"steering", "rack and pinion", "tie rod", "power steering"}},
	{IssueSuspension, []string{"suspension", "shock absorber", "strut", "control arm", "ball joint"}},
	{IssueCooling, []string{"radiator", "coolant", "overheat", "water pump", "thermostat"}},
	{IssueAirConditioning, []string{"air conditioning", "a/c", "compressor", "refrigerant", "hvac"}},
	{IssueElectrical, []string{"electrical", "battery", "alternator", "starter", "wiring", "sensor", "ecu"}},
	{IssueEngine, []string{"engine", "motor", "cylinder", "piston", "crankshaft", "camshaft", "turbo", "oil leak", "head gasket"}},
	{IssueBody, []string{"door", "window", "paint", "panel", "bumper", "windshield", "seal", "trim"}},
}

// complexRepairKeywords flag repairs that cannot plausibly be parts-only.
// A zero labor amount on one of these is a pattern signal.
var complexRepairKeywords = []string{"transmission", "engine", "steering", "suspension"}

// ClassifyIssueType buckets a free-text issue description into a known issue
// type for benchmark lookups. Unrecognized descriptions fall back to general.
func ClassifyIssueType(description string) string {
	lowered := strings.ToLower(description)
	if strings.TrimSpace(lowered) == "" {
		return IssueGeneral
	}
	for _, group := range issueKeywords {
		for _, keyword := range group.keywords {
			if strings.Contains(lowered, keyword) {
				return group.issueType
			}
		}
	}
	return IssueGeneral
}

// IsComplexRepair reports whether the description names a drivetrain or
// chassis system that always requires labor.
func IsComplexRepair(description string) bool {
	lowered := strings.ToLower(description)
	for _, keyword := range complexRepairKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}
