// Package vin encodes the structural rules of ISO 3779 vehicle identification
// numbers needed by the fraud detector: length, legal characters, World
// Manufacturer Identifier prefixes, and the position-10 model-year code.
package vin

import "strings"

// Length is the character count of a complete VIN.
const Length = 17

// yearCodePosition is the zero-based index of the model-year character.
const yearCodePosition = 9

// IllegalChars returns the characters of the VIN that never appear in a valid
// one. I, O, and Q are excluded from the VIN alphabet to avoid confusion with
// 1 and 0.
func IllegalChars(vin string) []rune {
	var illegal []rune
	for _, r := range strings.ToUpper(vin) {
		switch r {
		case 'I', 'O', 'Q':
			illegal = append(illegal, r)
		}
	}
	return illegal
}

// yearCodes maps the position-10 code to its base model year. The code cycles
// every 30 years; U, Z, 0 and the illegal I/O/Q are never used.
var yearCodes = map[byte]int{
	'A': 1980, 'B': 1981, 'C': 1982, 'D': 1983, 'E': 1984,
	'F': 1985, 'G': 1986, 'H': 1987, 'J': 1988, 'K': 1989,
	'L': 1990, 'M': 1991, 'N': 1992, 'P': 1993, 'R': 1994,
	'S': 1995, 'T': 1996, 'V': 1997, 'W': 1998, 'X': 1999,
	'Y': 2000,
	'1': 2001, '2': 2002, '3': 2003, '4': 2004, '5': 2005,
	'6': 2006, '7': 2007, '8': 2008, '9': 2009,
}

// YearCode returns the model-year character of a VIN, or 0 when the VIN is
// too short.
func YearCode(vin string) byte {
	if len(vin) <= yearCodePosition {
		return 0
	}
	return strings.ToUpper(vin)[yearCodePosition]
}

// YearCandidates lists the model years a position-10 code can stand for
// within the 1980-2039 range, oldest first. Returns nil for codes outside
// the VIN alphabet.
func YearCandidates(code byte) []int {
	base, ok := yearCodes[code]
	if !ok {
		return nil
	}
	return []int{base, base + 30}
}

// YearMatches reports whether a claimed model year is consistent with the
// VIN year code within the given tolerance. Unknown codes never match.
func YearMatches(code byte, year, tolerance int) bool {
	for _, candidate := range YearCandidates(code) {
		diff := year - candidate
		if diff < 0 {
			diff = -diff
		}
		if diff <= tolerance {
			return true
		}
	}
	return false
}

// wmiPrefixes maps a lowercase brand name to the VIN prefixes its vehicles
// carry. Prefixes are two or three characters; a VIN is consistent with the
// brand when it starts with any of them. The table covers the brands seen in
// warranty claim volume; absent brands skip the check rather than flag.
var wmiPrefixes = map[string][]string{
	"toyota":     {"JT", "4T", "5T", "2T", "3TM"},
	"lexus":      {"JTH", "JTJ", "2T2", "58A"},
	"honda":      {"JHM", "JHL", "1HG", "2HG", "2HK", "5FN", "19X"},
	"acura":      {"JH4", "19U", "5J8"},
	"ford":       {"1F", "2F", "3F", "WF0"},
	"chevrolet":  {"1G1", "2G1", "3G1", "1GC", "KL1"},
	"gmc":        {"1GT", "1GD", "1GK"},
	"cadillac":   {"1G6", "1GY"},
	"bmw":        {"WBA", "WBS", "WBX", "WBY", "4US", "5UX"},
	"mini":       {"WMW"},
	"mercedes":   {"WDB", "WDC", "WDD", "W1K", "W1N", "4JG"},
	"volkswagen": {"WVW", "WV1", "WV2", "1VW", "3VW"},
	"audi":       {"WAU", "WA1", "TRU"},
	"porsche":    {"WP0", "WP1"},
	"nissan":     {"JN1", "JN8", "1N4", "1N6", "5N1"},
	"infiniti":   {"JNK", "JNR", "5N3"},
	"hyundai":    {"KMH", "KM8", "5NP", "5NM"},
	"kia":        {"KNA", "KND", "KNM", "5XY", "5XX"},
	"subaru":     {"JF1", "JF2", "4S3", "4S4"},
	"mazda":      {"JM1", "JM3", "1YV", "3MZ"},
	"mitsubishi": {"JA3", "JA4", "4A3", "4A4"},
	"dodge":      {"1B3", "2B3", "3B3", "1C3"},
	"chrysler":   {"1C3", "2C3", "3C4"},
	"jeep":       {"1J4", "1J8", "1C4"},
	"ram":        {"1C6", "3C6"},
	"tesla":      {"5YJ", "7SA"},
	"volvo":      {"YV1", "YV4"},
	"jaguar":     {"SAJ"},
	"landrover":  {"SAL"},
}

// brandAliases folds common reported spellings into the canonical table key.
var brandAliases = map[string]string{
	"mercedes-benz": "mercedes",
	"mercedes benz": "mercedes",
	"land rover":    "landrover",
	"land-rover":    "landrover",
	"vw":            "volkswagen",
	"chevy":         "chevrolet",
}

// MatchesBrand checks the VIN's WMI prefix against the claimed brand.
// The second return value is false when the brand is not in the table, in
// which case no judgement is possible and callers should skip the rule.
func MatchesBrand(vin, brand string) (matches, known bool) {
	key := strings.ToLower(strings.TrimSpace(brand))
	if alias, ok := brandAliases[key]; ok {
		key = alias
	}
	prefixes, ok := wmiPrefixes[key]
	if !ok {
		return false, false
	}
	upper := strings.ToUpper(vin)
	for _, prefix := range prefixes {
		if strings.HasPrefix(upper, prefix) {
			return true, true
		}
	}
	return false, true
}

// WMI returns the first three characters of the VIN, the World Manufacturer
// Identifier, or the whole VIN when shorter.
func WMI(vin string) string {
	upper := strings.ToUpper(strings.TrimSpace(vin))
	if len(upper) <= 3 {
		return upper
	}
	return upper[:3]
}
