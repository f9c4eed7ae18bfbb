package vin

import "testing"

func TestIllegalChars(t *testing.T) {
	tests := []struct {
		name string
		vin  string
		want int
	}{
		{"clean VIN", "1HGCM82633A004352", 0},
		{"contains O", "1HGCM82633AO04352", 1},
		{"contains I and Q", "IHGCM82633AQ04352", 2},
		{"lowercase o detected", "1hgcm82633ao04352", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IllegalChars(tt.vin)
			if len(got) != tt.want {
				t.Fatalf("IllegalChars(%q) = %v, want %d characters", tt.vin, got, tt.want)
			}
		})
	}
}

func TestYearCandidates(t *testing.T) {
	tests := []struct {
		code byte
		want []int
	}{
		{'A', []int{1980, 2010}},
		{'L', []int{1990, 2020}},
		{'Y', []int{2000, 2030}},
		{'1', []int{2001, 2031}},
		{'9', []int{2009, 2039}},
	}
	for _, tt := range tests {
		got := YearCandidates(tt.code)
		if len(got) != 2 || got[0] != tt.want[0] || got[1] != tt.want[1] {
			t.Errorf("YearCandidates(%c) = %v, want %v", tt.code, got, tt.want)
		}
	}

	for _, code := range []byte{'I', 'O', 'Q', 'U', 'Z', '0', '#'} {
		if got := YearCandidates(code); got != nil {
			t.Errorf("YearCandidates(%c) = %v, want nil", code, got)
		}
	}
}

func TestYearMatches(t *testing.T) {
	tests := []struct {
		name      string
		code      byte
		year      int
		tolerance int
		want      bool
	}{
		{"exact match newer cycle", 'L', 2020, 1, true},
		{"exact match older cycle", 'L', 1990, 1, true},
		{"within tolerance", 'L', 2021, 1, true},
		{"code A against 2020 misses both cycles", 'A', 2020, 1, false},
		{"just outside tolerance", 'L', 2022, 1, false},
		{"unknown code never matches", 'O', 2020, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := YearMatches(tt.code, tt.year, tt.tolerance); got != tt.want {
				t.Fatalf("YearMatches(%c, %d, %d) = %v, want %v", tt.code, tt.year, tt.tolerance, got, tt.want)
			}
		})
	}
}

func TestYearCode(t *testing.T) {
	if got := YearCode("1HGCM82633A004352"); got != '3' {
		t.Fatalf("YearCode = %c, want 3", got)
	}
	if got := YearCode("SHORT"); got != 0 {
		t.Fatalf("YearCode on short VIN = %c, want zero byte", got)
	}
}

func TestMatchesBrand(t *testing.T) {
	tests := []struct {
		name      string
		vin       string
		brand     string
		wantMatch bool
		wantKnown bool
	}{
		{"honda prefix matches", "1HGCM82633A004352", "Honda", true, true},
		{"toyota two-char prefix", "JTDKB20U293519754", "Toyota", true, true},
		{"bmw vin against toyota", "WBA8E9C59GK647560", "Toyota", false, true},
		{"alias mercedes-benz", "WDDGF8AB5EA940372", "Mercedes-Benz", true, true},
		{"alias chevy", "1G1ZD5ST8LF042739", "chevy", true, true},
		{"unknown brand skips", "ZAM57RTA8F1138791", "Maserati", false, false},
		{"empty brand skips", "1HGCM82633A004352", "", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match, known := MatchesBrand(tt.vin, tt.brand)
			if match != tt.wantMatch || known != tt.wantKnown {
				t.Fatalf("MatchesBrand(%q, %q) = (%v, %v), want (%v, %v)",
					tt.vin, tt.brand, match, known, tt.wantMatch, tt.wantKnown)
			}
		})
	}
}

func TestWMI(t *testing.T) {
	if got := WMI("1hgcm82633a004352"); got != "1HG" {
		t.Fatalf("WMI = %q, want 1HG", got)
	}
	if got := WMI("JT"); got != "JT" {
		t.Fatalf("WMI short input = %q, want JT", got)
	}
}
