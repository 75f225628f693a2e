package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/jonathan/jobpilot/internal/types"
)

// salaryPattern pairs a compiled pattern with how its captures map to a
// Salary. Patterns are tried in order; the first match wins.
type salaryPattern struct {
	re    *regexp.Regexp
	build func(m []string) types.Salary
}

var salaryPatterns = []salaryPattern{
	// $80,000 - $120,000
	{
		re: regexp.MustCompile(`\$\s*([\d,]+(?:\.\d+)?)\s*[-–]\s*\$?\s*([\d,]+(?:\.\d+)?)`),
		build: func(m []string) types.Salary {
			return types.Salary{Min: parseAmount(m[1]), Max: parseAmount(m[2]), Currency: "USD", CompensationType: "yearly"}
		},
	},
	// $80,000 to $120,000
	{
		re: regexp.MustCompile(`(?i)\$\s*([\d,]+(?:\.\d+)?)\s+to\s+\$?\s*([\d,]+(?:\.\d+)?)`),
		build: func(m []string) types.Salary {
			return types.Salary{Min: parseAmount(m[1]), Max: parseAmount(m[2]), Currency: "USD", CompensationType: "yearly"}
		},
	},
	// 80000 - 120000 USD
	{
		re: regexp.MustCompile(`(?i)([\d,]+(?:\.\d+)?)\s*[-–]\s*([\d,]+(?:\.\d+)?)\s*(usd|eur|gbp|inr)`),
		build: func(m []string) types.Salary {
			return types.Salary{Min: parseAmount(m[1]), Max: parseAmount(m[2]), Currency: strings.ToUpper(m[3]), CompensationType: "yearly"}
		},
	},
	// $45/hour
	{
		re: regexp.MustCompile(`(?i)\$\s*([\d,]+(?:\.\d+)?)\s*/\s*(?:hour|hr)`),
		build: func(m []string) types.Salary {
			amount := parseAmount(m[1])
			return types.Salary{Min: amount, Max: amount, Currency: "USD", CompensationType: "hourly"}
		},
	},
	// 12 - 18 LPA (lakhs per annum)
	{
		re: regexp.MustCompile(`(?i)([\d.]+)\s*[-–]\s*([\d.]+)\s*lpa`),
		build: func(m []string) types.Salary {
			return types.Salary{Min: parseAmount(m[1]) * 100000, Max: parseAmount(m[2]) * 100000, Currency: "INR", CompensationType: "yearly"}
		},
	},
}

// ExtractSalary tries the salary patterns in order and returns the first
// match. Currency is detected by symbol or keyword.
func ExtractSalary(text string) types.Salary {
	for _, p := range salaryPatterns {
		if m := p.re.FindStringSubmatch(text); m != nil {
			s := p.build(m)
			if c := detectCurrency(text); c != "" {
				s.Currency = c
			}
			return s
		}
	}
	return types.Salary{}
}

func detectCurrency(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "lpa") || strings.Contains(text, "₹") || strings.Contains(lower, "inr"):
		return "INR"
	case strings.Contains(text, "€") || strings.Contains(lower, "eur"):
		return "EUR"
	case strings.Contains(text, "£") || strings.Contains(lower, "gbp"):
		return "GBP"
	case strings.Contains(text, "$") || strings.Contains(lower, "usd"):
		return "USD"
	}
	return ""
}

func parseAmount(s string) float64 {
	s = strings.ReplaceAll(s, ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
