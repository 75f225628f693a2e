package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/jobpilot/internal/types"
)

func TestExtractSalary(t *testing.T) {
	tests := []struct {
		name string
		text string
		want types.Salary
	}{
		{
			"dollar range",
			"Compensation: $80,000 - $120,000 per year",
			types.Salary{Min: 80000, Max: 120000, Currency: "USD", CompensationType: "yearly"},
		},
		{
			"dollar range with to",
			"Pays $90,000 to $110,000",
			types.Salary{Min: 90000, Max: 110000, Currency: "USD", CompensationType: "yearly"},
		},
		{
			"plain range with currency code",
			"60,000 - 75,000 EUR annually",
			types.Salary{Min: 60000, Max: 75000, Currency: "EUR", CompensationType: "yearly"},
		},
		{
			"hourly rate",
			"Rate: $45/hour",
			types.Salary{Min: 45, Max: 45, Currency: "USD", CompensationType: "hourly"},
		},
		{
			"lakhs per annum",
			"CTC 12 - 18 LPA",
			types.Salary{Min: 1200000, Max: 1800000, Currency: "INR", CompensationType: "yearly"},
		},
		{
			"no salary",
			"Competitive compensation and great benefits",
			types.Salary{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractSalary(tt.text))
		})
	}
}
