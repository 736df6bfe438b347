package interest

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestSkim(t *testing.T) {
	cases := []struct {
		name   string
		amount string
		rate   string
		want   string
	}{
		{"whole", "6000", "10", "600"},
		{"rounds to cents", "1000", "3.333", "33.33"},
		{"zero rate", "5000", "0", "0"},
		{"small amount", "0.01", "10", "0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Skim(decimal.RequireFromString(tc.amount), decimal.RequireFromString(tc.rate))
			if err != nil {
				t.Fatalf("skim: %v", err)
			}
			if !got.Equal(decimal.RequireFromString(tc.want)) {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestSkimRejectsNegativeRate(t *testing.T) {
	if _, err := Skim(decimal.NewFromInt(1000), decimal.NewFromInt(-1)); err != ErrNegativeRate {
		t.Fatalf("expected ErrNegativeRate, got %v", err)
	}
}

func TestValidateLoanRate(t *testing.T) {
	for _, rate := range []string{"1", "10", "20"} {
		if err := ValidateLoanRate(decimal.RequireFromString(rate)); err != nil {
			t.Fatalf("rate %s should be valid: %v", rate, err)
		}
	}
	for _, rate := range []string{"0", "0.5", "20.01", "-3"} {
		if err := ValidateLoanRate(decimal.RequireFromString(rate)); err != ErrRateOutOfRange {
			t.Fatalf("rate %s should be rejected, got %v", rate, err)
		}
	}
}
