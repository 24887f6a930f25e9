package types_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/havelihousing/backoffice/types"
)

func TestFormatINR(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "₹0.00"},
		{"999", "₹999.00"},
		{"1234", "₹1,234.00"},
		{"12345", "₹12,345.00"},
		{"500000", "₹5,00,000.00"},
		{"12345678.5", "₹1,23,45,678.50"},
		{"-30000", "-₹30,000.00"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := types.FormatINR(decimal.RequireFromString(tt.in))
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"500000", "500000", false},
		{" 5,00,000 ", "500000", false},
		{"2800.50", "2800.5", false},
		{"five lakh", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := types.ParseAmount(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestValidAmount(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"0", true},
		{"500000", true},
		{"1.5", true},
		{"1.50", true},
		{"1.500", true},
		{"-30000.25", true},
		{"999999999999.99", true},
		{"1.005", false},
		{"0.004", false},
		{"1000000000000", false},
		{"-1000000000000", false},
		{"1.0000000000000000000000000000000000001", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := types.ValidAmount(decimal.RequireFromString(tt.in)); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
