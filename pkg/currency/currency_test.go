package currency

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestRoundToMinorUnit(t *testing.T) {
	cases := []struct {
		value    string
		decimals int32
		want     string
	}{
		{"2.5", 0, "2"},     // half to even: down
		{"3.5", 0, "4"},     // half to even: up
		{"0.125", 2, "0.12"},
		{"0.135", 2, "0.14"},
		{"1.004", 2, "1"},
		{"1.006", 2, "1.01"},
	}

	for _, tc := range cases {
		got := RoundToMinorUnit(decimal.RequireFromString(tc.value), tc.decimals)
		if !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Errorf("RoundToMinorUnit(%s, %d) = %s, want %s", tc.value, tc.decimals, got, tc.want)
		}
	}
}

func TestConvertWithRate(t *testing.T) {
	got := ConvertWithRate(
		decimal.RequireFromString("2"),
		decimal.RequireFromString("0.05"),
		8,
	)
	if !got.Equal(decimal.RequireFromString("0.1")) {
		t.Fatalf("got %s, want 0.1", got)
	}
}
