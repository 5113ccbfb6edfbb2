package settlement

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFeeCalculator_Split(t *testing.T) {
	fees, err := NewFeeCalculator(DefaultFeeRate)
	if err != nil {
		t.Fatalf("NewFeeCalculator failed: %v", err)
	}

	gross := decimal.NewFromInt(100)
	fee, net, err := fees.Split(gross)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	if !fee.Equal(decimal.RequireFromString("0.5")) {
		t.Errorf("Expected fee 0.5, got %s", fee.String())
	}
	if !net.Equal(decimal.RequireFromString("99.5")) {
		t.Errorf("Expected net 99.5, got %s", net.String())
	}
}

func TestFeeCalculator_FeePlusNetEqualsGross(t *testing.T) {
	fees, _ := NewFeeCalculator(DefaultFeeRate)

	for _, amount := range []string{"0.01", "1", "33.33", "100", "12345.6789", "0.000001"} {
		gross := decimal.RequireFromString(amount)
		fee, net, err := fees.Split(gross)
		if err != nil {
			t.Fatalf("Split(%s) failed: %v", amount, err)
		}
		if !fee.Add(net).Equal(gross) {
			t.Errorf("fee %s + net %s != gross %s", fee.String(), net.String(), gross.String())
		}
	}
}

func TestFeeCalculator_RejectsNonPositiveGross(t *testing.T) {
	fees, _ := NewFeeCalculator(DefaultFeeRate)

	if _, _, err := fees.Split(decimal.Zero); err == nil {
		t.Error("Expected error for zero gross")
	}
	if _, _, err := fees.Split(decimal.NewFromInt(-5)); err == nil {
		t.Error("Expected error for negative gross")
	}
}

func TestNewFeeCalculator_RejectsInvalidRate(t *testing.T) {
	if _, err := NewFeeCalculator(decimal.NewFromInt(-1)); err == nil {
		t.Error("Expected error for negative rate")
	}
	if _, err := NewFeeCalculator(decimal.NewFromInt(1)); err == nil {
		t.Error("Expected error for rate of 1")
	}
}

func TestFeeCalculator_ZeroRate(t *testing.T) {
	fees, err := NewFeeCalculator(decimal.Zero)
	if err != nil {
		t.Fatalf("NewFeeCalculator failed for zero rate: %v", err)
	}

	gross := decimal.NewFromInt(50)
	fee, net, err := fees.Split(gross)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if !fee.IsZero() {
		t.Errorf("Expected zero fee, got %s", fee.String())
	}
	if !net.Equal(gross) {
		t.Errorf("Expected net == gross, got %s", net.String())
	}
}
