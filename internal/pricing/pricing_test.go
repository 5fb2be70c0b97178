package pricing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func d(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func TestCalculateMinimumChargeFloor(t *testing.T) {
	// small 2kg：体积重 10×10×10/5000=0.2kg 被忽略，2×8=16 低于最低消费 50
	quote, err := Calculate(Input{
		PackageType: "small",
		WeightKG:    d("2"),
		LengthCM:    d("10"),
		WidthCM:     d("10"),
		HeightCM:    d("10"),
	})
	if err != nil {
		t.Fatalf("Calculate error: %v", err)
	}
	if !quote.Total.Equal(d("50.00")) {
		t.Fatalf("expected 50.00, got %s", quote.Total.String())
	}
	if !quote.ChargeableWeight.Equal(d("2")) {
		t.Fatalf("expected chargeable weight 2, got %s", quote.ChargeableWeight.String())
	}
}

func TestCalculateFragileWithInsurance(t *testing.T) {
	// fragile 5kg：5×20=100 → ×1.20=120 → +保价 1000×1%=10 → 130
	quote, err := Calculate(Input{
		PackageType:   "fragile",
		WeightKG:      d("5"),
		DeclaredValue: d("1000"),
		Fragile:       true,
	})
	if err != nil {
		t.Fatalf("Calculate error: %v", err)
	}
	if !quote.Total.Equal(d("130.00")) {
		t.Fatalf("expected 130.00, got %s", quote.Total.String())
	}
	if !quote.InsuranceFee.Equal(d("10.00")) {
		t.Fatalf("expected insurance 10.00, got %s", quote.InsuranceFee.String())
	}
}

func TestCalculateSurchargesCompound(t *testing.T) {
	// heavy 10kg：10×15=150 → ×1.20 → ×1.30 = 234
	quote, err := Calculate(Input{
		PackageType: "heavy",
		WeightKG:    d("10"),
		Fragile:     true,
		Hazardous:   true,
	})
	if err != nil {
		t.Fatalf("Calculate error: %v", err)
	}
	if !quote.Total.Equal(d("234.00")) {
		t.Fatalf("expected 234.00, got %s", quote.Total.String())
	}
}

func TestCalculateVolumetricWeightWins(t *testing.T) {
	// 50×40×30/5000 = 12kg 体积重 > 1kg 实重，document 12×5=60
	quote, err := Calculate(Input{
		PackageType: "document",
		WeightKG:    d("1"),
		LengthCM:    d("50"),
		WidthCM:     d("40"),
		HeightCM:    d("30"),
	})
	if err != nil {
		t.Fatalf("Calculate error: %v", err)
	}
	if !quote.ChargeableWeight.Equal(d("12")) {
		t.Fatalf("expected chargeable weight 12, got %s", quote.ChargeableWeight.String())
	}
	if !quote.Total.Equal(d("60.00")) {
		t.Fatalf("expected 60.00, got %s", quote.Total.String())
	}
}

func TestCalculateUnknownTypeUsesDefaultRate(t *testing.T) {
	quote, err := Calculate(Input{
		PackageType: "mystery",
		WeightKG:    d("10"),
	})
	if err != nil {
		t.Fatalf("Calculate error: %v", err)
	}
	if !quote.Total.Equal(d("80.00")) {
		t.Fatalf("expected 80.00 at default rate, got %s", quote.Total.String())
	}
}

func TestCalculateRoundsHalfUp(t *testing.T) {
	// custom 7.005kg：7.005×10=70.05 → ×1.20=84.06；保价 0.125 → 84.185 → 84.19
	quote, err := Calculate(Input{
		PackageType:   "custom",
		WeightKG:      d("7.005"),
		DeclaredValue: d("12.5"),
		Fragile:       true,
	})
	if err != nil {
		t.Fatalf("Calculate error: %v", err)
	}
	if !quote.Total.Equal(d("84.19")) {
		t.Fatalf("expected 84.19, got %s", quote.Total.String())
	}
}

func TestCalculateValidation(t *testing.T) {
	if _, err := Calculate(Input{WeightKG: d("1")}); !errors.Is(err, ErrPackageTypeRequired) {
		t.Fatalf("expected ErrPackageTypeRequired, got %v", err)
	}
	if _, err := Calculate(Input{PackageType: "small"}); !errors.Is(err, ErrWeightInvalid) {
		t.Fatalf("expected ErrWeightInvalid, got %v", err)
	}
	if _, err := Calculate(Input{PackageType: "small", WeightKG: d("-1")}); !errors.Is(err, ErrWeightInvalid) {
		t.Fatalf("expected ErrWeightInvalid for negative weight, got %v", err)
	}
	if _, err := Calculate(Input{PackageType: "small", WeightKG: d("1"), LengthCM: d("-1")}); !errors.Is(err, ErrDimensionInvalid) {
		t.Fatalf("expected ErrDimensionInvalid, got %v", err)
	}
	if _, err := Calculate(Input{PackageType: "small", WeightKG: d("1"), DeclaredValue: d("-5")}); !errors.Is(err, ErrDeclaredValueInvalid) {
		t.Fatalf("expected ErrDeclaredValueInvalid, got %v", err)
	}
}
