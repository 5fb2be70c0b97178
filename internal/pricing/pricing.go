package pricing

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrPackageTypeRequired  = errors.New("package type required")
	ErrWeightInvalid        = errors.New("weight must be positive")
	ErrDimensionInvalid     = errors.New("dimensions must be non-negative")
	ErrDeclaredValueInvalid = errors.New("declared value must be non-negative")
)

// 体积重系数：长×宽×高(cm) / 5000 = 体积重(kg)
var volumetricDivisor = decimal.NewFromInt(5000)

// 每公斤费率表（按包裹类型）
var ratePerKG = map[string]decimal.Decimal{
	"document":    decimal.RequireFromString("5.00"),
	"small":       decimal.RequireFromString("8.00"),
	"medium":      decimal.RequireFromString("10.00"),
	"heavy":       decimal.RequireFromString("15.00"),
	"food":        decimal.RequireFromString("12.00"),
	"electronics": decimal.RequireFromString("18.00"),
	"fragile":     decimal.RequireFromString("20.00"),
	"custom":      decimal.RequireFromString("10.00"),
}

var (
	defaultRatePerKG    = decimal.RequireFromString("8.00")
	minimumCharge       = decimal.RequireFromString("50.00")
	fragileMultiplier   = decimal.RequireFromString("1.20")
	hazardousMultiplier = decimal.RequireFromString("1.30")
	insuranceRate       = decimal.RequireFromString("0.01")
)

// Input 计价输入
type Input struct {
	PackageType   string
	WeightKG      decimal.Decimal
	LengthCM      decimal.Decimal
	WidthCM       decimal.Decimal
	HeightCM      decimal.Decimal
	DeclaredValue decimal.Decimal
	Fragile       bool
	Hazardous     bool
}

// Quote 计价结果
type Quote struct {
	ChargeableWeight decimal.Decimal `json:"chargeable_weight"` // 计费重量（实重与体积重取大）
	RatePerKG        decimal.Decimal `json:"rate_per_kg"`       // 费率
	BasePrice        decimal.Decimal `json:"base_price"`        // 基础运费（含最低消费）
	InsuranceFee     decimal.Decimal `json:"insurance_fee"`     // 保价费
	Total            decimal.Decimal `json:"total"`             // 最终价格（2 位小数）
}

// Calculate 计算包裹价格
// 规则：计费重量 = max(实重, 体积重)；基础价 = 计费重量 × 费率，下限 50；
// 易碎 ×1.20、危险品 ×1.30（先后相乘）；保价费 = 声明价值的 1%；
// 结果四舍五入保留 2 位小数。
func Calculate(input Input) (*Quote, error) {
	packageType := strings.ToLower(strings.TrimSpace(input.PackageType))
	if packageType == "" {
		return nil, ErrPackageTypeRequired
	}
	if !input.WeightKG.IsPositive() {
		return nil, ErrWeightInvalid
	}
	if input.LengthCM.IsNegative() || input.WidthCM.IsNegative() || input.HeightCM.IsNegative() {
		return nil, ErrDimensionInvalid
	}
	if input.DeclaredValue.IsNegative() {
		return nil, ErrDeclaredValueInvalid
	}

	volumetricWeight := input.LengthCM.Mul(input.WidthCM).Mul(input.HeightCM).Div(volumetricDivisor)
	chargeableWeight := input.WeightKG
	if volumetricWeight.GreaterThan(chargeableWeight) {
		chargeableWeight = volumetricWeight
	}

	rate, ok := ratePerKG[packageType]
	if !ok {
		rate = defaultRatePerKG
	}

	basePrice := chargeableWeight.Mul(rate)
	if basePrice.LessThan(minimumCharge) {
		basePrice = minimumCharge
	}

	total := basePrice
	if input.Fragile {
		total = total.Mul(fragileMultiplier)
	}
	if input.Hazardous {
		total = total.Mul(hazardousMultiplier)
	}

	insuranceFee := decimal.Zero
	if input.DeclaredValue.IsPositive() {
		insuranceFee = input.DeclaredValue.Mul(insuranceRate)
		total = total.Add(insuranceFee)
	}

	return &Quote{
		ChargeableWeight: chargeableWeight,
		RatePerKG:        rate,
		BasePrice:        basePrice,
		InsuranceFee:     insuranceFee,
		Total:            total.Round(2),
	}, nil
}
