package washbay

import "github.com/shopspring/decimal"

// PriceList holds the additive price contributions applied at billing.
type PriceList struct {
	Base          decimal.Decimal
	PreWashByHand decimal.Decimal
	HandDry       decimal.Decimal
	Waxing        decimal.Decimal
}

// DefaultPrices is the price list used when none is configured.
var DefaultPrices = PriceList{
	Base:          decimal.RequireFromString("5.00"),
	PreWashByHand: decimal.RequireFromString("1.50"),
	HandDry:       decimal.RequireFromString("1.50"),
	Waxing:        decimal.RequireFromString("0.70"),
}

// Quote computes the charge for a wash with the given extras.
func (p PriceList) Quote(e Extras) decimal.Decimal {
	total := p.Base
	if e.PreWashByHand {
		total = total.Add(p.PreWashByHand)
	}
	if e.HandDry {
		total = total.Add(p.HandDry)
	}
	if e.Waxing {
		total = total.Add(p.Waxing)
	}
	return total
}
