package catalog

import "github.com/shopspring/decimal"

// Pure cost rollups over the BOM graph. Persisted cost_price values are
// produced here and ONLY here, so a recipe change can never leave a
// stale figure behind.

var hundred = decimal.NewFromInt(100)

// RecipeCost is the roll's cost: Σ amount_per_roll × cost_per_unit.
// A roll with no recipe lines costs 0; that is a data-integrity warning
// for the back office, not an error.
func RecipeCost(lines []RecipeLine) decimal.Decimal {
	cost := decimal.Zero
	for _, l := range lines {
		cost = cost.Add(l.AmountPerRoll.Mul(l.CostPerUnit))
	}
	return cost
}

// CompositionCost is the set's cost: Σ quantity × roll cost_price.
func CompositionCost(items []SetItem) decimal.Decimal {
	cost := decimal.Zero
	for _, it := range items {
		cost = cost.Add(it.RollCostPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return cost
}

// RollPricing carries the derived display figures for one roll.
// MarginPercent is nil when the cost is zero (division guard) and the
// figure is reported as unavailable.
type RollPricing struct {
	CostPrice     decimal.Decimal  `json:"cost_price"`
	SalePrice     decimal.Decimal  `json:"sale_price"`
	GrossProfit   decimal.Decimal  `json:"gross_profit"`
	MarginPercent *decimal.Decimal `json:"margin_percent"`
}

func RollFigures(r *Roll) RollPricing {
	p := RollPricing{
		CostPrice:   r.CostPrice,
		SalePrice:   r.SalePrice,
		GrossProfit: r.SalePrice.Sub(r.CostPrice),
	}
	if !r.CostPrice.IsZero() {
		m := p.GrossProfit.Div(r.CostPrice).Mul(hundred)
		p.MarginPercent = &m
	}
	return p
}

// SetPricing adds the set's informational discount: how much cheaper
// the set is than buying its rolls individually.
type SetPricing struct {
	CostPrice       decimal.Decimal  `json:"cost_price"`
	SetPrice        decimal.Decimal  `json:"set_price"`
	RetailPrice     decimal.Decimal  `json:"retail_price"`
	GrossProfit     decimal.Decimal  `json:"gross_profit"`
	MarginPercent   *decimal.Decimal `json:"margin_percent"`
	DiscountPercent *decimal.Decimal `json:"discount_percent"`
}

func SetFigures(s *Set, items []SetItem) SetPricing {
	retail := decimal.Zero
	for _, it := range items {
		retail = retail.Add(it.RollSalePrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	p := SetPricing{
		CostPrice:   s.CostPrice,
		SetPrice:    s.SetPrice,
		RetailPrice: retail,
		GrossProfit: s.SetPrice.Sub(s.CostPrice),
	}
	if !s.CostPrice.IsZero() {
		m := p.GrossProfit.Div(s.CostPrice).Mul(hundred)
		p.MarginPercent = &m
	}
	if retail.IsPositive() {
		d := decimal.NewFromInt(1).Sub(s.SetPrice.Div(retail)).Mul(hundred)
		p.DiscountPercent = &d
	}
	return p
}
