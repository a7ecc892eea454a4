package engine

import "github.com/agroruta/agroruta/internal/core/domain"

// Breakdown is the monetary result of evaluating one destination.
type Breakdown struct {
	GrossValue          float64
	PercentageDeduction float64
	FixedDeduction      float64
	NetTotal            float64
	NetPerTon           float64
}

// Profitability computes the full deduction breakdown for a destination.
//
//	gross      = basePricePerTon * tonnage
//	pctDeduct  = gross * (commission + shrinkage) / 100
//	fixedDeduct = (freight + Σ fixedPerTon) * tonnage
//	netTotal   = gross - pctDeduct - fixedDeduct
//	netPerTon  = netTotal / tonnage
//
// Percentages summing past 100 are allowed and simply produce a negative
// net, a legitimate loss outcome rather than an error. Tonnage positivity is a
// request precondition checked upstream, not re-validated here.
func Profitability(basePricePerTon, freightCostPerTon, tonnage float64, expenses domain.ExpenseConfig) Breakdown {
	gross := basePricePerTon * tonnage
	pct := gross * (expenses.CommissionPct + expenses.ShrinkagePct) / 100
	fixedPerTon := freightCostPerTon + expenses.FixedPerTonTotal()
	fixed := fixedPerTon * tonnage
	net := gross - pct - fixed

	return Breakdown{
		GrossValue:          gross,
		PercentageDeduction: pct,
		FixedDeduction:      fixed,
		NetTotal:            net,
		NetPerTon:           net / tonnage,
	}
}
