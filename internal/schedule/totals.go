package schedule

import "weddingplan/internal/domain"

// RecomputeTotals derives VendorCost and CostConverted from the non-refundable payments,
// discarding whatever totals the record carried.
func RecomputeTotals(v *domain.VendorRecord) {
	var cost, converted float64
	for i := range v.Payments {
		p := &v.Payments[i]
		if p.Refundable {
			continue
		}
		cost += p.Amount
		converted += p.ConvertedOrAmount()
	}
	v.VendorCost = cost
	v.CostConverted = converted
}
