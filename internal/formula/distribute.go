package formula

import (
	"time"

	"github.com/guttosm/mtmengine/internal/period"
)

// Distribute derives a monthly distribution from the declared pricing
// exposures by prorating each instrument's weight over the working days of
// [start, end]. Instruments that already carry an explicit distribution keep
// it unchanged. Reversed ranges are swapped before prorating.
func Distribute(f PricingFormula, start, end time.Time) PricingFormula {
	if !f.Exposures.HasPricing() {
		return f
	}
	start, end = period.Normalize(start, end)

	out := f
	out.MonthlyDistribution = make(Distribution, len(f.MonthlyDistribution)+len(f.Exposures.Pricing))
	for instrument, months := range f.MonthlyDistribution {
		out.MonthlyDistribution[instrument] = months
	}
	for instrument, weight := range f.Exposures.Pricing {
		if _, explicit := out.MonthlyDistribution[instrument]; explicit {
			continue
		}
		shares, err := period.DistributeQuantityByWorkingDays(start, end, weight)
		if err != nil {
			continue
		}
		out.MonthlyDistribution[instrument] = shares
	}
	return out
}
