package aggregate

import (
	"math/big"
	"time"
)

const ratioScale = 18

func formatAmount(value *big.Int) string {
	if value == nil {
		return "0"
	}
	return value.String()
}

func computeFeeRates(fee0 *big.Int, fee1 *big.Int, tvl0 *big.Int, tvl1 *big.Int) (*string, *string) {
	var feeRate0 *string
	var feeRate1 *string

	if rate := computeRateFromInt(fee0, tvl0); rate != nil {
		val := rate.FloatString(ratioScale)
		feeRate0 = &val
	}
	if rate := computeRateFromInt(fee1, tvl1); rate != nil {
		val := rate.FloatString(ratioScale)
		feeRate1 = &val
	}
	return feeRate0, feeRate1
}

func computeRateFromInt(fee *big.Int, tvl *big.Int) *big.Rat {
	if fee == nil || fee.Sign() == 0 || tvl == nil || tvl.Sign() == 0 {
		return nil
	}
	return new(big.Rat).SetFrac(fee, tvl)
}

// computeAPR annualizes the window's fee yield. At the pool's spot price each
// reserve is half of its value, so the yield is the mean of the two per-side
// fee rates.
func computeAPR(fee0, fee1, tvl0, tvl1 *big.Int, windowSeconds uint64) *string {
	if windowSeconds == 0 || tvl0 == nil || tvl0.Sign() == 0 || tvl1 == nil || tvl1.Sign() == 0 {
		return nil
	}
	yield := new(big.Rat)
	if rate := computeRateFromInt(fee0, tvl0); rate != nil {
		yield.Add(yield, rate)
	}
	if rate := computeRateFromInt(fee1, tvl1); rate != nil {
		yield.Add(yield, rate)
	}
	if yield.Sign() == 0 {
		return nil
	}
	yield.Quo(yield, big.NewRat(2, 1))

	yearSeconds := big.NewRat(int64(365*24*time.Hour/time.Second), 1)
	window := big.NewRat(int64(windowSeconds), 1)
	apr := new(big.Rat).Mul(yield, yearSeconds)
	apr.Quo(apr, window)
	val := apr.FloatString(ratioScale)
	return &val
}
