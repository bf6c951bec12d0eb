package analytics

import (
	"math"

	"acaipulse/pkg/contracts/domain"
)

// FitLine fits y = intercept + slope*x by ordinary least squares. It
// returns false when fewer than two distinct x values are given.
func FitLine(xs, ys []float64) (domain.TrendLine, bool) {
	n := len(xs)
	if n < 2 || len(ys) != n {
		return domain.TrendLine{}, false
	}

	var meanX, meanY float64
	for i := 0; i < n; i++ {
		meanX += xs[i]
		meanY += ys[i]
	}
	meanX /= float64(n)
	meanY /= float64(n)

	var sxx, sxy, syy float64
	for i := 0; i < n; i++ {
		dx, dy := xs[i]-meanX, ys[i]-meanY
		sxx += dx * dx
		sxy += dx * dy
		syy += dy * dy
	}
	if sxx == 0 || math.IsNaN(sxx) {
		return domain.TrendLine{}, false
	}

	slope := sxy / sxx
	intercept := meanY - slope*meanX

	// constant y is fitted exactly
	r2 := 1.0
	if syy > 0 {
		var ssRes float64
		for i := 0; i < n; i++ {
			e := ys[i] - (intercept + slope*xs[i])
			ssRes += e * e
		}
		r2 = 1 - ssRes/syy
	}

	return domain.TrendLine{Slope: slope, Intercept: intercept, R2: r2}, true
}
