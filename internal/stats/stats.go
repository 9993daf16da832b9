// Package stats provides the numeric primitives shared by the per-match
// calculators and the cross-match aggregator. Every function returns a
// neutral default (usually 0) on empty or degenerate input instead of an
// error, and treats NaN/Inf inputs as zero contribution.
package stats

import (
	"math"
	"sort"
)

// Finite returns v, or 0 when v is NaN or infinite.
func Finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// SafeDiv divides a by b, returning 0 when b is 0.
func SafeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return Finite(a / b)
}

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += Finite(v)
	}
	return sum / float64(len(values))
}

// WeightedMean returns the weighted mean of values. Non-positive weights
// contribute nothing; when all weights are non-positive it falls back to 0.
func WeightedMean(values, weights []float64) float64 {
	if len(values) == 0 || len(values) != len(weights) {
		return 0
	}
	var sum, wsum float64
	for i, v := range values {
		w := Finite(weights[i])
		if w <= 0 {
			continue
		}
		sum += Finite(v) * w
		wsum += w
	}
	return SafeDiv(sum, wsum)
}

// StdDev returns the population standard deviation, or 0 for fewer than two
// values.
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := Mean(values)
	var sq float64
	for _, v := range values {
		d := Finite(v) - m
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)))
}

// CoefficientOfVariation returns StdDev/Mean, or 0 when the mean is 0.
func CoefficientOfVariation(values []float64) float64 {
	return SafeDiv(StdDev(values), Mean(values))
}

// Percentile returns the p-th percentile (0-100) using linear interpolation
// between closest ranks. Percentile([1,2,3,4,5], 50) == 3,
// Percentile([1,2,3,4], 50) == 2.5.
func Percentile(values []float64, p float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[n-1]
	}
	rank := p / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// PercentileRank returns where value sits in population using the midpoint
// method: (countBelow + countEqual/2) / n * 100. An empty population ranks
// everything at 50.
func PercentileRank(population []float64, value float64) float64 {
	n := len(population)
	if n == 0 {
		return 50
	}
	var below, equal float64
	for _, v := range population {
		switch {
		case v < value:
			below++
		case v == value:
			equal++
		}
	}
	return (below + equal/2) / float64(n) * 100
}

// Regression is a least-squares fit of y over x.
type Regression struct {
	Slope     float64
	Intercept float64
	RSquared  float64
}

// LinearRegression fits y = slope*x + intercept. Fewer than two points, or a
// degenerate x series, yields a zero-valued fit.
func LinearRegression(x, y []float64) Regression {
	if len(x) != len(y) || len(x) < 2 {
		return Regression{}
	}
	n := float64(len(x))
	var sumX, sumY, sumXY, sumX2 float64
	for i := range x {
		xi, yi := Finite(x[i]), Finite(y[i])
		sumX += xi
		sumY += yi
		sumXY += xi * yi
		sumX2 += xi * xi
	}
	denom := n*sumX2 - sumX*sumX
	if denom == 0 {
		return Regression{}
	}
	slope := (n*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / n

	meanY := sumY / n
	var ssTot, ssRes float64
	for i := range x {
		yi := Finite(y[i])
		fit := slope*Finite(x[i]) + intercept
		ssTot += (yi - meanY) * (yi - meanY)
		ssRes += (yi - fit) * (yi - fit)
	}
	r2 := 0.0
	if ssTot > 0 {
		r2 = 1 - ssRes/ssTot
	}
	return Regression{Slope: slope, Intercept: intercept, RSquared: Finite(r2)}
}

// StreakSummary describes win/loss runs over an ordered outcome series.
type StreakSummary struct {
	Current     int // >0 run of wins, <0 run of losses, 0 empty series
	LongestWin  int
	LongestLoss int
}

// Streaks scans outcomes in order (true = win) and reports the current and
// longest runs.
func Streaks(outcomes []bool) StreakSummary {
	var s StreakSummary
	run := 0
	winning := false
	for i, won := range outcomes {
		if i == 0 || won != winning {
			run = 1
			winning = won
		} else {
			run++
		}
		if winning {
			if run > s.LongestWin {
				s.LongestWin = run
			}
		} else if run > s.LongestLoss {
			s.LongestLoss = run
		}
	}
	if len(outcomes) > 0 {
		if winning {
			s.Current = run
		} else {
			s.Current = -run
		}
	}
	return s
}

// Bucket is one bin of a value distribution.
type Bucket struct {
	Low   float64
	High  float64
	Count int
}

// Distribute buckets values into count equal-width bins across [min, max].
// Values outside the range clamp into the edge bins.
func Distribute(values []float64, min, max float64, count int) []Bucket {
	if count <= 0 || max <= min {
		return nil
	}
	width := (max - min) / float64(count)
	buckets := make([]Bucket, count)
	for i := range buckets {
		buckets[i].Low = min + float64(i)*width
		buckets[i].High = buckets[i].Low + width
	}
	for _, v := range values {
		idx := int((Finite(v) - min) / width)
		if idx < 0 {
			idx = 0
		}
		if idx >= count {
			idx = count - 1
		}
		buckets[idx].Count++
	}
	return buckets
}
