package forecast

import (
	"math"
	"sort"
	"time"
)

// forecasterImpl is the concrete Forecaster.
type forecasterImpl struct {
	minConfidence float64
}

// MinConfidence returns the reliability floor.
func (f *forecasterImpl) MinConfidence() float64 { return f.minConfidence }

// Forecast fits a line to the samples and extrapolates past the last one.
func (f *forecasterImpl) Forecast(samples []Sample, horizon time.Duration) Result {
	pts := dedupe(samples)
	if len(pts) < 2 {
		return Result{
			Status:     StatusInsufficientData,
			Horizon:    horizon,
			DataPoints: len(pts),
		}
	}

	first := pts[0].Timestamp
	xs := make([]float64, len(pts))
	ys := make([]float64, len(pts))
	for i, p := range pts {
		xs[i] = p.Timestamp.Sub(first).Seconds()
		ys[i] = p.Value
	}

	slope, intercept := linearRegression(xs, ys)
	r2 := rSquared(xs, ys, slope, intercept)

	lastX := xs[len(xs)-1]
	predicted := intercept + slope*(lastX+horizon.Seconds())

	// Confidence is the fit quality discounted by sample-count saturation,
	// so a perfect fit through three points does not read as certainty.
	n := float64(len(pts))
	confidence := r2 * (n / (n + 10))

	direction := "flat"
	if slope > 1e-9 {
		direction = "increasing"
	} else if slope < -1e-9 {
		direction = "decreasing"
	}

	return Result{
		Status:     StatusOK,
		Slope:      safeFloat(slope),
		Intercept:  safeFloat(intercept),
		RSquared:   safeFloat(r2),
		Predicted:  safeFloat(predicted),
		Confidence: safeFloat(confidence),
		Unreliable: confidence < f.minConfidence,
		Horizon:    horizon,
		Direction:  direction,
		DataPoints: len(pts),
	}
}

// dedupe sorts samples by timestamp and collapses duplicate timestamps to
// their last value.
func dedupe(samples []Sample) []Sample {
	if len(samples) == 0 {
		return nil
	}
	sorted := make([]Sample, len(samples))
	copy(sorted, samples)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	out := sorted[:0]
	for _, s := range sorted {
		if len(out) > 0 && out[len(out)-1].Timestamp.Equal(s.Timestamp) {
			out[len(out)-1] = s
			continue
		}
		out = append(out, s)
	}
	return out
}

// linearRegression returns (slope, intercept) via least-squares.
func linearRegression(xs, ys []float64) (slope, intercept float64) {
	n := float64(len(xs))
	if n < 2 {
		return 0, 0
	}
	sumX, sumY, sumXY, sumX2 := 0.0, 0.0, 0.0, 0.0
	for i, x := range xs {
		y := ys[i]
		sumX += x
		sumY += y
		sumXY += x * y
		sumX2 += x * x
	}
	denom := n*sumX2 - sumX*sumX
	if math.Abs(denom) < 1e-12 {
		return 0, sumY / n
	}
	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n
	return
}

// rSquared returns the coefficient of determination for the linear fit.
func rSquared(xs, ys []float64, slope, intercept float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	mean := 0.0
	for _, y := range ys {
		mean += y
	}
	mean /= float64(len(ys))

	ssTot, ssRes := 0.0, 0.0
	for i, y := range ys {
		pred := intercept + slope*xs[i]
		ssRes += (y - pred) * (y - pred)
		ssTot += (y - mean) * (y - mean)
	}
	if ssTot < 1e-12 {
		// Zero variance in the observations: the fit explains everything.
		return 1.0
	}
	r2 := 1.0 - ssRes/ssTot
	if r2 < 0 {
		return 0
	}
	return r2
}

// safeFloat returns 0 if v is NaN or Inf, otherwise returns v.
// This ensures all float values are JSON-serializable.
func safeFloat(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
