package anomaly

import (
	"math"
	"sync"
	"time"
)

// detectorImpl is the concrete Detector.
type detectorImpl struct {
	mu        sync.RWMutex
	window    int
	threshold float64
	baselines map[string]*Baseline // "service:metric" → baseline
}

// UpdateBaseline recomputes the baseline for a service metric.
func (d *detectorImpl) UpdateBaseline(service, metric string, values []float64) {
	recent := values
	if len(recent) > d.window {
		recent = recent[len(recent)-d.window:]
	}

	bl := &Baseline{
		Service:   service,
		Metric:    metric,
		Samples:   len(values),
		UpdatedAt: time.Now(),
	}
	if len(recent) > 0 {
		bl.Mean, bl.StdDev = meanAndPopStdDev(recent)
	}

	// Swap the whole entry so readers never see a half-updated baseline.
	d.mu.Lock()
	d.baselines[service+":"+metric] = bl
	d.mu.Unlock()
}

// Baseline returns the current baseline, if one has been computed.
func (d *detectorImpl) Baseline(service, metric string) (Baseline, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	bl, ok := d.baselines[service+":"+metric]
	if !ok {
		return Baseline{}, false
	}
	return *bl, true
}

// LearningWindow returns the configured window size.
func (d *detectorImpl) LearningWindow() int { return d.window }

// Check evaluates a single observation against its baseline.
func (d *detectorImpl) Check(service, metric string, value float64) Result {
	res := Result{
		Service: service,
		Metric:  metric,
		Value:   value,
	}

	d.mu.RLock()
	bl, ok := d.baselines[service+":"+metric]
	d.mu.RUnlock()

	if !ok || bl.Samples < d.window {
		res.Status = StatusInsufficientData
		if ok {
			res.Samples = bl.Samples
			res.Expected = bl.Mean
		}
		return res
	}

	res.Samples = bl.Samples
	res.Expected = bl.Mean

	if bl.StdDev == 0 {
		// Constant series: the Z-score is undefined. Any deviation from the
		// constant is maximally anomalous; equality is not anomalous at all.
		res.Status = StatusZeroVariance
		if value != bl.Mean {
			res.Anomalous = true
			res.Confidence = 1.0
			res.Severity = "critical"
		}
		return res
	}

	z := (value - bl.Mean) / bl.StdDev
	res.Status = StatusOK
	res.ZScore = z
	res.Anomalous = math.Abs(z) > d.threshold
	res.Confidence = d.confidence(bl.Samples, math.Abs(z))
	if res.Anomalous {
		res.Severity = severity(math.Abs(z), d.threshold)
	}
	return res
}

// confidence combines sample-count saturation with Z-score magnitude.
// Both factors are monotonic and bounded, so the product stays in [0,1)
// and grows with more data and larger deviations.
func (d *detectorImpl) confidence(samples int, absZ float64) float64 {
	sampleTerm := float64(samples) / float64(samples+d.window)
	zTerm := absZ / (absZ + d.threshold)
	return sampleTerm * zTerm
}

func severity(absZ, threshold float64) string {
	ratio := absZ / threshold
	switch {
	case ratio > 2.5:
		return "critical"
	case ratio > 1.75:
		return "high"
	case ratio > 1.25:
		return "medium"
	}
	return "low"
}

// meanAndPopStdDev returns the mean and population standard deviation.
func meanAndPopStdDev(vals []float64) (float64, float64) {
	n := float64(len(vals))
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	mean := sum / n

	variance := 0.0
	for _, v := range vals {
		variance += (v - mean) * (v - mean)
	}
	variance /= n
	return mean, math.Sqrt(variance)
}
