// Package calibration tracks how well each model's predicted probabilities
// matched realized outcomes and nudges future predictions toward observed
// accuracy. History is bounded per model key; corrections are damped so a
// noisy stretch never flips a prediction.
package calibration

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"
)

const (
	defaultCapacity      = 1000
	defaultMinSamples    = 10
	defaultRecencyWeight = 0.7

	// Half-bias correction. Full reversal overshoots on small samples.
	correctionFactor = 0.5

	calibratedFloor   = 0.1
	calibratedCeiling = 0.9

	recentWindow     = 100
	bucketWidth      = 0.1
	minBucketSamples = 3
)

// Sample pairs one prediction with its realized outcome.
type Sample struct {
	Predicted float64   `json:"predicted"`
	Outcome   float64   `json:"outcome"`
	At        time.Time `json:"at"`
}

// Bucket is one point on a reliability curve: predictions rounded to the
// nearest 0.1 against the rate at which they came true.
type Bucket struct {
	Midpoint      float64 `json:"midpoint"`
	Samples       int     `json:"samples"`
	PredictedMean float64 `json:"predicted_mean"`
	ObservedRate  float64 `json:"observed_rate"`
}

// Report summarizes a model's historical accuracy.
type Report struct {
	ModelKey    string   `json:"model_key"`
	SampleCount int      `json:"sample_count"`
	Bias        float64  `json:"bias"`
	MAE         float64  `json:"mae"`
	RMSE        float64  `json:"rmse"`
	Curve       []Bucket `json:"curve"`
}

// ring is a bounded sample buffer. Once full, new samples overwrite the
// oldest.
type ring struct {
	buf  []Sample
	next int
	full bool
}

func (r *ring) push(s Sample) {
	r.buf[r.next] = s
	r.next = (r.next + 1) % len(r.buf)
	if r.next == 0 {
		r.full = true
	}
}

// snapshot returns samples oldest first.
func (r *ring) snapshot() []Sample {
	if !r.full {
		out := make([]Sample, r.next)
		copy(out, r.buf[:r.next])
		return out
	}
	out := make([]Sample, 0, len(r.buf))
	out = append(out, r.buf[r.next:]...)
	out = append(out, r.buf[:r.next]...)
	return out
}

// Calibrator holds per-model rolling accuracy history. Safe for concurrent
// use.
type Calibrator struct {
	mu            sync.RWMutex
	history       map[string]*ring
	capacity      int
	minSamples    int
	recencyWeight float64
	adaptive      bool
	now           func() time.Time
}

// Option configures a Calibrator.
type Option func(*Calibrator)

// WithCapacity bounds the per-model sample history.
func WithCapacity(n int) Option {
	return func(c *Calibrator) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// WithMinSamples sets the evidence threshold below which calibration is a
// no-op.
func WithMinSamples(n int) Option {
	return func(c *Calibrator) {
		if n > 0 {
			c.minSamples = n
		}
	}
}

// WithRecencyWeight sets how strongly the adaptive variant favors the recent
// window over older history.
func WithRecencyWeight(w float64) Option {
	return func(c *Calibrator) {
		if w >= 0 && w <= 1 {
			c.recencyWeight = w
		}
	}
}

// WithAdaptiveBias splits history into recent and older windows and blends
// their biases instead of using one flat mean.
func WithAdaptiveBias(enabled bool) Option {
	return func(c *Calibrator) { c.adaptive = enabled }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *Calibrator) {
		if now != nil {
			c.now = now
		}
	}
}

// New builds a Calibrator.
func New(opts ...Option) *Calibrator {
	c := &Calibrator{
		history:       make(map[string]*ring),
		capacity:      defaultCapacity,
		minSamples:    defaultMinSamples,
		recencyWeight: defaultRecencyWeight,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RecordOutcome appends one (prediction, outcome) pair to the model's
// history. Outcome is 1 when side A won, 0 otherwise.
func (c *Calibrator) RecordOutcome(_ context.Context, modelKey string, predicted, outcome float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.history[modelKey]
	if !ok {
		r = &ring{buf: make([]Sample, c.capacity)}
		c.history[modelKey] = r
	}
	r.push(Sample{Predicted: predicted, Outcome: outcome, At: c.now()})
}

// SampleCount reports how many samples are held for a model key.
func (c *Calibrator) SampleCount(_ context.Context, modelKey string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.history[modelKey]
	if !ok {
		return 0
	}
	return len(r.snapshot())
}

// Calibrate applies a half-bias correction to a raw probability. With fewer
// than the minimum samples the input is returned unchanged.
func (c *Calibrator) Calibrate(_ context.Context, modelKey string, rawProb float64) float64 {
	c.mu.RLock()
	r, ok := c.history[modelKey]
	var samples []Sample
	if ok {
		samples = r.snapshot()
	}
	c.mu.RUnlock()

	if len(samples) < c.minSamples {
		return rawProb
	}

	bias := c.bias(samples)
	calibrated := rawProb - bias*correctionFactor
	if calibrated < calibratedFloor {
		return calibratedFloor
	}
	if calibrated > calibratedCeiling {
		return calibratedCeiling
	}
	return calibrated
}

func (c *Calibrator) bias(samples []Sample) float64 {
	if !c.adaptive || len(samples) <= recentWindow {
		return meanBias(samples)
	}
	cut := len(samples) - recentWindow
	older, recent := samples[:cut], samples[cut:]
	return c.recencyWeight*meanBias(recent) + (1-c.recencyWeight)*meanBias(older)
}

func meanBias(samples []Sample) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s.Predicted - s.Outcome
	}
	return sum / float64(len(samples))
}

// GenerateReport builds an accuracy report with a reliability curve.
// Predictions are bucketed to the nearest 0.1; only buckets with at least
// three samples appear on the curve.
func (c *Calibrator) GenerateReport(_ context.Context, modelKey string) (Report, error) {
	c.mu.RLock()
	r, ok := c.history[modelKey]
	var samples []Sample
	if ok {
		samples = r.snapshot()
	}
	c.mu.RUnlock()

	if len(samples) == 0 {
		return Report{}, fmt.Errorf("report for %q: %w", modelKey, ErrNoHistory)
	}

	// Bias is signed prediction error: positive means the model overpredicts.
	var sumErr, sumAbs, sumSq float64
	type agg struct {
		n         int
		predSum   float64
		actualSum float64
	}
	buckets := make(map[int]*agg)
	for _, s := range samples {
		err := s.Predicted - s.Outcome
		sumErr += err
		sumAbs += math.Abs(err)
		sumSq += err * err

		idx := int(math.Round(s.Predicted / bucketWidth))
		b, ok := buckets[idx]
		if !ok {
			b = &agg{}
			buckets[idx] = b
		}
		b.n++
		b.predSum += s.Predicted
		b.actualSum += s.Outcome
	}

	n := float64(len(samples))
	report := Report{
		ModelKey:    modelKey,
		SampleCount: len(samples),
		Bias:        sumErr / n,
		MAE:         sumAbs / n,
		RMSE:        math.Sqrt(sumSq / n),
	}
	for idx := 0; idx <= 10; idx++ {
		b, ok := buckets[idx]
		if !ok || b.n < minBucketSamples {
			continue
		}
		report.Curve = append(report.Curve, Bucket{
			Midpoint:      float64(idx) * bucketWidth,
			Samples:       b.n,
			PredictedMean: b.predSum / float64(b.n),
			ObservedRate:  b.actualSum / float64(b.n),
		})
	}
	return report, nil
}

// Reset drops all history, or one model's history when a key is given.
func (c *Calibrator) Reset(_ context.Context, modelKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if modelKey == "" {
		c.history = make(map[string]*ring)
		return
	}
	delete(c.history, modelKey)
}
