// Package estimator is the land price prediction service. It owns the
// dataset index and the stacked ensemble, loads both exactly once in New,
// and then answers queries from read-only state: every method is safe for
// concurrent use without locking.
package estimator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/rewired-gh/landoracle/internal/config"
	"github.com/rewired-gh/landoracle/internal/dataset"
	"github.com/rewired-gh/landoracle/internal/ensemble"
	"github.com/rewired-gh/landoracle/internal/features"
	"github.com/rewired-gh/landoracle/internal/learner"
	"github.com/rewired-gh/landoracle/internal/logger"
	"github.com/rewired-gh/landoracle/internal/metrics"
	"github.com/rewired-gh/landoracle/internal/models"
)

// Recorder receives every successful estimate, e.g. the estimate history.
type Recorder interface {
	AddEstimate(ctx context.Context, e *models.Estimate) error
}

// Service answers district/locality listings and price estimates.
type Service struct {
	index    *dataset.Index
	stack    *ensemble.Stack
	recorder Recorder
	metrics  *metrics.Metrics
	now      func() time.Time
}

// Option configures optional collaborators of a Service.
type Option func(*Service)

// WithRecorder stores every successful estimate through r. Recorder
// failures are logged and never fail the estimate.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithMetrics reports estimate outcomes and latency to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New is the service's initialization step: it loads the dataset and the
// three model artifacts concurrently and returns once all of them are in
// memory. Any load failure is returned unchanged (*models.DataLoadError or
// *models.ModelLoadError) and no service is constructed.
func New(ctx context.Context, dcfg config.DatasetConfig, mcfg config.ModelsConfig, opts ...Option) (*Service, error) {
	start := time.Now()

	var (
		idx  *dataset.Index
		cb   *learner.CatBoost
		lgb  *learner.LightGBM
		meta *ensemble.Linear
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		idx, err = dataset.Load(gctx, dcfg)
		return err
	})
	g.Go(func() error {
		var err error
		cb, err = learner.LoadCatBoost(mcfg.CatBoostPath)
		return err
	})
	g.Go(func() error {
		var err error
		lgb, err = learner.LoadLightGBM(mcfg.LightGBMPath)
		return err
	})
	g.Go(func() error {
		var err error
		meta, err = ensemble.LoadLinear(mcfg.MetaPath)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Info("Loaded %d historical records (%d districts) and 3 models in %v",
		idx.Len(), len(idx.Districts()), time.Since(start))

	return NewFromParts(idx, &ensemble.Stack{A: cb, B: lgb, Meta: meta}, opts...), nil
}

// NewFromParts assembles a service from already loaded parts.
func NewFromParts(idx *dataset.Index, stack *ensemble.Stack, opts ...Option) *Service {
	s := &Service{
		index: idx,
		stack: stack,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics != nil {
		s.metrics.DatasetRecords.Set(float64(idx.Len()))
	}
	return s
}

// Districts returns the sorted normalized districts of the dataset.
func (s *Service) Districts() []string {
	return s.index.Districts()
}

// Localities returns the sorted normalized localities of district, or an
// empty slice when the district is unknown.
func (s *Service) Localities(district string) []string {
	return s.index.Localities(models.NormalizeKey(district))
}

// PredictPrice estimates the total price of a parcel in the given district
// and locality. Inputs are trimmed and lower-cased before matching. When no
// historical record matches exactly, the returned error is a
// *models.NoMatchingRecordsError and no partial result is produced.
func (s *Service) PredictPrice(ctx context.Context, district, locality string) (*models.PredictionResult, error) {
	start := time.Now()
	district = models.NormalizeKey(district)
	locality = models.NormalizeKey(locality)

	fv, avgCents, err := features.Synthesize(s.index, district, locality)
	if err != nil {
		s.observe(metrics.OutcomeNoMatch, start)
		return nil, err
	}

	pred, err := s.stack.Predict(fv)
	if err != nil {
		s.observe(metrics.OutcomeError, start)
		return nil, fmt.Errorf("failed to estimate %s/%s: %w", district, locality, err)
	}

	result := &models.PredictionResult{
		TotalPrice: pred.Price,
		AvgCents:   avgCents,
		District:   displayName(district),
		Locality:   displayName(locality),
	}
	if avgCents > 0 {
		perCent := pred.Price / avgCents
		result.PricePerCent = &perCent
	}

	s.observe(metrics.OutcomeOK, start)
	logger.Debug("Estimated %s/%s: total=%.2f log_catboost=%.6f log_lightgbm=%.6f log_meta=%.6f",
		district, locality, pred.Price, pred.LogA, pred.LogB, pred.LogMeta)

	s.record(ctx, district, locality, result, pred)
	return result, nil
}

func (s *Service) record(ctx context.Context, district, locality string, result *models.PredictionResult, pred ensemble.Prediction) {
	if s.recorder == nil {
		return
	}

	est := &models.Estimate{
		ID:           uuid.New().String(),
		District:     district,
		Locality:     locality,
		TotalPrice:   result.TotalPrice,
		PricePerCent: result.PricePerCent,
		AvgCents:     result.AvgCents,
		LogCatBoost:  pred.LogA,
		LogLightGBM:  pred.LogB,
		LogMeta:      pred.LogMeta,
		CreatedAt:    s.now(),
	}
	if err := s.recorder.AddEstimate(ctx, est); err != nil {
		logger.Warn("Failed to record estimate for %s/%s: %v", district, locality, err)
		if s.metrics != nil {
			s.metrics.RecorderErrors.Inc()
		}
	}
}

func (s *Service) observe(outcome string, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.EstimateCount.WithLabelValues(outcome).Inc()
	s.metrics.EstimateDuration.Observe(time.Since(start).Seconds())
}

// displayName title-cases a normalized key for presentation only; lookups
// always use the normalized key. Letters after an apostrophe stay lower
// case ("o'neil" becomes "O'neil"), unlike Python's str.title().
// A Caser is stateful, so one is created per call.
func displayName(key string) string {
	return cases.Title(language.Und).String(key)
}
