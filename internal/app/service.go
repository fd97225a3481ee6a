// Package service orchestrates the prediction pipeline stages: feature
// building, fold training, evaluation and the serving path used by the
// HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/breakpoint/internal/adapters/repository"
	"github.com/okian/breakpoint/internal/adapters/store"
	"github.com/okian/breakpoint/internal/clean"
	"github.com/okian/breakpoint/internal/config"
	"github.com/okian/breakpoint/internal/domain/calibration"
	"github.com/okian/breakpoint/internal/domain/evaluate"
	"github.com/okian/breakpoint/internal/domain/feature"
	"github.com/okian/breakpoint/internal/domain/model"
	"github.com/okian/breakpoint/internal/domain/rating"
	"github.com/okian/breakpoint/internal/domain/split"
	"github.com/okian/breakpoint/internal/domain/train"
	"github.com/okian/breakpoint/internal/domain/types"
	"github.com/okian/breakpoint/pkg/logger"
	"github.com/okian/breakpoint/pkg/metrics"
)

// FeaturesFile is the feature table written by the build stage.
const FeaturesFile = "features.csv"

const topExplanations = 3

// Service implements the pipeline stages and the API dependencies.
type Service struct {
	mu sync.RWMutex

	cfg *config.Config
	log logger.Logger

	// Serving state, populated by Start.
	rankings  repository.Store
	engine    *rating.Engine
	assembler *feature.Assembler
	model     *train.LogisticModel
	calib     calibration.Map
	card      store.ModelCard

	started bool
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// New constructs a Service bound to a loaded configuration.
func New(cfg *config.Config, opts ...Option) *Service {
	s := &Service{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Get()
	}
	return s
}

func (s *Service) newEngine(sink rating.Sink) *rating.Engine {
	f := s.cfg.Features
	opts := []rating.Option{
		rating.WithBaseline(f.BaselineElo),
		rating.WithKFactor(f.KFactor),
		rating.WithKShrinkDivisor(f.KShrinkDivisor),
		rating.WithFormWindow(f.ServeReturnWindow),
		rating.WithRecentWindow(f.LastN),
		rating.WithH2HCap(f.H2HCap),
		rating.WithTourAverages(f.TourAvgHold, f.TourAvgBreak),
	}
	if sink != nil {
		opts = append(opts, rating.WithSink(sink))
	}
	return rating.New(opts...)
}

func (s *Service) newAssembler() *feature.Assembler {
	return feature.New(
		feature.WithRestCap(s.cfg.Features.RestCapDays),
		feature.WithShortRest(s.cfg.Features.ShortRestDays),
	)
}

func (s *Service) newModel() *train.LogisticModel {
	m := s.cfg.Model
	return train.NewLogisticModel(
		train.WithEpochs(m.Epochs),
		train.WithLearningRate(m.LearningRate),
		train.WithL2(m.L2),
	)
}

func (s *Service) thresholds() evaluate.Thresholds {
	return evaluate.Thresholds{
		MaxLogLoss: s.cfg.Model.MaxLogLoss,
		MaxBrier:   s.cfg.Model.MaxBrier,
		MaxECE:     s.cfg.Model.MaxECE,
	}
}

func (s *Service) featuresPath() string {
	return filepath.Join(s.cfg.Data.FeaturesDir, FeaturesFile)
}

// BuildSummary reports what a feature build pass did.
type BuildSummary struct {
	Matches int
	Vectors int
	Skipped int
	Players int
}

// BuildFeatures replays the canonical match table through the rating engine
// in date order and writes one leak-checked feature vector per match. The
// final rating state is exported as the rankings table.
func (s *Service) BuildFeatures(ctx context.Context) (BuildSummary, error) {
	var sum BuildSummary

	matches, err := store.LoadMatches(filepath.Join(s.cfg.Data.ProcessedDir, clean.MatchesFile))
	if err != nil {
		return sum, err
	}
	sum.Matches = len(matches)

	rankings := repository.NewMemStore(repository.WithInitialCapacity(len(matches)))
	engine := s.newEngine(rankings)
	assembler := s.newAssembler()

	vectors := make([]model.FeatureVector, 0, len(matches))
	for _, m := range matches {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		snapA, snapB, err := engine.Process(m)
		if err != nil {
			return sum, fmt.Errorf("process match %s: %w", m.ID, err)
		}
		metrics.RecordMatchProcessed()

		fv, err := assembler.Assemble(m, snapA, snapB)
		if errors.Is(err, feature.ErrLeakDetected) {
			// Same-day repeat: the earlier match already moved the
			// player's clock onto this date, so no pre-match snapshot
			// exists. The rating update above still counts.
			metrics.RecordDateWallViolation()
			sum.Skipped++
			s.log.Debug(ctx, "skipped same-day repeat",
				logger.String("match", m.ID),
				logger.String("date", m.Date.Format(time.DateOnly)))
			continue
		}
		if err != nil {
			return sum, fmt.Errorf("assemble match %s: %w", m.ID, err)
		}
		vectors = append(vectors, fv)
		metrics.RecordFeatureVector()
	}
	if len(vectors) == 0 {
		return sum, ErrNoFeatures
	}
	sum.Vectors = len(vectors)
	sum.Players = rankings.Count(ctx)
	metrics.UpdatePlayersTracked(sum.Players)

	if err := store.SaveFeatures(s.featuresPath(), vectors); err != nil {
		return sum, err
	}
	if err := store.SaveRatings(ctx, s.cfg.Data.ArtifactsDir, rankings); err != nil {
		return sum, err
	}

	s.log.Info(ctx, "feature build complete",
		logger.Int("matches", sum.Matches),
		logger.Int("vectors", sum.Vectors),
		logger.Int("skipped", sum.Skipped),
		logger.Int("players", sum.Players))
	s.logTopPlayers(ctx, rankings, engine)
	return sum, nil
}

func (s *Service) logTopPlayers(ctx context.Context, rankings repository.Store, engine *rating.Engine) {
	top, err := rankings.TopN(ctx, 10)
	if err != nil {
		return
	}
	for _, e := range top {
		s.log.Info(ctx, "rankings",
			logger.Int("rank", e.Rank),
			logger.String("player", e.PlayerID),
			logger.Float64("elo", e.EloOverall),
			logger.Int("matches", e.Matches))
	}

	clock, ok := engine.Clock()
	if !ok {
		return
	}
	asOf := clock.AddDate(0, 0, 1)
	for _, e := range top {
		snap, err := engine.Snapshot(e.PlayerID, "-", model.SurfaceClay, asOf)
		if err != nil || !snap.SurfacePlayed {
			continue
		}
		if delta := snap.EloSurface - snap.EloOverall; delta > 0 {
			s.log.Info(ctx, "clay specialist",
				logger.String("player", e.PlayerID),
				logger.Float64("clay_elo", snap.EloSurface),
				logger.Float64("advantage", delta))
		}
	}
}

// TrainSummary reports a training run.
type TrainSummary struct {
	Folds        int
	SkippedFolds int
	OOF          int
	ModelVersion string
	Report       evaluate.Report
}

// Train runs expanding-window cross-validation over the feature table, pools
// the out-of-fold predictions, fits the calibrator on them, refits the final
// classifier on all data and persists the artifact set.
func (s *Service) Train(ctx context.Context) (TrainSummary, error) {
	var sum TrainSummary

	features, err := store.LoadFeatures(s.featuresPath())
	if err != nil {
		return sum, err
	}
	folds, skipped, err := split.Split(features, split.Config{
		StartYear:  s.cfg.Model.StartYear,
		EndYear:    s.cfg.Model.EndYear,
		MinMatches: s.cfg.Model.MinFoldMatches,
	})
	if err != nil {
		return sum, err
	}
	for _, sk := range skipped {
		metrics.RecordFoldSkipped()
		s.log.Warn(ctx, "fold skipped",
			logger.Int("year", sk.Year),
			logger.Int("matches", sk.Matches),
			logger.Error(sk.Reason))
	}
	sum.SkippedFolds = len(skipped)
	if len(folds) == 0 {
		return sum, train.ErrNoTrainingData
	}

	// Folds only read their slices of the shared feature table, so they
	// train concurrently.
	perFold := make([][]store.OOFRow, len(folds))
	g, gctx := errgroup.WithContext(ctx)
	for i, fold := range folds {
		g.Go(func() error {
			m := s.newModel()
			if err := m.Fit(gctx, fold.Train); err != nil {
				return fmt.Errorf("fold %d: %w", fold.Year, err)
			}
			rows := make([]store.OOFRow, 0, len(fold.Validate))
			for _, fv := range fold.Validate {
				raw, err := m.PredictProba(gctx, fv)
				if err != nil {
					return fmt.Errorf("fold %d predict: %w", fold.Year, err)
				}
				rows = append(rows, store.OOFRow{Year: fold.Year, Raw: raw, Outcome: fv.AWon})
			}
			perFold[i] = rows
			metrics.RecordFoldTrained()
			s.log.Info(gctx, "fold trained",
				logger.Int("year", fold.Year),
				logger.Int("train", len(fold.Train)),
				logger.Int("validate", len(fold.Validate)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return sum, err
	}
	sum.Folds = len(folds)

	var oof []store.OOFRow
	for _, rows := range perFold {
		oof = append(oof, rows...)
	}
	sum.OOF = len(oof)
	metrics.RecordOOFPredictions(len(oof))

	pairs := make([]calibration.Pair, len(oof))
	for i, r := range oof {
		pairs[i] = calibration.Pair{Raw: r.Raw, Outcome: r.Outcome}
	}
	calib, err := calibration.Fit(pairs, s.cfg.Model.Calibration)
	if err != nil {
		return sum, err
	}

	preds := make([]evaluate.Prediction, len(oof))
	for i, r := range oof {
		preds[i] = evaluate.Prediction{Prob: calib.Apply(r.Raw), Outcome: r.Outcome}
	}
	report := evaluate.Evaluate(preds, s.thresholds())
	sum.Report = report

	final := s.newModel()
	if err := final.Fit(ctx, features); err != nil {
		return sum, err
	}
	params, err := final.Params()
	if err != nil {
		return sum, err
	}

	card := s.buildCard(features, calib, report)
	sum.ModelVersion = card.ModelVersion

	dir := s.cfg.Data.ArtifactsDir
	if err := store.SaveModelParams(dir, params); err != nil {
		return sum, err
	}
	if err := store.SaveCalibration(dir, calib); err != nil {
		return sum, err
	}
	if err := store.SaveOOF(dir, oof); err != nil {
		return sum, err
	}
	if err := store.SaveModelCard(dir, card); err != nil {
		return sum, err
	}

	s.logReport(ctx, report)
	s.log.Info(ctx, "training complete",
		logger.String("model_version", card.ModelVersion),
		logger.Int("folds", sum.Folds),
		logger.Int("oof", sum.OOF),
		logger.Any("promotable", report.Pass()))
	return sum, nil
}

func (s *Service) buildCard(features []model.FeatureVector, calib calibration.Map, report evaluate.Report) store.ModelCard {
	now := time.Now().UTC()
	card := store.ModelCard{
		ModelVersion:  fmt.Sprintf("bp-%s-%s", now.Format("20060102"), uuid.NewString()[:8]),
		TrainedAt:     now,
		Matches:       len(features),
		SchemaVersion: model.SchemaVersion,
		Hyperparams: map[string]string{
			"epochs":        fmt.Sprintf("%d", s.cfg.Model.Epochs),
			"learning_rate": fmt.Sprintf("%g", s.cfg.Model.LearningRate),
			"l2":            fmt.Sprintf("%g", s.cfg.Model.L2),
			"k_factor":      fmt.Sprintf("%g", s.cfg.Features.KFactor),
			"baseline_elo":  fmt.Sprintf("%g", s.cfg.Features.BaselineElo),
		},
		Calibration: calib.Method,
		Promotable:  report.Pass(),
	}
	if len(features) > 0 {
		card.DataFrom = features[0].MatchDate.Format(time.DateOnly)
		card.DataTo = features[len(features)-1].MatchDate.Format(time.DateOnly)
	}
	for _, m := range report.Metrics {
		card.Metrics = append(card.Metrics, store.MetricValue{
			Name:  m.Name,
			Value: m.Value,
			Pass:  !m.Checked || m.Pass,
		})
	}
	return card
}

// Evaluate recomputes the metric report from the persisted out-of-fold
// predictions and calibration map, against the configured gates.
func (s *Service) Evaluate(ctx context.Context) (evaluate.Report, error) {
	dir := s.cfg.Data.ArtifactsDir
	oof, err := store.LoadOOF(dir)
	if err != nil {
		return evaluate.Report{}, err
	}
	calib, err := store.LoadCalibration(dir)
	if err != nil {
		return evaluate.Report{}, err
	}

	preds := make([]evaluate.Prediction, len(oof))
	for i, r := range oof {
		preds[i] = evaluate.Prediction{Prob: calib.Apply(r.Raw), Outcome: r.Outcome}
	}
	report := evaluate.Evaluate(preds, s.thresholds())
	s.logReport(ctx, report)
	return report, nil
}

func (s *Service) logReport(ctx context.Context, report evaluate.Report) {
	for _, m := range report.Metrics {
		fields := []logger.Field{
			logger.String("metric", m.Name),
			logger.Float64("value", m.Value),
		}
		if m.Checked {
			fields = append(fields,
				logger.Float64("threshold", m.Threshold),
				logger.Any("pass", m.Pass))
		}
		if m.Checked && !m.Pass {
			s.log.Warn(ctx, "evaluation gate missed", fields...)
			continue
		}
		s.log.Info(ctx, "evaluation metric", fields...)
	}
}

// Start loads the trained artifacts and replays match history so the serving
// path can snapshot any player at the current clock.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	dir := s.cfg.Data.ArtifactsDir
	params, err := store.LoadModelParams(dir)
	if err != nil {
		return err
	}
	m := s.newModel()
	if err := m.Restore(params); err != nil {
		return err
	}
	calib, err := store.LoadCalibration(dir)
	if err != nil {
		return err
	}
	card, err := store.LoadModelCard(dir)
	if err != nil {
		return err
	}

	matches, err := store.LoadMatches(filepath.Join(s.cfg.Data.ProcessedDir, clean.MatchesFile))
	if err != nil {
		return err
	}
	rankings := repository.NewMemStore(repository.WithInitialCapacity(len(matches)))
	engine := s.newEngine(rankings)
	for _, match := range matches {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, _, err := engine.Process(match); err != nil {
			return fmt.Errorf("replay match %s: %w", match.ID, err)
		}
	}
	metrics.UpdatePlayersTracked(rankings.Count(ctx))

	s.rankings = rankings
	s.engine = engine
	s.assembler = s.newAssembler()
	s.model = m
	s.calib = calib
	s.card = card
	s.started = true

	s.log.Info(ctx, "serving state loaded",
		logger.String("model_version", card.ModelVersion),
		logger.Int("matches", len(matches)),
		logger.Int("players", rankings.Count(ctx)))
	return nil
}

// Stop releases serving state.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.started = false
	s.log.Info(context.Background(), "service stopped")
}

// Started reports whether serving state is loaded.
func (s *Service) Started() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// ModelVersion returns the loaded artifact's version string.
func (s *Service) ModelVersion() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.card.ModelVersion
}

// PredictRequest describes one prospective match.
type PredictRequest struct {
	PlayerA string
	PlayerB string
	Date    time.Time
	Surface model.Surface
	Indoor  bool
	Level   string
	Round   model.Round
	BestOf  int
}

// Explanation is one feature's weight-times-value contribution to a
// prediction. Magnitudes are heuristic, signs are directional.
type Explanation struct {
	Feature      string  `json:"feature"`
	Contribution float64 `json:"contribution"`
}

// PredictResponse is the calibrated win probability for player A.
type PredictResponse struct {
	ProbAWins    float64       `json:"prob_a_wins"`
	ModelVersion string        `json:"model_version"`
	Explanations []Explanation `json:"explanations"`
}

// Predict snapshots both players at the requested date, assembles the
// feature vector behind the date wall and returns the calibrated
// probability that player A wins. A request dated on or before either
// player's last recorded match fails with feature.ErrLeakDetected.
func (s *Service) Predict(ctx context.Context, req PredictRequest) (PredictResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return PredictResponse{}, ErrNotServing
	}
	start := time.Now()

	snapA, err := s.engine.Snapshot(req.PlayerA, req.PlayerB, req.Surface, req.Date)
	if err != nil {
		return PredictResponse{}, err
	}
	snapB, err := s.engine.Snapshot(req.PlayerB, req.PlayerA, req.Surface, req.Date)
	if err != nil {
		return PredictResponse{}, err
	}

	m := model.Match{
		ID:      "inference-" + uuid.NewString()[:8],
		Date:    req.Date,
		Surface: req.Surface,
		Indoor:  req.Indoor,
		Level:   req.Level,
		Round:   req.Round,
		BestOf:  req.BestOf,
		PlayerA: model.PlayerInfo{ID: req.PlayerA},
		PlayerB: model.PlayerInfo{ID: req.PlayerB},
	}
	fv, err := s.assembler.Assemble(m, snapA, snapB)
	if err != nil {
		if errors.Is(err, feature.ErrLeakDetected) {
			metrics.RecordDateWallViolation()
		}
		return PredictResponse{}, err
	}

	raw, err := s.model.PredictProba(ctx, fv)
	if err != nil {
		return PredictResponse{}, err
	}
	resp := PredictResponse{
		ProbAWins:    s.calib.Apply(raw),
		ModelVersion: s.card.ModelVersion,
		Explanations: s.explain(fv),
	}
	metrics.RecordPredictLatency(float64(time.Since(start).Milliseconds()))
	return resp, nil
}

// explain ranks features by absolute contribution.
func (s *Service) explain(fv model.FeatureVector) []Explanation {
	weights := s.model.Weights()
	values := fv.Values()
	names := model.FeatureNames()

	out := make([]Explanation, 0, len(names))
	for i, name := range names {
		out = append(out, Explanation{
			Feature:      name,
			Contribution: weights[name] * values[i],
		})
	}
	sort.Slice(out, func(i, j int) bool {
		li, lj := out[i].Contribution, out[j].Contribution
		if li < 0 {
			li = -li
		}
		if lj < 0 {
			lj = -lj
		}
		return li > lj
	})
	if len(out) > topExplanations {
		out = out[:topExplanations]
	}
	return out
}

// Rankings returns the current top-n players by overall rating.
func (s *Service) Rankings(ctx context.Context, n int) ([]types.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return nil, ErrNotServing
	}
	return s.rankings.TopN(ctx, n)
}

// Rank returns one player's current standing.
func (s *Service) Rank(ctx context.Context, playerID string) (types.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return types.Entry{}, ErrNotServing
	}
	return s.rankings.Rank(ctx, playerID)
}
