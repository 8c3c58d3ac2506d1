// Package service runs the prediction pipeline end to end and implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	eventqueue "github.com/playsight/prophet/internal/adapters/mq/queue"
	workerpool "github.com/playsight/prophet/internal/adapters/mq/worker"
	repository "github.com/playsight/prophet/internal/adapters/repository"
	"github.com/playsight/prophet/internal/domain/calibration"
	"github.com/playsight/prophet/internal/domain/dedupe"
	"github.com/playsight/prophet/internal/domain/ensemble"
	"github.com/playsight/prophet/internal/domain/feature"
	"github.com/playsight/prophet/internal/domain/graph"
	"github.com/playsight/prophet/internal/domain/model"
	"github.com/playsight/prophet/internal/domain/rating"
	"github.com/playsight/prophet/internal/domain/simulation"
	"github.com/playsight/prophet/pkg/logger"
	"github.com/playsight/prophet/pkg/metrics"
)

// ensembleModelKey is the calibration bucket for fused predictions.
const ensembleModelKey = "ensemble"

// Service wires the rating store, feature normalizer, relationship graph,
// estimators, ensemble, calibrator and simulator into one pipeline.
type Service struct {
	mu sync.RWMutex

	// Core components
	repo       *repository.MemoryStore
	ratings    *rating.Store
	normalizer *feature.Normalizer
	relGraph   *graph.Graph
	fuser      *ensemble.Fuser
	calibrator *calibration.Calibrator
	simulator  *simulation.Engine
	deduper    dedupe.Deduper
	eventQueue eventqueue.Queue
	workerPool *workerpool.Pool

	// Configuration
	workerCount     int
	queueSize       int
	dedupeSize      int
	shardCount      int
	ratingOpts      []rating.Option
	normalizerOpts  []feature.Option
	graphOpts       []graph.Option
	ensembleOpts    []ensemble.Option
	calibrationOpts []calibration.Option
	simulationOpts  []simulation.Option

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of result-apply workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the result event queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithShardCount sets the number of shards in the rating repository.
func WithShardCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.shardCount = count
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRatingOptions forwards options to the rating store.
func WithRatingOptions(opts ...rating.Option) Option {
	return func(s *Service) {
		s.ratingOpts = append(s.ratingOpts, opts...)
	}
}

// WithNormalizerOptions forwards options to the feature normalizer.
func WithNormalizerOptions(opts ...feature.Option) Option {
	return func(s *Service) {
		s.normalizerOpts = append(s.normalizerOpts, opts...)
	}
}

// WithGraphOptions forwards options to the relationship graph.
func WithGraphOptions(opts ...graph.Option) Option {
	return func(s *Service) {
		s.graphOpts = append(s.graphOpts, opts...)
	}
}

// WithEnsembleOptions forwards options to the ensemble fuser.
func WithEnsembleOptions(opts ...ensemble.Option) Option {
	return func(s *Service) {
		s.ensembleOpts = append(s.ensembleOpts, opts...)
	}
}

// WithCalibrationOptions forwards options to the calibrator.
func WithCalibrationOptions(opts ...calibration.Option) Option {
	return func(s *Service) {
		s.calibrationOpts = append(s.calibrationOpts, opts...)
	}
}

// WithSimulationOptions forwards options to the Monte Carlo engine.
func WithSimulationOptions(opts ...simulation.Option) Option {
	return func(s *Service) {
		s.simulationOpts = append(s.simulationOpts, opts...)
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU() * 2,
		queueSize:   100000,
		dedupeSize:  50000,
		logger:      nil, // Will be replaced when service starts
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting prediction service...")

	var repoOpts []repository.Option
	if s.shardCount > 0 {
		repoOpts = append(repoOpts, repository.WithShardCount(s.shardCount))
	}
	s.repo = repository.NewMemoryStore(repoOpts...)
	s.ratings = rating.NewStore(s.repo, s.ratingOpts...)
	s.normalizer = feature.NewNormalizer(s.normalizerOpts...)
	s.relGraph = graph.New(s.graphOpts...)
	s.fuser = ensemble.New(s.ensembleOpts...)
	s.calibrator = calibration.New(s.calibrationOpts...)
	s.simulator = simulation.New(s.simulationOpts...)
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.eventQueue = eventqueue.NewInMemoryQueue(
		eventqueue.WithCapacity(s.queueSize),
		eventqueue.WithBufferSize(s.queueSize),
	)

	s.workerPool = workerpool.NewPool(s.workerCount, s.eventQueue, s)
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "prediction service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping prediction service...")

	if s.workerPool != nil {
		s.workerPool.Stop()
	}

	s.started = false
	s.logger.Info(context.Background(), "prediction service stopped")
}

// SeenAndRecord atomically checks if a match id was seen and records it if
// not. Returns true if the id was already seen, false if newly recorded.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	seen := s.deduper.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordEventDuplicate()
	}
	return seen
}

// Unrecord removes a match id from the seen list, allowing a retry.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// Enqueue submits a result event for asynchronous processing. Returns false
// on backpressure.
func (s *Service) Enqueue(ctx context.Context, e model.ResultEvent) bool {
	ok := s.eventQueue.Enqueue(ctx, e)
	if ok {
		metrics.RecordEventProcessed()
		metrics.UpdateQueueSize(s.eventQueue.Len(ctx))
	}
	return ok
}

// RecordResult dedupes a result event by match id and enqueues it. Duplicate
// ids report true without re-queueing; false means queue backpressure and the
// caller may retry with the same id.
func (s *Service) RecordResult(ctx context.Context, e model.ResultEvent) bool {
	if e.MatchID == "" {
		e.MatchID = uuid.NewString()
	}
	if e.PlayedAt.IsZero() {
		e.PlayedAt = time.Now().UTC()
	}
	if s.SeenAndRecord(ctx, e.MatchID) {
		return true
	}
	if !s.Enqueue(ctx, e) {
		s.Unrecord(ctx, e.MatchID)
		return false
	}
	return true
}

// ApplyResult applies one dequeued match result to the rating store, the
// relationship graph and the calibrator. It is called by the worker pool and
// must stay idempotent per match id; the deduper guarantees single delivery.
func (s *Service) ApplyResult(ctx context.Context, event workerpool.Event) (bool, error) {
	if event.TeamA == "" || event.TeamB == "" || event.TeamA == event.TeamB {
		return false, fmt.Errorf("apply result %q: invalid team pair", event.MatchID)
	}

	s.ratings.RecordResult(ctx, event.TeamA, event.TeamB, event.ScoreA, event.ScoreB, event.Draw)
	metrics.UpdateRatedEntities(s.repo.Count(ctx))

	s.applyToGraph(ctx, event)

	if event.ModelKey != "" && event.PredictedProbA > 0 {
		s.calibrator.RecordOutcome(ctx, event.ModelKey, event.PredictedProbA, outcomeValue(event))
	}

	return true, nil
}

// applyToGraph records the match as BEAT/LOST_TO edges between the team
// nodes and updates roster synergy counters.
func (s *Service) applyToGraph(ctx context.Context, event model.ResultEvent) {
	s.relGraph.AddNode(ctx, graph.Node{ID: event.TeamA, Type: graph.NodeTeam, Name: event.TeamA})
	s.relGraph.AddNode(ctx, graph.Node{ID: event.TeamB, Type: graph.NodeTeam, Name: event.TeamB})

	if !event.Draw {
		winner, loser := event.TeamA, event.TeamB
		if event.ScoreB > event.ScoreA {
			winner, loser = event.TeamB, event.TeamA
		}
		s.relGraph.AddEdge(ctx, graph.Edge{
			Source:       winner,
			Target:       loser,
			Relationship: graph.RelBeat,
			Weight:       1.0,
		})
		s.relGraph.AddEdge(ctx, graph.Edge{
			Source:       loser,
			Target:       winner,
			Relationship: graph.RelLostTo,
			Weight:       1.0,
		})
	}

	s.ensureRosterMembership(ctx, event.TeamA, event.PlayersA)
	s.ensureRosterMembership(ctx, event.TeamB, event.PlayersB)

	wonA := !event.Draw && event.ScoreA > event.ScoreB
	if len(event.PlayersA) >= 2 {
		s.relGraph.RecordMatchResult(ctx, event.PlayersA, wonA)
	}
	if len(event.PlayersB) >= 2 {
		s.relGraph.RecordMatchResult(ctx, event.PlayersB, !event.Draw && !wonA)
	}
}

// ensureRosterMembership upserts player nodes and their PLAYS_FOR edges.
// Edges are append-only, so existing membership is checked first.
func (s *Service) ensureRosterMembership(ctx context.Context, teamID string, playerIDs []string) {
	for _, playerID := range playerIDs {
		if playerID == "" {
			continue
		}
		s.relGraph.AddNode(ctx, graph.Node{ID: playerID, Type: graph.NodePlayer, Name: playerID})
		if !s.hasNeighbor(ctx, playerID, teamID) {
			s.relGraph.AddEdge(ctx, graph.Edge{
				Source:       playerID,
				Target:       teamID,
				Relationship: graph.RelPlaysFor,
				Weight:       1.0,
			})
		}
	}
}

func (s *Service) hasNeighbor(ctx context.Context, id, target string) bool {
	for _, n := range s.relGraph.Neighbors(ctx, id) {
		if n == target {
			return true
		}
	}
	return false
}

// outcomeValue maps a result event onto the [0,1] outcome scale used by the
// calibrator: win 1, draw 0.5, loss 0, from team A's perspective.
func outcomeValue(e model.ResultEvent) float64 {
	switch {
	case e.Draw:
		return 0.5
	case e.ScoreA > e.ScoreB:
		return 1.0
	default:
		return 0.0
	}
}

// Rankings returns every rated entity ordered by rating descending.
func (s *Service) Rankings(ctx context.Context) []rating.Rating {
	return s.ratings.Rankings(ctx)
}

// CalibrationReport summarizes recorded accuracy for one model key.
func (s *Service) CalibrationReport(ctx context.Context, modelKey string) (calibration.Report, error) {
	report, err := s.calibrator.GenerateReport(ctx, modelKey)
	if err != nil {
		return calibration.Report{}, fmt.Errorf("calibration report for %q: %w", modelKey, err)
	}
	return report, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}

	if s.started {
		queueLen := s.eventQueue.Len(ctx)
		ratedEntities := s.repo.Count(ctx)

		stats["queueLength"] = queueLen
		stats["ratedEntities"] = ratedEntities
		stats["graphNodes"] = s.relGraph.NodeCount(ctx)
		stats["graphEdges"] = s.relGraph.EdgeCount(ctx)
		stats["calibrationSamples"] = s.calibrator.SampleCount(ctx, ensembleModelKey)

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateRatedEntities(ratedEntities)
		metrics.UpdateWorkerCount(s.workerCount)
	}

	return stats
}
