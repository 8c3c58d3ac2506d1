// Package rating maintains per-entity skill ratings with an Elo core and a
// Glicko-style uncertainty term. Ratings are updated only through RecordResult
// and read through Get/Predict/Rankings; unknown entities are lazily created
// at the configured base rating and no operation fails on missing data.
package rating

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"
)

// Default rating configuration constants.
const (
	defaultBaseRating    = 1200.0
	defaultKFactor       = 32.0
	defaultHomeAdvantage = 0.0
	defaultMaxChange     = 50.0
	defaultGapThreshold  = 400.0

	// Glicko-style deviation bounds.
	initialDeviation = 350.0
	minDeviation     = 50.0

	mismatchKReduction = 0.5  // K multiplier when the rating gap exceeds the threshold
	upsetKBoost        = 1.25 // K multiplier when the lower-rated side wins
	uncertaintyDamping = 0.5  // how far high deviation pulls Predict toward 0.5
)

// Rating is the stored skill state for one entity.
type Rating struct {
	EntityID      string    `json:"entity_id"`
	Rating        float64   `json:"rating"`
	Deviation     float64   `json:"deviation"`
	GamesPlayed   int       `json:"games_played"`
	PeakRating    float64   `json:"peak_rating"`
	LastUpdatedAt time.Time `json:"last_updated_at"`
}

// Prediction is a pair of complementary win probabilities.
type Prediction struct {
	ProbA float64 `json:"prob_a"`
	ProbB float64 `json:"prob_b"`
}

// Repository is the swappable storage behind the store. Implementations must
// be safe for concurrent use.
type Repository interface {
	// Get returns the rating for id and whether it exists.
	Get(ctx context.Context, id string) (Rating, bool)
	// Put stores or replaces a rating.
	Put(ctx context.Context, r Rating)
	// All returns every stored rating in unspecified order.
	All(ctx context.Context) []Rating
	// Reset removes all stored ratings.
	Reset(ctx context.Context)
}

// Store computes Elo/Glicko updates on top of a Repository. Updates are
// read-modify-write over the repository, so the store serializes them with
// its own mutex; Rankings reads a snapshot and needs no lock.
type Store struct {
	mu            sync.Mutex
	repo          Repository
	baseRating    float64
	kFactor       float64
	homeAdvantage float64
	maxChange     float64
	gapThreshold  float64
	now           func() time.Time
}

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithBaseRating sets the rating assigned to entities on first access.
func WithBaseRating(base float64) Option {
	return func(s *Store) {
		if base > 0 {
			s.baseRating = base
		}
	}
}

// WithKFactor sets the base K-factor.
func WithKFactor(k float64) Option {
	return func(s *Store) {
		if k > 0 {
			s.kFactor = k
		}
	}
}

// WithHomeAdvantage sets the fixed constant subtracted from the away side's
// rating before computing the expected score. Zero disables it.
func WithHomeAdvantage(adv float64) Option {
	return func(s *Store) {
		if adv >= 0 {
			s.homeAdvantage = adv
		}
	}
}

// WithMaxChange bounds the absolute rating delta of a single result.
func WithMaxChange(maxChange float64) Option {
	return func(s *Store) {
		if maxChange > 0 {
			s.maxChange = maxChange
		}
	}
}

// WithGapThreshold sets the rating gap beyond which K is reduced.
func WithGapThreshold(gap float64) Option {
	return func(s *Store) {
		if gap > 0 {
			s.gapThreshold = gap
		}
	}
}

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore creates a rating store backed by repo.
func NewStore(repo Repository, opts ...Option) *Store {
	s := &Store{
		repo:          repo,
		baseRating:    defaultBaseRating,
		kFactor:       defaultKFactor,
		homeAdvantage: defaultHomeAdvantage,
		maxChange:     defaultMaxChange,
		gapThreshold:  defaultGapThreshold,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the rating for id, creating it at the base rating on first access.
func (s *Store) Get(ctx context.Context, id string) Rating {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(ctx, id)
}

// getLocked is Get for callers already holding the store mutex. Lazy creation
// writes to the repository, so it must not race with RecordResult.
func (s *Store) getLocked(ctx context.Context, id string) Rating {
	if r, ok := s.repo.Get(ctx, id); ok {
		return r
	}
	r := Rating{
		EntityID:      id,
		Rating:        s.baseRating,
		Deviation:     initialDeviation,
		PeakRating:    s.baseRating,
		LastUpdatedAt: s.now(),
	}
	s.repo.Put(ctx, r)
	return r
}

// Predict returns the win probabilities for a against b. The logistic Elo
// expectation is blended toward 0.5 when either side's deviation is high, so
// under-observed entities never produce overconfident predictions.
func (s *Store) Predict(ctx context.Context, idA, idB string) Prediction {
	s.mu.Lock()
	a := s.getLocked(ctx, idA)
	b := s.getLocked(ctx, idB)
	s.mu.Unlock()

	expected := s.expectedScore(a.Rating, b.Rating)

	uncertainty := (a.Deviation + b.Deviation) / (2 * initialDeviation)
	if uncertainty > 1 {
		uncertainty = 1
	}
	probA := 0.5 + (expected-0.5)*(1-uncertaintyDamping*uncertainty)

	return Prediction{ProbA: probA, ProbB: 1 - probA}
}

// RecordResult applies a match outcome and returns the updated ratings.
// The update is zero-sum: B receives the negated delta of A. The whole
// read-compute-write is done under the store mutex so concurrent writers
// never lose updates.
func (s *Store) RecordResult(ctx context.Context, idA, idB string, scoreA, scoreB int, draw bool) (Rating, Rating) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.getLocked(ctx, idA)
	b := s.getLocked(ctx, idB)

	actual := 0.5
	if !draw {
		if scoreA > scoreB {
			actual = 1
		} else if scoreA < scoreB {
			actual = 0
		}
	}

	expected := s.expectedScore(a.Rating, b.Rating)

	k := s.kFactor
	gap := math.Abs(a.Rating - b.Rating)
	if gap > s.gapThreshold {
		// Mismatches carry little information; react less.
		k *= mismatchKReduction
	}
	if isUpset(a.Rating, b.Rating, actual) {
		k *= upsetKBoost
	}

	delta := k * (actual - expected)
	if delta > s.maxChange {
		delta = s.maxChange
	} else if delta < -s.maxChange {
		delta = -s.maxChange
	}

	now := s.now()
	a.Rating += delta
	b.Rating -= delta
	a.GamesPlayed++
	b.GamesPlayed++
	a.Deviation = shrinkDeviation(a.GamesPlayed)
	b.Deviation = shrinkDeviation(b.GamesPlayed)
	a.PeakRating = math.Max(a.PeakRating, a.Rating)
	b.PeakRating = math.Max(b.PeakRating, b.Rating)
	a.LastUpdatedAt = now
	b.LastUpdatedAt = now

	s.repo.Put(ctx, a)
	s.repo.Put(ctx, b)
	return a, b
}

// Rankings returns every known rating sorted by rating descending, entity id
// ascending on ties.
func (s *Store) Rankings(ctx context.Context) []Rating {
	all := s.repo.All(ctx)
	sort.Slice(all, func(i, j int) bool {
		if all[i].Rating != all[j].Rating {
			return all[i].Rating > all[j].Rating
		}
		return all[i].EntityID < all[j].EntityID
	})
	return all
}

// Reset clears all ratings. Individual ratings are never deleted.
func (s *Store) Reset(ctx context.Context) {
	s.repo.Reset(ctx)
}

// expectedScore is the standard logistic Elo expectation for side A, with the
// home-advantage constant subtracted from the opponent's rating.
func (s *Store) expectedScore(ratingA, ratingB float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, ((ratingB-s.homeAdvantage)-ratingA)/400.0))
}

func shrinkDeviation(games int) float64 {
	d := initialDeviation / math.Sqrt(float64(games)+1)
	return math.Max(minDeviation, d)
}

func isUpset(ratingA, ratingB, actual float64) bool {
	if actual == 1 {
		return ratingA < ratingB
	}
	if actual == 0 {
		return ratingB < ratingA
	}
	return false
}
