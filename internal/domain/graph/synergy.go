package graph

import (
	"context"
	"fmt"
	"math"
)

// Synergy computation constants.
const (
	similarToBonus     = 0.2
	playsForBonus      = 0.3
	assumedMaxGames    = 50.0 // games-together normalization ceiling
	synergyGamesWeight = 0.30
	synergyWinWeight   = 0.35
	synergySimWeight   = 0.35
)

// CosineSimilarity returns the cosine similarity of two equal-length vectors.
// Mismatched non-empty lengths are a programmer error and return
// ErrModelFailure; empty input returns 0.
func CosineSimilarity(a, b []float64) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, nil
	}
	if len(a) != len(b) {
		return 0, fmt.Errorf("cosine similarity: vector lengths %d and %d: %w", len(a), len(b), ErrModelFailure)
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// PairwiseSynergy estimates how well two players fit together: embedding
// similarity plus fixed bonuses for direct SIMILAR_TO and PLAYS_FOR edges,
// clamped to [0,1].
func (g *Graph) PairwiseSynergy(_ context.Context, playerA, playerB string) float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.pairwiseSynergyLocked(playerA, playerB)
}

func (g *Graph) pairwiseSynergyLocked(playerA, playerB string) float64 {
	score := clamp01(g.embeddingSimilarityLocked(playerA, playerB))
	if g.hasDirectEdgeLocked(playerA, playerB, RelSimilarTo) {
		score += similarToBonus
	}
	if g.hasDirectEdgeLocked(playerA, playerB, RelPlaysFor) {
		score += playsForBonus
	}
	return clamp01(score)
}

func (g *Graph) embeddingSimilarityLocked(playerA, playerB string) float64 {
	na, okA := g.nodes[playerA]
	nb, okB := g.nodes[playerB]
	if !okA || !okB {
		return 0
	}
	sim, err := CosineSimilarity(na.Embedding, nb.Embedding)
	if err != nil {
		// Mixed embedding lengths between nodes degrade to no signal here;
		// CosineSimilarity surfaces the failure to direct callers.
		return 0
	}
	return sim
}

func (g *Graph) hasDirectEdgeLocked(a, b string, rel Relationship) bool {
	for _, e := range g.out[a] {
		if e.Relationship == rel && e.Target == b {
			return true
		}
	}
	for _, e := range g.out[b] {
		if e.Relationship == rel && e.Target == a {
			return true
		}
	}
	return false
}

// Synergy returns the materialized synergy edge for an unordered pair.
func (g *Graph) Synergy(_ context.Context, playerA, playerB string) (SynergyEdge, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	edge, ok := g.synergy[newPairKey(playerA, playerB)]
	if !ok {
		return SynergyEdge{}, false
	}
	return *edge, true
}

// PlayerCentrality returns the player's normalized total incident synergy
// weight, recomputed on every RecordMatchResult.
func (g *Graph) PlayerCentrality(_ context.Context, playerID string) float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.centrality[playerID]
}

// RecordMatchResult updates shared-history counters for every unordered pair
// in the roster, then runs the full projection recompute: similarity from
// current embeddings, the games/winrate/similarity blend, renormalization
// against the observed maximum, and per-player centrality.
func (g *Graph) RecordMatchResult(_ context.Context, playerIDs []string, won bool) {
	if len(playerIDs) < 2 {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	for i := 0; i < len(playerIDs); i++ {
		for j := i + 1; j < len(playerIDs); j++ {
			key := newPairKey(playerIDs[i], playerIDs[j])
			edge, ok := g.synergy[key]
			if !ok {
				edge = &SynergyEdge{PlayerA: key.a, PlayerB: key.b}
				g.synergy[key] = edge
			}
			edge.GamesTogether++
			if won {
				edge.WinsTogether++
			}
			edge.WinRate = float64(edge.WinsTogether) / float64(edge.GamesTogether)
			edge.LastPlayedAt = now
		}
	}

	g.recomputeSynergyLocked()
}

// recomputeSynergyLocked rebuilds every synergy score from current state.
// O(edges) per recorded result; results are far rarer than prediction reads.
func (g *Graph) recomputeSynergyLocked() {
	maxScore := 0.0
	for _, edge := range g.synergy {
		edge.SimilarityScore = clamp01(g.embeddingSimilarityLocked(edge.PlayerA, edge.PlayerB))
		gamesNorm := math.Min(1, float64(edge.GamesTogether)/assumedMaxGames)
		edge.SynergyScore = gamesNorm*synergyGamesWeight +
			edge.WinRate*synergyWinWeight +
			edge.SimilarityScore*synergySimWeight
		if edge.SynergyScore > maxScore {
			maxScore = edge.SynergyScore
		}
	}
	if maxScore > 0 {
		for _, edge := range g.synergy {
			edge.SynergyScore = edge.SynergyScore / maxScore
		}
	}

	incident := make(map[string]float64)
	maxIncident := 0.0
	for _, edge := range g.synergy {
		incident[edge.PlayerA] += edge.SynergyScore
		incident[edge.PlayerB] += edge.SynergyScore
	}
	for _, total := range incident {
		if total > maxIncident {
			maxIncident = total
		}
	}
	g.centrality = make(map[string]float64)
	for id, total := range incident {
		if maxIncident > 0 {
			g.centrality[id] = total / maxIncident
		}
	}
}
