package graph

import (
	"context"
	"math"
)

// Metric weighting constants.
const (
	influenceOutWeight        = 0.3
	influenceInWeight         = 0.5
	influenceCentralityWeight = 0.2

	rivalryBaseScale   = 0.7 // volume scaling floor
	rivalryVolumeSpan  = 0.3 // scaling grows toward 1.0 with match volume
	rivalryVolumeKnee  = 10.0
	diffusionVelocityK = 10.0
)

// InfluenceScore blends a node's outgoing and incoming edge contributions
// with a centrality bonus. Always in [0,1]; isolated or unknown nodes score 0.
func (g *Graph) InfluenceScore(ctx context.Context, nodeID string) float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, ok := g.nodes[nodeID]; !ok {
		return 0
	}
	out := g.edgeContribution(g.out[nodeID])
	in := g.edgeContribution(g.in[nodeID])
	central := g.centralityLocked(nodeID)

	return clamp01(influenceOutWeight*out + influenceInWeight*in + influenceCentralityWeight*central)
}

// edgeContribution averages weight*typeWeight over the given edges.
func (g *Graph) edgeContribution(edges []*Edge) float64 {
	if len(edges) == 0 {
		return 0
	}
	var sum float64
	for _, e := range edges {
		tw, ok := g.typeWeights[e.Relationship]
		if !ok {
			tw = defaultTypeWeight
		}
		sum += clamp01(e.Weight) * tw
	}
	return clamp01(sum / float64(len(edges)))
}

// SynergyStrength averages pairwise synergy over all PLAYS_FOR members of a
// team; fewer than two members yields 0.
func (g *Graph) SynergyStrength(ctx context.Context, teamID string) float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()

	members := g.teamMembersLocked(teamID)
	if len(members) < 2 {
		return 0
	}
	var sum float64
	pairs := 0
	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			sum += g.pairwiseSynergyLocked(members[i], members[j])
			pairs++
		}
	}
	return clamp01(sum / float64(pairs))
}

func (g *Graph) teamMembersLocked(teamID string) []string {
	seen := make(map[string]struct{})
	var members []string
	for _, e := range g.in[teamID] {
		if e.Relationship != RelPlaysFor {
			continue
		}
		if _, ok := seen[e.Source]; ok {
			continue
		}
		seen[e.Source] = struct{}{}
		members = append(members, e.Source)
	}
	return members
}

// RivalryIntensity averages BEAT/LOST_TO/RIVAL_OF edge weights between the
// pair (RIVAL_OF counted twice), scaled by encounter volume.
func (g *Graph) RivalryIntensity(ctx context.Context, a, b string) float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var sum float64
	var weight float64
	matches := 0
	for _, e := range append(g.out[a], g.out[b]...) {
		if !isRivalryEdge(e, a, b) {
			continue
		}
		w := 1.0
		if e.Relationship == RelRivalOf {
			w = 2.0
		}
		sum += clamp01(e.Weight) * w
		weight += w
		matches++
	}
	if weight == 0 {
		return 0
	}
	avg := sum / weight
	scale := rivalryBaseScale + rivalryVolumeSpan*math.Min(1, float64(matches)/rivalryVolumeKnee)
	return clamp01(avg * scale)
}

func isRivalryEdge(e *Edge, a, b string) bool {
	switch e.Relationship {
	case RelBeat, RelLostTo, RelRivalOf:
	default:
		return false
	}
	return (e.Source == a && e.Target == b) || (e.Source == b && e.Target == a)
}

// StrategyDiffusion combines the second-order/first-order adopter ratio with
// raw adoption velocity. Adoption is read from ADAPTED_FROM edges pointing at
// the strategy (first order) and at its adopters (second order).
func (g *Graph) StrategyDiffusion(ctx context.Context, strategyID string) float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()

	firstOrder := g.adoptersLocked(strategyID)
	if len(firstOrder) == 0 {
		return 0
	}
	secondOrder := make(map[string]struct{})
	for adopter := range firstOrder {
		for id := range g.adoptersLocked(adopter) {
			if id == strategyID {
				continue
			}
			if _, direct := firstOrder[id]; direct {
				continue
			}
			secondOrder[id] = struct{}{}
		}
	}

	ratio := math.Min(1, float64(len(secondOrder))/float64(len(firstOrder)))
	velocity := math.Min(1, float64(len(firstOrder))/diffusionVelocityK)
	return clamp01(0.5*ratio + 0.5*velocity)
}

func (g *Graph) adoptersLocked(id string) map[string]struct{} {
	adopters := make(map[string]struct{})
	for _, e := range g.in[id] {
		if e.Relationship == RelAdaptedFrom {
			adopters[e.Source] = struct{}{}
		}
	}
	return adopters
}

// Centrality is the degree-based approximation: distinct outgoing neighbors
// over total node count.
func (g *Graph) Centrality(ctx context.Context, nodeID string) float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.centralityLocked(nodeID)
}

func (g *Graph) centralityLocked(nodeID string) float64 {
	if len(g.nodes) == 0 {
		return 0
	}
	return clamp01(float64(len(g.neighborsLocked(nodeID))) / float64(len(g.nodes)))
}

// ClusteringCoefficient is the exact fraction of a node's neighbor pairs that
// are themselves connected (in either direction).
func (g *Graph) ClusteringCoefficient(ctx context.Context, nodeID string) float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()

	neighbors := g.neighborsLocked(nodeID)
	if len(neighbors) < 2 {
		return 0
	}
	connected := 0
	possible := 0
	for i := 0; i < len(neighbors); i++ {
		for j := i + 1; j < len(neighbors); j++ {
			possible++
			if g.connectedLocked(neighbors[i], neighbors[j]) || g.connectedLocked(neighbors[j], neighbors[i]) {
				connected++
			}
		}
	}
	return clamp01(float64(connected) / float64(possible))
}

func (g *Graph) connectedLocked(from, to string) bool {
	for _, e := range g.out[from] {
		if e.Target == to {
			return true
		}
	}
	return false
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
