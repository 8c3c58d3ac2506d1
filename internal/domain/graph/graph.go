// Package graph maintains a typed labeled multigraph over esports entities
// and derives graph-theoretic prediction signals from it.
//
// Two collections live side by side: generic relationship edges form an
// append-only event log that is never rewritten, while synergy edges are a
// materialized projection (one mutable record per unordered player pair)
// recomputed deterministically from the log and current embeddings on every
// recorded match result. Writes are serialized behind a single mutex; reads
// take the shared lock.
package graph

import (
	"context"
	"sync"
	"time"
)

// NodeType classifies graph nodes.
type NodeType string

// Known node types.
const (
	NodePlayer     NodeType = "player"
	NodeTeam       NodeType = "team"
	NodeRole       NodeType = "role"
	NodeStrategy   NodeType = "strategy"
	NodeMetaState  NodeType = "metaState"
	NodeTournament NodeType = "tournament"
	NodeMap        NodeType = "map"
)

// Relationship labels a directed edge.
type Relationship string

// Known relationship types.
const (
	RelPlaysFor       Relationship = "PLAYS_FOR"
	RelBeat           Relationship = "BEAT"
	RelLostTo         Relationship = "LOST_TO"
	RelSimilarTo      Relationship = "SIMILAR_TO"
	RelCounters       Relationship = "COUNTERS"
	RelCounteredBy    Relationship = "COUNTERED_BY"
	RelAdaptedFrom    Relationship = "ADAPTED_FROM"
	RelInfluences     Relationship = "INFLUENCES"
	RelParticipatedIn Relationship = "PARTICIPATED_IN"
	RelPlayedOn       Relationship = "PLAYED_ON"
	RelRivalOf        Relationship = "RIVAL_OF"
)

// Embedding length bounds.
const (
	minEmbeddingLen = 6
	maxEmbeddingLen = 16
)

// Node is a graph vertex. Version increments on every in-place update.
type Node struct {
	ID         string         `json:"id"`
	Type       NodeType       `json:"type"`
	Name       string         `json:"name"`
	Properties map[string]any `json:"properties,omitempty"`
	Embedding  []float64      `json:"embedding,omitempty"`
	Version    int            `json:"version"`
}

// Edge is one immutable relationship event between two nodes.
type Edge struct {
	Source       string         `json:"source"`
	Target       string         `json:"target"`
	Relationship Relationship   `json:"relationship"`
	Weight       float64        `json:"weight"`
	Attributes   map[string]any `json:"attributes,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// SynergyEdge is the mutable pairwise player record, keyed by the canonical
// unordered pair.
type SynergyEdge struct {
	PlayerA         string    `json:"player_a"`
	PlayerB         string    `json:"player_b"`
	GamesTogether   int       `json:"games_together"`
	WinsTogether    int       `json:"wins_together"`
	WinRate         float64   `json:"win_rate"`
	SimilarityScore float64   `json:"similarity_score"`
	SynergyScore    float64   `json:"synergy_score"`
	LastPlayedAt    time.Time `json:"last_played_at"`
}

type pairKey struct{ a, b string }

func newPairKey(x, y string) pairKey {
	if x < y {
		return pairKey{a: x, b: y}
	}
	return pairKey{a: y, b: x}
}

// Graph is the in-memory store. The zero value is not usable; construct with New.
type Graph struct {
	mu         sync.RWMutex
	nodes      map[string]*Node
	out        map[string][]*Edge
	in         map[string][]*Edge
	synergy    map[pairKey]*SynergyEdge
	centrality map[string]float64 // per-player normalized incident synergy weight

	typeWeights map[Relationship]float64
	now         func() time.Time
}

// Option applies a configuration option to the Graph.
type Option func(*Graph)

// WithRelationshipWeights overrides the per-type edge contribution weights.
func WithRelationshipWeights(weights map[Relationship]float64) Option {
	return func(g *Graph) {
		if len(weights) > 0 {
			g.typeWeights = weights
		}
	}
}

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(g *Graph) {
		if now != nil {
			g.now = now
		}
	}
}

// New creates an empty graph.
func New(opts ...Option) *Graph {
	g := &Graph{
		nodes:       make(map[string]*Node),
		out:         make(map[string][]*Edge),
		in:          make(map[string][]*Edge),
		synergy:     make(map[pairKey]*SynergyEdge),
		centrality:  make(map[string]float64),
		typeWeights: defaultRelationshipWeights(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func defaultRelationshipWeights() map[Relationship]float64 {
	return map[Relationship]float64{
		RelInfluences:     0.9,
		RelBeat:           0.8,
		RelRivalOf:        0.8,
		RelPlaysFor:       0.7,
		RelCounters:       0.7,
		RelAdaptedFrom:    0.7,
		RelLostTo:         0.6,
		RelCounteredBy:    0.6,
		RelSimilarTo:      0.5,
		RelParticipatedIn: 0.4,
		RelPlayedOn:       0.3,
	}
}

const defaultTypeWeight = 0.5

// AddNode inserts or updates a node in place. Updates increment the version
// and preserve fields the caller leaves zero. Nodes are never deleted except
// through Clear.
func (g *Graph) AddNode(_ context.Context, n Node) Node {
	g.mu.Lock()
	defer g.mu.Unlock()
	return *g.upsertNode(n)
}

func (g *Graph) upsertNode(n Node) *Node {
	existing, ok := g.nodes[n.ID]
	if !ok {
		stored := n
		stored.Version = 1
		if len(stored.Embedding) > maxEmbeddingLen {
			stored.Embedding = stored.Embedding[:maxEmbeddingLen]
		}
		g.nodes[n.ID] = &stored
		return &stored
	}
	existing.Version++
	if n.Name != "" {
		existing.Name = n.Name
	}
	if n.Type != "" {
		existing.Type = n.Type
	}
	for k, v := range n.Properties {
		if existing.Properties == nil {
			existing.Properties = make(map[string]any)
		}
		existing.Properties[k] = v
	}
	if len(n.Embedding) >= minEmbeddingLen {
		emb := n.Embedding
		if len(emb) > maxEmbeddingLen {
			emb = emb[:maxEmbeddingLen]
		}
		existing.Embedding = emb
	}
	return existing
}

// Node returns a node by id.
func (g *Graph) Node(_ context.Context, id string) (Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// AddEdge appends a relationship event. Endpoint nodes are created on first
// reference so malformed input degrades instead of failing.
func (g *Graph) AddEdge(_ context.Context, e Edge) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[e.Source]; !ok {
		g.upsertNode(Node{ID: e.Source})
	}
	if _, ok := g.nodes[e.Target]; !ok {
		g.upsertNode(Node{ID: e.Target})
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = g.now()
	}
	stored := e
	g.out[e.Source] = append(g.out[e.Source], &stored)
	g.in[e.Target] = append(g.in[e.Target], &stored)
}

// Neighbors returns the distinct targets of outgoing edges from id.
func (g *Graph) Neighbors(_ context.Context, id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.neighborsLocked(id)
}

func (g *Graph) neighborsLocked(id string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, e := range g.out[id] {
		if _, ok := seen[e.Target]; ok {
			continue
		}
		seen[e.Target] = struct{}{}
		out = append(out, e.Target)
	}
	return out
}

// ShortestPath returns the unweighted BFS path from source to target
// following outgoing edges, inclusive of both endpoints. The empty slice
// means no path exists.
func (g *Graph) ShortestPath(_ context.Context, source, target string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, ok := g.nodes[source]; !ok {
		return nil
	}
	if source == target {
		return []string{source}
	}

	prev := map[string]string{source: ""}
	queue := []string{source}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range g.neighborsLocked(current) {
			if _, visited := prev[next]; visited {
				continue
			}
			prev[next] = current
			if next == target {
				return buildPath(prev, source, target)
			}
			queue = append(queue, next)
		}
	}
	return nil
}

func buildPath(prev map[string]string, source, target string) []string {
	var reversed []string
	for at := target; at != ""; at = prev[at] {
		reversed = append(reversed, at)
		if at == source {
			break
		}
	}
	path := make([]string, 0, len(reversed))
	for i := len(reversed) - 1; i >= 0; i-- {
		path = append(path, reversed[i])
	}
	return path
}

// Clear drops all nodes, edges and synergy state.
func (g *Graph) Clear(_ context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes = make(map[string]*Node)
	g.out = make(map[string][]*Edge)
	g.in = make(map[string][]*Edge)
	g.synergy = make(map[pairKey]*SynergyEdge)
	g.centrality = make(map[string]float64)
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount(_ context.Context) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// EdgeCount returns the number of generic relationship edges.
func (g *Graph) EdgeCount(_ context.Context) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	total := 0
	for _, edges := range g.out {
		total += len(edges)
	}
	return total
}
