// Package graph holds the immutable per-org metadata dependency graph and the
// algorithms that run over it. A Graph is never mutated after Build returns,
// so any number of goroutines may query it without locking.
package graph

import (
	"sort"

	"github.com/nexalabs/impactgraph/internal/models"
)

// edgeRef is one adjacency entry: the node on the other end and the declared impact.
type edgeRef struct {
	peer   string
	impact models.Impact
}

// Graph is a built metadata snapshot for a single org.
type Graph struct {
	orgID string
	nodes map[string]models.MetadataNode
	names map[string]string // id -> lower-cased name
	ids   []string          // sorted
	edges []models.DependencyEdge

	// out[id] lists what id depends on; in[id] lists what depends on id.
	out map[string][]edgeRef
	in  map[string][]edgeRef
}

// OrgID returns the org the graph was built for.
func (g *Graph) OrgID() string { return g.orgID }

// Get returns the node with the given id.
func (g *Graph) Get(id string) (models.MetadataNode, error) {
	n, ok := g.nodes[id]
	if !ok {
		return models.MetadataNode{}, models.ErrNodeNotFound
	}

	return n, nil
}

// Has reports whether id is a node of the graph.
func (g *Graph) Has(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Nodes returns every node ordered by id.
func (g *Graph) Nodes() []models.MetadataNode {
	out := make([]models.MetadataNode, 0, len(g.ids))
	for _, id := range g.ids {
		out = append(out, g.nodes[id])
	}

	return out
}

// Edges returns every edge ordered by (from, to).
func (g *Graph) Edges() []models.DependencyEdge {
	out := make([]models.DependencyEdge, len(g.edges))
	copy(out, g.edges)

	return out
}

// Stats returns node and edge counts, with nodes broken down by type.
func (g *Graph) Stats() models.GraphStats {
	byType := make(map[models.NodeType]int, len(models.AllNodeTypes))
	for _, n := range g.nodes {
		byType[n.Type]++
	}

	return models.GraphStats{
		NodeCount:   len(g.nodes),
		EdgeCount:   len(g.edges),
		NodesByType: byType,
	}
}

// Degree returns the number of dependents and dependencies of id.
func (g *Graph) Degree(id string) (dependents, dependencies int) {
	return len(g.in[id]), len(g.out[id])
}

func sortRefs(m map[string][]edgeRef) {
	for _, refs := range m {
		sort.Slice(refs, func(i, j int) bool { return refs[i].peer < refs[j].peer })
	}
}
