package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nexalabs/impactgraph/internal/models"
)

// Build validates a raw node and edge list and returns an immutable Graph.
// Every problem in the payload is collected; if any is found a
// *models.GraphError is returned and no Graph is produced. Nodes with an
// empty OrgID are assigned orgID. Identical duplicate nodes and edges are
// merged silently.
func Build(orgID string, nodes []models.MetadataNode, edges []models.DependencyEdge) (*Graph, error) {
	b := builder{
		orgID:   orgID,
		nodes:   make(map[string]models.MetadataNode, len(nodes)),
		edges:   make(map[models.EdgeKey]models.Impact, len(edges)),
		flagged: make(map[models.EdgeKey]bool),
	}

	for _, n := range nodes {
		b.addNode(n)
	}

	for _, e := range edges {
		b.addEdge(e)
	}

	if len(b.problems) > 0 {
		return nil, &models.GraphError{OrgID: orgID, Problems: b.problems}
	}

	return b.finish(), nil
}

type builder struct {
	orgID    string
	nodes    map[string]models.MetadataNode
	edges    map[models.EdgeKey]models.Impact
	order    []models.EdgeKey
	flagged  map[models.EdgeKey]bool
	problems []models.Problem
}

func (b *builder) fail(p models.Problem) {
	b.problems = append(b.problems, p)
}

func (b *builder) addNode(n models.MetadataNode) {
	if n.OrgID == "" {
		n.OrgID = b.orgID
	}

	switch {
	case strings.TrimSpace(n.ID) == "":
		b.fail(models.Problem{Kind: models.ProblemInvalidNode, Message: "node with empty id"})
		return
	case len(n.ID) > models.MaxNodeIDLen:
		b.fail(models.Problem{Kind: models.ProblemInvalidNode, NodeID: n.ID,
			Message: fmt.Sprintf("node id exceeds maximum length of %d", models.MaxNodeIDLen)})
		return
	case strings.TrimSpace(n.Name) == "":
		b.fail(models.Problem{Kind: models.ProblemInvalidNode, NodeID: n.ID,
			Message: fmt.Sprintf("node %q has an empty name", n.ID)})
		return
	case !n.Type.Valid():
		b.fail(models.Problem{Kind: models.ProblemInvalidNode, NodeID: n.ID,
			Message: fmt.Sprintf("node %q has unknown type %q", n.ID, n.Type)})
		return
	case n.OrgID != b.orgID:
		b.fail(models.Problem{Kind: models.ProblemInvalidNode, NodeID: n.ID,
			Message: fmt.Sprintf("node %q belongs to org %q, not %q", n.ID, n.OrgID, b.orgID)})
		return
	case n.EstimatedRecords != nil && *n.EstimatedRecords < 0:
		b.fail(models.Problem{Kind: models.ProblemInvalidNode, NodeID: n.ID,
			Message: fmt.Sprintf("node %q has negative estimatedRecords", n.ID)})
		return
	}

	if prev, ok := b.nodes[n.ID]; ok {
		if !prev.Equal(n) {
			b.fail(models.Problem{Kind: models.ProblemDuplicateNode, NodeID: n.ID,
				Message: fmt.Sprintf("node %q is declared twice with different content", n.ID)})
		}
		return
	}

	b.nodes[n.ID] = n
}

func (b *builder) addEdge(e models.DependencyEdge) {
	if !e.DeclaredImpact.Valid() {
		edge := e
		b.fail(models.Problem{Kind: models.ProblemInvalidEdge, Edge: &edge,
			Message: fmt.Sprintf("edge %s -> %s has unknown impact %q", e.From, e.To, e.DeclaredImpact)})
		return
	}

	known := true
	for _, id := range []string{e.From, e.To} {
		if _, ok := b.nodes[id]; !ok {
			edge := e
			b.fail(models.Problem{Kind: models.ProblemUnknownNode, NodeID: id, Edge: &edge,
				Message: fmt.Sprintf("edge %s references unknown node %q", e, id)})
			known = false
		}
		if e.From == e.To {
			break
		}
	}
	if !known {
		return
	}

	key := e.Key()
	prev, ok := b.edges[key]
	switch {
	case !ok:
		b.edges[key] = e.DeclaredImpact
		b.order = append(b.order, key)
	case prev != e.DeclaredImpact && !b.flagged[key]:
		b.flagged[key] = true
		edge := e
		b.fail(models.Problem{Kind: models.ProblemAmbiguousEdge, Edge: &edge,
			Message: fmt.Sprintf("edge %s -> %s declared with conflicting impacts %q and %q",
				e.From, e.To, prev, e.DeclaredImpact)})
	}
}

func (b *builder) finish() *Graph {
	g := &Graph{
		orgID: b.orgID,
		nodes: b.nodes,
		names: make(map[string]string, len(b.nodes)),
		ids:   make([]string, 0, len(b.nodes)),
		edges: make([]models.DependencyEdge, 0, len(b.order)),
		out:   make(map[string][]edgeRef),
		in:    make(map[string][]edgeRef),
	}

	for id, n := range b.nodes {
		g.ids = append(g.ids, id)
		g.names[id] = strings.ToLower(n.Name)
	}
	sort.Strings(g.ids)

	sort.Slice(b.order, func(i, j int) bool {
		if b.order[i].From != b.order[j].From {
			return b.order[i].From < b.order[j].From
		}
		return b.order[i].To < b.order[j].To
	})

	for _, key := range b.order {
		impact := b.edges[key]
		g.edges = append(g.edges, models.DependencyEdge{From: key.From, To: key.To, DeclaredImpact: impact})
		g.out[key.From] = append(g.out[key.From], edgeRef{peer: key.To, impact: impact})
		g.in[key.To] = append(g.in[key.To], edgeRef{peer: key.From, impact: impact})
	}

	sortRefs(g.out)
	sortRefs(g.in)

	return g
}
