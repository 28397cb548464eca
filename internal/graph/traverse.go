package graph

import (
	"context"
	"fmt"
	"sort"

	"github.com/nexalabs/impactgraph/internal/models"
)

// ctxCheckInterval is how many edge expansions run between context checks.
const ctxCheckInterval = 1024

// Reached is one node discovered by a traversal.
type Reached struct {
	Node     models.MetadataNode
	Distance int
	// Impact is the declared impact of the first edge on Path.
	Impact models.Impact
	// Path runs from Node back toward the traversal root, one edge per hop.
	Path []models.DependencyEdge
}

// Traversal is the raw result of a breadth-first walk.
type Traversal struct {
	Root      models.MetadataNode
	Direction models.Direction
	MaxDepth  int
	// Results are ordered by distance, then id.
	Results []Reached
	// DepthLimited is true when MaxDepth stopped the walk before every
	// reachable node was visited.
	DepthLimited bool
}

type visit struct {
	distance int
	parent   string
	impact   models.Impact
}

// FindDependents returns every node that transitively depends on id,
// walking incoming edges. maxDepth <= 0 means unbounded.
func (g *Graph) FindDependents(ctx context.Context, id string, maxDepth int) (*Traversal, error) {
	return g.traverse(ctx, id, maxDepth, models.DirectionDependents)
}

// FindDependencies returns every node that id transitively depends on,
// walking outgoing edges. maxDepth <= 0 means unbounded.
func (g *Graph) FindDependencies(ctx context.Context, id string, maxDepth int) (*Traversal, error) {
	return g.traverse(ctx, id, maxDepth, models.DirectionDependencies)
}

// Traverse dispatches on dir.
func (g *Graph) Traverse(ctx context.Context, id string, maxDepth int, dir models.Direction) (*Traversal, error) {
	switch dir {
	case models.DirectionDependents, "":
		return g.FindDependents(ctx, id, maxDepth)
	case models.DirectionDependencies:
		return g.FindDependencies(ctx, id, maxDepth)
	default:
		return nil, fmt.Errorf("%w: unknown direction %q", models.ErrInvalidRequest, dir)
	}
}

func (g *Graph) traverse(ctx context.Context, id string, maxDepth int, dir models.Direction) (*Traversal, error) {
	root, err := g.Get(id)
	if err != nil {
		return nil, err
	}

	adj := g.in
	if dir == models.DirectionDependencies {
		adj = g.out
	}

	if maxDepth < 0 {
		maxDepth = 0
	}

	t := &Traversal{Root: root, Direction: dir, MaxDepth: maxDepth}

	visited := map[string]visit{id: {}}
	frontier := []string{id}
	expansions := 0

	for depth := 1; len(frontier) > 0; depth++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", models.ErrTimeout, err)
		}

		if maxDepth > 0 && depth > maxDepth {
			t.DepthLimited = hasUnvisited(adj, frontier, visited)
			break
		}

		candidates := make(map[string]visit)

		for _, parent := range frontier {
			for _, ref := range adj[parent] {
				expansions++
				if expansions%ctxCheckInterval == 0 {
					if err := ctx.Err(); err != nil {
						return nil, fmt.Errorf("%w: %w", models.ErrTimeout, err)
					}
				}

				if _, seen := visited[ref.peer]; seen {
					continue
				}

				cur, ok := candidates[ref.peer]
				if !ok || preferParent(ref.impact, parent, cur) {
					candidates[ref.peer] = visit{distance: depth, parent: parent, impact: ref.impact}
				}
			}
		}

		next := make([]string, 0, len(candidates))
		for nid, v := range candidates {
			visited[nid] = v
			next = append(next, nid)
		}
		sort.Strings(next)

		for _, nid := range next {
			t.Results = append(t.Results, Reached{
				Node:     g.nodes[nid],
				Distance: depth,
				Impact:   visited[nid].impact,
				Path:     buildPath(nid, visited, dir),
			})
		}

		frontier = next
	}

	return t, nil
}

// preferParent reports whether an edge of impact from parent beats the
// current candidate: higher declared impact first, then lower parent id.
func preferParent(impact models.Impact, parent string, cur visit) bool {
	if impact.Rank() != cur.impact.Rank() {
		return impact.Rank() > cur.impact.Rank()
	}

	return parent < cur.parent
}

func hasUnvisited(adj map[string][]edgeRef, frontier []string, visited map[string]visit) bool {
	for _, id := range frontier {
		for _, ref := range adj[id] {
			if _, seen := visited[ref.peer]; !seen {
				return true
			}
		}
	}

	return false
}

func buildPath(id string, visited map[string]visit, dir models.Direction) []models.DependencyEdge {
	v := visited[id]
	path := make([]models.DependencyEdge, 0, v.distance)

	for cur := id; visited[cur].distance > 0; cur = visited[cur].parent {
		step := visited[cur]
		e := models.DependencyEdge{From: cur, To: step.parent, DeclaredImpact: step.impact}
		if dir == models.DirectionDependencies {
			e.From, e.To = step.parent, cur
		}
		path = append(path, e)
	}

	return path
}
