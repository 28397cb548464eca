package graph

import (
	"sort"
	"strings"

	"github.com/nexalabs/impactgraph/internal/models"
)

// Match ranks, best first.
const (
	matchExact = iota
	matchPrefix
	matchSubstring
)

type hit struct {
	id    string
	name  string
	class int
}

// Search returns nodes whose name contains term, case-insensitively.
// Exact matches come first, then prefix matches, then other substring
// matches; each group is ordered by lower-cased name, then id. A blank
// term returns an empty slice. limit <= 0 returns every match.
func (g *Graph) Search(term string, limit int) []models.MetadataNode {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return []models.MetadataNode{}
	}

	var hits []hit

	for _, id := range g.ids {
		name := g.names[id]
		if !strings.Contains(name, needle) {
			continue
		}

		class := matchSubstring
		switch {
		case name == needle:
			class = matchExact
		case strings.HasPrefix(name, needle):
			class = matchPrefix
		}

		hits = append(hits, hit{id: id, name: name, class: class})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].class != hits[j].class {
			return hits[i].class < hits[j].class
		}
		if hits[i].name != hits[j].name {
			return hits[i].name < hits[j].name
		}
		return hits[i].id < hits[j].id
	})

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}

	out := make([]models.MetadataNode, 0, len(hits))
	for _, h := range hits {
		out = append(out, g.nodes[h.id])
	}

	return out
}
