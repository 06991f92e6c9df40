// Package graph builds the class inheritance graph of a record set and
// ranks classes by how much of the hierarchy rests on them.
package graph

import (
	"math"
	"sort"

	"github.com/phobologic/docextract/internal/model"
)

// Edge links a subclass to one of its superclasses, by longname.
type Edge struct {
	Subclass   string
	Superclass string
}

// Graph is the inheritance graph of the class records it was built from.
// Superclasses that have no class record of their own (externals, unresolved
// names) are still nodes.
type Graph struct {
	Edges []Edge

	nodes    map[string]struct{}
	parents  map[string][]string
	children map[string][]string
}

// Build creates an edge for every extends entry of every class record.
// Edges are deduplicated and sorted.
func Build(recs []*model.Record) *Graph {
	g := &Graph{
		nodes:    make(map[string]struct{}),
		parents:  make(map[string][]string),
		children: make(map[string][]string),
	}

	seen := make(map[Edge]struct{})
	for _, r := range recs {
		if r.Kind != model.Class {
			continue
		}
		g.nodes[r.Longname] = struct{}{}
		for _, sup := range r.Extends {
			e := Edge{Subclass: r.Longname, Superclass: sup}
			if _, dup := seen[e]; dup {
				continue
			}
			seen[e] = struct{}{}
			g.nodes[sup] = struct{}{}
			g.Edges = append(g.Edges, e)
			g.parents[r.Longname] = append(g.parents[r.Longname], sup)
			g.children[sup] = append(g.children[sup], r.Longname)
		}
	}

	sort.Slice(g.Edges, func(i, j int) bool {
		if g.Edges[i].Subclass != g.Edges[j].Subclass {
			return g.Edges[i].Subclass < g.Edges[j].Subclass
		}
		return g.Edges[i].Superclass < g.Edges[j].Superclass
	})

	return g
}

// DirectSubclasses returns the classes that extend longname directly, sorted.
func (g *Graph) DirectSubclasses(longname string) []string {
	out := append([]string(nil), g.children[longname]...)
	sort.Strings(out)
	return out
}

// IndirectSubclasses returns every descendant of longname that does not
// extend it directly, sorted.
func (g *Graph) IndirectSubclasses(longname string) []string {
	direct := make(map[string]struct{})
	for _, c := range g.children[longname] {
		direct[c] = struct{}{}
	}

	visited := map[string]struct{}{longname: {}}
	var out []string
	queue := append([]string(nil), g.children[longname]...)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if _, ok := visited[cur]; ok {
			continue
		}
		visited[cur] = struct{}{}
		if _, ok := direct[cur]; !ok {
			out = append(out, cur)
		}
		queue = append(queue, g.children[cur]...)
	}

	sort.Strings(out)
	return out
}

// ExtendsChain follows the first superclass of longname upwards, nearest
// first. It stops at a class without superclass or on a cycle.
func (g *Graph) ExtendsChain(longname string) []string {
	visited := map[string]struct{}{longname: {}}
	var chain []string
	for cur := longname; ; {
		ps := g.parents[cur]
		if len(ps) == 0 {
			return chain
		}
		cur = ps[0]
		if _, ok := visited[cur]; ok {
			return chain
		}
		visited[cur] = struct{}{}
		chain = append(chain, cur)
	}
}

// Rank applies PageRank over the subclass → superclass edges, so a class
// ranks higher the more of the hierarchy extends it. Ranks sum to ~1.
func (g *Graph) Rank() map[string]float64 {
	if len(g.nodes) == 0 {
		return nil
	}

	if len(g.Edges) == 0 {
		uniform := 1.0 / float64(len(g.nodes))
		ranks := make(map[string]float64, len(g.nodes))
		for n := range g.nodes {
			ranks[n] = uniform
		}
		return ranks
	}

	outDegree := make(map[string]int, len(g.parents))
	for n, ps := range g.parents {
		outDegree[n] = len(ps)
	}
	return pageRank(g.nodes, g.parents, outDegree, 0.85, 100, 1e-6)
}

func pageRank(
	nodes map[string]struct{},
	outEdges map[string][]string,
	outDegree map[string]int,
	alpha float64,
	maxIter int,
	tol float64,
) map[string]float64 {
	n := len(nodes)
	rank := make(map[string]float64, n)
	initial := 1.0 / float64(n)
	for node := range nodes {
		rank[node] = initial
	}

	teleport := (1.0 - alpha) / float64(n)

	for iter := 0; iter < maxIter; iter++ {
		newRank := make(map[string]float64, n)

		// Root classes have no outgoing edges; spread their rank evenly.
		var danglingSum float64
		for node := range nodes {
			if outDegree[node] == 0 {
				danglingSum += rank[node]
			}
		}
		danglingContrib := alpha * danglingSum / float64(n)

		for node := range nodes {
			newRank[node] = teleport + danglingContrib
		}

		for src, targets := range outEdges {
			contrib := alpha * rank[src] / float64(outDegree[src])
			for _, tgt := range targets {
				newRank[tgt] += contrib
			}
		}

		var diff float64
		for node := range nodes {
			diff += math.Abs(newRank[node] - rank[node])
		}

		rank = newRank

		if diff < tol {
			break
		}
	}

	return rank
}
