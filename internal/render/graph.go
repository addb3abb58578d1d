package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/roach88/murder/internal/domain"
)

// GraphOptions selects what Graph draws.
type GraphOptions struct {
	// Circles limits the graph to the named circles. Empty means all.
	Circles []string

	// HideInitialOwners leaves out the dashed initial-owner edges until
	// the game has ended, so the graph can be shown to players.
	HideInitialOwners bool
}

// Graph writes the chains of g in Graphviz DOT format.
//
// There is one node per victim. A dashed edge runs from the initial owner
// to the victim of each placed assignment; a solid edge labelled with the
// reason runs from the killer to the victim of each completed one. Edges
// are coloured by circle.
func Graph(w io.Writer, g *domain.Game, opts GraphOptions) error {
	circles, err := selectCircles(g, opts.Circles)
	if err != nil {
		return err
	}
	showInitial := !opts.HideInitialOwners || g.Ended()

	var nodes []string
	seen := make(map[string]bool)
	var edges strings.Builder
	for _, c := range circles {
		color := CircleColor(circleIndex(g, c))
		for _, a := range ordered(c) {
			if !seen[a.Victim.Name] {
				seen[a.Victim.Name] = true
				nodes = append(nodes, a.Victim.Name)
			}
			if showInitial {
				if owner := a.InitialOwner(); owner != nil {
					fmt.Fprintf(&edges, "\t%s -> %s [style=dashed, color=%s];\n",
						quote(owner.Name), quote(a.Victim.Name), quote(color))
				}
			}
			if k := a.Killer(); k != nil {
				fmt.Fprintf(&edges, "\t%s -> %s [label=%s, color=%s];\n",
					quote(k.Name), quote(a.Victim.Name), quote(a.Completion.Reason), quote(color))
			}
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "digraph %s {\n", quote(g.ID))
	fmt.Fprintf(&b, "\tlabel=%s;\n", quote(g.Title))
	b.WriteString("\tnode [shape=box];\n\n")
	for _, n := range nodes {
		fmt.Fprintf(&b, "\t%s;\n", quote(n))
	}
	if edges.Len() > 0 {
		b.WriteString("\n")
		b.WriteString(edges.String())
	}
	b.WriteString("}\n")

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write graph: %w", err)
	}
	return nil
}

// selectCircles resolves circle names, keeping game order.
func selectCircles(g *domain.Game, names []string) ([]*domain.Circle, error) {
	if len(names) == 0 {
		return g.Circles, nil
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		if _, ok := g.Circle(n); !ok {
			return nil, domain.Errorf(domain.CodeNotFound, "no circle named %q in game %q", n, g.ID)
		}
		want[n] = true
	}
	var out []*domain.Circle
	for _, c := range g.Circles {
		if want[c.Name] {
			out = append(out, c)
		}
	}
	return out, nil
}

func circleIndex(g *domain.Game, c *domain.Circle) int {
	for i, x := range g.Circles {
		if x == c {
			return i
		}
	}
	return 0
}

// ordered returns the ring followed by the unplaced assignments.
func ordered(c *domain.Circle) []*domain.Assignment {
	return append(c.Ring(), c.Unplaced()...)
}

var dotEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

func quote(s string) string {
	return `"` + dotEscaper.Replace(s) + `"`
}
