package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/murder/internal/domain"
	"github.com/roach88/murder/internal/render"
)

// RenderResult is the output of the graph, sheets and chart commands.
type RenderResult struct {
	Path string `json:"path"`

	// Rendered is false when the document was already in the cache.
	Rendered bool `json:"rendered"`
}

// renderOptions are the flags shared by the render commands.
type renderOptions struct {
	*RootOptions
	Output string
}

func (o *renderOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.Output, "output", "o", "", "write here instead of the cache directory")
}

// write renders into the explicit output file, or into the cache under a
// path derived from key.
func (o *renderOptions) write(a *App, kind, ext string, key []string, build func(io.Writer) error) error {
	var result RenderResult
	if o.Output != "" {
		f, err := os.Create(o.Output)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to create output", err)
		}
		if err := build(f); err != nil {
			f.Close()
			return fmt.Errorf("render %s: %w", kind, err)
		}
		if err := f.Close(); err != nil {
			return WrapExitError(ExitCommandError, "failed to write output", err)
		}
		result = RenderResult{Path: o.Output, Rendered: true}
	} else {
		path := render.CachePath(a.Config.CacheDir, kind, ext, key...)
		rendered, err := render.WriteCached(path, build)
		if err != nil {
			return fmt.Errorf("render %s: %w", kind, err)
		}
		result = RenderResult{Path: path, Rendered: rendered}
	}

	a.Out.VerboseLog("%s: rendered=%t", result.Path, result.Rendered)
	return a.Out.Result(result, func(w io.Writer) {
		fmt.Fprintln(w, result.Path)
	})
}

// NewGraphCommand creates the graph command.
func NewGraphCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &renderOptions{RootOptions: rootOpts}
	var circles []string
	var showOwners bool

	cmd := &cobra.Command{
		Use:   "graph <game>",
		Short: "Render the murder chains as a Graphviz DOT file",
		Long: `Render the murder chains as a Graphviz DOT file.

Each victim is a node. A dashed edge leads from the initial owner to the
victim, a solid edge from the killer, labelled with how it happened.
Initial owners stay hidden until the game has ended unless
--show-owners is given.

Examples:
  murder graph summer24
  murder graph summer24 --circle main -o chains.dot && dot -Tsvg chains.dot`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(a *App) error {
				return a.Engine.View(cmd.Context(), args[0], func(g *domain.Game) error {
					gopts := render.GraphOptions{
						Circles:           circles,
						HideInitialOwners: !showOwners && !g.Ended(),
					}
					key := []string{g.ID, strconv.FormatInt(g.Seq, 10), strconv.FormatBool(gopts.HideInitialOwners)}
					key = append(key, circles...)
					return opts.write(a, "graph", ".dot", key, func(w io.Writer) error {
						return render.Graph(w, g, gopts)
					})
				})
			})
		},
	}

	opts.bind(cmd)
	cmd.Flags().StringSliceVar(&circles, "circle", nil, "only these circles (repeatable)")
	cmd.Flags().BoolVar(&showOwners, "show-owners", false, "show initial owners before the game has ended")
	return cmd
}

// NewSheetsCommand creates the sheets command.
func NewSheetsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &renderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sheets <game>",
		Short: "Render mission sheets as an XLSX workbook",
		Long: `Render a mission sheet for every achievable assignment as one row of
an XLSX workbook, with the secret code and a QR code linking to the game.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(a *App) error {
				return a.Engine.View(cmd.Context(), args[0], func(g *domain.Game) error {
					sheets := render.MissionSheets(g, func(as *domain.Assignment) string {
						return a.Engine.Code(g, as)
					}, a.Config.BaseURL)

					key := []string{g.ID}
					for _, s := range sheets {
						key = append(key, strings.Join([]string{s.Headline, s.Circle, s.Owner, s.Victim, s.Code, s.URL}, "\x00"))
					}
					return opts.write(a, "sheets", ".xlsx", key, func(w io.Writer) error {
						return render.WriteSheets(w, sheets)
					})
				})
			})
		},
	}

	opts.bind(cmd)
	return cmd
}

// NewChartCommand creates the chart command.
func NewChartCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &renderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "chart <game>",
		Short: "Render kills per player as a PNG bar chart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(a *App) error {
				return a.Engine.View(cmd.Context(), args[0], func(g *domain.Game) error {
					key := []string{g.ID, strconv.FormatInt(g.Seq, 10)}
					return opts.write(a, "chart", ".png", key, func(w io.Writer) error {
						return render.KillChart(w, g)
					})
				})
			})
		},
	}

	opts.bind(cmd)
	return cmd
}
