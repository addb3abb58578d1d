package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/murder/internal/domain"
	"github.com/roach88/murder/internal/testgame"
)

// NewCreateTestGameCommand creates the create-test-game command.
func NewCreateTestGameCommand(rootOpts *RootOptions) *cobra.Command {
	opts := testgame.Options{}

	cmd := &cobra.Command{
		Use:   "create-test-game <game>",
		Short: "Create a running game with generated players",
		Long: `Create a game with generated players, join everybody to every
circle, start it and record some random murders.

The same --seed always produces the same players and the same murders.

Example:
  murder create-test-game demo --players 20 --circles 2 --murders 10 --seed 7`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ID = args[0]
			if !cmd.Flags().Changed("seed") {
				opts.Seed = uint64(time.Now().UnixNano())
			}
			return withApp(rootOpts, cmd, func(a *App) error {
				if err := testgame.Create(cmd.Context(), a.Engine, opts); err != nil {
					if domain.IsGameError(err) {
						return fmt.Errorf("create test game: %w", err)
					}
					return WrapExitError(ExitCommandError, "failed to create test game", err)
				}
				return a.Engine.View(cmd.Context(), opts.ID, func(g *domain.Game) error {
					result := buildStatus(g)
					return a.Out.Result(result, func(w io.Writer) {
						fmt.Fprintf(w, "✓ Created test game %s (seed %d)\n\n", opts.ID, opts.Seed)
						outputStatusText(w, result)
					})
				})
			})
		},
	}

	cmd.Flags().StringVar(&opts.Title, "title", "", "game title")
	cmd.Flags().StringVar(&opts.Password, "password", "test", "game master password")
	cmd.Flags().IntVar(&opts.Players, "players", 10, "number of players")
	cmd.Flags().IntVar(&opts.Circles, "circles", 1, "number of circles")
	cmd.Flags().IntVar(&opts.Murders, "murders", 0, "number of random murders to record")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "random seed (default: time based)")
	return cmd
}
