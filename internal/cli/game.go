package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/murder/internal/domain"
	"github.com/roach88/murder/internal/engine"
	"github.com/roach88/murder/internal/roster"
)

// CreateGameOptions holds flags for the create-game command.
type CreateGameOptions struct {
	*RootOptions
	Title       string
	Description string
	Password    string
	Contact     string
	End         string
	Circles     []string
}

// NewCreateGameCommand creates the create-game command.
func NewCreateGameCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CreateGameOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create-game <game>",
		Short: "Create a new game",
		Long: `Create a new game in state "new".

The game id is chosen by the game master and shown to players. The
game master password protects administrative access.

Examples:
  murder create-game summer24 --password s3cret --circle main
  murder create-game summer24 --password s3cret --title "Summer camp" --end "next friday 18:00"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(a *App) error {
				return createGame(a, opts, args[0], cmd)
			})
		},
	}

	cmd.Flags().StringVar(&opts.Title, "title", "", "game title (default: the game id)")
	cmd.Flags().StringVar(&opts.Description, "description", "", "game description")
	cmd.Flags().StringVar(&opts.Password, "password", "", "game master password (required)")
	_ = cmd.MarkFlagRequired("password")
	cmd.Flags().StringVar(&opts.Contact, "contact", "", "how to reach the game master")
	cmd.Flags().StringVar(&opts.End, "end", "", "planned end of the game")
	cmd.Flags().StringSliceVar(&opts.Circles, "circle", nil, "circle to create (repeatable)")

	return cmd
}

func createGame(a *App, opts *CreateGameOptions, id string, cmd *cobra.Command) error {
	var end *time.Time
	if opts.End != "" {
		t, err := parseWhen(opts.End, now(opts.RootOptions))
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --end", err)
		}
		end = &t
	}

	err := a.Engine.CreateGame(cmd.Context(), engine.NewGame{
		ID:          id,
		Title:       opts.Title,
		Description: opts.Description,
		Password:    opts.Password,
		Contact:     opts.Contact,
		EndTime:     end,
		Circles:     opts.Circles,
	})
	if err != nil {
		return fmt.Errorf("create game: %w", err)
	}

	return a.Out.Result(map[string]any{"game": id, "circles": opts.Circles}, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Created game %s\n", id)
	})
}

// NewAddCircleCommand creates the add-circle command.
func NewAddCircleCommand(rootOpts *RootOptions) *cobra.Command {
	var set string

	cmd := &cobra.Command{
		Use:   "add-circle <game> <circle>",
		Short: "Add a circle to a game that has not started",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			game, circle := args[0], args[1]
			return withApp(rootOpts, cmd, func(a *App) error {
				err := a.Engine.Update(cmd.Context(), game, func(s *engine.Service) error {
					return s.AddCircle(circle, set)
				})
				if err != nil {
					return fmt.Errorf("add circle: %w", err)
				}
				return a.Out.Result(map[string]string{"game": game, "circle": circle}, func(w io.Writer) {
					fmt.Fprintf(w, "✓ Added circle %s\n", circle)
				})
			})
		},
	}

	cmd.Flags().StringVar(&set, "set", "", "free-text set the circle belongs to")
	return cmd
}

// AddPlayerOptions holds flags for the add-player command.
type AddPlayerOptions struct {
	*RootOptions
	Group   string
	Circles []string
	Email   string
}

// NewAddPlayerCommand creates the add-player command.
func NewAddPlayerCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddPlayerOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add-player <game> <name>",
		Short: "Add a player to a game that has not started",
		Long: `Add a player to a game that has not started.

With --circle the player also joins the given circles, all in one
transaction.

Example:
  murder add-player summer24 "Ada Lovelace" --group "Room 4" --circle main --email ada@example.com`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			game, name := args[0], args[1]
			return withApp(rootOpts, cmd, func(a *App) error {
				err := a.Engine.Update(cmd.Context(), game, func(s *engine.Service) error {
					if err := s.AddPlayer(name, opts.Group); err != nil {
						return err
					}
					for _, c := range opts.Circles {
						if err := s.JoinCircle(name, c); err != nil {
							return err
						}
					}
					if opts.Email != "" {
						return s.AddAddress(name, domain.AddressEmail, opts.Email)
					}
					return nil
				})
				if err != nil {
					return fmt.Errorf("add player: %w", err)
				}
				return a.Out.Result(map[string]any{"game": game, "player": name, "circles": opts.Circles}, func(w io.Writer) {
					fmt.Fprintf(w, "✓ Added player %s\n", name)
				})
			})
		},
	}

	cmd.Flags().StringVar(&opts.Group, "group", "", "group used to avoid seating members next to each other")
	cmd.Flags().StringSliceVar(&opts.Circles, "circle", nil, "circle to join (repeatable)")
	cmd.Flags().StringVar(&opts.Email, "email", "", "email address for mission updates")
	return cmd
}

// NewJoinCommand creates the join command.
func NewJoinCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "join <game> <player> <circle>...",
		Short: "Make a player a potential victim in circles",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			game, player, circles := args[0], args[1], args[2:]
			return withApp(rootOpts, cmd, func(a *App) error {
				err := a.Engine.Update(cmd.Context(), game, func(s *engine.Service) error {
					for _, c := range circles {
						if err := s.JoinCircle(player, c); err != nil {
							return err
						}
					}
					return nil
				})
				if err != nil {
					return fmt.Errorf("join circle: %w", err)
				}
				return a.Out.Result(map[string]any{"game": game, "player": player, "circles": circles}, func(w io.Writer) {
					for _, c := range circles {
						fmt.Fprintf(w, "✓ %s joined %s\n", player, c)
					}
				})
			})
		},
	}
}

// NewAddAddressCommand creates the add-address command.
func NewAddAddressCommand(rootOpts *RootOptions) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "add-address <game> <player> <address>",
		Short: "Register where a player receives mission updates",
		Long: `Register where a player receives mission updates.

Kinds are "email" and "nats" (a NATS subject). In a running game the
player immediately receives their current missions at the new address.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			game, player, address := args[0], args[1], args[2]
			k := domain.AddressKind(kind)
			if k != domain.AddressEmail && k != domain.AddressNATS {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid --kind %q: must be email or nats", kind))
			}
			return withApp(rootOpts, cmd, func(a *App) error {
				err := a.Engine.Update(cmd.Context(), game, func(s *engine.Service) error {
					return s.AddAddress(player, k, address)
				})
				if err != nil {
					return fmt.Errorf("add address: %w", err)
				}
				return a.Out.Result(map[string]string{"game": game, "player": player, "kind": kind, "address": address}, func(w io.Writer) {
					fmt.Fprintf(w, "✓ Added %s address for %s\n", kind, player)
				})
			})
		},
	}

	cmd.Flags().StringVar(&kind, "kind", string(domain.AddressEmail), "address kind (email|nats)")
	return cmd
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <game> <roster.yaml>",
		Short: "Add circles and players from a roster file",
		Long: `Add circles and players from a YAML roster file.

The roster is validated against its schema first. It is applied in one
transaction: if any player or circle is rejected nothing is added.

Example roster:
  circles:
    - name: main
  players:
    - name: Ada
      group: Room 4
      email: ada@example.com`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			game, path := args[0], args[1]
			r, err := roster.LoadFile(path)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load roster", err)
			}
			return withApp(rootOpts, cmd, func(a *App) error {
				err := a.Engine.Update(cmd.Context(), game, func(s *engine.Service) error {
					return roster.Apply(s, r)
				})
				if err != nil {
					return fmt.Errorf("import roster: %w", err)
				}
				data := map[string]any{"game": game, "circles": len(r.Circles), "players": len(r.Players)}
				return a.Out.Result(data, func(w io.Writer) {
					fmt.Fprintf(w, "✓ Imported %d circle(s) and %d player(s)\n", len(r.Circles), len(r.Players))
				})
			})
		},
	}
}

// NewShuffleCommand creates the shuffle command.
func NewShuffleCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "shuffle <game> <circle>",
		Short: "Seat the unplaced players of a circle",
		Long: `Seat the players of a circle that have no place in its chain yet.

Starting the game shuffles every circle, so this is only needed to look
at a chain before the start.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			game, circle := args[0], args[1]
			return withApp(rootOpts, cmd, func(a *App) error {
				err := a.Engine.Update(cmd.Context(), game, func(s *engine.Service) error {
					return s.ShuffleCircle(circle)
				})
				if err != nil {
					return fmt.Errorf("shuffle circle: %w", err)
				}
				return a.Out.Result(map[string]string{"game": game, "circle": circle}, func(w io.Writer) {
					fmt.Fprintf(w, "✓ Shuffled %s\n", circle)
				})
			})
		},
	}
}

// NewStartGameCommand creates the start-game command.
func NewStartGameCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "start-game <game>",
		Short: "Shuffle all circles and start the game",
		Long: `Shuffle all circles and start the game.

Every player receives their first missions.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			game := args[0]
			return withApp(rootOpts, cmd, func(a *App) error {
				if err := a.Engine.Update(cmd.Context(), game, (*engine.Service).StartGame); err != nil {
					return fmt.Errorf("start game: %w", err)
				}
				return a.Out.Result(map[string]string{"game": game, "state": domain.StateRunning.String()}, func(w io.Writer) {
					fmt.Fprintf(w, "✓ Started game %s\n", game)
				})
			})
		},
	}
}

// NewEndGameCommand creates the end-game command.
func NewEndGameCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "end-game <game>",
		Short: "End a running game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			game := args[0]
			return withApp(rootOpts, cmd, func(a *App) error {
				if err := a.Engine.Update(cmd.Context(), game, (*engine.Service).EndGame); err != nil {
					return fmt.Errorf("end game: %w", err)
				}
				return a.Out.Result(map[string]string{"game": game, "state": domain.StateEnded.String()}, func(w io.Writer) {
					fmt.Fprintf(w, "✓ Ended game %s\n", game)
				})
			})
		},
	}
}

// NewCheckPasswordCommand creates the check-password command.
func NewCheckPasswordCommand(rootOpts *RootOptions) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "check-password <game>",
		Short: "Check the game master password",
		Long: `Check the game master password.

Exits with code 1 and error wrong_password if it does not match.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			game := args[0]
			return withApp(rootOpts, cmd, func(a *App) error {
				if err := a.Engine.CheckGamemasterPassword(cmd.Context(), game, password); err != nil {
					return err
				}
				return a.Out.Result(map[string]string{"game": game}, func(w io.Writer) {
					fmt.Fprintln(w, "✓ Password ok")
				})
			})
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "password to check (required)")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

// NewSetPasswordCommand creates the set-password command.
func NewSetPasswordCommand(rootOpts *RootOptions) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "set-password <game>",
		Short: "Replace the game master password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			game := args[0]
			return withApp(rootOpts, cmd, func(a *App) error {
				err := a.Engine.Update(cmd.Context(), game, func(s *engine.Service) error {
					return s.SetPassword(password)
				})
				if err != nil {
					return fmt.Errorf("set password: %w", err)
				}
				return a.Out.Result(map[string]string{"game": game}, func(w io.Writer) {
					fmt.Fprintln(w, "✓ Password changed")
				})
			})
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "new password (required)")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
