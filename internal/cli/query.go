package cli

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/murder/internal/domain"
	"github.com/roach88/murder/internal/notify"
)

// GameListEntry is one row of the games command.
type GameListEntry struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	State string `json:"state"`
	Seq   int64  `json:"seq"`
}

// NewGamesCommand creates the games command.
func NewGamesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "games",
		Short: "List all games",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(a *App) error {
				games, err := a.Store.ListGames(cmd.Context())
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to list games", err)
				}
				entries := make([]GameListEntry, 0, len(games))
				for _, g := range games {
					entries = append(entries, GameListEntry{ID: g.ID, Title: g.Title, State: g.State.String(), Seq: g.Seq})
				}
				return a.Out.Result(entries, func(w io.Writer) {
					if len(entries) == 0 {
						fmt.Fprintln(w, "No games found.")
						return
					}
					for _, e := range entries {
						fmt.Fprintf(w, "%-20s %-8s %s\n", e.ID, e.State, e.Title)
					}
				})
			})
		},
	}
}

// StatusResult is the output of the status command.
type StatusResult struct {
	Game          string         `json:"game"`
	Title         string         `json:"title"`
	State         string         `json:"state"`
	Players       int            `json:"players"`
	Alive         int            `json:"alive"`
	Circles       []CircleStatus `json:"circles"`
	MassMurderers []KillerCount  `json:"mass_murderers"`
}

// CircleStatus summarizes one circle.
type CircleStatus struct {
	Name       string `json:"name"`
	Players    int    `json:"players"`
	Achievable int    `json:"achievable"`
	Completed  int    `json:"completed"`
}

// KillerCount is a player with their number of kills.
type KillerCount struct {
	Player string `json:"player"`
	Kills  int    `json:"kills"`
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status <game>",
		Short: "Show the state of a game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(a *App) error {
				return a.Engine.View(cmd.Context(), args[0], func(g *domain.Game) error {
					result := buildStatus(g)
					return a.Out.Result(result, func(w io.Writer) {
						outputStatusText(w, result)
					})
				})
			})
		},
	}
}

func buildStatus(g *domain.Game) StatusResult {
	r := StatusResult{
		Game:          g.ID,
		Title:         g.Title,
		State:         g.State.String(),
		Players:       len(g.Players),
		Circles:       make([]CircleStatus, 0, len(g.Circles)),
		MassMurderers: []KillerCount{},
	}
	for _, p := range g.Players {
		if g.Alive(p) {
			r.Alive++
		}
	}
	for _, c := range g.Circles {
		r.Circles = append(r.Circles, CircleStatus{
			Name:       c.Name,
			Players:    len(c.Assignments),
			Achievable: len(c.Achievable()),
			Completed:  len(c.Completed()),
		})
	}
	for _, p := range g.MassMurderers() {
		r.MassMurderers = append(r.MassMurderers, KillerCount{Player: p.Name, Kills: g.KillCount(p)})
	}
	return r
}

func outputStatusText(w io.Writer, r StatusResult) {
	fmt.Fprintf(w, "Game:    %s (%s)\n", r.Title, r.Game)
	fmt.Fprintf(w, "State:   %s\n", r.State)
	fmt.Fprintf(w, "Players: %d (%d alive)\n", r.Players, r.Alive)
	fmt.Fprintln(w)
	for _, c := range r.Circles {
		fmt.Fprintf(w, "  %-16s %3d players %3d achievable %3d completed\n", c.Name, c.Players, c.Achievable, c.Completed)
	}
	if len(r.MassMurderers) > 0 {
		fmt.Fprintln(w)
		names := make([]string, 0, len(r.MassMurderers))
		for _, k := range r.MassMurderers {
			names = append(names, k.Player)
		}
		fmt.Fprintf(w, "Mass murderers (%d kills): %s\n", r.MassMurderers[0].Kills, strings.Join(names, ", "))
	}
}

// MissionEntry is one row of the missions command.
type MissionEntry struct {
	Player string `json:"player"`
	Circle string `json:"circle"`
	Victim string `json:"victim"`
	Code   string `json:"code,omitempty"`
}

// NewMissionsCommand creates the missions command.
func NewMissionsCommand(rootOpts *RootOptions) *cobra.Command {
	var player, circle string

	cmd := &cobra.Command{
		Use:   "missions <game>",
		Short: "List who currently has to murder whom",
		Long: `List the current mission of every player in every circle.

Dead players and finished circles have no missions. Secret codes are
shown when MURDER_SECRET_KEY is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(a *App) error {
				return a.Engine.View(cmd.Context(), args[0], func(g *domain.Game) error {
					entries, err := listMissions(g, player, circle, func(p *domain.Player) []notify.Mission {
						return a.Engine.Missions(g, p)
					})
					if err != nil {
						return err
					}
					return a.Out.Result(entries, func(w io.Writer) {
						if len(entries) == 0 {
							fmt.Fprintln(w, "No missions.")
							return
						}
						for _, e := range entries {
							fmt.Fprintf(w, "%s → %s (%s)", e.Player, e.Victim, e.Circle)
							if e.Code != "" {
								fmt.Fprintf(w, " code %s", e.Code)
							}
							fmt.Fprintln(w)
						}
					})
				})
			})
		},
	}

	cmd.Flags().StringVar(&player, "player", "", "only this player")
	cmd.Flags().StringVar(&circle, "circle", "", "only this circle")
	return cmd
}

func listMissions(g *domain.Game, player, circle string, missions func(*domain.Player) []notify.Mission) ([]MissionEntry, error) {
	players := g.Players
	if player != "" {
		p, ok := g.Player(player)
		if !ok {
			return nil, domain.Errorf(domain.CodeNotFound, "no player named %q in game %q", player, g.ID)
		}
		players = []*domain.Player{p}
	}
	if circle != "" {
		if _, ok := g.Circle(circle); !ok {
			return nil, domain.Errorf(domain.CodeNotFound, "no circle named %q in game %q", circle, g.ID)
		}
	}

	entries := []MissionEntry{}
	for _, p := range players {
		for _, m := range missions(p) {
			if circle != "" && m.Circle != circle {
				continue
			}
			entries = append(entries, MissionEntry{Player: p.Name, Circle: m.Circle, Victim: m.Victim, Code: m.Code})
		}
	}
	return entries, nil
}

// HistoryEntry is one journal entry.
type HistoryEntry struct {
	Seq    int64             `json:"seq"`
	At     time.Time         `json:"at"`
	Action string            `json:"action"`
	Args   map[string]string `json:"args,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history <game>",
		Short: "Show the journal of a game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(a *App) error {
				events, err := a.Store.ReadEvents(cmd.Context(), args[0])
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to read journal", err)
				}
				if len(events) == 0 {
					return domain.Errorf(domain.CodeNotFound, "game %q does not exist", args[0])
				}
				entries := make([]HistoryEntry, 0, len(events))
				for _, ev := range events {
					entries = append(entries, HistoryEntry{Seq: ev.Seq, At: ev.At, Action: ev.Action, Args: ev.Args})
				}
				return a.Out.Result(entries, func(w io.Writer) {
					for _, e := range entries {
						fmt.Fprintf(w, "%4d  %s  %s%s\n", e.Seq, e.At.Format(time.RFC3339), e.Action, formatArgs(e.Args))
					}
				})
			})
		},
	}
}

// formatArgs renders args as " k=v" pairs in key order, skipping empty values.
func formatArgs(args map[string]string) string {
	var b strings.Builder
	for _, k := range slices.Sorted(maps.Keys(args)) {
		if args[k] == "" {
			continue
		}
		fmt.Fprintf(&b, " %s=%q", k, args[k])
	}
	return b.String()
}
