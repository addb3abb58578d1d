package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"

	"github.com/roach88/murder/internal/engine"
)

// RecordMurderOptions holds flags for the record-murder command.
type RecordMurderOptions struct {
	*RootOptions
	When   string
	Reason string
	Code   string
}

// NewRecordMurderCommand creates the record-murder command.
func NewRecordMurderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordMurderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "record-murder <game> <killer> <victim> <circle>",
		Short: "Record that a player murdered another",
		Long: `Record that killer murdered victim in circle.

The killer does not have to be the victim's current owner; whoever owned
the victim takes over the victim's mission. With --code the victim's
secret code must match.

--when accepts RFC 3339 or plain English ("yesterday 8pm",
"2 hours ago"). It defaults to now.

Examples:
  murder record-murder summer24 Ada Bob main --code tarumpel --reason "poisoned tea"
  murder record-murder summer24 Ada Bob main --when "yesterday 21:30"`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(a *App) error {
				return recordMurder(a, opts, args, cmd)
			})
		},
	}

	cmd.Flags().StringVar(&opts.When, "when", "", "when the murder happened (default now)")
	cmd.Flags().StringVar(&opts.Reason, "reason", "", "how it happened")
	cmd.Flags().StringVar(&opts.Code, "code", "", "the victim's secret code")

	return cmd
}

func recordMurder(a *App, opts *RecordMurderOptions, args []string, cmd *cobra.Command) error {
	at, err := parseWhen(opts.When, now(opts.RootOptions))
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --when", err)
	}
	report := engine.MurderReport{
		Killer: args[1],
		Victim: args[2],
		Circle: args[3],
		When:   at,
		Reason: opts.Reason,
		Code:   opts.Code,
	}
	a.Out.VerboseLog("Recording murder of %s by %s in %s", report.Victim, report.Killer, report.Circle)

	err = a.Engine.Update(cmd.Context(), args[0], func(s *engine.Service) error {
		return s.RecordMurder(report)
	})
	if err != nil {
		return fmt.Errorf("record murder: %w", err)
	}

	data := map[string]string{
		"game":   args[0],
		"killer": report.Killer,
		"victim": report.Victim,
		"circle": report.Circle,
	}
	return a.Out.Result(data, func(w io.Writer) {
		fmt.Fprintf(w, "✓ %s murdered %s in %s\n", report.Killer, report.Victim, report.Circle)
	})
}

// NewKickCommand creates the kick command.
func NewKickCommand(rootOpts *RootOptions) *cobra.Command {
	var whenStr, reason string

	cmd := &cobra.Command{
		Use:   "kick <game> <player>",
		Short: "Remove a player from a running game",
		Long: `Remove a player from a running game.

All open assignments of the player are completed without a killer.
Their owners take over the player's missions.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			game, player := args[0], args[1]
			at, err := parseWhen(whenStr, now(rootOpts))
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid --when", err)
			}
			return withApp(rootOpts, cmd, func(a *App) error {
				err := a.Engine.Update(cmd.Context(), game, func(s *engine.Service) error {
					return s.KickPlayer(player, at, reason)
				})
				if err != nil {
					return fmt.Errorf("kick player: %w", err)
				}
				return a.Out.Result(map[string]string{"game": game, "player": player}, func(w io.Writer) {
					fmt.Fprintf(w, "✓ Kicked %s\n", player)
				})
			})
		},
	}

	cmd.Flags().StringVar(&whenStr, "when", "", "when the player left (default now)")
	cmd.Flags().StringVar(&reason, "reason", "", "why (default \"kicked\")")
	return cmd
}

// parseWhen reads an RFC 3339 timestamp or a natural-language time
// relative to base. An empty string gives the zero time, which the engine
// takes as now.
func parseWhen(s string, base time.Time) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}

	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	r, err := w.Parse(s, base)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("unrecognized time %q", s)
	}
	return r.Time, nil
}

// now returns the configured clock's time.
func now(opts *RootOptions) time.Time {
	if opts.Now != nil {
		return opts.Now()
	}
	return time.Now()
}
