package notify

import (
	"context"
	"log/slog"
	"strings"
)

// LogSink writes updates to a structured logger. Secret codes are left out.
type LogSink struct {
	Logger *slog.Logger
}

// Notify implements Sink.
func (s LogSink) Notify(ctx context.Context, u Update) error {
	victims := make([]string, 0, len(u.Missions))
	for _, m := range u.Missions {
		victims = append(victims, m.Circle+":"+m.Victim)
	}
	s.Logger.InfoContext(ctx, "mission update",
		"game", u.GameID,
		"player", u.Player,
		"reason", u.Reason,
		"missions", strings.Join(victims, ","),
	)
	return nil
}
