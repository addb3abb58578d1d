package cli

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/murder/internal/config"
	"github.com/roach88/murder/internal/notify"
	"github.com/roach88/murder/internal/render"
)

func testApp(transports ...config.Transport) *App {
	a := &App{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	a.Config.BaseURL = "https://example.org"
	a.Config.SMTP = notify.SMTPConfig{Host: "localhost", Port: 25, From: "gm@example.org"}
	a.Config.Transports = transports
	return a
}

func TestAppNotifier_Single(t *testing.T) {
	sink, err := testApp(config.TransportLog).notifier()
	require.NoError(t, err)
	assert.IsType(t, notify.LogSink{}, sink)

	sink, err = testApp(config.TransportNone).notifier()
	require.NoError(t, err)
	assert.IsType(t, notify.Discard{}, sink)
}

func TestAppNotifier_MailCarriesSheets(t *testing.T) {
	sink, err := testApp(config.TransportLog, config.TransportSMTP).notifier()
	require.NoError(t, err)

	fan, ok := sink.(notify.Fanout)
	require.True(t, ok, "several transports fan out, got %T", sink)
	require.Len(t, fan, 2)
	assert.IsType(t, notify.LogSink{}, fan[0])

	mail, ok := fan[1].(*notify.SMTPSink)
	require.True(t, ok)
	require.NotNil(t, mail.Attach)

	att, err := mail.Attach(notify.Update{
		GameID:    "g1",
		GameTitle: "Test game",
		Player:    "A",
		Missions:  []notify.Mission{{Circle: "c1", Victim: "B", Owner: "A"}},
	})
	require.NoError(t, err)
	require.NotNil(t, att)
	assert.Equal(t, "missions-g1-A.xlsx", att.Name)
	assert.Equal(t, render.XLSXContentType, att.ContentType)
	assert.NotEmpty(t, att.Data)
}
