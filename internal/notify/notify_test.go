package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/murder/internal/domain"
)

func testUpdate() Update {
	return Update{
		GameID:    "g1",
		GameTitle: "Summer Party",
		Player:    "Alice",
		Reason:    ReasonNewMission,
		Addresses: []domain.Address{
			{Kind: domain.AddressEmail, Address: "alice@example.org", Active: true},
			{Kind: domain.AddressEmail, Address: "old@example.org", Active: false},
			{Kind: domain.AddressNATS, Address: "players.alice", Active: true},
		},
		Missions: []Mission{
			{Circle: "c1", Victim: "Bob", Owner: "Alice", Code: "lomartin"},
			{Circle: "c2", Victim: "Carol", Owner: "Alice"},
		},
	}
}

func TestBody(t *testing.T) {
	body, err := Body(testUpdate())
	require.NoError(t, err)
	assert.Contains(t, body, "Hello Alice,")
	assert.Contains(t, body, `your current missions in "Summer Party":`)
	assert.Contains(t, body, "Circle c1: Bob (your code: lomartin)")
	assert.Contains(t, body, "Circle c2: Carol\n")
}

func TestBody_NoMissions(t *testing.T) {
	u := testUpdate()
	u.Missions = nil
	body, err := Body(u)
	require.NoError(t, err)
	assert.Contains(t, body, `you have no open missions in "Summer Party" right now.`)
}

func TestSubject(t *testing.T) {
	u := testUpdate()
	assert.Equal(t, "[Summer Party] Your missions have changed", Subject(u))
	u.Reason = ReasonMurdered
	assert.Equal(t, "[Summer Party] You have been murdered", Subject(u))
	u.Reason = ReasonGameStarted
	assert.Equal(t, "[Summer Party] The game has started", Subject(u))
}

type sentMail struct {
	addr string
	from string
	to   []string
	msg  []byte
}

func captureSMTP(s *SMTPSink) *[]sentMail {
	var sent []sentMail
	s.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		sent = append(sent, sentMail{addr: addr, from: from, to: to, msg: msg})
		return nil
	}
	return &sent
}

func TestSMTPSink_SendsToActiveEmails(t *testing.T) {
	s := NewSMTP(SMTPConfig{Host: "mail.example.org", Port: 2525, From: "gm@example.org"})
	sent := captureSMTP(s)

	require.NoError(t, s.Notify(context.Background(), testUpdate()))

	require.Len(t, *sent, 1)
	m := (*sent)[0]
	assert.Equal(t, "mail.example.org:2525", m.addr)
	assert.Equal(t, "gm@example.org", m.from)
	assert.Equal(t, []string{"alice@example.org"}, m.to)
	assert.Contains(t, string(m.msg), "To: alice@example.org\r\n")
	assert.Contains(t, string(m.msg), "Content-Type: text/plain; charset=utf-8")
	assert.Contains(t, string(m.msg), "Circle c1: Bob")
}

func TestSMTPSink_SkipsPlayersWithoutEmail(t *testing.T) {
	s := NewSMTP(SMTPConfig{Host: "localhost", Port: 25, From: "gm@example.org"})
	sent := captureSMTP(s)

	u := testUpdate()
	u.Addresses = u.Addresses[2:]
	require.NoError(t, s.Notify(context.Background(), u))
	assert.Empty(t, *sent)
}

func TestSMTPSink_Attachment(t *testing.T) {
	s := NewSMTP(SMTPConfig{Host: "localhost", Port: 25, From: "gm@example.org"})
	sent := captureSMTP(s)
	s.Attach = func(u Update) (*Attachment, error) {
		return &Attachment{Name: u.Player + ".xlsx", ContentType: "application/octet-stream", Data: []byte("sheet")}, nil
	}

	require.NoError(t, s.Notify(context.Background(), testUpdate()))
	require.Len(t, *sent, 1)
	msg := string((*sent)[0].msg)
	assert.Contains(t, msg, "multipart/mixed; boundary=")
	assert.Contains(t, msg, `filename=Alice.xlsx`)
	assert.Contains(t, msg, "c2hlZXQ=")
}

func TestSMTPSink_SendError(t *testing.T) {
	s := NewSMTP(SMTPConfig{Host: "localhost", Port: 25})
	s.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}
	err := s.Notify(context.Background(), testUpdate())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Alice")
}

// fakeSMTPServer accepts one session and reports every line the client sent,
// message lines included.
func fakeSMTPServer(t *testing.T) (host string, port int, session <-chan []string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	done := make(chan []string, 1)
	go func() {
		var lines []string
		defer func() { done <- lines }()

		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		tc := textproto.NewConn(conn)
		tc.PrintfLine("220 fake ESMTP")
		for {
			line, err := tc.ReadLine()
			if err != nil {
				return
			}
			lines = append(lines, line)
			switch strings.ToUpper(strings.Fields(line)[0]) {
			case "EHLO":
				tc.PrintfLine("250 fake")
			case "DATA":
				tc.PrintfLine("354 go ahead")
				body, _ := tc.ReadDotLines()
				lines = append(lines, body...)
				tc.PrintfLine("250 queued")
			case "QUIT":
				tc.PrintfLine("221 bye")
				return
			default:
				tc.PrintfLine("250 ok")
			}
		}
	}()

	h, p, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err = strconv.Atoi(p)
	require.NoError(t, err)
	return h, port, done
}

func TestSMTPSink_DeliversWithHelo(t *testing.T) {
	host, port, session := fakeSMTPServer(t)
	s := NewSMTP(SMTPConfig{Host: host, Port: port, From: "gm@example.org", Helo: "murder.example.org"})

	require.NoError(t, s.Notify(context.Background(), testUpdate()))

	var lines []string
	select {
	case lines = <-session:
	case <-time.After(5 * time.Second):
		t.Fatal("smtp session did not finish")
	}
	require.NotEmpty(t, lines)
	assert.Equal(t, "EHLO murder.example.org", lines[0])
	assert.Contains(t, lines, "MAIL FROM:<gm@example.org>")
	assert.Contains(t, lines, "RCPT TO:<alice@example.org>")
	assert.NotContains(t, lines, "RCPT TO:<old@example.org>")
	assert.Contains(t, lines, "To: alice@example.org")
	assert.Equal(t, "QUIT", lines[len(lines)-1])
}

type fakePublisher struct {
	subjects []string
	payloads [][]byte
	err      error
}

func (f *fakePublisher) Publish(subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.subjects = append(f.subjects, subject)
	f.payloads = append(f.payloads, data)
	return nil
}

func TestNATSSink_Publishes(t *testing.T) {
	pub := &fakePublisher{}
	s := NewNATS(pub, "murder.updates")

	require.NoError(t, s.Notify(context.Background(), testUpdate()))
	assert.Equal(t, []string{"murder.updates.g1", "players.alice"}, pub.subjects)

	var got Update
	require.NoError(t, json.Unmarshal(pub.payloads[0], &got))
	assert.Equal(t, "Alice", got.Player)
	assert.Len(t, got.Missions, 2)
	assert.Nil(t, got.Addresses)
}

func TestNATSSink_Error(t *testing.T) {
	s := NewNATS(&fakePublisher{err: errors.New("no responders")}, "murder")
	assert.Error(t, s.Notify(context.Background(), testUpdate()))
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	s := LogSink{Logger: slog.New(slog.NewTextHandler(&buf, nil))}
	require.NoError(t, s.Notify(context.Background(), testUpdate()))
	out := buf.String()
	assert.Contains(t, out, "player=Alice")
	assert.Contains(t, out, "missions=c1:Bob,c2:Carol")
	assert.NotContains(t, out, "lomartin")
}

type failingSink struct{}

func (failingSink) Notify(context.Context, Update) error { return errors.New("boom") }

func TestFanout(t *testing.T) {
	rec := &Recorder{}
	f := Fanout{failingSink{}, rec, Discard{}, LogSink{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}}

	err := f.Notify(context.Background(), testUpdate())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "boom"))
	assert.Len(t, rec.Updates(), 1)
}

func TestRecorder(t *testing.T) {
	rec := &Recorder{}
	u := testUpdate()
	require.NoError(t, rec.Notify(context.Background(), u))
	u.Player = "Bob"
	require.NoError(t, rec.Notify(context.Background(), u))

	assert.Len(t, rec.For("Alice"), 1)
	assert.Len(t, rec.For("Bob"), 1)
	rec.Reset()
	assert.Empty(t, rec.Updates())
}
