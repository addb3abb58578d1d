package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/roach88/murder/internal/domain"
)

// Publisher is the part of *nats.Conn used by NATSSink.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSSink publishes updates as JSON.
//
// Every update goes to "<subject>.<game>". Players may register additional
// NATS subjects as addresses of kind "nats"; those receive a copy as well.
type NATSSink struct {
	pub     Publisher
	subject string
}

// NewNATS creates a NATSSink on an existing connection.
func NewNATS(pub Publisher, subject string) *NATSSink {
	return &NATSSink{pub: pub, subject: subject}
}

// DialNATS connects to a NATS server and returns a sink and the connection.
// The caller closes the connection.
func DialNATS(url, subject string) (*NATSSink, *nats.Conn, error) {
	nc, err := nats.Connect(url, nats.Name("murder-notify"))
	if err != nil {
		return nil, nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	return NewNATS(nc, subject), nc, nil
}

// Notify implements Sink.
func (s *NATSSink) Notify(_ context.Context, u Update) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("nats notify %s: %w", u.Player, err)
	}
	subjects := []string{s.subject + "." + u.GameID}
	for _, a := range u.Addresses {
		if a.Active && a.Kind == domain.AddressNATS {
			subjects = append(subjects, a.Address)
		}
	}
	for _, subj := range subjects {
		if err := s.pub.Publish(subj, data); err != nil {
			return fmt.Errorf("nats notify %s on %s: %w", u.Player, subj, err)
		}
	}
	return nil
}
