package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/facekeeper/internal/logging"
	"github.com/nats-io/nats.go"
)

const DefaultSubject = "facekeeper.audit"

type publisher interface {
	Publish(subject string, data []byte) error
}

// NATSSink publishes each event as JSON on a subject.
type NATSSink struct {
	pub     publisher
	conn    *nats.Conn
	subject string
}

// DialNATS connects to url and returns a sink publishing on subject.
func DialNATS(url, subject string, l logging.Logger) (*NATSSink, error) {
	ctx := context.Background()
	opts := []nats.Option{
		nats.Name("facekeeper"),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(10),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			l.Warn(ctx, "audit nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			l.Info(ctx, "audit nats reconnected", "url", nc.ConnectedUrl())
		}),
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	s := newNATSSink(conn, subject)
	s.conn = conn
	return s, nil
}

func newNATSSink(pub publisher, subject string) *NATSSink {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSSink{pub: pub, subject: subject}
}

func (s *NATSSink) Record(_ context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := s.pub.Publish(s.subject+"."+string(e.Kind), data); err != nil {
		return fmt.Errorf("publish audit event: %w", err)
	}
	return nil
}

// Close flushes pending events and closes the connection.
func (s *NATSSink) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Drain()
}
