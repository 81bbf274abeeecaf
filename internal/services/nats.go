package services

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// EventService publishes file lifecycle events (files.uploaded,
// files.viewed, files.destroyed) to NATS JetStream.
type EventService struct {
	nc *nats.Conn
	js nats.JetStreamContext
}

// NewEventService connects to NATS, initializes JetStream and makes sure
// the file-events stream exists.
func NewEventService(url string) (*EventService, error) {
	opts := []nats.Option{
		nats.Name("vault-service"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			zap.S().Warnf("[NATS] disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			zap.S().Infof("[NATS] reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			zap.S().Info("[NATS] connection closed")
		}),
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, err
	}

	s := &EventService{nc: conn, js: js}
	if err := s.ensureStream(); err != nil {
		// Not fatal: events are advisory, the service still works
		// without the stream.
		zap.S().Warnf("[NATS] failed to ensure stream: %v", err)
	}

	zap.S().Info("[NATS] connected and JetStream initialized")
	return s, nil
}

func (s *EventService) ensureStream() error {
	_, err := s.js.StreamInfo("file-events")
	if err == nil {
		return nil
	}

	streamCfg := &nats.StreamConfig{
		Name:     "file-events",
		Subjects: []string{"files.*"},
		Storage:  nats.FileStorage,
		MaxAge:   30 * 24 * time.Hour,
	}

	_, err = s.js.AddStream(streamCfg)
	return err
}

// Publish sends one durable event. Subject e.g. "files.viewed".
func (s *EventService) Publish(subject string, payload interface{}) error {
	if s == nil || s.js == nil {
		return errors.New("jetstream not initialized")
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	// Message ID for idempotency on redelivery
	_, err = s.js.Publish(subject, data, nats.MsgId(uuid.New().String()))
	if err != nil {
		zap.S().Warnf("[NATS] publish failed subject=%s err=%v", subject, err)
		return err
	}
	return nil
}

// Close drains the connection.
func (s *EventService) Close() {
	if s != nil && s.nc != nil {
		s.nc.Close()
	}
}
