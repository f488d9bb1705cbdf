package sink

import (
	"chat-dm/contract"
	"chat-dm/domain/event"
	"chat-dm/errors"
	"context"
	"sync"
)

var _ contract.EventSink = (*SocketSink)(nil)

// SocketSink is the outbound queue of one live connection.
// The registry hands it to the delivery pipeline; the socket writer drains Outbound.
type SocketSink struct {
	Outbound  chan event.DomainEvent
	closed    chan struct{}
	closeOnce sync.Once
}

func NewSocketSink(bufferSize int) *SocketSink {
	return &SocketSink{
		Outbound: make(chan event.DomainEvent, bufferSize),
		closed:   make(chan struct{}),
	}
}

// Consume is a non-blocking try-send.
// A full buffer or a closed connection drops the event; the message is already durable.
func (s *SocketSink) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case <-s.closed:
		return errors.ErrSinkClosed
	default:
	}

	select {
	case s.Outbound <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return errors.ErrSinkFull
	}
}

// Close marks the connection as gone. Safe to call more than once.
func (s *SocketSink) Close() {
	s.closeOnce.Do(func() { close(s.closed) })
}

func (s *SocketSink) Done() <-chan struct{} {
	return s.closed
}
