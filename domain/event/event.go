package event

import (
	"chat-dm/domain"
	"time"
)

const NewMessageName = "newMessage"

type DomainEvent interface {
	Name() string
	OccurredAt() time.Time
}

// MessageCreated is pushed to the receiver's live connection once the message is durable.
type MessageCreated struct {
	Message domain.Message
}

func (m MessageCreated) Name() string { return NewMessageName }

func (m MessageCreated) OccurredAt() time.Time { return m.Message.CreatedAt }

// Envelope is the wire shape of every push: the event name and its payload.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

func ToEnvelope(e DomainEvent) Envelope {
	switch evt := e.(type) {
	case MessageCreated:
		return Envelope{Event: evt.Name(), Data: evt.Message}
	default:
		return Envelope{Event: e.Name()}
	}
}
