// Package domain contains core concepts of the direct-messaging system.
// This file defines Message and the conversation it belongs to.
// Messages are immutable and validated by the domain.
package domain

import (
	"chat-dm/errors"
	"fmt"
	"time"
)

// MessageID is assigned by the message store. Assignment order is the
// authoritative order of a conversation, even for identical timestamps.
type MessageID uint64

// Message represents an immutable direct message.
type Message struct {
	ID         MessageID `json:"id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Text       string    `json:"text,omitempty"`
	Image      string    `json:"image,omitempty"` // durable URL, never raw data
	CreatedAt  time.Time `json:"createdAt"`
}

// Validate checks the invariants every stored message satisfies.
func (m Message) Validate() error {
	return validateContent(m.SenderID, m.ReceiverID, m.Text, m.Image)
}

// Counterpart returns the participant that is not userID.
func (m Message) Counterpart(userID string) string {
	if m.SenderID == userID {
		return m.ReceiverID
	}
	return m.SenderID
}

// Conversation is the unordered pair of participants implied by a message.
// It is never stored as an entity.
type Conversation struct {
	Low  string
	High string
}

func NewConversation(userA, userB string) Conversation {
	if userA > userB {
		userA, userB = userB, userA
	}
	return Conversation{Low: userA, High: userB}
}

// ConversationOf returns the conversation a message belongs to, whatever its direction.
func ConversationOf(m Message) Conversation {
	return NewConversation(m.SenderID, m.ReceiverID)
}

func validateContent(senderID, receiverID, text, image string) error {
	if text == "" && image == "" {
		return fmt.Errorf("%w: %w", errors.ErrValidation, errors.ErrEmptyMessage)
	}
	if senderID == receiverID {
		return fmt.Errorf("%w: %w", errors.ErrValidation, errors.ErrSelfMessage)
	}
	return nil
}
