//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"chat-dm/domain"
	"chat-dm/errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const (
	// MessagePrefix starts the key of every primary message record.
	MessagePrefix      = "msg:"
	messageSequenceKey = "seq:message"
	sequenceBandwidth  = 128
)

type IMessageRepository interface {
	Append(message domain.Message) (domain.Message, error)
	FindConversation(userA, userB string) ([]domain.Message, error)
	FindForUser(userID string) ([]domain.Message, error)
}

// MessageRepository is the durable append-only message store.
// Every message is written under three keys in a single transaction:
//
//	msg:{id}                      primary record
//	conv:{low}:{high}:{id}        conversation index, participants sorted
//	umsg:{user}:{id}              one entry per participant
//
// Ids are zero-padded to 20 digits so that lexicographic key order is id order.
type MessageRepository struct {
	db       *badger.DB
	log      *slog.Logger
	sequence *badger.Sequence

	// mu serialises id assignment, timestamping and commit so that
	// id order, createdAt order and visibility order agree.
	mu     sync.Mutex
	lastAt time.Time
	now    func() time.Time
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) (*MessageRepository, error) {
	sequence, err := db.GetSequence([]byte(messageSequenceKey), sequenceBandwidth)
	if err != nil {
		return nil, fmt.Errorf("%w: message sequence: %v", errors.ErrStorageUnavailable, err)
	}
	lastAt, err := latestCreatedAt(db)
	if err != nil {
		_ = sequence.Release()
		return nil, fmt.Errorf("%w: last message: %v", errors.ErrStorageUnavailable, err)
	}
	return &MessageRepository{db: db, log: log, sequence: sequence, lastAt: lastAt, now: time.Now}, nil
}

// latestCreatedAt reads the creation time of the newest primary record, zero on an empty store.
// New ids must never get an earlier timestamp, even when the clock went back across a restart.
func latestCreatedAt(db *badger.DB) (time.Time, error) {
	var lastAt time.Time
	err := db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(MessagePrefix)
		it.Seek(append([]byte(MessagePrefix), 0xff))
		if !it.ValidForPrefix(prefix) {
			return nil
		}
		return it.Item().Value(func(value []byte) error {
			message, err := unmarshalMessage(value)
			if err != nil {
				return err
			}
			lastAt = message.CreatedAt
			return nil
		})
	})
	return lastAt, err
}

// Close hands back the ids leased but not used yet.
func (m *MessageRepository) Close() error {
	return m.sequence.Release()
}

// Append assigns the id and creation time of the message and persists it atomically.
// Either the three keys are committed or none is visible.
func (m *MessageRepository) Append(message domain.Message) (domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, err := m.sequence.Next()
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: next id: %v", errors.ErrStorageUnavailable, err)
	}
	// Badger sequences start at zero, ids start at one.
	message.ID = domain.MessageID(next + 1)

	at := m.now().UTC()
	if !at.After(m.lastAt) {
		at = m.lastAt.Add(time.Nanosecond)
	}
	message.CreatedAt = at

	value := marshalMessage(message)
	err = m.db.Update(func(txn *badger.Txn) error {
		for _, key := range messageKeys(message) {
			if err := txn.Set(key, value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrStorageUnavailable, err)
	}
	m.lastAt = at
	return message, nil
}

// FindConversation returns the messages exchanged between userA and userB in both directions,
// ordered by id.
func (m *MessageRepository) FindConversation(userA, userB string) ([]domain.Message, error) {
	return m.scan(conversationPrefix(domain.NewConversation(userA, userB)))
}

// FindForUser returns every message sent or received by userID, in insertion order.
func (m *MessageRepository) FindForUser(userID string) ([]domain.Message, error) {
	return m.scan(userPrefix(userID))
}

func (m *MessageRepository) scan(prefix []byte) ([]domain.Message, error) {
	messages := make([]domain.Message, 0)
	err := m.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				message, err := unmarshalMessage(value)
				if err != nil {
					return err
				}
				messages = append(messages, message)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		m.log.Error("Message scan failed", "prefix", string(prefix), "error", err)
		return nil, fmt.Errorf("%w: %v", errors.ErrStorageUnavailable, err)
	}
	return messages, nil
}

func messageKeys(message domain.Message) [][]byte {
	id := fmt.Sprintf("%020d", message.ID)
	conversation := conversationPrefix(domain.ConversationOf(message))
	return [][]byte{
		[]byte(MessagePrefix + id),
		append(conversation, id...),
		append(userPrefix(message.SenderID), id...),
		append(userPrefix(message.ReceiverID), id...),
	}
}

func conversationPrefix(c domain.Conversation) []byte {
	return []byte(fmt.Sprintf("conv:%s:%s:", c.Low, c.High))
}

func userPrefix(userID string) []byte {
	return []byte(fmt.Sprintf("umsg:%s:", userID))
}

// DecodeMessage reads a primary record as stored under MessagePrefix.
func DecodeMessage(value []byte) (domain.Message, error) {
	return unmarshalMessage(value)
}
