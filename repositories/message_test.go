package repositories

import (
	"chat-dm/domain"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func openDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).
		WithLoggingLevel(badger.ERROR).
		WithValueLogFileSize(16 << 20))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newMessageRepository(t *testing.T, db *badger.DB) *MessageRepository {
	t.Helper()
	repository, err := NewMessageRepository(db, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repository.Close() })
	return repository
}

func Test_Append_Assigns_Id_And_CreatedAt(t *testing.T) {
	req := require.New(t)
	repository := newMessageRepository(t, openDB(t))
	alice, bob := uuid.NewString(), uuid.NewString()

	stored, err := repository.Append(domain.Message{SenderID: alice, ReceiverID: bob, Text: "hi"})

	req.NoError(err)
	req.Equal(domain.MessageID(1), stored.ID)
	req.False(stored.CreatedAt.IsZero())
	req.Equal("hi", stored.Text)
}

func Test_Append_Ids_And_Timestamps_Are_Monotonic(t *testing.T) {
	req := require.New(t)
	repository := newMessageRepository(t, openDB(t))
	frozen := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	repository.now = func() time.Time { return frozen }
	alice, bob := uuid.NewString(), uuid.NewString()

	first, err := repository.Append(domain.Message{SenderID: alice, ReceiverID: bob, Text: "m1"})
	req.NoError(err)
	second, err := repository.Append(domain.Message{SenderID: alice, ReceiverID: bob, Text: "m2"})
	req.NoError(err)

	// Same clock reading, still strictly ordered
	req.Greater(second.ID, first.ID)
	req.True(second.CreatedAt.After(first.CreatedAt))
}

func Test_FindConversation_Ordered_And_Symmetric(t *testing.T) {
	req := require.New(t)
	repository := newMessageRepository(t, openDB(t))
	alice, bob, carol := uuid.NewString(), uuid.NewString(), uuid.NewString()

	for _, m := range []domain.Message{
		{SenderID: alice, ReceiverID: bob, Text: "m1"},
		{SenderID: bob, ReceiverID: alice, Text: "m2"},
		{SenderID: alice, ReceiverID: carol, Text: "other conversation"},
		{SenderID: alice, ReceiverID: bob, Image: "https://cdn.example/cat.png"},
	} {
		_, err := repository.Append(m)
		req.NoError(err)
	}

	ab, err := repository.FindConversation(alice, bob)
	req.NoError(err)
	ba, err := repository.FindConversation(bob, alice)
	req.NoError(err)

	req.Len(ab, 3)
	req.Equal(ab, ba)
	req.Equal("m1", ab[0].Text)
	req.Equal("m2", ab[1].Text)
	req.Equal("https://cdn.example/cat.png", ab[2].Image)
	req.Less(ab[0].ID, ab[1].ID)
	req.Less(ab[1].ID, ab[2].ID)
}

func Test_FindConversation_Empty(t *testing.T) {
	req := require.New(t)
	repository := newMessageRepository(t, openDB(t))

	messages, err := repository.FindConversation(uuid.NewString(), uuid.NewString())

	req.NoError(err)
	req.NotNil(messages)
	req.Empty(messages)
}

func Test_FindForUser_Both_Directions(t *testing.T) {
	req := require.New(t)
	repository := newMessageRepository(t, openDB(t))
	alice, bob, carol := uuid.NewString(), uuid.NewString(), uuid.NewString()

	_, err := repository.Append(domain.Message{SenderID: alice, ReceiverID: bob, Text: "to bob"})
	req.NoError(err)
	_, err = repository.Append(domain.Message{SenderID: carol, ReceiverID: alice, Text: "from carol"})
	req.NoError(err)
	_, err = repository.Append(domain.Message{SenderID: bob, ReceiverID: carol, Text: "not alice"})
	req.NoError(err)

	messages, err := repository.FindForUser(alice)

	req.NoError(err)
	req.Len(messages, 2)
	req.Equal("to bob", messages[0].Text)
	req.Equal("from carol", messages[1].Text)
}

func Test_Append_Concurrent_Sends_Keep_Total_Order(t *testing.T) {
	req := require.New(t)
	repository := newMessageRepository(t, openDB(t))
	alice, bob := uuid.NewString(), uuid.NewString()

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repository.Append(domain.Message{SenderID: alice, ReceiverID: bob, Text: "ping"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		req.NoError(err)
	}

	messages, err := repository.FindConversation(alice, bob)
	req.NoError(err)
	req.Len(messages, 20)
	for i := 1; i < len(messages); i++ {
		req.Less(messages[i-1].ID, messages[i].ID)
		req.True(messages[i].CreatedAt.After(messages[i-1].CreatedAt))
	}
}

func Test_Ids_Survive_Reopen(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()
	alice, bob := uuid.NewString(), uuid.NewString()

	db, err := badger.Open(badger.DefaultOptions(dir).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	repository, err := NewMessageRepository(db, slog.Default())
	req.NoError(err)
	first, err := repository.Append(domain.Message{SenderID: alice, ReceiverID: bob, Text: "before"})
	req.NoError(err)
	req.NoError(repository.Close())
	req.NoError(db.Close())

	db, err = badger.Open(badger.DefaultOptions(dir).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	defer db.Close()
	repository, err = NewMessageRepository(db, slog.Default())
	req.NoError(err)
	defer repository.Close()
	second, err := repository.Append(domain.Message{SenderID: alice, ReceiverID: bob, Text: "after"})
	req.NoError(err)

	req.Greater(second.ID, first.ID)
	messages, err := repository.FindConversation(alice, bob)
	req.NoError(err)
	req.Equal([]string{"before", "after"}, []string{messages[0].Text, messages[1].Text})
}

func Test_CreatedAt_Stays_Monotonic_When_Clock_Goes_Back_Across_Reopen(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()
	alice, bob := uuid.NewString(), uuid.NewString()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	db, err := badger.Open(badger.DefaultOptions(dir).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	repository, err := NewMessageRepository(db, slog.Default())
	req.NoError(err)
	repository.now = func() time.Time { return base }
	first, err := repository.Append(domain.Message{SenderID: alice, ReceiverID: bob, Text: "before"})
	req.NoError(err)
	req.NoError(repository.Close())
	req.NoError(db.Close())

	// Given a clock stepped back one second before the restart
	db, err = badger.Open(badger.DefaultOptions(dir).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	defer db.Close()
	repository, err = NewMessageRepository(db, slog.Default())
	req.NoError(err)
	defer repository.Close()
	repository.now = func() time.Time { return base.Add(-time.Second) }

	second, err := repository.Append(domain.Message{SenderID: alice, ReceiverID: bob, Text: "after"})

	// Then the later id still carries the later timestamp
	req.NoError(err)
	req.Greater(second.ID, first.ID)
	req.True(second.CreatedAt.After(first.CreatedAt),
		"id %d at %s follows id %d at %s", second.ID, second.CreatedAt, first.ID, first.CreatedAt)
}
