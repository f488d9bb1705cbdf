package services

import (
	"chat-dm/domain"
	"chat-dm/domain/event"
	"chat-dm/errors"
	"chat-dm/mocks"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type deliveryFixture struct {
	messages  *mocks.MockIMessageRepository
	users     *mocks.MockIUserRepository
	registry  *mocks.MockIRegistry
	uploader  *mocks.MockMediaUploader
	moderator *mocks.MockTextModerator
	service   *DeliveryService
}

func newDeliveryFixture(t *testing.T) deliveryFixture {
	ctrl := gomock.NewController(t)
	f := deliveryFixture{
		messages:  mocks.NewMockIMessageRepository(ctrl),
		users:     mocks.NewMockIUserRepository(ctrl),
		registry:  mocks.NewMockIRegistry(ctrl),
		uploader:  mocks.NewMockMediaUploader(ctrl),
		moderator: mocks.NewMockTextModerator(ctrl),
	}
	f.service = NewDeliveryService(logs.GetLoggerFromLevel(slog.LevelDebug),
		f.messages, f.users, f.registry, f.uploader, nil)
	return f
}

func persisted(m domain.Message, id uint64) domain.Message {
	m.ID = domain.MessageID(id)
	m.CreatedAt = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return m
}

func TestSend_Offline_Receiver_Returns_Persisted_Message(t *testing.T) {
	req := require.New(t)
	f := newDeliveryFixture(t)
	draft := domain.Message{SenderID: "alice", ReceiverID: "bob", Text: "hi"}
	stored := persisted(draft, 1)

	f.users.EXPECT().Exists("bob").Return(true, nil)
	f.messages.EXPECT().Append(draft).Return(stored, nil)
	f.registry.EXPECT().Lookup("bob").Return(nil, false)

	got, err := f.service.Send(context.Background(),
		domain.SendMessageCommand{SenderID: "alice", ReceiverID: "bob", Text: "hi"})

	req.NoError(err)
	req.Equal(stored, got)
	req.NotZero(got.ID)
	req.False(got.CreatedAt.IsZero())
}

func TestSend_Online_Receiver_Pushed_After_Persist(t *testing.T) {
	req := require.New(t)
	f := newDeliveryFixture(t)
	sink := mocks.NewMockEventSink(gomock.NewController(t))
	draft := domain.Message{SenderID: "alice", ReceiverID: "bob", Text: "yo"}
	stored := persisted(draft, 7)

	f.users.EXPECT().Exists("bob").Return(true, nil)
	gomock.InOrder(
		f.messages.EXPECT().Append(draft).Return(stored, nil),
		f.registry.EXPECT().Lookup("bob").Return(sink, true),
		sink.EXPECT().Consume(gomock.Any(), event.MessageCreated{Message: stored}).Return(nil),
	)

	got, err := f.service.Send(context.Background(),
		domain.SendMessageCommand{SenderID: "alice", ReceiverID: "bob", Text: "yo"})

	req.NoError(err)
	req.Equal(stored, got)
}

func TestSend_Push_Failure_Is_Swallowed(t *testing.T) {
	req := require.New(t)
	f := newDeliveryFixture(t)
	sink := mocks.NewMockEventSink(gomock.NewController(t))
	draft := domain.Message{SenderID: "alice", ReceiverID: "bob", Text: "hello?"}
	stored := persisted(draft, 3)

	f.users.EXPECT().Exists("bob").Return(true, nil)
	f.messages.EXPECT().Append(draft).Return(stored, nil)
	f.registry.EXPECT().Lookup("bob").Return(sink, true)
	sink.EXPECT().Consume(gomock.Any(), gomock.Any()).Return(errors.ErrSinkFull)

	got, err := f.service.Send(context.Background(),
		domain.SendMessageCommand{SenderID: "alice", ReceiverID: "bob", Text: "hello?"})

	req.NoError(err)
	req.Equal(stored, got)
}

func TestSend_Rejects_Invalid_Commands_Without_Side_Effects(t *testing.T) {
	tests := []struct {
		name  string
		cmd   domain.SendMessageCommand
		cause error
	}{
		{"self message", domain.SendMessageCommand{SenderID: "alice", ReceiverID: "alice", Text: "me"}, errors.ErrSelfMessage},
		{"no content", domain.SendMessageCommand{SenderID: "alice", ReceiverID: "bob"}, errors.ErrEmptyMessage},
		{"self message with image", domain.SendMessageCommand{SenderID: "alice", ReceiverID: "alice", Image: "data:image/png;base64,AA=="}, errors.ErrSelfMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			// No expectation is set: any repository, upload or registry call fails the test.
			f := newDeliveryFixture(t)

			_, err := f.service.Send(context.Background(), tt.cmd)

			req.ErrorIs(err, errors.ErrValidation)
			req.ErrorIs(err, tt.cause)
		})
	}
}

func TestSend_Unknown_Receiver(t *testing.T) {
	req := require.New(t)
	f := newDeliveryFixture(t)
	f.users.EXPECT().Exists("ghost").Return(false, nil)

	_, err := f.service.Send(context.Background(),
		domain.SendMessageCommand{SenderID: "alice", ReceiverID: "ghost", Text: "anyone?"})

	req.ErrorIs(err, errors.ErrRecipientNotFound)
}

func TestSend_Image_Stored_As_Durable_Reference(t *testing.T) {
	req := require.New(t)
	f := newDeliveryFixture(t)
	raw := "data:image/png;base64,iVBORw0KGgo="
	url := "https://media.example.com/abc.png"
	draft := domain.Message{SenderID: "alice", ReceiverID: "bob", Image: url}
	stored := persisted(draft, 2)

	f.users.EXPECT().Exists("bob").Return(true, nil)
	gomock.InOrder(
		f.uploader.EXPECT().Upload(gomock.Any(), raw).Return(url, nil),
		f.messages.EXPECT().Append(draft).Return(stored, nil),
	)
	f.registry.EXPECT().Lookup("bob").Return(nil, false)

	got, err := f.service.Send(context.Background(),
		domain.SendMessageCommand{SenderID: "alice", ReceiverID: "bob", Image: raw})

	req.NoError(err)
	req.Equal(url, got.Image)
	req.Empty(got.Text)
}

func TestSend_Upload_Failure_Aborts_Before_Persist(t *testing.T) {
	req := require.New(t)
	f := newDeliveryFixture(t)
	f.users.EXPECT().Exists("bob").Return(true, nil)
	f.uploader.EXPECT().Upload(gomock.Any(), gomock.Any()).Return("", context.DeadlineExceeded)

	_, err := f.service.Send(context.Background(),
		domain.SendMessageCommand{SenderID: "alice", ReceiverID: "bob", Text: "look", Image: "data:image/png;base64,AA=="})

	req.ErrorIs(err, errors.ErrMediaUpload)
	req.ErrorIs(err, context.DeadlineExceeded)
}

func TestSend_Storage_Failure_Skips_Push(t *testing.T) {
	req := require.New(t)
	f := newDeliveryFixture(t)
	f.users.EXPECT().Exists("bob").Return(true, nil)
	f.messages.EXPECT().Append(gomock.Any()).Return(domain.Message{}, errors.ErrStorageUnavailable)

	_, err := f.service.Send(context.Background(),
		domain.SendMessageCommand{SenderID: "alice", ReceiverID: "bob", Text: "lost"})

	req.ErrorIs(err, errors.ErrStorageUnavailable)
}

func TestSend_Cancelled_Before_Persist_Leaves_No_Trace(t *testing.T) {
	req := require.New(t)
	f := newDeliveryFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	f.users.EXPECT().Exists("bob").DoAndReturn(func(string) (bool, error) {
		cancel()
		return true, nil
	})

	_, err := f.service.Send(ctx, domain.SendMessageCommand{SenderID: "alice", ReceiverID: "bob", Text: "late"})

	req.ErrorIs(err, context.Canceled)
}

func TestSend_Push_Survives_Caller_Cancellation(t *testing.T) {
	req := require.New(t)
	f := newDeliveryFixture(t)
	sink := mocks.NewMockEventSink(gomock.NewController(t))
	ctx, cancel := context.WithCancel(context.Background())
	draft := domain.Message{SenderID: "alice", ReceiverID: "bob", Text: "bye"}
	stored := persisted(draft, 9)

	f.users.EXPECT().Exists("bob").Return(true, nil)
	f.messages.EXPECT().Append(draft).DoAndReturn(func(domain.Message) (domain.Message, error) {
		cancel()
		return stored, nil
	})
	f.registry.EXPECT().Lookup("bob").Return(sink, true)
	sink.EXPECT().Consume(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, _ event.DomainEvent) error {
		return ctx.Err()
	})

	got, err := f.service.Send(ctx, domain.SendMessageCommand{SenderID: "alice", ReceiverID: "bob", Text: "bye"})

	req.NoError(err)
	req.Equal(stored, got)
}

func TestSend_Moderation_Masks_Text(t *testing.T) {
	req := require.New(t)
	f := newDeliveryFixture(t)
	f.service.WithModerator(f.moderator)
	draft := domain.Message{SenderID: "alice", ReceiverID: "bob", Text: "you *****"}

	f.users.EXPECT().Exists("bob").Return(true, nil)
	f.moderator.EXPECT().Censor("you snake").Return("you *****", []string{"snake"})
	f.messages.EXPECT().Append(draft).Return(persisted(draft, 4), nil)
	f.registry.EXPECT().Lookup("bob").Return(nil, false)

	got, err := f.service.Send(context.Background(),
		domain.SendMessageCommand{SenderID: "alice", ReceiverID: "bob", Text: "you snake"})

	req.NoError(err)
	req.Equal("you *****", got.Text)
}
