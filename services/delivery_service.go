package services

import (
	"chat-dm/contract"
	"chat-dm/domain"
	"chat-dm/domain/event"
	"chat-dm/errors"
	"chat-dm/observability"
	"chat-dm/repositories"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"
)

type IDeliveryService interface {
	Send(ctx context.Context, cmd domain.SendMessageCommand) (domain.Message, error)
}

// DeliveryService validates, persists and pushes one message.
// Persistence always happens before any push attempt, and the caller
// receives the persisted record whatever the recipient's online state.
type DeliveryService struct {
	log       *slog.Logger
	messages  repositories.IMessageRepository
	users     repositories.IUserRepository
	registry  contract.IRegistry
	uploader  contract.MediaUploader
	moderator contract.TextModerator
	metrics   *observability.Metrics
}

func NewDeliveryService(
	log *slog.Logger,
	messages repositories.IMessageRepository,
	users repositories.IUserRepository,
	registry contract.IRegistry,
	uploader contract.MediaUploader,
	metrics *observability.Metrics,
) *DeliveryService {
	return &DeliveryService{
		log:      log,
		messages: messages,
		users:    users,
		registry: registry,
		uploader: uploader,
		metrics:  metrics,
	}
}

// WithModerator masks censored words of every text before it is persisted.
func (s *DeliveryService) WithModerator(moderator contract.TextModerator) *DeliveryService {
	s.moderator = moderator
	return s
}

func (s *DeliveryService) Send(ctx context.Context, cmd domain.SendMessageCommand) (domain.Message, error) {
	started := time.Now()

	if err := cmd.Validate(); err != nil {
		s.metrics.RecordSendFailure("validation")
		return domain.Message{}, err
	}

	exists, err := s.users.Exists(cmd.ReceiverID)
	if err != nil {
		s.fail(cmd, "identity", err)
		return domain.Message{}, err
	}
	if !exists {
		s.metrics.RecordSendFailure("recipient_not_found")
		return domain.Message{}, errors.ErrRecipientNotFound
	}

	var image string
	if cmd.Image != "" {
		image, err = s.uploader.Upload(ctx, cmd.Image)
		if err != nil {
			s.fail(cmd, "media_upload", err)
			if !stderrors.Is(err, errors.ErrMediaUpload) {
				err = fmt.Errorf("%w: %w", errors.ErrMediaUpload, err)
			}
			return domain.Message{}, err
		}
	}

	text := s.moderate(cmd)

	// Last point where a cancelled request leaves no trace.
	if err := ctx.Err(); err != nil {
		return domain.Message{}, err
	}

	message, err := s.messages.Append(domain.Message{
		SenderID:   cmd.SenderID,
		ReceiverID: cmd.ReceiverID,
		Text:       text,
		Image:      image,
	})
	if err != nil {
		s.fail(cmd, "storage", err)
		if !stderrors.Is(err, errors.ErrStorageUnavailable) {
			err = fmt.Errorf("%w: %w", errors.ErrStorageUnavailable, err)
		}
		return domain.Message{}, err
	}
	s.metrics.RecordSent(started)

	s.push(context.WithoutCancel(ctx), message)
	return message, nil
}

// push hands the message to the receiver's live connection, if any.
// Nothing here can fail the send: the message is already durable.
func (s *DeliveryService) push(ctx context.Context, message domain.Message) {
	sink, ok := s.registry.Lookup(message.ReceiverID)
	if !ok {
		s.metrics.RecordPush(observability.PushOffline)
		s.log.Debug("Receiver offline, push skipped",
			"message_id", message.ID, "receiver_id", message.ReceiverID)
		return
	}

	if err := sink.Consume(ctx, event.MessageCreated{Message: message}); err != nil {
		s.metrics.RecordPush(observability.PushDropped)
		s.log.Warn("Push dropped",
			"message_id", message.ID, "receiver_id", message.ReceiverID, "error", err)
		return
	}
	s.metrics.RecordPush(observability.PushDelivered)
}

func (s *DeliveryService) moderate(cmd domain.SendMessageCommand) string {
	if s.moderator == nil || cmd.Text == "" {
		return cmd.Text
	}
	censored, found := s.moderator.Censor(cmd.Text)
	if len(found) == 0 {
		return cmd.Text
	}
	s.metrics.RecordCensored(len(found))
	s.log.Info("Censored words masked",
		"sender_id", cmd.SenderID, "count", len(found))
	return censored
}

func (s *DeliveryService) fail(cmd domain.SendMessageCommand, kind string, err error) {
	s.metrics.RecordSendFailure(kind)
	s.log.Error("Send failed",
		"sender_id", cmd.SenderID, "receiver_id", cmd.ReceiverID, "kind", kind, "error", err)
}
