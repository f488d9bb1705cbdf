package services

import (
	"chat-dm/contract"
	"chat-dm/domain"
	"chat-dm/errors"
	"chat-dm/observability"
	"chat-dm/repositories"
	stderrors "errors"
	"log/slog"

	"github.com/samber/lo"
)

type IChatService interface {
	GetConversation(cmd domain.GetConversationCommand) ([]domain.Message, error)
	ChatPartners(userID string) ([]string, error)
	ChatPartnerProfiles(userID string) ([]domain.UserSummary, error)
	Contacts(userID string) ([]domain.UserSummary, error)
	Connect(userID string, sink contract.EventSink)
	Disconnect(userID string, sink contract.EventSink)
}

type ChatService struct {
	log      *slog.Logger
	messages repositories.IMessageRepository
	users    repositories.IUserRepository
	registry contract.IRegistry
	metrics  *observability.Metrics
}

func NewChatService(
	log *slog.Logger,
	messages repositories.IMessageRepository,
	users repositories.IUserRepository,
	registry contract.IRegistry,
	metrics *observability.Metrics,
) *ChatService {
	return &ChatService{
		log:      log,
		messages: messages,
		users:    users,
		registry: registry,
		metrics:  metrics,
	}
}

// GetConversation returns both directions of the exchange, oldest first.
func (s *ChatService) GetConversation(cmd domain.GetConversationCommand) ([]domain.Message, error) {
	return s.messages.FindConversation(cmd.UserID, cmd.CounterpartID)
}

// ChatPartners lists the distinct users userID has exchanged messages with,
// in the order they first appear. Recomputed from the store on every call.
func (s *ChatService) ChatPartners(userID string) ([]string, error) {
	messages, err := s.messages.FindForUser(userID)
	if err != nil {
		return nil, err
	}
	partners := lo.Map(messages, func(m domain.Message, _ int) string {
		return m.Counterpart(userID)
	})
	return lo.Uniq(partners), nil
}

// ChatPartnerProfiles resolves ChatPartners to public profiles.
// Accounts that vanished from the identity store are skipped.
func (s *ChatService) ChatPartnerProfiles(userID string) ([]domain.UserSummary, error) {
	ids, err := s.ChatPartners(userID)
	if err != nil {
		return nil, err
	}

	profiles := make([]domain.UserSummary, 0, len(ids))
	for _, id := range ids {
		user, err := s.users.FindByID(id)
		if stderrors.Is(err, errors.ErrUserNotFound) {
			s.log.Warn("Chat partner no longer exists", "user_id", userID, "partner_id", id)
			continue
		}
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, user.Summary())
	}
	return profiles, nil
}

// Contacts lists every registered user except userID.
func (s *ChatService) Contacts(userID string) ([]domain.UserSummary, error) {
	users, err := s.users.FindAllExcept(userID)
	if err != nil {
		return nil, err
	}
	return lo.Map(users, func(u repositories.User, _ int) domain.UserSummary {
		return u.Summary()
	}), nil
}

// Connect makes sink the live connection of userID, replacing any previous one.
func (s *ChatService) Connect(userID string, sink contract.EventSink) {
	s.registry.Register(userID, sink)
	s.metrics.RecordConnect()
	s.metrics.SetConnections(s.registry.Count())
	s.log.Info("User connected", "user_id", userID)
}

// Disconnect removes userID only if sink is still its registered connection.
func (s *ChatService) Disconnect(userID string, sink contract.EventSink) {
	if !s.registry.Release(userID, sink) {
		s.log.Debug("Stale connection closed after reconnect", "user_id", userID)
		return
	}
	s.metrics.SetConnections(s.registry.Count())
	s.log.Info("User disconnected", "user_id", userID)
}
