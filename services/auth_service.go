package services

import (
	"chat-dm/auth"
	"chat-dm/contract"
	"chat-dm/domain"
	"chat-dm/errors"
	"chat-dm/repositories"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
)

type IAuthService interface {
	Signup(fullName, email, password string) (Session, error)
	Login(email, password string) (Session, error)
	UpdateProfile(ctx context.Context, userID, profilePic string) (domain.UserSummary, error)
	Check(userID string) (domain.UserSummary, error)
}

// Session is an authenticated account with its freshly issued token.
type Session struct {
	User  domain.UserSummary
	Token string
}

type AuthService struct {
	log            *slog.Logger
	userRepository repositories.IUserRepository
	issuer         *auth.TokenIssuer
	uploader       contract.MediaUploader
}

func NewAuthService(log *slog.Logger, repo repositories.IUserRepository,
	issuer *auth.TokenIssuer, uploader contract.MediaUploader) *AuthService {
	return &AuthService{log: log, userRepository: repo, issuer: issuer, uploader: uploader}
}

func (s *AuthService) Signup(fullName, email, password string) (Session, error) {
	req := auth.SignupRequest{
		FullName: strings.TrimSpace(fullName),
		Email:    normalizeEmail(email),
		Password: password,
	}

	// Validated before any expensive cryptographic operation.
	if err := auth.ValidateSignup(req); err != nil {
		return Session{}, err
	}

	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return Session{}, fmt.Errorf("hashing failed: %w", err)
	}

	user, err := s.userRepository.CreateUser(req.FullName, req.Email, hashedPassword)
	if err != nil {
		return Session{}, err
	}
	s.log.Info("User signed up", "user_id", user.ID)

	return s.session(user)
}

func (s *AuthService) Login(email, password string) (Session, error) {
	if err := auth.ValidateLogin(auth.LoginRequest{Email: email, Password: password}); err != nil {
		return Session{}, err
	}

	user, err := s.userRepository.GetUserByEmail(normalizeEmail(email))
	if stderrors.Is(err, errors.ErrUserNotFound) {
		// Same answer as a wrong password to prevent user enumeration.
		return Session{}, errors.ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return Session{}, errors.ErrInvalidCredentials
	}

	return s.session(user)
}

// UpdateProfile uploads the new picture and stores its durable URL.
func (s *AuthService) UpdateProfile(ctx context.Context, userID, profilePic string) (domain.UserSummary, error) {
	if profilePic == "" {
		return domain.UserSummary{}, fmt.Errorf("%w: profile picture is required", errors.ErrValidation)
	}

	url, err := s.uploader.Upload(ctx, profilePic)
	if err != nil {
		s.log.Error("Profile picture upload failed", "user_id", userID, "kind", "media_upload", "error", err)
		if !stderrors.Is(err, errors.ErrMediaUpload) {
			err = fmt.Errorf("%w: %w", errors.ErrMediaUpload, err)
		}
		return domain.UserSummary{}, err
	}

	user, err := s.userRepository.UpdateProfilePic(userID, url)
	if err != nil {
		return domain.UserSummary{}, err
	}
	return user.Summary(), nil
}

func (s *AuthService) Check(userID string) (domain.UserSummary, error) {
	user, err := s.userRepository.FindByID(userID)
	if err != nil {
		return domain.UserSummary{}, err
	}
	return user.Summary(), nil
}

func (s *AuthService) session(user repositories.User) (Session, error) {
	token, err := s.issuer.GenerateToken(user.ID, user.Roles)
	if err != nil {
		return Session{}, errors.ErrTokenGeneration
	}
	return Session{User: user.Summary(), Token: token}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
