package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/reservo/booking-system/internal/core/domain"
	"github.com/reservo/booking-system/internal/core/ports"
)

// AuthService implements registration, login and email verification.
type AuthService struct {
	repo     ports.UserRepository
	tokens   *TokenService
	notifier ports.Notifier
	baseURL  string
	log      zerolog.Logger
}

func NewAuthService(repo ports.UserRepository, tokens *TokenService, notifier ports.Notifier, baseURL string, log zerolog.Logger) *AuthService {
	return &AuthService{
		repo:     repo,
		tokens:   tokens,
		notifier: notifier,
		baseURL:  strings.TrimRight(baseURL, "/"),
		log:      log,
	}
}

// Register creates a customer account. The role is never taken from the caller.
func (s *AuthService) Register(ctx context.Context, email, password string) (*domain.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", domain.ErrInvalidInput)
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	user, err := s.createUser(ctx, email, password, domain.RoleCustomer, false)
	if err != nil {
		return nil, err
	}

	s.sendVerification(user)
	s.log.Info().Str("user_id", user.ID).Msg("user registered")
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", nil, err
	}

	return token, user, nil
}

func (s *AuthService) VerifyEmail(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, fmt.Errorf("%w: missing token", domain.ErrInvalidInput)
	}

	identity, err := s.tokens.Verify(token, PurposeVerify)
	if err != nil {
		return false, err
	}

	user, err := s.repo.FindByID(ctx, identity.SubjectID)
	if err != nil {
		return false, err
	}
	if user.Verified {
		return true, nil
	}

	if err := s.repo.MarkVerified(ctx, user.ID); err != nil {
		return false, err
	}
	s.log.Info().Str("user_id", user.ID).Msg("email verified")
	return false, nil
}

// EnsureAdmin creates the bootstrap admin account if no user owns email yet.
// An existing account is returned unchanged.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) (*domain.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: admin email and password are required", domain.ErrInvalidInput)
	}

	existing, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		if existing.Role != domain.RoleAdmin {
			s.log.Warn().Str("user_id", existing.ID).Msg("bootstrap admin email belongs to a non-admin account")
		}
		return existing, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	user, err := s.createUser(ctx, email, password, domain.RoleAdmin, true)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", user.ID).Msg("bootstrap admin created")
	return user, nil
}

func (s *AuthService) createUser(ctx context.Context, email, password, role string, verified bool) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return s.repo.Create(ctx, &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Verified:     verified,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

func (s *AuthService) sendVerification(user *domain.User) {
	token, err := s.tokens.IssueVerification(user)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to issue verification token")
		return
	}

	s.notifier.Enqueue(ports.Notification{
		ID:   uuid.NewString(),
		Kind: ports.NotifyVerifyEmail,
		To:   user.Email,
		Key:  user.ID,
		Data: map[string]string{
			"link": s.baseURL + "/verify?token=" + url.QueryEscape(token),
		},
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
