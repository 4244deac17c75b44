package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/reservo/booking-system/internal/core/domain"
	"github.com/reservo/booking-system/internal/core/ports"
)

func newAuthSvc(repo *stubUserRepo, notifier *stubNotifier) *AuthService {
	return NewAuthService(repo, NewTokenService("secret", time.Hour), notifier, "http://localhost:8080/", zerolog.Nop())
}

func TestAuthService_Register_Success(t *testing.T) {
	repo := newStubUserRepo()
	notifier := &stubNotifier{}
	svc := newAuthSvc(repo, notifier)

	user, err := svc.Register(context.Background(), " Alice@Example.com ", "pass123")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("expected normalized email, got %q", user.Email)
	}
	if user.PasswordHash == "pass123" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("pass123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if user.Role != domain.RoleCustomer {
		t.Fatalf("registration must always yield a customer, got %s", user.Role)
	}
	if user.Verified {
		t.Fatalf("new accounts start unverified")
	}

	if len(notifier.sent) != 1 || notifier.sent[0].Kind != ports.NotifyVerifyEmail {
		t.Fatalf("expected one verification email, got %+v", notifier.sent)
	}
	if !strings.HasPrefix(notifier.sent[0].Data["link"], "http://localhost:8080/verify?token=") {
		t.Fatalf("unexpected verification link: %s", notifier.sent[0].Data["link"])
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc := newAuthSvc(newStubUserRepo(), &stubNotifier{})

	if _, err := svc.Register(context.Background(), "", "pass"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.Register(context.Background(), "bob@example.com", ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing password, got %v", err)
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	svc := newAuthSvc(newStubUserRepo(), &stubNotifier{})

	_, _ = svc.Register(context.Background(), "bob@example.com", "pass")
	if _, err := svc.Register(context.Background(), "BOB@example.com", "pass2"); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	svc := newAuthSvc(newStubUserRepo(), &stubNotifier{})

	registered, err := svc.Register(context.Background(), "carol@example.com", "s3cret")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	token, user, err := svc.Login(context.Background(), "carol@example.com", "s3cret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if token == "" {
		t.Fatalf("expected token, got empty")
	}
	if user.ID != registered.ID {
		t.Fatalf("unexpected user: %+v", user)
	}

	id, err := svc.tokens.Verify(token, PurposeAccess)
	if err != nil {
		t.Fatalf("token invalid: %v", err)
	}
	if id.SubjectID != registered.ID || id.Role != domain.RoleCustomer {
		t.Fatalf("unexpected identity: %+v", id)
	}
}

func TestAuthService_Login_InvalidPassword(t *testing.T) {
	svc := newAuthSvc(newStubUserRepo(), &stubNotifier{})

	_, _ = svc.Register(context.Background(), "dave@example.com", "goodpass")
	if _, _, err := svc.Login(context.Background(), "dave@example.com", "badpass"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_UserNotFound(t *testing.T) {
	svc := newAuthSvc(newStubUserRepo(), &stubNotifier{})

	if _, _, err := svc.Login(context.Background(), "ghost@example.com", "pass"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestAuthService_VerifyEmail(t *testing.T) {
	repo := newStubUserRepo()
	notifier := &stubNotifier{}
	svc := newAuthSvc(repo, notifier)

	user, _ := svc.Register(context.Background(), "erin@example.com", "pass")
	link, _ := url.Parse(notifier.sent[0].Data["link"])
	token := link.Query().Get("token")

	already, err := svc.VerifyEmail(context.Background(), token)
	if err != nil {
		t.Fatalf("VerifyEmail returned error: %v", err)
	}
	if already {
		t.Fatalf("first verification must not report already verified")
	}
	stored, _ := repo.FindByID(context.Background(), user.ID)
	if !stored.Verified {
		t.Fatalf("expected user to be verified")
	}

	already, err = svc.VerifyEmail(context.Background(), token)
	if err != nil || !already {
		t.Fatalf("expected already verified on second call, got %v, %v", already, err)
	}
}

func TestAuthService_VerifyEmail_RejectsAccessToken(t *testing.T) {
	svc := newAuthSvc(newStubUserRepo(), &stubNotifier{})
	_, _ = svc.Register(context.Background(), "fay@example.com", "pass")

	access, _, _ := svc.Login(context.Background(), "fay@example.com", "pass")
	if _, err := svc.VerifyEmail(context.Background(), access); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if _, err := svc.VerifyEmail(context.Background(), ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty token, got %v", err)
	}
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	repo := newStubUserRepo()
	svc := newAuthSvc(repo, &stubNotifier{})

	admin, err := svc.EnsureAdmin(context.Background(), "admin@example.com", "root")
	if err != nil {
		t.Fatalf("EnsureAdmin returned error: %v", err)
	}
	if admin.Role != domain.RoleAdmin || !admin.Verified {
		t.Fatalf("unexpected admin: %+v", admin)
	}

	again, err := svc.EnsureAdmin(context.Background(), "admin@example.com", "other")
	if err != nil {
		t.Fatalf("second EnsureAdmin returned error: %v", err)
	}
	if again.ID != admin.ID || len(repo.users) != 1 {
		t.Fatalf("expected existing admin to be reused")
	}
}
