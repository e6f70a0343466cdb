package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velorashop/velora-backend/pkg/auth/session"
	"github.com/velorashop/velora-backend/pkg/config"
	"github.com/velorashop/velora-backend/pkg/db/models"
	"github.com/velorashop/velora-backend/pkg/enums"
	pkgerrors "github.com/velorashop/velora-backend/pkg/errors"
	"github.com/velorashop/velora-backend/pkg/security"
)

type stubUsers struct {
	byEmail map[string]*models.User
}

func (s *stubUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if user, ok := s.byEmail[email]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubSessions struct {
	created   []uuid.UUID
	destroyed []string
	failNext  error
}

func (s *stubSessions) Create(_ context.Context, userID uuid.UUID, role enums.Role) (string, *session.Session, error) {
	if s.failNext != nil {
		return "", nil, s.failNext
	}
	s.created = append(s.created, userID)
	return "session-id", &session.Session{UserID: userID, Role: role, CSRFToken: "csrf-token"}, nil
}

func (s *stubSessions) Destroy(_ context.Context, sessionID string) error {
	s.destroyed = append(s.destroyed, sessionID)
	return nil
}

func fastPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8192,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func newLoginFixture(t *testing.T, email, password string) (*stubUsers, *models.User) {
	t.Helper()
	hash, err := security.HashPassword(password, fastPasswordConfig())
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Name:         "Test Customer",
		Role:         enums.RoleCustomer,
	}
	return &stubUsers{byEmail: map[string]*models.User{email: user}}, user
}

func TestLoginSucceedsWithValidCredentials(t *testing.T) {
	users, user := newLoginFixture(t, "shopper@example.com", "hunter2!")
	sessions := &stubSessions{}
	svc, err := NewService(users, sessions)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	result, err := svc.Login(context.Background(), "shopper@example.com", "hunter2!")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.SessionID != "session-id" {
		t.Fatalf("unexpected session id %q", result.SessionID)
	}
	if result.CSRFToken != "csrf-token" {
		t.Fatalf("unexpected csrf token %q", result.CSRFToken)
	}
	if result.User.ID != user.ID {
		t.Fatalf("expected user %s, got %s", user.ID, result.User.ID)
	}
	if len(sessions.created) != 1 {
		t.Fatalf("expected one session, got %d", len(sessions.created))
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	users, _ := newLoginFixture(t, "shopper@example.com", "hunter2!")
	svc, err := NewService(users, &stubSessions{})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	_, err = svc.Login(context.Background(), "shopper@example.com", "wrong")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLoginUnknownUserMatchesWrongPassword(t *testing.T) {
	users, _ := newLoginFixture(t, "shopper@example.com", "hunter2!")
	svc, err := NewService(users, &stubSessions{})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	_, unknownErr := svc.Login(context.Background(), "nobody@example.com", "hunter2!")
	_, wrongErr := svc.Login(context.Background(), "shopper@example.com", "wrong")

	unknown := pkgerrors.As(unknownErr)
	wrong := pkgerrors.As(wrongErr)
	if unknown == nil || wrong == nil {
		t.Fatalf("expected typed errors, got %v and %v", unknownErr, wrongErr)
	}
	if unknown.Code() != wrong.Code() || unknown.Message() != wrong.Message() {
		t.Fatal("unknown account and bad password must be indistinguishable")
	}
}

func TestLoginValidatesInput(t *testing.T) {
	users, _ := newLoginFixture(t, "shopper@example.com", "hunter2!")
	svc, err := NewService(users, &stubSessions{})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	for _, tc := range []struct{ email, password string }{
		{"", "hunter2!"},
		{"shopper@example.com", ""},
		{"   ", "hunter2!"},
	} {
		_, err := svc.Login(context.Background(), tc.email, tc.password)
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error for %q/%q, got %v", tc.email, tc.password, err)
		}
	}
}

func TestLoginWrapsSessionFailure(t *testing.T) {
	users, _ := newLoginFixture(t, "shopper@example.com", "hunter2!")
	sessions := &stubSessions{failNext: errors.New("redis down")}
	svc, err := NewService(users, sessions)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	_, err = svc.Login(context.Background(), "shopper@example.com", "hunter2!")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestLogoutDestroysSession(t *testing.T) {
	users, _ := newLoginFixture(t, "shopper@example.com", "hunter2!")
	sessions := &stubSessions{}
	svc, err := NewService(users, sessions)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	if err := svc.Logout(context.Background(), "session-id"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(sessions.destroyed) != 1 || sessions.destroyed[0] != "session-id" {
		t.Fatalf("expected session-id destroyed, got %v", sessions.destroyed)
	}
}
