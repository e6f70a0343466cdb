package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velorashop/velora-backend/pkg/auth/session"
	"github.com/velorashop/velora-backend/pkg/db/models"
	"github.com/velorashop/velora-backend/pkg/enums"
	pkgerrors "github.com/velorashop/velora-backend/pkg/errors"
	"github.com/velorashop/velora-backend/pkg/security"
)

type userLoader interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type sessionManager interface {
	Create(ctx context.Context, userID uuid.UUID, role enums.Role) (string, *session.Session, error)
	Destroy(ctx context.Context, sessionID string) error
}

// Service handles credential checks and session issuance.
type Service interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
}

// LoginResult carries everything the controller needs to establish a session.
type LoginResult struct {
	SessionID string
	CSRFToken string
	User      UserSummary
}

// UserSummary is the public slice of the account returned at login.
type UserSummary struct {
	ID    uuid.UUID  `json:"id"`
	Email string     `json:"email"`
	Name  string     `json:"name"`
	Role  enums.Role `json:"role"`
}

type service struct {
	users    userLoader
	sessions sessionManager
}

// NewService builds the auth service.
func NewService(users userLoader, sessions sessionManager) (Service, error) {
	if users == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session manager required")
	}
	return &service{users: users, sessions: sessions}, nil
}

// Login verifies credentials and mints a cookie session. Unknown accounts
// and bad passwords produce the same error so the response does not reveal
// which addresses exist.
func (s *service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	sessionID, sess, err := s.sessions.Create(ctx, user.ID, user.Role)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create session")
	}

	return &LoginResult{
		SessionID: sessionID,
		CSRFToken: sess.CSRFToken,
		User: UserSummary{
			ID:    user.ID,
			Email: user.Email,
			Name:  user.Name,
			Role:  user.Role,
		},
	}, nil
}

// Logout revokes the session. Revoking an unknown session succeeds.
func (s *service) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Destroy(ctx, sessionID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "destroy session")
	}
	return nil
}
