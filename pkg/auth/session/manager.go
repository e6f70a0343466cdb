package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"

	"github.com/velorashop/velora-backend/pkg/config"
	"github.com/velorashop/velora-backend/pkg/enums"
	redisclient "github.com/velorashop/velora-backend/pkg/redis"
	"github.com/velorashop/velora-backend/pkg/security"
)

// ErrSessionNotFound signals an unknown or expired session id.
var ErrSessionNotFound = errors.New("session not found")

// Session is the server-side state behind a cookie: the authenticated user,
// their role, and the CSRF token issued alongside the cookie.
type Session struct {
	UserID    uuid.UUID  `json:"user_id"`
	Role      enums.Role `json:"role"`
	CSRFToken string     `json:"csrf_token"`
}

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	SessionKey(sessionID string) string
}

// Manager handles cookie session creation, lookup, and revocation.
type Manager struct {
	store sessionStore
	keyer sessionKeyer
	ttl   time.Duration
}

// Loader exposes the read-only surface needed by middleware.
type Loader interface {
	Get(ctx context.Context, sessionID string) (*Session, error)
}

// NewManager constructs a session manager backed by Redis.
func NewManager(client *redisclient.Client, cfg config.SessionConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &Manager{
		store: client,
		keyer: client,
		ttl:   cfg.TTL,
	}, nil
}

// Create mints a session id plus CSRF token and persists the session state.
func (m *Manager) Create(ctx context.Context, userID uuid.UUID, role enums.Role) (string, *Session, error) {
	if userID == uuid.Nil {
		return "", nil, fmt.Errorf("user id is required")
	}
	if !role.IsValid() {
		return "", nil, fmt.Errorf("invalid role %q", role)
	}

	csrfToken, err := security.GenerateCSRFToken()
	if err != nil {
		return "", nil, err
	}

	sess := &Session{
		UserID:    userID,
		Role:      role,
		CSRFToken: csrfToken,
	}
	payload, err := json.Marshal(sess)
	if err != nil {
		return "", nil, fmt.Errorf("encoding session: %w", err)
	}

	sessionID := uuid.NewString()
	if err := m.store.Set(ctx, m.keyer.SessionKey(sessionID), payload, m.ttl); err != nil {
		return "", nil, err
	}
	return sessionID, sess, nil
}

// Get loads the session state for the provided id.
func (m *Manager) Get(ctx context.Context, sessionID string) (*Session, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrSessionNotFound
	}
	raw, err := m.store.Get(ctx, m.keyer.SessionKey(sessionID))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	return &sess, nil
}

// Destroy removes the session state; revoking an unknown id is not an error.
func (m *Manager) Destroy(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return nil
	}
	return m.store.Del(ctx, m.keyer.SessionKey(sessionID))
}
