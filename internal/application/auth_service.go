package application

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-admin/internal/domain/entity"
	repo "github.com/oksasatya/go-user-admin/internal/domain/repository"
	"github.com/oksasatya/go-user-admin/pkg/helpers"
)

// AuthService authenticates credentials and manages login sessions.
type AuthService struct {
	Repo   repo.UserRepository
	Hasher *helpers.Hasher
	JWT    *helpers.JWTManager
	Logger *logrus.Logger

	sessions  *helpers.SessionStore
	dummyOnce sync.Once
	dummyHash string
}

// Session is an issued login session.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Principal *entity.Principal
}

// sessionRecord is stored at session:<sid> while the session is live.
type sessionRecord struct {
	UserID      int64    `json:"user_id"`
	Email       string   `json:"email"`
	Authorities []string `json:"authorities"`
	CreatedAt   string   `json:"created_at"`
}

// sessionKeyPrefix namespaces session records in Redis.
const sessionKeyPrefix = "session:"

func NewAuthService(repo repo.UserRepository, hasher *helpers.Hasher, jwt *helpers.JWTManager, rdb *redis.Client, logger *logrus.Logger) *AuthService {
	if logger == nil {
		logger = helpers.NewDiscardLogger()
	}
	return &AuthService{
		Repo:     repo,
		Hasher:   hasher,
		JWT:      jwt,
		Logger:   logger,
		sessions: helpers.NewSessionStore(rdb, sessionKeyPrefix),
	}
}

// LoadUserByEmail returns the user with roles or ErrUserNotFound.
func (s *AuthService) LoadUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	u, err := s.Repo.FindByEmailWithRoles(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// Authenticate checks email/password. Unknown email and wrong password both
// yield ErrInvalidCredentials after one bcrypt comparison.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*entity.Principal, error) {
	u, err := s.LoadUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			s.Logger.WithError(err).Error("load user for authentication failed")
			return nil, err
		}
		s.Hasher.Verify(s.dummy(), password)
		s.Logger.WithField("email", email).Info("authentication failed: unknown email")
		return nil, ErrInvalidCredentials
	}
	if !s.Hasher.Verify(u.Password, password) {
		s.Logger.WithFields(logrus.Fields{"user_id": u.ID, "email": u.Email}).Info("authentication failed: bad password")
		return nil, ErrInvalidCredentials
	}
	return entity.NewPrincipal(u), nil
}

// IssueSession signs a token for p and records the session when Redis is configured.
func (s *AuthService) IssueSession(ctx context.Context, p *entity.Principal) (*Session, error) {
	sid := uuid.NewString()
	token, exp, err := s.JWT.GenerateToken(helpers.Claims{
		UserID:      p.UserID,
		Email:       p.Email,
		Name:        p.Name,
		Authorities: p.Authorities,
		SessionID:   sid,
	})
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", p.UserID).Error("generate session token failed")
		return nil, err
	}

	if s.sessions != nil {
		rec := sessionRecord{
			UserID:      p.UserID,
			Email:       p.Email,
			Authorities: p.Authorities,
			CreatedAt:   time.Now().UTC().Format(time.RFC3339Nano),
		}
		if err := s.sessions.Put(ctx, sid, rec, s.JWT.TTL); err != nil {
			s.Logger.WithError(err).WithField("user_id", p.UserID).Error("store session failed")
			return nil, err
		}
	}
	return &Session{Token: token, ExpiresAt: exp, Principal: p}, nil
}

// ResolveSession turns a token back into its principal. The user is reloaded
// on every call, so deleted users lose access and role edits apply at once.
func (s *AuthService) ResolveSession(ctx context.Context, token string) (*entity.Principal, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}
	claims, err := s.JWT.ParseToken(token)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	if s.sessions != nil {
		var rec sessionRecord
		found, err := s.sessions.Get(ctx, claims.SessionID, &rec)
		if err != nil {
			s.Logger.WithError(err).WithField("sid", claims.SessionID).Warn("session lookup failed")
			return nil, ErrSessionNotFound
		}
		if !found || rec.UserID != claims.UserID {
			return nil, ErrSessionNotFound
		}
	}

	// the principal reflects the stored user, not the token snapshot
	u, err := s.Repo.FindByIDWithRoles(ctx, claims.UserID)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			s.Logger.WithError(err).WithField("user_id", claims.UserID).Error("reload session user failed")
		}
		return nil, ErrSessionNotFound
	}
	return entity.NewPrincipal(u), nil
}

// RevokeSession drops the session record. Unparseable tokens are ignored.
func (s *AuthService) RevokeSession(ctx context.Context, token string) error {
	if token == "" || s.sessions == nil {
		return nil
	}
	claims, err := s.JWT.ParseToken(token)
	if err != nil {
		return nil
	}
	if err := s.sessions.Delete(ctx, claims.SessionID); err != nil {
		s.Logger.WithError(err).WithField("sid", claims.SessionID).Warn("revoke session failed")
		return err
	}
	s.Logger.WithField("user_id", claims.UserID).Info("session revoked")
	return nil
}

// Login authenticates and issues a session in one step.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	p, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.IssueSession(ctx, p)
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := s.Hasher.Hash(uuid.NewString())
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}
