// Package session authenticates back-office operators and tracks their server-held sessions.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/marque-api/internal/domain"
	"github.com/marque-api/internal/infrastructure/database"
	"github.com/marque-api/internal/infrastructure/metrics"
	"github.com/marque-api/internal/pkg/id"
	"github.com/marque-api/internal/pkg/validate"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultTTL = 12 * time.Hour

	// bcrypt only looks at the first 72 bytes of a password.
	maxPasswordBytes = 72
)

type LoginRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required"`
	Market   string `json:"market"`
}

type LoginResult struct {
	Session *domain.Session
	Admin   *domain.Admin
}

// Principal is an authenticated operator together with the session that proved it.
type Principal struct {
	Admin   *domain.Admin
	Session *domain.Session
}

// Store keeps operator sessions keyed by their opaque token.
// Get returns domain.ErrNotFound for unknown tokens; Delete of an unknown token is not an error.
type Store interface {
	Save(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, token string) (*domain.Session, error)
	Delete(ctx context.Context, token string) error
}

// Admins is the slice of the connection registry the service needs.
type Admins interface {
	WithHandle(ctx context.Context, market domain.Market, fn func(*database.Handle) error) error
}

type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Authenticate(ctx context.Context, token string) (*Principal, error)
	Logout(ctx context.Context, token string) error
}

type Option func(*service)

func WithTTL(ttl time.Duration) Option {
	return func(s *service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithClock(now func() time.Time) Option { return func(s *service) { s.now = now } }

func WithLogger(l *zap.Logger) Option { return func(s *service) { s.log = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(s *service) { s.metrics = m } }

type service struct {
	admins  Admins
	store   Store
	ttl     time.Duration
	now     func() time.Time
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewService(admins Admins, store Store, opts ...Option) Service {
	s := &service{
		admins: admins,
		store:  store,
		ttl:    DefaultTTL,
		now:    time.Now,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login checks credentials against the chosen market's store only. A username that
// exists in another market never matches.
func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	if strings.TrimSpace(req.Market) == "" {
		return nil, fmt.Errorf("market must be selected: %w", domain.ErrMarketRequired)
	}
	market, err := domain.ParseMarket(req.Market)
	if err != nil {
		return nil, err
	}
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	var admin *domain.Admin
	err = s.admins.WithHandle(ctx, market, func(h *database.Handle) error {
		a, err := h.Admins().GetByUsername(req.Username)
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("unknown operator: %w", domain.ErrInvalidCredentials)
		}
		if err != nil {
			return err
		}
		if !a.IsActive {
			return fmt.Errorf("operator deactivated: %w", domain.ErrInvalidCredentials)
		}
		if !CheckPassword(a.PasswordHash, req.Password) {
			return fmt.Errorf("password mismatch: %w", domain.ErrInvalidCredentials)
		}
		if err := h.Admins().TouchLastLogin(a.ID, now); err != nil {
			return err
		}
		a.LastLogin = &now
		admin = a
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			s.metrics.AdminLogin(market, "rejected")
			s.log.Info("operator login rejected", zap.String("market", market.String()), zap.Error(err))
		}
		return nil, err
	}

	tok, err := id.Secret(32)
	if err != nil {
		return nil, err
	}
	sess := &domain.Session{
		Token:     tok,
		AdminID:   admin.ID,
		Market:    market,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
		TTL:       now.Add(s.ttl).Unix(),
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, sessionStoreErr("save", err)
	}
	s.metrics.AdminLogin(market, "accepted")
	s.log.Info("operator logged in",
		zap.String("market", market.String()),
		zap.Int64("admin_id", admin.ID))
	return &LoginResult{Session: sess, Admin: admin}, nil
}

// Authenticate resolves the session's operator from the session's own market. It runs
// on every privileged request so deactivation takes effect immediately.
func (s *service) Authenticate(ctx context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, fmt.Errorf("no session: %w", domain.ErrUnauthenticated)
	}
	sess, err := s.store.Get(ctx, token)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("unknown session: %w", domain.ErrUnauthenticated)
	}
	if err != nil {
		return nil, sessionStoreErr("load", err)
	}
	if sess.Expired(s.now()) {
		s.discard(ctx, token, sess, "expired")
		return nil, fmt.Errorf("session expired: %w", domain.ErrUnauthenticated)
	}
	if !sess.Market.Valid() {
		s.discard(ctx, token, sess, "invalid market")
		return nil, fmt.Errorf("session market %q: %w", sess.Market, domain.ErrUnauthenticated)
	}

	var admin *domain.Admin
	err = s.admins.WithHandle(ctx, sess.Market, func(h *database.Handle) error {
		a, err := h.Admins().Get(sess.AdminID)
		if err != nil {
			return err
		}
		admin = a
		return nil
	})
	if errors.Is(err, domain.ErrNotFound) || (err == nil && !admin.IsActive) {
		s.discard(ctx, token, sess, "operator inactive or removed")
		return nil, fmt.Errorf("operator no longer active: %w", domain.ErrUnauthenticated)
	}
	if err != nil {
		return nil, err
	}
	return &Principal{Admin: admin, Session: sess}, nil
}

func (s *service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.store.Delete(ctx, token); err != nil {
		return sessionStoreErr("delete", err)
	}
	return nil
}

// discard removes a session that can no longer authenticate. The caller is rejected
// either way, so a failed delete is only logged; the record expires on its own.
func (s *service) discard(ctx context.Context, token string, sess *domain.Session, reason string) {
	fields := []zap.Field{
		zap.String("market", sess.Market.String()),
		zap.Int64("admin_id", sess.AdminID),
		zap.String("reason", reason),
	}
	if err := s.store.Delete(ctx, token); err != nil {
		s.log.Warn("discard session failed", append(fields, zap.Error(err))...)
		return
	}
	s.log.Info("session discarded", fields...)
}

// sessionStoreErr classifies a session backend failure. The backends report a missing
// record as domain.ErrNotFound; anything else means the backend could not answer.
func sessionStoreErr(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrStoreUnavailable) {
		return fmt.Errorf("%s session: %w", op, err)
	}
	return fmt.Errorf("%s session: %v: %w", op, err, domain.ErrStoreUnavailable)
}

// HashPassword returns the bcrypt hash of the first 72 bytes of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(capPassword(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares password with hash using the same 72-byte cap as HashPassword.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), capPassword(password)) == nil
}

func capPassword(password string) []byte {
	b := []byte(password)
	if len(b) > maxPasswordBytes {
		b = b[:maxPasswordBytes]
	}
	return b
}
