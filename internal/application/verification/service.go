// Package verification issues and consumes one-time phone codes inside a market's store.
package verification

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/marque-api/internal/domain"
	"github.com/marque-api/internal/infrastructure/database"
	"github.com/marque-api/internal/infrastructure/metrics"
	"go.uber.org/zap"
)

const (
	DefaultCodeTTL = 10 * time.Minute
	codeDigits     = 6
)

// VerifyResult is the outcome of a successful code verification.
type VerifyResult struct {
	User      *domain.User
	IsNewUser bool
}

type Service interface {
	RequestCode(ctx context.Context, market domain.Market, phone string) (*domain.PhoneVerification, error)
	VerifyCode(ctx context.Context, market domain.Market, phone, code string) (*VerifyResult, error)
	PurgeExpired(ctx context.Context, market domain.Market) (int64, error)
	CodeTTL() time.Duration
}

// Store is the slice of the connection registry the service needs.
type Store interface {
	WithHandle(ctx context.Context, market domain.Market, fn func(*database.Handle) error) error
}

type Option func(*service)

func WithClock(now func() time.Time) Option { return func(s *service) { s.now = now } }

func WithCodeTTL(ttl time.Duration) Option {
	return func(s *service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithLogger(l *zap.Logger) Option { return func(s *service) { s.log = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(s *service) { s.metrics = m } }

type service struct {
	store   Store
	ttl     time.Duration
	now     func() time.Time
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewService(store Store, opts ...Option) Service {
	s := &service{
		store: store,
		ttl:   DefaultCodeTTL,
		now:   time.Now,
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) CodeTTL() time.Duration { return s.ttl }

func (s *service) RequestCode(ctx context.Context, market domain.Market, phone string) (*domain.PhoneVerification, error) {
	code, err := newCode()
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}
	now := s.now().UTC()
	v := &domain.PhoneVerification{
		PhoneNumber: phone,
		Code:        code,
		ExpiresAt:   now.Add(s.ttl),
		CreatedAt:   now,
	}
	err = s.store.WithHandle(ctx, market, func(h *database.Handle) error {
		u, err := h.Users().GetByPhone(phone)
		switch {
		case err == nil:
			v.UserID = &u.ID
		case !errors.Is(err, domain.ErrNotFound):
			return err
		}
		return h.Verifications().Create(v)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.CodeRequested(market)
	s.log.Debug("verification code issued",
		zap.String("market", market.String()),
		zap.Int64("verification_id", v.ID),
		zap.Time("expires_at", v.ExpiresAt))
	return v, nil
}

// VerifyCode consumes the newest matching code and signs the user in, creating the
// account on first login. All writes commit together or not at all.
func (s *service) VerifyCode(ctx context.Context, market domain.Market, phone, code string) (*VerifyResult, error) {
	now := s.now().UTC()
	var res VerifyResult
	err := s.store.WithHandle(ctx, market, func(h *database.Handle) error {
		return h.Transaction(func(tx *database.Handle) error {
			v, err := tx.Verifications().LatestActive(phone, code, now)
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("no active code for phone: %w", domain.ErrInvalidOrExpiredCode)
			}
			if err != nil {
				return err
			}
			consumed, err := tx.Verifications().MarkUsed(v.ID, now)
			if err != nil {
				return err
			}
			if !consumed {
				return fmt.Errorf("code already used: %w", domain.ErrInvalidOrExpiredCode)
			}

			u, created, err := tx.Users().FindOrCreateByPhone(phone, now)
			if err != nil {
				return err
			}
			if err := tx.Users().MarkLogin(u.ID, now); err != nil {
				return err
			}
			if err := tx.Verifications().AttachUser(v.ID, u.ID); err != nil {
				return err
			}
			u.IsVerified = true
			u.LastLogin = &now
			res = VerifyResult{User: u, IsNewUser: created}
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidOrExpiredCode) {
			s.metrics.CodeVerified(market, "rejected")
		}
		return nil, err
	}
	s.metrics.CodeVerified(market, "accepted")
	s.log.Info("phone verified",
		zap.String("market", market.String()),
		zap.Int64("user_id", res.User.ID),
		zap.Bool("new_user", res.IsNewUser))
	return &res, nil
}

func (s *service) PurgeExpired(ctx context.Context, market domain.Market) (int64, error) {
	var n int64
	err := s.store.WithHandle(ctx, market, func(h *database.Handle) error {
		var err error
		n, err = h.Verifications().DeleteExpired(s.now().UTC())
		return err
	})
	if err != nil {
		return 0, err
	}
	s.metrics.Purged(market, n)
	return n, nil
}

func newCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}
