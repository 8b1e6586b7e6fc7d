// Package auth implements the end-user phone sign-in flow and profile access.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/marque-api/internal/application/market"
	"github.com/marque-api/internal/application/verification"
	"github.com/marque-api/internal/domain"
	"github.com/marque-api/internal/infrastructure/database"
	jwtinfra "github.com/marque-api/internal/infrastructure/jwt"
	"github.com/marque-api/internal/infrastructure/sns"
	"github.com/marque-api/internal/pkg/phone"
	"github.com/marque-api/internal/pkg/ratelimit"
	"github.com/marque-api/internal/pkg/validate"
	"go.uber.org/zap"
)

type SendCodeRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required"`
}

type SendCodeResult struct {
	PhoneNumber      string        `json:"phone_number"`
	Market           domain.Market `json:"market"`
	ExpiresInMinutes int           `json:"expires_in_minutes"`
}

type VerifyCodeRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required"`
	Code        string `json:"verification_code" validate:"required,len=6,numeric"`
}

type VerifyCodeResult struct {
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"`
	ExpiresIn   int           `json:"expires_in"`
	UserID      int64         `json:"user_id"`
	Market      domain.Market `json:"market"`
	IsNewUser   bool          `json:"is_new_user"`
}

// Profile is a user as shown to that user, with market-specific presentation.
type Profile struct {
	*domain.User
	FormattedPhone string               `json:"formatted_phone"`
	Market         domain.MarketProfile `json:"market"`
}

// TokenIssuer mints bearer tokens for verified users.
type TokenIssuer interface {
	Issue(userID int64, market domain.Market) (string, time.Time, error)
}

// Users is the slice of the connection registry the service needs.
type Users interface {
	WithHandle(ctx context.Context, market domain.Market, fn func(*database.Handle) error) error
}

type Service interface {
	SendCode(ctx context.Context, req SendCodeRequest, override string) (*SendCodeResult, error)
	VerifyCode(ctx context.Context, req VerifyCodeRequest, override string) (*VerifyCodeResult, error)
	GetProfile(ctx context.Context, id *jwtinfra.Identity) (*Profile, error)
	UpdateProfile(ctx context.Context, id *jwtinfra.Identity, req domain.UpdateProfileRequest) (*Profile, error)
	Markets() []domain.MarketProfile
}

type Option func(*service)

// WithPhoneLimiter caps how often a single phone number may request a code.
func WithPhoneLimiter(l *ratelimit.Keyed) Option { return func(s *service) { s.phoneLimiter = l } }

func WithClock(now func() time.Time) Option { return func(s *service) { s.now = now } }

func WithLogger(l *zap.Logger) Option { return func(s *service) { s.log = l } }

type service struct {
	users        Users
	codes        verification.Service
	sms          sns.SMSSender
	tokens       TokenIssuer
	phoneLimiter *ratelimit.Keyed
	now          func() time.Time
	log          *zap.Logger
}

func NewService(users Users, codes verification.Service, sms sns.SMSSender, tokens TokenIssuer, opts ...Option) Service {
	s := &service{
		users:  users,
		codes:  codes,
		sms:    sms,
		tokens: tokens,
		now:    time.Now,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// normalizePhone canonicalises raw input and rejects anything that is not E.164.
func normalizePhone(raw string) (string, error) {
	p := phone.Normalize(raw)
	if err := validate.Var("phone_number", p, "required,e164"); err != nil {
		return "", err
	}
	return p, nil
}

func (s *service) SendCode(ctx context.Context, req SendCodeRequest, override string) (*SendCodeResult, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	p, err := normalizePhone(req.PhoneNumber)
	if err != nil {
		return nil, err
	}
	m := market.Resolve(market.Signals{Override: override, Phone: p})
	if override == "" && !market.Recognized(p) {
		s.log.Debug("unrecognized calling code, using fallback market", zap.String("market", m.String()))
	}

	if s.phoneLimiter != nil && !s.phoneLimiter.Allow(p) {
		return nil, fmt.Errorf("code requests for this phone: %w", domain.ErrTooManyRequests)
	}

	v, err := s.codes.RequestCode(ctx, m, p)
	if err != nil {
		return nil, err
	}
	msg := fmt.Sprintf("Your Marque verification code: %s", v.Code)
	if err := s.sms.SendSMS(ctx, p, msg); err != nil {
		s.log.Warn("sms delivery failed",
			zap.String("market", m.String()),
			zap.Int64("verification_id", v.ID),
			zap.Error(err))
		return nil, fmt.Errorf("send code: %v: %w", err, domain.ErrDeliveryFailed)
	}
	return &SendCodeResult{
		PhoneNumber:      phone.Format(p),
		Market:           m,
		ExpiresInMinutes: int(s.codes.CodeTTL() / time.Minute),
	}, nil
}

func (s *service) VerifyCode(ctx context.Context, req VerifyCodeRequest, override string) (*VerifyCodeResult, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	p, err := normalizePhone(req.PhoneNumber)
	if err != nil {
		return nil, err
	}
	m := market.Resolve(market.Signals{Override: override, Phone: p})

	res, err := s.codes.VerifyCode(ctx, m, p, req.Code)
	if err != nil {
		return nil, err
	}
	tok, exp, err := s.tokens.Issue(res.User.ID, m)
	if err != nil {
		return nil, err
	}
	return &VerifyCodeResult{
		AccessToken: tok,
		TokenType:   "bearer",
		ExpiresIn:   int(exp.Sub(s.now()).Round(time.Second).Seconds()),
		UserID:      res.User.ID,
		Market:      m,
		IsNewUser:   res.IsNewUser,
	}, nil
}

// GetProfile reads the user from the market named in the token, never from a header.
func (s *service) GetProfile(ctx context.Context, id *jwtinfra.Identity) (*Profile, error) {
	var u *domain.User
	err := s.users.WithHandle(ctx, id.Market, func(h *database.Handle) error {
		var err error
		u, err = h.Users().Get(id.UserID)
		return err
	})
	if err != nil {
		return nil, profileErr(err)
	}
	if !u.IsActive {
		return nil, fmt.Errorf("user %d deactivated: %w", u.ID, domain.ErrForbidden)
	}
	return newProfile(u, id.Market), nil
}

func (s *service) UpdateProfile(ctx context.Context, id *jwtinfra.Identity, req domain.UpdateProfileRequest) (*Profile, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	var u *domain.User
	err := s.users.WithHandle(ctx, id.Market, func(h *database.Handle) error {
		current, err := h.Users().Get(id.UserID)
		if err != nil {
			return err
		}
		if !current.IsActive {
			return fmt.Errorf("user %d deactivated: %w", current.ID, domain.ErrForbidden)
		}
		u, err = h.Users().UpdateProfile(id.UserID, req, s.now().UTC())
		return err
	})
	if err != nil {
		return nil, profileErr(err)
	}
	return newProfile(u, id.Market), nil
}

func (s *service) Markets() []domain.MarketProfile {
	out := make([]domain.MarketProfile, 0, len(domain.Markets()))
	for _, m := range domain.Markets() {
		out = append(out, m.Profile())
	}
	return out
}

func newProfile(u *domain.User, m domain.Market) *Profile {
	return &Profile{User: u, FormattedPhone: phone.Format(u.PhoneNumber), Market: m.Profile()}
}

// profileErr maps a missing user to an authentication failure: a valid token for a
// user that no longer exists in its market proves nothing.
func profileErr(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("user not found: %w", domain.ErrUnauthenticated)
	}
	return err
}
