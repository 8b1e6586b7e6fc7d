package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/marque-api/internal/application/verification"
	"github.com/marque-api/internal/domain"
	"github.com/marque-api/internal/infrastructure/database"
	"github.com/marque-api/internal/infrastructure/database/dbtest"
	jwtinfra "github.com/marque-api/internal/infrastructure/jwt"
	"github.com/marque-api/internal/pkg/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// --- mocks ---

type mockCodes struct{ mock.Mock }

func (m *mockCodes) RequestCode(ctx context.Context, market domain.Market, phone string) (*domain.PhoneVerification, error) {
	args := m.Called(ctx, market, phone)
	v, _ := args.Get(0).(*domain.PhoneVerification)
	return v, args.Error(1)
}

func (m *mockCodes) VerifyCode(ctx context.Context, market domain.Market, phone, code string) (*verification.VerifyResult, error) {
	args := m.Called(ctx, market, phone, code)
	r, _ := args.Get(0).(*verification.VerifyResult)
	return r, args.Error(1)
}

func (m *mockCodes) PurgeExpired(ctx context.Context, market domain.Market) (int64, error) {
	args := m.Called(ctx, market)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockCodes) CodeTTL() time.Duration { return 10 * time.Minute }

type mockSMS struct{ mock.Mock }

func (m *mockSMS) SendSMS(ctx context.Context, to, message string) error {
	return m.Called(ctx, to, message).Error(0)
}

type mockTokens struct{ mock.Mock }

func (m *mockTokens) Issue(userID int64, market domain.Market) (string, time.Time, error) {
	args := m.Called(userID, market)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func newSvc(users Users, codes *mockCodes, sms *mockSMS, tokens *mockTokens, opts ...Option) Service {
	opts = append([]Option{WithClock(func() time.Time { return now })}, opts...)
	return NewService(users, codes, sms, tokens, opts...)
}

// --- SendCode ---

func TestSendCode_InfersMarketFromPhone(t *testing.T) {
	codes, sms := &mockCodes{}, &mockSMS{}
	codes.On("RequestCode", mock.Anything, domain.MarketKG, "+996700123456").
		Return(&domain.PhoneVerification{ID: 1, Code: "123456"}, nil)
	sms.On("SendSMS", mock.Anything, "+996700123456", mock.MatchedBy(func(msg string) bool {
		return msg == "Your Marque verification code: 123456"
	})).Return(nil)

	res, err := newSvc(nil, codes, sms, &mockTokens{}).SendCode(context.Background(), SendCodeRequest{PhoneNumber: "+996 700 123 456"}, "")

	require.NoError(t, err)
	assert.Equal(t, domain.MarketKG, res.Market)
	assert.Equal(t, "+996 700 123 456", res.PhoneNumber)
	assert.Equal(t, 10, res.ExpiresInMinutes)
	codes.AssertExpectations(t)
	sms.AssertExpectations(t)
}

func TestSendCode_OverrideHeaderWins(t *testing.T) {
	codes, sms := &mockCodes{}, &mockSMS{}
	codes.On("RequestCode", mock.Anything, domain.MarketUS, "+996700123456").
		Return(&domain.PhoneVerification{ID: 1, Code: "123456"}, nil)
	sms.On("SendSMS", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	res, err := newSvc(nil, codes, sms, &mockTokens{}).SendCode(context.Background(), SendCodeRequest{PhoneNumber: "+996700123456"}, "US")

	require.NoError(t, err)
	assert.Equal(t, domain.MarketUS, res.Market)
}

func TestSendCode_InvalidPhone(t *testing.T) {
	codes := &mockCodes{}

	_, err := newSvc(nil, codes, &mockSMS{}, &mockTokens{}).SendCode(context.Background(), SendCodeRequest{PhoneNumber: "call me"}, "")

	assert.ErrorIs(t, err, domain.ErrValidation)
	codes.AssertNotCalled(t, "RequestCode", mock.Anything, mock.Anything, mock.Anything)
}

func TestSendCode_PerPhoneLimit(t *testing.T) {
	codes, sms := &mockCodes{}, &mockSMS{}
	codes.On("RequestCode", mock.Anything, domain.MarketUS, "+12125551234").
		Return(&domain.PhoneVerification{ID: 1, Code: "123456"}, nil)
	sms.On("SendSMS", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	limiter := ratelimit.PerWindow(3, 15*time.Minute).WithClock(func() time.Time { return now })
	svc := newSvc(nil, codes, sms, &mockTokens{}, WithPhoneLimiter(limiter))

	for i := 0; i < 3; i++ {
		_, err := svc.SendCode(context.Background(), SendCodeRequest{PhoneNumber: "+1 (212) 555-1234"}, "")
		require.NoError(t, err)
	}
	_, err := svc.SendCode(context.Background(), SendCodeRequest{PhoneNumber: "+12125551234"}, "")

	assert.ErrorIs(t, err, domain.ErrTooManyRequests)
	codes.AssertNumberOfCalls(t, "RequestCode", 3)
}

func TestSendCode_DeliveryFailure(t *testing.T) {
	codes, sms := &mockCodes{}, &mockSMS{}
	codes.On("RequestCode", mock.Anything, domain.MarketUS, "+12125551234").
		Return(&domain.PhoneVerification{ID: 1, Code: "123456"}, nil)
	sms.On("SendSMS", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("sns down"))

	_, err := newSvc(nil, codes, sms, &mockTokens{}).SendCode(context.Background(), SendCodeRequest{PhoneNumber: "+12125551234"}, "")

	assert.ErrorIs(t, err, domain.ErrDeliveryFailed)
}

func TestSendCode_StoreUnavailable(t *testing.T) {
	codes, sms := &mockCodes{}, &mockSMS{}
	codes.On("RequestCode", mock.Anything, domain.MarketKG, "+996700123456").
		Return(nil, domain.ErrStoreUnavailable)

	_, err := newSvc(nil, codes, sms, &mockTokens{}).SendCode(context.Background(), SendCodeRequest{PhoneNumber: "+996700123456"}, "")

	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	sms.AssertNotCalled(t, "SendSMS", mock.Anything, mock.Anything, mock.Anything)
}

// --- VerifyCode ---

func TestVerifyCode_IssuesTokenForResolvedMarket(t *testing.T) {
	codes, tokens := &mockCodes{}, &mockTokens{}
	codes.On("VerifyCode", mock.Anything, domain.MarketUS, "+12125551234", "654321").
		Return(&verification.VerifyResult{User: &domain.User{ID: 7}, IsNewUser: true}, nil)
	tokens.On("Issue", int64(7), domain.MarketUS).Return("signed", now.Add(30*time.Minute), nil)

	res, err := newSvc(nil, codes, &mockSMS{}, tokens).VerifyCode(context.Background(),
		VerifyCodeRequest{PhoneNumber: "+12125551234", Code: "654321"}, "")

	require.NoError(t, err)
	assert.Equal(t, "signed", res.AccessToken)
	assert.Equal(t, "bearer", res.TokenType)
	assert.Equal(t, 1800, res.ExpiresIn)
	assert.Equal(t, int64(7), res.UserID)
	assert.Equal(t, domain.MarketUS, res.Market)
	assert.True(t, res.IsNewUser)
}

func TestVerifyCode_RejectsMalformedCode(t *testing.T) {
	codes := &mockCodes{}
	svc := newSvc(nil, codes, &mockSMS{}, &mockTokens{})

	for _, code := range []string{"", "12345", "1234567", "12a456"} {
		_, err := svc.VerifyCode(context.Background(), VerifyCodeRequest{PhoneNumber: "+12125551234", Code: code}, "")
		assert.ErrorIs(t, err, domain.ErrValidation, "code %q", code)
	}
	codes.AssertNotCalled(t, "VerifyCode", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestVerifyCode_InvalidCodeNoToken(t *testing.T) {
	codes, tokens := &mockCodes{}, &mockTokens{}
	codes.On("VerifyCode", mock.Anything, domain.MarketKG, "+996700123456", "000000").
		Return(nil, domain.ErrInvalidOrExpiredCode)

	_, err := newSvc(nil, codes, &mockSMS{}, tokens).VerifyCode(context.Background(),
		VerifyCodeRequest{PhoneNumber: "+996700123456", Code: "000000"}, "")

	assert.ErrorIs(t, err, domain.ErrInvalidOrExpiredCode)
	tokens.AssertNotCalled(t, "Issue", mock.Anything, mock.Anything)
}

// --- profile ---

func seedUser(t *testing.T, reg *database.Registry, m domain.Market, phone string) *domain.User {
	t.Helper()
	var u *domain.User
	require.NoError(t, reg.WithHandle(context.Background(), m, func(h *database.Handle) error {
		var err error
		u, _, err = h.Users().FindOrCreateByPhone(phone, now)
		return err
	}))
	return u
}

func TestGetProfile_ReadsTokenMarket(t *testing.T) {
	reg := dbtest.NewRegistry(t)
	u := seedUser(t, reg, domain.MarketKG, "+996700123456")
	svc := newSvc(reg, &mockCodes{}, &mockSMS{}, &mockTokens{})

	p, err := svc.GetProfile(context.Background(), &jwtinfra.Identity{UserID: u.ID, Market: domain.MarketKG})
	require.NoError(t, err)
	assert.Equal(t, "+996 700 123 456", p.FormattedPhone)
	assert.Equal(t, "KGS", p.Market.CurrencyCode)

	_, err = svc.GetProfile(context.Background(), &jwtinfra.Identity{UserID: u.ID, Market: domain.MarketUS})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestUpdateProfile(t *testing.T) {
	reg := dbtest.NewRegistry(t)
	u := seedUser(t, reg, domain.MarketUS, "+12125551234")
	svc := newSvc(reg, &mockCodes{}, &mockSMS{}, &mockTokens{})
	id := &jwtinfra.Identity{UserID: u.ID, Market: domain.MarketUS}

	name, img := "Jane Doe", "https://cdn.example.com/jane.png"
	p, err := svc.UpdateProfile(context.Background(), id, domain.UpdateProfileRequest{FullName: &name, ProfileImageURL: &img})
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", *p.FullName)
	assert.Equal(t, img, *p.ProfileImageURL)
	assert.Equal(t, "+1 (212) 555-1234", p.FormattedPhone)

	bad := "not a url"
	_, err = svc.UpdateProfile(context.Background(), id, domain.UpdateProfileRequest{ProfileImageURL: &bad})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestGetProfile_DeactivatedUser(t *testing.T) {
	reg := dbtest.NewRegistry(t)
	u := seedUser(t, reg, domain.MarketKG, "+996700123456")
	require.NoError(t, reg.WithHandle(context.Background(), domain.MarketKG, func(h *database.Handle) error {
		return h.DB().Model(&domain.User{}).Where("id = ?", u.ID).Update("is_active", false).Error
	}))
	svc := newSvc(reg, &mockCodes{}, &mockSMS{}, &mockTokens{})

	_, err := svc.GetProfile(context.Background(), &jwtinfra.Identity{UserID: u.ID, Market: domain.MarketKG})

	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestMarkets(t *testing.T) {
	profiles := newSvc(nil, &mockCodes{}, &mockSMS{}, &mockTokens{}).Markets()

	require.Len(t, profiles, 2)
	assert.Equal(t, domain.MarketKG, profiles[0].Market)
	assert.Equal(t, domain.MarketUS, profiles[1].Market)
}
