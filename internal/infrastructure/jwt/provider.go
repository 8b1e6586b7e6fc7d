package jwtinfra

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/marque-api/internal/config"
	"github.com/marque-api/internal/domain"
)

// Claims holds the JWT payload fields. Subject carries the user id.
type Claims struct {
	Market string `json:"market"`
	jwt.RegisteredClaims
}

// Identity is what a verified bearer token proves.
type Identity struct {
	UserID    int64
	Market    domain.Market
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Provider signs and verifies end-user bearer tokens. It signs with RS256 when a key pair
// is configured and with HS256 over a shared secret otherwise.
type Provider struct {
	method    jwt.SigningMethod
	signKey   interface{}
	verifyKey interface{}
	expiry    time.Duration
	now       func() time.Time
}

func NewProvider(cfg *config.Config) (*Provider, error) {
	if cfg.JWTPrivateKeyPath != "" || cfg.JWTPublicKeyPath != "" {
		priv, pub, err := loadRSAKeys(cfg.JWTPrivateKeyPath, cfg.JWTPublicKeyPath)
		if err != nil {
			return nil, err
		}
		return NewRS256(priv, pub, cfg.JWTExpiry), nil
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET or JWT_PRIVATE_KEY_PATH/JWT_PUBLIC_KEY_PATH must be set")
	}
	return NewHS256([]byte(cfg.JWTSecret), cfg.JWTExpiry), nil
}

func NewHS256(secret []byte, expiry time.Duration) *Provider {
	return &Provider{method: jwt.SigningMethodHS256, signKey: secret, verifyKey: secret, expiry: expiry, now: time.Now}
}

func NewRS256(priv *rsa.PrivateKey, pub *rsa.PublicKey, expiry time.Duration) *Provider {
	return &Provider{method: jwt.SigningMethodRS256, signKey: priv, verifyKey: pub, expiry: expiry, now: time.Now}
}

// WithClock replaces the provider's time source. Used by tests.
func (p *Provider) WithClock(now func() time.Time) *Provider {
	cp := *p
	cp.now = now
	return &cp
}

func (p *Provider) Expiry() time.Duration { return p.expiry }

// Issue signs a token asserting userID within market.
func (p *Provider) Issue(userID int64, market domain.Market) (string, time.Time, error) {
	if !market.Valid() {
		return "", time.Time{}, fmt.Errorf("issue token for market %q: %w", market, domain.ErrValidation)
	}
	now := p.now()
	exp := now.Add(p.expiry)
	claims := Claims{
		Market: market.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(p.method, claims).SignedString(p.signKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify checks signature and expiry and returns the identity the token proves.
func (p *Provider) Verify(tokenStr string) (*Identity, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(*jwt.Token) (interface{}, error) {
		return p.verifyKey, nil
	},
		jwt.WithValidMethods([]string{p.method.Alg()}),
		jwt.WithStrictDecoding(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("bearer token: %w", domain.ErrExpiredToken)
		}
		return nil, fmt.Errorf("bearer token: %v: %w", err, domain.ErrInvalidToken)
	}
	if !token.Valid {
		return nil, fmt.Errorf("bearer token: %w", domain.ErrInvalidToken)
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return nil, fmt.Errorf("bearer token subject %q: %w", claims.Subject, domain.ErrInvalidToken)
	}
	market, err := domain.ParseMarket(claims.Market)
	if err != nil {
		return nil, fmt.Errorf("bearer token market %q: %w", claims.Market, domain.ErrInvalidToken)
	}
	id := &Identity{UserID: userID, Market: market}
	if claims.IssuedAt != nil {
		id.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	return id, nil
}

func loadRSAKeys(privPath, pubPath string) (*rsa.PrivateKey, *rsa.PublicKey, error) {
	privBytes, err := os.ReadFile(privPath)
	if err != nil {
		return nil, nil, fmt.Errorf("read private key: %w", err)
	}
	privKey, err := jwt.ParseRSAPrivateKeyFromPEM(privBytes)
	if err != nil {
		return nil, nil, fmt.Errorf("parse private key: %w", err)
	}

	pubBytes, err := os.ReadFile(pubPath)
	if err != nil {
		return nil, nil, fmt.Errorf("read public key: %w", err)
	}
	pubKey, err := jwt.ParseRSAPublicKeyFromPEM(pubBytes)
	if err != nil {
		return nil, nil, fmt.Errorf("parse public key: %w", err)
	}
	return privKey, pubKey, nil
}
