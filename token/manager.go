package token

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/event-auth-server/internal/errors"
	"github.com/pkg/errors"
)

// Pair is the result of a successful login or refresh
type Pair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// Manager issues and verifies access and refresh tokens. Each kind has its own signer
// so a token of one kind never verifies as the other.
type Manager struct {
	accessSigner       Signer
	refreshSigner      Signer
	issuer             string
	accessTokenExpiry  time.Duration
	refreshTokenExpiry time.Duration
	nowFunc            func() time.Time
}

type ManagerOption func(*Manager)

func WithTokenExpiry(accessTokenExpiry time.Duration, refreshTokenExpiry time.Duration) ManagerOption {
	return func(m *Manager) {
		m.accessTokenExpiry = accessTokenExpiry
		m.refreshTokenExpiry = refreshTokenExpiry
	}
}

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func WithIssuer(issuer string) ManagerOption {
	return func(m *Manager) {
		m.issuer = issuer
	}
}

func New(accessSigner, refreshSigner Signer, options ...ManagerOption) *Manager {
	m := &Manager{
		accessSigner:  accessSigner,
		refreshSigner: refreshSigner,
	}

	for _, opt := range options {
		opt(m)
	}

	if m.accessTokenExpiry == 0 {
		m.accessTokenExpiry = 15 * time.Minute
	}
	if m.refreshTokenExpiry == 0 {
		m.refreshTokenExpiry = 7 * 24 * time.Hour
	}
	if m.nowFunc == nil {
		m.nowFunc = time.Now
	}
	return m
}

func (m *Manager) AccessTokenExpiry() time.Duration {
	return m.accessTokenExpiry
}

func (m *Manager) RefreshTokenExpiry() time.Duration {
	return m.refreshTokenExpiry
}

// IssuePair signs a fresh access and refresh token for subject
func (m *Manager) IssuePair(subject Subject) (*Pair, error) {
	now := m.nowFunc()

	access, accessClaims, err := m.sign(m.accessSigner, subject, UseAccess, now, m.accessTokenExpiry)
	if err != nil {
		return nil, errors.Wrap(err, "Manager.IssuePair access")
	}
	refresh, refreshClaims, err := m.sign(m.refreshSigner, subject, UseRefresh, now, m.refreshTokenExpiry)
	if err != nil {
		return nil, errors.Wrap(err, "Manager.IssuePair refresh")
	}

	return &Pair{
		AccessToken:      access,
		AccessExpiresAt:  accessClaims.Expiry(),
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshClaims.Expiry(),
	}, nil
}

func (m *Manager) sign(signer Signer, subject Subject, use Use, now time.Time, ttl time.Duration) (string, *Claims, error) {
	claims := &Claims{
		UserID: subject.ID,
		Role:   subject.Role,
		Use:    use,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   subject.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.New().String(), // unique per token so rotation never repeats a value
		},
	}
	signed, err := signer.Sign(claims)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// VerifyAccess checks signature, expiry and kind of an access token
func (m *Manager) VerifyAccess(raw string) (*Claims, error) {
	return m.verify(m.accessSigner, raw, UseAccess)
}

// VerifyRefresh checks signature, expiry and kind of a refresh token
func (m *Manager) VerifyRefresh(raw string) (*Claims, error) {
	return m.verify(m.refreshSigner, raw, UseRefresh)
}

func (m *Manager) verify(signer Signer, raw string, use Use) (*Claims, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, apperrors.ErrInvalidToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{signer.GetSigningMethod().Alg()}),
		jwt.WithTimeFunc(m.nowFunc),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, signer.GetVerificationKey, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, apperrors.Wrapf(apperrors.ErrInvalidToken, "%v", err)
	}
	if !parsed.Valid || claims.Use != use || claims.UserID == "" || !claims.Role.Valid() {
		return nil, apperrors.ErrInvalidToken
	}
	return claims, nil
}
