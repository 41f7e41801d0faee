package service

import (
	"errors"
	"strings"
	"sync"
	"time"

	"user-center/config"
	"user-center/database/model"
	"user-center/logger"
	"user-center/util/random"

	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims carried by both access and refresh tokens. Role and slug are
// informational; the auth middleware reloads the user row so revoked roles
// and deactivated accounts take effect immediately.
type Claims struct {
	UserId    int    `json:"user_id"`
	Slug      string `json:"slug"`
	Role      string `json:"role"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenPair is what a successful login or refresh returns.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// TokenService issues and validates HS256 JWTs.
type TokenService struct {
	secret     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenService() *TokenService {
	secret := config.GetJWTSecret()
	if secret == "" {
		// process-lifetime key: tokens stop verifying after a restart
		secret = fallbackSecret()
		logger.Warning("UC_JWT_SECRET is not set, using a generated signing key")
	}
	return &TokenService{
		secret:     secret,
		accessTTL:  config.GetAccessTokenTTL(),
		refreshTTL: config.GetRefreshTokenTTL(),
	}
}

var generatedSecret struct {
	sync.Once
	value string
}

func fallbackSecret() string {
	generatedSecret.Do(func() {
		generatedSecret.value = random.Seq(32)
	})
	return generatedSecret.value
}

// GeneratePair issues a fresh access/refresh token pair for the user.
func (s *TokenService) GeneratePair(user *model.User) (*TokenPair, error) {
	access, err := s.generate(user, tokenTypeAccess, s.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.generate(user, tokenTypeRefresh, s.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}

func (s *TokenService) generate(user *model.User, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserId:    user.Id,
		Slug:      user.Slug,
		Role:      user.Role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}

// ValidateAccessToken parses an access token and returns its claims.
func (s *TokenService) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.validate(tokenString, tokenTypeAccess)
}

// ValidateRefreshToken parses a refresh token and returns its claims.
func (s *TokenService) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return s.validate(tokenString, tokenTypeRefresh)
}

func (s *TokenService) validate(tokenString, tokenType string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(s.secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.TokenType != tokenType {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ExtractBearer pulls the token out of an Authorization header value.
func ExtractBearer(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
