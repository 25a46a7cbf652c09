package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// TokenTypeAccess matches the "typ" claim Keycloak puts on access tokens.
	TokenTypeAccess = "Bearer"
	// TokenTypeRefresh matches the "typ" claim Keycloak puts on refresh tokens.
	TokenTypeRefresh = "Refresh"

	localIssuer = "myfinances-user-service"
)

// Claims represents the claims MyFinances reads from a JWT.
type Claims struct {
	Email             string `json:"email,omitempty"`
	PreferredUsername string `json:"preferred_username,omitempty"`
	Type              string `json:"typ,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs HS256 access and refresh tokens.
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenIssuer creates a TokenIssuer.
func NewTokenIssuer(secret []byte, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: secret, accessTTL: accessTTL, refreshTTL: refreshTTL, now: time.Now}
}

// Issue generates an access/refresh token pair for subject.
func (i *TokenIssuer) Issue(subject, email, username string) (*TokenSet, error) {
	now := i.now()

	access, err := i.sign(subject, email, username, TokenTypeAccess, now, i.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("signing access token: %w", err)
	}
	refresh, err := i.sign(subject, email, username, TokenTypeRefresh, now, i.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("signing refresh token: %w", err)
	}

	return &TokenSet{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    TokenTypeAccess,
		ExpiresIn:    int64(i.accessTTL / time.Second),
		ExpiresAt:    now.Add(i.accessTTL),
	}, nil
}

func (i *TokenIssuer) sign(subject, email, username, tokenType string, now time.Time, ttl time.Duration) (string, error) {
	claims := &Claims{
		Email:             email,
		PreferredUsername: username,
		Type:              tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    localIssuer,
			Subject:   subject,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// TokenVerifier validates JWT signatures and standard claims.
type TokenVerifier struct {
	keyFunc jwt.Keyfunc
	methods []string
}

// NewHMACVerifier verifies HS256 tokens signed with secret.
func NewHMACVerifier(secret []byte) *TokenVerifier {
	return &TokenVerifier{
		keyFunc: func(*jwt.Token) (interface{}, error) { return secret, nil },
		methods: []string{jwt.SigningMethodHS256.Alg()},
	}
}

// NewRSAVerifier verifies RS256 tokens against a PEM encoded public key, such
// as a Keycloak realm key.
func NewRSAVerifier(publicKeyPEM []byte) (*TokenVerifier, error) {
	key, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("parsing RSA public key: %w", err)
	}
	return &TokenVerifier{
		keyFunc: func(*jwt.Token) (interface{}, error) { return key, nil },
		methods: []string{jwt.SigningMethodRS256.Alg()},
	}, nil
}

// Verify parses and validates a token and returns its claims.
func (v *TokenVerifier) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, v.keyFunc,
		jwt.WithValidMethods(v.methods),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token is not valid")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}
