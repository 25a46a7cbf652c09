package identity

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenIssuerAndVerifier(t *testing.T) {
	secret := []byte("test-secret")
	issuer := NewTokenIssuer(secret, 15*time.Minute, time.Hour)
	verifier := NewHMACVerifier(secret)

	t.Run("issues access and refresh tokens", func(t *testing.T) {
		set, err := issuer.Issue("sub-1", "a@b.com", "alice")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if set.TokenType != TokenTypeAccess || set.ExpiresIn != 900 {
			t.Errorf("unexpected token set: %+v", set)
		}

		access, err := verifier.Verify(set.AccessToken)
		if err != nil {
			t.Fatalf("access token should verify: %v", err)
		}
		if access.Subject != "sub-1" || access.Type != TokenTypeAccess || access.PreferredUsername != "alice" {
			t.Errorf("unexpected access claims: %+v", access)
		}

		refresh, err := verifier.Verify(set.RefreshToken)
		if err != nil {
			t.Fatalf("refresh token should verify: %v", err)
		}
		if refresh.Type != TokenTypeRefresh {
			t.Errorf("expected refresh typ, got %q", refresh.Type)
		}
	})

	t.Run("rejects wrong secret", func(t *testing.T) {
		set, _ := issuer.Issue("sub-1", "", "")
		if _, err := NewHMACVerifier([]byte("other")).Verify(set.AccessToken); err == nil {
			t.Error("expected verification failure")
		}
	})

	t.Run("rejects expired token", func(t *testing.T) {
		expired := NewTokenIssuer(secret, time.Minute, time.Minute)
		expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
		set, _ := expired.Issue("sub-1", "", "")
		if _, err := verifier.Verify(set.AccessToken); err == nil {
			t.Error("expected expired token to be rejected")
		}
	})

	t.Run("rejects token without subject", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		})
		signed, _ := token.SignedString(secret)
		if _, err := verifier.Verify(signed); err == nil {
			t.Error("expected missing subject to be rejected")
		}
	})
}

func TestRSAVerifier(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generating key: %v", err)
	}
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("marshaling key: %v", err)
	}
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})

	verifier, err := NewRSAVerifier(pemBytes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, &Claims{
		Type: TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "kc-subject",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("signing: %v", err)
	}

	claims, err := verifier.Verify(signed)
	if err != nil {
		t.Fatalf("expected RS256 token to verify: %v", err)
	}
	if claims.Subject != "kc-subject" {
		t.Errorf("expected subject kc-subject, got %s", claims.Subject)
	}

	t.Run("rejects HS256 token", func(t *testing.T) {
		set, _ := NewTokenIssuer([]byte("x"), time.Minute, time.Minute).Issue("s", "", "")
		if _, err := verifier.Verify(set.AccessToken); err == nil {
			t.Error("expected algorithm mismatch to be rejected")
		}
	})

	t.Run("invalid PEM", func(t *testing.T) {
		if _, err := NewRSAVerifier([]byte("not a key")); err == nil {
			t.Error("expected error for invalid PEM")
		}
	})
}
