package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var secret = []byte("test-secret")

func validClaims() Claims {
	return Claims{
		Sub:   "usr_1",
		Email: "a@example.com",
		Name:  "Ada",
		Role:  "annotator",
		JTI:   "jti_1",
		Exp:   time.Now().Add(time.Hour).Unix(),
	}
}

func TestIssueAndParseToken(t *testing.T) {
	token, err := IssueToken(secret, validClaims())
	if err != nil {
		t.Fatal(err)
	}

	claims, err := ParseToken(secret, token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Email != "a@example.com" || claims.Role != "annotator" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, err := IssueToken(secret, validClaims())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ParseToken([]byte("other-secret"), token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseTokenRejectsTampering(t *testing.T) {
	token, err := IssueToken(secret, validClaims())
	if err != nil {
		t.Fatal(err)
	}
	parts := strings.Split(token, ".")
	tampered := parts[0] + "x." + parts[1]
	if _, err := ParseToken(secret, tampered); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	claims := validClaims()
	claims.Exp = time.Now().Add(-time.Minute).Unix()
	token, err := IssueToken(secret, claims)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ParseToken(secret, token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("expected ErrExpiredToken, got %v", err)
	}
}

func TestParseTokenRejectsMissingEmail(t *testing.T) {
	claims := validClaims()
	claims.Email = ""
	token, err := IssueToken(secret, claims)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ParseToken(secret, token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestHashTokenIsStable(t *testing.T) {
	if HashToken("abc") != HashToken("abc") {
		t.Error("hash should be deterministic")
	}
	if HashToken("abc") == HashToken("abd") {
		t.Error("distinct inputs should not collide")
	}
}
