package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/yigit/schoolhub/internal/app/models"
)

func newTestJWT(accessTTL time.Duration) *JWTService {
	return NewJWTService(JWTConfig{
		SecretKey:      "test-secret",
		AccessTokenExp: accessTTL,
		ResetTokenExp:  15 * time.Minute,
		TokenIssuer:    "schoolhub-test",
	})
}

func TestAccessTokenCarriesIdentity(t *testing.T) {
	svc := newTestJWT(time.Hour)
	user := &models.User{ID: "u-1", Role: models.RoleTeacher}

	token, expiresAt, err := svc.GenerateAccessToken(user)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	if time.Until(expiresAt) < 59*time.Minute {
		t.Fatalf("expiry too short: %v", expiresAt)
	}

	claims, err := svc.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("ValidateAccessToken: %v", err)
	}
	if claims.UserID != "u-1" || claims.Role != "teacher" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestTokenSignedWithOtherSecretIsRejected(t *testing.T) {
	token, _, err := newTestJWT(time.Hour).GenerateAccessToken(&models.User{ID: "u-1", Role: models.RoleStudent})
	if err != nil {
		t.Fatal(err)
	}
	other := NewJWTService(JWTConfig{SecretKey: "another", AccessTokenExp: time.Hour})
	if _, err := other.ValidateAccessToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestExpiredToken(t *testing.T) {
	svc := newTestJWT(-time.Minute)
	token, _, err := svc.GenerateAccessToken(&models.User{ID: "u-1", Role: models.RoleStudent})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ValidateAccessToken(token); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

func TestTokenPurposesDoNotMix(t *testing.T) {
	svc := newTestJWT(time.Hour)
	user := &models.User{ID: "u-1", Role: models.RoleStudent}

	reset, _, err := svc.GenerateResetToken(user)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ValidateAccessToken(reset); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("reset token accepted as access token: %v", err)
	}
	if _, err := svc.ValidateResetToken(reset); err != nil {
		t.Fatalf("ValidateResetToken: %v", err)
	}

	access, _, err := svc.GenerateAccessToken(user)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ValidateResetToken(access); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("access token accepted as reset token: %v", err)
	}
}

func TestGarbageToken(t *testing.T) {
	if _, err := newTestJWT(time.Hour).ValidateAccessToken("not.a.jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestExtractBearerToken(t *testing.T) {
	cases := map[string]struct {
		header string
		want   string
		ok     bool
	}{
		"bearer":      {"Bearer abc", "abc", true},
		"empty":       {"", "", false},
		"no scheme":   {"abc", "", false},
		"blank token": {"Bearer   ", "", false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := ExtractBearerToken(tc.header)
			if tc.ok != (err == nil) || got != tc.want {
				t.Fatalf("ExtractBearerToken(%q) = %q, %v", tc.header, got, err)
			}
		})
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatal(err)
	}
	if hash == "s3cret" || !strings.HasPrefix(hash, "$2") {
		t.Fatalf("password not hashed: %q", hash)
	}
	if !CheckPassword(hash, "s3cret") {
		t.Fatal("correct password rejected")
	}
	if CheckPassword(hash, "wrong") {
		t.Fatal("wrong password accepted")
	}
}
