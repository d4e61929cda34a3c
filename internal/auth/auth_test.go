package auth

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func useTempDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), ".royal")
	prev := Dir
	Dir = func() (string, error) { return dir, nil }
	t.Cleanup(func() { Dir = prev })
	t.Setenv(EnvToken, "")
	return dir
}

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestNotLoggedIn(t *testing.T) {
	useTempDir(t)
	ti, err := GetToken()
	if err != nil {
		t.Fatalf("GetToken: %v", err)
	}
	if ti != nil {
		t.Errorf("expected nil token, got %+v", ti)
	}
	if Token() != "" {
		t.Error("Token() should be empty")
	}
}

func TestSetGetDelete(t *testing.T) {
	dir := useTempDir(t)

	if err := SetToken("Bearer  abc123 ", nil); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	info, err := os.Stat(filepath.Join(dir, credFileName))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("credentials perm = %o, want 600", perm)
	}

	ti, err := GetToken()
	if err != nil || ti == nil {
		t.Fatalf("GetToken: %v %v", ti, err)
	}
	if ti.Token != "abc123" || ti.Source != "file" {
		t.Errorf("unexpected token info: %+v", ti)
	}

	if err := DeleteToken(); err != nil {
		t.Fatalf("DeleteToken: %v", err)
	}
	if err := DeleteToken(); err != nil {
		t.Errorf("second DeleteToken should be a no-op: %v", err)
	}
	if Token() != "" {
		t.Error("token still present after delete")
	}
}

func TestEnvOverride(t *testing.T) {
	useTempDir(t)
	if err := SetToken("from-file", nil); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	t.Setenv(EnvToken, "bearer from-env")
	ti, err := GetToken()
	if err != nil {
		t.Fatalf("GetToken: %v", err)
	}
	if ti.Token != "from-env" || ti.Source != "env" {
		t.Errorf("unexpected token info: %+v", ti)
	}
}

func TestSetTokenRejectsEmpty(t *testing.T) {
	useTempDir(t)
	if err := SetToken("  ", nil); err == nil {
		t.Fatal("expected error for empty token")
	}
}

func TestClaimsAndExpiry(t *testing.T) {
	useTempDir(t)
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	tok := signed(t, jwt.MapClaims{"sub": "princess-peach", "exp": exp.Unix()})

	claims, err := Claims(tok)
	if err != nil {
		t.Fatalf("Claims: %v", err)
	}
	if sub, _ := claims.GetSubject(); sub != "princess-peach" {
		t.Errorf("sub = %q", sub)
	}

	if err := SetToken(tok, nil); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	ti, _ := GetToken()
	if ti.ExpiresAt == nil || !ti.ExpiresAt.Equal(exp) {
		t.Errorf("ExpiresAt = %v, want %v", ti.ExpiresAt, exp)
	}
}

func TestClaimsOpaque(t *testing.T) {
	if _, err := Claims("not-a-jwt"); !errors.Is(err, ErrOpaqueToken) {
		t.Errorf("expected ErrOpaqueToken, got %v", err)
	}
}
