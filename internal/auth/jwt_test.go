package auth

import (
	"testing"
	"time"
)

func TestJWTRoundTrip(t *testing.T) {
	j := NewJWT("secret", time.Minute)
	tok, err := j.Generate("ana", "admin")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := j.Validate(tok)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.Subject != "ana" || claims.Role != "admin" {
		t.Fatalf("claims = %+v", claims)
	}
	if claims.ID == "" {
		t.Fatal("token id missing")
	}
}

func TestJWTWrongSecret(t *testing.T) {
	tok, err := NewJWT("secret", time.Minute).Generate("ana", "admin")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := NewJWT("other", time.Minute).Validate(tok); err == nil {
		t.Fatal("token signed with another secret must not validate")
	}
}

func TestJWTExpired(t *testing.T) {
	tok, err := NewJWT("secret", -time.Minute).Generate("ana", "admin")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := NewJWT("secret", time.Minute).Validate(tok); err == nil {
		t.Fatal("expired token must not validate")
	}
}
