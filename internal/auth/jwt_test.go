package auth

import (
	"errors"
	"testing"
	"time"
)

func TestGenerateAndParseToken(t *testing.T) {
	InitJWT("test-secret-key")

	token, err := GenerateToken(1, "alice", "engineer", time.Now().Add(24*time.Hour), "go_netinv")
	if err != nil {
		t.Fatalf("GenerateToken() failed: %v", err)
	}
	if token == "" {
		t.Error("Expected non-empty token")
	}

	claims, err := ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken() failed: %v", err)
	}

	actor := claims.Actor()
	if actor.UID != 1 || actor.Username != "alice" || actor.Role != "engineer" {
		t.Errorf("Unexpected actor: %+v", actor)
	}
	if claims.Issuer != "go_netinv" {
		t.Errorf("Expected issuer go_netinv, got %s", claims.Issuer)
	}
}

func TestParseToken_Errors(t *testing.T) {
	InitJWT("test-secret-key")

	expired, err := GenerateToken(1, "alice", "admin", time.Now().Add(-time.Hour), "go_netinv")
	if err != nil {
		t.Fatalf("GenerateToken() failed: %v", err)
	}

	InitJWT("secret-1")
	otherSecret, _ := GenerateToken(1, "alice", "admin", time.Now().Add(time.Hour), "go_netinv")
	InitJWT("test-secret-key")

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"garbage", "invalid.token.string", ErrInvalidToken},
		{"expired", expired, ErrTokenExpired},
		{"wrong secret", otherSecret, ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(tt.token)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestGenerateToken_UninitializedSecret(t *testing.T) {
	jwtSecret = nil
	defer InitJWT("test-secret-key")

	if _, err := GenerateToken(1, "alice", "admin", time.Now().Add(time.Hour), "go_netinv"); err == nil {
		t.Error("GenerateToken() should fail when secret is not initialized")
	}
}
