package auth

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestJWTRoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", 1)
	userID := uuid.New()

	token, err := svc.Generate(userID, "member@example.com", "member")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	claims, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.UserID != userID {
		t.Errorf("UserID = %s, want %s", claims.UserID, userID)
	}
	if claims.Email != "member@example.com" {
		t.Errorf("Email = %q", claims.Email)
	}
	if claims.Role != "member" {
		t.Errorf("Role = %q", claims.Role)
	}
}

func TestJWTValidateErrors(t *testing.T) {
	svc := NewJWTService("test-secret", 1)
	other := NewJWTService("other-secret", 1)
	expired := NewJWTService("test-secret", -1)

	goodFromOther, err := other.Generate(uuid.New(), "a@b.c", "member")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	expiredToken, err := expired.Generate(uuid.New(), "a@b.c", "member")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not.a.token"},
		{"empty", ""},
		{"wrong secret", goodFromOther},
		{"expired", expiredToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Validate(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Validate(%s) error = %v, want ErrInvalidToken", tt.name, err)
			}
		})
	}
}
