package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateAndParse(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	signed, err := m.Generate(42, "alice", false)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	claims, err := m.Parse(signed)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	assert.Equal(t, "alice", claims.Username)
	assert.False(t, claims.IsAdmin)

	userID, err := claims.UserID()
	if err != nil {
		t.Fatalf("user id: %v", err)
	}
	assert.Equal(t, uint(42), userID)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	signed, err := NewManager("secret-a", time.Hour).Generate(1, "bob", false)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	_, err = NewManager("secret-b", time.Hour).Parse(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsExpired(t *testing.T) {
	signed, err := NewManager("secret", -time.Minute).Generate(1, "bob", false)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	_, err = NewManager("secret", -time.Minute).Parse(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGenerateWithoutSecretFails(t *testing.T) {
	_, err := NewManager("", time.Hour).Generate(1, "bob", false)
	assert.Error(t, err)
}
