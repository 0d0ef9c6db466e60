package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/monocle-dev/taskboard/internal/models"
)

func TestManager(t *testing.T) {
	user := models.User{ID: 42, Role: models.RoleAdmin}
	m := NewManager("test-secret", 24*time.Hour)

	token, err := m.Generate(user)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("expected token to verify, got: %v", err)
	}
	if claims.UserID != 42 || claims.Role != models.RoleAdmin {
		t.Errorf("unexpected claims: %+v", claims)
	}

	t.Run("wrong secret", func(t *testing.T) {
		other := NewManager("other-secret", 24*time.Hour)
		if _, err := other.Verify(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		later := NewManager("test-secret", 24*time.Hour)
		later.now = func() time.Time { return time.Now().Add(25 * time.Hour) }
		if _, err := later.Verify(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := m.Verify("not.a.token"); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})
}
