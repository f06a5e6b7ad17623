package utils

import (
	"strconv"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

// TestNewAccessToken_SubjectSurvivesLargeIDs verifies the subject claim
// round-trips exactly for IDs beyond float64's integer range.
func TestNewAccessToken_SubjectSurvivesLargeIDs(t *testing.T) {
	const secret = "test-secret"
	for _, userID := range []uint64{1, 1 << 53, 18446744073709551615} {
		access, err := NewAccessToken(secret, userID, "PLAYER", 15)
		if err != nil {
			t.Fatalf("NewAccessToken(%d) failed: %v", userID, err)
		}
		tok, err := jwt.Parse(access.Token, func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		})
		if err != nil || !tok.Valid {
			t.Fatalf("parse failed for %d: %v", userID, err)
		}
		claims := tok.Claims.(jwt.MapClaims)
		sub, ok := claims["sub"].(string)
		if !ok {
			t.Fatalf("sub for %d is %T, want string", userID, claims["sub"])
		}
		got, err := strconv.ParseUint(sub, 10, 64)
		if err != nil || got != userID {
			t.Errorf("sub round-trip for %d gave %q (%v)", userID, sub, err)
		}
		if claims["role"] != "PLAYER" {
			t.Errorf("role claim = %v, want PLAYER", claims["role"])
		}
	}
}

func TestHashRefreshRaw_Deterministic(t *testing.T) {
	a := HashRefreshRaw("raw-token")
	b := HashRefreshRaw("raw-token")
	if a != b {
		t.Error("same input hashed to different values")
	}
	if a == HashRefreshRaw("other-token") {
		t.Error("different inputs hashed to the same value")
	}
	if len(a) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a))
	}
}
