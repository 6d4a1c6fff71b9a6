package session

import (
	"context"
	"testing"
	"time"

	"culturemark/api/internal/store"
	"github.com/alicebob/miniredis/v2"
)

func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	sessions, err := NewRedisStore("redis://" + s.Addr())
	if err != nil {
		t.Fatalf("failed to create redis store: %v", err)
	}
	return sessions, s
}

func testUser(id, email string) store.User {
	return store.User{ID: id, Email: email, Name: "Test User", Role: "annotator"}
}

func TestNewRedisStore(t *testing.T) {
	s := miniredis.RunT(t)
	defer s.Close()

	sessions, err := NewRedisStore("redis://" + s.Addr())
	if err != nil {
		t.Fatalf("NewRedisStore failed: %v", err)
	}
	defer sessions.Close()

	if err := sessions.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestSaveAndLookupSession(t *testing.T) {
	sessions, s := setupTestRedis(t)
	defer sessions.Close()
	defer s.Close()

	ctx := context.Background()
	expiresAt := time.Now().Add(24 * time.Hour)

	if err := sessions.SaveSession(ctx, "hash-1", testUser("usr_1", "a@example.com"), expiresAt); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	user, err := sessions.LookupSession(ctx, "hash-1")
	if err != nil {
		t.Fatalf("LookupSession failed: %v", err)
	}
	if user.ID != "usr_1" || user.Email != "a@example.com" || user.Role != "annotator" {
		t.Errorf("unexpected user: %+v", user)
	}
}

func TestLookupExpiredSession(t *testing.T) {
	sessions, s := setupTestRedis(t)
	defer sessions.Close()
	defer s.Close()

	ctx := context.Background()
	if err := sessions.SaveSession(ctx, "hash-exp", testUser("usr_2", "b@example.com"), time.Now().Add(time.Millisecond)); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	s.FastForward(2 * time.Millisecond)

	if _, err := sessions.LookupSession(ctx, "hash-exp"); err == nil {
		t.Error("expected error for expired token, got nil")
	}
}

func TestLookupNonExistentSession(t *testing.T) {
	sessions, s := setupTestRedis(t)
	defer sessions.Close()
	defer s.Close()

	if _, err := sessions.LookupSession(context.Background(), "missing"); err == nil {
		t.Error("expected error for non-existent token, got nil")
	}
}

func TestRevokeSession(t *testing.T) {
	sessions, s := setupTestRedis(t)
	defer sessions.Close()
	defer s.Close()

	ctx := context.Background()
	expiresAt := time.Now().Add(24 * time.Hour)

	if err := sessions.SaveSession(ctx, "hash-rev", testUser("usr_3", "c@example.com"), expiresAt); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}
	if err := sessions.RevokeSession(ctx, "hash-rev"); err != nil {
		t.Fatalf("RevokeSession failed: %v", err)
	}
	if _, err := sessions.LookupSession(ctx, "hash-rev"); err == nil {
		t.Error("expected error for revoked token, got nil")
	}

	// revoking again is a no-op, not an error
	if err := sessions.RevokeSession(ctx, "hash-rev"); err != nil {
		t.Errorf("second revoke failed: %v", err)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	sessions, s := setupTestRedis(t)
	defer sessions.Close()
	defer s.Close()

	ctx := context.Background()
	expiresAt := time.Now().Add(24 * time.Hour)

	if err := sessions.SaveSession(ctx, "hash-a", testUser("usr_a", "a@example.com"), expiresAt); err != nil {
		t.Fatal(err)
	}
	if err := sessions.SaveSession(ctx, "hash-b", testUser("usr_b", "b@example.com"), expiresAt); err != nil {
		t.Fatal(err)
	}

	if err := sessions.RevokeSession(ctx, "hash-a"); err != nil {
		t.Fatal(err)
	}

	if _, err := sessions.LookupSession(ctx, "hash-a"); err == nil {
		t.Error("revoked session should be gone")
	}
	user, err := sessions.LookupSession(ctx, "hash-b")
	if err != nil {
		t.Fatalf("unrelated session lost: %v", err)
	}
	if user.ID != "usr_b" {
		t.Errorf("expected usr_b, got %s", user.ID)
	}
}
