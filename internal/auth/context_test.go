package auth

import (
	"context"
	"testing"
)

func TestWithAuthAndFromContext(t *testing.T) {
	ac := AuthContext{
		UserID:    "4a0a2c2a-92cf-4f2b-8f57-0c2f2f8d8f11",
		SessionID: 3,
	}

	ctx := WithAuth(context.Background(), ac)
	got, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected AuthContext in context")
	}
	if got.UserID != ac.UserID {
		t.Errorf("UserID = %q, want %q", got.UserID, ac.UserID)
	}
	if got.SessionID != 3 {
		t.Errorf("SessionID = %d, want 3", got.SessionID)
	}
}

func TestFromContextMissing(t *testing.T) {
	_, ok := FromContext(context.Background())
	if ok {
		t.Error("expected false for missing AuthContext")
	}
}

func TestUserID(t *testing.T) {
	ctx := WithAuth(context.Background(), AuthContext{UserID: "u-7"})
	if UserID(ctx) != "u-7" {
		t.Errorf("UserID = %q, want u-7", UserID(ctx))
	}
}

func TestUserIDMissing(t *testing.T) {
	if UserID(context.Background()) != "" {
		t.Error("expected empty string for missing context")
	}
}
