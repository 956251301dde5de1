package domain

import (
	"testing"
	"time"
)

func TestClampDurationAllowList(t *testing.T) {
	for _, m := range []int{30, 60, 180} {
		if got := ClampDuration(m); got != m {
			t.Fatalf("ClampDuration(%d) = %d, want %d", m, got, m)
		}
	}

	for _, m := range []int{0, -5, 15, 45, 90, 181, 9999} {
		if got := ClampDuration(m); got != DefaultDurationMinutes {
			t.Fatalf("ClampDuration(%d) = %d, want default %d", m, got, DefaultDurationMinutes)
		}
	}
}

func TestNewRoomExpiryArithmetic(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for _, m := range []int{30, 60, 180} {
		room := NewRoom(m, now)
		want := now.Add(time.Duration(m) * time.Minute)
		if !room.ExpiresAt.Equal(want) {
			t.Fatalf("duration %d: expiresAt = %v, want %v", m, room.ExpiresAt, want)
		}
		if room.ID == "" {
			t.Fatal("expected a generated room id")
		}
	}

	room := NewRoom(42, now)
	if !room.ExpiresAt.Equal(now.Add(60 * time.Minute)) {
		t.Fatalf("invalid duration should fall back to 60m, got %v", room.ExpiresAt)
	}
}

func TestRoomExpiredAndRemaining(t *testing.T) {
	now := time.Now().UTC()
	room := NewRoom(30, now)

	if room.Expired(now) {
		t.Fatal("room should not be expired at creation")
	}
	if room.Expired(now.Add(30*time.Minute - time.Second)) {
		t.Fatal("room should still be live just before expiry")
	}
	if !room.Expired(now.Add(30 * time.Minute)) {
		t.Fatal("room should be expired exactly at expiresAt")
	}

	if got := room.Remaining(now.Add(29 * time.Minute)); got != time.Minute {
		t.Fatalf("remaining = %v, want 1m", got)
	}
	if got := room.Remaining(now.Add(31 * time.Minute)); got != 0 {
		t.Fatalf("remaining after expiry = %v, want 0", got)
	}
}
