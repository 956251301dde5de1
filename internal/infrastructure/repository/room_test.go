package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nowly-app/nowly/internal/domain"
)

func newTestRoomRepo(t *testing.T, at time.Time) (*roomRepository, *time.Time) {
	t.Helper()

	now := at
	repo := NewRoomRepository(10).(*roomRepository)
	repo.now = func() time.Time { return now }
	return repo, &now
}

func TestRoomRepositoryCreateAndGet(t *testing.T) {
	ctx := context.Background()
	base := time.Now().UTC()
	repo, _ := newTestRoomRepo(t, base)

	room := domain.NewRoom(30, base)
	if err := repo.Create(ctx, room); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(ctx, room); !errors.Is(err, domain.ErrRoomAlreadyExists) {
		t.Fatalf("duplicate create: got %v, want ErrRoomAlreadyExists", err)
	}

	got, err := repo.GetByID(ctx, room.ID)
	if err != nil || got.ID != room.ID {
		t.Fatalf("get: %v %+v", err, got)
	}

	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, domain.ErrRoomNotFound) {
		t.Fatalf("missing room: got %v, want ErrRoomNotFound", err)
	}
}

func TestExpiredRoomBehavesAsNonexistent(t *testing.T) {
	ctx := context.Background()
	base := time.Now().UTC()
	repo, now := newTestRoomRepo(t, base)

	room := domain.NewRoom(30, base)
	if err := repo.Create(ctx, room); err != nil {
		t.Fatalf("create: %v", err)
	}

	*now = base.Add(31 * time.Minute)
	if _, err := repo.GetByID(ctx, room.ID); !errors.Is(err, domain.ErrRoomExpired) {
		t.Fatalf("expired room read: got %v, want ErrRoomExpired", err)
	}
}

func TestReapExpiredReturnsReapedIDs(t *testing.T) {
	ctx := context.Background()
	base := time.Now().UTC()
	repo, _ := newTestRoomRepo(t, base)

	short := domain.NewRoom(30, base)
	long := domain.NewRoom(180, base)
	if err := repo.Create(ctx, short); err != nil {
		t.Fatalf("create short: %v", err)
	}
	if err := repo.Create(ctx, long); err != nil {
		t.Fatalf("create long: %v", err)
	}

	reaped, err := repo.ReapExpired(ctx, base.Add(31*time.Minute))
	if err != nil {
		t.Fatalf("reap: %v", err)
	}
	if len(reaped) != 1 || reaped[0] != short.ID {
		t.Fatalf("reaped %v, want [%s]", reaped, short.ID)
	}

	if _, err := repo.GetByID(ctx, long.ID); err != nil {
		t.Fatalf("long room should survive the reap: %v", err)
	}
}

func TestCapacityEvictsRoomsClosestToExpiry(t *testing.T) {
	ctx := context.Background()
	base := time.Now().UTC()

	repo := NewRoomRepository(2).(*roomRepository)
	repo.now = func() time.Time { return base }

	first := domain.NewRoom(30, base)
	second := domain.NewRoom(60, base)
	third := domain.NewRoom(180, base)

	for _, room := range []*domain.Room{first, second, third} {
		if err := repo.Create(ctx, room); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	if _, err := repo.GetByID(ctx, first.ID); !errors.Is(err, domain.ErrRoomNotFound) {
		t.Fatalf("room closest to expiry should have been evicted, got %v", err)
	}
	if _, err := repo.GetByID(ctx, third.ID); err != nil {
		t.Fatalf("newest room should remain: %v", err)
	}
}
