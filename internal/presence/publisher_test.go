package presence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nowly-app/nowly/internal/domain"
)

// recordingStore is a LocationStore that captures upserts and can be told
// to fail them.
type recordingStore struct {
	mu      sync.Mutex
	upserts []domain.LocationRecord
	fail    bool
}

func (s *recordingStore) Upsert(_ context.Context, rec domain.LocationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("store unavailable")
	}
	s.upserts = append(s.upserts, rec)
	return nil
}

func (s *recordingStore) Delete(context.Context, string, string) error { return nil }

func (s *recordingStore) SnapshotByRoom(context.Context, string) ([]domain.LocationRecord, error) {
	return nil, nil
}

func (s *recordingStore) Subscribe(context.Context, string) (<-chan domain.ChangeEvent, func(), error) {
	return nil, func() {}, nil
}

func (s *recordingStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.upserts)
}

func (s *recordingStore) setFail(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = fail
}

func (s *recordingStore) last() domain.LocationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upserts[len(s.upserts)-1]
}

func waitForUpserts(t *testing.T, store *recordingStore, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if store.count() >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d upserts, saw %d", want, store.count())
}

func TestPublisherPublishesFirstFixImmediately(t *testing.T) {
	store := &recordingStore{}
	pub := NewPublisher(store, "room-a", "user-1", time.Hour, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fixes := make(chan domain.Fix, 1)
	done := make(chan struct{})
	go func() {
		pub.Run(ctx, fixes)
		close(done)
	}()

	fixes <- domain.Fix{Lat: 1, Lng: 2}
	waitForUpserts(t, store, 1)

	rec := store.last()
	if rec.RoomID != "room-a" || rec.UserID != "user-1" || rec.Lat != 1 || rec.Lng != 2 {
		t.Fatalf("unexpected record published: %+v", rec)
	}
	if rec.UpdatedAt.IsZero() {
		t.Fatal("published record must carry a timestamp")
	}

	cancel()
	<-done
}

func TestPublisherRepublishesOnInterval(t *testing.T) {
	store := &recordingStore{}
	pub := NewPublisher(store, "room-a", "user-1", 10*time.Millisecond, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fixes := make(chan domain.Fix, 1)
	go pub.Run(ctx, fixes)

	fixes <- domain.Fix{Lat: 1, Lng: 2}
	waitForUpserts(t, store, 3)
}

func TestPublisherSilentBeforeFirstFix(t *testing.T) {
	store := &recordingStore{}
	pub := NewPublisher(store, "room-a", "user-1", 5*time.Millisecond, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fixes := make(chan domain.Fix)
	go pub.Run(ctx, fixes)

	time.Sleep(50 * time.Millisecond)
	if got := store.count(); got != 0 {
		t.Fatalf("published %d records before any fix existed", got)
	}
}

func TestPublisherSurvivesStoreFailures(t *testing.T) {
	store := &recordingStore{}
	store.setFail(true)
	pub := NewPublisher(store, "room-a", "user-1", 10*time.Millisecond, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fixes := make(chan domain.Fix, 1)
	go pub.Run(ctx, fixes)

	fixes <- domain.Fix{Lat: 1, Lng: 2}
	time.Sleep(40 * time.Millisecond)

	store.setFail(false)
	waitForUpserts(t, store, 1)
}

func TestPublisherStopsWhenSourceCloses(t *testing.T) {
	store := &recordingStore{}
	pub := NewPublisher(store, "room-a", "user-1", time.Hour, testLogger())

	fixes := make(chan domain.Fix)
	done := make(chan struct{})
	go func() {
		pub.Run(context.Background(), fixes)
		close(done)
	}()

	close(fixes)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher did not stop after the fix source closed")
	}
}
