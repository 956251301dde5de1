package presence

import (
	"testing"

	"go.uber.org/zap"
)

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

func TestIdentityStableWithinRoom(t *testing.T) {
	p := NewIdentityProvider(t.TempDir(), testLogger())

	first := p.GetOrCreate("room-a")
	if first == "" {
		t.Fatal("expected a generated identity")
	}
	for i := 0; i < 5; i++ {
		if got := p.GetOrCreate("room-a"); got != first {
			t.Fatalf("identity changed on repeat call: %s != %s", got, first)
		}
	}
}

func TestIdentityDistinctAcrossRooms(t *testing.T) {
	p := NewIdentityProvider(t.TempDir(), testLogger())

	if p.GetOrCreate("room-a") == p.GetOrCreate("room-b") {
		t.Fatal("identities must not be reused across rooms")
	}
}

func TestIdentitySurvivesRestart(t *testing.T) {
	dir := t.TempDir()

	first := NewIdentityProvider(dir, testLogger()).GetOrCreate("room-a")
	second := NewIdentityProvider(dir, testLogger()).GetOrCreate("room-a")
	if first != second {
		t.Fatalf("identity should persist across restarts: %s != %s", first, second)
	}
}

func TestIdentityDegradesWithoutStorage(t *testing.T) {
	// A hostile state dir means file writes fail; identity must still work
	// for the lifetime of the process.
	p := NewIdentityProvider("/dev/null/not-a-dir", testLogger())

	first := p.GetOrCreate("room-a")
	if first == "" {
		t.Fatal("expected an in-memory identity")
	}
	if got := p.GetOrCreate("room-a"); got != first {
		t.Fatalf("in-memory identity not stable: %s != %s", got, first)
	}
}

func TestNicknameIsSeparatelyScoped(t *testing.T) {
	dir := t.TempDir()

	p := NewIdentityProvider(dir, testLogger())
	id := p.GetOrCreate("room-a")
	p.SetNickname("alex")

	reloaded := NewIdentityProvider(dir, testLogger())
	if reloaded.Nickname() != "alex" {
		t.Fatalf("nickname not persisted, got %q", reloaded.Nickname())
	}
	if reloaded.GetOrCreate("room-a") != id {
		t.Fatal("setting a nickname must not disturb room identities")
	}
}
