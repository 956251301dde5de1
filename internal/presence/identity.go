package presence

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// identityState is the on-disk shape: one id per room this device has
// entered, plus the separately scoped optional display name.
type identityState struct {
	Rooms    map[string]string `json:"rooms"`
	Nickname string            `json:"nickname,omitempty"`
}

// IdentityProvider hands out one stable userId per (device, room) pair.
// Identities persist in a JSON file under the state dir so they survive
// restarts of the same room; when storage is unusable it degrades to
// process-lifetime identities rather than failing.
type IdentityProvider struct {
	path   string
	mem    identityState // authoritative copy; file writes are best-effort
	logger *zap.SugaredLogger
	mu     sync.Mutex
}

func NewIdentityProvider(stateDir string, logger *zap.SugaredLogger) *IdentityProvider {
	p := &IdentityProvider{
		mem:    identityState{Rooms: make(map[string]string)},
		logger: logger,
	}

	if stateDir != "" {
		p.path = filepath.Join(stateDir, "identity.json")
		p.load()
	}

	return p
}

// GetOrCreate returns the previously stored id for the room unchanged, or
// generates and stores a fresh one. Regeneration only ever happens when no
// prior identity exists.
func (p *IdentityProvider) GetOrCreate(roomID string) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if id, ok := p.mem.Rooms[roomID]; ok && id != "" {
		return id
	}

	id := uuid.NewString()
	p.mem.Rooms[roomID] = id
	p.save()
	return id
}

func (p *IdentityProvider) Nickname() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mem.Nickname
}

func (p *IdentityProvider) SetNickname(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.mem.Nickname = name
	p.save()
}

func (p *IdentityProvider) load() {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if !os.IsNotExist(err) {
			p.logger.Debugw("identity file unreadable, using in-memory identities", "path", p.path, "error", err)
		}
		return
	}

	var state identityState
	if err := json.Unmarshal(data, &state); err != nil {
		p.logger.Debugw("identity file corrupt, using in-memory identities", "path", p.path, "error", err)
		return
	}
	if state.Rooms == nil {
		state.Rooms = make(map[string]string)
	}
	p.mem = state
}

// save is best-effort: storage being unavailable degrades to in-memory
// identities, it never fails the caller.
func (p *IdentityProvider) save() {
	if p.path == "" {
		return
	}

	data, err := json.MarshalIndent(p.mem, "", "  ")
	if err != nil {
		return
	}

	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		p.logger.Debugw("identity dir not writable", "path", p.path, "error", err)
		return
	}
	if err := os.WriteFile(p.path, data, 0o600); err != nil {
		p.logger.Debugw("identity file not writable", "path", p.path, "error", err)
	}
}
