// Command client is a participant: it creates or joins a room, derives its
// stable per-room identity, publishes simulated location fixes, and logs the
// presence view until the room expires or the process is interrupted.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nowly-app/nowly/internal/domain"
	"github.com/nowly-app/nowly/internal/infrastructure/configs"
	"github.com/nowly-app/nowly/internal/presence"
	"github.com/nowly-app/nowly/internal/transport/client"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	var (
		serverURL  string
		shareURL   string
		roomID     string
		minutes    int
		nickname   string
		stateDir   string
		configPath string
	)
	flag.StringVar(&serverURL, "server", "http://localhost:8080", "base URL of the nowly server")
	flag.StringVar(&shareURL, "url", "", "share URL to join (wins over -room)")
	flag.StringVar(&roomID, "room", "", "room id to join; empty creates a new room")
	flag.IntVar(&minutes, "minutes", domain.DefaultDurationMinutes, "room duration when creating (30, 60 or 180)")
	flag.StringVar(&nickname, "name", "", "optional display name")
	flag.StringVar(&stateDir, "state-dir", defaultStateDir(), "directory for the per-device identity file")
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	logger := zap.Must(zap.NewDevelopment()).Sugar()
	defer logger.Sync()

	cfg, err := configs.Load(configs.ResolvePath(configPath))
	if err != nil {
		logger.Fatalw("config load failed", "error", err)
	}

	if err := run(serverURL, shareURL, roomID, minutes, nickname, stateDir, timingsFromConfig(cfg), logger); err != nil {
		logger.Fatalw("client failed", "error", err)
	}
}

// timingsFromConfig binds the presence config section to the engine's
// scheduling constants; unset fields fall back to the package defaults.
func timingsFromConfig(cfg *configs.Config) presence.Timings {
	return presence.Timings{
		PublishInterval: cfg.Presence.PublishInterval,
		SweepInterval:   cfg.Presence.SweepInterval,
		StaleThreshold:  cfg.Presence.StaleThreshold,
		RedirectGrace:   cfg.Presence.RedirectGrace,
	}
}

func run(serverURL, shareURL, roomID string, minutes int, nickname, stateDir string, timings presence.Timings, logger *zap.SugaredLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api := client.New(serverURL, logger)

	room, err := resolveRoom(ctx, api, shareURL, roomID, minutes, nickname, logger)
	if err != nil {
		return err
	}

	identities := presence.NewIdentityProvider(stateDir, logger)
	if nickname != "" {
		identities.SetNickname(nickname)
	}
	userID := identities.GetOrCreate(room.ID)
	logger.Infow("joining room", "roomId", room.ID, "userId", userID, "expiresAt", room.ExpiresAt)

	controller := presence.NewController(presence.ControllerConfig{
		Room:    room,
		UserID:  userID,
		Store:   api,
		Source:  presence.NewSimSource(domain.FallbackFix),
		Timings: timings,
		OnChange: func(change domain.PresenceChange) {
			logger.Infow("presence change",
				"kind", change.Kind, "userId", change.UserID,
				"lat", change.Position.Lat, "lng", change.Position.Lng)
		},
		OnTick: func(remaining time.Duration) {
			if sec := int(remaining.Seconds()); sec%30 == 0 {
				logger.Infow("time left", "remaining", formatMMSS(remaining))
			}
		},
		OnExpired: func() {
			// The browser would navigate back to the entry point here.
			logger.Infow("room expired, leaving", "roomId", room.ID)
		},
		Logger: logger,
	})

	err = controller.Run(ctx)
	if errors.Is(err, context.Canceled) {
		logger.Infow("left room", "roomId", room.ID)
		return nil
	}
	return err
}

// resolveRoom joins via share URL or room id, or creates a fresh room. A
// room the server no longer knows (including an expired one) sends the user
// back to the entry point; here that means a plain error, not a crash. When
// the server is unreachable but the share URL carried timing parameters,
// expiry is derived from those instead.
func resolveRoom(ctx context.Context, api *client.Client, shareURL, roomID string, minutes int, nickname string, logger *zap.SugaredLogger) (*domain.Room, error) {
	var urlMinutes int
	var urlExpires string

	if shareURL != "" {
		id, m, expires, err := parseShareURL(shareURL)
		if err != nil {
			return nil, err
		}
		roomID, urlMinutes, urlExpires = id, m, expires
	}

	if roomID != "" {
		room, err := api.GetRoom(ctx, roomID)
		if errors.Is(err, domain.ErrRoomNotFound) {
			return nil, fmt.Errorf("room %s is gone (expired or never existed)", roomID)
		}
		if err != nil && shareURL != "" {
			logger.Warnw("room lookup failed, trusting share URL parameters", "roomId", roomID, "error", err)
			now := time.Now().UTC()
			return &domain.Room{
				ID:              roomID,
				CreatedAt:       now,
				DurationMinutes: domain.ClampDuration(urlMinutes),
				ExpiresAt:       presence.ResolveExpiry(urlExpires, urlMinutes, now),
			}, nil
		}
		return room, err
	}

	created, err := api.CreateRoom(ctx, minutes)
	if err != nil {
		return nil, err
	}

	share := created.ShareURL
	if nickname != "" {
		share += "&name=" + url.QueryEscape(nickname)
	}
	logger.Infow("room created", "roomId", created.RoomID, "shareUrl", share)

	return api.GetRoom(ctx, created.RoomID)
}

// parseShareURL extracts the room id and timing parameters from a
// /r/<roomId>?minutes=..&expires=.. share link.
func parseShareURL(raw string) (roomID string, minutes int, expires string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", 0, "", fmt.Errorf("invalid share URL: %w", err)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) != 2 || parts[0] != "r" || parts[1] == "" {
		return "", 0, "", fmt.Errorf("invalid share URL path: %s", u.Path)
	}

	query := u.Query()
	minutes, _ = strconv.Atoi(query.Get("minutes"))
	return parts[1], minutes, query.Get("expires"), nil
}

func formatMMSS(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

func defaultStateDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "nowly")
	}
	return ".nowly"
}
