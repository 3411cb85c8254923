//go:build linux

package focus

import (
	"strings"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog"
)

const (
	mprisPrefix  = "org.mpris.MediaPlayer2."
	mprisPath    = "/org/mpris/MediaPlayer2"
	playerIface  = "org.mpris.MediaPlayer2.Player"
	statusProp   = playerIface + ".PlaybackStatus"
	dbusListCall = "org.freedesktop.DBus.ListNames"
)

// mprisCoordinator pauses every MPRIS media player that is currently
// playing and resumes exactly those on Abandon. Every D-Bus failure is
// swallowed; the worst outcome is that nothing gets paused.
type mprisCoordinator struct {
	log zerolog.Logger

	mu      sync.Mutex
	conn    *dbus.Conn
	current *Token
}

// New returns the platform Coordinator. On Linux that pauses MPRIS players
// over the session bus.
func New(log zerolog.Logger) Coordinator {
	return &mprisCoordinator{log: log.With().Str("component", "focus").Logger()}
}

func (c *mprisCoordinator) Request() *Token {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Clear any stale grant before taking a new one.
	c.abandonLocked(c.current)
	c.current = nil

	conn, err := c.bus()
	if err != nil {
		c.log.Debug().Err(err).Msg("session bus unavailable, not pausing other audio")
		return nil
	}

	var names []string
	if err := conn.BusObject().Call(dbusListCall, 0).Store(&names); err != nil {
		c.log.Debug().Err(err).Msg("listing bus names failed")
		return nil
	}

	tok := &Token{}
	for _, name := range names {
		if !strings.HasPrefix(name, mprisPrefix) {
			continue
		}
		obj := conn.Object(name, mprisPath)
		status, err := obj.GetProperty(statusProp)
		if err != nil {
			continue
		}
		if s, ok := status.Value().(string); !ok || s != "Playing" {
			continue
		}
		if call := obj.Call(playerIface+".Pause", 0); call.Err != nil {
			c.log.Debug().Err(call.Err).Str("player", name).Msg("pause failed")
			continue
		}
		c.log.Debug().Str("player", name).Msg("paused player")
		tok.players = append(tok.players, name)
	}

	c.current = tok
	return tok
}

func (c *mprisCoordinator) Abandon(tok *Token) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.abandonLocked(tok)
	if tok == c.current {
		c.current = nil
	}
}

func (c *mprisCoordinator) abandonLocked(tok *Token) {
	if tok == nil || len(tok.players) == 0 {
		return
	}
	conn, err := c.bus()
	if err != nil {
		tok.players = nil
		return
	}
	for _, name := range tok.players {
		obj := conn.Object(name, mprisPath)
		if call := obj.Call(playerIface+".Play", 0); call.Err != nil {
			c.log.Debug().Err(call.Err).Str("player", name).Msg("resume failed")
			continue
		}
		c.log.Debug().Str("player", name).Msg("resumed player")
	}
	tok.players = nil
}

func (c *mprisCoordinator) bus() (*dbus.Conn, error) {
	if c.conn != nil {
		return c.conn, nil
	}
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, err
	}
	c.conn = conn
	return conn, nil
}
