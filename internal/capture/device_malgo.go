package capture

import (
	"encoding/hex"
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gen2brain/malgo"
	"github.com/rs/zerolog"
	"github.com/smallnest/ringbuffer"
)

// devicePollInterval bounds how long Read waits between looks at the ring
// buffer while it is empty.
const devicePollInterval = 5 * time.Millisecond

// platformBackend picks the miniaudio backend for the current platform.
// nil lets miniaudio choose.
func platformBackend() []malgo.Backend {
	switch runtime.GOOS {
	case "linux":
		return []malgo.Backend{malgo.BackendAlsa}
	case "windows":
		return []malgo.Backend{malgo.BackendWasapi}
	case "darwin":
		return []malgo.Backend{malgo.BackendCoreaudio}
	default:
		return nil
	}
}

// malgoDevice adapts a miniaudio capture device, whose data arrives on a
// callback thread, into the blocking pull Device the producer loop wants.
// The data callback writes raw PCM into a ring buffer; Read drains it.
// Closing stops the device first, so once Read has emptied the ring it
// returns io.EOF and the producer can finish its graceful drain.
type malgoDevice struct {
	ctx *malgo.AllocatedContext
	dev *malgo.Device
	rb  *ringbuffer.RingBuffer
	log zerolog.Logger

	done     chan struct{}
	doneOnce sync.Once
	stopping atomic.Bool
	drops    atomic.Uint64

	mu    sync.Mutex
	fatal error

	closeOnce sync.Once
	closeErr  error
}

// OpenDevice opens the configured capture source at the session format and
// starts it. miniaudio converts from the hardware format internally, so
// frames always arrive as 16 kHz mono S16 regardless of the device.
func OpenDevice(cfg Config, log zerolog.Logger) (Device, error) {
	cfg = cfg.withDefaults()

	deviceType := malgo.Capture
	if cfg.Source == SourceLoopback {
		if cfg.Grant == nil {
			return nil, ErrNoLoopbackGrant
		}
		if runtime.GOOS != "windows" {
			// Loopback is a WASAPI feature; ALSA and CoreAudio route
			// system output through separate monitor devices instead.
			return nil, ErrLoopbackUnsupported
		}
		deviceType = malgo.Loopback
	}

	d := &malgoDevice{
		// Ring capacity in bytes: two bytes per S16 sample.
		rb:   ringbuffer.New(cfg.BufferSize * 2),
		log:  log.With().Str("component", "capture").Str("source", cfg.Source.String()).Logger(),
		done: make(chan struct{}),
	}

	ctx, err := malgo.InitContext(platformBackend(), malgo.ContextConfig{}, func(message string) {
		d.log.Debug().Msg(strings.TrimSpace(message))
	})
	if err != nil {
		return nil, fmt.Errorf("%w: initializing audio context: %v", ErrDeviceUnavailable, err)
	}
	d.ctx = ctx

	deviceConfig := malgo.DefaultDeviceConfig(deviceType)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = uint32(cfg.Channels)
	deviceConfig.SampleRate = uint32(cfg.SampleRate)
	deviceConfig.Alsa.NoMMap = 1

	if cfg.Device != "" {
		id, err := findDeviceID(ctx, cfg.Device)
		if err != nil {
			d.closeErr = d.teardownCtx()
			return nil, err
		}
		deviceConfig.Capture.DeviceID = id.Pointer()
	}

	callbacks := malgo.DeviceCallbacks{
		Data: d.onData,
		Stop: d.onStop,
	}

	dev, err := malgo.InitDevice(ctx.Context, deviceConfig, callbacks)
	if err != nil {
		d.closeErr = d.teardownCtx()
		return nil, fmt.Errorf("%w: initializing %s device: %v", ErrDeviceUnavailable, cfg.Source, err)
	}
	d.dev = dev

	if err := dev.Start(); err != nil {
		dev.Uninit()
		d.closeErr = d.teardownCtx()
		return nil, fmt.Errorf("%w: starting %s device: %v", ErrDeviceUnavailable, cfg.Source, err)
	}

	return d, nil
}

// onData runs on the miniaudio callback thread. It must not block, so a
// full ring drops the incoming block rather than waiting for the reader.
// Blocks are written whole or not at all: a partial write could split a
// sample across reads and shift the int16 framing for the rest of the
// session.
func (d *malgoDevice) onData(_, pcm []byte, _ uint32) {
	if d.rb.Free() < len(pcm) {
		if c := d.drops.Add(1); c == 1 || c%100 == 0 {
			d.log.Warn().Uint64("drops", c).Msg("capture ring full, dropping device audio")
		}
		return
	}
	if _, err := d.rb.Write(pcm); err != nil {
		if c := d.drops.Add(1); c == 1 || c%100 == 0 {
			d.log.Warn().Err(err).Uint64("drops", c).Msg("capture ring write failed")
		}
	}
}

// onStop runs when the device stops. During Close that is expected; at any
// other time the device died underneath us.
func (d *malgoDevice) onStop() {
	if d.stopping.Load() {
		return
	}
	d.mu.Lock()
	if d.fatal == nil {
		d.fatal = ErrDeviceLost
	}
	d.mu.Unlock()
	d.log.Warn().Msg("capture device stopped unexpectedly")
	d.doneOnce.Do(func() { close(d.done) })
}

// Read blocks until PCM is available, the device is closed (io.EOF after
// the ring is drained), or the device is lost (ErrDeviceLost).
func (d *malgoDevice) Read(p []byte) (int, error) {
	for {
		d.mu.Lock()
		fatal := d.fatal
		d.mu.Unlock()
		if fatal != nil {
			return 0, fatal
		}

		n, err := d.rb.Read(p)
		if n > 0 {
			return n, nil
		}
		if err != nil && err != ringbuffer.ErrIsEmpty {
			return 0, err
		}

		select {
		case <-d.done:
			// The device produced its last callback before done closed,
			// so one more look drains anything buffered since the read
			// above.
			if n, _ := d.rb.Read(p); n > 0 {
				return n, nil
			}
			return 0, io.EOF
		case <-time.After(devicePollInterval):
		}
	}
}

// Close stops and releases the device and the audio context. Idempotent;
// a pending Read unblocks with io.EOF once the ring is drained.
func (d *malgoDevice) Close() error {
	d.closeOnce.Do(func() {
		d.stopping.Store(true)
		if d.dev != nil {
			d.dev.Uninit()
			d.dev = nil
		}
		d.doneOnce.Do(func() { close(d.done) })
		if n := d.drops.Load(); n > 0 {
			d.log.Warn().Uint64("drops", n).Msg("capture ring overflowed during session")
		}
		d.closeErr = d.teardownCtx()
	})
	return d.closeErr
}

func (d *malgoDevice) teardownCtx() error {
	if d.ctx == nil {
		return nil
	}
	err := d.ctx.Uninit()
	d.ctx.Free()
	d.ctx = nil
	if err != nil {
		return fmt.Errorf("uninitializing audio context: %w", err)
	}
	return nil
}

// ListDevices enumerates the available capture devices.
func ListDevices() ([]DeviceInfo, error) {
	ctx, err := malgo.InitContext(platformBackend(), malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: initializing audio context: %v", ErrDeviceUnavailable, err)
	}
	defer func() {
		_ = ctx.Uninit()
		ctx.Free()
	}()

	infos, err := ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("%w: enumerating capture devices: %v", ErrDeviceUnavailable, err)
	}

	devices := make([]DeviceInfo, 0, len(infos))
	for i, info := range infos {
		devices = append(devices, DeviceInfo{
			Index:     i,
			Name:      info.Name(),
			ID:        decodeDeviceID(info.ID.String()),
			IsDefault: info.IsDefault != 0,
		})
	}
	return devices, nil
}

func findDeviceID(ctx *malgo.AllocatedContext, name string) (malgo.DeviceID, error) {
	infos, err := ctx.Devices(malgo.Capture)
	if err != nil {
		return malgo.DeviceID{}, fmt.Errorf("%w: enumerating capture devices: %v", ErrDeviceUnavailable, err)
	}
	want := strings.ToLower(name)
	for i := range infos {
		if strings.Contains(strings.ToLower(infos[i].Name()), want) {
			return infos[i].ID, nil
		}
	}
	return malgo.DeviceID{}, fmt.Errorf("%w: no capture device matching %q", ErrDeviceUnavailable, name)
}

// decodeDeviceID turns the hex-encoded miniaudio device ID into readable
// text where possible. ALSA IDs are plain strings under the encoding;
// anything non-printable stays hex.
func decodeDeviceID(hexID string) string {
	b, err := hex.DecodeString(hexID)
	if err != nil {
		return hexID
	}
	s := strings.TrimRight(string(b), "\x00")
	for _, r := range s {
		if r < 0x20 || r > 0x7e {
			return hexID
		}
	}
	return s
}
