package capture

import "errors"

// Fatal capture errors. Everything the device layer can throw is folded
// into one of these so a device fault never escapes as a panic or an
// unclassified failure.
var (
	// ErrSessionActive is returned by Start while another session is
	// capturing. The caller must Stop or Cancel the active session first.
	ErrSessionActive = errors.New("capture: a session is already active")

	// ErrDeviceUnavailable wraps failures to open or configure the capture
	// device at the requested format.
	ErrDeviceUnavailable = errors.New("capture: device unavailable")

	// ErrDeviceLost is reported when the device dies mid-capture, for
	// example when the hardware is unplugged or the audio service resets.
	// The session moves to StateFailed.
	ErrDeviceLost = errors.New("capture: device lost")

	// ErrLoopbackUnsupported is returned when system-audio loopback is
	// requested on a platform whose audio backend cannot provide it.
	ErrLoopbackUnsupported = errors.New("capture: loopback capture not supported on this platform")

	// ErrNoLoopbackGrant is returned when loopback capture is requested
	// without the platform authorization grant.
	ErrNoLoopbackGrant = errors.New("capture: loopback capture requires an authorization grant")
)
