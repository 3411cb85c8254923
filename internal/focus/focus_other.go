//go:build !linux

package focus

import "github.com/rs/zerolog"

// New returns the platform Coordinator. Only Linux has a pauser today;
// other platforms get the no-op.
func New(_ zerolog.Logger) Coordinator {
	return Noop()
}
